package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockPort  = 9091
	appPort   = 8081
	debugAddr = "127.0.0.1:6060"
)

var modelsResp = []byte(`{"object":"list","data":[
	{"id":"llama3-70b-8192","object":"model","owned_by":"Meta"},
	{"id":"llama3-8b-8192","object":"model","owned_by":"Meta"},
	{"id":"mixtral-8x7b-32768","object":"model","owned_by":"Mistral AI"}
]}`)

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	failRate := flag.Int("fail-rate", 0, "Percent of vendor calls answered with 401 (exercises the fallback path)")
	latency := flag.Duration("vendor-latency", 20*time.Millisecond, "Simulated vendor latency")
	chaos := flag.Bool("chaos", false, "Simulate random client disconnections")
	flag.Parse()

	go startMockVendor(*failRate, *latency)

	fmt.Println("Building application...")
	buildCmd := exec.Command("go", "build", "-o", "bin/server", "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	fmt.Println("Starting application...")
	cmd := exec.Command("./bin/server")
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("SERVER_PORT=%d", appPort),
		"SERVER_DEBUG_ADDR="+debugAddr,
		"LOG_LEVEL=error",
		"FETCH_REQUIRE_SESSION=false",
		fmt.Sprintf("FETCH_PROVIDERS_GROQ=http://localhost:%d/openai/v1", mockPort),
		"RATE_LIMIT_REQUESTS_PER_SECOND=100000",
		"RATE_LIMIT_BURST=100000",
		"DATABASE_DSN=file:bench.db?mode=rwc&_journal_mode=WAL&_busy_timeout=5000",
	)

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	// stops the monitor and chaos goroutines
	done := make(chan struct{})

	go func() {
		time.Sleep(2 * time.Second)
		monitorResources(cmd.Process.Pid, done)
	}()

	fmt.Printf("Running fetch-models benchmark: %s duration, %d req/s, %d%% vendor failures\n", *duration, *rate, *failRate)

	url := fmt.Sprintf("http://localhost:%d/api/fetch-models", appPort)
	body := []byte(`{"provider":"groq","apiKey":"gsk-bench"}`)

	targeter := func(t *vegeta.Target) error {
		t.Method = http.MethodPost
		t.URL = url
		t.Body = body
		t.Header = http.Header{
			"Content-Type":      []string{"application/json"},
			"X-Benchmark-Start": []string{strconv.FormatInt(time.Now().UnixNano(), 10)},
		}
		return nil
	}

	if *chaos {
		fmt.Println("CHAOS MODE ENABLED: Starting Chaos Monkey sidecar...")
		concurrency := min(max(*rate/10, 5), 50)
		go startChaosMonkey(url, body, concurrency, done)
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics
	var fallbacks int

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "FetchModels") {
		metrics.Add(res)
		if res.Code == http.StatusOK && strings.Contains(string(res.Body), `"warning"`) {
			fallbacks++
		}
	}
	metrics.Close()
	close(done)

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Fallbacks:       %d of %d\n", fallbacks, metrics.Requests)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")
		seen := make(map[string]bool)
		for _, msg := range metrics.Errors {
			if len(seen) == 5 {
				break
			}
			if !seen[msg] {
				fmt.Println(msg)
				seen[msg] = true
			}
		}
	}

	_ = os.Remove("bench.db")
}

func startChaosMonkey(url string, body []byte, concurrency int, done chan struct{}) {
	fmt.Printf("Starting Chaos Monkey with %d concurrent disrupters (random disconnects 1-200ms)\n", concurrency)
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			client := &http.Client{}

			for {
				select {
				case <-done:
					return
				default:
					timeout := time.Duration(rand.Intn(200)+1) * time.Millisecond
					ctx, cancel := context.WithTimeout(context.Background(), timeout)
					req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
					req.Header.Set("Content-Type", "application/json")

					resp, err := client.Do(req)
					if err == nil {
						_ = resp.Body.Close()
					}
					cancel()

					time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()
}

// startMockVendor imitates Groq's list-models endpoint.
func startMockVendor(failRate int, latency time.Duration) {
	mux := http.NewServeMux()

	mux.HandleFunc("/openai/v1/models", func(w http.ResponseWriter, r *http.Request) {
		if startStr := r.Header.Get("X-Benchmark-Start"); startStr != "" {
			start, _ := strconv.ParseInt(startStr, 10, 64)
			if rand.Intn(100) == 0 {
				fmt.Printf("DEBUG: Proxy Overhead: %v\n", time.Duration(time.Now().UnixNano()-start))
			}
		}

		time.Sleep(latency)
		w.Header().Set("Content-Type", "application/json")

		if rand.Intn(100) < failRate {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
			return
		}
		_, _ = w.Write(modelsResp)
	})

	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func monitorResources(pid int, done chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	fmt.Println("\n--- Resource Usage (expvar + ps) ---")
	fmt.Printf("% -10s % -10s % -10s % -10s\n", "Time", "Heap(MB)", "Alloc(MB)", "CPU(%)")

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			resp, err := http.Get("http://" + debugAddr + "/debug/vars")
			if err != nil {
				fmt.Printf("DEBUG: monitorResources failed to reach expvar: %v\n", err)
				continue
			}

			var vars struct {
				MemStats struct {
					HeapInuse uint64 `json:"HeapInuse"`
					Alloc     uint64 `json:"Alloc"`
				} `json:"memstats"`
			}
			err = json.NewDecoder(resp.Body).Decode(&vars)
			_ = resp.Body.Close()
			if err != nil {
				continue
			}

			cpu := 0.0
			out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "%cpu").Output()
			if err == nil {
				lines := strings.Split(strings.TrimSpace(string(out)), "\n")
				if len(lines) >= 2 {
					cpu, _ = strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
				}
			}

			fmt.Printf("% -10s % -10.2f % -10.2f % -10.2f\n",
				time.Now().Format("15:04:05"),
				float64(vars.MemStats.HeapInuse)/1024/1024,
				float64(vars.MemStats.Alloc)/1024/1024,
				cpu,
			)
		}
	}
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

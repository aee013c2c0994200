// Command probe asks a vendor which models a key can use, exactly as the
// dashboard's fetch-models endpoint would, and prints the result.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/nulzo/calx-web/internal/catalog"
	"github.com/nulzo/calx-web/internal/cli"
	"github.com/nulzo/calx-web/internal/modelfetch"
	"github.com/nulzo/calx-web/internal/platform/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "probe",
		Short:         "Probe AI vendors for the models a key can use",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if off, _ := cmd.Flags().GetBool("no-color"); off {
			cli.SetEnabled(false)
		}
	}

	rootCmd.AddCommand(providersCmd(), modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers",
		Run: func(cmd *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, cli.Bold("ID\tDASHBOARD\tNAME\tAUTH"))
			for _, p := range catalog.NewRegistry(nil).Infos() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.DashboardID, p.Name, p.Auth)
			}
			_ = w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	var (
		key     string
		baseURL string
		timeout time.Duration
		asJSON  bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "models <provider>",
		Short: "Fetch the model list for a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID := args[0]
			if key == "" {
				key = os.Getenv("PROBE_API_KEY")
			}
			if key == "" && providerID != catalog.Local {
				return fmt.Errorf("an API key is required, pass --key or set PROBE_API_KEY")
			}

			log := zap.NewNop()
			if verbose {
				log = logger.New(logger.Config{Level: "debug", Format: "console", EnableColor: cli.Enabled()},
					zapcore.Lock(os.Stderr), zap.NewAtomicLevel())
			}

			var overrides map[string]string
			if baseURL != "" {
				overrides = map[string]string{providerID: baseURL}
			}
			svc := modelfetch.NewService(catalog.NewRegistry(overrides), &http.Client{Timeout: timeout}, log, nil)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			res := svc.FetchModels(ctx, providerID, key)
			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), cli.PrettyFormat(res.ToList()))
				return nil
			}
			printResult(cmd, providerID, res)
			if res.Error != "" {
				return fmt.Errorf("%s", res.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "API key (defaults to $PROBE_API_KEY)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Override the vendor API root")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the JSON the dashboard receives")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log the vendor exchange to stderr")
	return cmd
}

func printResult(cmd *cobra.Command, providerID string, res modelfetch.Result) {
	out := cmd.OutOrStdout()

	switch {
	case res.Error != "":
		fmt.Fprintf(out, "%s %s: %s\n", cli.CrossMark(), providerID, res.Error)
	case res.Warning != "":
		fmt.Fprintf(out, "%s %s: %s", cli.WarnMark(), providerID, res.Warning)
		if res.StatusCode != 0 {
			fmt.Fprintf(out, " %s", cli.Dim(fmt.Sprintf("(HTTP %d)", res.StatusCode)))
		}
		fmt.Fprintln(out)
	default:
		fmt.Fprintf(out, "%s %s: %d models\n", cli.CheckMark(), providerID, len(res.Models))
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, m := range res.Models {
		fmt.Fprintf(w, "  %s\t%s\n", m.ID, cli.Dim(m.Name))
	}
	_ = w.Flush()
}

package model

import "time"

// Outcome values of a fetch attempt.
const (
	OutcomeLive            = "live"
	OutcomeUnknownProvider = "unknown_provider"
	OutcomeUpstream        = "upstream_error"
	OutcomeTransport       = "transport_error"
	OutcomeEmpty           = "empty"
	OutcomeLocal           = "local"
)

// FetchAttempt is one call to the model fetch service. Credentials are never stored.
type FetchAttempt struct {
	ID         string    `db:"id" json:"id"`
	ProviderID string    `db:"provider_id" json:"provider_id"`
	Outcome    string    `db:"outcome" json:"outcome"`
	StatusCode int       `db:"status_code" json:"status_code"` // 0 when no upstream response
	ModelCount int       `db:"model_count" json:"model_count"`
	LatencyMS  int64     `db:"latency_ms" json:"latency_ms"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DailyStats aggregates attempts by day, provider and outcome.
type DailyStats struct {
	Date       string  `db:"date" json:"date"`
	ProviderID string  `db:"provider_id" json:"provider_id"`
	Outcome    string  `db:"outcome" json:"outcome"`
	Attempts   int     `db:"attempts" json:"attempts"`
	AvgLatency float64 `db:"avg_latency" json:"avg_latency"`
}

package api

// Model is the provider-neutral descriptor returned to the dashboard.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ModelList is the body of a fetch-models response.
// Models is never null on the wire, the dashboard always gets something to render.
type ModelList struct {
	Models  []Model `json:"models"`
	Warning string  `json:"warning,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// ProviderInfo describes a supported AI vendor for the configuration page.
type ProviderInfo struct {
	ID          string `json:"id"`           // e.g. "google", used by fetch-models
	DashboardID string `json:"dashboard_id"` // e.g. "GEMINI", used by device settings
	Name        string `json:"name"`
	Auth        string `json:"auth"` // bearer, header or query
}

package catalog

import "github.com/nulzo/calx-web/pkg/api"

type definition struct {
	Provider
	baseURL string
	path    string
}

// definitions is ordered the way the configuration page lists vendors.
var definitions = []definition{
	{
		Provider: Provider{ID: OpenAI, DashboardID: "OPENAI", Name: "ChatGPT (OpenAI)", Auth: AuthBearer, Parser: ParserFunc(parseOpenAI)},
		baseURL:  "https://api.openai.com/v1",
		path:     "/models",
	},
	{
		Provider: Provider{
			ID: Anthropic, DashboardID: "ANTHROPIC", Name: "Claude (Anthropic)",
			Auth: AuthHeader, AuthParam: "x-api-key",
			Headers: map[string]string{"anthropic-version": "2023-06-01"},
			Parser:  ParserFunc(parseAnthropic),
		},
		baseURL: "https://api.anthropic.com/v1",
		path:    "/models",
	},
	{
		Provider: Provider{ID: Google, DashboardID: "GEMINI", Name: "Google (Gemini)", Auth: AuthQuery, AuthParam: "key", Parser: ParserFunc(parseGemini)},
		baseURL:  "https://generativelanguage.googleapis.com/v1beta",
		path:     "/models",
	},
	{
		Provider: Provider{ID: DeepSeek, DashboardID: "DEEPSEEK", Name: "DeepSeek", Auth: AuthBearer, Parser: ParserFunc(parseIDs)},
		baseURL:  "https://api.deepseek.com",
		path:     "/models",
	},
	{
		Provider: Provider{ID: Perplexity, DashboardID: "PERPLEXITY", Name: "Perplexity", Auth: AuthBearer, Parser: ParserFunc(parsePerplexity)},
		baseURL:  "https://api.perplexity.ai",
		path:     "/models",
	},
	{
		Provider: Provider{ID: Groq, DashboardID: "GROQ", Name: "Groq", Auth: AuthBearer, Parser: ParserFunc(parseIDs)},
		baseURL:  "https://api.groq.com/openai/v1",
		path:     "/models",
	},
	{
		Provider: Provider{ID: OpenRouter, DashboardID: "OPENROUTER", Name: "OpenRouter", Auth: AuthBearer, Parser: ParserFunc(parseOpenRouter)},
		baseURL:  "https://openrouter.ai/api/v1",
		path:     "/models",
	},
}

// Registry is the provider table. It is read-only after NewRegistry.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry builds the table. baseURLs optionally overrides a vendor's API
// root by provider id (self-hosted gateways, tests).
func NewRegistry(baseURLs map[string]string) *Registry {
	r := &Registry{
		providers: make(map[string]Provider, len(definitions)),
		order:     make([]string, 0, len(definitions)),
	}

	for _, def := range definitions {
		p := def.Provider
		base := def.baseURL
		if override, ok := baseURLs[p.ID]; ok && override != "" {
			base = override
		}
		p.Endpoint = joinEndpoint(base, def.path)

		r.providers[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	return r
}

// Lookup returns the provider registered under id. A miss is expected for
// unknown or custom providers.
func (r *Registry) Lookup(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// Providers lists every entry in display order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// Infos is the public listing of the table, local provider included.
func (r *Registry) Infos() []api.ProviderInfo {
	infos := make([]api.ProviderInfo, 0, len(r.order)+1)
	for _, p := range r.Providers() {
		infos = append(infos, p.Info())
	}
	infos = append(infos, api.ProviderInfo{ID: Local, Name: "Local / Custom", Auth: "none"})
	return infos
}

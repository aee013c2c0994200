package catalog

import "github.com/nulzo/calx-web/pkg/api"

// fallbacks are curated lists shown when a live fetch cannot produce results.
var fallbacks = map[string][]api.Model{
	OpenAI: {
		{ID: "gpt-4o", Name: "GPT-4o"},
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini"},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo"},
		{ID: "gpt-4", Name: "GPT-4"},
		{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo"},
	},
	Anthropic: {
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet"},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku"},
		{ID: "claude-3-opus-20240229", Name: "Claude 3 Opus"},
		{ID: "claude-3-sonnet-20240229", Name: "Claude 3 Sonnet"},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku"},
	},
	Google: {
		{ID: "gemini-2.0-flash-exp", Name: "Gemini 2.0 Flash"},
		{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro"},
		{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash"},
		{ID: "gemini-1.0-pro", Name: "Gemini 1.0 Pro"},
	},
	DeepSeek: {
		{ID: "deepseek-chat", Name: "DeepSeek Chat"},
		{ID: "deepseek-coder", Name: "DeepSeek Coder"},
	},
	Perplexity: {
		{ID: "llama-3.1-sonar-huge-128k-online", Name: "Sonar Huge (Online)"},
		{ID: "llama-3.1-sonar-large-128k-online", Name: "Sonar Large (Online)"},
		{ID: "llama-3.1-sonar-small-128k-online", Name: "Sonar Small (Online)"},
	},
	Groq: {
		{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B"},
		{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B Instant"},
		{ID: "mixtral-8x7b-32768", Name: "Mixtral 8x7B"},
		{ID: "gemma2-9b-it", Name: "Gemma 2 9B"},
	},
	OpenRouter: {
		{ID: "openai/gpt-4o", Name: "GPT-4o"},
		{ID: "anthropic/claude-3.5-sonnet", Name: "Claude 3.5 Sonnet"},
		{ID: "google/gemini-pro-1.5", Name: "Gemini 1.5 Pro"},
		{ID: "meta-llama/llama-3.1-405b-instruct", Name: "Llama 3.1 405B"},
	},
	Local: {
		{ID: "custom", Name: "Custom Model"},
	},
}

// Fallback returns a copy of the curated list for id.
// Unknown ids get an empty, non-nil slice.
func Fallback(id string) []api.Model {
	src := fallbacks[id]
	out := make([]api.Model, len(src))
	copy(out, src)
	return out
}

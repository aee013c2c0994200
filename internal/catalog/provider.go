// Package catalog holds the fixed table of AI vendors the dashboard can be
// configured with: where each one lists its models, how the caller's
// credential is attached, and how the response envelope is read.
package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nulzo/calx-web/pkg/api"
)

const (
	OpenAI     = "openai"
	Anthropic  = "anthropic"
	Google     = "google"
	DeepSeek   = "deepseek"
	Perplexity = "perplexity"
	Groq       = "groq"
	OpenRouter = "openrouter"

	// Local is the self-hosted option. It has no remote endpoint and is
	// answered from the fallback table only.
	Local = "local"
)

// AuthScheme tells how a credential travels to the vendor.
type AuthScheme string

const (
	AuthBearer AuthScheme = "bearer" // Authorization: Bearer <key>
	AuthHeader AuthScheme = "header" // custom header, plus companion headers
	AuthQuery  AuthScheme = "query"  // ?<param>=<key>
)

// Parser turns a vendor's list-models body into descriptors.
type Parser interface {
	Parse(body []byte) ([]api.Model, error)
}

// ParserFunc adapts a plain function to Parser.
type ParserFunc func(body []byte) ([]api.Model, error)

func (f ParserFunc) Parse(body []byte) ([]api.Model, error) {
	return f(body)
}

// Provider is one immutable registry entry.
type Provider struct {
	ID          string
	DashboardID string
	Name        string
	Endpoint    string
	Auth        AuthScheme
	// AuthParam is the header name for AuthHeader or the query parameter for AuthQuery.
	AuthParam string
	// Headers are sent along with the credential, e.g. an API version.
	Headers map[string]string
	Parser  Parser
}

// Request returns the URL and headers for a list-models call carrying credential.
func (p Provider) Request(credential string) (string, map[string]string, error) {
	headers := make(map[string]string, len(p.Headers)+1)
	for k, v := range p.Headers {
		headers[k] = v
	}

	switch p.Auth {
	case AuthBearer:
		headers["Authorization"] = "Bearer " + credential
		return p.Endpoint, headers, nil

	case AuthHeader:
		headers[p.AuthParam] = credential
		return p.Endpoint, headers, nil

	case AuthQuery:
		u, err := url.Parse(p.Endpoint)
		if err != nil {
			return "", nil, fmt.Errorf("invalid endpoint for %s: %w", p.ID, err)
		}
		q := u.Query()
		q.Set(p.AuthParam, credential)
		u.RawQuery = q.Encode()
		return u.String(), headers, nil
	}

	return "", nil, fmt.Errorf("provider %s has unsupported auth scheme %q", p.ID, p.Auth)
}

// Info is the public description used by the configuration page.
func (p Provider) Info() api.ProviderInfo {
	return api.ProviderInfo{
		ID:          p.ID,
		DashboardID: p.DashboardID,
		Name:        p.Name,
		Auth:        string(p.Auth),
	}
}

func joinEndpoint(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

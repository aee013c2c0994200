// Package modelfetch asks an AI vendor which models a credential can use and
// always comes back with something the dashboard can render.
package modelfetch

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/calx-web/internal/catalog"
	"github.com/nulzo/calx-web/internal/httpclient"
	"github.com/nulzo/calx-web/internal/store/model"
	"github.com/nulzo/calx-web/pkg/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// User-facing messages.
const (
	WarnUpstream       = "Could not fetch models from API, showing common models"
	WarnEmpty          = "No models returned from API, showing common models"
	WarnNetwork        = "Network error, showing common models"
	ErrUnknownProvider = "Unknown provider"
)

var tracer = otel.Tracer("github.com/nulzo/calx-web/internal/modelfetch")

// maxLoggedBody bounds the upstream error body written to the log.
const maxLoggedBody = 512

// Result is the outcome of one fetch. Models is never nil.
type Result struct {
	Models  []api.Model
	Warning string
	Error   string
	Kind    Kind
	Source  Source
	// StatusCode is the vendor's HTTP status, 0 when none was received.
	StatusCode int
}

// ToList is the downstream wire shape.
func (r Result) ToList() api.ModelList {
	return api.ModelList{
		Models:  r.Models,
		Warning: r.Warning,
		Error:   r.Error,
	}
}

// Recorder receives one attempt per remote fetch or rejected lookup.
type Recorder interface {
	Log(attempt *model.FetchAttempt)
}

// Service is stateless between calls and safe for concurrent use.
type Service struct {
	registry *catalog.Registry
	client   httpclient.HTTPClient
	logger   *zap.Logger
	recorder Recorder
	now      func() time.Time
}

// NewService wires the fetcher. recorder may be nil.
func NewService(registry *catalog.Registry, client httpclient.HTTPClient, logger *zap.Logger, recorder Recorder) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry: registry,
		client:   client,
		logger:   logger.Named("modelfetch"),
		recorder: recorder,
		now:      time.Now,
	}
}

// Providers is the public provider listing.
func (s *Service) Providers() []api.ProviderInfo {
	return s.registry.Infos()
}

// FetchModels never fails: every failure degrades to the provider's fallback
// list with a warning, except an unknown provider which carries an error.
func (s *Service) FetchModels(ctx context.Context, providerID, credential string) Result {
	start := s.now()

	if providerID == catalog.Local {
		res := Result{Models: catalog.Fallback(catalog.Local), Source: SourceFallback}
		s.record(providerID, res, true, start)
		return res
	}

	provider, ok := s.registry.Lookup(providerID)
	if !ok {
		s.logger.Info("Fetch requested for unknown provider", zap.String("provider", providerID))
		res := Result{
			Models: catalog.Fallback(providerID),
			Error:  ErrUnknownProvider,
			Kind:   KindUnknownProvider,
			Source: SourceFallback,
		}
		s.record(providerID, res, false, start)
		return res
	}

	res := s.fetch(ctx, provider, credential)
	s.record(providerID, res, false, start)
	return res
}

func (s *Service) fetch(ctx context.Context, p catalog.Provider, credential string) (res Result) {
	ctx, span := tracer.Start(ctx, "modelfetch.fetch", trace.WithAttributes(attribute.String("provider", p.ID)))
	defer func() {
		span.SetAttributes(
			attribute.String("outcome", res.Kind.String()),
			attribute.Int("models", len(res.Models)),
		)
		if res.Kind == KindUpstream || res.Kind == KindTransport {
			span.SetStatus(codes.Error, res.Warning)
		}
		span.End()
	}()

	log := s.logger.With(zap.String("provider", p.ID))

	endpoint, headers, err := p.Request(credential)
	if err != nil {
		log.Error("Could not build model list request", zap.Error(err))
		return s.fallback(p.ID, KindTransport, WarnNetwork, 0)
	}

	body, err := httpclient.Get(ctx, s.client, endpoint, headers)
	if err != nil {
		var upErr *httpclient.UpstreamError
		if errors.As(err, &upErr) {
			log.Warn("Vendor rejected model list request",
				zap.Int("status", upErr.StatusCode),
				zap.String("body", truncate(redact(string(upErr.Body), credential), maxLoggedBody)),
			)
			return s.fallback(p.ID, KindUpstream, WarnUpstream, upErr.StatusCode)
		}
		// transport errors embed the URL, which holds the key for query auth
		log.Warn("Model list request failed", zap.String("error", redact(err.Error(), credential)))
		return s.fallback(p.ID, KindTransport, WarnNetwork, 0)
	}

	models, err := p.Parser.Parse(body)
	if err != nil {
		log.Warn("Could not parse model list", zap.Error(err))
		return s.fallback(p.ID, KindTransport, WarnNetwork, http.StatusOK)
	}

	if len(models) == 0 {
		log.Info("Vendor returned no models")
		return s.fallback(p.ID, KindEmpty, WarnEmpty, http.StatusOK)
	}

	log.Debug("Fetched models", zap.Int("count", len(models)))
	return Result{
		Models:     models,
		Kind:       KindNone,
		Source:     SourceLive,
		StatusCode: http.StatusOK,
	}
}

func (s *Service) fallback(providerID string, kind Kind, warning string, status int) Result {
	return Result{
		Models:     catalog.Fallback(providerID),
		Warning:    warning,
		Kind:       kind,
		Source:     SourceFallback,
		StatusCode: status,
	}
}

func (s *Service) record(providerID string, res Result, local bool, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.Log(&model.FetchAttempt{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		Outcome:    outcome(res.Kind, local),
		StatusCode: res.StatusCode,
		ModelCount: len(res.Models),
		LatencyMS:  s.now().Sub(start).Milliseconds(),
		CreatedAt:  start.UTC(),
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, secret, "[REDACTED]")
	return strings.ReplaceAll(s, url.QueryEscape(secret), "[REDACTED]")
}

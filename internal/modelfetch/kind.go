package modelfetch

import "github.com/nulzo/calx-web/internal/store/model"

// Kind classifies how a fetch ended. The dashboard sees the same shape for
// every kind; the distinction only drives logging and diagnostics.
type Kind int

const (
	KindNone            Kind = iota // live result
	KindUnknownProvider             // caller asked for a provider we do not know
	KindUpstream                    // vendor answered non-2xx
	KindTransport                   // network failure or unreadable body
	KindEmpty                       // vendor answered with no models
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnknownProvider:
		return "unknown_provider"
	case KindUpstream:
		return "upstream"
	case KindTransport:
		return "transport"
	case KindEmpty:
		return "empty"
	}
	return "unknown"
}

// Source tells where the returned models came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

func outcome(k Kind, local bool) string {
	if local {
		return model.OutcomeLocal
	}
	switch k {
	case KindUnknownProvider:
		return model.OutcomeUnknownProvider
	case KindUpstream:
		return model.OutcomeUpstream
	case KindTransport:
		return model.OutcomeTransport
	case KindEmpty:
		return model.OutcomeEmpty
	}
	return model.OutcomeLive
}

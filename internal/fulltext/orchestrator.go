package fulltext

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/observability"
)

// Orchestrator folds over the configured retriever tiers in priority order
// until one produces a document that passes the minimum-content check. The
// check is uniform across tiers: the document must be successful and contain
// a methods-like section. A tier that returns text without methods is kept
// as a fallback but the chain keeps going.
type Orchestrator struct {
	tiers   []Retriever
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewOrchestrator creates an orchestrator over the given tiers. Tier order
// is resolution priority; disabled tiers are skipped at retrieval time.
// Metrics may be nil.
func NewOrchestrator(tiers []Retriever, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		tiers:   tiers,
		logger:  logger.With().Str("component", "orchestrator").Logger(),
		metrics: metrics,
	}
}

// Resolve walks the tiers for the DOI and returns the first document with a
// methods-like section. When no tier produces one, the first successful
// document without methods is returned instead; when every tier fails, a
// failed document accumulating the per-tier errors is returned. Resolve
// never returns nil.
func (o *Orchestrator) Resolve(ctx context.Context, doi string, hints Hints) *domain.Document {
	doi = NormalizeDOI(doi)
	start := time.Now()
	logger := o.logger.With().Str("doi", doi).Logger()

	if o.metrics != nil {
		o.metrics.RecordResolutionStarted()
	}

	var fallback *domain.Document
	var failures []string

	for _, tier := range o.tiers {
		if !tier.Enabled() {
			continue
		}
		if ctx.Err() != nil {
			logger.Warn().Err(ctx.Err()).Msg("resolution canceled")
			break
		}

		tierStart := time.Now()
		doc := tier.Retrieve(ctx, doi, hints)
		usable := doc != nil && doc.Success && doc.HasMethodsSection()
		if o.metrics != nil {
			o.metrics.RecordTierAttempt(string(tier.Source()), usable, time.Since(tierStart).Seconds())
		}

		switch {
		case doc == nil:
			failures = append(failures, tier.Name()+": no document")

		case usable:
			logger.Info().
				Str("source", tier.Name()).
				Int("sections", len(doc.Sections)).
				Dur("elapsed", time.Since(start)).
				Msg("full text resolved")
			if o.metrics != nil {
				o.metrics.RecordResolutionCompleted(string(doc.Source), time.Since(start).Seconds())
			}
			return doc

		case doc.Success:
			logger.Debug().
				Str("source", tier.Name()).
				Msg("document lacks methods section, trying next tier")
			if fallback == nil {
				fallback = doc
			}
			failures = append(failures, tier.Name()+": no methods section")

		default:
			logger.Debug().
				Str("source", tier.Name()).
				Str("error", doc.Error).
				Msg("tier failed")
			failures = append(failures, tier.Name()+": "+doc.Error)
		}
	}

	if fallback != nil {
		logger.Info().
			Str("source", string(fallback.Source)).
			Dur("elapsed", time.Since(start)).
			Msg("no tier yielded a methods section, returning best partial document")
		if o.metrics != nil {
			o.metrics.RecordResolutionCompleted(string(fallback.Source), time.Since(start).Seconds())
		}
		return fallback
	}

	logger.Warn().
		Dur("elapsed", time.Since(start)).
		Msg("all tiers exhausted")
	if o.metrics != nil {
		o.metrics.RecordResolutionFailed(time.Since(start).Seconds())
	}
	return domain.FailedDocument(doi, domain.SourceTypeNone, "all sources exhausted: "+strings.Join(failures, "; "))
}

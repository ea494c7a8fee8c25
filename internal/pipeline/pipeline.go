// Package pipeline runs the end-to-end flow for a DOI: cache lookup, tiered
// full-text resolution, evidence extraction per analysis domain, and a
// single cache write.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/labsignal/evidence-service/internal/cache"
	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/evidence"
	"github.com/labsignal/evidence-service/internal/fulltext"
	"github.com/labsignal/evidence-service/internal/observability"
)

// Request identifies one DOI to process. Title and Publisher are optional
// hints that improve tier selection and result validation.
type Request struct {
	DOI       string
	Title     string
	Publisher string
}

// Result is the outcome of one pipeline run.
type Result struct {
	DOI       string
	Document  *domain.Document
	Bundles   map[string]*domain.EvidenceBundle
	FromCache bool
}

// Pipeline resolves DOIs and extracts evidence. The cache is read-through:
// a hit skips resolution entirely, and each miss is written back exactly
// once after the pipeline completes, success or terminal failure.
type Pipeline struct {
	orchestrator *fulltext.Orchestrator
	store        cache.Store
	domains      []string
	maxWorkers   int
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

// New creates a pipeline. store may be nil to disable caching; metrics may
// be nil. domains defaults to all known analysis domains.
func New(orchestrator *fulltext.Orchestrator, store cache.Store, domains []string, maxWorkers int, logger zerolog.Logger, metrics *observability.Metrics) *Pipeline {
	if len(domains) == 0 {
		domains = evidence.Domains()
	}
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Pipeline{
		orchestrator: orchestrator,
		store:        store,
		domains:      domains,
		maxWorkers:   maxWorkers,
		logger:       logger.With().Str("component", "pipeline").Logger(),
		metrics:      metrics,
	}
}

// Process runs the pipeline for one DOI. It returns an error only for
// invalid input or context cancellation; resolution failure is a valid
// result carried in the document.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	doi := fulltext.NormalizeDOI(req.DOI)
	if doi == "" {
		return nil, domain.NewValidationError("doi", "must not be empty")
	}

	if p.store != nil {
		record, err := p.store.Get(ctx, doi)
		switch {
		case err == nil:
			if p.metrics != nil {
				p.metrics.RecordCacheHit()
			}
			p.logger.Debug().Str("doi", doi).Msg("cache hit")
			return &Result{DOI: doi, Document: record.Document, Bundles: record.Bundles, FromCache: true}, nil
		case errors.Is(err, domain.ErrNotFound):
			if p.metrics != nil {
				p.metrics.RecordCacheMiss()
			}
		default:
			// Cache trouble must not block resolution.
			p.logger.Warn().Err(err).Str("doi", doi).Msg("cache read failed")
		}
	}

	doc := p.orchestrator.Resolve(ctx, doi, fulltext.Hints{Title: req.Title, Publisher: req.Publisher})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	bundles := p.analyze(doc)

	result := &Result{DOI: doi, Document: doc, Bundles: bundles}
	if p.store != nil {
		record := &cache.Record{DOI: doi, Document: doc, Bundles: bundles, CreatedAt: time.Now().UTC()}
		if err := p.store.Put(ctx, record); err != nil {
			p.logger.Warn().Err(err).Str("doi", doi).Msg("cache write failed")
		}
	}
	return result, nil
}

// ProcessBatch runs the pipeline for many DOIs with bounded concurrency,
// returning results in input order. The first context-level failure aborts
// the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)
	for i, req := range reqs {
		g.Go(func() error {
			result, err := p.Process(ctx, req)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// analyze runs evidence extraction for each configured domain over the
// best-scoped text available: methods-like sections for animal evidence,
// ethics-like sections for ethics evidence, falling back to the full text.
func (p *Pipeline) analyze(doc *domain.Document) map[string]*domain.EvidenceBundle {
	bundles := make(map[string]*domain.EvidenceBundle, len(p.domains))
	for _, analysisDomain := range p.domains {
		text := p.textFor(analysisDomain, doc)

		start := time.Now()
		bundle := evidence.Analyze(analysisDomain, text)
		if p.metrics != nil {
			p.metrics.RecordExtraction(analysisDomain, len(bundle.AllKeywords), time.Since(start).Seconds())
		}
		bundles[analysisDomain] = bundle
	}
	return bundles
}

func (p *Pipeline) textFor(analysisDomain string, doc *domain.Document) string {
	var text string
	switch analysisDomain {
	case evidence.DomainAnimal:
		text = doc.MethodsText()
	case evidence.DomainEthics:
		text = doc.EthicsText()
	}
	if text == "" {
		text = doc.FullText
	}
	return text
}

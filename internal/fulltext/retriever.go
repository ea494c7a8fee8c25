package fulltext

import (
	"context"

	"github.com/labsignal/evidence-service/internal/domain"
)

// Hints carries optional metadata known about a DOI before resolution.
// Retrievers that search by title or route by publisher consult it; the
// rest ignore it.
type Hints struct {
	// Title is the article title, used by scraping tiers for result
	// verification.
	Title string
	// Publisher is the publisher display name, used to decide whether a
	// publisher API tier applies.
	Publisher string
}

// Retriever is one tier of the full-text resolution chain. Implementations
// never panic and never return a nil document: failure of any kind yields a
// Document with Success false and Error set, so the orchestrator can fold
// over tiers uniformly.
type Retriever interface {
	// Retrieve attempts to fetch and sectionize the full text for the DOI.
	Retrieve(ctx context.Context, doi string, hints Hints) *domain.Document

	// Source identifies the tier's source type.
	Source() domain.SourceType

	// Name is the human-readable tier name used in logs.
	Name() string

	// Enabled reports whether the tier is configured and usable. Disabled
	// tiers are skipped without logging a failure.
	Enabled() bool
}

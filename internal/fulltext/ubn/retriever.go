package ubn

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
	"github.com/labsignal/evidence-service/internal/fulltext/grobid"
	"github.com/labsignal/evidence-service/internal/pdf"
)

// Retriever drives the repository session: search by DOI, validate the
// result title against the known title, download the document and extract
// its text through GROBID.
type Retriever struct {
	session    *Session
	downloader *pdf.Downloader
	grobid     *grobid.Client
	logger     zerolog.Logger
}

// New creates the repository retriever.
func New(session *Session, downloader *pdf.Downloader, grobidClient *grobid.Client, logger zerolog.Logger) *Retriever {
	return &Retriever{
		session:    session,
		downloader: downloader,
		grobid:     grobidClient,
		logger:     logger.With().Str("component", "ubn").Logger(),
	}
}

// Source implements fulltext.Retriever.
func (r *Retriever) Source() domain.SourceType { return domain.SourceTypeUBN }

// Name implements fulltext.Retriever.
func (r *Retriever) Name() string { return "ubn" }

// Enabled implements fulltext.Retriever. The tier needs the repository URL
// and a GROBID instance.
func (r *Retriever) Enabled() bool { return r.session.Enabled() && r.grobid.Enabled() }

// Retrieve searches the repository for the DOI and, with a validated title
// match, downloads and sectionizes the document. Without a title hint
// validation is skipped and the first DOI search result is trusted; a DOI
// query is specific enough that a hit is almost always the right item.
func (r *Retriever) Retrieve(ctx context.Context, doi string, hints fulltext.Hints) *domain.Document {
	if hints.Title == "" {
		r.logger.Warn().Str("doi", doi).Msg("no title hint, skipping result validation")
	}

	release, err := r.session.acquire(ctx)
	if err != nil {
		return domain.FailedDocument(doi, r.Source(), "session acquire: "+err.Error())
	}
	defer release()

	itemURL, err := r.locate(ctx, doi, hints.Title)
	if err != nil {
		if !errors.Is(err, domain.ErrTitleMismatch) && !errors.Is(err, domain.ErrNotFound) {
			r.logger.Warn().Err(err).Str("doi", doi).Msg("repository search failed")
		}
		return domain.FailedDocument(doi, r.Source(), err.Error())
	}

	docURL, err := r.session.documentURL(ctx, itemURL)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Str("item", itemURL).Msg("no document link")
		return domain.FailedDocument(doi, r.Source(), err.Error())
	}

	result, err := r.downloader.Download(ctx, docURL)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Str("url", docURL).Msg("document download failed")
		return domain.FailedDocument(doi, r.Source(), "document download failed: "+err.Error())
	}

	secs, err := r.grobid.ProcessPDF(ctx, result.Content)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Msg("document extraction failed")
		return domain.FailedDocument(doi, r.Source(), "document extraction failed: "+err.Error())
	}

	return domain.NewDocument(doi, "", r.Source(), secs)
}

// locate finds the repository item whose title matches the known title:
// first a DOI search scanning the full result list, then a filtered
// re-search by title text. With no known title the first DOI search result
// wins unvalidated; a title re-search would be meaningless.
func (r *Retriever) locate(ctx context.Context, doi, title string) (string, error) {
	results, err := r.session.searchByDOI(ctx, doi)
	if err != nil {
		return "", fmt.Errorf("DOI search failed: %w", err)
	}
	if title == "" {
		if len(results) == 0 {
			return "", domain.ErrNotFound
		}
		return results[0].Link, nil
	}
	if url := bestMatch(results, title); url != "" {
		return url, nil
	}

	results, err = r.session.searchByTitle(ctx, title)
	if err != nil {
		return "", fmt.Errorf("title search failed: %w", err)
	}
	if url := bestMatch(results, title); url != "" {
		return url, nil
	}

	if len(results) == 0 {
		return "", domain.ErrNotFound
	}
	return "", domain.ErrTitleMismatch
}

// bestMatch scans all results and returns the link of the first whose title
// clears the similarity threshold.
func bestMatch(results []result, title string) string {
	for _, res := range results {
		if titleSimilarity(res.Title, title) >= titleSimilarityThreshold {
			return res.Link
		}
	}
	return ""
}

// Package unpaywall is the last-resort tier: it asks the Unpaywall index
// for an open-access PDF location, downloads the PDF and runs it through
// GROBID for section recovery.
package unpaywall

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
	"github.com/labsignal/evidence-service/internal/fulltext/grobid"
	"github.com/labsignal/evidence-service/internal/pdf"
)

const apiURL = "https://api.unpaywall.org/v2/"

// Retriever resolves open-access PDF locations via Unpaywall.
type Retriever struct {
	client     *fulltext.Client
	downloader *pdf.Downloader
	grobid     *grobid.Client
	email      string
	baseURL    string
	logger     zerolog.Logger
}

// New creates the Unpaywall retriever. The email is required by the
// Unpaywall API terms; without it the tier is disabled.
func New(client *fulltext.Client, downloader *pdf.Downloader, grobidClient *grobid.Client, email string, logger zerolog.Logger) *Retriever {
	return &Retriever{
		client:     client,
		downloader: downloader,
		grobid:     grobidClient,
		email:      email,
		baseURL:    apiURL,
		logger:     logger.With().Str("component", "unpaywall").Logger(),
	}
}

// Source implements fulltext.Retriever.
func (r *Retriever) Source() domain.SourceType { return domain.SourceTypeUnpaywall }

// Name implements fulltext.Retriever.
func (r *Retriever) Name() string { return "unpaywall" }

// Enabled implements fulltext.Retriever. The tier needs both a contact
// email and a GROBID instance to turn PDFs into text.
func (r *Retriever) Enabled() bool { return r.email != "" && r.grobid.Enabled() }

type oaLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

type oaResponse struct {
	IsOA           bool         `json:"is_oa"`
	BestOALocation *oaLocation  `json:"best_oa_location"`
	OALocations    []oaLocation `json:"oa_locations"`
}

// Retrieve looks up the DOI's open-access locations, preferring the best
// location's PDF URL and falling back to any location that carries one.
func (r *Retriever) Retrieve(ctx context.Context, doi string, _ fulltext.Hints) *domain.Document {
	var oa oaResponse
	params := url.Values{"email": {r.email}}
	if err := r.client.GetJSON(ctx, r.baseURL+url.PathEscape(doi), params, &oa); err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Msg("unpaywall lookup failed")
		return domain.FailedDocument(doi, r.Source(), "unpaywall lookup failed: "+err.Error())
	}

	pdfURL := r.pickPDFURL(&oa)
	if pdfURL == "" {
		return domain.FailedDocument(doi, r.Source(), domain.ErrNoOpenAccess.Error())
	}

	result, err := r.downloader.Download(ctx, pdfURL)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Str("url", pdfURL).Msg("PDF download failed")
		return domain.FailedDocument(doi, r.Source(), "PDF download failed: "+err.Error())
	}

	secs, err := r.grobid.ProcessPDF(ctx, result.Content)
	if err != nil {
		r.logger.Warn().Err(err).Str("doi", doi).Msg("PDF extraction failed")
		return domain.FailedDocument(doi, r.Source(), "PDF extraction failed: "+err.Error())
	}

	return domain.NewDocument(doi, "", r.Source(), secs)
}

func (r *Retriever) pickPDFURL(oa *oaResponse) string {
	if oa.BestOALocation != nil && oa.BestOALocation.URLForPDF != "" {
		return oa.BestOALocation.URLForPDF
	}
	for _, loc := range oa.OALocations {
		if loc.URLForPDF != "" {
			return loc.URLForPDF
		}
	}
	return ""
}

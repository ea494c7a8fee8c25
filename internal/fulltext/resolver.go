package fulltext

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/domain"
)

const (
	idConvURL  = "https://www.ncbi.nlm.nih.gov/pmc/utils/idconv/v1.0/"
	eSearchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"

	// politenessDelay separates the ID converter call from the esearch
	// fallback so the two NCBI endpoints are never hit back to back.
	politenessDelay = 340 * time.Millisecond
)

// springerDOI matches the bare Springer article suffix form sometimes found
// in upstream metadata instead of a full DOI.
var springerDOI = regexp.MustCompile(`^s\d{5}-\d{3}-\d{5}-\d$`)

// NormalizeDOI canonicalizes a DOI string: trims whitespace, strips a
// leading "doi:" prefix, and expands bare Springer article suffixes to full
// DOIs under the 10.1186 prefix.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "doi:")
	doi = strings.TrimPrefix(doi, "DOI:")
	doi = strings.TrimSpace(doi)
	if springerDOI.MatchString(doi) {
		return "10.1186/" + doi
	}
	return doi
}

// Resolver maps DOIs to NCBI registry identifiers (PMCIDs and PMIDs). It
// tries the PMC ID converter first, then falls back to an esearch term
// query. Results, including negative ones, are cached for the lifetime of
// the resolver so each DOI costs at most one round of upstream calls per
// identifier kind.
type Resolver struct {
	// IDConvURL and ESearchURL are the NCBI endpoints, overridable for tests.
	IDConvURL  string
	ESearchURL string

	client *Client
	email  string
	apiKey string
	logger zerolog.Logger

	mu     sync.Mutex
	pmcids map[string]string
	pmids  map[string]string
}

// NewResolver creates a Resolver using the given client for all NCBI calls.
// The email identifies the caller to NCBI per their usage policy; the API
// key, when present, raises the allowed request rate.
func NewResolver(client *Client, email, apiKey string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		IDConvURL:  idConvURL,
		ESearchURL: eSearchURL,
		client:     client,
		email:      email,
		apiKey:     apiKey,
		logger:     logger.With().Str("component", "resolver").Logger(),
		pmcids:     make(map[string]string),
		pmids:      make(map[string]string),
	}
}

// PMCID resolves a DOI to a PMCID ("PMC" prefix included). Returns
// domain.ErrNotFound when no PMC record exists for the DOI; upstream
// failures are logged and collapsed to not-found so callers fall through to
// the next tier.
func (r *Resolver) PMCID(ctx context.Context, doi string) (string, error) {
	return r.resolve(ctx, doi, "pmc", r.pmcids)
}

// PMID resolves a DOI to a PubMed identifier. Same contract as PMCID.
func (r *Resolver) PMID(ctx context.Context, doi string) (string, error) {
	return r.resolve(ctx, doi, "pubmed", r.pmids)
}

func (r *Resolver) resolve(ctx context.Context, doi, db string, cache map[string]string) (string, error) {
	doi = NormalizeDOI(doi)
	if doi == "" {
		return "", domain.NewValidationError("doi", "must not be empty")
	}

	r.mu.Lock()
	if id, ok := cache[doi]; ok {
		r.mu.Unlock()
		if id == "" {
			return "", domain.ErrNotFound
		}
		return id, nil
	}
	r.mu.Unlock()

	id, err := r.lookup(ctx, doi, db)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.logger.Warn().Err(err).Str("doi", doi).Str("db", db).
			Msg("identifier resolution failed")
		id = ""
	}

	r.mu.Lock()
	cache[doi] = id
	r.mu.Unlock()

	if id == "" {
		return "", domain.ErrNotFound
	}
	return id, nil
}

// lookup performs the two-step resolution: ID converter, then esearch.
func (r *Resolver) lookup(ctx context.Context, doi, db string) (string, error) {
	id, err := r.idConvert(ctx, doi, db)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil {
		r.logger.Debug().Err(err).Str("doi", doi).Msg("id converter lookup failed")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(politenessDelay):
	}

	return r.eSearch(ctx, doi, db)
}

type idConvResponse struct {
	Records []struct {
		PMCID  string `json:"pmcid"`
		PMID   string `json:"pmid"`
		Status string `json:"status"`
	} `json:"records"`
}

func (r *Resolver) idConvert(ctx context.Context, doi, db string) (string, error) {
	params := url.Values{
		"ids":    {doi},
		"format": {"json"},
		"tool":   {"evidence-service"},
	}
	if r.email != "" {
		params.Set("email", r.email)
	}

	var out idConvResponse
	if err := r.client.GetJSON(ctx, r.IDConvURL, params, &out); err != nil {
		return "", err
	}
	if len(out.Records) == 0 {
		return "", nil
	}
	rec := out.Records[0]
	if rec.Status == "error" {
		return "", nil
	}
	if db == "pmc" {
		return rec.PMCID, nil
	}
	return rec.PMID, nil
}

type eSearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (r *Resolver) eSearch(ctx context.Context, doi, db string) (string, error) {
	params := url.Values{
		"db":      {db},
		"term":    {fmt.Sprintf("%s[DOI]", doi)},
		"retmode": {"json"},
		"retmax":  {"1"},
	}
	if r.apiKey != "" {
		params.Set("api_key", r.apiKey)
	}

	var out eSearchResponse
	if err := r.client.GetJSON(ctx, r.ESearchURL, params, &out); err != nil {
		return "", err
	}
	if len(out.ESearchResult.IDList) == 0 {
		return "", nil
	}
	id := out.ESearchResult.IDList[0]
	if db == "pmc" && !strings.HasPrefix(id, "PMC") {
		id = "PMC" + id
	}
	return id, nil
}

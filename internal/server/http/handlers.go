package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/evidence"
	"github.com/labsignal/evidence-service/internal/pipeline"
)

// Request body limits.
const (
	maxRequestBodySize = 4 << 20 // text payloads for direct extraction can be large
	maxBatchSize       = 100
)

var validate = validator.New()

// resolveRequest is the JSON request body for resolving a single DOI.
type resolveRequest struct {
	DOI       string `json:"doi" validate:"required,min=3"`
	Title     string `json:"title,omitempty"`
	Publisher string `json:"publisher,omitempty"`
}

// resolveBatchRequest is the JSON request body for batch resolution.
type resolveBatchRequest struct {
	Items []resolveRequest `json:"items" validate:"required,min=1,dive"`
}

// extractRequest is the JSON request body for direct evidence extraction
// over caller-supplied text, bypassing resolution.
type extractRequest struct {
	Text   string `json:"text" validate:"required,min=1"`
	Domain string `json:"domain" validate:"required,oneof=animal ethics"`
}

type resolveResponse struct {
	Document  *domain.Document                  `json:"document"`
	Bundles   map[string]*domain.EvidenceBundle `json:"bundles"`
	FromCache bool                              `json:"from_cache"`
}

type resolveBatchResponse struct {
	Results []resolveResponse `json:"results"`
}

// resolveDOI handles POST /api/v1/resolutions.
func (s *Server) resolveDOI(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.pipeline.Process(r.Context(), pipeline.Request{
		DOI:       req.DOI,
		Title:     req.Title,
		Publisher: req.Publisher,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResolveResponse(result))
}

// resolveBatch handles POST /api/v1/resolutions/batch.
func (s *Server) resolveBatch(w http.ResponseWriter, r *http.Request) {
	var req resolveBatchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if len(req.Items) > maxBatchSize {
		writeError(w, http.StatusBadRequest, "batch size exceeds limit")
		return
	}

	reqs := make([]pipeline.Request, len(req.Items))
	for i, item := range req.Items {
		reqs[i] = pipeline.Request{DOI: item.DOI, Title: item.Title, Publisher: item.Publisher}
	}

	results, err := s.pipeline.ProcessBatch(r.Context(), reqs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := resolveBatchResponse{Results: make([]resolveResponse, len(results))}
	for i, result := range results {
		resp.Results[i] = toResolveResponse(result)
	}
	writeJSON(w, http.StatusOK, resp)
}

// extractEvidence handles POST /api/v1/evidence.
func (s *Server) extractEvidence(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	bundle := evidence.Analyze(strings.ToLower(req.Domain), req.Text)
	writeJSON(w, http.StatusOK, bundle)
}

func toResolveResponse(result *pipeline.Result) resolveResponse {
	return resolveResponse{
		Document:  result.Document,
		Bundles:   result.Bundles,
		FromCache: result.FromCache,
	}
}

// decodeAndValidate reads the body, decodes JSON into v and runs struct
// validation, writing the error response itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return false
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			writeError(w, http.StatusBadRequest, "invalid field: "+strings.ToLower(verrs[0].Field()))
		} else {
			writeError(w, http.StatusBadRequest, "invalid request")
		}
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
		} else {
			writeError(w, http.StatusBadRequest, "invalid input")
		}
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate limited")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

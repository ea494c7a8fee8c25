// Package grobid converts scraped PDFs into sectioned text through a GROBID
// service instance. GROBID returns TEI XML whose body divisions carry the
// recovered section headings.
package grobid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/domain"
	"github.com/labsignal/evidence-service/internal/fulltext"
	"github.com/labsignal/evidence-service/internal/sections"
)

const processPath = "/api/processFulltextDocument"

// Client talks to one GROBID instance.
type Client struct {
	client  *fulltext.Client
	baseURL string
	logger  zerolog.Logger
}

// New creates a GROBID client for the given base URL. An empty base URL
// disables PDF extraction.
func New(client *fulltext.Client, baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With().Str("component", "grobid").Logger(),
	}
}

// Enabled reports whether a GROBID instance is configured.
func (c *Client) Enabled() bool { return c.baseURL != "" }

// ProcessPDF submits a PDF to GROBID and returns the sectionized text.
func (c *Client) ProcessPDF(ctx context.Context, pdf []byte) ([]domain.Section, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("grobid not configured")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("input", "article.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, fmt.Errorf("failed to write PDF payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	payload := buf.Bytes()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+processPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(payload)), nil
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grobid request failed: %w", err)
	}
	defer resp.Body.Close()

	tei, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read TEI response: %w", err)
	}

	return SectionizeTEI(tei)
}

// SectionizeTEI parses GROBID TEI output into sections, one per body
// division. Inside a methods division, content collection stops at a nested
// heading that opens results, discussion or conclusions, so trailing
// material GROBID failed to split out does not pollute the methods text.
func SectionizeTEI(data []byte) ([]domain.Section, error) {
	root, err := fulltext.ParseXML(data)
	if err != nil {
		return nil, domain.NewParseError("grobid", "malformed TEI XML", err)
	}

	body := root.Find("body")
	if body == nil {
		return nil, domain.NewParseError("grobid", "no TEI body", nil)
	}

	var secs []domain.Section
	for _, div := range body.FindAll("div") {
		name := "body"
		if heads := div.ChildrenNamed("head"); len(heads) > 0 {
			if h := heads[0].FlatText(); h != "" {
				name = h
			}
		}

		sec := sections.New(name, divText(div, sections.Classify(name) == domain.SectionMethods))
		if sec.Text == "" {
			continue
		}
		secs = append(secs, sec)
	}

	return secs, nil
}

// divText collects a division's text in child order, skipping the leading
// heading. When truncateAtStop is set, collection halts at a nested heading
// that ends a methods run.
func divText(div *fulltext.XMLNode, truncateAtStop bool) string {
	var parts []string
	seenHead := false
	for i := range div.Children {
		child := &div.Children[i]
		if child.Is("head") {
			if seenHead && truncateAtStop && sections.EndsMethods(child.FlatText()) {
				break
			}
			seenHead = true
			continue
		}
		if t := child.FlatText(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

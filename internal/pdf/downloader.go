// Package pdf provides utilities for downloading and handling PDF files.
package pdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labsignal/evidence-service/internal/fulltext"
)

// Sentinel errors for PDF download operations.
var (
	// ErrNotPDF is returned when the response Content-Type is not application/pdf.
	ErrNotPDF = errors.New("pdf: response is not a PDF")
	// ErrTooLarge is returned when the file exceeds the maximum allowed size.
	ErrTooLarge = errors.New("pdf: file exceeds maximum size")
	// ErrDownloadFailed is returned when the download fails due to network or HTTP errors.
	ErrDownloadFailed = errors.New("pdf: download failed")
)

// pdfMagic is the leading byte signature of a PDF file. Some repositories
// serve PDFs with a generic Content-Type, so the signature is checked when
// the header is inconclusive.
var pdfMagic = []byte("%PDF-")

// DownloadResult holds the result of downloading a PDF.
type DownloadResult struct {
	// Content is the PDF bytes.
	Content []byte
	// ContentHash is the SHA-256 hex digest of the content.
	ContentHash string
	// SizeBytes is the size of the content in bytes.
	SizeBytes int64
	// ContentType is the actual Content-Type header from the response.
	ContentType string
}

// Downloader downloads PDFs through the shared retrying HTTP client, so
// PDF fetches obey the same rate limiting and backoff discipline as every
// other upstream request.
type Downloader struct {
	client  *fulltext.Client
	maxSize int64
}

// NewDownloader creates a new Downloader. maxSize 0 defaults to 100MB.
func NewDownloader(client *fulltext.Client, maxSize int64) *Downloader {
	if maxSize == 0 {
		maxSize = 100 * 1024 * 1024
	}
	return &Downloader{client: client, maxSize: maxSize}
}

// Download fetches a PDF from the given URL.
// Returns ErrNotPDF if the response is not a PDF by Content-Type or signature.
// Returns ErrTooLarge if the response exceeds the size limit.
// Returns ErrDownloadFailed wrapped around transport and HTTP errors.
func (d *Downloader) Download(ctx context.Context, url string) (*DownloadResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrDownloadFailed, err)
	}
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read one extra byte to detect oversized files.
	content, err := io.ReadAll(io.LimitReader(resp.Body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrDownloadFailed, err)
	}
	if int64(len(content)) > d.maxSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrTooLarge, d.maxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/pdf") && !isPDF(content) {
		return nil, fmt.Errorf("%w: Content-Type is %q", ErrNotPDF, contentType)
	}

	hash := sha256.Sum256(content)
	return &DownloadResult{
		Content:     content,
		ContentHash: hex.EncodeToString(hash[:]),
		SizeBytes:   int64(len(content)),
		ContentType: contentType,
	}, nil
}

func isPDF(content []byte) bool {
	return len(content) >= len(pdfMagic) && strings.HasPrefix(string(content[:len(pdfMagic)]), string(pdfMagic))
}

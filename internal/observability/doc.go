// Package observability provides logging and metrics support for the
// evidence service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for resolutions, tiers, and extraction
//   - Context helpers for propagating request data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("doi", doi).Msg("resolution started")
//
// Add resolution context to logger:
//
//	logger = observability.WithDOIContext(logger, doi)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("evidence")
//
// Record metrics:
//
//	metrics.RecordResolutionStarted()
//	metrics.RecordTierAttempt("pmc", true, elapsed.Seconds())
//	metrics.RecordCacheHit()
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	reqID := observability.RequestIDFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request correlation identifier
//   - doi: The DOI being resolved
//   - source: Source tier (pmc, pubmed, elsevier, ubn, unpaywall)
//   - resolved_id: Registry identifier resolved from the DOI
//   - component: Emitting component name
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability

// Package cache implements the read-through DOI result cache. A hit skips
// the entire resolution pipeline for that DOI; writes happen exactly once
// per DOI after the pipeline completes, success or terminal failure, never
// speculatively.
package cache

import (
	"context"
	"time"

	"github.com/labsignal/evidence-service/internal/domain"
)

// Record is one cached pipeline result: the resolved document together with
// the evidence bundles computed from it. Failed resolutions are cached too,
// so a permanently unresolvable DOI does not re-run the full tier chain on
// every request.
type Record struct {
	DOI       string                            `json:"doi"`
	Document  *domain.Document                  `json:"document"`
	Bundles   map[string]*domain.EvidenceBundle `json:"bundles"`
	CreatedAt time.Time                         `json:"created_at"`
}

// Store is the DOI result cache. Get returns domain.ErrNotFound on a miss;
// Put overwrites any existing record for the same DOI.
type Store interface {
	Get(ctx context.Context, doi string) (*Record, error)
	Put(ctx context.Context, record *Record) error
}

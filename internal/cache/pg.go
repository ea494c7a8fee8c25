package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/labsignal/evidence-service/internal/database"
	"github.com/labsignal/evidence-service/internal/domain"
)

// PGStore persists pipeline results in Postgres so cached resolutions
// survive restarts and are shared across replicas.
type PGStore struct {
	db     database.DBTX
	logger zerolog.Logger
}

// NewPGStore creates a Postgres-backed Store.
func NewPGStore(db database.DBTX, logger zerolog.Logger) *PGStore {
	return &PGStore{
		db:     db,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, doi string) (*Record, error) {
	query := `
		SELECT doi, document, bundles, created_at
		FROM doi_results
		WHERE doi = $1`

	var (
		record       Record
		documentJSON []byte
		bundlesJSON  []byte
	)
	err := s.db.QueryRow(ctx, query, doi).Scan(&record.DOI, &documentJSON, &bundlesJSON, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cached result: %w", err)
	}

	if err := json.Unmarshal(documentJSON, &record.Document); err != nil {
		return nil, fmt.Errorf("failed to decode cached document: %w", err)
	}
	if err := json.Unmarshal(bundlesJSON, &record.Bundles); err != nil {
		return nil, fmt.Errorf("failed to decode cached bundles: %w", err)
	}

	return &record, nil
}

// Put implements Store. An existing record for the DOI is overwritten.
func (s *PGStore) Put(ctx context.Context, record *Record) error {
	documentJSON, err := json.Marshal(record.Document)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	bundlesJSON, err := json.Marshal(record.Bundles)
	if err != nil {
		return fmt.Errorf("failed to encode bundles: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO doi_results (doi, document, bundles, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doi) DO UPDATE
		SET document = EXCLUDED.document,
		    bundles = EXCLUDED.bundles,
		    created_at = EXCLUDED.created_at`

	if _, err := s.db.Exec(ctx, query, record.DOI, documentJSON, bundlesJSON, createdAt); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	s.logger.Debug().Str("doi", record.DOI).Msg("cached pipeline result")
	return nil
}

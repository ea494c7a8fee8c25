package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsignal/evidence-service/internal/domain"
)

func newPGStore(t *testing.T) (*PGStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPGStore(mock, zerolog.Nop()), mock
}

func TestPGStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("hit decodes the stored record", func(t *testing.T) {
		store, mock := newPGStore(t)

		doc := domain.FailedDocument("10.1234/abc", domain.SourceTypePMC, "no PMCID for DOI")
		docJSON, err := json.Marshal(doc)
		require.NoError(t, err)
		bundlesJSON, err := json.Marshal(map[string]*domain.EvidenceBundle{})
		require.NoError(t, err)
		createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT doi, document, bundles, created_at").
			WithArgs("10.1234/abc").
			WillReturnRows(pgxmock.NewRows([]string{"doi", "document", "bundles", "created_at"}).
				AddRow("10.1234/abc", docJSON, bundlesJSON, createdAt))

		record, err := store.Get(ctx, "10.1234/abc")
		require.NoError(t, err)
		assert.Equal(t, "10.1234/abc", record.DOI)
		assert.Equal(t, createdAt, record.CreatedAt)
		require.NotNil(t, record.Document)
		assert.Equal(t, doc.Error, record.Document.Error)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss maps to not found", func(t *testing.T) {
		store, mock := newPGStore(t)

		mock.ExpectQuery("SELECT doi, document, bundles, created_at").
			WithArgs("10.1234/missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := store.Get(ctx, "10.1234/missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPGStore_Put(t *testing.T) {
	ctx := context.Background()
	store, mock := newPGStore(t)

	record := &Record{
		DOI:       "10.1234/abc",
		Document:  domain.FailedDocument("10.1234/abc", domain.SourceTypeUnpaywall, "no open-access location"),
		Bundles:   map[string]*domain.EvidenceBundle{},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	docJSON, err := json.Marshal(record.Document)
	require.NoError(t, err)
	bundlesJSON, err := json.Marshal(record.Bundles)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO doi_results").
		WithArgs("10.1234/abc", docJSON, bundlesJSON, record.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Put(ctx, record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

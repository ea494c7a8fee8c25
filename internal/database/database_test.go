package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsignal/evidence-service/internal/config"
)

// mockDBTX is a compile-time stand-in for the DBTX interface.
type mockDBTX struct{}

func (m *mockDBTX) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (m *mockDBTX) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, nil
}
func (m *mockDBTX) QueryRow(context.Context, string, ...interface{}) pgx.Row { return nil }
func (m *mockDBTX) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults  { return nil }

func TestDBTX_Interface(t *testing.T) {
	var _ DBTX = (*mockDBTX)(nil)
	var _ DBTX = (*DB)(nil)
}

func TestHealthCheckTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, HealthCheckTimeout)
}

func TestHealthStatus_JSON(t *testing.T) {
	t.Run("healthy omits error", func(t *testing.T) {
		health := HealthStatus{
			Status:     "healthy",
			TotalConns: 5,
			IdleConns:  3,
			MaxConns:   20,
		}

		data, err := json.Marshal(health)
		require.NoError(t, err)
		assert.NotContains(t, string(data), `"error"`)
		assert.Contains(t, string(data), `"status":"healthy"`)
	})

	t.Run("unhealthy carries error", func(t *testing.T) {
		health := HealthStatus{Status: "unhealthy", Error: "connection refused"}

		data, err := json.Marshal(health)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"error":"connection refused"`)
	})
}

func TestNew_InvalidDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:    "localhost",
		Port:    5432,
		User:    "evidence",
		Name:    "evidence_service",
		SSLMode: "not-a-mode",
	}

	db, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
	assert.Nil(t, db)
}

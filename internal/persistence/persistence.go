// Package persistence implements an optional audit trail for computed
// forecasts: a Postgres connection opened and pinged at startup, with
// each AggregatedForecast recorded through a single upsert keyed by its
// cache key. This sits behind the cache as an audit adjunct, not the
// system of record.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/weather-oracle/oracle/internal/domain"
)

// Querier abstracts the single statement the audit store issues, so
// tests can substitute a sqlmock-backed *sql.DB without a live
// Postgres instance.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const upsertAuditSQL = `
INSERT INTO forecast_audit (cache_key, latitude, longitude, models, generated_at, success_rate, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (cache_key) DO UPDATE SET
	generated_at = EXCLUDED.generated_at,
	success_rate = EXCLUDED.success_rate,
	payload = EXCLUDED.payload
`

// Store persists a record of every computed forecast for later audit or
// replay. A nil DB makes every call a no-op, the same disabled-mode
// behavior the cache manager falls back to with no Redis client
// configured.
type Store struct {
	DB     Querier
	Logger *slog.Logger
}

func New(db Querier, logger *slog.Logger) *Store {
	return &Store{DB: db, Logger: logger}
}

// Connect opens and pings a Postgres connection before handing back a
// usable *sql.DB.
func Connect(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// RecordAudit upserts one AggregatedForecast by its cache key. Failures
// are logged, not propagated: an audit-trail write must never fail a
// forecast request.
func (s *Store) RecordAudit(ctx context.Context, cacheKey string, forecast domain.AggregatedForecast) {
	if s == nil || s.DB == nil {
		return
	}
	payload, err := json.Marshal(forecast)
	if err != nil {
		s.Logger.Error("failed to marshal forecast for audit", "error", err)
		return
	}
	models := forecast.ContributingModels
	_, err = s.DB.ExecContext(ctx, upsertAuditSQL,
		cacheKey,
		forecast.Coordinates.Latitude.Raw(),
		forecast.Coordinates.Longitude.Raw(),
		csv(models),
		forecast.GeneratedAt,
		forecast.SuccessRate,
		payload,
	)
	if err != nil {
		s.Logger.Error("failed to record forecast audit", "cache_key", cacheKey, "error", err)
		return
	}
	s.Logger.Debug("recorded forecast audit", "cache_key", cacheKey)
}

func csv(models []string) string {
	out := ""
	for i, m := range models {
		if i > 0 {
			out += ","
		}
		out += m
	}
	return out
}

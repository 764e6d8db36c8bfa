package persistence

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/weather-oracle/oracle/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleForecast(t *testing.T) domain.AggregatedForecast {
	t.Helper()
	coords, err := domain.NewCoordinates(53.35, -6.26)
	require.NoError(t, err)
	return domain.AggregatedForecast{
		Coordinates:        coords,
		GeneratedAt:        time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		ContributingModels: []string{"ecmwf", "gfs"},
		SuccessRate:        1.0,
	}
}

func TestRecordAudit_UpsertsOnCacheKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO forecast_audit").
		WithArgs("forecast:53.35,-6.26:ecmwf,gfs:123", 53.35, -6.26, "ecmwf,gfs", sqlmock.AnyArg(), 1.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := New(db, testLogger())
	store.RecordAudit(t.Context(), "forecast:53.35,-6.26:ecmwf,gfs:123", sampleForecast(t))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAudit_NilStoreIsNoOp(t *testing.T) {
	var store *Store
	store.RecordAudit(t.Context(), "any", sampleForecast(t))
}

func TestRecordAudit_NilDBIsNoOp(t *testing.T) {
	store := New(nil, testLogger())
	store.RecordAudit(t.Context(), "any", sampleForecast(t))
}

func TestRecordAudit_ExecFailureIsLoggedNotPropagated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO forecast_audit").WillReturnError(sql.ErrConnDone)

	store := New(db, testLogger())
	store.RecordAudit(t.Context(), "any", sampleForecast(t))

	require.NoError(t, mock.ExpectationsWereMet())
}

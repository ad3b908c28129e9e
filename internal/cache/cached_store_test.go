package cache

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/repository"
)

func setupCachedStore(t *testing.T) (sqlmock.Sqlmock, *CachedStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, client := setupRedis(t)
	readings := NewReadingCache(client, "smartwatch:dependent:", 10*time.Minute, zap.NewNop())
	defaults := models.VitalThresholds{
		MinBpm:         models.DefaultMinBpm,
		MaxBpm:         models.DefaultMaxBpm,
		MaxTemperature: models.DefaultMaxTemperature,
	}
	store := NewCachedStore(repository.NewStore(db, defaults, zap.NewNop()), readings, zap.NewNop())
	return mock, store
}

// 未命中落库回填，第二次读直接走缓存（不再设 DB 期望）
func TestCachedStore_LastLocationFillsCache(t *testing.T) {
	mock, store := setupCachedStore(t)
	ctx := context.Background()

	ts := time.Now().UTC().Truncate(time.Second)
	rows := sqlmock.NewRows([]string{
		"id", "dependent_id", "latitude", "longitude", "battery", "distance", "status", "timestamp",
	}).AddRow(int64(1), int64(42), 13.76, 100.51, 80, 150, "WARNING", ts)
	mock.ExpectQuery(`SELECT`).WithArgs(int64(42)).WillReturnRows(rows)

	rec, err := store.LastLocation(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.StatusWarning, rec.Status)

	rec2, err := store.LastLocation(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, rec2)
	assert.Equal(t, rec.Distance, rec2.Distance)
	assert.Equal(t, rec.Status, rec2.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

// 提交写入历史后缓存同步更新，后续读不再落库
func TestCachedStore_CommitUpdatesCache(t *testing.T) {
	mock, store := setupCachedStore(t)
	ctx := context.Background()

	rec := &models.HeartRateRecord{
		DependentID: 42,
		Bpm:         120,
		Status:      models.VitalAbnormal,
		Timestamp:   time.Now().UTC().Truncate(time.Second),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE dependents`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO heart_rate_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectCommit()

	state := models.AlertState{HeartRateAlertSent: true}
	require.NoError(t, store.CommitHeartRate(ctx, 42, state, rec))

	got, err := store.LastHeartRate(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 120, got.Bpm)
	assert.Equal(t, models.VitalAbnormal, got.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

// 历史为空：不缓存，下次仍然落库
func TestCachedStore_EmptyHistoryNotCached(t *testing.T) {
	mock, store := setupCachedStore(t)
	ctx := context.Background()

	emptyRows := sqlmock.NewRows([]string{
		"id", "dependent_id", "bpm", "status", "timestamp",
	})
	mock.ExpectQuery(`SELECT`).WithArgs(int64(7)).WillReturnRows(emptyRows)
	mock.ExpectQuery(`SELECT`).WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows([]string{
		"id", "dependent_id", "bpm", "status", "timestamp",
	}))

	rec, err := store.LastHeartRate(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = store.LastHeartRate(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, mock.ExpectationsWereMet())
}

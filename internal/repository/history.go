package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// HistoryRepository 位置/心率/体温历史仓库
// 保存策略由 recorder 决定，这里只管读最后一条和追加
type HistoryRepository struct {
	logger *zap.Logger
}

// NewHistoryRepository 创建历史仓库
func NewHistoryRepository(logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{logger: logger}
}

// ============================================
// 位置历史
// ============================================

// LastLocation 最近一条已保存的位置记录，没有时返回 (nil, nil)
func (r *HistoryRepository) LastLocation(ctx context.Context, q DBTX, dependentID int64) (*models.LocationRecord, error) {
	query := `
		SELECT id, dependent_id, latitude, longitude, battery, distance, status, timestamp
		FROM locations
		WHERE dependent_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var rec models.LocationRecord
	err := q.QueryRowContext(ctx, query, dependentID).Scan(
		&rec.ID,
		&rec.DependentID,
		&rec.Latitude,
		&rec.Longitude,
		&rec.Battery,
		&rec.Distance,
		&rec.Status,
		&rec.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last location: %w", err)
	}

	return &rec, nil
}

// AppendLocation 追加位置记录
func (r *HistoryRepository) AppendLocation(ctx context.Context, q DBTX, rec *models.LocationRecord) error {
	query := `
		INSERT INTO locations (dependent_id, latitude, longitude, battery, distance, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		rec.DependentID,
		rec.Latitude,
		rec.Longitude,
		rec.Battery,
		rec.Distance,
		rec.Status,
		rec.Timestamp,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}

	return nil
}

// ListLocations 按时间倒序取位置历史（监护人端轨迹查询）
func (r *HistoryRepository) ListLocations(ctx context.Context, q DBTX, dependentID int64, since time.Time, limit int) ([]*models.LocationRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, dependent_id, latitude, longitude, battery, distance, status, timestamp
		FROM locations
		WHERE dependent_id = $1
		  AND timestamp >= $2
		ORDER BY timestamp DESC
		LIMIT $3
	`

	rows, err := q.QueryContext(ctx, query, dependentID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	records := []*models.LocationRecord{}
	for rows.Next() {
		var rec models.LocationRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.DependentID,
			&rec.Latitude,
			&rec.Longitude,
			&rec.Battery,
			&rec.Distance,
			&rec.Status,
			&rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}

	return records, nil
}

// ============================================
// 心率历史
// ============================================

// LastHeartRate 最近一条已保存的心率记录，没有时返回 (nil, nil)
func (r *HistoryRepository) LastHeartRate(ctx context.Context, q DBTX, dependentID int64) (*models.HeartRateRecord, error) {
	query := `
		SELECT id, dependent_id, bpm, status, timestamp
		FROM heart_rate_records
		WHERE dependent_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var rec models.HeartRateRecord
	err := q.QueryRowContext(ctx, query, dependentID).Scan(
		&rec.ID,
		&rec.DependentID,
		&rec.Bpm,
		&rec.Status,
		&rec.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last heart rate: %w", err)
	}

	return &rec, nil
}

// AppendHeartRate 追加心率记录
func (r *HistoryRepository) AppendHeartRate(ctx context.Context, q DBTX, rec *models.HeartRateRecord) error {
	query := `
		INSERT INTO heart_rate_records (dependent_id, bpm, status, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		rec.DependentID,
		rec.Bpm,
		rec.Status,
		rec.Timestamp,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert heart rate: %w", err)
	}

	return nil
}

// ============================================
// 体温历史
// ============================================

// LastTemperature 最近一条已保存的体温记录，没有时返回 (nil, nil)
func (r *HistoryRepository) LastTemperature(ctx context.Context, q DBTX, dependentID int64) (*models.TemperatureRecord, error) {
	query := `
		SELECT id, dependent_id, value, status, timestamp
		FROM temperature_records
		WHERE dependent_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var rec models.TemperatureRecord
	err := q.QueryRowContext(ctx, query, dependentID).Scan(
		&rec.ID,
		&rec.DependentID,
		&rec.Value,
		&rec.Status,
		&rec.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query last temperature: %w", err)
	}

	return &rec, nil
}

// AppendTemperature 追加体温记录
func (r *HistoryRepository) AppendTemperature(ctx context.Context, q DBTX, rec *models.TemperatureRecord) error {
	query := `
		INSERT INTO temperature_records (dependent_id, value, status, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		rec.DependentID,
		rec.Value,
		rec.Status,
		rec.Timestamp,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert temperature: %w", err)
	}

	return nil
}

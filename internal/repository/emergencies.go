package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// EmergenciesRepository 跌倒事件与求助请求仓库
// help_requests 由监护人端应用写入，这边只读状态和统一解除
type EmergenciesRepository struct {
	logger *zap.Logger
}

// NewEmergenciesRepository 创建紧急事件仓库
func NewEmergenciesRepository(logger *zap.Logger) *EmergenciesRepository {
	return &EmergenciesRepository{logger: logger}
}

// CreateFall 写入跌倒记录
func (r *EmergenciesRepository) CreateFall(ctx context.Context, q DBTX, rec *models.FallRecord) error {
	query := `
		INSERT INTO fall_records (dependent_id, latitude, longitude, x_axis, y_axis, z_axis, status, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		rec.DependentID,
		rec.Latitude,
		rec.Longitude,
		rec.XAxis,
		rec.YAxis,
		rec.ZAxis,
		rec.Status,
		rec.Timestamp,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert fall record: %w", err)
	}

	return nil
}

// HasActiveFall 是否存在未解除的跌倒事件（DETECTED 或 ACKNOWLEDGED）
func (r *EmergenciesRepository) HasActiveFall(ctx context.Context, q DBTX, dependentID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM fall_records
			WHERE dependent_id = $1
			  AND status != $2
		)
	`

	var exists bool
	err := q.QueryRowContext(ctx, query, dependentID, models.EmergencyResolved).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active fall: %w", err)
	}
	return exists, nil
}

// HasActiveHelp 是否存在待响应的求助请求（仅 DETECTED）
func (r *EmergenciesRepository) HasActiveHelp(ctx context.Context, q DBTX, dependentID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM help_requests
			WHERE dependent_id = $1
			  AND status = $2
		)
	`

	var exists bool
	err := q.QueryRowContext(ctx, query, dependentID, models.EmergencyDetected).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active help: %w", err)
	}
	return exists, nil
}

// ResolveAll 把该被监护人所有未解除的跌倒/求助记录置为 RESOLVED
// 两张表一起清，幂等：没有活跃记录时也成功
func (r *EmergenciesRepository) ResolveAll(ctx context.Context, q DBTX, dependentID int64, handler string) error {
	fallQuery := `
		UPDATE fall_records
		SET status = $1,
		    handler = $2,
		    resolved_at = CURRENT_TIMESTAMP
		WHERE dependent_id = $3
		  AND status != $1
	`
	if _, err := q.ExecContext(ctx, fallQuery, models.EmergencyResolved, handler, dependentID); err != nil {
		return fmt.Errorf("failed to resolve fall records: %w", err)
	}

	helpQuery := `
		UPDATE help_requests
		SET status = $1,
		    handler = $2,
		    resolved_at = CURRENT_TIMESTAMP
		WHERE dependent_id = $3
		  AND status != $1
	`
	if _, err := q.ExecContext(ctx, helpQuery, models.EmergencyResolved, handler, dependentID); err != nil {
		return fmt.Errorf("failed to resolve help requests: %w", err)
	}

	return nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// DependentsRepository 被监护人仓库
// 一次 JOIN 拉出档案 + 监护人 + 安全区 + 阈值 + 告警标志位
type DependentsRepository struct {
	defaults models.VitalThresholds // vital_settings 缺行时的回退阈值（来自告警策略）
	logger   *zap.Logger
}

// NewDependentsRepository 创建被监护人仓库
func NewDependentsRepository(defaults models.VitalThresholds, logger *zap.Logger) *DependentsRepository {
	return &DependentsRepository{defaults: defaults, logger: logger}
}

// Get 根据 dependent_id 获取被监护人完整档案
// 安全区/阈值未配置时回退到默认值，监护人可能为空
func (r *DependentsRepository) Get(ctx context.Context, q DBTX, dependentID int64) (*models.Dependent, error) {
	query := `
		SELECT
			d.dependent_id,
			d.first_name,
			d.last_name,
			d.zone1_sent,
			d.near_zone2_sent,
			d.zone2_sent,
			d.heart_alert_sent,
			d.temp_alert_sent,
			d.gps_enabled,
			d.wait_view_location,
			c.name,
			c.line_id,
			c.phone,
			s.radius_lv1,
			s.radius_lv2,
			s.latitude,
			s.longitude,
			v.min_bpm,
			v.max_bpm,
			v.max_temperature
		FROM dependents d
		LEFT JOIN caregivers c ON c.caregiver_id = d.caregiver_id
		LEFT JOIN safe_zones s ON s.dependent_id = d.dependent_id
		LEFT JOIN vital_settings v ON v.dependent_id = d.dependent_id
		WHERE d.dependent_id = $1
	`

	var dep models.Dependent
	var zone1, nearZone2, zone2 bool
	var caregiverName, caregiverLine, caregiverPhone sql.NullString
	var radiusLv1, radiusLv2 sql.NullInt64
	var zoneLat, zoneLng sql.NullFloat64
	var minBpm, maxBpm sql.NullInt64
	var maxTemp sql.NullFloat64

	err := q.QueryRowContext(ctx, query, dependentID).Scan(
		&dep.ID,
		&dep.FirstName,
		&dep.LastName,
		&zone1,
		&nearZone2,
		&zone2,
		&dep.State.HeartRateAlertSent,
		&dep.State.TemperatureAlertSent,
		&dep.State.GpsEnabled,
		&dep.State.WaitViewLocation,
		&caregiverName,
		&caregiverLine,
		&caregiverPhone,
		&radiusLv1,
		&radiusLv2,
		&zoneLat,
		&zoneLng,
		&minBpm,
		&maxBpm,
		&maxTemp,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("dependent %d: %w", dependentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dependent: %w", err)
	}

	dep.State.Zone = models.ZoneLevelFromFlags(zone1, nearZone2, zone2)

	if caregiverLine.Valid || caregiverPhone.Valid {
		dep.Caregiver = &models.Caregiver{
			Name:   caregiverName.String,
			LineID: caregiverLine.String,
			Phone:  caregiverPhone.String,
		}
	}

	if radiusLv1.Valid && radiusLv2.Valid {
		dep.SafeZone = &models.SafeZone{
			RadiusLv1: int(radiusLv1.Int64),
			RadiusLv2: int(radiusLv2.Int64),
			Latitude:  zoneLat.Float64,
			Longitude: zoneLng.Float64,
		}
	}

	dep.Thresholds = r.defaults
	if minBpm.Valid {
		dep.Thresholds.MinBpm = int(minBpm.Int64)
	}
	if maxBpm.Valid {
		dep.Thresholds.MaxBpm = int(maxBpm.Int64)
	}
	if maxTemp.Valid {
		dep.Thresholds.MaxTemperature = maxTemp.Float64
	}

	return &dep, nil
}

// UpdateAlertState 写回告警标志位（围栏枚举展开成三个布尔列）
func (r *DependentsRepository) UpdateAlertState(ctx context.Context, q DBTX, dependentID int64, state models.AlertState) error {
	query := `
		UPDATE dependents
		SET zone1_sent = $1,
		    near_zone2_sent = $2,
		    zone2_sent = $3,
		    heart_alert_sent = $4,
		    temp_alert_sent = $5,
		    gps_enabled = $6,
		    wait_view_location = $7,
		    updated_at = CURRENT_TIMESTAMP
		WHERE dependent_id = $8
	`

	result, err := q.ExecContext(ctx, query,
		state.Zone.Zone1Sent(),
		state.Zone.NearZone2Sent(),
		state.Zone.Zone2Sent(),
		state.HeartRateAlertSent,
		state.TemperatureAlertSent,
		state.GpsEnabled,
		state.WaitViewLocation,
		dependentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dependent %d: %w", dependentID, ErrNotFound)
	}

	return nil
}

// SetWaitViewLocation 单独更新"等待查看定位"标志
func (r *DependentsRepository) SetWaitViewLocation(ctx context.Context, q DBTX, dependentID int64, waiting bool) error {
	query := `
		UPDATE dependents
		SET wait_view_location = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE dependent_id = $2
	`

	result, err := q.ExecContext(ctx, query, waiting, dependentID)
	if err != nil {
		return fmt.Errorf("failed to set wait_view_location: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dependent %d: %w", dependentID, ErrNotFound)
	}

	return nil
}

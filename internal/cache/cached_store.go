package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/repository"
)

// 读数缓存的字段名
const (
	fieldLocation    = "location"
	fieldHeartRate   = "heart_rate"
	fieldTemperature = "temperature"
)

// CachedStore repository.Store 的读缓存装饰器
// 每条上报都要读最近一条历史做保存判断，这条查询走 Redis，
// 提交成功后回填。缓存不可用时静默退回 PostgreSQL
type CachedStore struct {
	inner    *repository.Store
	readings *ReadingCache
	logger   *zap.Logger
}

// NewCachedStore 创建带读缓存的持久化门面
func NewCachedStore(inner *repository.Store, readings *ReadingCache, logger *zap.Logger) *CachedStore {
	return &CachedStore{
		inner:    inner,
		readings: readings,
		logger:   logger,
	}
}

// GetDependent 档案不缓存：标志位必须每次读到最新
func (s *CachedStore) GetDependent(ctx context.Context, id int64) (*models.Dependent, error) {
	return s.inner.GetDependent(ctx, id)
}

// LastLocation 先查缓存，未命中落库并回填
func (s *CachedStore) LastLocation(ctx context.Context, dependentID int64) (*models.LocationRecord, error) {
	var cached models.LocationRecord
	if hit, err := s.readings.GetReading(ctx, dependentID, fieldLocation, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		s.logger.Warn("Reading cache unavailable", zap.Error(err))
	}

	rec, err := s.inner.LastLocation(ctx, dependentID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		s.fill(ctx, dependentID, fieldLocation, rec)
	}
	return rec, nil
}

// LastHeartRate 先查缓存，未命中落库并回填
func (s *CachedStore) LastHeartRate(ctx context.Context, dependentID int64) (*models.HeartRateRecord, error) {
	var cached models.HeartRateRecord
	if hit, err := s.readings.GetReading(ctx, dependentID, fieldHeartRate, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		s.logger.Warn("Reading cache unavailable", zap.Error(err))
	}

	rec, err := s.inner.LastHeartRate(ctx, dependentID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		s.fill(ctx, dependentID, fieldHeartRate, rec)
	}
	return rec, nil
}

// LastTemperature 先查缓存，未命中落库并回填
func (s *CachedStore) LastTemperature(ctx context.Context, dependentID int64) (*models.TemperatureRecord, error) {
	var cached models.TemperatureRecord
	if hit, err := s.readings.GetReading(ctx, dependentID, fieldTemperature, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		s.logger.Warn("Reading cache unavailable", zap.Error(err))
	}

	rec, err := s.inner.LastTemperature(ctx, dependentID)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		s.fill(ctx, dependentID, fieldTemperature, rec)
	}
	return rec, nil
}

func (s *CachedStore) HasActiveFall(ctx context.Context, dependentID int64) (bool, error) {
	return s.inner.HasActiveFall(ctx, dependentID)
}

func (s *CachedStore) HasActiveHelp(ctx context.Context, dependentID int64) (bool, error) {
	return s.inner.HasActiveHelp(ctx, dependentID)
}

// CommitLocation 提交后回填缓存（rec 为 nil 时最近一条没变，缓存原样有效）
func (s *CachedStore) CommitLocation(ctx context.Context, dependentID int64, state models.AlertState, rec *models.LocationRecord) error {
	if err := s.inner.CommitLocation(ctx, dependentID, state, rec); err != nil {
		return err
	}
	if rec != nil {
		s.fill(ctx, dependentID, fieldLocation, rec)
	}
	return nil
}

// CommitHeartRate 提交后回填缓存
func (s *CachedStore) CommitHeartRate(ctx context.Context, dependentID int64, state models.AlertState, rec *models.HeartRateRecord) error {
	if err := s.inner.CommitHeartRate(ctx, dependentID, state, rec); err != nil {
		return err
	}
	if rec != nil {
		s.fill(ctx, dependentID, fieldHeartRate, rec)
	}
	return nil
}

// CommitTemperature 提交后回填缓存
func (s *CachedStore) CommitTemperature(ctx context.Context, dependentID int64, state models.AlertState, rec *models.TemperatureRecord) error {
	if err := s.inner.CommitTemperature(ctx, dependentID, state, rec); err != nil {
		return err
	}
	if rec != nil {
		s.fill(ctx, dependentID, fieldTemperature, rec)
	}
	return nil
}

func (s *CachedStore) CommitFall(ctx context.Context, dependentID int64, state models.AlertState, rec *models.FallRecord) error {
	return s.inner.CommitFall(ctx, dependentID, state, rec)
}

func (s *CachedStore) ResolveEmergencies(ctx context.Context, dependentID int64, state models.AlertState, handler string) error {
	return s.inner.ResolveEmergencies(ctx, dependentID, state, handler)
}

func (s *CachedStore) SetWaitViewLocation(ctx context.Context, dependentID int64, waiting bool) error {
	return s.inner.SetWaitViewLocation(ctx, dependentID, waiting)
}

// fill 回填失败只记日志，缓存永远不挡主流程
func (s *CachedStore) fill(ctx context.Context, dependentID int64, field string, value any) {
	if err := s.readings.SetReading(ctx, dependentID, field, value); err != nil {
		s.logger.Warn("Failed to fill reading cache",
			zap.Int64("dependent_id", dependentID),
			zap.String("field", field),
			zap.Error(err),
		)
	}
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// Store 决策引擎的持久化门面
// Commit* 把标志位和历史记录捆进同一个事务，保证一致
type Store struct {
	db          *sql.DB
	dependents  *DependentsRepository
	history     *HistoryRepository
	emergencies *EmergenciesRepository
	logger      *zap.Logger
}

// NewStore 创建持久化门面，defaults 是策略配置里的阈值回退值
func NewStore(db *sql.DB, defaults models.VitalThresholds, logger *zap.Logger) *Store {
	return &Store{
		db:          db,
		dependents:  NewDependentsRepository(defaults, logger),
		history:     NewHistoryRepository(logger),
		emergencies: NewEmergenciesRepository(logger),
		logger:      logger,
	}
}

// GetDependent 获取被监护人档案（含告警标志位）
func (s *Store) GetDependent(ctx context.Context, id int64) (*models.Dependent, error) {
	return s.dependents.Get(ctx, s.db, id)
}

// LastLocation 最近一条位置记录
func (s *Store) LastLocation(ctx context.Context, dependentID int64) (*models.LocationRecord, error) {
	return s.history.LastLocation(ctx, s.db, dependentID)
}

// LastHeartRate 最近一条心率记录
func (s *Store) LastHeartRate(ctx context.Context, dependentID int64) (*models.HeartRateRecord, error) {
	return s.history.LastHeartRate(ctx, s.db, dependentID)
}

// LastTemperature 最近一条体温记录
func (s *Store) LastTemperature(ctx context.Context, dependentID int64) (*models.TemperatureRecord, error) {
	return s.history.LastTemperature(ctx, s.db, dependentID)
}

// HasActiveFall 是否有未解除的跌倒事件
func (s *Store) HasActiveFall(ctx context.Context, dependentID int64) (bool, error) {
	return s.emergencies.HasActiveFall(ctx, s.db, dependentID)
}

// HasActiveHelp 是否有待响应的求助请求
func (s *Store) HasActiveHelp(ctx context.Context, dependentID int64) (bool, error) {
	return s.emergencies.HasActiveHelp(ctx, s.db, dependentID)
}

// CommitLocation 提交围栏状态转移，rec 为 nil 时只更新标志位
func (s *Store) CommitLocation(ctx context.Context, dependentID int64, state models.AlertState, rec *models.LocationRecord) error {
	return RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.dependents.UpdateAlertState(ctx, tx, dependentID, state); err != nil {
			return err
		}
		if rec != nil {
			return s.history.AppendLocation(ctx, tx, rec)
		}
		return nil
	})
}

// CommitHeartRate 提交心率状态转移
func (s *Store) CommitHeartRate(ctx context.Context, dependentID int64, state models.AlertState, rec *models.HeartRateRecord) error {
	return RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.dependents.UpdateAlertState(ctx, tx, dependentID, state); err != nil {
			return err
		}
		if rec != nil {
			return s.history.AppendHeartRate(ctx, tx, rec)
		}
		return nil
	})
}

// CommitTemperature 提交体温状态转移
func (s *Store) CommitTemperature(ctx context.Context, dependentID int64, state models.AlertState, rec *models.TemperatureRecord) error {
	return RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.dependents.UpdateAlertState(ctx, tx, dependentID, state); err != nil {
			return err
		}
		if rec != nil {
			return s.history.AppendTemperature(ctx, tx, rec)
		}
		return nil
	})
}

// CommitFall 提交跌倒记录与状态
func (s *Store) CommitFall(ctx context.Context, dependentID int64, state models.AlertState, rec *models.FallRecord) error {
	return RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.dependents.UpdateAlertState(ctx, tx, dependentID, state); err != nil {
			return err
		}
		return s.emergencies.CreateFall(ctx, tx, rec)
	})
}

// ResolveEmergencies 解除全部紧急事件并写回清零后的标志位
func (s *Store) ResolveEmergencies(ctx context.Context, dependentID int64, state models.AlertState, handler string) error {
	return RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.dependents.UpdateAlertState(ctx, tx, dependentID, state); err != nil {
			return err
		}
		return s.emergencies.ResolveAll(ctx, tx, dependentID, handler)
	})
}

// SetWaitViewLocation 更新"等待查看定位"标志
func (s *Store) SetWaitViewLocation(ctx context.Context, dependentID int64, waiting bool) error {
	return s.dependents.SetWaitViewLocation(ctx, s.db, dependentID, waiting)
}

// ListLocations 监护人端轨迹查询
func (s *Store) ListLocations(ctx context.Context, dependentID int64, since time.Time, limit int) ([]*models.LocationRecord, error) {
	return s.history.ListLocations(ctx, s.db, dependentID, since, limit)
}

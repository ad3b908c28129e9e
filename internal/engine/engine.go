// Package engine 告警决策引擎
// 唯一允许读-改-写 AlertState 的组件：
// 加载状态 → 分类 → 状态转移 → 事务提交 → 异步派发通知
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/classifier"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/config"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/recorder"
)

// Store 引擎需要的持久化接口（repository.Store 实现）
// Commit* 必须把标志位与历史记录放在同一个事务里，要么全部生效要么全部回滚
type Store interface {
	GetDependent(ctx context.Context, id int64) (*models.Dependent, error)

	LastLocation(ctx context.Context, dependentID int64) (*models.LocationRecord, error)
	LastHeartRate(ctx context.Context, dependentID int64) (*models.HeartRateRecord, error)
	LastTemperature(ctx context.Context, dependentID int64) (*models.TemperatureRecord, error)

	HasActiveFall(ctx context.Context, dependentID int64) (bool, error)
	HasActiveHelp(ctx context.Context, dependentID int64) (bool, error)

	CommitLocation(ctx context.Context, dependentID int64, state models.AlertState, rec *models.LocationRecord) error
	CommitHeartRate(ctx context.Context, dependentID int64, state models.AlertState, rec *models.HeartRateRecord) error
	CommitTemperature(ctx context.Context, dependentID int64, state models.AlertState, rec *models.TemperatureRecord) error
	CommitFall(ctx context.Context, dependentID int64, state models.AlertState, rec *models.FallRecord) error

	ResolveEmergencies(ctx context.Context, dependentID int64, state models.AlertState, handler string) error
	SetWaitViewLocation(ctx context.Context, dependentID int64, waiting bool) error
}

// GlitchCounter 开机毛刺的连续计数（Redis 实现，进程重启不丢）
type GlitchCounter interface {
	BumpGlitch(ctx context.Context, dependentID int64) (int64, error)
	ResetGlitch(ctx context.Context, dependentID int64) error
}

// Queue 通知队列，Publish 失败只记日志，不影响已提交的状态
type Queue interface {
	Publish(ctx context.Context, n *models.Notification) error
}

// LocationReport 位置/电量上报
type LocationReport struct {
	DependentID    int64
	Latitude       float64
	Longitude      float64
	Battery        int
	Distance       int  // 手表自算的与中心距离（米）
	RawStatus      int  // 手表自报的区域状态，仅用于毛刺判断
	LocationViewed bool // body.location_status：被监护人已查看定位
}

// HeartRateReport 心率上报
type HeartRateReport struct {
	DependentID int64
	Bpm         int
}

// TemperatureReport 体温上报
type TemperatureReport struct {
	DependentID int64
	Value       float64
}

// FallReport 跌倒上报
type FallReport struct {
	DependentID int64
	FallStatus  string // "-1" / "0" / "1"
	XAxis       float64
	YAxis       float64
	ZAxis       float64
	Latitude    *float64
	Longitude   *float64
}

// Result 心率/体温/跌倒/处理确认的简单应答
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Engine 告警决策引擎
type Engine struct {
	policy config.AlertPolicy
	store  Store
	glitch GlitchCounter
	queue  Queue
	logger *zap.Logger

	locks *keyedMutex
	save  recorder.Policy
	nowFn func() time.Time
}

// New 创建引擎
func New(policy config.AlertPolicy, store Store, glitch GlitchCounter, queue Queue, logger *zap.Logger) *Engine {
	return &Engine{
		policy: policy,
		store:  store,
		glitch: glitch,
		queue:  queue,
		logger: logger,
		locks:  newKeyedMutex(),
		save:   recorder.Policy{Heartbeat: policy.HeartbeatInterval},
		nowFn:  time.Now,
	}
}

// HandleLocation 处理位置/电量上报，返回设备同步应答
func (e *Engine) HandleLocation(ctx context.Context, rep LocationReport) (*models.DeviceSyncResponse, error) {
	// GPS 定位失败：整条丢弃，不碰任何状态
	if classifier.GPSFixFailed(rep.Latitude, rep.Longitude) {
		e.logger.Debug("GPS fix failed, report ignored",
			zap.Int64("dependent_id", rep.DependentID),
		)
		return ignoredSync("ignored: gps fix failed"), nil
	}

	unlock := e.locks.Lock(rep.DependentID)
	defer unlock()

	dep, err := e.store.GetDependent(ctx, rep.DependentID)
	if err != nil {
		return nil, err
	}

	// 开机毛刺：按确认计数策略放行或丢弃
	if classifier.StartupGlitch(rep.RawStatus, rep.Distance) {
		if skip := e.glitchShouldSkip(ctx, rep.DependentID); skip {
			return ignoredSync("ignored: startup glitch"), nil
		}
	} else if err := e.glitch.ResetGlitch(ctx, rep.DependentID); err != nil {
		e.logger.Warn("Failed to reset glitch counter", zap.Error(err))
	}

	activeFall, err := e.store.HasActiveFall(ctx, rep.DependentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active fall: %w", err)
	}

	zone := classifier.Zone(rep.Distance, dep.SafeZone, e.policy.NearZoneRatio)

	lastLoc, err := e.store.LastLocation(ctx, rep.DependentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last location: %w", err)
	}
	var lastStatus models.LocationStatus
	var lastSaved *recorder.LastSaved
	if lastLoc != nil {
		lastStatus = lastLoc.Status
		lastSaved = &recorder.LastSaved{Status: string(lastLoc.Status), Timestamp: lastLoc.Timestamp}
	}

	var decision ZoneDecision
	if activeFall {
		// 未处理完的跌倒/SOS 优先级高于围栏，区域评估整体跳过
		e.logger.Info("Active fall detected, suppressing zone alerts",
			zap.Int64("dependent_id", rep.DependentID),
		)
		decision = ZoneDecision{Next: dep.State.Zone, Alert: models.AlertNone, Status: zone.Status()}
	} else {
		decision = TransitionZone(dep.State.Zone, zone, lastStatus)
	}

	newState := dep.State
	newState.Zone = decision.Next

	now := e.nowFn()
	var rec *models.LocationRecord
	if save, reason := e.save.ShouldSave(lastSaved, string(decision.Status), now); save {
		rec = &models.LocationRecord{
			DependentID: rep.DependentID,
			Latitude:    rep.Latitude,
			Longitude:   rep.Longitude,
			Battery:     rep.Battery,
			Distance:    rep.Distance,
			Status:      decision.Status,
			Timestamp:   now,
		}
		e.logger.Debug("Saving location history",
			zap.Int64("dependent_id", rep.DependentID),
			zap.String("reason", string(reason)),
			zap.String("status", string(decision.Status)),
		)
	}

	if err := e.store.CommitLocation(ctx, rep.DependentID, newState, rec); err != nil {
		return nil, fmt.Errorf("failed to commit location transition: %w", err)
	}

	if decision.Alert != models.AlertNone {
		lat, lng := rep.Latitude, rep.Longitude
		e.enqueue(ctx, buildNotification(dep, decision.Alert,
			fmt.Sprintf("%d m", rep.Distance), &lat, &lng, now))
	}

	return e.buildSyncResponse(ctx, dep, newState, decision.Alert, rep.LocationViewed, now)
}

// glitchShouldSkip 毛刺确认计数：超过配置的确认次数后按真实在家读数放行
func (e *Engine) glitchShouldSkip(ctx context.Context, dependentID int64) bool {
	if e.policy.GlitchConfirmCount == 0 {
		e.logger.Debug("Startup glitch skipped", zap.Int64("dependent_id", dependentID))
		return true
	}
	count, err := e.glitch.BumpGlitch(ctx, dependentID)
	if err != nil {
		// 计数不可用时退回保守行为：丢弃
		e.logger.Warn("Glitch counter unavailable, skipping report", zap.Error(err))
		return true
	}
	if count <= int64(e.policy.GlitchConfirmCount) {
		e.logger.Debug("Startup glitch skipped (awaiting confirmation)",
			zap.Int64("dependent_id", dependentID),
			zap.Int64("count", count),
		)
		return true
	}
	if err := e.glitch.ResetGlitch(ctx, dependentID); err != nil {
		e.logger.Warn("Failed to reset glitch counter", zap.Error(err))
	}
	return false
}

// buildSyncResponse 组装设备同步应答，含 waitViewLocation 握手
func (e *Engine) buildSyncResponse(ctx context.Context, dep *models.Dependent, state models.AlertState, alert models.AlertKind, locationViewed bool, now time.Time) (*models.DeviceSyncResponse, error) {
	activeHelp, err := e.store.HasActiveHelp(ctx, dep.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active help: %w", err)
	}

	stopEmergency := !activeHelp
	if state.WaitViewLocation {
		stopEmergency = false
		if locationViewed {
			// 被监护人查看过定位：先落库解除等待，成功后才推送状态消息。
			// 清标志失败时设备会重试，顺序反了会重复打扰监护人
			if err := e.store.SetWaitViewLocation(ctx, dep.ID, false); err != nil {
				return nil, fmt.Errorf("failed to clear wait-view-location: %w", err)
			}
			e.enqueue(ctx, buildNotification(dep, models.AlertLocationViewed, "", nil, nil, now))
			stopEmergency = true
		}
	}

	sync := models.SyncSettings{R1: models.DefaultRadiusLv1, R2: models.DefaultRadiusLv2}
	if dep.SafeZone != nil {
		sync = models.SyncSettings{
			R1:  dep.SafeZone.RadiusLv1,
			R2:  dep.SafeZone.RadiusLv2,
			Lat: dep.SafeZone.Latitude,
			Lng: dep.SafeZone.Longitude,
		}
	}

	return &models.DeviceSyncResponse{
		Success:         true,
		CommandTracking: state.GpsEnabled,
		RequestLocation: activeHelp,
		StopEmergency:   stopEmergency,
		AlertType:       alert,
		SyncSettings:    sync,
	}, nil
}

// HandleHeartRate 处理心率上报
func (e *Engine) HandleHeartRate(ctx context.Context, rep HeartRateReport) (*Result, error) {
	// 传感器预热噪声：不查库直接忽略
	if rep.Bpm <= 0 {
		return &Result{Success: true, Message: "ignored: 0 bpm"}, nil
	}

	unlock := e.locks.Lock(rep.DependentID)
	defer unlock()

	dep, err := e.store.GetDependent(ctx, rep.DependentID)
	if err != nil {
		return nil, err
	}

	status, ok := classifier.HeartRate(rep.Bpm, dep.Thresholds)
	if !ok {
		return &Result{Success: true, Message: "ignored: 0 bpm"}, nil
	}

	newSent, fire, recovery := TransitionVital(dep.State.HeartRateAlertSent, status)
	newState := dep.State
	newState.HeartRateAlertSent = newSent

	now := e.nowFn()
	last, err := e.store.LastHeartRate(ctx, rep.DependentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last heart rate: %w", err)
	}
	var lastSaved *recorder.LastSaved
	if last != nil {
		lastSaved = &recorder.LastSaved{Status: string(last.Status), Timestamp: last.Timestamp}
	}

	var rec *models.HeartRateRecord
	if save, _ := e.save.ShouldSave(lastSaved, string(status), now); save {
		rec = &models.HeartRateRecord{
			DependentID: rep.DependentID,
			Bpm:         rep.Bpm,
			Status:      status,
			Timestamp:   now,
		}
	}

	if err := e.store.CommitHeartRate(ctx, rep.DependentID, newState, rec); err != nil {
		return nil, fmt.Errorf("failed to commit heart rate transition: %w", err)
	}

	if fire {
		kind := models.AlertHeartCritical
		if recovery {
			kind = models.AlertHeartRecovery
		}
		lat, lng := e.lastKnownPosition(ctx, rep.DependentID, kind)
		e.enqueue(ctx, buildNotification(dep, kind,
			fmt.Sprintf("%d bpm (%d-%d)", rep.Bpm, dep.Thresholds.MinBpm, dep.Thresholds.MaxBpm),
			lat, lng, now))
	}

	return &Result{Success: true, Data: rec}, nil
}

// HandleTemperature 处理体温上报
func (e *Engine) HandleTemperature(ctx context.Context, rep TemperatureReport) (*Result, error) {
	if rep.Value <= 0 {
		return &Result{Success: true, Message: "ignored: 0.0 temp"}, nil
	}

	unlock := e.locks.Lock(rep.DependentID)
	defer unlock()

	dep, err := e.store.GetDependent(ctx, rep.DependentID)
	if err != nil {
		return nil, err
	}

	status, ok := classifier.Temperature(rep.Value, dep.Thresholds)
	if !ok {
		return &Result{Success: true, Message: "ignored: 0.0 temp"}, nil
	}

	newSent, fire, recovery := TransitionVital(dep.State.TemperatureAlertSent, status)
	newState := dep.State
	newState.TemperatureAlertSent = newSent

	now := e.nowFn()
	last, err := e.store.LastTemperature(ctx, rep.DependentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last temperature: %w", err)
	}
	var lastSaved *recorder.LastSaved
	if last != nil {
		lastSaved = &recorder.LastSaved{Status: string(last.Status), Timestamp: last.Timestamp}
	}

	var rec *models.TemperatureRecord
	if save, _ := e.save.ShouldSave(lastSaved, string(status), now); save {
		rec = &models.TemperatureRecord{
			DependentID: rep.DependentID,
			Value:       rep.Value,
			Status:      status,
			Timestamp:   now,
		}
	}

	if err := e.store.CommitTemperature(ctx, rep.DependentID, newState, rec); err != nil {
		return nil, fmt.Errorf("failed to commit temperature transition: %w", err)
	}

	if fire {
		kind := models.AlertTempCritical
		if recovery {
			kind = models.AlertTempRecovery
		}
		lat, lng := e.lastKnownPosition(ctx, rep.DependentID, kind)
		e.enqueue(ctx, buildNotification(dep, kind,
			fmt.Sprintf("%.1f °C", rep.Value), lat, lng, now))
	}

	return &Result{Success: true, Data: rec}, nil
}

// HandleFall 处理跌倒上报
// "-1" 只记录；"0"/"1" 每条独立告警（无 latch），开启定位并把围栏 latch 拉满
func (e *Engine) HandleFall(ctx context.Context, rep FallReport) (*Result, error) {
	kind, ok := classifier.ParseFallStatus(rep.FallStatus)
	if !ok {
		return &Result{Success: true, Message: "ignored: invalid fall status"}, nil
	}

	unlock := e.locks.Lock(rep.DependentID)
	defer unlock()

	dep, err := e.store.GetDependent(ctx, rep.DependentID)
	if err != nil {
		return nil, err
	}

	now := e.nowFn()
	rec := &models.FallRecord{
		DependentID: rep.DependentID,
		Latitude:    rep.Latitude,
		Longitude:   rep.Longitude,
		XAxis:       rep.XAxis,
		YAxis:       rep.YAxis,
		ZAxis:       rep.ZAxis,
		Status:      models.EmergencyResolved, // "-1"：误报已确认，直接按已处理入库
		Timestamp:   now,
	}

	newState := dep.State
	if kind.Alertable() {
		rec.Status = models.EmergencyDetected
		newState = ApplyFall(dep.State)
	}

	if err := e.store.CommitFall(ctx, rep.DependentID, newState, rec); err != nil {
		return nil, fmt.Errorf("failed to commit fall record: %w", err)
	}

	if kind.Alertable() {
		lat, lng := rep.Latitude, rep.Longitude
		if lat == nil || lng == nil {
			// 室内拿不到 GPS 时退回最近一条已保存位置
			lat, lng = e.lastKnownPosition(ctx, rep.DependentID, models.AlertFallSOS)
		}
		e.enqueue(ctx, buildFallNotification(dep, models.AlertFallSOS,
			kind == classifier.FallManualPress, lat, lng, now))
	}

	return &Result{Success: true, Data: rec}, nil
}

// Resolve 监护人确认处理完成：跌倒/求助记录置 RESOLVED，围栏 latch 清零
func (e *Engine) Resolve(ctx context.Context, dependentID int64, handler string) (*Result, error) {
	unlock := e.locks.Lock(dependentID)
	defer unlock()

	dep, err := e.store.GetDependent(ctx, dependentID)
	if err != nil {
		return nil, err
	}

	newState := ApplyResolution(dep.State)
	if err := e.store.ResolveEmergencies(ctx, dependentID, newState, handler); err != nil {
		return nil, fmt.Errorf("failed to resolve emergencies: %w", err)
	}

	e.logger.Info("Emergency resolved",
		zap.Int64("dependent_id", dependentID),
		zap.String("handler", handler),
	)

	return &Result{Success: true}, nil
}

// enqueue 投递通知意图，失败只记日志（发送与决策解耦）
func (e *Engine) enqueue(ctx context.Context, n *models.Notification) {
	if err := e.queue.Publish(ctx, n); err != nil {
		e.logger.Error("Failed to enqueue notification",
			zap.String("event_id", n.EventID),
			zap.String("kind", string(n.Kind)),
			zap.Int64("dependent_id", n.DependentID),
			zap.Error(err),
		)
		return
	}
	e.logger.Info("Notification queued",
		zap.String("event_id", n.EventID),
		zap.String("kind", string(n.Kind)),
		zap.Int64("dependent_id", n.DependentID),
	)
}

// lastKnownPosition 紧急通知带地图用的最近位置，取不到就算了
func (e *Engine) lastKnownPosition(ctx context.Context, dependentID int64, kind models.AlertKind) (*float64, *float64) {
	if !kind.Critical() {
		return nil, nil
	}
	loc, err := e.store.LastLocation(ctx, dependentID)
	if err != nil || loc == nil {
		return nil, nil
	}
	return &loc.Latitude, &loc.Longitude
}

func ignoredSync(msg string) *models.DeviceSyncResponse {
	return &models.DeviceSyncResponse{
		Success:   true,
		Message:   msg,
		AlertType: models.AlertNone,
	}
}

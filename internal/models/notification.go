package models

import "time"

// AlertKind 通知意图类型
// 地理围栏出界/回归、生命体征异常/恢复、跌倒 SOS
type AlertKind string

const (
	AlertNone AlertKind = "NONE"

	// 地理围栏
	AlertZone1           AlertKind = "ZONE_1"
	AlertNearZone2       AlertKind = "NEAR_ZONE_2"
	AlertZone2SOS        AlertKind = "ZONE_2_SOS"
	AlertBackToNearZone2 AlertKind = "BACK_TO_NEAR_ZONE_2"
	AlertBackToZone1     AlertKind = "BACK_TO_ZONE_1"
	AlertBackSafe        AlertKind = "BACK_SAFE"

	// 生命体征
	AlertHeartCritical AlertKind = "HEART_CRITICAL"
	AlertHeartRecovery AlertKind = "HEART_RECOVERY"
	AlertTempCritical  AlertKind = "TEMP_CRITICAL"
	AlertTempRecovery  AlertKind = "TEMP_RECOVERY"

	// 跌倒 / 求助
	AlertFallSOS AlertKind = "FALL_SOS"

	// 被监护人已查看定位（waitViewLocation 满足后推送给监护人的状态消息）
	AlertLocationViewed AlertKind = "LOCATION_VIEWED"
)

// Critical 是否属于需要地图 + 救援入口的紧急通知
func (k AlertKind) Critical() bool {
	switch k {
	case AlertZone2SOS, AlertHeartCritical, AlertTempCritical, AlertFallSOS:
		return true
	}
	return false
}

// Notification 通知意图（engine 产出，dispatcher 消费）
// 发送失败只记日志，绝不回滚状态，所以这里带上发送所需的全部上下文
type Notification struct {
	EventID       string    `json:"event_id"`
	DependentID   int64     `json:"dependent_id"`
	DependentName string    `json:"dependent_name"`
	Kind          AlertKind `json:"kind"`
	Title         string    `json:"title"`
	Text          string    `json:"text"`
	Value         string    `json:"value,omitempty"` // 展示值，如 "350 m" / "120 bpm" / "38.2 °C"
	LineID        string    `json:"line_id,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SyncSettings 回传给手表的安全区配置
type SyncSettings struct {
	R1  int     `json:"r1"`
	R2  int     `json:"r2"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeviceSyncResponse 位置上报的设备同步应答
// 字段名与手表固件解析的 JSON 保持一致，不能随意改
type DeviceSyncResponse struct {
	Success         bool         `json:"success"`
	Message         string       `json:"message,omitempty"`
	CommandTracking bool         `json:"command_tracking"`
	RequestLocation bool         `json:"request_location"`
	StopEmergency   bool         `json:"stop_emergency"`
	AlertType       AlertKind    `json:"alertType"`
	SyncSettings    SyncSettings `json:"sync_settings"`
}

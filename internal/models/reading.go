package models

import "time"

// LocationStatus 位置历史的三级状态
type LocationStatus string

const (
	StatusSafe    LocationStatus = "SAFE"
	StatusWarning LocationStatus = "WARNING"
	StatusDanger  LocationStatus = "DANGER"
)

// VitalStatus 生命体征记录状态
type VitalStatus string

const (
	VitalNormal   VitalStatus = "NORMAL"
	VitalAbnormal VitalStatus = "ABNORMAL"
)

// EmergencyStatus 跌倒/求助记录的处理状态
type EmergencyStatus string

const (
	EmergencyDetected     EmergencyStatus = "DETECTED"
	EmergencyAcknowledged EmergencyStatus = "ACKNOWLEDGED"
	EmergencyResolved     EmergencyStatus = "RESOLVED"
)

// LocationRecord 位置历史记录（对应 locations 表）
type LocationRecord struct {
	ID          int64          `json:"id" db:"id"`
	DependentID int64          `json:"dependent_id" db:"dependent_id"`
	Latitude    float64        `json:"latitude" db:"latitude"`
	Longitude   float64        `json:"longitude" db:"longitude"`
	Battery     int            `json:"battery" db:"battery"`
	Distance    int            `json:"distance" db:"distance"` // 与安全区中心的距离（米）
	Status      LocationStatus `json:"status" db:"status"`
	Timestamp   time.Time      `json:"timestamp" db:"timestamp"`
}

// HeartRateRecord 心率历史记录（对应 heart_rate_records 表）
type HeartRateRecord struct {
	ID          int64       `json:"id" db:"id"`
	DependentID int64       `json:"dependent_id" db:"dependent_id"`
	Bpm         int         `json:"bpm" db:"bpm"`
	Status      VitalStatus `json:"status" db:"status"`
	Timestamp   time.Time   `json:"timestamp" db:"timestamp"`
}

// TemperatureRecord 体温历史记录（对应 temperature_records 表）
type TemperatureRecord struct {
	ID          int64       `json:"id" db:"id"`
	DependentID int64       `json:"dependent_id" db:"dependent_id"`
	Value       float64     `json:"value" db:"value"`
	Status      VitalStatus `json:"status" db:"status"`
	Timestamp   time.Time   `json:"timestamp" db:"timestamp"`
}

// FallRecord 跌倒事件记录（对应 fall_records 表）
// 坐标可能为空：手表在室内拿不到 GPS 时只报加速度
type FallRecord struct {
	ID          int64           `json:"id" db:"id"`
	DependentID int64           `json:"dependent_id" db:"dependent_id"`
	Latitude    *float64        `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64        `json:"longitude,omitempty" db:"longitude"`
	XAxis       float64         `json:"x_axis" db:"x_axis"`
	YAxis       float64         `json:"y_axis" db:"y_axis"`
	ZAxis       float64         `json:"z_axis" db:"z_axis"`
	Status      EmergencyStatus `json:"status" db:"status"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
}

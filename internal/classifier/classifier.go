// Package classifier 将手表的原始信号归一化为状态分类
// 纯函数、无副作用，阈值由调用方传入
package classifier

import (
	"math"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// gpsFixEpsilon 约 11 米：|lat|、|lng| 都小于该值视为 GPS 定位失败
const gpsFixEpsilon = 0.0001

// HeartRate 心率分类
// bpm <= 0 是传感器预热噪声，ok=false 表示整条上报应当忽略
func HeartRate(bpm int, th models.VitalThresholds) (models.VitalStatus, bool) {
	if bpm <= 0 {
		return "", false
	}
	if bpm < th.MinBpm || bpm > th.MaxBpm {
		return models.VitalAbnormal, true
	}
	return models.VitalNormal, true
}

// Temperature 体温分类，value <= 0 同样按噪声忽略
func Temperature(value float64, th models.VitalThresholds) (models.VitalStatus, bool) {
	if value <= 0 {
		return "", false
	}
	if value > th.MaxTemperature {
		return models.VitalAbnormal, true
	}
	return models.VitalNormal, true
}

// FallKind 跌倒信号的三种取值
type FallKind int

const (
	// FallAcknowledgedOK "-1"：检测到跌倒但本人按了"我没事"，只记录不告警
	FallAcknowledgedOK FallKind = iota
	// FallManualPress "0"：本人按下"不 OK"求助
	FallManualPress
	// FallNoResponse "1"：30 秒内无任何响应
	FallNoResponse
)

// Alertable 是否需要发出紧急通知
func (k FallKind) Alertable() bool {
	return k == FallManualPress || k == FallNoResponse
}

// ParseFallStatus 解析手表上报的 fall_status 字段
// 非法取值 ok=false，按噪声忽略
func ParseFallStatus(s string) (FallKind, bool) {
	switch s {
	case "-1":
		return FallAcknowledgedOK, true
	case "0":
		return FallManualPress, true
	case "1":
		return FallNoResponse, true
	}
	return 0, false
}

// GPSFixFailed 坐标落在 (0,0) 附近视为定位失败，整条上报丢弃
func GPSFixFailed(lat, lng float64) bool {
	return math.Abs(lat) < gpsFixEpsilon && math.Abs(lng) < gpsFixEpsilon
}

// StartupGlitch 设备冷启动毛刺：status=0 且 distance=0
// 是否放行由 engine 的确认计数策略决定
func StartupGlitch(rawStatus, distance int) bool {
	return rawStatus == 0 && distance == 0
}

// NearRadius 计算 80% 边界阈值：floor(r2 * ratio)
func NearRadius(radiusLv2 int, ratio float64) int {
	return int(math.Floor(float64(radiusLv2) * ratio))
}

// Zone 按与安全区中心的距离分级
//
//	d <= r1            → ZoneNone（安全）
//	r1 < d < nearR2    → Zone1（警戒）
//	nearR2 <= d < r2   → ZoneNear2（接近出界）
//	d >= r2            → Zone2（出界）
//
// 未配置安全区时一律视为安全
func Zone(distance int, zone *models.SafeZone, nearRatio float64) models.ZoneLevel {
	if zone == nil {
		return models.ZoneNone
	}

	r1 := zone.RadiusLv1
	r2 := zone.RadiusLv2
	nearR2 := NearRadius(r2, nearRatio)

	switch {
	case distance <= r1:
		return models.ZoneNone
	case distance < nearR2:
		return models.Zone1
	case distance < r2:
		return models.ZoneNear2
	default:
		return models.Zone2
	}
}

package models

// 默认生命体征阈值（当被监护人没有单独配置时使用）
const (
	DefaultMinBpm         = 60
	DefaultMaxBpm         = 100
	DefaultMaxTemperature = 37.5
)

// 默认安全区半径（米），设备未配置安全区时用于 sync_settings 回传
const (
	DefaultRadiusLv1 = 100
	DefaultRadiusLv2 = 500
)

// ZoneLevel 地理围栏升级等级
// 单调递增：Zone2 蕴含 NearZone2 蕴含 Zone1，用枚举而不是三个独立布尔位，
// 从结构上保证 "zone2Sent ⇒ nearZone2Sent ⇒ zone1Sent" 不变量
type ZoneLevel int

const (
	ZoneNone  ZoneLevel = iota // 安全区内，未发过任何告警
	Zone1                      // 已发过第一层出界告警
	ZoneNear2                  // 已发过 80% 边界告警
	Zone2                      // 已发过出界 SOS 告警
)

// Zone1Sent 是否已发过 ZONE_1 告警
func (z ZoneLevel) Zone1Sent() bool { return z >= Zone1 }

// NearZone2Sent 是否已发过 NEAR_ZONE_2 告警
func (z ZoneLevel) NearZone2Sent() bool { return z >= ZoneNear2 }

// Zone2Sent 是否已发过 ZONE_2_SOS 告警
func (z ZoneLevel) Zone2Sent() bool { return z >= Zone2 }

// Status 映射到历史记录使用的三级状态
func (z ZoneLevel) Status() LocationStatus {
	switch z {
	case ZoneNone:
		return StatusSafe
	case Zone1:
		return StatusWarning
	default:
		// NearZone2 与 Zone2 都按 DANGER 入库（与历史表的三级状态保持一致）
		return StatusDanger
	}
}

func (z ZoneLevel) String() string {
	switch z {
	case ZoneNone:
		return "NONE"
	case Zone1:
		return "ZONE1"
	case ZoneNear2:
		return "NEAR_ZONE2"
	case Zone2:
		return "ZONE2"
	}
	return "UNKNOWN"
}

// ZoneLevelFromFlags 从三个布尔列还原枚举
// 历史数据可能出现非单调的脏标志（旧版本逐个写布尔位），这里按最高位修复
func ZoneLevelFromFlags(zone1Sent, nearZone2Sent, zone2Sent bool) ZoneLevel {
	switch {
	case zone2Sent:
		return Zone2
	case nearZone2Sent:
		return ZoneNear2
	case zone1Sent:
		return Zone1
	default:
		return ZoneNone
	}
}

// AlertState 每个被监护人的告警标志状态
// 只允许 engine 的状态转移函数修改，其余组件只读
type AlertState struct {
	Zone                 ZoneLevel // 地理围栏升级等级（代替三个布尔 latch）
	HeartRateAlertSent   bool      // 心率异常告警 latch
	TemperatureAlertSent bool      // 体温异常告警 latch
	GpsEnabled           bool      // 紧急事件后开启持续定位，核心逻辑只置位不清除
	WaitViewLocation     bool      // 等待查看定位后才允许解除紧急模式
}

// Caregiver 监护人通知通道
type Caregiver struct {
	Name   string
	LineID string // LINE push 目标
	Phone  string
}

// SafeZone 安全区配置：内外两层半径 + 中心坐标
// 不变量：RadiusLv1 < RadiusLv2
type SafeZone struct {
	RadiusLv1 int // 内层半径（米）
	RadiusLv2 int // 外层半径（米）
	Latitude  float64
	Longitude float64
}

// VitalThresholds 生命体征阈值
type VitalThresholds struct {
	MinBpm         int
	MaxBpm         int
	MaxTemperature float64
}

// Dependent 被监护人（佩戴定位手表的人）
type Dependent struct {
	ID         int64
	FirstName  string
	LastName   string
	Caregiver  *Caregiver
	SafeZone   *SafeZone // 可能未配置
	Thresholds VitalThresholds
	State      AlertState
}

// FullName 通知文案用的姓名
func (d *Dependent) FullName() string {
	if d.LastName == "" {
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

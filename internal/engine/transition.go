package engine

import "github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"

// ZoneDecision 地理围栏状态转移的结果
type ZoneDecision struct {
	Next   models.ZoneLevel      // 新的升级等级
	Alert  models.AlertKind      // 要发出的通知，AlertNone 表示不发
	Status models.LocationStatus // 本条读数入库时的状态
}

// TransitionZone 地理围栏轨道的纯转移函数
//
// prev 是当前 latch 等级，current 是本次读数分类出的所在区域，
// lastSaved 是最近一条已持久化位置记录的状态（可能为空字符串表示没有历史）。
//
// 升级自顶向下单调：进入更高区域会同时点亮所有更低的 latch；
// 降级只清除所返回区域之上的 latch，从不动更低的。
//
// 重启防刷屏：latch 全空（ZoneNone）但历史里最近一条的状态已经等于
// 目标严重级时，说明进程重启前已经播报过 —— 静默补上 latch，不重复通知。
// 处于升级中途（已有任意 latch）时信任内存状态，不做该判断。
func TransitionZone(prev, current models.ZoneLevel, lastSaved models.LocationStatus) ZoneDecision {
	d := ZoneDecision{Next: prev, Alert: models.AlertNone, Status: current.Status()}

	switch current {
	case models.ZoneNone:
		// 回到安全区：之前发过任何告警才播报"已回家"，否则保持沉默
		if prev > models.ZoneNone {
			d.Alert = models.AlertBackSafe
		}
		d.Next = models.ZoneNone

	case models.Zone1:
		switch {
		case prev < models.Zone1:
			d.Next = models.Zone1
			if !replayedAfterRestart(prev, current, lastSaved) {
				d.Alert = models.AlertZone1
			}
		case prev > models.Zone1:
			// 从更高级别退回警戒圈，清掉上面的 latch 并播报降级
			d.Next = models.Zone1
			d.Alert = models.AlertBackToZone1
		}
		// prev == Zone1：已播报过，不动

	case models.ZoneNear2:
		switch {
		case prev < models.ZoneNear2:
			d.Next = models.ZoneNear2
			if !replayedAfterRestart(prev, current, lastSaved) {
				d.Alert = models.AlertNearZone2
			}
		case prev == models.Zone2:
			// 从出界退回 80% 边界
			d.Next = models.ZoneNear2
			d.Alert = models.AlertBackToNearZone2
		}

	case models.Zone2:
		if prev < models.Zone2 {
			d.Next = models.Zone2
			if !replayedAfterRestart(prev, current, lastSaved) {
				d.Alert = models.AlertZone2SOS
			}
		}
		// prev == Zone2：绝不重复 SOS
	}

	return d
}

// replayedAfterRestart 重启后的重放判断：
// latch 全空且历史最近状态已等于本次分类的严重级 → 已经播报过
func replayedAfterRestart(prev, current models.ZoneLevel, lastSaved models.LocationStatus) bool {
	return prev == models.ZoneNone && lastSaved == current.Status()
}

// TransitionVital 生命体征轨道：独立的双稳态 latch
// 异常且未告警 → 告警并置位；恢复且已告警 → 播报恢复并清位；其余不动
func TransitionVital(alertSent bool, status models.VitalStatus) (newAlertSent bool, fire bool, recovery bool) {
	abnormal := status == models.VitalAbnormal
	switch {
	case abnormal && !alertSent:
		return true, true, false
	case !abnormal && alertSent:
		return false, true, true
	}
	return alertSent, false, false
}

// ApplyFall 跌倒轨道：可告警的跌倒强制开启定位并把围栏 latch 拉满，
// 这样跌倒处理完恢复区域评估时从"已升级"起步，不会紧跟一条多余的出界告警
// （处理完成的 resolve 动作会再把 latch 清零）
func ApplyFall(state models.AlertState) models.AlertState {
	state.GpsEnabled = true
	state.Zone = models.Zone2
	return state
}

// ApplyResolution 外部确认处理完成：围栏 latch 清零，区域评估干净地重新开始
// 生命体征 latch 与 gpsEnabled 不受影响
func ApplyResolution(state models.AlertState) models.AlertState {
	state.Zone = models.ZoneNone
	return state
}

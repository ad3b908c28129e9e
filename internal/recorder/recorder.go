// Package recorder 决定一条分类后的读数是否写入历史表
// 策略针对"上一条已保存"的记录评估，而不是上一条收到的读数，
// 避免缓慢漂移期间把每个中间采样都存下来
package recorder

import "time"

// SaveReason 保存原因（用于日志）
type SaveReason string

const (
	ReasonFirst        SaveReason = "first"         // 该数据流的第一条记录
	ReasonStatusChange SaveReason = "status-change" // 状态变化，必须可从历史还原
	ReasonHeartbeat    SaveReason = "heartbeat"     // 超过心跳间隔，保证存活可见性
	ReasonSkip         SaveReason = ""
)

// LastSaved 上一条已保存记录的摘要
type LastSaved struct {
	Status    string
	Timestamp time.Time
}

// Policy 保存策略，按被监护人、按数据流独立评估
type Policy struct {
	Heartbeat time.Duration // 心跳间隔，默认 5 分钟
}

// ShouldSave 评估是否保存
// 跌倒/SOS 记录不走这里，紧急路径无条件入库
//   - 第一条 → 保存
//   - 状态与上一条已保存记录不同 → 保存
//   - 距上一条已保存记录超过心跳间隔 → 保存
//   - 其余 → 丢弃
func (p Policy) ShouldSave(last *LastSaved, status string, now time.Time) (bool, SaveReason) {
	if last == nil {
		return true, ReasonFirst
	}
	if last.Status != status {
		return true, ReasonStatusChange
	}
	if now.Sub(last.Timestamp) >= p.Heartbeat {
		return true, ReasonHeartbeat
	}
	return false, ReasonSkip
}

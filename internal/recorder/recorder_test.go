package recorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldSave_FirstReading(t *testing.T) {
	p := Policy{Heartbeat: 5 * time.Minute}

	save, reason := p.ShouldSave(nil, "SAFE", time.Now())
	assert.True(t, save)
	assert.Equal(t, ReasonFirst, reason)
}

func TestShouldSave_StatusChange(t *testing.T) {
	p := Policy{Heartbeat: 5 * time.Minute}
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	last := &LastSaved{Status: "SAFE", Timestamp: base}
	save, reason := p.ShouldSave(last, "WARNING", base.Add(30*time.Second))
	assert.True(t, save)
	assert.Equal(t, ReasonStatusChange, reason)
}

// SAFE/SAFE/SAFE 在 0s、30s、301s 上报，只保存第一条和跨过 5 分钟边界的那条
func TestShouldSave_HeartbeatSequence(t *testing.T) {
	p := Policy{Heartbeat: 5 * time.Minute}
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	var last *LastSaved
	saved := 0

	for _, offset := range []time.Duration{0, 30 * time.Second, 301 * time.Second} {
		now := base.Add(offset)
		if save, _ := p.ShouldSave(last, "SAFE", now); save {
			saved++
			last = &LastSaved{Status: "SAFE", Timestamp: now}
		}
	}

	assert.Equal(t, 2, saved)
	// 第二次保存是 301s 那条
	assert.Equal(t, base.Add(301*time.Second), last.Timestamp)
}

func TestShouldSave_SkipWithinHeartbeat(t *testing.T) {
	p := Policy{Heartbeat: 5 * time.Minute}
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	last := &LastSaved{Status: "DANGER", Timestamp: base}
	save, reason := p.ShouldSave(last, "DANGER", base.Add(90*time.Second))
	assert.False(t, save)
	assert.Equal(t, ReasonSkip, reason)
}

func TestShouldSave_ExactHeartbeatBoundary(t *testing.T) {
	p := Policy{Heartbeat: 5 * time.Minute}
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	last := &LastSaved{Status: "SAFE", Timestamp: base}
	save, reason := p.ShouldSave(last, "SAFE", base.Add(5*time.Minute))
	assert.True(t, save)
	assert.Equal(t, ReasonHeartbeat, reason)
}

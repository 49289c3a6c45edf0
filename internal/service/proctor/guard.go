// Package proctor 模拟面试防作弊监考：统计切屏等违规并在达到上限时中止面试。
package proctor

import (
	"time"

	"github.com/solutions/mock-interview/internal/protodef/model"
)

// Guard 违规计数规则。
type Guard struct {
	MaxViolations int
	// Debounce 距上次计入的违规不足该时长的违规不再计数。
	Debounce time.Duration
}

// Verdict 一次事件的判定结果。
type Verdict struct {
	Kind      string `json:"kind"`
	Counted   bool   `json:"counted"`
	Count     int    `json:"count"`
	Max       int    `json:"max"`
	Remaining int    `json:"remaining"`
	Warning   bool   `json:"warning"`
	Terminate bool   `json:"terminate"`
	// Status 处理后的面试状态
	Status model.SessionStatus `json:"status"`
}

// Evaluate 根据当前计数与上次违规时间判定事件，不修改任何状态。
func (g Guard) Evaluate(kind model.ProctorEventKind, count int, lastViolation, now time.Time) Verdict {
	v := Verdict{Kind: string(kind), Count: count, Max: g.MaxViolations}
	if kind.IsViolation() {
		v.Counted = lastViolation.IsZero() || now.Sub(lastViolation) >= g.Debounce
	}
	if v.Counted {
		v.Count++
		v.Terminate = v.Count >= g.MaxViolations
		v.Warning = !v.Terminate
	}
	v.Remaining = g.MaxViolations - v.Count
	if v.Remaining < 0 {
		v.Remaining = 0
	}
	return v
}

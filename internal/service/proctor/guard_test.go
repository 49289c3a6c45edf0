package proctor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/solutions/mock-interview/internal/protodef/model"
)

func TestGuardEvaluate(t *testing.T) {
	g := Guard{MaxViolations: 3, Debounce: 1500 * time.Millisecond}
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		kind  model.ProctorEventKind
		count int
		last  time.Time
		want  Verdict
	}{
		{
			name: "first violation warns",
			kind: model.ProctorEventFullscreenExit,
			want: Verdict{Kind: "fullscreen_exit", Counted: true, Count: 1, Max: 3, Remaining: 2, Warning: true},
		},
		{
			name:  "informational never counts",
			kind:  model.ProctorEventWindowFocus,
			count: 1,
			last:  now.Add(-time.Hour),
			want:  Verdict{Kind: "window_focus", Count: 1, Max: 3, Remaining: 2},
		},
		{
			name:  "within debounce window",
			kind:  model.ProctorEventWindowBlur,
			count: 1,
			last:  now.Add(-500 * time.Millisecond),
			want:  Verdict{Kind: "window_blur", Count: 1, Max: 3, Remaining: 2},
		},
		{
			name:  "exactly at debounce boundary counts",
			kind:  model.ProctorEventVisibilityHidden,
			count: 1,
			last:  now.Add(-1500 * time.Millisecond),
			want:  Verdict{Kind: "visibility_hidden", Counted: true, Count: 2, Max: 3, Remaining: 1, Warning: true},
		},
		{
			name:  "threshold terminates",
			kind:  model.ProctorEventFullscreenExit,
			count: 2,
			last:  now.Add(-time.Minute),
			want:  Verdict{Kind: "fullscreen_exit", Counted: true, Count: 3, Max: 3, Remaining: 0, Terminate: true},
		},
		{
			name:  "remaining never negative",
			kind:  model.ProctorEventFullscreenEnter,
			count: 5,
			want:  Verdict{Kind: "fullscreen_enter", Count: 5, Max: 3, Remaining: 0},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, g.Evaluate(c.kind, c.count, c.last, now))
		})
	}
}

func TestGuardWithoutDebounce(t *testing.T) {
	g := Guard{MaxViolations: 2}
	now := time.Now()
	v := g.Evaluate(model.ProctorEventWindowBlur, 1, now, now)
	assert.True(t, v.Counted)
	assert.True(t, v.Terminate)
	assert.False(t, v.Warning)
}

package task

import (
	"context"
	"sync"
	"time"

	"github.com/qiniu/x/xlog"
)

// StaleSweeper 将超时未结束的面试置为放弃。
type StaleSweeper interface {
	SweepStale(ctx context.Context, xl *xlog.Logger, before time.Time) (int, error)
}

type InterviewTask struct {
	sweeper  StaleSweeper
	staleAge time.Duration
	timeout  time.Duration
	now      func() time.Time

	// 上一轮未结束时跳过本轮
	running sync.Mutex
}

func NewInterviewTask(sweeper StaleSweeper, staleHours int) *InterviewTask {
	if staleHours <= 0 {
		staleHours = 24
	}
	return &InterviewTask{
		sweeper:  sweeper,
		staleAge: time.Duration(staleHours) * time.Hour,
		timeout:  5 * time.Minute,
		now:      time.Now,
	}
}

// TaskForModifyInterviewStatus 由 gocron 每小时调用。
func (t *InterviewTask) TaskForModifyInterviewStatus() {
	xl := xlog.New("interview-stale-task")
	if !t.running.TryLock() {
		xl.Warnf("previous stale interview sweep still running, skip")
		return
	}
	defer t.running.Unlock()

	start := t.now()
	xl.Infof("taskForModifyInterviewStatus run at %s", start.String())
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	n, err := t.sweeper.SweepStale(ctx, xl, start.Add(-t.staleAge))
	if err != nil {
		xl.Errorf("TaskForModifyInterviewStatus list stale interviews, error: %v", err)
		return
	}
	if n == 0 {
		xl.Infof("taskForModifyInterviewStatus find no interviews")
		return
	}
	xl.Infof("taskForModifyInterviewStatus abandoned %d interviews in %s", n, time.Since(start))
}

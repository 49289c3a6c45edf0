package llm

import (
	"context"
	"time"

	"github.com/solutions/mock-interview/internal/service/metrics"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 300 * time.Millisecond
)

// Retrying 为引擎调用增加超时与线性退避重试。
type Retrying struct {
	Engine   Engine
	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration
	metrics  *metrics.Metrics
}

func NewRetrying(engine Engine, attempts int, timeout time.Duration) *Retrying {
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	return &Retrying{
		Engine:   engine,
		Attempts: attempts,
		Backoff:  defaultBackoff,
		Timeout:  timeout,
		metrics:  metrics.DefaultMetrics,
	}
}

func (r *Retrying) Name() string { return r.Engine.Name() }

func (r *Retrying) GenerateQuestion(ctx context.Context, in QuestionRequest) (Question, error) {
	return retry(ctx, r, "question", func(ctx context.Context) (Question, error) {
		return r.Engine.GenerateQuestion(ctx, in)
	})
}

func (r *Retrying) EvaluateAnswer(ctx context.Context, in EvaluationRequest) (Evaluation, error) {
	return retry(ctx, r, "evaluate", func(ctx context.Context) (Evaluation, error) {
		return r.Engine.EvaluateAnswer(ctx, in)
	})
}

func (r *Retrying) Summarize(ctx context.Context, in SummaryRequest) (Summary, error) {
	return retry(ctx, r, "summary", func(ctx context.Context) (Summary, error) {
		return r.Engine.Summarize(ctx, in)
	})
}

func retry[T any](ctx context.Context, r *Retrying, op string, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if r.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		}
		start := time.Now()
		out, err := call(callCtx)
		cancel()
		if r.metrics != nil {
			r.metrics.RecordLLM(r.Engine.Name(), op, err, time.Since(start).Seconds())
		}
		if err == nil {
			return out, nil
		}
		lastErr = err
		if attempt == r.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(time.Duration(attempt) * r.Backoff):
		}
	}
	return zero, lastErr
}

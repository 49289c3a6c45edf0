package llm

import (
	"context"

	"github.com/qiniu/x/xlog"
)

// Fallback 主引擎失败时改用备用引擎，面试流程不会因模型故障中断。
type Fallback struct {
	Primary   Engine
	Secondary Engine
	xl        *xlog.Logger
}

func NewFallback(primary, secondary Engine, xl *xlog.Logger) *Fallback {
	if xl == nil {
		xl = xlog.New("llm-fallback")
	}
	return &Fallback{Primary: primary, Secondary: secondary, xl: xl}
}

func (f *Fallback) Name() string { return f.Primary.Name() }

func (f *Fallback) GenerateQuestion(ctx context.Context, in QuestionRequest) (Question, error) {
	q, err := f.Primary.GenerateQuestion(ctx, in)
	if err == nil {
		return q, nil
	}
	if ctx.Err() != nil {
		return Question{}, ctx.Err()
	}
	f.xl.Warnf("engine %s failed to generate question, falling back to %s, error %v", f.Primary.Name(), f.Secondary.Name(), err)
	return f.Secondary.GenerateQuestion(ctx, in)
}

func (f *Fallback) EvaluateAnswer(ctx context.Context, in EvaluationRequest) (Evaluation, error) {
	ev, err := f.Primary.EvaluateAnswer(ctx, in)
	if err == nil {
		return ev, nil
	}
	if ctx.Err() != nil {
		return Evaluation{}, ctx.Err()
	}
	f.xl.Warnf("engine %s failed to evaluate answer, falling back to %s, error %v", f.Primary.Name(), f.Secondary.Name(), err)
	return f.Secondary.EvaluateAnswer(ctx, in)
}

func (f *Fallback) Summarize(ctx context.Context, in SummaryRequest) (Summary, error) {
	s, err := f.Primary.Summarize(ctx, in)
	if err == nil {
		return s, nil
	}
	if ctx.Err() != nil {
		return Summary{}, ctx.Err()
	}
	f.xl.Warnf("engine %s failed to summarize, falling back to %s, error %v", f.Primary.Name(), f.Secondary.Name(), err)
	return f.Secondary.Summarize(ctx, in)
}

// Package report 面试结束后逐题评分并生成总结报告。
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/qiniu/x/xlog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/dao"
	"github.com/solutions/mock-interview/internal/service/interview"
	"github.com/solutions/mock-interview/internal/service/llm"
	"github.com/solutions/mock-interview/internal/service/metrics"
)

var (
	ErrNotReady = errors.New("report: interview is not finished")
	ErrEngine   = errors.New("report: evaluation engine failed")
)

const (
	evaluateConcurrency = 4
	// generateTimeout 单份报告生成上限，不随请求取消。
	generateTimeout = 3 * time.Minute
	// ProctoringScoreCap 因违规中止的面试总分上限。
	ProctoringScoreCap = 50
	skippedFeedback    = "This question was not answered."
)

type Service struct {
	interviews *interview.Service
	dao        dao.ReportDao
	engine     llm.Engine
	group      singleflight.Group
	metrics    *metrics.Metrics
	now        func() time.Time
	xl         *xlog.Logger
}

func NewService(interviews *interview.Service, reportDao dao.ReportDao, engine llm.Engine) *Service {
	return &Service{
		interviews: interviews,
		dao:        reportDao,
		engine:     engine,
		metrics:    metrics.DefaultMetrics,
		now:        time.Now,
		xl:         xlog.New("report-service"),
	}
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Get 返回已缓存的报告，没有时生成并保存。同一面试并发请求只生成一次。
func (s *Service) Get(ctx context.Context, xl *xlog.Logger, userID, sessionID string) (*model.ReportDo, error) {
	if xl == nil {
		xl = s.xl
	}
	session, err := s.interviews.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	cached, err := s.dao.Select(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}
	if !Reportable(session.Status) {
		return nil, ErrNotReady
	}
	v, err, _ := s.group.Do(sessionID, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generateTimeout)
		defer cancel()
		if cached, err := s.dao.Select(genCtx, sessionID); err != nil || cached != nil {
			return cached, err
		}
		report, err := s.Generate(genCtx, xl, session)
		if err != nil {
			return nil, err
		}
		if err := s.dao.Upsert(genCtx, report); err != nil {
			xl.Errorf("save report for interview %s failed, error %v", sessionID, err)
			return nil, err
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.ReportDo), nil
}

// ListByUser 用户已生成的全部报告。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.ReportDo, error) {
	return s.dao.ListByUser(ctx, userID)
}

// Reportable 只有完成或被中止的面试可以生成报告。
func Reportable(status model.SessionStatus) bool {
	return status == model.SessionStatusCompleted || status == model.SessionStatusTerminated
}

// Generate 评估每道已回答的问题并汇总，不读写缓存。
func (s *Service) Generate(ctx context.Context, xl *xlog.Logger, session *model.InterviewSessionDo) (*model.ReportDo, error) {
	if xl == nil {
		xl = s.xl
	}
	items := make([]model.ReportItemDo, len(session.Turns))
	evaluations := make([]llm.Evaluation, len(session.Turns))
	skipped := make([]bool, len(session.Turns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(evaluateConcurrency)
	for i, turn := range session.Turns {
		items[i] = model.ReportItemDo{
			Index:        turn.Index,
			Question:     turn.Question,
			Answer:       turn.Answer,
			AnswerMode:   string(turn.AnswerMode),
			Strengths:    []string{},
			Improvements: []string{},
		}
		if strings.TrimSpace(turn.Answer) == "" {
			items[i].AnswerMode = string(model.AnswerModeSkipped)
			items[i].Feedback = skippedFeedback
			skipped[i] = true
			continue
		}
		i, turn := i, turn
		g.Go(func() error {
			ev, err := s.engine.EvaluateAnswer(gctx, llm.EvaluationRequest{
				Role:            session.Role,
				ExperienceYears: session.ExperienceYears,
				Question:        turn.Question,
				Answer:          turn.Answer,
			})
			if err != nil {
				return fmt.Errorf("evaluate answer %d: %w", turn.Index, err)
			}
			evaluations[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		xl.Errorf("evaluate interview %s failed, error %v", session.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	evaluated := make([]llm.EvaluatedQA, 0, len(items))
	answered, total := 0, 0
	for i := range items {
		if !skipped[i] {
			ev := evaluations[i]
			items[i].Score = ev.Score
			items[i].Feedback = ev.Feedback
			items[i].Strengths = nonNil(ev.Strengths)
			items[i].Improvements = nonNil(ev.Improvements)
			answered++
			total += ev.Score
		}
		evaluated = append(evaluated, llm.EvaluatedQA{
			Question: items[i].Question,
			Answer:   items[i].Answer,
			Score:    items[i].Score,
			Feedback: items[i].Feedback,
		})
	}

	terminated := session.TerminationReason == model.TerminationReasonProctoring
	summary, err := s.engine.Summarize(ctx, llm.SummaryRequest{
		Role:            session.Role,
		ExperienceYears: session.ExperienceYears,
		Items:           evaluated,
		Terminated:      terminated,
	})
	if err != nil {
		xl.Errorf("summarize interview %s failed, error %v", session.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	score := summary.OverallScore
	if score == 0 && answered > 0 && len(items) > 0 {
		score = int(math.Round(float64(total) / float64(len(items)) * 10))
	}
	if score > llm.MaxOverallScore {
		score = llm.MaxOverallScore
	}
	if score < 0 {
		score = 0
	}
	if terminated && score > ProctoringScoreCap {
		score = ProctoringScoreCap
	}
	engine := summary.Engine
	if engine == "" {
		engine = s.engine.Name()
	}

	report := &model.ReportDo{
		ID:                session.ID,
		UserID:            session.UserID,
		Role:              session.Role,
		SessionStatus:     session.Status,
		OverallScore:      score,
		Summary:           summary.Summary,
		Strengths:         nonNil(summary.Strengths),
		Improvements:      nonNil(summary.Improvements),
		Items:             items,
		ViolationCount:    session.ViolationCount,
		TerminationReason: session.TerminationReason,
		Engine:            engine,
		GeneratedTime:     s.now(),
	}
	s.metrics.ReportsGenerated.WithLabelValues(string(session.Status)).Inc()
	xl.Infof("report for interview %s generated, score %d, %d/%d answered", session.ID, score, answered, len(items))
	return report, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

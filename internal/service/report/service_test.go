package report

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/dao/daotest"
	"github.com/solutions/mock-interview/internal/service/interview"
	"github.com/solutions/mock-interview/internal/service/llm"
	"github.com/solutions/mock-interview/internal/service/metrics"
)

// scriptedEngine 每题固定得分，总结分数可指定。
type scriptedEngine struct {
	score        int
	overall      int
	evaluateErr  error
	evaluations  int32
	summaries    int32
	lastTerminal bool
	delay        time.Duration
	mu           sync.Mutex
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) GenerateQuestion(ctx context.Context, in llm.QuestionRequest) (llm.Question, error) {
	return llm.Question{Text: "q"}, nil
}

func (e *scriptedEngine) EvaluateAnswer(ctx context.Context, in llm.EvaluationRequest) (llm.Evaluation, error) {
	atomic.AddInt32(&e.evaluations, 1)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if err := ctx.Err(); err != nil {
		return llm.Evaluation{}, err
	}
	if e.evaluateErr != nil {
		return llm.Evaluation{}, e.evaluateErr
	}
	return llm.Evaluation{Score: e.score, Feedback: "ok: " + in.Answer}, nil
}

func (e *scriptedEngine) Summarize(ctx context.Context, in llm.SummaryRequest) (llm.Summary, error) {
	atomic.AddInt32(&e.summaries, 1)
	e.mu.Lock()
	e.lastTerminal = in.Terminated
	e.mu.Unlock()
	return llm.Summary{OverallScore: e.overall, Summary: "done", Engine: e.Name()}, nil
}

type fixture struct {
	svc      *Service
	sessions *daotest.InterviewDao
	reports  *daotest.ReportDao
	engine   *scriptedEngine
}

func newFixture(t *testing.T, engine *scriptedEngine) *fixture {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	f := &fixture{
		sessions: daotest.NewInterviewDao(),
		reports:  daotest.NewReportDao(),
		engine:   engine,
	}
	interviews := interview.NewService(f.sessions, engine, nil, utils.InterviewConfig{QuestionCount: 3, AnswerMaxLength: 100}).WithMetrics(m)
	f.svc = NewService(interviews, f.reports, engine).WithMetrics(m)
	return f
}

func session(status model.SessionStatus, reason string, answers ...string) model.InterviewSessionDo {
	s := model.InterviewSessionDo{
		ID:                "s1",
		UserID:            "u1",
		Role:              "Backend Engineer",
		QuestionCount:     len(answers),
		Status:            status,
		TerminationReason: reason,
		CreatedTime:       time.Now(),
	}
	for i, a := range answers {
		turn := model.TurnDo{Index: i, Question: "question", Answer: a, AskedTime: time.Now()}
		if a != "" {
			turn.AnswerMode = model.AnswerModeTyped
			turn.AnsweredTime = time.Now()
		}
		s.Turns = append(s.Turns, turn)
	}
	return s
}

func TestSkippedTurnsScoreZeroWithoutEngineCall(t *testing.T) {
	f := newFixture(t, &scriptedEngine{score: 8, overall: 70})
	f.sessions.Put(session(model.SessionStatusCompleted, "", "first answer", "", "third answer"))

	r, err := f.svc.Get(context.Background(), nil, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, r.Items, 3)
	assert.Equal(t, int32(2), f.engine.evaluations)
	assert.Equal(t, 8, r.Items[0].Score)
	assert.Equal(t, "ok: first answer", r.Items[0].Feedback)
	assert.Equal(t, 0, r.Items[1].Score)
	assert.Equal(t, "skipped", r.Items[1].AnswerMode)
	assert.Equal(t, skippedFeedback, r.Items[1].Feedback)
	assert.Equal(t, 70, r.OverallScore)
	assert.Equal(t, "scripted", r.Engine)
	assert.Equal(t, model.SessionStatusCompleted, r.SessionStatus)
}

func TestOverallScoreFallsBackToMean(t *testing.T) {
	f := newFixture(t, &scriptedEngine{score: 6})
	f.sessions.Put(session(model.SessionStatusCompleted, "", "a", "b", ""))

	r, err := f.svc.Get(context.Background(), nil, "u1", "s1")
	require.NoError(t, err)
	// (6+6+0)/3*10
	assert.Equal(t, 40, r.OverallScore)
}

func TestProctoringTerminationCapsScore(t *testing.T) {
	f := newFixture(t, &scriptedEngine{score: 10, overall: 95})
	s := session(model.SessionStatusTerminated, model.TerminationReasonProctoring, "a", "b")
	s.ViolationCount = 3
	f.sessions.Put(s)

	r, err := f.svc.Get(context.Background(), nil, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, ProctoringScoreCap, r.OverallScore)
	assert.Equal(t, 3, r.ViolationCount)
	assert.Equal(t, model.TerminationReasonProctoring, r.TerminationReason)
	assert.True(t, f.engine.lastTerminal)
}

func TestEndedByUserIsNotCapped(t *testing.T) {
	f := newFixture(t, &scriptedEngine{score: 10, overall: 95})
	f.sessions.Put(session(model.SessionStatusTerminated, model.TerminationReasonEndedByUser, "a"))

	r, err := f.svc.Get(context.Background(), nil, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 95, r.OverallScore)
	assert.False(t, f.engine.lastTerminal)
}

func TestReportIsCached(t *testing.T) {
	f := newFixture(t, &scriptedEngine{score: 5, overall: 50})
	f.sessions.Put(session(model.SessionStatusCompleted, "", "a", "b"))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Get(context.Background(), nil, "u1", "s1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err := f.svc.Get(context.Background(), nil, "u1", "s1")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.engine.summaries))
	assert.Equal(t, 1, f.reports.Upserts)

	list, err := f.svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReportRules(t *testing.T) {
	f := newFixture(t, &scriptedEngine{score: 5})
	f.sessions.Put(session(model.SessionStatusInProgress, "", "a", ""))
	_, err := f.svc.Get(context.Background(), nil, "u1", "s1")
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = f.svc.Get(context.Background(), nil, "other", "s1")
	assert.ErrorIs(t, err, interview.ErrNotFound)

	f.sessions.Put(session(model.SessionStatusAbandoned, model.TerminationReasonStale, "a"))
	_, err = f.svc.Get(context.Background(), nil, "u1", "s1")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEngineErrorIsNotCached(t *testing.T) {
	f := newFixture(t, &scriptedEngine{score: 5, evaluateErr: errors.New("boom")})
	f.sessions.Put(session(model.SessionStatusCompleted, "", "a"))

	_, err := f.svc.Get(context.Background(), nil, "u1", "s1")
	assert.ErrorIs(t, err, ErrEngine)
	assert.Equal(t, 0, f.reports.Upserts)
}

func TestBankEngineReport(t *testing.T) {
	f := newFixture(t, &scriptedEngine{})
	f.svc.engine = llm.NewBankEngine()
	f.sessions.Put(session(model.SessionStatusCompleted, "",
		"For example, in my last project I built a rate limiter because the API was overloaded, the token bucket design kept latency low.",
		""))

	r, err := f.svc.Get(context.Background(), nil, "u1", "s1")
	require.NoError(t, err)
	assert.Greater(t, r.Items[0].Score, 0)
	assert.Equal(t, 0, r.Items[1].Score)
	assert.Greater(t, r.OverallScore, 0)
	assert.Equal(t, llm.EngineBank, r.Engine)
}

func TestCancelledCallerDoesNotFailWaiters(t *testing.T) {
	f := newFixture(t, &scriptedEngine{score: 70, overall: 70, delay: 300 * time.Millisecond})
	f.sessions.Put(session(model.SessionStatusCompleted, "", "an answer"))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Get(ctx, nil, "u1", "s1")
		first <- err
	}()
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&f.engine.evaluations) == 1
	}, time.Second, 5*time.Millisecond)

	second := make(chan *model.ReportDo, 1)
	go func() {
		report, err := f.svc.Get(context.Background(), nil, "u1", "s1")
		assert.NoError(t, err)
		second <- report
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	report := <-second
	require.NotNil(t, report)
	assert.Equal(t, 70, report.OverallScore)
	assert.NoError(t, <-first)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.engine.evaluations))
}

package interview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/protodef/form"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/dao/daotest"
	"github.com/solutions/mock-interview/internal/service/events"
	"github.com/solutions/mock-interview/internal/service/llm"
	"github.com/solutions/mock-interview/internal/service/metrics"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

// countingEngine 记录出题次数，可注入失败。
type countingEngine struct {
	*llm.BankEngine
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (c *countingEngine) GenerateQuestion(ctx context.Context, in llm.QuestionRequest) (llm.Question, error) {
	c.mu.Lock()
	c.calls++
	err := c.err
	c.mu.Unlock()
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if err != nil {
		return llm.Question{}, err
	}
	return c.BankEngine.GenerateQuestion(ctx, in)
}

type fixture struct {
	svc       *Service
	dao       *daotest.InterviewDao
	engine    *countingEngine
	publisher *recordingPublisher
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		dao:       daotest.NewInterviewDao(),
		engine:    &countingEngine{BankEngine: llm.NewBankEngine()},
		publisher: &recordingPublisher{},
		metrics:   metrics.NewMetrics(prometheus.NewRegistry()),
	}
	conf := utils.InterviewConfig{QuestionCount: 5, AnswerMaxLength: 20, StaleHours: 24}
	f.svc = NewService(f.dao, f.engine, f.publisher, conf).WithMetrics(f.metrics)
	return f
}

func (f *fixture) started(t *testing.T, userID string, count int) *model.InterviewSessionDo {
	t.Helper()
	ctx := context.Background()
	s, err := f.svc.Create(ctx, nil, userID, &form.InterviewCreateForm{Role: "Backend Engineer", QuestionCount: count}, nil)
	require.NoError(t, err)
	s, err = f.svc.Start(ctx, nil, userID, s.ID)
	require.NoError(t, err)
	return s
}

func TestCreateUsesDefaultsAndResume(t *testing.T) {
	f := newFixture(t)
	resume := &model.ResumeDo{
		Summary:    "Five years building payment APIs",
		Experience: []model.ExperienceDo{{Company: "Acme", Title: "Engineer", Description: "Go services"}},
	}
	s, err := f.svc.Create(context.Background(), nil, "u1", &form.InterviewCreateForm{
		Role:   " Backend Engineer ",
		Skills: []string{"Go", " ", "MongoDB"},
	}, resume)
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "Backend Engineer", s.Role)
	assert.Equal(t, 5, s.QuestionCount)
	assert.Equal(t, []string{"Go", "MongoDB"}, s.Skills)
	assert.Equal(t, model.SessionStatusCreated, s.Status)
	assert.Contains(t, s.ResumeSummary, "payment APIs")
	assert.Contains(t, s.ResumeSummary, "Engineer at Acme")
	assert.Equal(t, []string{events.TypeInterviewCreated}, f.publisher.types())
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.InterviewTransitions.WithLabelValues("created")))
}

func TestStartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	s := f.started(t, "u1", 2)
	assert.Equal(t, model.SessionStatusInProgress, s.Status)
	startedAt := s.StartedTime

	again, err := f.svc.Start(context.Background(), nil, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, startedAt, again.StartedTime)
	assert.Equal(t, []string{events.TypeInterviewCreated, events.TypeInterviewStarted}, f.publisher.types())
}

func TestForeignSessionLooksMissing(t *testing.T) {
	f := newFixture(t)
	s := f.started(t, "owner", 2)
	ctx := context.Background()

	_, err := f.svc.Get(ctx, "intruder", s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = f.svc.NextQuestion(ctx, nil, "intruder", s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.End(ctx, nil, "intruder", s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(ctx, "owner", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNextQuestionRequiresInProgress(t *testing.T) {
	f := newFixture(t)
	s, err := f.svc.Create(context.Background(), nil, "u1", &form.InterviewCreateForm{Role: "Dev", QuestionCount: 1}, nil)
	require.NoError(t, err)
	_, _, err = f.svc.NextQuestion(context.Background(), nil, "u1", s.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFlowCompletesAfterQuestionCount(t *testing.T) {
	f := newFixture(t)
	s := f.started(t, "u1", 2)
	ctx := context.Background()

	turn, _, err := f.svc.NextQuestion(ctx, nil, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, turn.Index)
	assert.NotEmpty(t, turn.Question)
	assert.Equal(t, llm.EngineBank, turn.Engine)

	// 未回答时重复请求返回同一题
	again, _, err := f.svc.NextQuestion(ctx, nil, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, turn.Question, again.Question)
	assert.Equal(t, 1, f.engine.calls)

	s, err = f.svc.SubmitAnswer(ctx, nil, "u1", s.ID, 0, "I like building reliable systems", model.AnswerModeSpoken)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusInProgress, s.Status)
	assert.Equal(t, model.AnswerModeSpoken, s.Turns[0].AnswerMode)

	turn, _, err = f.svc.NextQuestion(ctx, nil, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, turn.Index)

	s, err = f.svc.SubmitAnswer(ctx, nil, "u1", s.ID, 1, "", model.AnswerModeTyped)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, s.Status)
	assert.Equal(t, model.AnswerModeSkipped, s.Turns[1].AnswerMode)
	assert.False(t, s.EndedTime.IsZero())
	assert.Contains(t, f.publisher.types(), events.TypeInterviewCompleted)

	_, _, err = f.svc.NextQuestion(ctx, nil, "u1", s.ID)
	assert.ErrorIs(t, err, ErrQuestionLimit)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.QuestionsGenerated.WithLabelValues(llm.EngineBank)))
}

func TestQuestionLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.started(t, "u1", 1)

	turn, _, err := f.svc.NextQuestion(ctx, nil, "u1", s.ID)
	require.NoError(t, err)
	s, err = f.svc.SubmitAnswer(ctx, nil, "u1", s.ID, turn.Index, "my answer", model.AnswerModeSpoken)
	require.NoError(t, err)
	require.Equal(t, model.SessionStatusCompleted, s.Status)

	_, _, err = f.svc.NextQuestion(ctx, nil, "u1", s.ID)
	assert.ErrorIs(t, err, ErrQuestionLimit)
	assert.Equal(t, 1, f.engine.calls)
}

func TestSubmitAnswerRules(t *testing.T) {
	f := newFixture(t)
	s := f.started(t, "u1", 3)
	ctx := context.Background()

	_, err := f.svc.SubmitAnswer(ctx, nil, "u1", s.ID, 0, "no question yet", model.AnswerModeTyped)
	assert.ErrorIs(t, err, ErrTurnMismatch)

	_, _, err = f.svc.NextQuestion(ctx, nil, "u1", s.ID)
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, nil, "u1", s.ID, 1, "wrong index", model.AnswerModeTyped)
	assert.ErrorIs(t, err, ErrTurnMismatch)

	long := strings.Repeat("字", 50)
	s, err = f.svc.SubmitAnswer(ctx, nil, "u1", s.ID, 0, "  "+long+"  ", "")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("字", 20), s.Turns[0].Answer)
	assert.Equal(t, model.AnswerModeTyped, s.Turns[0].AnswerMode)

	_, err = f.svc.SubmitAnswer(ctx, nil, "u1", s.ID, 0, "again", model.AnswerModeTyped)
	assert.ErrorIs(t, err, ErrTurnMismatch)
}

func TestEngineFailureDoesNotAppendTurn(t *testing.T) {
	f := newFixture(t)
	s := f.started(t, "u1", 2)
	f.engine.err = errors.New("quota exceeded")

	_, _, err := f.svc.NextQuestion(context.Background(), nil, "u1", s.ID)
	assert.ErrorIs(t, err, ErrEngine)

	got, err := f.svc.Get(context.Background(), "u1", s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Turns)
}

func TestEndAndTerminate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s := f.started(t, "u1", 3)
	s, err := f.svc.End(ctx, nil, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusTerminated, s.Status)
	assert.Equal(t, model.TerminationReasonEndedByUser, s.TerminationReason)

	_, err = f.svc.End(ctx, nil, "u1", s.ID)
	assert.ErrorIs(t, err, ErrSessionTerminated)
	_, _, err = f.svc.NextQuestion(ctx, nil, "u1", s.ID)
	assert.ErrorIs(t, err, ErrSessionTerminated)

	other := f.started(t, "u2", 3)
	other, err = f.svc.Terminate(ctx, nil, other.ID, model.TerminationReasonProctoring)
	require.NoError(t, err)
	assert.Equal(t, model.TerminationReasonProctoring, other.TerminationReason)
	assert.Contains(t, f.publisher.types(), events.TypeInterviewTerminated)
}

func TestConcurrentNextQuestionAsksOnce(t *testing.T) {
	f := newFixture(t)
	f.engine.delay = 50 * time.Millisecond
	s := f.started(t, "u1", 3)

	var wg sync.WaitGroup
	questions := make([]string, 8)
	for i := range questions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			turn, _, err := f.svc.NextQuestion(context.Background(), nil, "u1", s.ID)
			if err == nil {
				questions[i] = turn.Question
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.engine.calls)
	for _, q := range questions {
		assert.Equal(t, questions[0], q)
	}
	got, err := f.svc.Get(context.Background(), "u1", s.ID)
	require.NoError(t, err)
	assert.Len(t, got.Turns, 1)
	assert.Equal(t, 0, f.svc.locks.size())
}

func TestSweepStale(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.dao.Put(model.InterviewSessionDo{ID: "old", UserID: "u1", Status: model.SessionStatusInProgress, CreatedTime: now.Add(-48 * time.Hour)})
	f.dao.Put(model.InterviewSessionDo{ID: "fresh", UserID: "u1", Status: model.SessionStatusCreated, CreatedTime: now})
	f.dao.Put(model.InterviewSessionDo{ID: "done", UserID: "u1", Status: model.SessionStatusCompleted, CreatedTime: now.Add(-48 * time.Hour)})

	n, err := f.svc.SweepStale(context.Background(), nil, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	old, err := f.svc.Get(context.Background(), "u1", "old")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusAbandoned, old.Status)
	assert.Equal(t, model.TerminationReasonStale, old.TerminationReason)

	fresh, err := f.svc.Get(context.Background(), "u1", "fresh")
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCreated, fresh.Status)
	assert.Equal(t, []string{events.TypeInterviewAbandoned}, f.publisher.types())
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		f.dao.Put(model.InterviewSessionDo{ID: id, UserID: "u1", CreatedTime: now.Add(time.Duration(i) * time.Minute)})
	}
	list, total, err := f.svc.List(context.Background(), "u1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
}

func TestSessionNotBlockedWhileGeneratingQuestion(t *testing.T) {
	f := newFixture(t)
	f.engine.delay = 500 * time.Millisecond
	s := f.started(t, "u1", 3)
	ctx := context.Background()

	type result struct {
		turn *model.TurnDo
		err  error
	}
	done := make(chan result, 1)
	go func() {
		turn, _, err := f.svc.NextQuestion(ctx, nil, "u1", s.ID)
		done <- result{turn, err}
	}()
	require.Eventually(t, func() bool {
		f.engine.mu.Lock()
		defer f.engine.mu.Unlock()
		return f.engine.calls == 1
	}, time.Second, 5*time.Millisecond)

	begin := time.Now()
	ended, err := f.svc.End(ctx, nil, "u1", s.ID)
	require.NoError(t, err)
	assert.Less(t, time.Since(begin), 200*time.Millisecond)
	assert.Equal(t, model.SessionStatusTerminated, ended.Status)

	res := <-done
	assert.ErrorIs(t, res.err, ErrSessionTerminated)
	assert.Nil(t, res.turn)
	got, err := f.svc.Get(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Turns)
}

// blockingPublisher 模拟不可用的 broker，发布阻塞到 release 关闭。
type blockingPublisher struct {
	release chan struct{}
	calls   chan string
}

func (b *blockingPublisher) Publish(ctx context.Context, event events.Event) error {
	b.calls <- event.Type
	<-b.release
	return nil
}

func TestPublishDoesNotHoldSessionLock(t *testing.T) {
	dao := daotest.NewInterviewDao()
	publisher := &blockingPublisher{release: make(chan struct{}), calls: make(chan string, 4)}
	svc := NewService(dao, llm.NewBankEngine(), publisher, utils.InterviewConfig{QuestionCount: 3}).
		WithMetrics(metrics.NewMetrics(prometheus.NewRegistry()))
	dao.Put(model.InterviewSessionDo{ID: "s1", UserID: "u1", Status: model.SessionStatusCreated, QuestionCount: 3, CreatedTime: time.Now()})
	ctx := context.Background()

	started := make(chan error, 1)
	go func() {
		_, err := svc.Start(ctx, nil, "u1", "s1")
		started <- err
	}()
	assert.Equal(t, events.TypeInterviewStarted, <-publisher.calls)

	turn, _, err := svc.NextQuestion(ctx, nil, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, turn.Index)

	close(publisher.release)
	require.NoError(t, <-started)
}

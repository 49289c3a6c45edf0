// Package interview 模拟面试流程：出题、记录回答、状态流转。
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qiniu/x/xlog"
	"golang.org/x/sync/singleflight"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/protodef/form"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/dao"
	"github.com/solutions/mock-interview/internal/service/events"
	"github.com/solutions/mock-interview/internal/service/llm"
	"github.com/solutions/mock-interview/internal/service/metrics"
)

var (
	ErrNotFound          = errors.New("interview: not found")
	ErrInvalidTransition = errors.New("interview: operation not allowed in current status")
	ErrQuestionLimit     = errors.New("interview: all questions have been asked")
	ErrTurnMismatch      = errors.New("interview: answer does not match the open question")
	ErrSessionTerminated = errors.New("interview: session has been terminated")
	ErrEngine            = errors.New("interview: question engine failed")

	// ErrUnchanged Mutate 的回调返回该错误时不保存。
	ErrUnchanged = errors.New("interview: unchanged")
)

const (
	resumeSummaryMaxLen = 1500
	// questionTimeout 单题生成上限，含引擎重试。
	questionTimeout = 2 * time.Minute
)

type Service struct {
	dao       dao.InterviewDao
	engine    llm.Engine
	publisher events.Publisher
	conf      utils.InterviewConfig
	locks     *KeyedMutex
	questions singleflight.Group
	metrics   *metrics.Metrics
	now       func() time.Time
	xl        *xlog.Logger
}

func NewService(interviewDao dao.InterviewDao, engine llm.Engine, publisher events.Publisher, conf utils.InterviewConfig) *Service {
	return &Service{
		dao:       interviewDao,
		engine:    engine,
		publisher: publisher,
		conf:      conf,
		locks:     NewKeyedMutex(),
		metrics:   metrics.DefaultMetrics,
		now:       time.Now,
		xl:        xlog.New("interview-service"),
	}
}

// WithMetrics 替换指标实例，测试中使用独立 registry。
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Create 创建面试，调用方需已补全并校验参数。
func (s *Service) Create(ctx context.Context, xl *xlog.Logger, userID string, args *form.InterviewCreateForm, resume *model.ResumeDo) (*model.InterviewSessionDo, error) {
	if xl == nil {
		xl = s.xl
	}
	count := args.QuestionCount
	if count <= 0 {
		count = s.conf.QuestionCount
	}
	if count > form.MaxQuestionCount {
		count = form.MaxQuestionCount
	}
	skills := make([]string, 0, len(args.Skills))
	for _, skill := range args.Skills {
		if skill = strings.TrimSpace(skill); skill != "" {
			skills = append(skills, skill)
		}
	}
	session := &model.InterviewSessionDo{
		UserID:          userID,
		Role:            strings.TrimSpace(args.Role),
		ExperienceYears: args.ExperienceYears,
		Skills:          skills,
		ResumeSummary:   resumeSummary(resume),
		QuestionCount:   count,
		Status:          model.SessionStatusCreated,
		Turns:           []model.TurnDo{},
		CreatedTime:     s.now(),
	}
	if err := s.dao.Insert(ctx, session); err != nil {
		xl.Errorf("create interview for user %s failed, error %v", userID, err)
		return nil, err
	}
	s.metrics.InterviewTransitions.WithLabelValues(string(model.SessionStatusCreated)).Inc()
	s.publish(ctx, xl, events.TypeInterviewCreated, session, map[string]interface{}{
		"role":          session.Role,
		"questionCount": session.QuestionCount,
	})
	return session, nil
}

// Get 获取面试，非本人的面试视为不存在。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.InterviewSessionDo, error) {
	return s.load(ctx, userID, id)
}

func (s *Service) List(ctx context.Context, userID string, pageNum, pageSize int) ([]model.InterviewSessionDo, int, error) {
	list, total, err := s.dao.ListByUser(ctx, userID, int64(pageNum), int64(pageSize))
	if err != nil {
		return nil, 0, err
	}
	return list, int(total), nil
}

// ListAll 按创建时间从早到晚列出用户的全部面试。
func (s *Service) ListAll(ctx context.Context, userID string) ([]model.InterviewSessionDo, error) {
	return s.dao.ListAllByUser(ctx, userID)
}

// Start created -> in_progress，已开始时直接返回。
func (s *Service) Start(ctx context.Context, xl *xlog.Logger, userID, id string) (*model.InterviewSessionDo, error) {
	session, started, err := s.start(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if started {
		s.publish(ctx, xl, events.TypeInterviewStarted, session, nil)
	}
	return session, nil
}

func (s *Service) start(ctx context.Context, userID, id string) (*model.InterviewSessionDo, bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, false, err
	}
	switch session.Status {
	case model.SessionStatusInProgress:
		return session, false, nil
	case model.SessionStatusCreated:
	default:
		return nil, false, StateError(session)
	}
	now := s.now()
	session.Status = model.SessionStatusInProgress
	session.StartedTime = now
	session.UpdatedTime = now
	if err := s.dao.Update(ctx, session); err != nil {
		return nil, false, err
	}
	s.metrics.InterviewTransitions.WithLabelValues(string(model.SessionStatusInProgress)).Inc()
	return session, true, nil
}

// NextQuestion 返回当前未回答的问题，没有时请求引擎出下一题。
// 出题期间不持有面试锁，同一题的并发请求只调用一次引擎。
func (s *Service) NextQuestion(ctx context.Context, xl *xlog.Logger, userID, id string) (*model.TurnDo, *model.InterviewSessionDo, error) {
	if xl == nil {
		xl = s.xl
	}
	turn, session, req, err := s.pendingQuestion(ctx, userID, id)
	if err != nil || turn != nil {
		return turn, session, err
	}

	question, err := s.generateQuestion(ctx, id, req)
	if err != nil {
		xl.Errorf("generate question %d for interview %s failed, error %v", req.Index, id, err)
		return nil, nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	return s.appendQuestion(ctx, xl, userID, id, req.Index, question)
}

// pendingQuestion 在锁内检查状态，有未回答的问题时直接返回，否则返回出题请求。
func (s *Service) pendingQuestion(ctx context.Context, userID, id string) (*model.TurnDo, *model.InterviewSessionDo, llm.QuestionRequest, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	var req llm.QuestionRequest
	session, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, nil, req, err
	}
	if err := askable(session); err != nil {
		return nil, nil, req, err
	}
	if open := session.OpenTurn(); open != nil {
		turn := *open
		return &turn, session, req, nil
	}

	req = llm.QuestionRequest{
		Role:            session.Role,
		ExperienceYears: session.ExperienceYears,
		Skills:          session.Skills,
		ResumeSummary:   session.ResumeSummary,
		Index:           len(session.Turns),
		Total:           session.QuestionCount,
		Previous:        make([]llm.QA, 0, len(session.Turns)),
	}
	for _, t := range session.Turns {
		req.Previous = append(req.Previous, llm.QA{Question: t.Question, Answer: t.Answer})
	}
	return nil, session, req, nil
}

func (s *Service) generateQuestion(ctx context.Context, id string, req llm.QuestionRequest) (llm.Question, error) {
	key := fmt.Sprintf("%s/%d", id, req.Index)
	v, err, _ := s.questions.Do(key, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), questionTimeout)
		defer cancel()
		return s.engine.GenerateQuestion(genCtx, req)
	})
	if err != nil {
		return llm.Question{}, err
	}
	return v.(llm.Question), nil
}

// appendQuestion 重新加锁读取面试，状态与题号未变时追加新题。
func (s *Service) appendQuestion(ctx context.Context, xl *xlog.Logger, userID, id string, index int, question llm.Question) (*model.TurnDo, *model.InterviewSessionDo, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	if err := askable(session); err != nil {
		xl.Infof("interview %s changed to %s while generating question %d, discard it", id, session.Status, index)
		return nil, nil, err
	}
	// 并发请求已追加同一题
	if open := session.OpenTurn(); open != nil {
		turn := *open
		return &turn, session, nil
	}
	if len(session.Turns) != index {
		return nil, nil, ErrTurnMismatch
	}

	engine := question.Engine
	if engine == "" {
		engine = s.engine.Name()
	}
	now := s.now()
	session.Turns = append(session.Turns, model.TurnDo{
		Index:     index,
		Question:  question.Text,
		Topic:     question.Topic,
		Engine:    engine,
		AskedTime: now,
	})
	session.UpdatedTime = now
	if err := s.dao.Update(ctx, session); err != nil {
		return nil, nil, err
	}
	s.metrics.QuestionsGenerated.WithLabelValues(engine).Inc()
	turn := session.Turns[len(session.Turns)-1]
	return &turn, session, nil
}

// askable 进行中且未出完题的面试可以出题，全部回答后完成的面试返回 ErrQuestionLimit。
func askable(session *model.InterviewSessionDo) error {
	switch session.Status {
	case model.SessionStatusInProgress:
		if session.OpenTurn() == nil && len(session.Turns) >= session.QuestionCount {
			return ErrQuestionLimit
		}
		return nil
	case model.SessionStatusCompleted:
		if session.AnsweredCount() >= session.QuestionCount {
			return ErrQuestionLimit
		}
	}
	return StateError(session)
}

// SubmitAnswer 记录当前问题的回答，最后一题回答后面试完成。
func (s *Service) SubmitAnswer(ctx context.Context, xl *xlog.Logger, userID, id string, index int, answer string, mode model.AnswerMode) (*model.InterviewSessionDo, error) {
	session, completed, err := s.submitAnswer(ctx, userID, id, index, answer, mode)
	if err != nil {
		return nil, err
	}
	if completed {
		s.publish(ctx, xl, events.TypeInterviewCompleted, session, map[string]interface{}{
			"answered": session.AnsweredCount(),
		})
	}
	return session, nil
}

func (s *Service) submitAnswer(ctx context.Context, userID, id string, index int, answer string, mode model.AnswerMode) (*model.InterviewSessionDo, bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, false, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, false, StateError(session)
	}
	open := session.OpenTurn()
	if open == nil || open.Index != index {
		return nil, false, ErrTurnMismatch
	}

	answer = utils.TruncateRunes(strings.TrimSpace(answer), s.conf.AnswerMaxLength)
	switch {
	case answer == "":
		mode = model.AnswerModeSkipped
	case mode == "" || mode == model.AnswerModeSkipped:
		mode = model.AnswerModeTyped
	}
	now := s.now()
	open.Answer = answer
	open.AnswerMode = mode
	open.AnsweredTime = now
	session.UpdatedTime = now

	completed := session.AnsweredCount() >= session.QuestionCount
	if completed {
		session.Status = model.SessionStatusCompleted
		session.EndedTime = now
	}
	if err := s.dao.Update(ctx, session); err != nil {
		return nil, false, err
	}
	if completed {
		s.metrics.InterviewTransitions.WithLabelValues(string(model.SessionStatusCompleted)).Inc()
	}
	return session, completed, nil
}

// End 用户主动结束面试。
func (s *Service) End(ctx context.Context, xl *xlog.Logger, userID, id string) (*model.InterviewSessionDo, error) {
	return s.Mutate(ctx, xl, userID, id, func(session *model.InterviewSessionDo) error {
		if session.Status.IsTerminal() {
			return StateError(session)
		}
		MarkTerminated(session, model.TerminationReasonEndedByUser, s.now())
		return nil
	})
}

// Terminate 强制中止面试，监考达到上限时调用，不校验归属。
func (s *Service) Terminate(ctx context.Context, xl *xlog.Logger, id, reason string) (*model.InterviewSessionDo, error) {
	return s.Mutate(ctx, xl, "", id, func(session *model.InterviewSessionDo) error {
		if session.Status.IsTerminal() {
			return StateError(session)
		}
		MarkTerminated(session, reason, s.now())
		return nil
	})
}

// Mutate 在面试锁内读取、修改并保存，fn 返回错误时不保存。
// userID 为空时不校验归属。状态变为 terminated 时发布中止事件。
func (s *Service) Mutate(ctx context.Context, xl *xlog.Logger, userID, id string, fn func(session *model.InterviewSessionDo) error) (*model.InterviewSessionDo, error) {
	session, terminated, err := s.mutate(ctx, userID, id, fn)
	if err != nil {
		return nil, err
	}
	if terminated {
		s.publish(ctx, xl, events.TypeInterviewTerminated, session, map[string]interface{}{
			"reason":         session.TerminationReason,
			"violationCount": session.ViolationCount,
		})
	}
	return session, nil
}

func (s *Service) mutate(ctx context.Context, userID, id string, fn func(session *model.InterviewSessionDo) error) (*model.InterviewSessionDo, bool, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, userID, id)
	if err != nil {
		return nil, false, err
	}
	before := session.Status
	if err := fn(session); err != nil {
		if errors.Is(err, ErrUnchanged) {
			return session, false, nil
		}
		return nil, false, err
	}
	session.UpdatedTime = s.now()
	if err := s.dao.Update(ctx, session); err != nil {
		return nil, false, err
	}
	if before == session.Status {
		return session, false, nil
	}
	s.metrics.InterviewTransitions.WithLabelValues(string(session.Status)).Inc()
	return session, session.Status == model.SessionStatusTerminated, nil
}

// SweepStale 将创建早于 before 仍未结束的面试置为放弃，返回处理数量。
func (s *Service) SweepStale(ctx context.Context, xl *xlog.Logger, before time.Time) (int, error) {
	if xl == nil {
		xl = s.xl
	}
	stale, err := s.dao.ListStale(ctx, before)
	if err != nil {
		return 0, err
	}
	swept := 0
	for _, candidate := range stale {
		session, err := s.abandon(ctx, candidate.ID, before)
		if err != nil {
			xl.Errorf("abandon interview %s failed, error %v", candidate.ID, err)
			continue
		}
		if session == nil {
			continue
		}
		swept++
		s.publish(ctx, xl, events.TypeInterviewAbandoned, session, nil)
	}
	return swept, nil
}

func (s *Service) abandon(ctx context.Context, id string, before time.Time) (*model.InterviewSessionDo, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.dao.Select(ctx, id)
	if err != nil || session == nil {
		return nil, err
	}
	// 加锁期间可能已结束
	if session.Status.IsTerminal() || !session.CreatedTime.Before(before) {
		return nil, nil
	}
	now := s.now()
	session.Status = model.SessionStatusAbandoned
	session.TerminationReason = model.TerminationReasonStale
	session.EndedTime = now
	session.UpdatedTime = now
	if err := s.dao.Update(ctx, session); err != nil {
		return nil, err
	}
	s.metrics.InterviewTransitions.WithLabelValues(string(model.SessionStatusAbandoned)).Inc()
	return session, nil
}

// MarkTerminated 将面试置为中止。
func MarkTerminated(session *model.InterviewSessionDo, reason string, now time.Time) {
	session.Status = model.SessionStatusTerminated
	session.TerminationReason = reason
	session.EndedTime = now
}

func (s *Service) load(ctx context.Context, userID, id string) (*model.InterviewSessionDo, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	session, err := s.dao.Select(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil || (userID != "" && session.UserID != userID) {
		return nil, ErrNotFound
	}
	return session, nil
}

func (s *Service) publish(ctx context.Context, xl *xlog.Logger, eventType string, session *model.InterviewSessionDo, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if xl == nil {
		xl = s.xl
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:      eventType,
		SessionID: session.ID,
		UserID:    session.UserID,
		Payload:   payload,
		Time:      s.now(),
	})
	if err != nil {
		xl.Warnf("publish %s for interview %s failed, error %v", eventType, session.ID, err)
	}
}

// StateError 已被中止的面试单独返回 ErrSessionTerminated。
func StateError(session *model.InterviewSessionDo) error {
	if session.Status == model.SessionStatusTerminated {
		return ErrSessionTerminated
	}
	return ErrInvalidTransition
}

func resumeSummary(resume *model.ResumeDo) string {
	if resume == nil {
		return ""
	}
	parts := make([]string, 0, 4)
	if resume.Summary != "" {
		parts = append(parts, resume.Summary)
	}
	for _, e := range resume.Experience {
		parts = append(parts, fmt.Sprintf("%s at %s: %s", e.Title, e.Company, e.Description))
	}
	for _, p := range resume.Projects {
		parts = append(parts, fmt.Sprintf("Project %s (%s): %s", p.Name, strings.Join(p.TechStack, ", "), p.Description))
	}
	return utils.TruncateRunes(strings.Join(parts, "\n"), resumeSummaryMaxLen)
}

package proctor

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/qiniu/x/xlog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/dao"
	"github.com/solutions/mock-interview/internal/service/events"
	"github.com/solutions/mock-interview/internal/service/interview"
	"github.com/solutions/mock-interview/internal/service/metrics"
)

type Service struct {
	guard      Guard
	interviews *interview.Service
	dao        dao.ProctorEventDao
	publisher  events.Publisher
	metrics    *metrics.Metrics
	now        func() time.Time
	xl         *xlog.Logger

	auditMu sync.Mutex
	audit   io.Writer
}

func NewService(conf utils.ProctorConfig, interviews *interview.Service, eventDao dao.ProctorEventDao, publisher events.Publisher) *Service {
	s := &Service{
		guard: Guard{
			MaxViolations: conf.MaxViolations,
			Debounce:      time.Duration(conf.DebounceMillis) * time.Millisecond,
		},
		interviews: interviews,
		dao:        eventDao,
		publisher:  publisher,
		metrics:    metrics.DefaultMetrics,
		now:        time.Now,
		xl:         xlog.New("proctor-service"),
	}
	if conf.EventLogFile != "" {
		s.audit = &lumberjack.Logger{
			Filename:   conf.EventLogFile,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
	}
	return s
}

// WithAuditWriter 替换违规流水输出。
func (s *Service) WithAuditWriter(w io.Writer) *Service {
	s.audit = w
	return s
}

func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Report 处理浏览器上报的事件。只有进行中的面试接受事件，计数达到上限时中止面试。
func (s *Service) Report(ctx context.Context, xl *xlog.Logger, userID, sessionID string, kind model.ProctorEventKind, clientTime time.Time) (*Verdict, error) {
	if xl == nil {
		xl = s.xl
	}
	var verdict Verdict
	now := s.now()
	session, err := s.interviews.Mutate(ctx, xl, userID, sessionID, func(session *model.InterviewSessionDo) error {
		if session.Status != model.SessionStatusInProgress {
			return interview.StateError(session)
		}
		verdict = s.guard.Evaluate(kind, session.ViolationCount, session.LastViolationTime, now)
		if !verdict.Counted {
			return interview.ErrUnchanged
		}
		session.ViolationCount = verdict.Count
		session.LastViolationTime = now
		if verdict.Terminate {
			interview.MarkTerminated(session, model.TerminationReasonProctoring, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	verdict.Status = session.Status

	event := &model.ViolationEventDo{
		SessionID:  sessionID,
		UserID:     session.UserID,
		Kind:       string(kind),
		Counted:    verdict.Counted,
		CountAfter: verdict.Count,
		ClientTime: clientTime,
		ServerTime: now,
	}
	if err := s.dao.Insert(ctx, event); err != nil {
		// 计数已保存，事件记录失败不影响判定
		xl.Errorf("save proctor event for interview %s failed, error %v", sessionID, err)
	}
	s.writeAudit(xl, event)
	s.metrics.RecordProctorEvent(string(kind), verdict.Counted)
	if verdict.Counted {
		xl.Infof("interview %s violation %s counted, %d/%d", sessionID, kind, verdict.Count, verdict.Max)
		s.publish(ctx, xl, event, verdict)
	}
	return &verdict, nil
}

// List 列出面试的全部监考事件。
func (s *Service) List(ctx context.Context, userID, sessionID string) ([]model.ViolationEventDo, error) {
	if _, err := s.interviews.Get(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.dao.ListBySession(ctx, sessionID)
}

func (s *Service) publish(ctx context.Context, xl *xlog.Logger, event *model.ViolationEventDo, verdict Verdict) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.Event{
		Type:      events.TypeProctorViolation,
		SessionID: event.SessionID,
		UserID:    event.UserID,
		Payload: map[string]interface{}{
			"kind":      event.Kind,
			"count":     verdict.Count,
			"remaining": verdict.Remaining,
			"terminate": verdict.Terminate,
		},
		Time: event.ServerTime,
	})
	if err != nil {
		xl.Warnf("publish violation for interview %s failed, error %v", event.SessionID, err)
	}
}

type auditLine struct {
	ReqID string `json:"reqId"`
	*model.ViolationEventDo
}

func (s *Service) writeAudit(xl *xlog.Logger, event *model.ViolationEventDo) {
	if s.audit == nil {
		return
	}
	line, err := json.Marshal(auditLine{ReqID: xl.ReqId, ViolationEventDo: event})
	if err != nil {
		xl.Errorf("marshal proctor audit line failed, error %v", err)
		return
	}
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	if _, err := s.audit.Write(append(line, '\n')); err != nil {
		xl.Errorf("write proctor audit log failed, error %v", err)
	}
}

// Package daotest 内存版 DAO，供单元测试使用。
package daotest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/solutions/mock-interview/internal/protodef/model"
)

type InterviewDao struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]model.InterviewSessionDo
	// Updates Update 调用次数
	Updates int
}

func NewInterviewDao() *InterviewDao {
	return &InterviewDao{sessions: make(map[string]model.InterviewSessionDo)}
}

func (d *InterviewDao) Insert(ctx context.Context, session *model.InterviewSessionDo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if session.ID == "" {
		d.seq++
		session.ID = fmt.Sprintf("interview-%d", d.seq)
	}
	if session.CreatedTime.IsZero() {
		session.CreatedTime = time.Now()
	}
	session.UpdatedTime = session.CreatedTime
	d.sessions[session.ID] = clone(*session)
	return nil
}

func (d *InterviewDao) Select(ctx context.Context, id string) (*model.InterviewSessionDo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.sessions[id]
	if !ok {
		return nil, nil
	}
	s = clone(s)
	return &s, nil
}

func (d *InterviewDao) ListByUser(ctx context.Context, userID string, pgNum, pgSize int64) ([]model.InterviewSessionDo, int64, error) {
	all := d.byUser(userID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedTime.After(all[j].CreatedTime) })
	total := int64(len(all))
	start := (pgNum - 1) * pgSize
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []model.InterviewSessionDo{}, total, nil
	}
	end := start + pgSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (d *InterviewDao) ListAllByUser(ctx context.Context, userID string) ([]model.InterviewSessionDo, error) {
	all := d.byUser(userID)
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedTime.Before(all[j].CreatedTime) })
	return all, nil
}

func (d *InterviewDao) ListStale(ctx context.Context, before time.Time) ([]model.InterviewSessionDo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]model.InterviewSessionDo, 0)
	for _, s := range d.sessions {
		if s.Status.IsTerminal() || !s.CreatedTime.Before(before) {
			continue
		}
		result = append(result, clone(s))
	}
	return result, nil
}

func (d *InterviewDao) Update(ctx context.Context, session *model.InterviewSessionDo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[session.ID]; !ok {
		return fmt.Errorf("interview %s not found", session.ID)
	}
	d.Updates++
	d.sessions[session.ID] = clone(*session)
	return nil
}

// Put 直接写入，用于构造测试数据。
func (d *InterviewDao) Put(session model.InterviewSessionDo) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions[session.ID] = clone(session)
}

func (d *InterviewDao) byUser(userID string) []model.InterviewSessionDo {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]model.InterviewSessionDo, 0)
	for _, s := range d.sessions {
		if s.UserID == userID {
			result = append(result, clone(s))
		}
	}
	return result
}

func clone(s model.InterviewSessionDo) model.InterviewSessionDo {
	s.Turns = append([]model.TurnDo(nil), s.Turns...)
	s.Skills = append([]string(nil), s.Skills...)
	return s
}

type ProctorEventDao struct {
	mu     sync.Mutex
	seq    int
	events []model.ViolationEventDo
}

func NewProctorEventDao() *ProctorEventDao {
	return &ProctorEventDao{}
}

func (d *ProctorEventDao) Insert(ctx context.Context, event *model.ViolationEventDo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if event.ID == "" {
		d.seq++
		event.ID = fmt.Sprintf("event-%d", d.seq)
	}
	d.events = append(d.events, *event)
	return nil
}

func (d *ProctorEventDao) ListBySession(ctx context.Context, sessionID string) ([]model.ViolationEventDo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]model.ViolationEventDo, 0)
	for _, e := range d.events {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result, nil
}

type ReportDao struct {
	mu      sync.Mutex
	reports map[string]model.ReportDo
	Upserts int
}

func NewReportDao() *ReportDao {
	return &ReportDao{reports: make(map[string]model.ReportDo)}
}

func (d *ReportDao) Select(ctx context.Context, sessionID string) (*model.ReportDo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.reports[sessionID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (d *ReportDao) Upsert(ctx context.Context, report *model.ReportDo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Upserts++
	d.reports[report.ID] = *report
	return nil
}

func (d *ReportDao) ListByUser(ctx context.Context, userID string) ([]model.ReportDo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([]model.ReportDo, 0)
	for _, r := range d.reports {
		if r.UserID == userID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GeneratedTime.Before(result[j].GeneratedTime) })
	return result, nil
}

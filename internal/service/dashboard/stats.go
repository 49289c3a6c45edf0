// Package dashboard 面试记录的统计图表数据。
package dashboard

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/solutions/mock-interview/internal/protodef/model"
)

// TrendLimit 趋势图最多展示的面试数。
const TrendLimit = 20

type Stats struct {
	TotalInterviews int          `json:"totalInterviews"`
	Completed       int          `json:"completed"`
	Terminated      int          `json:"terminated"`
	InProgress      int          `json:"inProgress"`
	Abandoned       int          `json:"abandoned"`
	AverageScore    float64      `json:"averageScore"`
	BestScore       int          `json:"bestScore"`
	TotalViolations int          `json:"totalViolations"`
	Trend           []TrendPoint `json:"trend"`
	Roles           []RoleStat   `json:"roles"`
}

type TrendPoint struct {
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Date      time.Time `json:"date"`
	Score     int       `json:"score"`
}

type RoleStat struct {
	Role         string  `json:"role"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

type SessionLister interface {
	ListAll(ctx context.Context, userID string) ([]model.InterviewSessionDo, error)
}

type ReportLister interface {
	ListByUser(ctx context.Context, userID string) ([]model.ReportDo, error)
}

type Service struct {
	sessions SessionLister
	reports  ReportLister
}

func NewService(sessions SessionLister, reports ReportLister) *Service {
	return &Service{sessions: sessions, reports: reports}
}

func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	sessions, err := s.sessions.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := Compute(sessions, reports)
	return &stats, nil
}

// Compute 汇总统计，只有已生成报告的面试参与评分统计。
func Compute(sessions []model.InterviewSessionDo, reports []model.ReportDo) Stats {
	scores := make(map[string]int, len(reports))
	for _, r := range reports {
		scores[r.ID] = r.OverallScore
	}
	sorted := append([]model.InterviewSessionDo(nil), sessions...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedTime.Before(sorted[j].CreatedTime) })

	stats := Stats{Trend: []TrendPoint{}, Roles: []RoleStat{}}
	type roleAcc struct {
		name   string
		count  int
		scored int
		total  int
	}
	roles := make(map[string]*roleAcc)
	scoredTotal, scoredCount := 0, 0
	for _, s := range sorted {
		stats.TotalInterviews++
		stats.TotalViolations += s.ViolationCount
		switch s.Status {
		case model.SessionStatusCompleted:
			stats.Completed++
		case model.SessionStatusTerminated:
			stats.Terminated++
		case model.SessionStatusAbandoned:
			stats.Abandoned++
		default:
			stats.InProgress++
		}

		key := strings.ToLower(strings.TrimSpace(s.Role))
		acc, ok := roles[key]
		if !ok {
			acc = &roleAcc{name: strings.TrimSpace(s.Role)}
			roles[key] = acc
		}
		acc.count++

		score, ok := scores[s.ID]
		if !ok {
			continue
		}
		acc.scored++
		acc.total += score
		scoredTotal += score
		scoredCount++
		if score > stats.BestScore {
			stats.BestScore = score
		}
		date := s.EndedTime
		if date.IsZero() {
			date = s.CreatedTime
		}
		stats.Trend = append(stats.Trend, TrendPoint{SessionID: s.ID, Role: s.Role, Date: date, Score: score})
	}
	if len(stats.Trend) > TrendLimit {
		stats.Trend = stats.Trend[len(stats.Trend)-TrendLimit:]
	}
	if scoredCount > 0 {
		stats.AverageScore = round1(float64(scoredTotal) / float64(scoredCount))
	}
	for _, acc := range roles {
		rs := RoleStat{Role: acc.name, Count: acc.count}
		if acc.scored > 0 {
			rs.AverageScore = round1(float64(acc.total) / float64(acc.scored))
		}
		stats.Roles = append(stats.Roles, rs)
	}
	sort.Slice(stats.Roles, func(i, j int) bool {
		if stats.Roles[i].Count != stats.Roles[j].Count {
			return stats.Roles[i].Count > stats.Roles[j].Count
		}
		return stats.Roles[i].Role < stats.Roles[j].Role
	})
	return stats
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

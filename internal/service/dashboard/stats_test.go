package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions/mock-interview/internal/protodef/model"
	"github.com/solutions/mock-interview/internal/service/dao/daotest"
)

func TestCompute(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	sessions := []model.InterviewSessionDo{
		{ID: "c", Role: "Backend Engineer", Status: model.SessionStatusTerminated, ViolationCount: 3, CreatedTime: base.Add(2 * time.Hour)},
		{ID: "a", Role: "Backend Engineer", Status: model.SessionStatusCompleted, ViolationCount: 1, CreatedTime: base, EndedTime: base.Add(30 * time.Minute)},
		{ID: "b", Role: "frontend developer", Status: model.SessionStatusCompleted, CreatedTime: base.Add(time.Hour)},
		{ID: "d", Role: "backend engineer ", Status: model.SessionStatusInProgress, CreatedTime: base.Add(3 * time.Hour)},
		{ID: "e", Role: "Data Analyst", Status: model.SessionStatusAbandoned, CreatedTime: base.Add(4 * time.Hour)},
	}
	reports := []model.ReportDo{
		{ID: "a", OverallScore: 80},
		{ID: "b", OverallScore: 65},
		{ID: "c", OverallScore: 40},
	}

	stats := Compute(sessions, reports)
	assert.Equal(t, 5, stats.TotalInterviews)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Terminated)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.Abandoned)
	assert.Equal(t, 4, stats.TotalViolations)
	assert.Equal(t, 80, stats.BestScore)
	assert.Equal(t, 61.7, stats.AverageScore)

	require.Len(t, stats.Trend, 3)
	assert.Equal(t, "a", stats.Trend[0].SessionID)
	assert.Equal(t, base.Add(30*time.Minute), stats.Trend[0].Date)
	assert.Equal(t, "c", stats.Trend[2].SessionID)

	require.Len(t, stats.Roles, 3)
	assert.Equal(t, RoleStat{Role: "Backend Engineer", Count: 3, AverageScore: 60}, stats.Roles[0])
	assert.Equal(t, RoleStat{Role: "Data Analyst", Count: 1}, stats.Roles[1])
	assert.Equal(t, RoleStat{Role: "frontend developer", Count: 1, AverageScore: 65}, stats.Roles[2])
}

func TestComputeEmpty(t *testing.T) {
	stats := Compute(nil, nil)
	assert.Equal(t, 0, stats.TotalInterviews)
	assert.NotNil(t, stats.Trend)
	assert.NotNil(t, stats.Roles)
}

func TestTrendKeepsLatest(t *testing.T) {
	base := time.Now()
	var sessions []model.InterviewSessionDo
	var reports []model.ReportDo
	for i := 0; i < TrendLimit+5; i++ {
		id := fmt.Sprintf("s%02d", i)
		sessions = append(sessions, model.InterviewSessionDo{ID: id, Role: "Dev", Status: model.SessionStatusCompleted, CreatedTime: base.Add(time.Duration(i) * time.Minute)})
		reports = append(reports, model.ReportDo{ID: id, OverallScore: i})
	}
	stats := Compute(sessions, reports)
	require.Len(t, stats.Trend, TrendLimit)
	assert.Equal(t, "s05", stats.Trend[0].SessionID)
	assert.Equal(t, fmt.Sprintf("s%02d", TrendLimit+4), stats.Trend[TrendLimit-1].SessionID)
}

type sessionLister struct {
	dao *daotest.InterviewDao
}

func (s sessionLister) ListAll(ctx context.Context, userID string) ([]model.InterviewSessionDo, error) {
	return s.dao.ListAllByUser(ctx, userID)
}

func TestServiceStats(t *testing.T) {
	sessions := daotest.NewInterviewDao()
	reports := daotest.NewReportDao()
	sessions.Put(model.InterviewSessionDo{ID: "x", UserID: "u1", Role: "Dev", Status: model.SessionStatusCompleted, CreatedTime: time.Now()})
	sessions.Put(model.InterviewSessionDo{ID: "y", UserID: "u2", Role: "Dev", Status: model.SessionStatusCompleted, CreatedTime: time.Now()})
	require.NoError(t, reports.Upsert(context.Background(), &model.ReportDo{ID: "x", UserID: "u1", OverallScore: 72}))

	stats, err := NewService(sessionLister{sessions}, reports).Stats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalInterviews)
	assert.Equal(t, 72.0, stats.AverageScore)
}

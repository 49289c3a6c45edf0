package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankFirstQuestionIsWarmUp(t *testing.T) {
	b := NewBankEngine()
	q, err := b.GenerateQuestion(context.Background(), QuestionRequest{Role: "Backend Engineer", Index: 0, Total: 5})
	require.NoError(t, err)
	assert.Equal(t, "introduction", q.Topic)
	assert.Contains(t, q.Text, "Backend Engineer")
	assert.Equal(t, EngineBank, q.Engine)
}

func TestBankNeverRepeatsQuestions(t *testing.T) {
	b := NewBankEngine()
	req := QuestionRequest{Role: "Frontend Developer", Skills: []string{"React"}, Total: 12}
	seen := map[string]bool{}
	for i := 0; i < req.Total; i++ {
		req.Index = i
		q, err := b.GenerateQuestion(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, seen[q.Text], "question %d repeated: %s", i, q.Text)
		seen[q.Text] = true
		req.Previous = append(req.Previous, QA{Question: q.Text, Answer: "answer"})
	}
}

func TestBankUsesSkillsAndRole(t *testing.T) {
	b := NewBankEngine()
	q, err := b.GenerateQuestion(context.Background(), QuestionRequest{Role: "ios developer", Skills: []string{"Swift"}, Index: 1, Total: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, q.Text)
	assert.Equal(t, "mobile", roleCategory("ios developer"))
	assert.Equal(t, "frontend", roleCategory("Senior React UI engineer"))
	assert.Equal(t, "data", roleCategory("Data Scientist"))
	assert.Equal(t, "backend", roleCategory("Chef"))
}

func TestBankEvaluateEmptyAnswer(t *testing.T) {
	ev, err := NewBankEngine().EvaluateAnswer(context.Background(), EvaluationRequest{Question: "Why?", Answer: "   "})
	require.NoError(t, err)
	assert.Equal(t, 0, ev.Score)
	assert.NotEmpty(t, ev.Improvements)
}

func TestBankEvaluateRewardsStructure(t *testing.T) {
	b := NewBankEngine()
	short, err := b.EvaluateAnswer(context.Background(), EvaluationRequest{
		Question: "How would you design a rate limiter for a public HTTP API?",
		Answer:   "Use redis.",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, short.Score)

	long := strings.Repeat("I would keep a token bucket per client key in a shared store. ", 3) +
		"For example at my previous company the limiter sat in the gateway, because every public request passed through it " +
		"and the design kept the rate limiter close to the API edge."
	good, err := b.EvaluateAnswer(context.Background(), EvaluationRequest{
		Question: "How would you design a rate limiter for a public HTTP API?",
		Answer:   long,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, good.Score)
	assert.Greater(t, good.Score, short.Score)
	assert.LessOrEqual(t, good.Score, MaxItemScore)
}

func TestBankSummarize(t *testing.T) {
	b := NewBankEngine()
	s, err := b.Summarize(context.Background(), SummaryRequest{Items: []EvaluatedQA{
		{Question: "q1", Answer: "a", Score: 8},
		{Question: "q2", Answer: "b", Score: 6},
		{Question: "q3", Answer: "", Score: 0},
	}})
	require.NoError(t, err)
	assert.Equal(t, 47, s.OverallScore)
	assert.Contains(t, s.Summary, "Answered 2 of 3")
	assert.Contains(t, s.Improvements, "Try to answer every question.")

	empty, err := b.Summarize(context.Background(), SummaryRequest{Terminated: true})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.OverallScore)
	assert.Contains(t, empty.Summary, "terminated")
}

func TestBankHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBankEngine().GenerateQuestion(ctx, QuestionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(" {\"a\":1} "))
}

func TestDecodeEvaluationClampsScore(t *testing.T) {
	ev, err := decodeEvaluation("```json\n{\"score\": 14, \"feedback\": \" ok \", \"strengths\": [\"\", \"clear\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, 10, ev.Score)
	assert.Equal(t, "ok", ev.Feedback)
	assert.Equal(t, []string{"clear"}, ev.Strengths)

	s, err := decodeSummary(`{"overallScore": -3}`)
	require.NoError(t, err)
	assert.Equal(t, 0, s.OverallScore)

	_, err = decodeQuestion(`{"question": "  "}`)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

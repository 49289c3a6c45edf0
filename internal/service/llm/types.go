package llm

import "strings"

type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type QuestionRequest struct {
	Role            string
	ExperienceYears int
	Skills          []string
	ResumeSummary   string
	// Index 从0开始
	Index    int
	Total    int
	Previous []QA
}

type Question struct {
	Text   string `json:"question"`
	Topic  string `json:"topic"`
	Engine string `json:"-"`
}

type EvaluationRequest struct {
	Role            string
	ExperienceYears int
	Question        string
	Answer          string
}

type Evaluation struct {
	Score        int      `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Engine       string   `json:"-"`
}

type EvaluatedQA struct {
	Question string
	Answer   string
	Score    int
	Feedback string
}

type SummaryRequest struct {
	Role            string
	ExperienceYears int
	Items           []EvaluatedQA
	// Terminated 面试因违规被中止
	Terminated bool
}

type Summary struct {
	OverallScore int      `json:"overallScore"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Engine       string   `json:"-"`
}

const (
	MaxItemScore    = 10
	MaxOverallScore = 100
)

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (e *Evaluation) normalize() {
	e.Score = clamp(e.Score, 0, MaxItemScore)
	e.Feedback = strings.TrimSpace(e.Feedback)
	e.Strengths = nonEmpty(e.Strengths)
	e.Improvements = nonEmpty(e.Improvements)
}

func (s *Summary) normalize() {
	s.OverallScore = clamp(s.OverallScore, 0, MaxOverallScore)
	s.Summary = strings.TrimSpace(s.Summary)
	s.Strengths = nonEmpty(s.Strengths)
	s.Improvements = nonEmpty(s.Improvements)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// StripCodeFences 去掉模型输出外层的 ``` 代码块标记。
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemInstruction = `You are an experienced technical interviewer running a mock interview.
Ask one question at a time, adapt the difficulty to the candidate's experience, and never repeat
a question that was already asked. Evaluate answers fairly and concretely.
Always reply with a single JSON object and no text outside of it.`

func buildQuestionPrompt(in QuestionRequest) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Role: %s\n", in.Role)
	_, _ = fmt.Fprintf(&b, "Experience: %d years\n", in.ExperienceYears)
	if len(in.Skills) > 0 {
		_, _ = fmt.Fprintf(&b, "Skills: %s\n", strings.Join(in.Skills, ", "))
	}
	if s := strings.TrimSpace(in.ResumeSummary); s != "" {
		_, _ = fmt.Fprintf(&b, "Resume summary: %s\n", s)
	}
	_, _ = fmt.Fprintf(&b, "This is question %d of %d.\n", in.Index+1, in.Total)
	if len(in.Previous) > 0 {
		b.WriteString("Previous questions and answers:\n")
		for i, qa := range in.Previous {
			_, _ = fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, qa.Question, qa.Answer)
		}
	}
	if in.Index == 0 {
		b.WriteString("Start with a warm-up question about the candidate's background.\n")
	} else if in.Index == in.Total-1 {
		b.WriteString("This is the last question, make it a scenario or system design question.\n")
	}
	b.WriteString(`Reply as {"question": string, "topic": string}.`)
	return b.String()
}

func buildEvaluationPrompt(in EvaluationRequest) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Role: %s (%d years of experience)\n", in.Role, in.ExperienceYears)
	_, _ = fmt.Fprintf(&b, "Question: %s\n", in.Question)
	_, _ = fmt.Fprintf(&b, "Answer: %s\n", in.Answer)
	b.WriteString("Score the answer from 0 to 10.\n")
	b.WriteString(`Reply as {"score": int, "feedback": string, "strengths": [string], "improvements": [string]}.`)
	return b.String()
}

func buildSummaryPrompt(in SummaryRequest) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Role: %s (%d years of experience)\n", in.Role, in.ExperienceYears)
	if in.Terminated {
		b.WriteString("The interview was terminated early because of proctoring violations.\n")
	}
	for i, item := range in.Items {
		_, _ = fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n   Score: %d/10, feedback: %s\n", i+1, item.Question, item.Answer, item.Score, item.Feedback)
	}
	b.WriteString("Give an overall score from 0 to 100 and a short summary of the interview.\n")
	b.WriteString(`Reply as {"overallScore": int, "summary": string, "strengths": [string], "improvements": [string]}.`)
	return b.String()
}

func decodeQuestion(txt string) (Question, error) {
	var q Question
	if err := decodeJSON(txt, &q); err != nil {
		return Question{}, err
	}
	q.Text = strings.TrimSpace(q.Text)
	q.Topic = strings.TrimSpace(q.Topic)
	if q.Text == "" {
		return Question{}, ErrEmptyResponse
	}
	return q, nil
}

func decodeEvaluation(txt string) (Evaluation, error) {
	var e Evaluation
	if err := decodeJSON(txt, &e); err != nil {
		return Evaluation{}, err
	}
	e.normalize()
	return e, nil
}

func decodeSummary(txt string) (Summary, error) {
	var s Summary
	if err := decodeJSON(txt, &s); err != nil {
		return Summary{}, err
	}
	s.normalize()
	return s, nil
}

func decodeJSON(txt string, out interface{}) error {
	txt = StripCodeFences(txt)
	if txt == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(txt), out); err != nil {
		return fmt.Errorf("llm: bad JSON: %w", err)
	}
	return nil
}

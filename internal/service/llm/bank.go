package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
)

type bankQuestion struct {
	topic string
	text  string
}

var (
	behavioralQuestions = []bankQuestion{
		{"behavioral", "Tell me about a time you disagreed with a teammate on a technical decision. How did you resolve it?"},
		{"behavioral", "Describe a project that did not go as planned. What did you learn from it?"},
		{"behavioral", "How do you prioritise when several urgent tasks land on you at the same time?"},
		{"behavioral", "Tell me about the piece of work you are most proud of and why."},
	}

	roleQuestions = map[string][]bankQuestion{
		"backend": {
			{"system design", "How would you design a rate limiter for a public HTTP API?"},
			{"databases", "When would you choose a document database over a relational one, and what do you give up?"},
			{"reliability", "A downstream service starts timing out. How do you keep your own service healthy?"},
			{"concurrency", "How do you find and fix a race condition that only shows up in production?"},
		},
		"frontend": {
			{"performance", "A page feels slow on low-end phones. How do you investigate and improve it?"},
			{"state management", "How do you decide where a piece of UI state should live?"},
			{"accessibility", "What do you check to make a form accessible to keyboard and screen reader users?"},
			{"browser", "Explain what happens between typing a URL and the first paint of the page."},
		},
		"data": {
			{"modelling", "How do you detect and handle data leakage when building a model?"},
			{"pipelines", "How would you design a daily batch pipeline so that reruns are safe?"},
			{"statistics", "How do you explain the result of an A/B test to a non-technical stakeholder?"},
			{"quality", "What checks do you put in place to catch bad data before it reaches a dashboard?"},
		},
		"devops": {
			{"incident", "Walk me through how you would run an incident when the main service is down."},
			{"deployment", "How do you roll out a risky change to production with minimal blast radius?"},
			{"observability", "Which signals would you alert on for a user facing API and why?"},
			{"infrastructure", "How do you keep infrastructure changes reviewable and reproducible?"},
		},
		"mobile": {
			{"offline", "How would you design an app feature that must keep working offline?"},
			{"performance", "How do you track down excessive battery or memory usage in an app?"},
			{"release", "How do you handle a critical bug in a version that is already in the app store?"},
			{"architecture", "How do you structure a mobile codebase so that features can be tested in isolation?"},
		},
		"product": {
			{"prioritisation", "How do you decide what goes into the next release when everything seems important?"},
			{"metrics", "Which metrics would you use to judge whether a new onboarding flow works?"},
			{"discovery", "How do you validate a feature idea before engineering starts building it?"},
			{"stakeholders", "How do you handle a stakeholder who keeps changing the requirements?"},
		},
	}

	roleKeywords = map[string][]string{
		"backend":  {"backend", "back-end", "server", "api", "golang", "java", "python", "platform"},
		"frontend": {"frontend", "front-end", "react", "vue", "web", "ui"},
		"data":     {"data", "machine learning", "ml", "analyst", "scientist", "ai"},
		"devops":   {"devops", "sre", "reliability", "infrastructure", "cloud", "ops"},
		"mobile":   {"mobile", "ios", "android", "flutter"},
		"product":  {"product", "pm", "manager", "owner"},
	}

	exampleMarkers   = []string{"for example", "for instance", "e.g.", "such as", "in my last", "in my previous", "at my"}
	reasoningMarkers = []string{"because", "so that", "trade-off", "tradeoff", "therefore", "since", "which means"}
)

// BankEngine 离线题库，不依赖外部服务，结果可复现。
type BankEngine struct{}

func NewBankEngine() *BankEngine {
	return &BankEngine{}
}

func (b *BankEngine) Name() string { return EngineBank }

func (b *BankEngine) GenerateQuestion(ctx context.Context, in QuestionRequest) (Question, error) {
	if err := ctx.Err(); err != nil {
		return Question{}, err
	}
	asked := make(map[string]bool, len(in.Previous))
	for _, qa := range in.Previous {
		asked[strings.ToLower(strings.TrimSpace(qa.Question))] = true
	}
	if in.Index == 0 {
		q := warmUpQuestion(in.Role)
		if !asked[strings.ToLower(q.text)] {
			return Question{Text: q.text, Topic: q.topic, Engine: b.Name()}, nil
		}
	}
	pool := questionPool(in)
	for i := 0; i < len(pool); i++ {
		q := pool[(in.Index+i)%len(pool)]
		if !asked[strings.ToLower(q.text)] {
			return Question{Text: q.text, Topic: q.topic, Engine: b.Name()}, nil
		}
	}
	return Question{
		Text:   fmt.Sprintf("Question %d: what would you like to improve most in your skills as a %s, and how?", in.Index+1, roleOrDefault(in.Role)),
		Topic:  "growth",
		Engine: b.Name(),
	}, nil
}

func (b *BankEngine) EvaluateAnswer(ctx context.Context, in EvaluationRequest) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	answer := strings.ToLower(strings.TrimSpace(in.Answer))
	words := strings.Fields(answer)
	if len(words) == 0 {
		return Evaluation{
			Score:        0,
			Feedback:     "No answer was given.",
			Strengths:    []string{},
			Improvements: []string{"Attempt every question, even a partial answer earns credit."},
			Engine:       b.Name(),
		}, nil
	}
	ev := Evaluation{Engine: b.Name(), Strengths: []string{}, Improvements: []string{}}
	switch n := len(words); {
	case n < 10:
		ev.Score = 2
		ev.Improvements = append(ev.Improvements, "The answer is very short, expand on your reasoning.")
	case n < 30:
		ev.Score = 4
		ev.Improvements = append(ev.Improvements, "Add more detail to show depth.")
	case n < 80:
		ev.Score = 6
		ev.Strengths = append(ev.Strengths, "Answer has a reasonable level of detail.")
	default:
		ev.Score = 7
		ev.Strengths = append(ev.Strengths, "Answer is thorough.")
	}
	if containsAny(answer, exampleMarkers) {
		ev.Score++
		ev.Strengths = append(ev.Strengths, "Backs the answer with a concrete example.")
	} else {
		ev.Improvements = append(ev.Improvements, "Support the answer with a concrete example from your experience.")
	}
	if containsAny(answer, reasoningMarkers) {
		ev.Score++
		ev.Strengths = append(ev.Strengths, "Explains the reasoning behind decisions.")
	} else {
		ev.Improvements = append(ev.Improvements, "Explain why, not only what.")
	}
	if keywordOverlap(in.Question, answer) >= 2 {
		ev.Score++
		ev.Strengths = append(ev.Strengths, "Stays on topic.")
	} else {
		ev.Improvements = append(ev.Improvements, "Address the question more directly.")
	}
	ev.normalize()
	ev.Feedback = fmt.Sprintf("Scored %d/10 on length, structure and relevance.", ev.Score)
	return ev, nil
}

func (b *BankEngine) Summarize(ctx context.Context, in SummaryRequest) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	s := Summary{Engine: b.Name(), Strengths: []string{}, Improvements: []string{}}
	if len(in.Items) == 0 {
		s.Summary = "No questions were answered."
		if in.Terminated {
			s.Summary += " The interview was terminated because of proctoring violations."
		}
		return s, nil
	}
	total := 0
	answered := 0
	for _, item := range in.Items {
		total += item.Score
		if strings.TrimSpace(item.Answer) != "" {
			answered++
		}
	}
	mean := float64(total) / float64(len(in.Items))
	s.OverallScore = int(math.Round(mean * 10))
	s.Summary = fmt.Sprintf("Answered %d of %d questions with an average score of %.1f/10.", answered, len(in.Items), mean)
	if in.Terminated {
		s.Summary += " The interview was terminated because of proctoring violations."
		s.Improvements = append(s.Improvements, "Stay in fullscreen and keep the interview tab focused.")
	}
	switch {
	case mean >= 7:
		s.Strengths = append(s.Strengths, "Consistently clear and well supported answers.")
	case mean >= 4:
		s.Strengths = append(s.Strengths, "Solid foundation on most questions.")
		s.Improvements = append(s.Improvements, "Use concrete examples and explain trade-offs.")
	default:
		s.Improvements = append(s.Improvements, "Practise structuring answers, for example with the STAR method.")
	}
	if answered < len(in.Items) {
		s.Improvements = append(s.Improvements, "Try to answer every question.")
	}
	s.normalize()
	return s, nil
}

func warmUpQuestion(role string) bankQuestion {
	return bankQuestion{
		topic: "introduction",
		text:  fmt.Sprintf("Tell me about yourself and what drew you to working as a %s.", roleOrDefault(role)),
	}
}

func questionPool(in QuestionRequest) []bankQuestion {
	pool := make([]bankQuestion, 0, 16)
	for _, skill := range in.Skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		pool = append(pool, bankQuestion{
			topic: skill,
			text:  fmt.Sprintf("Describe a project where you used %s. What problem did it solve and what would you do differently?", skill),
		})
		if len(pool) >= 3 {
			break
		}
	}
	pool = append(pool, roleQuestions[roleCategory(in.Role)]...)
	pool = append(pool, behavioralQuestions...)
	return pool
}

func roleCategory(role string) string {
	role = strings.ToLower(role)
	for _, category := range []string{"frontend", "backend", "data", "devops", "mobile", "product"} {
		for _, kw := range roleKeywords[category] {
			if containsWord(role, kw) {
				return category
			}
		}
	}
	return "backend"
}

func roleOrDefault(role string) string {
	if role = strings.TrimSpace(role); role != "" {
		return role
	}
	return "software engineer"
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func containsWord(s, word string) bool {
	if strings.Contains(word, " ") || strings.Contains(word, "-") {
		return strings.Contains(s, word)
	}
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if f == word {
			return true
		}
	}
	return false
}

// keywordOverlap 统计问题中较长的词在回答中出现的个数。
func keywordOverlap(question, answer string) int {
	seen := make(map[string]bool)
	n := 0
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, ".,?!:;()\"'")
		if len(w) <= 4 || seen[w] {
			continue
		}
		seen[w] = true
		if strings.Contains(answer, w) {
			n++
		}
	}
	return n
}

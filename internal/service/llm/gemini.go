package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiEngine struct {
	APIKey string
	Model  string
}

func NewGeminiEngine(apiKey, model string) *GeminiEngine {
	return &GeminiEngine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *GeminiEngine) Name() string { return EngineGemini }

func (e *GeminiEngine) GenerateQuestion(ctx context.Context, in QuestionRequest) (Question, error) {
	txt, err := e.generate(ctx, 0.8, buildQuestionPrompt(in))
	if err != nil {
		return Question{}, fmt.Errorf("gemini question: %w", err)
	}
	q, err := decodeQuestion(txt)
	if err != nil {
		return Question{}, fmt.Errorf("gemini question: %w", err)
	}
	q.Engine = e.Name()
	return q, nil
}

func (e *GeminiEngine) EvaluateAnswer(ctx context.Context, in EvaluationRequest) (Evaluation, error) {
	txt, err := e.generate(ctx, 0, buildEvaluationPrompt(in))
	if err != nil {
		return Evaluation{}, fmt.Errorf("gemini evaluate: %w", err)
	}
	ev, err := decodeEvaluation(txt)
	if err != nil {
		return Evaluation{}, fmt.Errorf("gemini evaluate: %w", err)
	}
	ev.Engine = e.Name()
	return ev, nil
}

func (e *GeminiEngine) Summarize(ctx context.Context, in SummaryRequest) (Summary, error) {
	txt, err := e.generate(ctx, 0, buildSummaryPrompt(in))
	if err != nil {
		return Summary{}, fmt.Errorf("gemini summary: %w", err)
	}
	s, err := decodeSummary(txt)
	if err != nil {
		return Summary{}, fmt.Errorf("gemini summary: %w", err)
	}
	s.Engine = e.Name()
	return s, nil
}

func (e *GeminiEngine) generate(ctx context.Context, temperature float32, user string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", errors.New("model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	resp, err := m.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", err
	}
	txt := firstText(resp)
	if txt == "" {
		return "", ErrEmptyResponse
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

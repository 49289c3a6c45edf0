package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// OpenAIEngine 调用 OpenAI 兼容的 /v1/chat/completions 接口。
type OpenAIEngine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func NewOpenAIEngine(key, model, baseURL string) *OpenAIEngine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIEngine{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Transport: tr},
	}
}

// WithHTTPClient 替换内部 http client。
func (e *OpenAIEngine) WithHTTPClient(c *http.Client) *OpenAIEngine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *OpenAIEngine) Name() string { return EngineOpenAI }

func (e *OpenAIEngine) GenerateQuestion(ctx context.Context, in QuestionRequest) (Question, error) {
	txt, err := e.chat(ctx, 0.8, buildQuestionPrompt(in))
	if err != nil {
		return Question{}, fmt.Errorf("openai question: %w", err)
	}
	q, err := decodeQuestion(txt)
	if err != nil {
		return Question{}, fmt.Errorf("openai question: %w", err)
	}
	q.Engine = e.Name()
	return q, nil
}

func (e *OpenAIEngine) EvaluateAnswer(ctx context.Context, in EvaluationRequest) (Evaluation, error) {
	txt, err := e.chat(ctx, 0, buildEvaluationPrompt(in))
	if err != nil {
		return Evaluation{}, fmt.Errorf("openai evaluate: %w", err)
	}
	ev, err := decodeEvaluation(txt)
	if err != nil {
		return Evaluation{}, fmt.Errorf("openai evaluate: %w", err)
	}
	ev.Engine = e.Name()
	return ev, nil
}

func (e *OpenAIEngine) Summarize(ctx context.Context, in SummaryRequest) (Summary, error) {
	txt, err := e.chat(ctx, 0, buildSummaryPrompt(in))
	if err != nil {
		return Summary{}, fmt.Errorf("openai summary: %w", err)
	}
	s, err := decodeSummary(txt)
	if err != nil {
		return Summary{}, fmt.Errorf("openai summary: %w", err)
	}
	s.Engine = e.Name()
	return s, nil
}

func (e *OpenAIEngine) chat(ctx context.Context, temperature float64, user string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("OPENAI_API_KEY is empty")
	}
	body, err := sjson.SetBytes([]byte(`{}`), "model", e.Model)
	if err != nil {
		return "", err
	}
	body, _ = sjson.SetBytes(body, "temperature", temperature)
	body, _ = sjson.SetBytes(body, "response_format.type", "json_object")
	body, err = sjson.SetBytes(body, "messages", []map[string]string{
		{"role": "system", "content": systemInstruction},
		{"role": "user", "content": user},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+e.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := gjson.GetBytes(raw, "error.message").String(); msg != "" {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, msg)
		}
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, truncateBytes(raw, 512))
	}
	content := gjson.GetBytes(raw, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func truncateBytes(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// Package llm 出题与评估所用的大模型引擎。
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qiniu/x/xlog"

	"github.com/solutions/mock-interview/internal/common/utils"
)

const (
	EngineGemini = "gemini"
	EngineOpenAI = "openai"
	EngineBank   = "bank"
)

var (
	ErrEmptyResponse = errors.New("llm: empty response")
	ErrUnknownEngine = errors.New("llm: unknown engine")
)

type Engine interface {
	Name() string
	GenerateQuestion(ctx context.Context, in QuestionRequest) (Question, error)
	EvaluateAnswer(ctx context.Context, in EvaluationRequest) (Evaluation, error)
	Summarize(ctx context.Context, in SummaryRequest) (Summary, error)
}

type Engines struct {
	Gemini Engine
	OpenAI Engine
	Bank   Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	var engine Engine
	switch strings.ToLower(strings.TrimSpace(name)) {
	case EngineGemini:
		engine = e.Gemini
	case "gpt", EngineOpenAI:
		engine = e.OpenAI
	case EngineBank, "":
		engine = e.Bank
	default:
		return nil, ErrUnknownEngine
	}
	if engine == nil {
		return nil, ErrUnknownEngine
	}
	return engine, nil
}

// NewEngine 按配置组装引擎：选定的模型加重试，失败时退回离线题库。
func NewEngine(conf utils.LLMConfig, xl *xlog.Logger) Engine {
	if xl == nil {
		xl = xlog.New("llm")
	}
	bank := NewBankEngine()
	engines := &Engines{Bank: bank}
	if conf.GeminiAPIKey != "" {
		engines.Gemini = NewGeminiEngine(conf.GeminiAPIKey, conf.GeminiModel)
	}
	if conf.OpenAIAPIKey != "" {
		engines.OpenAI = NewOpenAIEngine(conf.OpenAIAPIKey, conf.OpenAIModel, conf.OpenAIBaseURL)
	}
	primary, err := engines.GetEngine(conf.Provider)
	if err != nil {
		xl.Warnf("llm provider %q not available, using question bank", conf.Provider)
		return bank
	}
	if primary.Name() == EngineBank {
		return bank
	}
	retrying := NewRetrying(primary, conf.Attempts, time.Duration(conf.TimeoutSecond)*time.Second)
	return NewFallback(retrying, bank, xl)
}

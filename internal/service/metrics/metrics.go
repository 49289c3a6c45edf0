// Package metrics 提供 Prometheus 指标。
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mock_interview"

// Metrics 服务的全部 Prometheus 指标。
type Metrics struct {
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// 面试状态流转
	InterviewTransitions *prometheus.CounterVec
	QuestionsGenerated   *prometheus.CounterVec

	LLMErrors  *prometheus.CounterVec
	LLMLatency *prometheus.HistogramVec

	ProctorEvents *prometheus.CounterVec

	ReportsGenerated *prometheus.CounterVec

	EventPublish *prometheus.CounterVec
}

// DefaultMetrics 全局指标实例。
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics 创建并注册全部指标。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and response code",
		}, []string{"method", "route", "code"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
		InterviewTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interview_transitions_total",
			Help:      "Interview session status transitions",
		}, []string{"status"}),
		QuestionsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_generated_total",
			Help:      "Interview questions generated by engine",
		}, []string{"engine"}),
		LLMErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_errors_total",
			Help:      "Failed LLM calls by engine and operation",
		}, []string{"engine", "op"}),
		LLMLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "LLM call latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"engine", "op"}),
		ProctorEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proctor_events_total",
			Help:      "Proctoring events by kind and whether they counted as a violation",
		}, []string{"kind", "counted"}),
		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Interview reports generated by session status",
		}, []string{"status"}),
		EventPublish: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_total",
			Help:      "Lifecycle events published by type and status",
		}, []string{"type", "status"}),
	}
}

func (m *Metrics) RecordHTTP(method, route string, code int, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) RecordLLM(engine, op string, err error, seconds float64) {
	m.LLMLatency.WithLabelValues(engine, op).Observe(seconds)
	if err != nil {
		m.LLMErrors.WithLabelValues(engine, op).Inc()
	}
}

func (m *Metrics) RecordProctorEvent(kind string, counted bool) {
	m.ProctorEvents.WithLabelValues(kind, strconv.FormatBool(counted)).Inc()
}

func (m *Metrics) RecordPublish(eventType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.EventPublish.WithLabelValues(eventType, status).Inc()
}

// Package events 面试生命周期与监考事件的投递。
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/qiniu/x/xlog"
	"github.com/segmentio/kafka-go"

	"github.com/solutions/mock-interview/internal/common/utils"
	"github.com/solutions/mock-interview/internal/service/metrics"
)

const (
	TypeInterviewCreated    = "interview.created"
	TypeInterviewStarted    = "interview.started"
	TypeInterviewCompleted  = "interview.completed"
	TypeInterviewTerminated = "interview.terminated"
	TypeInterviewAbandoned  = "interview.abandoned"
	TypeProctorViolation    = "proctor.violation"
)

type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	UserID    string      `json:"userId"`
	Payload   interface{} `json:"payload,omitempty"`
	Time      time.Time   `json:"time"`
}

// Publisher 事件投递接口，投递失败不影响主流程。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// KafkaPublisher 以面试ID为 key 写入 kafka，未启用时只打日志。
type KafkaPublisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
	metrics *metrics.Metrics
	xl      *xlog.Logger
}

func NewKafkaPublisher(conf utils.KafkaConfig) *KafkaPublisher {
	xl := xlog.New("event-publisher")
	p := &KafkaPublisher{
		topic:   conf.Topic,
		metrics: metrics.DefaultMetrics,
		xl:      xl,
	}
	if !conf.Enabled || len(conf.Brokers) == 0 {
		xl.Info("kafka disabled, using log-only mode")
		return p
	}
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(conf.Brokers...),
		Topic:        conf.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}
	p.enabled = true
	xl.Infof("kafka publisher initialized, brokers %v topic %s", conf.Brokers, conf.Topic)
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.xl.Errorf("failed to marshal event %s, error %v", event.Type, err)
		return err
	}
	p.xl.Debugf("publishing event %s", payload)
	if !p.enabled || p.writer == nil {
		p.metrics.RecordPublish(event.Type, nil)
		return nil
	}
	msg := kafka.Message{
		Key:   []byte(event.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.Type)},
		},
	}
	err = p.writer.WriteMessages(ctx, msg)
	p.metrics.RecordPublish(event.Type, err)
	if err != nil {
		p.xl.Errorf("failed to write event %s of session %s to kafka, error %v", event.Type, event.SessionID, err)
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

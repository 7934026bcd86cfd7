package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/courtdesk/internal/ports"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
	"github.com/Gunvolt24/courtdesk/pkg/ctxmeta"
	"github.com/Gunvolt24/courtdesk/pkg/metrics"
)

var _ ports.InvalidationPublisher = (*Publisher)(nil)

// writer — минимальный контракт над kafka.Writer для подмены в тестах.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PublisherConfig — параметры отправителя событий инвалидации.
type PublisherConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
	Origin       string // уходит в заголовке X-Courtdesk-Origin
}

// Publisher — рассылает событие {"scope": ...} другим агентам после записи.
type Publisher struct {
	writer    writer
	topic     string
	timeout   time.Duration
	origin    string
	log       ports.Logger
	closeOnce sync.Once
}

func NewPublisher(cfg *PublisherConfig, log ports.Logger) *Publisher {
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, topic: cfg.Topic, timeout: timeout, origin: cfg.Origin, log: log}
}

// Publish — отправить событие области scope. Ключ сообщения — scope:
// события одной области попадают в одну партицию и не переупорядочиваются.
func (p *Publisher) Publish(ctx context.Context, scope string) error {
	raw, err := json.Marshal(usecase.InvalidationEvent{Scope: scope})
	if err != nil {
		return fmt.Errorf("marshal invalidation event: %w", err)
	}
	msg := kafka.Message{Key: []byte(scope), Value: raw, Time: time.Now()}
	if id, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderRequestID, Value: []byte(id)})
	}
	if p.origin != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderOrigin, Value: []byte(p.origin)})
	}

	wctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.writer.WriteMessages(wctx, msg); err != nil {
		metrics.KafkaMessagesPublished.WithLabelValues(p.topic, "error").Inc()
		return fmt.Errorf("publish %s: %w", scope, err)
	}
	metrics.KafkaMessagesPublished.WithLabelValues(p.topic, "ok").Inc()
	p.log.Debugf(ctx, "invalidation published scope=%s topic=%s", scope, p.topic)
	return nil
}

// Close — закрывает writer (сбрасывает буфер).
func (p *Publisher) Close() (retErr error) {
	p.closeOnce.Do(func() {
		retErr = p.writer.Close()
	})
	return retErr
}

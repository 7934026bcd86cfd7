package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/courtdesk/internal/usecase"
	"github.com/Gunvolt24/courtdesk/pkg/ctxmeta"
	"github.com/Gunvolt24/courtdesk/pkg/metrics"
)

// Заголовки события инвалидации.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderOrigin    = "X-Courtdesk-Origin" // идентификатор агента-отправителя
)

// unknownScope — метка метрик для сообщений с ключом вне известных областей.
const unknownScope = "unknown"

// handleMessage обрабатывает одно сообщение и определяет нужно ли коммитить оффсет.
// Собственные события агента пропускаются: свои кэши он сбросил при записи.
func (c *Consumer) handleMessage(ctx context.Context, topic string, msg *kafka.Message) bool {
	scope := messageScope(msg)
	if id := headerValue(msg, HeaderRequestID); id != "" {
		ctx = ctxmeta.WithRequestID(ctx, id)
	}

	if c.origin != "" && headerValue(msg, HeaderOrigin) == c.origin {
		metrics.KafkaMessagesSkipped.WithLabelValues(topic, scope).Inc()
		c.log.Debugf(ctx, "own event skipped scope=%s partition=%d offset=%d", scope, msg.Partition, msg.Offset)
		return true
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, c.processTimeout)
	err := c.handler.HandleEvent(ctxTimeout, msg.Value)
	cancel()

	switch {
	case err == nil:
		// Успешная обработка: фиксируем метрику, задержку доставки и коммитим оффсет
		metrics.KafkaMessagesProcessed.WithLabelValues(topic, scope).Inc()
		if !msg.Time.IsZero() {
			metrics.InvalidationLag.WithLabelValues(scope).Observe(time.Since(msg.Time).Seconds())
		}
		c.log.Debugf(ctx, "event applied scope=%s partition=%d offset=%d", scope, msg.Partition, msg.Offset)
		return true
	case errors.Is(err, usecase.ErrInvalidEvent):
		// Мусор или неизвестная область: логируем и коммитим, повтор не поможет
		metrics.KafkaMessagesFailed.WithLabelValues(topic, scope, "invalid").Inc()
		c.log.Warnf(ctx, "invalid message partition=%d offset=%d: %v (skipped)", msg.Partition, msg.Offset, err)
		return true
	default:
		// Прочая ошибка (таймаут обработки): НЕ коммитим - будем обрабатывать повторно
		metrics.KafkaMessagesFailed.WithLabelValues(topic, scope, "error").Inc()
		c.log.Warnf(ctx, "process failed scope=%s offset=%d: %v (will retry without commit)", scope, msg.Offset, err)
		return false
	}
}

// messageScope — область из ключа сообщения (издатель кладёт туда scope).
func messageScope(msg *kafka.Message) string {
	if scope := string(msg.Key); usecase.ValidScope(scope) {
		return scope
	}
	return unknownScope
}

// headerValue — значение первого заголовка с именем key.
func headerValue(msg *kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// commitSafely пытается закоммитить оффсет и залогировать ошибку.
func (c *Consumer) commitSafely(ctx context.Context, msg *kafka.Message) {
	if commitErr := c.reader.CommitMessages(ctx, *msg); commitErr != nil {
		c.log.Warnf(ctx, "commit failed offset=%d: %v", msg.Offset, commitErr)
	}
}

// sleepWithBackoff ждет backoff или останавливается по контексту.
func (c *Consumer) sleepWithBackoff(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// nextBackoff возвращает следующее время ожидания повтора с учетом retryMax.
func (c *Consumer) nextBackoff(current time.Duration) time.Duration {
	current *= 2
	if current > c.retryMax {
		return c.retryMax
	}
	return current
}

// withJitterEqual — умеренная случайность: половина задержки фиксирована,
// вторая половина — случайная. Баланс между стабильностью и случайностью.
func (c *Consumer) withJitterEqual(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	jitter := time.Duration(c.jitterRand.Int63n(int64(d-half) + 1))
	return half + jitter
}

// minDuration возвращает минимальное время из двух.
func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

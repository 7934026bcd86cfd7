package kafka

import (
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ConsumerConfig — параметры читателя топика инвалидаций.
type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	StartOffset string // "first" | "last" (по умолчанию)

	// Origin — идентификатор этого агента; события с тем же X-Courtdesk-Origin пропускаются.
	Origin string

	ProcessTimeout time.Duration
	RetryInitial   time.Duration
	RetryMax       time.Duration
}

// ReaderConfig — конфигурация kafka.Reader с ручным коммитом оффсетов.
// Без явного GroupID каждый агент читает в собственной группе courtdesk-<Origin>:
// событие инвалидации должно дойти до всех агентов, а не до одного из группы.
func (c *ConsumerConfig) ReaderConfig() kafka.ReaderConfig {
	groupID := strings.TrimSpace(c.GroupID)
	if groupID == "" && c.Origin != "" {
		groupID = "courtdesk-" + c.Origin
	}
	rc := kafka.ReaderConfig{
		Brokers:        c.Brokers,
		GroupID:        groupID,
		Topic:          c.Topic,
		CommitInterval: 0,
	}

	switch strings.ToLower(strings.TrimSpace(c.StartOffset)) {
	case "first":
		rc.StartOffset = kafka.FirstOffset
	default:
		rc.StartOffset = kafka.LastOffset
	}

	return rc
}

package ports

import "context"

// InvalidationPublisher — рассылка сигнала "данные изменились" другим агентам.
type InvalidationPublisher interface {
	Publish(ctx context.Context, scope string) error
}

package ports

import "context"

// Deduplicator — не более одного выполняющегося вызова на ключ;
// конкурентные вызывающие получают один и тот же результат или одну и ту же ошибку.
type Deduplicator interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error)
}

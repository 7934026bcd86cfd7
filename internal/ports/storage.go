package ports

import "context"

// Storage — долговременное хранилище ключ/значение, переживающее перезапуск агента
// (аналог localStorage). Используемые ключи: "token" и "user".
// Требования к реализации: потокобезопасность; Remove отсутствующего ключа — не ошибка.
type Storage interface {
	// Get — значение по ключу; ("", false, nil), если ключа нет.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set — записать/перезаписать значение.
	Set(ctx context.Context, key, value string) error

	// Remove — удалить ключ.
	Remove(ctx context.Context, key string) error
}

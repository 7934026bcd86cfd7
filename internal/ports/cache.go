package ports

import "time"

// TTLCache — кэш значений с истечением срока жизни записи.
// Значения возвращаются без копирования: вызывающий код считает их read-only.
type TTLCache interface {
	Set(key string, value any, ttl time.Duration)
	Get(key string) (any, bool)
	Has(key string) bool
	Delete(key string)
	Clear()
	Keys() []string
	Size() int
}

package memory

import (
	"sync"
	"time"

	"github.com/Gunvolt24/courtdesk/pkg/metrics"
)

// DefaultTTL — срок жизни записи, если Set вызван с ttl <= 0.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

// TTLCache — потокобезопасный кэш с ленивым истечением записей.
// Просроченная запись удаляется при первом обращении к ней (Get/Has) или при Size.
// Значения хранятся и отдаются как есть, без копирования.
type TTLCache struct {
	name string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// NewTTLCache — пустой кэш; name используется как метка метрик.
func NewTTLCache(name string) *TTLCache {
	return &TTLCache{
		name:    name,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Set — записать значение; существующая запись заменяется вместе со сроком жизни.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	expiresAt := c.now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, expiresAt: expiresAt}
	c.observe("set")
}

// Get — значение по ключу; просроченная запись удаляется и считается промахом.
func (c *TTLCache) Get(key string) (any, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		metrics.CacheOps.WithLabelValues(c.name, "miss").Inc()
		return nil, false
	}
	if now.After(ent.expiresAt) {
		delete(c.entries, key)
		c.observe("expired")
		return nil, false
	}
	metrics.CacheOps.WithLabelValues(c.name, "hit").Inc()
	return ent.value, true
}

// Has — есть ли живая запись; побочные эффекты те же, что у Get.
func (c *TTLCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete — удалить запись; отсутствие ключа не ошибка.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.observe("delete")
	}
}

// Clear — удалить все записи.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
	c.observe("clear")
}

// Keys — снимок ключей, включая ещё не вычищенные просроченные.
func (c *TTLCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// Size — число живых записей; перед подсчётом вычищает просроченные.
func (c *TTLCache) Size() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeExpired(now)
	return len(c.entries)
}

// ------вспомогательные функции------

// purgeExpired — удаляет все просроченные записи. Вызывать под mu.
func (c *TTLCache) purgeExpired(now time.Time) {
	removed := false
	for k, ent := range c.entries {
		if now.After(ent.expiresAt) {
			delete(c.entries, k)
			metrics.CacheOps.WithLabelValues(c.name, "expired").Inc()
			removed = true
		}
	}
	if removed {
		metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
	}
}

// observe — счётчик операции и текущий размер. Вызывать под mu.
func (c *TTLCache) observe(op string) {
	metrics.CacheOps.WithLabelValues(c.name, op).Inc()
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

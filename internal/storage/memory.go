// Пакет storage — реализации ports.Storage без внешней БД: в памяти, файл, Redis.
// Postgres-реализация лежит в internal/repo/postgres.
package storage

import (
	"context"
	"sync"

	"github.com/Gunvolt24/courtdesk/internal/ports"
)

var _ ports.Storage = (*Memory)(nil)

// Memory — хранилище в памяти процесса; сессия не переживает перезапуск.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

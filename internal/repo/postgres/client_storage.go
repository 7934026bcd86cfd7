package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Gunvolt24/courtdesk/internal/ports"
)

// Проверка, что ClientStorage удовлетворяет интерфейсу Storage.
var _ ports.Storage = (*ClientStorage)(nil)

// ClientStorage — долговременное хранилище сессии агента в Postgres (pgxpool).
// Ключи разделяются по namespace: несколько агентов могут делить одну БД.
type ClientStorage struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewClientStorage — конструктор ClientStorage.
func NewClientStorage(pool *pgxpool.Pool, namespace string) *ClientStorage {
	if namespace == "" {
		namespace = "default"
	}
	return &ClientStorage{pool: pool, namespace: namespace}
}

// Get — значение по ключу; ("", false, nil), если записи нет.
func (s *ClientStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM client_storage
		WHERE namespace = $1 AND key = $2
	`, s.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

// Set — upsert по (namespace, key).
func (s *ClientStorage) Set(ctx context.Context, key, value string) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO client_storage (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, s.namespace, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Remove — удалить ключ; отсутствие записи не ошибка.
func (s *ClientStorage) Remove(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `
		DELETE FROM client_storage WHERE namespace = $1 AND key = $2
	`, s.namespace, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

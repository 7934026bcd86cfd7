package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Gunvolt24/courtdesk/internal/ports"
	"github.com/Gunvolt24/courtdesk/pkg/metrics"
)

// Области инвалидации.
const (
	ScopeUser    = "user"
	ScopeCatalog = "catalog"
	ScopeAll     = "all"
)

// ValidScope — известна ли область инвалидации.
func ValidScope(scope string) bool {
	switch scope {
	case ScopeSettings, ScopeUser, ScopeCatalog, ScopeAll:
		return true
	}
	return false
}

// ErrInvalidEvent — событие не разобрать или область неизвестна; повтор не поможет.
var ErrInvalidEvent = errors.New("invalid invalidation event")

// InvalidationEvent — сообщение "данные изменились" от другого агента или бэкенда.
type InvalidationEvent struct {
	Scope string `json:"scope"`
}

// Invalidator — применяет события инвалидации к кэшам агента.
type Invalidator struct {
	auth     *AuthService
	settings *SettingsService
	catalog  *CatalogService
	log      ports.Logger
}

func NewInvalidator(auth *AuthService, settings *SettingsService, catalog *CatalogService, log ports.Logger) *Invalidator {
	return &Invalidator{auth: auth, settings: settings, catalog: catalog, log: log}
}

// HandleEvent — разобрать событие из сообщения и сбросить соответствующие кэши.
// Возвращает ErrInvalidEvent для сообщений, которые нужно пропустить.
func (i *Invalidator) HandleEvent(ctx context.Context, raw []byte) error {
	var ev InvalidationEvent
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&ev); err != nil {
		metrics.InvalidationEvents.WithLabelValues("unknown", "invalid").Inc()
		i.log.Warnf(ctx, "invalid invalidation event: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := i.Invalidate(ctx, ev.Scope); err != nil {
		metrics.InvalidationEvents.WithLabelValues("unknown", "invalid").Inc()
		return err
	}
	metrics.InvalidationEvents.WithLabelValues(ev.Scope, "applied").Inc()
	return nil
}

// Invalidate — сбросить кэши области scope.
func (i *Invalidator) Invalidate(ctx context.Context, scope string) error {
	switch scope {
	case ScopeSettings:
		i.settings.ClearSettingsCache()
	case ScopeUser:
		i.auth.ClearUserCache()
	case ScopeCatalog:
		i.catalog.Invalidate()
	case ScopeAll:
		i.settings.ClearSettingsCache()
		i.auth.ClearUserCache()
		i.catalog.Invalidate()
	default:
		i.log.Warnf(ctx, "unknown invalidation scope %q", scope)
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidEvent, scope)
	}
	i.log.Infof(ctx, "caches invalidated scope=%s", scope)
	return nil
}

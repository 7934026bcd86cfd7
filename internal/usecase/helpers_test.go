package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/Gunvolt24/courtdesk/internal/cache/memory"
	"github.com/Gunvolt24/courtdesk/internal/dedup"
	"github.com/Gunvolt24/courtdesk/internal/ports/mocks"
	"github.com/Gunvolt24/courtdesk/internal/storage"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
)

type noopLogger struct{}

func (noopLogger) Debugf(context.Context, string, ...any) {}
func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

func ptr[T any](v T) *T { return &v }

type authFixture struct {
	svc   *usecase.AuthService
	api   *mocks.MockAuthAPI
	store *storage.Memory
	cache *memory.TTLCache
}

func newAuthFixture(t *testing.T, ttl time.Duration) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &authFixture{
		api:   mocks.NewMockAuthAPI(ctrl),
		store: storage.NewMemory(),
		cache: memory.NewTTLCache("test"),
	}
	f.svc = usecase.NewAuthService(f.api, f.store, f.cache, dedup.New(time.Second), noopLogger{}, ttl)
	return f
}

type settingsFixture struct {
	svc *usecase.SettingsService
	api *mocks.MockSettingsAPI
	pub *mocks.MockInvalidationPublisher
}

func newSettingsFixture(t *testing.T, ttl usecase.SettingsTTL) *settingsFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &settingsFixture{
		api: mocks.NewMockSettingsAPI(ctrl),
		pub: mocks.NewMockInvalidationPublisher(ctrl),
	}
	f.svc = usecase.NewSettingsService(f.api, memory.NewTTLCache("test"), dedup.New(time.Second), f.pub, noopLogger{}, ttl)
	return f
}

// waitSignal — ждёт сигнала с таймаутом, чтобы тест не зависал.
func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for signal")
	}
}

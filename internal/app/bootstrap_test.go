package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/courtdesk/config"
	"github.com/Gunvolt24/courtdesk/internal/app"
)

// логгер-заглушка
type nopLogger struct{}

func (nopLogger) Debugf(context.Context, string, ...any) {}
func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

// фейковый консьюмер, который ждёт отмены контекста
type fakeConsumer struct {
	runCalls   int32
	closeCalls int32
}

func (f *fakeConsumer) Run(ctx context.Context) error {
	atomic.AddInt32(&f.runCalls, 1)
	<-ctx.Done()
	return ctx.Err()
}
func (f *fakeConsumer) Close() error {
	atomic.AddInt32(&f.closeCalls, 1)
	return nil
}

func TestAppRun_GracefulShutdown(t *testing.T) {
	// HTTP-сервер на случайном свободном порту
	srv := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}

	fc := &fakeConsumer{}
	a := &app.App{
		Logger:        nopLogger{},
		HTTPServer:    srv,
		KafkaConsumer: fc,
	}

	// Запуск и быстрая остановка
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if atomic.LoadInt32(&fc.runCalls) == 0 {
		t.Fatalf("consumer.Run should be called")
	}
	if atomic.LoadInt32(&fc.closeCalls) == 0 {
		t.Fatalf("consumer.Close should be called")
	}
}

func TestAppRun_WithoutKafka(t *testing.T) {
	a := &app.App{
		Logger:        nopLogger{},
		HTTPServer:    &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()},
		MetricsServer: &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, a.Run(ctx))
}

func TestAppRun_ListenFailure_ReturnsError(t *testing.T) {
	a := &app.App{
		Logger:     nopLogger{},
		HTTPServer: &http.Server{Addr: "definitely-not-an-address", Handler: http.NewServeMux()},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Error(t, a.Run(ctx))
}

func TestNewStorage_Backends(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		st, closeFn, err := app.NewStorage(ctx, config.Storage{Backend: "memory"})
		require.NoError(t, err)
		defer closeFn()

		require.NoError(t, st.Set(ctx, "token", "t1"))
		v, ok, err := st.Get(ctx, "token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "t1", v)
	})

	t.Run("file survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		st, closeFn, err := app.NewStorage(ctx, config.Storage{Backend: "file", FilePath: path})
		require.NoError(t, err)
		require.NoError(t, st.Set(ctx, "token", "t1"))
		closeFn()

		again, closeAgain, err := app.NewStorage(ctx, config.Storage{Backend: "file", FilePath: path})
		require.NoError(t, err)
		defer closeAgain()
		v, ok, err := again.Get(ctx, "token")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "t1", v)
	})

	t.Run("unknown", func(t *testing.T) {
		_, closeFn, err := app.NewStorage(ctx, config.Storage{Backend: "sqlite"})
		require.Error(t, err)
		closeFn()
	})
}

// Собранный агент отвечает на /ping и требует сессию на защищённых маршрутах.
func TestBootstrap_MemoryBackend_ServesGateway(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	defer backend.Close()

	cfg := &config.Config{
		HTTP: config.HTTP{
			Addr:           "127.0.0.1:0",
			GinMode:        "test",
			HandlerTimeout: time.Second,
		},
		API:     config.API{BaseURL: backend.URL, Timeout: time.Second},
		Storage: config.Storage{Backend: "memory"},
		Cache: config.Cache{
			UserTTL:      time.Minute,
			SettingsTTL:  time.Minute,
			CatalogTTL:   time.Minute,
			DedupTimeout: time.Second,
		},
	}

	a, cleanup, err := app.Bootstrap(context.Background(), cfg, nopLogger{})
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, a.KafkaConsumer)
	assert.Nil(t, a.MetricsServer)

	rec := httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/staff/ping", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

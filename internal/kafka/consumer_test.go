package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/courtdesk/internal/kafka/mocks"
	"github.com/Gunvolt24/courtdesk/internal/usecase"
	"github.com/Gunvolt24/courtdesk/pkg/ctxmeta"
	"github.com/Gunvolt24/courtdesk/pkg/metrics"
)

type nopLogger struct{}

func (nopLogger) Debugf(context.Context, string, ...any) {}
func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

// runAsync запускает Consumer.Run в отдельном горутине и возвращает канал с ошибкой.
func runAsync(ctx context.Context, c *Consumer) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	return errCh
}

func newTestConsumer(r reader, h eventHandler) *Consumer {
	return &Consumer{
		reader: r, handler: h, log: nopLogger{},
		processTimeout: 30 * time.Millisecond,
		retryInitial:   5 * time.Millisecond,
		retryMax:       10 * time.Millisecond,
		jitterRand:     rand.New(rand.NewSource(1)),
	}
}

// Успешная обработка + коммит
func TestRun_OK_Commits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockeventHandler(ctrl)

	rc := kafka.ReaderConfig{Topic: "courtdesk.invalidation", GroupID: "g1", Brokers: []string{"b:9092"}}
	r.EXPECT().Config().Return(rc).AnyTimes()
	// 1-й цикл: сообщение обрабатывается
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 1, Value: []byte(`{"scope":"settings"}`)}, nil)
	s.EXPECT().HandleEvent(gomock.Any(), []byte(`{"scope":"settings"}`)).Return(nil)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
	// 2-й fetch блокируется до отмены контекста
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		})

	c := newTestConsumer(r, s)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for Run to stop")
	}
}

// Нераспознанное событие => тоже коммитим (чтобы не ретраить мусор)
func TestRun_InvalidEvent_Commits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockeventHandler(ctrl)

	rc := kafka.ReaderConfig{Topic: "courtdesk.invalidation", GroupID: "g1", Brokers: []string{"b:9092"}}
	r.EXPECT().Config().Return(rc).AnyTimes()

	// 1-й цикл: получили сообщение, обработчик вернул usecase.ErrInvalidEvent, выполняем CommitMessages
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 7, Value: []byte("bad")}, nil)
	s.EXPECT().HandleEvent(gomock.Any(), []byte("bad")).Return(usecase.ErrInvalidEvent)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)

	// 2-й fetch будет ждать отмены
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		})

	c := newTestConsumer(r, s)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for Run to stop")
	}
}

// Прочая ошибка обработчика (таймаут) => НЕ коммитим
func TestRun_TemporaryFailure_NoCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockeventHandler(ctrl)

	rc := kafka.ReaderConfig{Topic: "courtdesk.invalidation", GroupID: "g1", Brokers: []string{"b:9092"}}
	r.EXPECT().Config().Return(rc).AnyTimes()

	// 1-й цикл: получили сообщение, обработчик вернул прочую ошибку -> CommitMessages НЕ вызывается
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 2, Value: []byte("x")}, nil)
	s.EXPECT().HandleEvent(gomock.Any(), []byte("x")).Return(context.DeadlineExceeded)
	// Никаких r.EXPECT().CommitMessages(...) специально НЕ ставим:
	// если Consumer по ошибке его вызовет — тест упадёт как "unexpected call".

	// 2-й fetch блокируется до отмены
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		})

	c := newTestConsumer(r, s)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for Run to stop")
	}
}

// Ошибки FetchMessage ретраятся; по отмене контекста — корректный выход
func TestRun_FetchError_RetryThenStopOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockeventHandler(ctrl)

	rc := kafka.ReaderConfig{Topic: "courtdesk.invalidation", GroupID: "g1", Brokers: []string{"b:9092"}}
	r.EXPECT().Config().Return(rc).AnyTimes()

	// Всегда возвращаем ошибку брокера; Consumer будет ждать по backoff и ретраить,
	// пока не отменится контекст
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(_ context.Context) (kafka.Message, error) {
			return kafka.Message{}, errors.New("broker error")
		}).AnyTimes()

	c := newTestConsumer(r, s)

	// Короткий таймаут, чтобы быстро выйти
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	if err := c.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

// CommitMessages вернул ошибку — получаем предупреждение; цикл живёт дальше
func TestRun_CommitWarnOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockeventHandler(ctrl)

	rc := kafka.ReaderConfig{Topic: "courtdesk.invalidation", GroupID: "g1", Brokers: []string{"b:9092"}}
	r.EXPECT().Config().Return(rc).AnyTimes()

	// 1-й цикл: обработчик работает, но CommitMessages возвращает ошибку — не должен падать
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 3, Value: []byte(`{"scope":"settings"}`)}, nil)
	s.EXPECT().HandleEvent(gomock.Any(), []byte(`{"scope":"settings"}`)).Return(nil)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).
		Return(errors.New("temporary"))

	// 2-й fetch блокируется до отмены
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		})

	c := newTestConsumer(r, s)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for Run to stop")
	}
}

// Проверка Close() прокидывает вызов в reader.Close()
func TestClose_DelegatesToReader(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockeventHandler(ctrl)

	// Close должен быть вызван и вернуть nil
	r.EXPECT().Close().Return(nil)

	c := newTestConsumer(r, s)
	if err := c.Close(); err != nil {
		t.Fatalf("expected nil from Close, got %v", err)
	}
}

// Обёрнутая ErrInvalidEvent (как её возвращает Invalidator) тоже коммитится
func TestHandleMessage_WrappedInvalidEvent_Commits(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockeventHandler(ctrl)
	s.EXPECT().HandleEvent(gomock.Any(), []byte(`{"scope":"x"}`)).
		Return(fmt.Errorf("%w: unknown scope %q", usecase.ErrInvalidEvent, "x"))

	c := newTestConsumer(mocks.NewMockreader(ctrl), s)
	msg := kafka.Message{Offset: 4, Value: []byte(`{"scope":"x"}`)}
	if !c.handleMessage(context.Background(), "courtdesk.invalidation", &msg) {
		t.Fatal("wrapped invalid event must be committed")
	}
}

// Обработчик получает контекст с таймаутом обработки
func TestHandleMessage_ProcessTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockeventHandler(ctrl)
	s.EXPECT().HandleEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []byte) error {
			<-ctx.Done()
			return ctx.Err()
		})

	c := newTestConsumer(mocks.NewMockreader(ctrl), s)
	msg := kafka.Message{Offset: 5}
	if c.handleMessage(context.Background(), "courtdesk.invalidation", &msg) {
		t.Fatal("timed out processing must not be committed")
	}
}

// Собственное событие агента коммитится без обращения к обработчику
func TestHandleMessage_OwnEventSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockeventHandler(ctrl) // HandleEvent не ожидается

	c := newTestConsumer(mocks.NewMockreader(ctrl), s)
	c.origin = "agent-a"

	topic := "own-skip"
	before := testutil.ToFloat64(metrics.KafkaMessagesSkipped.WithLabelValues(topic, usecase.ScopeSettings))
	msg := kafka.Message{
		Offset: 8,
		Key:    []byte(usecase.ScopeSettings),
		Value:  []byte(`{"scope":"settings"}`),
		Headers: []kafka.Header{
			{Key: HeaderOrigin, Value: []byte("agent-a")},
		},
	}
	if !c.handleMessage(context.Background(), topic, &msg) {
		t.Fatal("own event must be committed")
	}
	if got := testutil.ToFloat64(metrics.KafkaMessagesSkipped.WithLabelValues(topic, usecase.ScopeSettings)); got != before+1 {
		t.Fatalf("skipped counter: got=%v want=%v", got, before+1)
	}
}

// Событие другого агента применяется; X-Request-ID доходит до обработчика через контекст
func TestHandleMessage_ForeignEventCarriesRequestID(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockeventHandler(ctrl)
	s.EXPECT().HandleEvent(gomock.Any(), []byte(`{"scope":"catalog"}`)).
		DoAndReturn(func(ctx context.Context, _ []byte) error {
			id, ok := ctxmeta.RequestIDFromContext(ctx)
			if !ok || id != "req-7" {
				t.Errorf("request id in handler ctx: got %q ok=%v", id, ok)
			}
			return nil
		})

	c := newTestConsumer(mocks.NewMockreader(ctrl), s)
	c.origin = "agent-a"

	topic := "foreign-apply"
	before := testutil.ToFloat64(metrics.KafkaMessagesProcessed.WithLabelValues(topic, usecase.ScopeCatalog))
	msg := kafka.Message{
		Offset: 9,
		Key:    []byte(usecase.ScopeCatalog),
		Value:  []byte(`{"scope":"catalog"}`),
		Time:   time.Now().Add(-time.Second),
		Headers: []kafka.Header{
			{Key: HeaderRequestID, Value: []byte("req-7")},
			{Key: HeaderOrigin, Value: []byte("agent-b")},
		},
	}
	if !c.handleMessage(context.Background(), topic, &msg) {
		t.Fatal("applied event must be committed")
	}
	if got := testutil.ToFloat64(metrics.KafkaMessagesProcessed.WithLabelValues(topic, usecase.ScopeCatalog)); got != before+1 {
		t.Fatalf("processed counter: got=%v want=%v", got, before+1)
	}
}

// Без собственного origin (консьюмер без метки) применяются все события
func TestHandleMessage_NoOriginAppliesEverything(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockeventHandler(ctrl)
	s.EXPECT().HandleEvent(gomock.Any(), gomock.Any()).Return(nil)

	c := newTestConsumer(mocks.NewMockreader(ctrl), s)
	msg := kafka.Message{
		Key:     []byte(usecase.ScopeAll),
		Headers: []kafka.Header{{Key: HeaderOrigin, Value: []byte("")}},
	}
	if !c.handleMessage(context.Background(), "no-origin", &msg) {
		t.Fatal("event must be applied and committed")
	}
}

// Ключ вне известных областей не раздувает метки метрик
func TestHandleMessage_UnknownKeyCountedAsUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockeventHandler(ctrl)
	s.EXPECT().HandleEvent(gomock.Any(), []byte("junk")).Return(usecase.ErrInvalidEvent)

	c := newTestConsumer(mocks.NewMockreader(ctrl), s)

	topic := "unknown-key"
	before := testutil.ToFloat64(metrics.KafkaMessagesFailed.WithLabelValues(topic, unknownScope, "invalid"))
	msg := kafka.Message{Key: []byte("bookings-2025"), Value: []byte("junk")}
	if !c.handleMessage(context.Background(), topic, &msg) {
		t.Fatal("invalid event must be committed")
	}
	if got := testutil.ToFloat64(metrics.KafkaMessagesFailed.WithLabelValues(topic, unknownScope, "invalid")); got != before+1 {
		t.Fatalf("failed counter: got=%v want=%v", got, before+1)
	}
}

func TestMessageScopeAndHeaderValue(t *testing.T) {
	msg := kafka.Message{
		Key: []byte("user"),
		Headers: []kafka.Header{
			{Key: HeaderRequestID, Value: []byte("first")},
			{Key: HeaderRequestID, Value: []byte("second")},
		},
	}
	if got := messageScope(&msg); got != usecase.ScopeUser {
		t.Fatalf("scope: got %q", got)
	}
	if got := headerValue(&msg, HeaderRequestID); got != "first" {
		t.Fatalf("header: got %q", got)
	}
	if got := headerValue(&msg, HeaderOrigin); got != "" {
		t.Fatalf("missing header: got %q", got)
	}
	if got := messageScope(&kafka.Message{}); got != unknownScope {
		t.Fatalf("empty key scope: got %q", got)
	}
}

//go:build integration

// Пакет testutil — окружение интеграционных тестов агента на testcontainers:
// Postgres с применёнными миграциями хранилища сессии, Redis и Redpanda для событий инвалидации.
package testutil

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/testcontainers/testcontainers-go/wait"

	pgrepo "github.com/Gunvolt24/courtdesk/internal/repo/postgres"
)

var tcLogger = log.New(os.Stdout, "[tc] ", log.LstdFlags)

// StopFunc — останавливает контейнер и освобождает связанные ресурсы.
type StopFunc func(context.Context) error

func shortID(c tc.Container) string {
	id := c.GetContainerID()
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// lifecycleLog — хуки, печатающие этапы жизни контейнера с именем сервиса.
func lifecycleLog(service string) tc.ContainerLifecycleHooks {
	stage := func(event string) []tc.ContainerHook {
		return []tc.ContainerHook{func(_ context.Context, c tc.Container) error {
			tcLogger.Printf("%s %s id=%s", service, event, shortID(c))
			return nil
		}}
	}
	return tc.ContainerLifecycleHooks{
		PreCreates: []tc.ContainerRequestHook{func(_ context.Context, req tc.ContainerRequest) error {
			tcLogger.Printf("%s creating image=%s", service, req.Image)
			return nil
		}},
		PostStarts:     stage("started"),
		PostReadies:    stage("ready"),
		PreTerminates:  stage("terminating"),
		PostTerminates: stage("terminated"),
	}
}

// ----------------------------------------------------------------------------
// Postgres: хранилище сессии
// ----------------------------------------------------------------------------

// PGContainer — Postgres со схемой client_storage.
type PGContainer struct {
	Container     *postgres.PostgresContainer
	Pool          *pgxpool.Pool
	DSN           string
	SchemaVersion int64
}

// StartPostgresTC — поднимает Postgres и применяет встроенные миграции хранилища.
func StartPostgresTC(ctx context.Context) (*PGContainer, StopFunc, error) {
	pg, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		tc.WithLifecycleHooks(lifecycleLog("postgres")),
		postgres.WithDatabase("courtdesk"),
		postgres.WithUsername("courtdesk"),
		postgres.WithPassword("courtdesk"),
		// сообщение о готовности печатается дважды: при init-скриптах и при боевом старте
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run postgres: %w", err)
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, nil, fmt.Errorf("conn string: %w", err)
	}

	pool, err := pgrepo.NewPool(ctx, dsn, 4)
	if err != nil {
		_ = pg.Terminate(ctx)
		return nil, nil, fmt.Errorf("new pool: %w", err)
	}

	version, err := pgrepo.Migrate(ctx, pool)
	if err != nil {
		pool.Close()
		_ = pg.Terminate(ctx)
		return nil, nil, err
	}

	stop := func(c context.Context) error {
		pool.Close()
		return pg.Terminate(c)
	}
	return &PGContainer{Container: pg, Pool: pool, DSN: dsn, SchemaVersion: version}, stop, nil
}

// ----------------------------------------------------------------------------
// Redis: общее хранилище сессии нескольких агентов
// ----------------------------------------------------------------------------

// StartRedisTC — поднимает Redis и возвращает адрес host:port.
func StartRedisTC(ctx context.Context) (string, StopFunc, error) {
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:          "redis:7-alpine",
			ExposedPorts:   []string{"6379/tcp"},
			WaitingFor:     wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
			LifecycleHooks: []tc.ContainerLifecycleHooks{lifecycleLog("redis")},
		},
		Started: true,
	})
	if err != nil {
		return "", nil, fmt.Errorf("run redis: %w", err)
	}

	addr, err := c.Endpoint(ctx, "")
	if err != nil {
		_ = tc.TerminateContainer(c)
		return "", nil, fmt.Errorf("redis endpoint: %w", err)
	}
	stop := func(_ context.Context) error { return tc.TerminateContainer(c) }
	return addr, stop, nil
}

// ----------------------------------------------------------------------------
// Redpanda: топик событий инвалидации
// ----------------------------------------------------------------------------

// KafkaEnv — брокер и базовое имя топика инвалидаций.
type KafkaEnv struct {
	Container *redpanda.Container
	Brokers   []string
	BaseTopic string
}

// StartKafkaTC — поднимает Redpanda с автосозданием топиков.
func StartKafkaTC(ctx context.Context, baseTopic string) (*KafkaEnv, StopFunc, error) {
	rp, err := redpanda.Run(
		ctx,
		"docker.redpanda.com/redpandadata/redpanda:v23.3.8",
		tc.WithLifecycleHooks(lifecycleLog("redpanda")),
		redpanda.WithAutoCreateTopics(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run redpanda: %w", err)
	}

	seed, err := rp.KafkaSeedBroker(ctx)
	if err != nil {
		_ = tc.TerminateContainer(rp)
		return nil, nil, fmt.Errorf("seed broker: %w", err)
	}

	env := &KafkaEnv{Container: rp, Brokers: []string{seed}, BaseTopic: baseTopic}
	stop := func(_ context.Context) error { return tc.TerminateContainer(rp) }
	return env, stop, nil
}

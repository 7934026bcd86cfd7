// Пакет dedup — схлопывание одинаковых конкурентных запросов в один вызов.
package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Gunvolt24/courtdesk/pkg/metrics"
)

// DefaultTimeout — максимальное время ожидания одного вызова.
const DefaultTimeout = 30 * time.Second

// ErrTimeout — вызов не завершился за отведённое время; регистрация снята,
// следующий вызов с тем же ключом начнётся заново.
var ErrTimeout = errors.New("deduplicated call timed out")

// Group — не более одного выполняющегося вызова на ключ.
// Все конкурентные вызывающие получают одно и то же значение или одну и ту же ошибку.
// Регистрация ключа снимается до того, как результат увидит хотя бы один вызывающий,
// поэтому последующий вызов всегда начинает новый запрос.
type Group struct {
	sf      singleflight.Group
	timeout time.Duration
	pending atomic.Int64
}

// New — группа с ограничением времени вызова; timeout <= 0 — DefaultTimeout.
func New(timeout time.Duration) *Group {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Group{timeout: timeout}
}

// Do — выполнить fn под ключом key или присоединиться к уже выполняющемуся вызову.
//
// fn получает контекст, не зависящий от отмены ctx первого вызывающего
// (результат общий), но ограниченный таймаутом группы. Отмена ctx снимает
// с ожидания только этого вызывающего.
func (g *Group) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	led := false
	ch := g.sf.DoChan(key, func() (any, error) {
		led = true
		g.pending.Add(1)
		metrics.DedupInFlight.Inc()
		defer func() {
			g.pending.Add(-1)
			metrics.DedupInFlight.Dec()
		}()
		return g.run(ctx, key, fn)
	})

	select {
	case res := <-ch:
		switch {
		case errors.Is(res.Err, ErrTimeout):
			metrics.DedupRequests.WithLabelValues("timeout").Inc()
		case led:
			metrics.DedupRequests.WithLabelValues("leader").Inc()
		default:
			metrics.DedupRequests.WithLabelValues("shared").Inc()
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pending — число ключей, под которыми сейчас выполняется вызов.
// Ключ перестаёт учитываться, как только снята его регистрация (результат или таймаут).
func (g *Group) Pending() int {
	return int(g.pending.Load())
}

// run — выполняет fn с таймаутом. Зависший fn продолжает работать в фоне,
// но запись singleflight снимается по истечении таймаута.
func (g *Group) run(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	type result struct {
		val any
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("dedup %s: panic: %v", key, r)}
			}
		}()
		v, err := fn(callCtx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-callCtx.Done():
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, key, g.timeout)
	}
}

// Key — ключ запроса: имя операции и аргументы в JSON.
// Ключи map сериализуются отсортированными, порядок позиционных аргументов значим.
func Key(name string, args ...any) string {
	if len(args) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			raw = []byte(fmt.Sprintf("%q", fmt.Sprint(a)))
		}
		b.WriteByte(':')
		b.Write(raw)
	}
	return b.String()
}

// Пакет apiclient — REST-клиент удалённого API бронирований.
// Ответы 422 с полем errors превращаются в *domain.ValidationError, прочие статусы >= 400 —
// в *domain.APIError, сбои транспорта — в *domain.NetworkError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Gunvolt24/courtdesk/internal/domain"
	"github.com/Gunvolt24/courtdesk/internal/ports"
	"github.com/Gunvolt24/courtdesk/pkg/ctxmeta"
	"github.com/Gunvolt24/courtdesk/pkg/metrics"
)

var (
	_ ports.AuthAPI     = (*Client)(nil)
	_ ports.SettingsAPI = (*Client)(nil)
	_ ports.CatalogAPI  = (*Client)(nil)
)

// DefaultTimeout — таймаут HTTP-клиента по умолчанию.
const DefaultTimeout = 15 * time.Second

// maxErrorBody — сколько байт тела ошибки читать для разбора сообщения.
const maxErrorBody = 64 << 10

// TokenSource — откуда брать bearer-токен текущей сессии.
// Пустая строка без ошибки — запрос уходит без Authorization.
type TokenSource func(ctx context.Context) (string, error)

// Client — клиент API бронирований. Безопасен для конкурентного использования.
type Client struct {
	baseURL   string
	http      *http.Client
	token     TokenSource
	userAgent string
}

// Option — настройка клиента.
type Option func(*Client)

// WithHTTPClient — свой *http.Client (транспорт не оборачивается).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout — таймаут одного запроса.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTokenSource — источник bearer-токена.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithUserAgent — значение заголовка User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New — клиент для baseURL (например, "https://api.example.com/api").
// Транспорт по умолчанию инструментирован otelhttp.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userAgent: "courtdesk-agent",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope — стандартная обёртка ответа {"data": ...}.
type envelope[T any] struct {
	Data T `json:"data"`
}

// errorBody — тело ответа с ошибкой.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// request — описание одного вызова API.
type request struct {
	method      string
	path        string
	query       map[string]string
	body        io.Reader
	contentType string
}

// jsonRequest — запрос с JSON-телом (payload == nil — без тела).
func jsonRequest(method, path string, payload any) (request, error) {
	req := request{method: method, path: path}
	if payload == nil {
		return req, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("marshal %s %s: %w", method, path, err)
	}
	req.body = bytes.NewReader(raw)
	req.contentType = "application/json"
	return req, nil
}

// do — выполняет запрос и декодирует успешный ответ в out (out == nil — тело игнорируется).
func (c *Client) do(ctx context.Context, r request, out any) (err error) {
	endpoint := r.method + " " + r.path
	start := time.Now()
	status := "error"
	defer func() {
		metrics.APIRequests.WithLabelValues(endpoint, status).Inc()
		metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("create request %s: %w", endpoint, err)
	}
	if len(r.query) > 0 {
		q := req.URL.Query()
		for k, v := range r.query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	if err := c.setHeaders(ctx, req, r.contentType); err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("decode %s: empty body", endpoint)
		}
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, contentType string) error {
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if rid, ok := ctxmeta.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", rid)
	}
	if c.token == nil {
		return nil
	}
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// decodeError — ошибка по ответу со статусом >= 400.
func decodeError(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &body)

	if resp.StatusCode == http.StatusUnprocessableEntity && len(body.Errors) > 0 {
		return &domain.ValidationError{Fields: body.Errors}
	}
	return &domain.APIError{Status: resp.StatusCode, Message: body.Message}
}

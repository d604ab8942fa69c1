// Package api — клиент REST-бэкенда посещаемости.
// Один Client на чат: он знает токен чата и что делать при 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rusl-cricket/attendance-bot/internal/logging"
	"github.com/rusl-cricket/attendance-bot/internal/metrics"
)

// Tokens — источник токена и место, которое чистится при 401 (session.Store).
type Tokens interface {
	Token(ctx context.Context) string
	Clear(ctx context.Context) error
}

type Client struct {
	BaseURL string
	HTTP    *http.Client

	tokens         Tokens
	onUnauthorized func(ctx context.Context)
	log            *zap.Logger
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// OnUnauthorized — «навигация на логин» после 401.
func OnUnauthorized(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, hc *http.Client, tokens Tokens, opts ...Option) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    hc,
		tokens:  tokens,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type call struct {
	endpoint string // метка для метрик/логов
	method   string
	path     string
	query    url.Values
	in       any

	// anonymous — вызовы со страницы логина: 401 там значит «неверные данные», а не «сессия истекла».
	anonymous bool
}

// do выполняет запрос; тело ответа возвращается сырым, статус 2xx гарантирован.
func (c *Client) do(ctx context.Context, cl call) ([]byte, int, error) {
	u := c.BaseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.in != nil {
		raw, err := json.Marshal(cl.in)
		if err != nil {
			return nil, 0, fmt.Errorf("api %s: encode: %w", cl.endpoint, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, 0, err
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	t0 := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.ObserveAPI(cl.endpoint, "error", time.Since(t0))
		logging.With(ctx, c.log).Warn("api request failed",
			zap.String("endpoint", cl.endpoint), zap.String("request_id", reqID), zap.Error(err))
		return nil, 0, fmt.Errorf("api %s: %w", cl.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	metrics.ObserveAPI(cl.endpoint, strconv.Itoa(resp.StatusCode), time.Since(t0))
	logging.With(ctx, c.log).Debug("api request",
		zap.String("endpoint", cl.endpoint),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(t0)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		if cl.anonymous {
			c.clearSession(ctx)
			return nil, resp.StatusCode, &Error{Status: resp.StatusCode, Message: backendMessage(raw)}
		}
		c.unauthorized(ctx)
		return nil, resp.StatusCode, ErrUnauthorized
	}
	if resp.StatusCode/100 != 2 {
		return nil, resp.StatusCode, &Error{Status: resp.StatusCode, Message: backendMessage(raw)}
	}
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("api %s: read body: %w", cl.endpoint, readErr)
	}
	return raw, resp.StatusCode, nil
}

// unauthorized — глобальная политика: чистим сессию и уводим чат на логин.
func (c *Client) unauthorized(ctx context.Context) {
	metrics.Unauthorized.Inc()
	c.clearSession(ctx)
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func (c *Client) clearSession(ctx context.Context) {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.Clear(ctx); err != nil {
		logging.With(ctx, c.log).Warn("session clear after 401 failed", zap.Error(err))
	}
}

func (c *Client) doJSON(ctx context.Context, cl call, out any) error {
	raw, _, err := c.do(ctx, cl)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decode(raw, out); err != nil {
		return fmt.Errorf("api %s: decode: %w", cl.endpoint, err)
	}
	return nil
}

func decode(raw []byte, out any) error { return json.Unmarshal(raw, out) }

// backendMessage достаёт текст ошибки: {"message": ...}, {"error": ...} или короткий plain text.
func backendMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	if raw[0] == '{' || raw[0] == '[' || raw[0] == '<' || len(raw) > 300 {
		return ""
	}
	return string(raw)
}

func statusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

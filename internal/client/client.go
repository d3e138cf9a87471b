package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL 本地开发时后端的默认地址。
const DefaultBaseURL = "http://localhost:5000/api"

const maxErrorBody = 64 << 10

// UnauthorizedFunc 在任何请求收到 401 后被调用，令牌此时已清除。
type UnauthorizedFunc func(ctx context.Context)

// ObserveFunc receives one call per request. status is 0 on transport errors.
type ObserveFunc func(method, route string, status int, elapsed time.Duration)

// Client 是外部 REST 后端的类型化封装。一个逻辑操作对应一次 HTTP 请求，不做重试。
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenStore
	onUnauthorized UnauthorizedFunc
	observe        ObserveFunc
	tracer         trace.Tracer
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDefaultTokenStore sets the store used when the request context carries none.
func WithDefaultTokenStore(store TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

// WithUnauthorizedHook 注册全局 401 处理。
func WithUnauthorizedHook(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithObserver 注册请求耗时回调，用于指标采集。
func WithObserver(fn ObserveFunc) Option {
	return func(c *Client) { c.observe = fn }
}

// WithLogger sets the logger used for transport failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTracer overrides the tracer, mostly for tests.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) { c.tracer = tracer }
}

// New 创建客户端。baseURL 为空时使用 DefaultBaseURL。
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("devfolio/internal/client")
	}
	return c
}

// BaseURL returns the normalized backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) tokenStore(ctx context.Context) TokenStore {
	if store, ok := TokenStoreFromContext(ctx); ok {
		return store
	}
	return c.tokens
}

// do 发送一次请求。route 是不含参数值的路由模板，只用于 span 命名。
func (c *Client) do(ctx context.Context, method, route, path string, query url.Values, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "backend "+method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("http.route", route),
		),
	)
	defer func() {
		if err != nil && !errors.Is(err, context.Canceled) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, route, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, route, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	store := c.tokenStore(ctx)
	if store != nil {
		token, err := store.Token(ctx)
		if err != nil {
			return fmt.Errorf("load session token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.observe != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		c.observe(method, route, status, time.Since(start))
	}
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("backend request failed",
				slog.String("method", method),
				slog.String("route", route),
				slog.Any("error", err),
			)
		}
		return fmt.Errorf("%s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized(ctx, store)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, route, err)
	}
	return nil
}

// handleUnauthorized 是全局 401 策略：清除令牌并通知上层跳转登录。
func (c *Client) handleUnauthorized(ctx context.Context, store TokenStore) {
	if store != nil {
		if err := store.ClearToken(context.WithoutCancel(ctx)); err != nil {
			c.logger.Error("clear session token failed", slog.Any("error", err))
		}
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = strings.TrimSpace(body.Message)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(body.Error)
		}
	}
	return apiErr
}

func escape(segment string) string {
	return url.PathEscape(segment)
}

// Package remote is the HTTP client for the backend API that owns all
// durable state: stock ledgers, the product catalog, stock requests, sales.
//
// Every call is a single request/response with no retry. A failure comes
// back as *apperr.RemoteError carrying the backend's own message when it
// sent one.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/esteh-pos/stock-console/internal/apperr"
	"github.com/esteh-pos/stock-console/internal/observability"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

const maxRawMessage = 200

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client talks to the backend API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger

	mu    sync.RWMutex
	token string
}

// New creates a Client. Retries are disabled: a failed mutation is reported
// to the operator, never replayed behind their back.
func New(opts Options, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger.Named("remote"),
		token:  opts.Token,
	}
}

// SetToken replaces the bearer token used for later calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do executes one call and returns the raw body of a 2xx answer.
func (c *Client) do(ctx context.Context, op, method, path string, prepare func(*resty.Request)) (body []byte, err error) {
	ctx, span := observability.StartSpan(ctx, "remote", op,
		attribute.String("http.method", method),
		attribute.String("http.route", path))
	defer func() { observability.EndSpan(span, err) }()

	requestID := uuid.NewString()
	req := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID)
	if token := c.Token(); token != "" {
		req.SetAuthToken(token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("❌ remote call failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, apperr.NewNetworkError(op, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))
	if !resp.IsSuccess() {
		remoteErr := apperr.NewStatusError(op, resp.StatusCode(), serverMessage(resp.Body()))
		c.logger.Warn("❌ remote call rejected",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode()),
			zap.String("message", remoteErr.Message))
		return nil, remoteErr
	}

	c.logger.Debug("remote call ok",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("took", resp.Time()))
	return resp.Body(), nil
}

func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	return c.do(ctx, op, http.MethodGet, path, nil)
}

func (c *Client) sendJSON(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	return c.do(ctx, op, method, path, func(r *resty.Request) {
		r.SetHeader("Content-Type", "application/json").SetBody(payload)
	})
}

// serverMessage picks the human-readable part of an error body: the JSON
// "message" field, else the raw text. Empty means none.
func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		return envelope.Error
	}
	if strings.HasPrefix(trimmed, "<") {
		// An HTML error page says nothing useful to a cashier.
		return ""
	}
	if len(trimmed) > maxRawMessage {
		trimmed = trimmed[:maxRawMessage]
	}
	return trimmed
}

// decodeList accepts a bare JSON array or an object with the array under "data".
func decodeList[T any](op string, body []byte) ([]T, error) {
	var list []T
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &apperr.RemoteError{Op: op, StatusCode: http.StatusOK, Message: "unexpected response format", Err: err}
	}
	if envelope.Data == nil {
		return []T{}, nil
	}
	return envelope.Data, nil
}

// decodeItem accepts a bare object or one wrapped under "data". An empty
// body decodes to the zero value.
func decodeItem[T any](op string, body []byte) (T, error) {
	var zero T
	if len(strings.TrimSpace(string(body))) == 0 {
		return zero, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
		body = envelope.Data
	}

	var item T
	if err := json.Unmarshal(body, &item); err != nil {
		return zero, &apperr.RemoteError{Op: op, StatusCode: http.StatusOK, Message: "unexpected response format", Err: err}
	}
	return item, nil
}

// Package nimbus is the client for the Nimbus domestic courier API.
//
// Every operation goes through one retry loop: four attempts with 1s, 3s and
// 9s between them. A 401 drops the rejected token and retries at once with a
// fresh one. Each HTTP exchange, authentication included, is written to the
// audit log with sensitive fields masked.
package nimbus

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
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"

	"github.com/99minutos/crossborder-tracker/internal/core/domain"
	"github.com/99minutos/crossborder-tracker/internal/core/ports"
	"github.com/99minutos/crossborder-tracker/internal/infrastructure/httpclient"
	"github.com/99minutos/crossborder-tracker/internal/pkg/metrics"
	"github.com/99minutos/crossborder-tracker/internal/pkg/reqctx"
)

const (
	defaultTimeout = 15 * time.Second
	maxLoggedBody  = 2048
)

// defaultDelays is the wait before attempts 2, 3 and 4.
var defaultDelays = []time.Duration{time.Second, 3 * time.Second, 9 * time.Second}

// Config captures the settings for reaching the courier.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
}

// Client implements ports.CourierClient. The zero value is not usable; build
// one per process with NewClient.
type Client struct {
	baseURL  string
	email    string
	password string

	httpClient *http.Client
	tokens     *TokenCache
	audit      ports.APILogRepository
	clock      clockz.Clock
	delays     []time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	log        zerolog.Logger

	// authMu collapses concurrent re-authentications into one.
	authMu sync.Mutex
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuditLog records every exchange to repo.
func WithAuditLog(repo ports.APILogRepository) Option {
	return func(c *Client) { c.audit = repo }
}

// WithClock replaces wall time for token expiry and backoff.
func WithClock(clock clockz.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

func WithTokenCache(tc *TokenCache) Option {
	return func(c *Client) { c.tokens = tc }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		email:    cfg.Email,
		password: cfg.Password,
		delays:   defaultDelays,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clock == nil {
		c.clock = clockz.RealClock
	}
	if c.tokens == nil {
		c.tokens = NewTokenCache(c.clock)
	}
	if c.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.httpClient = httpclient.NewClient(timeout, c.log)
	}
	c.sleep = c.clockSleep
	c.log = c.log.With().Str("component", "nimbus").Logger()
	return c
}

// CreateShipment books a pickup and returns the AWB the courier assigned.
func (c *Client) CreateShipment(ctx context.Context, p ports.CreateShipmentParams) (string, error) {
	ctx = reqctx.EnsureCorrelationID(ctx)
	if p.ShipmentID != "" {
		ctx = reqctx.WithShipmentID(ctx, p.ShipmentID)
	}

	body, err := c.do(ctx, request{
		apiType: domain.APITypeCreate,
		method:  http.MethodPost,
		path:    "/create",
		body:    createPayload(p),
	})
	if err != nil {
		return "", err
	}

	awb, _ := body["awb"].(string)
	if awb == "" {
		return "", fmt.Errorf("%w: create response carried no awb", domain.ErrCourierFailure)
	}
	return awb, nil
}

// Track returns the latest tracking snapshot for awb.
func (c *Client) Track(ctx context.Context, awb string) (*domain.CourierTracking, error) {
	ctx = reqctx.EnsureCorrelationID(ctx)

	body, err := c.do(ctx, request{
		apiType: domain.APITypeTrack,
		method:  http.MethodGet,
		path:    "/track",
		query:   url.Values{"awb": []string{awb}},
	})
	if err != nil {
		return nil, err
	}

	status, _ := body["status"].(string)
	if status == "" {
		return nil, fmt.Errorf("%w: track response for %s carried no status", domain.ErrCourierFailure, awb)
	}
	t := &domain.CourierTracking{AWB: awb, RawStatus: status}
	t.Location, _ = body["location"].(string)
	if ts, ok := body["timestamp"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			t.Timestamp = parsed
		}
	}
	return t, nil
}

type request struct {
	apiType domain.APIType
	method  string
	path    string
	query   url.Values
	body    map[string]any
}

// do runs req through the retry loop.
func (c *Client) do(ctx context.Context, req request) (map[string]any, error) {
	var (
		lastStatus int
		lastErr    error
	)
	attempts := len(c.delays) + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		body, token, err := c.attempt(ctx, req, attempt)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) {
			lastStatus = se.StatusCode
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", req.apiType, ctx.Err())
		}
		if attempt == attempts {
			break
		}

		if se != nil && se.unauthorized() {
			// A concurrent caller may already have replaced the rejected token.
			c.tokens.InvalidateIf(token)
			c.log.Warn().Str("api_type", string(req.apiType)).Int("attempt", attempt).Msg("token rejected, re-authenticating")
			continue
		}

		delay := c.delays[attempt-1]
		c.log.Warn().
			Err(err).
			Str("api_type", string(req.apiType)).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("courier request failed")
		if err := c.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%s: %w", req.apiType, err)
		}
	}

	return nil, &APIError{StatusCode: lastStatus, Attempts: attempts, Err: lastErr}
}

// attempt obtains a token and performs one exchange. It returns the token it
// sent so a 401 can be pinned to it.
func (c *Client) attempt(ctx context.Context, req request, attempt int) (map[string]any, string, error) {
	token, err := c.token(ctx, attempt)
	if err != nil {
		return nil, "", err
	}
	body, err := c.exchange(ctx, req, token, attempt)
	return body, token, err
}

func (c *Client) token(ctx context.Context, attempt int) (string, error) {
	if tok, ok := c.tokens.Get(); ok {
		return tok, nil
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()
	if tok, ok := c.tokens.Get(); ok {
		return tok, nil
	}
	return c.authenticate(ctx, attempt)
}

func (c *Client) authenticate(ctx context.Context, attempt int) (string, error) {
	body, err := c.exchange(ctx, request{
		apiType: domain.APITypeAuth,
		method:  http.MethodPost,
		path:    "/auth",
		body:    map[string]any{"email": c.email, "password": c.password},
	}, "", attempt)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}

	token, _ := body["token"].(string)
	if token == "" {
		return "", errors.New("authenticate: response carried no token")
	}
	c.tokens.Set(token)
	c.log.Debug().Msg("authenticated with courier")
	return token, nil
}

// exchange performs a single HTTP round trip and audits it.
func (c *Client) exchange(ctx context.Context, req request, token string, attempt int) (map[string]any, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var reader io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", req.apiType, err)
		}
		reader = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", req.apiType, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	metrics.CourierRequestDuration.WithLabelValues(string(req.apiType)).Observe(elapsed.Seconds())

	if err != nil {
		metrics.CourierRequestsTotal.WithLabelValues(string(req.apiType), "error").Inc()
		c.record(ctx, req, httpReq, 0, map[string]any{"error": err.Error()}, elapsed, attempt)
		return nil, fmt.Errorf("%s: %w", req.apiType, err)
	}
	defer resp.Body.Close()

	metrics.CourierRequestsTotal.WithLabelValues(string(req.apiType), strconv.Itoa(resp.StatusCode)).Inc()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, req, httpReq, resp.StatusCode, map[string]any{"error": err.Error()}, elapsed, attempt)
		return nil, fmt.Errorf("%s: read body: %w", req.apiType, err)
	}
	body, decodeErr := decodeBody(raw)
	c.record(ctx, req, httpReq, resp.StatusCode, body, elapsed, attempt)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{APIType: req.apiType, StatusCode: resp.StatusCode}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%s: decode body: %w", req.apiType, decodeErr)
	}
	return body, nil
}

// record writes the masked exchange to the audit log. Audit failures are
// logged and never fail the call.
func (c *Client) record(ctx context.Context, req request, httpReq *http.Request, status int, response map[string]any, elapsed time.Duration, attempt int) {
	if c.audit == nil {
		return
	}

	logged := map[string]any{
		"method":  req.method,
		"path":    req.path,
		"headers": map[string]any{"Authorization": httpReq.Header.Get("Authorization")},
	}
	if len(req.query) > 0 {
		q := make(map[string]any, len(req.query))
		for k := range req.query {
			q[k] = req.query.Get(k)
		}
		logged["query"] = q
	}
	if req.body != nil {
		logged["body"] = req.body
	}

	entry := &domain.APILog{
		APIType:         req.apiType,
		Request:         maskMap(logged),
		Response:        maskMap(response),
		HTTPStatus:      status,
		ExecutionTimeMs: elapsed.Milliseconds(),
		CorrelationID:   reqctx.CorrelationID(ctx),
		Attempt:         attempt,
		CreatedAt:       c.clock.Now().UTC(),
	}
	if id := reqctx.ShipmentID(ctx); id != "" {
		entry.ShipmentID = &id
	}

	if err := c.audit.Insert(context.WithoutCancel(ctx), entry); err != nil {
		c.log.Warn().Err(err).Str("api_type", string(req.apiType)).Msg("failed to write api log")
	}
}

func (c *Client) clockSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

// decodeBody parses a JSON object. Anything else is kept as a truncated
// string so it can still be audited.
func decodeBody(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		s := string(raw)
		if len(s) > maxLoggedBody {
			s = s[:maxLoggedBody]
		}
		return map[string]any{"raw": s}, err
	}
	return body, nil
}

func createPayload(p ports.CreateShipmentParams) map[string]any {
	body := map[string]any{
		"order_number":   p.ReferenceID,
		"payment_type":   "prepaid",
		"order_amount":   p.DeclaredValue,
		"package_weight": p.WeightKg,
		"shipment_type":  p.ShipmentType,
		"pickup": map[string]any{
			"address": p.OriginAddress,
		},
		"consignee": map[string]any{
			"name":    p.RecipientName,
			"phone":   p.RecipientPhone,
			"address": p.DestinationAddress,
		},
	}
	if p.RecipientEmail != "" {
		body["consignee"].(map[string]any)["email"] = p.RecipientEmail
	}
	if p.LengthCm > 0 {
		body["package_length"] = p.LengthCm
	}
	if p.WidthCm > 0 {
		body["package_breadth"] = p.WidthCm
	}
	if p.HeightCm > 0 {
		body["package_height"] = p.HeightCm
	}
	return body
}

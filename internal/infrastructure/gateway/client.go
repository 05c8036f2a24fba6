// Package gateway is the HTTP client for the catalog REST backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/erp/catalog-console/internal/application/navigation"
	"github.com/erp/catalog-console/internal/domain/shared"
	"github.com/erp/catalog-console/internal/infrastructure/logger"
	"github.com/erp/catalog-console/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxResponseBytes = 4 << 20

// Session is the part of the session store the gateway depends on
type Session interface {
	// Credential returns the stored bearer credential, or "" when none
	Credential(ctx context.Context) string

	// Logout clears the session
	Logout(ctx context.Context) error
}

// Config holds client settings
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Tracing   bool // wrap the transport with otelhttp
}

// Client talks to the catalog backend. It attaches the session credential
// to every request and ends the session when the backend answers 401.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	session   Session
	navigator navigation.Navigator
	metrics   *telemetry.ClientMetrics
	logger    *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMetrics records request metrics on m
func WithMetrics(m *telemetry.ClientMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the client logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l.Named("gateway") }
}

// New creates a Client. nav receives RouteLogin after a forced logout.
func New(cfg Config, session Session, nav navigation.Navigator, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	transport := http.DefaultTransport
	if cfg.Tracing {
		transport = otelhttp.NewTransport(transport)
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "catalog-console/1.0"
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Transport: transport, Timeout: timeout},
		session:   session,
		navigator: nav,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// operation names a backend call and the message used when the backend gives none
type operation struct {
	name     string
	fallback string
}

var (
	opLogin         = operation{"login", "Login failed. Please try again."}
	opRegister      = operation{"register", "Registration failed. Please try again."}
	opListProducts  = operation{"list_products", "Failed to fetch products"}
	opGetProduct    = operation{"get_product", "Failed to fetch product"}
	opCreateProduct = operation{"create_product", "Failed to create product"}
	opUpdateProduct = operation{"update_product", "Failed to update product"}
	opDeleteProduct = operation{"delete_product", "Failed to delete product"}
	opListImages    = operation{"list_images", "Failed to fetch images"}
)

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op operation, method, path string, body, out any) (err error) {
	ctx = logger.WithOperation(ctx, op.name)
	ctx, span := telemetry.StartSpan(ctx, "gateway."+op.name)
	defer func() { telemetry.EndSpan(span, err) }()
	log := logger.Enrich(ctx, c.logger)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op.name, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op.name, err)
	}
	c.setHeaders(ctx, req, body != nil)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		derr := shared.NewNetworkError(op.fallback)
		c.metrics.RecordRequest(ctx, op.name, method, 0, string(derr.Kind), time.Since(start))
		log.Warn("backend unreachable", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return derr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	elapsed := time.Since(start)
	if err != nil {
		derr := shared.NewNetworkError(op.fallback).WithStatus(resp.StatusCode)
		c.metrics.RecordRequest(ctx, op.name, method, resp.StatusCode, string(derr.Kind), elapsed)
		log.Warn("failed to read backend response", zap.Error(err))
		return derr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		derr := normalize(resp.StatusCode, data, op.fallback)
		c.metrics.RecordRequest(ctx, op.name, method, resp.StatusCode, string(derr.Kind), elapsed)
		log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(derr.Kind)),
			zap.String("message", derr.Message),
		)
		if resp.StatusCode == http.StatusUnauthorized {
			c.endSession(ctx, log)
		}
		return derr
	}

	c.metrics.RecordRequest(ctx, op.name, method, resp.StatusCode, "", elapsed)
	log.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Warn("undecodable backend response", zap.Error(err))
		return shared.NewNetworkError("Invalid response from server").WithStatus(resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	if c.session != nil {
		if cred := c.session.Credential(ctx); cred != "" {
			req.Header.Set("Authorization", "Bearer "+cred)
		}
	}
}

// endSession clears the session and sends the operator to the login view.
// It runs even when the caller's context is already cancelled.
func (c *Client) endSession(ctx context.Context, log *zap.Logger) {
	log.Info("credential rejected by backend, ending session")
	if c.session != nil {
		if err := c.session.Logout(context.WithoutCancel(ctx)); err != nil {
			log.Error("failed to clear session after 401", zap.Error(err))
		}
	}
	c.metrics.RecordSessionEvent(ctx, "forced_logout")
	if c.navigator != nil {
		c.navigator.Navigate(navigation.RouteLogin)
	}
}

/*
Package api is the typed REST client for the SmartEdu backend.

Every call is rate limited, carries the session's bearer token and an
X-Request-ID, and is traced and measured. List responses are cached until
the resource is mutated or the TTL passes.
*/
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Nexora-Open-Source/smartedu/cache"
	"github.com/Nexora-Open-Source/smartedu/monitoring"
	"github.com/Nexora-Open-Source/smartedu/schema"
	"github.com/Nexora-Open-Source/smartedu/session"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	maxBodySize = 10 * 1024 * 1024 // 10MB
	userAgent   = "smartedu-client/1.0"
)

// Route templates, used both to build paths and as metric labels
const (
	RouteLogin       = "/auth/login"
	RouteRegister    = "/auth/register"
	RouteLogout      = "/auth/logout"
	RouteMateriList  = "/materi-pokok/"
	RouteMateriItem  = "/materi-pokok/{id}"
	RouteModelList   = "/model/"
	RouteModelItem   = "/model/{id}"
	RouteModuleList  = "/module/"
	RouteModuleItem  = "/module/{id}"
	RouteEbookList   = "/ebook/"
	RouteEbookItem   = "/ebook/{id}"
	routeHealthCheck = "/"
)

// ItemPath expands the {id} placeholder of a route template
func ItemPath(route, id string) string {
	return strings.Replace(route, "{id}", url.PathEscape(id), 1)
}

// Config holds the client settings
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Outgoing request rate towards the backend
	RPS   float64
	Burst int
}

// Client talks to the SmartEdu backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    session.Accessor
	limiter    *rate.Limiter
	cache      *cache.CacheManager
	logger     *logrus.Logger
}

// NewClient creates a backend client. cacheManager may be nil to disable
// response caching.
func NewClient(cfg Config, sess session.Accessor, cacheManager *cache.CacheManager, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
		limiter:    rate.NewLimiter(limit, burst),
		cache:      cacheManager,
		logger:     logger,
	}
}

// BaseURL returns the backend base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session accessor used for auth
func (c *Client) Session() session.Accessor {
	return c.session
}

// Do performs one backend request and returns the body of a 2xx response.
// route is the path template recorded in metrics; path is the concrete path.
// Non-2xx responses are returned as *Error.
func (c *Client) Do(ctx context.Context, method, route, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("backend rate limit wait: %w", err)
	}

	ctx, span := monitoring.CreateSpan(ctx, "backend "+method+" "+route)
	defer span.End()

	requestID := uuid.NewString()
	monitoring.SetSpanAttributes(span, map[string]interface{}{
		"http.method": method,
		"http.route":  route,
		"request_id":  requestID,
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		monitoring.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token, ok := c.session.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		monitoring.RecordBackendRequest(method, route, "error", duration.Seconds())
		monitoring.SetSpanError(span, err)
		c.logger.WithFields(logrus.Fields{
			"method":      method,
			"path":        path,
			"request_id":  requestID,
			"duration_ms": duration.Milliseconds(),
			"error":       err.Error(),
		}).Warn("Backend request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	status := strconv.Itoa(resp.StatusCode)
	monitoring.RecordBackendRequest(method, route, status, duration.Seconds())
	monitoring.SetSpanAttributes(span, map[string]interface{}{"http.status_code": resp.StatusCode})
	if err != nil {
		monitoring.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	fields := logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"request_id":  requestID,
		"duration_ms": duration.Milliseconds(),
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(method, path, resp.StatusCode, schema.MessageOf(respBody))
		if resp.StatusCode == http.StatusNotFound {
			c.logger.WithFields(fields).Debug("Backend resource not found")
		} else {
			monitoring.SetSpanError(span, apiErr)
			c.logger.WithFields(fields).WithField("message", apiErr.Message).Warn("Backend returned an error")
		}
		return nil, apiErr
	}

	c.logger.WithFields(fields).Debug("Backend request completed")
	return respBody, nil
}

// Ping checks that the backend answers HTTP at all. Any HTTP response,
// including an error status, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodGet, routeHealthCheck, "/", nil)
	var apiErr *Error
	if err != nil && !errors.As(err, &apiErr) {
		return err
	}
	return nil
}

// getCached serves GETs of list endpoints through the response cache
func (c *Client) getCached(ctx context.Context, route, path string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.GetResponse(path); ok {
			return body, nil
		}
	}
	body, err := c.Do(ctx, http.MethodGet, route, path, nil)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		// A failed cache write only costs a refetch
		_ = c.cache.SetResponse(path, body)
	}
	return body, nil
}

// mutate performs a write and drops the resource's cached responses
func (c *Client) mutate(ctx context.Context, method, route, path, resource string, body []byte) ([]byte, error) {
	resp, err := c.Do(ctx, method, route, path, body)
	if c.cache != nil {
		_ = c.cache.InvalidateResource(resource)
	}
	return resp, err
}

func (c *Client) clearCache() {
	if c.cache != nil {
		_ = c.cache.ClearAll()
	}
}

func requireID(entity, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s id is required", entity)
	}
	return nil
}

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

	"github.com/galleyhq/galley/internal/orders"
)

// ErrMalformedPayload marks a 2xx response whose body is not the expected
// shape. Callers treat it like a transport failure.
var ErrMalformedPayload = errors.New("malformed payload")

// OrderAPI is the REST surface the sync engine and command dispatcher use.
type OrderAPI interface {
	FetchOrders(ctx context.Context) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id int64, status orders.Status) (orders.Order, error)
	CreateOrder(ctx context.Context, req orders.NewOrder) (orders.Order, error)
	SubmitFeedback(ctx context.Context, id int64, fb orders.Feedback) error
}

// StatsAPI is the REST surface of the stats dashboard.
type StatsAPI interface {
	FetchDailyStats(ctx context.Context) (DailyStats, error)
	FetchWeeklyStats(ctx context.Context) ([]DailyStats, error)
	RegenerateStats(ctx context.Context) error
}

var (
	_ OrderAPI = (*Client)(nil)
	_ StatsAPI = (*Client)(nil)
)

// Client talks to the ordering backend's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIBase   = "127.0.0.1:5000"
	defaultUserAgent = "galley/0.1"
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 4 << 10
)

// NewClient builds a Client for the host:port or URL in apiBase.
func NewClient(apiBase string) (*Client, error) {
	base, err := parseBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// FetchOrders retrieves the full order snapshot.
func (c *Client) FetchOrders(ctx context.Context) ([]orders.Order, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &raw); err != nil {
		return nil, err
	}
	// null would decode into an empty snapshot and wipe the store.
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("decode /api/orders response: %w: top-level value is not an array", ErrMalformedPayload)
	}
	payload := []orders.Order{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode /api/orders response: %w: %v", ErrMalformedPayload, err)
	}
	return payload, nil
}

type statusUpdate struct {
	Status orders.Status `json:"status"`
}

// UpdateStatus asks the server to move an order to status and returns the
// order as the server now holds it.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status orders.Status) (orders.Order, error) {
	var payload orders.Order
	path := "/api/orders/" + strconv.FormatInt(id, 10) + "/status"
	if err := c.do(ctx, http.MethodPut, path, statusUpdate{Status: status}, &payload); err != nil {
		return orders.Order{}, err
	}
	return payload, nil
}

// CreateOrder submits a new order and returns it as created.
func (c *Client) CreateOrder(ctx context.Context, req orders.NewOrder) (orders.Order, error) {
	var payload orders.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &payload); err != nil {
		return orders.Order{}, err
	}
	return payload, nil
}

// SubmitFeedback posts a rating for a completed order.
func (c *Client) SubmitFeedback(ctx context.Context, id int64, fb orders.Feedback) error {
	path := "/api/orders/" + strconv.FormatInt(id, 10) + "/feedback"
	return c.do(ctx, http.MethodPost, path, fb, nil)
}

// FetchDailyStats retrieves today's sales aggregate.
func (c *Client) FetchDailyStats(ctx context.Context) (DailyStats, error) {
	var payload DailyStats
	if err := c.do(ctx, http.MethodGet, "/api/stats/daily", nil, &payload); err != nil {
		return DailyStats{}, err
	}
	return payload, nil
}

// FetchWeeklyStats retrieves the daily aggregates of the last seven days.
func (c *Client) FetchWeeklyStats(ctx context.Context) ([]DailyStats, error) {
	var payload []DailyStats
	if err := c.do(ctx, http.MethodGet, "/api/stats/weekly", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// RegenerateStats asks the server to rebuild its aggregates from completed
// orders.
func (c *Client) RegenerateStats(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/stats/regenerate", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return newHTTPError(method, rel.Path, resp)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s response: %w: %v", rel.Path, ErrMalformedPayload, err)
	}
	return nil
}

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

func newHTTPError(method, path string, resp *http.Response) *HTTPError {
	herr := &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return herr
	}
	var parsed errorBody
	if json.Unmarshal(raw, &parsed) == nil && parsed.Error != "" {
		herr.Message = parsed.Error
		return herr
	}
	herr.Message = strings.TrimSpace(string(raw))
	return herr
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}

func parseBaseURL(apiBase string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBase)
	if trimmed == "" {
		trimmed = defaultAPIBase
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", apiBase, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", apiBase)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

type requestIDKey struct{}

// WithRequestID tags ctx so requests made with it carry an X-Request-ID
// header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

package catalog

import (
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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/litescript/ls-exoquest/internal/version"
)

const (
	// DefaultBaseURL is the public catalog API.
	DefaultBaseURL = "https://neoma-uninternalized-irretraceably.ngrok-free.dev"

	// DefaultTimeout bounds every catalog request.
	DefaultTimeout = 12 * time.Second

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 8 << 20

	// excerptLen is how much of an error body ends up in APIError.
	excerptLen = 200

	tracerName = "github.com/litescript/ls-exoquest/internal/catalog"
)

// Endpoint names used in metrics and span names.
const (
	EndpointStars  = "stars"
	EndpointSearch = "search"
	EndpointInfos  = "infos"
)

// ErrNotJSON marks a response body that could not be decoded and did not
// declare a JSON content type.
var ErrNotJSON = errors.New("response is not JSON")

// APIError is returned for non-2xx responses and undecodable bodies.
type APIError struct {
	Status int
	URL    string
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	if errors.Is(e.Err, ErrNotJSON) {
		return fmt.Sprintf("catalog API returned non-JSON response (status %d) from %s: %s", e.Status, e.URL, e.Body)
	}
	return fmt.Sprintf("catalog API failure (%d) at %s: %s", e.Status, e.URL, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Client talks to the catalog API.
type Client struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	metrics *Metrics
	tracer  trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the API base URL. Trailing slashes are ignored.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithMetrics records request metrics into m.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTracerProvider traces requests with tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) ClientOption {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewClient creates a catalog client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		tracer:  otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{}
	}

	return c
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Query selects a catalog page, optionally narrowed by a search term.
type Query struct {
	Search string
	Page   int
}

// Normalized coerces the page to >= 1 and trims the search term.
func (q Query) Normalized() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// FetchResult contains the result of a fetch operation.
type FetchResult struct {
	Query     Query
	Page      *Page
	FetchedAt time.Time
	Duration  time.Duration
	Error     error
}

// Fetch runs q as a search when it carries a term, otherwise as a plain page
// request.
func (c *Client) Fetch(ctx context.Context, q Query) FetchResult {
	q = q.Normalized()
	start := time.Now()
	result := FetchResult{Query: q, FetchedAt: start}

	var page *Page
	var err error
	if q.Search != "" {
		page, err = c.Search(ctx, q.Search, q.Page)
	} else {
		page, err = c.Stars(ctx, q.Page)
	}
	result.Duration = time.Since(start)
	result.Page = page
	result.Error = err
	return result
}

// Stars fetches one page of the catalog.
func (c *Client) Stars(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	return c.getPage(ctx, EndpointStars, "/stars", params)
}

// Search fetches one page of stars matching term. An empty term behaves like
// Stars.
func (c *Client) Search(ctx context.Context, term string, page int) (*Page, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return c.Stars(ctx, page)
	}
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("search", term)
	params.Set("page", strconv.Itoa(page))
	return c.getPage(ctx, EndpointSearch, "/stars/search", params)
}

// Infos fetches the catalog-wide totals.
func (c *Client) Infos(ctx context.Context) (*Infos, error) {
	var w infosWire
	if err := c.get(ctx, EndpointInfos, "/getInfos", nil, &w); err != nil {
		return nil, err
	}
	return w.infos(), nil
}

func (c *Client) getPage(ctx context.Context, endpoint, path string, params url.Values) (*Page, error) {
	var page Page
	if err := c.get(ctx, endpoint, path, params, &page); err != nil {
		return nil, err
	}
	if page.Stars == nil {
		page.Stars = []Star{}
	}
	return &page, nil
}

// get runs one traced, measured GET and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, v any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	attrs := []attribute.KeyValue{
		attribute.String("http.method", http.MethodGet),
		attribute.String("http.url", reqURL),
	}
	if pg := params.Get("page"); pg != "" {
		attrs = append(attrs, attribute.String("catalog.page", pg))
	}
	ctx, span := c.tracer.Start(ctx, "catalog."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	outcome, err := c.do(ctx, reqURL, v)
	stars := 0
	if page, ok := v.(*Page); ok && err == nil {
		stars = len(page.Stars)
	}
	c.metrics.observe(endpoint, outcome, time.Since(start), stars)

	span.SetAttributes(attribute.String("catalog.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return err
	}
	if _, ok := v.(*Page); ok {
		span.SetAttributes(attribute.Int("catalog.stars", stars))
	}
	return nil
}

func (c *Client) do(ctx context.Context, reqURL string, v any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return OutcomeTransport, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("ngrok-skip-browser-warning", "true")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.client.Do(req)
	if err != nil {
		return contextOutcome(ctx), fmt.Errorf("fetch %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return contextOutcome(ctx), fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return OutcomeHTTPError, &APIError{
			Status: resp.StatusCode,
			URL:    reqURL,
			Body:   excerpt(body),
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		ct := strings.ToLower(resp.Header.Get("Content-Type"))
		if !strings.Contains(ct, "application/json") {
			return OutcomeDecode, &APIError{
				Status: http.StatusUnprocessableEntity,
				URL:    reqURL,
				Body:   excerpt(body),
				Err:    ErrNotJSON,
			}
		}
		return OutcomeDecode, fmt.Errorf("decode catalog response: %w", err)
	}
	return OutcomeOK, nil
}

// contextOutcome classifies a transport failure by the request context.
func contextOutcome(ctx context.Context) string {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeTransport
	}
}

func excerpt(body []byte) string {
	r := []rune(strings.TrimSpace(string(body)))
	if len(r) > excerptLen {
		r = r[:excerptLen]
	}
	return string(r)
}

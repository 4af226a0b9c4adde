package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// Observation is what one successful fetch reports about a listing.
type Observation struct {
	Name       string
	SalesCount int64

	// Price, Author and Category are nil when the source omitted them.
	Price    *decimal.Decimal
	Author   *string
	Category *string
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	Token             string
	UserAgent         string
	RequestsPerSecond float64
	Burst             int

	// Timeout bounds a request when the caller's context has no deadline.
	Timeout time.Duration
}

// itemPayload is the subset of the catalog item document the tracker reads.
type itemPayload struct {
	Name           string `json:"name"`
	NumberOfSales  *int64 `json:"number_of_sales"`
	PriceCents     *int64 `json:"price_cents"`
	AuthorUsername string `json:"author_username"`
	Classification string `json:"classification"`
	Site           string `json:"site"`
}

// Client reads listing counters from the marketplace catalog API.
// It never retries; one call is one request.
type Client struct {
	baseURL string
	http    *resty.Client
	limiter *rate.Limiter
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if opts.UserAgent != "" {
		httpClient.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Token != "" {
		httpClient.SetAuthToken(opts.Token)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL: opts.BaseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Fetch requests one listing by its source id.
// Errors match ErrTimeout, ErrRateLimited or ErrUpstream.
func (c *Client) Fetch(ctx context.Context, sourceID string) (*Observation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: waiting for request slot: %v", ErrTimeout, err)
	}

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", sourceID).
		Get(c.baseURL)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: item %s: %v", ErrTimeout, sourceID, err)
		}
		return nil, fmt.Errorf("%w: item %s: %v", ErrUpstream, sourceID, err)
	}

	slog.Debug("[Source] Fetched item",
		"source_id", sourceID,
		"status", resp.StatusCode(),
		"duration", time.Since(started))

	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: parseRetryAfter(resp.Header().Get("Retry-After"), time.Now())}
	case code < 200 || code > 299:
		return nil, &StatusError{Code: code, Status: http.StatusText(code)}
	}

	var payload itemPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("%w: item %s: decoding response: %v", ErrUpstream, sourceID, err)
	}

	return payload.observation(sourceID)
}

func (p itemPayload) observation(sourceID string) (*Observation, error) {
	if p.NumberOfSales == nil {
		return nil, fmt.Errorf("%w: item %s: response has no number_of_sales", ErrUpstream, sourceID)
	}
	if *p.NumberOfSales < 0 {
		return nil, fmt.Errorf("%w: item %s: negative number_of_sales %d", ErrUpstream, sourceID, *p.NumberOfSales)
	}

	obs := &Observation{
		Name:       p.Name,
		SalesCount: *p.NumberOfSales,
	}
	if p.PriceCents != nil {
		price := decimal.New(*p.PriceCents, -2)
		obs.Price = &price
	}
	if p.AuthorUsername != "" {
		author := p.AuthorUsername
		obs.Author = &author
	}
	category := p.Classification
	if category == "" {
		category = p.Site
	}
	if category != "" {
		obs.Category = &category
	}
	return obs, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
	}
	return 0
}

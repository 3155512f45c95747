// Package discordhttp implements a single-host REST client that turns
// logical GET requests into decoded JSON, interpreting the platform's
// retry, rate-limit, and error contracts. The transport is gojek/heimdall's
// http.Client (github.com/gojek/heimdall/v7), grounded on the teacher's own
// utilities/rest.go wiring of httpclient.NewClient + heimdall.NewRetrier.
// heimdall's own retries are switched off (retry count 0), because heimdall
// retries 5xx responses as well as transport failures and would multiply
// the attempt budget; every retry is made by this package's Get, which
// implements the status-code-driven state machine (429/5xx/401/403/404) and
// retries transport failures under the same attempt budget as 5xx, since
// neither heimdall nor the teacher's own rate_limits.go bucket machinery
// match the simpler single-counter contract the archiver needs.
package discordhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const baseURL = "https://discord.com/api/v10"

// Tunables are kept as vars (not const), mirroring
// the teacher's own utilities/rest.go style of package-level backoff knobs,
// so tests can shrink them instead of sleeping in real time.
var (
	maxAttempts          = 5
	maxRateLimitAttempts = 30
	initialBackoff       = 1 * time.Second
	maxBackoff           = 64 * time.Second
	requestTimeout       = 30 * time.Second
)

// APIError is returned for 401/403/404 and exhausted 5xx responses: fatal
// at the call site unless the caller specifically soft-skips it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord API error %d: %s", e.StatusCode, e.Message)
}

// IsForbidden reports whether err is a 401/403 APIError, the shape
// guild_processor and the sync engine soft-skip on.
func IsForbidden(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// ErrRateLimitExhausted is returned once the 429-sleep counter exceeds
// maxRateLimitAttempts: repeated 429s eventually surface as a distinct
// rate-limit-exhausted error rather than looping forever.
var ErrRateLimitExhausted = errors.New("discord: rate limit retries exhausted")

// Client is a single-account REST client: one connection pool per token,
// each archiving account holds one HTTP client.
type Client struct {
	token     string
	userAgent string
	baseURL   string
	http      *httpclient.Client
	// pacer throttles the request rate between explicit 429 recoveries so
	// a burst of calls doesn't immediately re-trigger a fresh 429; it is a
	// courtesy layer under Get's retry loop, not a substitute for honoring
	// Retry-After.
	pacer *rate.Limiter
	// Log, when set, receives one debug-level entry per request -- the
	// driver-level half of the CLI's --debug flag. Nil by default (the
	// common --verbose case never touches the transport's own log level).
	Log *logrus.Entry
}

// NewClient constructs a Client for one bot token / user-agent pair.
func NewClient(token, userAgent string) *Client {
	backoff := heimdall.NewExponentialBackoff(500*time.Millisecond, 10*time.Second, 2.0, 2*time.Millisecond)
	retrier := heimdall.NewRetrier(backoff)

	httpClient := httpclient.NewClient(
		httpclient.WithHTTPTimeout(requestTimeout),
		httpclient.WithRetrier(retrier),
		httpclient.WithRetryCount(0),
	)

	return &Client{
		token:     token,
		userAgent: userAgent,
		baseURL:   baseURL,
		http:      httpClient,
		pacer:     rate.NewLimiter(rate.Limit(45), 10),
	}
}

// Get issues GET path?query, decoding a 200 JSON body into out. A 204
// leaves out untouched and returns (false, nil) as its second value so
// callers can distinguish "no content" from "decoded a zero value".
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (bool, error) {
	return c.getFrom(ctx, c.baseURL+path, query, out)
}

func (c *Client) getFrom(ctx context.Context, u string, query url.Values, out any) (bool, error) {
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	backoff := initialBackoff
	rateLimitAttempts := 0

	for attempt := 1; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return false, err
		}

		resp, err := c.doOnce(ctx, u)
		if err != nil {
			if attempt >= maxAttempts {
				return false, errors.Wrapf(err, "GET %s: transport error after %d attempts", u, attempt)
			}
			if !sleep(ctx, backoff) {
				return false, ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			defer resp.Body.Close()
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				return true, nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return false, errors.Wrapf(err, "GET %s: decode response", u)
			}
			return true, nil

		case resp.StatusCode == http.StatusNoContent:
			resp.Body.Close()
			return false, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := readRetryAfter(resp)
			resp.Body.Close()
			rateLimitAttempts++
			if rateLimitAttempts > maxRateLimitAttempts {
				return false, ErrRateLimitExhausted
			}
			if !sleep(ctx, retryAfter) {
				return false, ctx.Err()
			}
			// Rate-limit sleeps never consume the attempt budget: decrement
			// the loop counter Go's for-range can't express directly, so we
			// simply don't increment "attempt" for this branch by looping
			// via continue while keeping the same attempt value next round.
			attempt--
			continue

		case resp.StatusCode == http.StatusUnauthorized,
			resp.StatusCode == http.StatusForbidden,
			resp.StatusCode == http.StatusNotFound:
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp)}
			resp.Body.Close()
			return false, apiErr

		case resp.StatusCode >= 500:
			msg := readErrorMessage(resp)
			resp.Body.Close()
			if attempt >= maxAttempts {
				return false, &APIError{StatusCode: resp.StatusCode, Message: msg}
			}
			if !sleep(ctx, backoff) {
				return false, ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue

		default:
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp)}
			resp.Body.Close()
			return false, apiErr
		}
	}
}

func (c *Client) doOnce(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if c.Log != nil {
		c.Log.WithField("url", u).Debug("GET")
	}
	return c.http.Do(req)
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

type rateLimitBody struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}

func readRetryAfter(resp *http.Response) time.Duration {
	data, _ := io.ReadAll(resp.Body)
	var body rateLimitBody
	if err := json.Unmarshal(data, &body); err == nil && body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter * float64(time.Second))
	}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if secs, err := time.ParseDuration(h + "s"); err == nil {
			return secs
		}
	}
	return 1 * time.Second
}

type errorBody struct {
	Message string `json:"message"`
}

func readErrorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(resp.Body)
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return string(data)
}

// Package postgrest talks to a Supabase/PostgREST endpoint over HTTP and
// exposes it as a domain.ProviderStore.
package postgrest

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const maxAttempts = 4

var (
	ErrUnauthorized = eris.New("postgrest: unauthorized")
	ErrForbidden    = eris.New("postgrest: forbidden")
)

// APIError is a non-retryable PostgREST error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return "postgrest: " + strconv.Itoa(e.Status) + " " + e.Code + ": " + e.Message
	}
	return "postgrest: " + strconv.Itoa(e.Status) + ": " + e.Message
}

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

// New builds a client for base, the project URL without the /rest/v1 suffix.
func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, eris.New("postgrest: API key is required")
	}
	if _, err := url.Parse(base); err != nil || base == "" {
		return nil, eris.Errorf("postgrest: invalid base URL %q", base)
	}
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		base: strings.TrimRight(base, "/") + "/rest/v1",
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type request struct {
	method string
	table  string
	params url.Values
	body   any
	prefer []string
}

// do performs one request with client-side rate limiting. Reads are retried
// on 429, transient 5xx and transport errors, honoring Retry-After. Writes
// are retried on 429 only: a 5xx or a dropped connection may arrive after
// the database committed. The JSON body is decoded into out when out is
// non-nil.
func (c *Client) do(ctx context.Context, r request, out any) (http.Header, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var payload []byte
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, eris.Wrap(err, "postgrest: encode body")
		}
		payload = b
	}
	u := c.base + "/" + r.table
	if len(r.params) > 0 {
		u += "?" + r.params.Encode()
	}

	idempotent := r.method == http.MethodGet

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, r.method, u, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("apikey", c.key)
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hazards-directory/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if len(r.prefer) > 0 {
			req.Header.Set("Prefer", strings.Join(r.prefer, ","))
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = eris.Wrap(err, "postgrest: "+r.method+" "+r.table)
			if idempotent && i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}

		switch {
		case resp.StatusCode == http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return resp.Header, nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var err error
			if out != nil {
				err = json.NewDecoder(resp.Body).Decode(out)
			}
			resp.Body.Close()
			return resp.Header, eris.Wrap(err, "postgrest: decode response")

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return nil, ErrUnauthorized

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrForbidden

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = eris.Errorf("postgrest: remote %d", resp.StatusCode)
			retryable := idempotent || resp.StatusCode == http.StatusTooManyRequests
			if retryable && i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			apiErr := &APIError{Status: resp.StatusCode}
			if json.Unmarshal(b, apiErr) != nil || apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(string(b))
			}
			return nil, apiErr
		}
	}
	return nil, lastErr
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Zero if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

// contentRangeTotal reads the total from "0-23/50" or "*/0". Unknown totals ("0-23/*") return -1.
func contentRangeTotal(h http.Header) int {
	cr := h.Get("Content-Range")
	i := strings.LastIndexByte(cr, '/')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(cr[i+1:])
	if err != nil {
		return -1
	}
	return n
}

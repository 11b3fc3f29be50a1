package checker

import (
	"context"
	"io"
	"net/http"
	"time"
)

// HTTPReachability probes a URL with a GET request. Only a 2xx response counts
// as reachable; redirects are followed by the client.
type HTTPReachability struct {
	client *http.Client
}

// NewHTTPReachability creates a reachability checker. A nil client uses one
// with the given timeout.
func NewHTTPReachability(client *http.Client, timeout time.Duration) *HTTPReachability {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPReachability{client: client}
}

// IsReachable reports whether url answered with a 2xx status. Transport
// failures and other statuses mean unreachable. An error is returned only when
// ctx ended, so the probe is not mistaken for a verdict.
func (h *HTTPReachability) IsReachable(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, nil
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}

		return false, nil
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

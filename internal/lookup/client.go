// Package lookup talks to the external sources used for candidate enrichment:
// a web search for employer facts, the GitHub API for profile facts and a
// built-in skill taxonomy.
package lookup

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; screener/1.0)"
	DefaultTimeout   = 15 * time.Second
	contentEncoding  = "gzip"
	// MaxBodyBytes caps a decoded response body.
	MaxBodyBytes = 2 << 20
)

// ErrBodyTooLarge is returned when a response body exceeds the client limit.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned for non-200 responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

// client is the HTTP plumbing shared by the lookups.
type client struct {
	http      *http.Client
	userAgent string
	token     string
	maxBody   int64
	logger    *zap.Logger
}

func newClient(httpClient *http.Client, userAgent, token string, logger *zap.Logger) *client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &client{http: httpClient, userAgent: userAgent, token: token, maxBody: MaxBodyBytes, logger: logger}
}

func (c *client) setHeaders(req *http.Request, accept string) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Accept", accept)
	return req
}

// get performs the request and returns the decoded body, at most maxBody
// bytes of it. The body is read even for failed requests so the connection
// can be reused.
func (c *client) get(ctx context.Context, endpoint string, q url.Values, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req = c.setHeaders(req, accept)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(io.LimitReader(reader, c.maxBody+1))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", req.URL.Host, ErrBodyTooLarge, c.maxBody)
	}

	return data, nil
}

func (c *client) getJSON(ctx context.Context, endpoint string, q url.Values, target any) error {
	data, err := c.get(ctx, endpoint, q, "application/json")
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return json.Unmarshal(data, target)
}

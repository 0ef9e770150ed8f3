package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html/charset"

	"github.com/soslookup/ilsos-api/internal/config"
)

// HTTPResponse is a fully read target-site response. Non-200 statuses are
// data here; the orchestrator decides whether they end the run.
type HTTPResponse struct {
	StatusCode int
	Body       string
	Header     http.Header
}

// Client replays an authenticated session as plain form POSTs against the
// target's search endpoint. Stateless: credentials are attached per call.
type Client struct {
	cfg        config.ScraperConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a request-layer client with the configured bound timeout.
func NewClient(cfg config.ScraperConfig, logger *logrus.Logger) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: logger,
	}
}

// Timeout reports the per-request deadline, for error reporting.
func (c *Client) Timeout() time.Duration {
	return c.cfg.RequestTimeout
}

// Search performs the search-by-identifier call.
func (c *Client) Search(ctx context.Context, fileNumber string, creds *SessionCredentials) (*HTTPResponse, error) {
	form := url.Values{
		"command":        {"entitySearch"},
		"method":         {"search"},
		"searchMethod":   {"f"},
		"searchValue":    {fileNumber},
		"maLastName":     {""},
		"maFirstName":    {""},
		"maMiddleIni":    {""},
		"maBusinessName": {""},
		"btnSearch":      {"Submit"},
	}

	c.logger.WithField("file_number", fileNumber).Info("Making search request")
	return c.postForm(ctx, form, creds)
}

// FetchDetail performs the detail-by-transaction call.
func (c *Client) FetchDetail(ctx context.Context, transactionID string, creds *SessionCredentials) (*HTTPResponse, error) {
	form := url.Values{
		"command":          {"entitySearch"},
		"method":           {"getDetails"},
		"transId":          {transactionID},
		"resultspage":      {""},
		"searchValue":      {""},
		"sortTable_length": {"100"},
	}

	c.logger.WithField("transaction_id", transactionID).Info("Making detail request")
	return c.postForm(ctx, form, creds)
}

func (c *Client) postForm(ctx context.Context, form url.Values, creds *SessionCredentials) (*HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SearchURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}

	for name, value := range creds.Headers {
		req.Header.Set(name, value)
	}
	// The form endpoint requires these regardless of what was harvested.
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("priority", "u=0, i")
	req.Header.Set("referer", c.cfg.SearchURL)

	for name, value := range creds.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w after %s", ErrRequestTimeout, c.cfg.RequestTimeout)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrRequestTimeout, c.cfg.RequestTimeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}

	c.logger.WithField("status", resp.StatusCode).Debug("Request completed")

	return &HTTPResponse{
		StatusCode: resp.StatusCode,
		Body:       decodeBody(raw, resp.Header.Get("Content-Type")),
		Header:     resp.Header,
	}, nil
}

// decodeBody converts the body to UTF-8 honoring the declared charset,
// falling back to the raw bytes when no conversion applies.
func decodeBody(raw []byte, contentType string) string {
	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return string(raw)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

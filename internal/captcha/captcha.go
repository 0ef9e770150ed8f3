package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/config"
)

// Sentinel errors for the two terminal solver failures. Both are fatal to
// the calling bootstrap: a fresh challenge must be obtained before another
// solve makes sense.
var (
	ErrSolveTimeout  = errors.New("timeout waiting for captcha solution")
	ErrSolveRejected = errors.New("captcha request rejected by solving service")
)

const notReady = "CAPCHA_NOT_READY"

// apiResponse is the envelope both solving-service endpoints return when
// queried with json=1. On success Request carries the request id (in.php)
// or the solved token (res.php); otherwise it carries an error string.
type apiResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// Client talks to a solvecaptcha-compatible reCAPTCHA v2 solving service.
// The configuration is explicit so multiple clients (live, test) can coexist.
type Client struct {
	cfg        config.CaptchaConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a solver client. Zero-valued config fields fall back to
// the public solvecaptcha endpoints and the 1s x 120 poll schedule.
func NewClient(cfg config.CaptchaConfig, logger *logrus.Logger) *Client {
	if cfg.SubmitURL == "" {
		cfg.SubmitURL = "https://api.solvecaptcha.com/in.php"
	}
	if cfg.PollURL == "" {
		cfg.PollURL = "https://api.solvecaptcha.com/res.php"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1 * time.Second
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = 120
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Solve submits the challenge to the solving service and polls until a token
// is ready. It fails with ErrSolveRejected on any error envelope and with
// ErrSolveTimeout once the attempt ceiling is exhausted.
func (c *Client) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	start := time.Now()

	requestID, err := c.submit(ctx, siteKey, pageURL)
	if err != nil {
		return "", err
	}

	c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"site_key":   siteKey,
	}).Info("Captcha submitted")

	token, err := c.poll(ctx, requestID)
	if err != nil {
		return "", err
	}

	c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"duration":   time.Since(start),
	}).Info("Captcha solved")

	return token, nil
}

// submit posts the challenge descriptor and returns the service request id.
func (c *Client) submit(ctx context.Context, siteKey, pageURL string) (string, error) {
	data := url.Values{
		"key":       {c.cfg.APIKey},
		"method":    {"userrecaptcha"},
		"googlekey": {siteKey},
		"pageurl":   {pageURL},
		"json":      {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SubmitURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	result, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("submit captcha: %w", err)
	}

	if result.Status != 1 {
		return "", fmt.Errorf("%w: %s", ErrSolveRejected, result.Request)
	}

	return result.Request, nil
}

// poll queries the result endpoint at a fixed interval until the token is
// ready, the service reports an error, or the attempt ceiling is reached.
func (c *Client) poll(ctx context.Context, requestID string) (string, error) {
	for attempt := 1; attempt <= c.cfg.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}

		result, err := c.check(ctx, requestID)
		if err != nil {
			c.logger.WithError(err).WithField("request_id", requestID).Warn("Error checking captcha solution")
			continue
		}

		if result.Status == 1 {
			return result.Request, nil
		}

		if result.Request != notReady {
			return "", fmt.Errorf("%w: %s", ErrSolveRejected, result.Request)
		}

		if attempt%15 == 0 {
			c.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"attempt":    attempt,
				"max":        c.cfg.MaxPollAttempts,
			}).Debug("Waiting for captcha solution")
		}
	}

	return "", fmt.Errorf("%w: not solved after %d attempts", ErrSolveTimeout, c.cfg.MaxPollAttempts)
}

// check performs a single status query.
func (c *Client) check(ctx context.Context, requestID string) (*apiResponse, error) {
	query := url.Values{
		"key":    {c.cfg.APIKey},
		"action": {"get"},
		"id":     {requestID},
		"json":   {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.PollURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build poll request: %w", err)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*apiResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}

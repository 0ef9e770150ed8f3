package captcha

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soslookup/ilsos-api/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// solverFake fakes both solving-service endpoints on one mux.
type solverFake struct {
	server     *httptest.Server
	submitResp string
	pollResp   func(attempt int64) string
	polls      atomic.Int64
}

func newSolverFake(t *testing.T, submitResp string, pollResp func(attempt int64) string) *solverFake {
	t.Helper()

	f := &solverFake{submitResp: submitResp, pollResp: pollResp}

	mux := http.NewServeMux()
	mux.HandleFunc("/in.php", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "userrecaptcha", r.PostForm.Get("method"))
		assert.Equal(t, "1", r.PostForm.Get("json"))
		assert.NotEmpty(t, r.PostForm.Get("googlekey"))
		assert.NotEmpty(t, r.PostForm.Get("pageurl"))
		fmt.Fprint(w, f.submitResp)
	})
	mux.HandleFunc("/res.php", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "get", r.URL.Query().Get("action"))
		attempt := f.polls.Add(1)
		fmt.Fprint(w, f.pollResp(attempt))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *solverFake) client(maxAttempts int) *Client {
	return NewClient(config.CaptchaConfig{
		APIKey:          "test-key",
		SubmitURL:       f.server.URL + "/in.php",
		PollURL:         f.server.URL + "/res.php",
		PollInterval:    time.Millisecond,
		MaxPollAttempts: maxAttempts,
	}, testLogger())
}

func TestSolveSubmitRejected(t *testing.T) {
	fake := newSolverFake(t, `{"status":0,"request":"ERROR_WRONG_USER_KEY"}`, func(int64) string {
		t.Fatal("poll endpoint must not be called after a rejected submit")
		return ""
	})

	_, err := fake.client(5).Solve(context.Background(), "sitekey", "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolveRejected)
	assert.Contains(t, err.Error(), "ERROR_WRONG_USER_KEY")
	assert.Zero(t, fake.polls.Load())
}

func TestSolveReadyAfterPolling(t *testing.T) {
	fake := newSolverFake(t, `{"status":1,"request":"req-1"}`, func(attempt int64) string {
		if attempt < 3 {
			return `{"status":0,"request":"CAPCHA_NOT_READY"}`
		}
		return `{"status":1,"request":"TOKEN123"}`
	})

	token, err := fake.client(120).Solve(context.Background(), "sitekey", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "TOKEN123", token)
	assert.EqualValues(t, 3, fake.polls.Load())
}

func TestSolveReadyOnLastAttempt(t *testing.T) {
	const maxAttempts = 10

	fake := newSolverFake(t, `{"status":1,"request":"req-1"}`, func(attempt int64) string {
		if attempt < maxAttempts {
			return `{"status":0,"request":"CAPCHA_NOT_READY"}`
		}
		return `{"status":1,"request":"LAST_CHANCE"}`
	})

	token, err := fake.client(maxAttempts).Solve(context.Background(), "sitekey", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "LAST_CHANCE", token)
	assert.EqualValues(t, maxAttempts, fake.polls.Load())
}

func TestSolveTimeoutAfterAttemptCeiling(t *testing.T) {
	const maxAttempts = 7

	fake := newSolverFake(t, `{"status":1,"request":"req-1"}`, func(int64) string {
		return `{"status":0,"request":"CAPCHA_NOT_READY"}`
	})

	_, err := fake.client(maxAttempts).Solve(context.Background(), "sitekey", "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolveTimeout)
	assert.EqualValues(t, maxAttempts, fake.polls.Load())
}

func TestSolveRejectedMidPoll(t *testing.T) {
	fake := newSolverFake(t, `{"status":1,"request":"req-1"}`, func(attempt int64) string {
		if attempt == 1 {
			return `{"status":0,"request":"CAPCHA_NOT_READY"}`
		}
		return `{"status":0,"request":"ERROR_CAPTCHA_UNSOLVABLE"}`
	})

	_, err := fake.client(120).Solve(context.Background(), "sitekey", "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolveRejected)
	assert.Contains(t, err.Error(), "ERROR_CAPTCHA_UNSOLVABLE")
	assert.EqualValues(t, 2, fake.polls.Load())
}

func TestSolveContextCancelled(t *testing.T) {
	fake := newSolverFake(t, `{"status":1,"request":"req-1"}`, func(int64) string {
		return `{"status":0,"request":"CAPCHA_NOT_READY"}`
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fake.client(120).Solve(ctx, "sitekey", "https://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

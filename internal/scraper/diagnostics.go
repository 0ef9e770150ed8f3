package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/browser"
)

// Diagnostics persists response bodies and screenshots under the logs
// directory so failed runs can be inspected after the fact. Every method is
// best-effort: a sink failure is logged and never aborts the run.
type Diagnostics struct {
	dir    string
	logger *logrus.Logger
}

// NewDiagnostics creates a diagnostics sink rooted at dir.
func NewDiagnostics(dir string, logger *logrus.Logger) *Diagnostics {
	return &Diagnostics{dir: dir, logger: logger}
}

// SaveResponse writes a response body as HTML with a comment header carrying
// the request context.
func (d *Diagnostics) SaveResponse(fileNumber, requestType string, resp *HTTPResponse, failed bool) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.logger.WithError(err).Warn("Could not create logs folder")
		return
	}

	outcome := "success"
	if failed {
		outcome = "failed"
	}
	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(d.dir, fmt.Sprintf("%s_%s_%s_%s.html", fileNumber, requestType, outcome, timestamp))

	var sb strings.Builder
	fmt.Fprintf(&sb, "<!-- File Number: %s -->\n", fileNumber)
	fmt.Fprintf(&sb, "<!-- Request Type: %s -->\n", requestType)
	fmt.Fprintf(&sb, "<!-- Status Code: %d -->\n", resp.StatusCode)
	fmt.Fprintf(&sb, "<!-- Timestamp: %s -->\n", timestamp)
	sb.WriteString("<!-- Headers: -->\n")
	for name, values := range resp.Header {
		fmt.Fprintf(&sb, "<!-- %s: %s -->\n", name, strings.Join(values, ", "))
	}
	sb.WriteString("\n")
	sb.WriteString(resp.Body)

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		d.logger.WithError(err).WithField("path", path).Warn("Could not save response")
		return
	}

	d.logger.WithFields(logrus.Fields{
		"file_number": fileNumber,
		"path":        path,
	}).Debug("Response saved")
}

// Screenshot captures the browser viewport at a named checkpoint.
func (d *Diagnostics) Screenshot(ctx context.Context, sess browser.Session, fileNumber, requestType, checkpoint string) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.logger.WithError(err).Warn("Could not create logs folder")
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(d.dir, fmt.Sprintf("%s_%s_%s_%s.png", fileNumber, requestType, checkpoint, timestamp))

	if err := sess.Screenshot(ctx, path); err != nil {
		d.logger.WithError(err).WithField("checkpoint", checkpoint).Warn("Could not save screenshot")
		return
	}

	d.logger.WithFields(logrus.Fields{
		"file_number": fileNumber,
		"path":        path,
	}).Debug("Screenshot saved")
}

package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soslookup/ilsos-api/internal/browser"
	"github.com/soslookup/ilsos-api/internal/config"
)

// SessionCredentials is the replayable session state harvested from an
// authenticated browser context. Immutable for the rest of the run.
type SessionCredentials struct {
	Cookies map[string]string
	Headers map[string]string
}

// Solver produces a reCAPTCHA token for a site key and page URL.
type Solver interface {
	Solve(ctx context.Context, siteKey, pageURL string) (string, error)
}

const (
	searchInputSelector    = `input[type="text"]`
	fileNumberSelector     = `input#fileNumber`
	searchValueSelector    = `input[name="searchValue"]`
	submitButtonSelector   = `input[type="submit"]`
	challengeFrameSelector = `iframe[title="Challenge Content"]`
	siteKeyAttribute       = "data-key"
)

// headersScript reads the browser's negotiated request headers so the HTTP
// replay matches what the site saw during bootstrap. Only externally visible
// headers are mirrored; browser-internal ones would not be sent on the wire.
const headersScript = `(() => ({
	"accept": "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"accept-language": navigator.language || "en",
	"cache-control": "max-age=0",
	"origin": window.location.origin,
	"sec-ch-ua": navigator.userAgentData ? navigator.userAgentData.brands.map(b => '"' + b.brand + '";v="' + b.version + '"').join(", ") : '"Google Chrome";v="137", "Chromium";v="137", "Not/A)Brand";v="24"',
	"sec-ch-ua-mobile": navigator.userAgentData && navigator.userAgentData.mobile ? "?1" : "?0",
	"sec-ch-ua-platform": navigator.userAgentData ? '"' + navigator.userAgentData.platform + '"' : '"Windows"',
	"sec-fetch-dest": "document",
	"sec-fetch-mode": "navigate",
	"sec-fetch-site": "same-origin",
	"sec-fetch-user": "?1",
	"upgrade-insecure-requests": "1",
	"user-agent": navigator.userAgent
}))()`

// Bootstrapper drives a browser just far enough to obtain an authenticated
// session, then hands the harvested credentials to the HTTP layer. The
// browser never outlives one Bootstrap call.
type Bootstrapper struct {
	cfg      config.ScraperConfig
	sessions browser.Factory
	solver   Solver
	diag     *Diagnostics
	logger   *logrus.Logger
}

// NewBootstrapper creates a session bootstrapper.
func NewBootstrapper(cfg config.ScraperConfig, sessions browser.Factory, solver Solver, diag *Diagnostics, logger *logrus.Logger) *Bootstrapper {
	return &Bootstrapper{
		cfg:      cfg,
		sessions: sessions,
		solver:   solver,
		diag:     diag,
		logger:   logger,
	}
}

// Bootstrap navigates to the search form, submits the identifier, solves the
// challenge when one appears, and harvests cookies plus representative
// headers from the resulting context.
func (b *Bootstrapper) Bootstrap(ctx context.Context, fileNumber string) (*SessionCredentials, error) {
	log := b.logger.WithField("file_number", fileNumber)

	sess, err := b.sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %v", ErrNavigation, err)
	}
	defer sess.Close()

	// Landing
	if err := sess.Navigate(ctx, b.cfg.EntryURL); err != nil {
		return nil, fmt.Errorf("%w: open entry page: %v", ErrNavigation, err)
	}
	if err := sess.WaitVisible(ctx, searchInputSelector, b.cfg.LandingTimeout); err != nil {
		b.diag.Screenshot(ctx, sess, fileNumber, "captcha", "general_error")
		return nil, fmt.Errorf("%w: search input did not appear within %s: %v", ErrNavigation, b.cfg.LandingTimeout, err)
	}
	b.diag.Screenshot(ctx, sess, fileNumber, "captcha", "initial_page")

	// Submit
	if err := sess.Click(ctx, fileNumberSelector); err != nil {
		return nil, fmt.Errorf("%w: focus file number field: %v", ErrNavigation, err)
	}
	if err := sess.Type(ctx, searchValueSelector, fileNumber); err != nil {
		return nil, fmt.Errorf("%w: fill search value: %v", ErrNavigation, err)
	}
	if err := sess.Click(ctx, submitButtonSelector); err != nil {
		return nil, fmt.Errorf("%w: submit search form: %v", ErrNavigation, err)
	}
	log.Info("Search form submitted")
	b.diag.Screenshot(ctx, sess, fileNumber, "captcha", "after_submit")

	// Challenge-Detect. The site does not gate every search; a missing frame
	// is the benign no-challenge path, not a failure.
	if err := sess.WaitVisible(ctx, challengeFrameSelector, b.cfg.ChallengeTimeout); err != nil {
		log.Info("No challenge frame detected, harvesting existing session")
		return b.harvest(ctx, sess)
	}
	log.Info("Challenge frame detected")
	b.diag.Screenshot(ctx, sess, fileNumber, "captcha", "captcha_detected")

	// Challenge-Solve
	siteKey, ok, err := sess.Attribute(ctx, challengeFrameSelector, siteKeyAttribute)
	if err != nil || !ok || siteKey == "" {
		return nil, ErrNoSiteKey
	}
	pageURL, err := sess.CurrentURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read page url: %v", ErrNavigation, err)
	}

	token, err := b.solver.Solve(ctx, siteKey, pageURL)
	if err != nil {
		return nil, err
	}

	// Token-Inject. Best effort: some pages self-verify once the response
	// field holds a value, so a scripting failure here is not fatal.
	if err := sess.EvaluateInFrame(ctx, challengeFrameSelector, verifyScript(token)); err != nil {
		log.WithError(err).Warn("Token injection failed, relying on page self-verification")
	}

	// Settle
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(b.cfg.SettleDelay):
	}
	b.diag.Screenshot(ctx, sess, fileNumber, "captcha", "after_solution")

	return b.harvest(ctx, sess)
}

// harvest reads cookies and representative headers out of the browser.
func (b *Bootstrapper) harvest(ctx context.Context, sess browser.Session) (*SessionCredentials, error) {
	cookies, err := sess.Cookies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: harvest cookies: %v", ErrNavigation, err)
	}

	headers := make(map[string]string)
	if err := sess.Evaluate(ctx, headersScript, &headers); err != nil {
		return nil, fmt.Errorf("%w: harvest headers: %v", ErrNavigation, err)
	}

	b.logger.WithFields(logrus.Fields{
		"cookies": len(cookies),
		"headers": len(headers),
	}).Info("Session credentials harvested")

	return &SessionCredentials{Cookies: cookies, Headers: headers}, nil
}

// verifyScript clears the visibility-hiding style on the token field, sets
// the solved token, and invokes the page's verification callback when the
// page exposes one.
func verifyScript(token string) string {
	return fmt.Sprintf(`
		var textarea = document.getElementById("g-recaptcha-response");
		if (textarea) {
			var currentStyle = textarea.getAttribute("style");
			if (currentStyle) {
				textarea.setAttribute("style", currentStyle.replace(/display:\s*none;?/gi, ""));
			}
			textarea.value = %[1]q;
			textarea.innerHTML = %[1]q;
			if (typeof verifyAkReCaptcha === "function") {
				verifyAkReCaptcha(%[1]q);
			}
		}
	`, token)
}

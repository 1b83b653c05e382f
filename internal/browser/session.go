package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/browser/humanoid"
	"github.com/xkilldash9x/teralink/internal/browser/stealth"
)

// Session is one isolated browser context bound to one fingerprint profile.
// Sessions are single-use: opened for an attempt, closed when it ends.
// Close is idempotent and safe to call concurrently.
type Session struct {
	ID      string
	Profile schemas.Profile

	ctx     context.Context
	cancel  context.CancelFunc
	manager *Manager
	human   *humanoid.Humanoid
	logger  *zap.Logger

	mu        sync.Mutex
	docStatus int64 // HTTP status of the last main-document response

	closed atomic.Bool
}

func newSession(allocatorCtx context.Context, m *Manager, profile schemas.Profile) (*Session, error) {
	ctx, cancel := chromedp.NewContext(allocatorCtx)

	s := &Session{
		ID:      uuid.NewString(),
		Profile: profile,
		ctx:     ctx,
		cancel:  cancel,
		manager: m,
		human:   humanoid.New(humanoid.CDPExecutor{}, m.logger),
		logger:  m.logger,
	}

	// Track the main document status so Navigate can classify block pages.
	chromedp.ListenTarget(ctx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			s.mu.Lock()
			s.docStatus = resp.Response.Status
			s.mu.Unlock()
		}
	})

	arm := chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.Enable().Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return network.SetExtraHTTPHeaders(network.Headers{
				"Accept-Language": profile.AcceptLanguage,
			}).Do(ctx)
		}),
	}
	arm = append(arm, stealth.Apply(profile, m.cfg.Stealth, m.logger)...)

	if err := chromedp.Run(ctx, arm); err != nil {
		cancel()
		return nil, schemas.NavigationError("starting browser session", err)
	}
	return s, nil
}

// Context returns the chromedp context for running actions against this
// session's tab.
func (s *Session) Context() context.Context { return s.ctx }

// Humanoid returns the behavior simulator bound to this session.
func (s *Session) Humanoid() *humanoid.Humanoid { return s.human }

// Navigate loads the share page and waits for the document to be ready.
// The load is bounded by the configured navigation timeout and aborts as
// soon as ctx is cancelled. Block-page statuses surface as DetectionError,
// everything else that prevents the page from loading as NavigationError
// or TimeoutError.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return schemas.NewError(schemas.FailTimeout, "navigation cancelled", err)
	}

	// The load runs over the session context; the watcher carries the
	// caller's cancellation into it.
	navCtx, cancel := context.WithTimeout(s.ctx, s.manager.cfg.Browser.NavigationTimeout)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-navCtx.Done():
		}
	}()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return schemas.NewError(schemas.FailTimeout, "navigation cancelled", ctxErr)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return schemas.TimeoutError("navigation to " + rawURL)
		}
		return schemas.NavigationError(fmt.Sprintf("loading %s", rawURL), err)
	}

	s.mu.Lock()
	status := s.docStatus
	s.mu.Unlock()

	switch {
	case status == 403 || status == 429:
		return schemas.DetectionError(fmt.Sprintf("http-%d", status))
	case status >= 400:
		return schemas.NavigationError(fmt.Sprintf("share page returned HTTP %d", status), nil)
	}

	s.logger.Debug("Navigation complete",
		zap.String("session_id", s.ID),
		zap.String("url", truncateURL(rawURL)),
		zap.Int64("status", status),
	)
	return nil
}

// Close tears the browser context down and frees the pool slot. Safe to
// call more than once; only the first call does anything.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	s.manager.release(s.ID)
	s.logger.Debug("Session closed", zap.String("session_id", s.ID))
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool { return s.closed.Load() }

func truncateURL(u string) string {
	if i := strings.IndexByte(u, '?'); i > 0 {
		return u[:i] + "?..."
	}
	return u
}

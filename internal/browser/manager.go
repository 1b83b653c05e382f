// Package browser owns the Chrome process and the lifecycle of the
// sessions opened against it. One Manager wraps one exec allocator; each
// extraction attempt opens one Session (an isolated browser context) armed
// with its own fingerprint profile, and closes it when the attempt ends.
package browser

import (
	"context"
	"net/url"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/config"
)

// Manager manages the browser executable and enforces the session cap.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocatorCtx    context.Context
	allocatorCancel context.CancelFunc

	// slots bounds concurrent sessions; acquisition blocks until a slot
	// frees or the caller's context expires.
	slots *semaphore.Weighted

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager starts the allocator for the configured Chrome binary.
func NewManager(ctx context.Context, logger *zap.Logger, cfg *config.Config) (*Manager, error) {
	m := &Manager{
		logger:   logger.Named("browser_manager"),
		cfg:      cfg,
		slots:    semaphore.NewWeighted(cfg.Browser.SessionCap),
		sessions: make(map[string]*Session),
	}

	m.allocatorCtx, m.allocatorCancel = chromedp.NewExecAllocator(ctx, m.allocatorOptions()...)

	m.logger.Info("Browser manager initialized",
		zap.Bool("headless", cfg.Browser.Headless),
		zap.Int64("session_cap", cfg.Browser.SessionCap),
	)
	return m, nil
}

// allocatorOptions builds the launch flags. The set avoids the artifacts
// headless Chrome is commonly probed for.
func (m *Manager) allocatorOptions() []chromedp.ExecAllocatorOption {
	browserCfg := m.cfg.Browser

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),

		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-extensions", true),

		chromedp.Flag("webrtc-ip-handling-policy", "disable_non_proxied_udp"),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("mute-audio", true),

		chromedp.Flag("disable-gpu", browserCfg.Headless),
		chromedp.Flag("ignore-certificate-errors", browserCfg.IgnoreTLSErrors),
	}

	if browserCfg.Headless {
		// The "new" headless mode shares the rendering path with headful
		// Chrome and leaks far fewer detection signals than the old one.
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if browserCfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(browserCfg.ChromePath))
	}
	if browserCfg.ProxyAddress != "" {
		proxyURL := "http://" + browserCfg.ProxyAddress
		if _, err := url.Parse(proxyURL); err == nil {
			opts = append(opts,
				chromedp.ProxyServer(proxyURL),
				chromedp.Flag("ignore-certificate-errors", true),
			)
		} else {
			m.logger.Error("Invalid proxy address, launching without proxy",
				zap.String("address", browserCfg.ProxyAddress))
		}
	}

	return opts
}

// NewSession opens an isolated browser context armed with the given
// profile. Blocks while the pool is at capacity; returns the context error
// if ctx expires first. The caller must Close the session.
func (m *Manager) NewSession(ctx context.Context, profile schemas.Profile) (*Session, error) {
	if err := m.slots.Acquire(ctx, 1); err != nil {
		return nil, schemas.NewError(schemas.FailTimeout, "waiting for a session slot", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.slots.Release(1)
		return nil, schemas.NewError(schemas.FailNavigation, "browser manager is shut down", nil)
	}
	m.mu.Unlock()

	s, err := newSession(m.allocatorCtx, m, profile)
	if err != nil {
		m.slots.Release(1)
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("Session opened",
		zap.String("session_id", s.ID),
		zap.String("platform", profile.PlatformFamily),
		zap.String("timezone", profile.Timezone),
	)
	return s, nil
}

// release returns a session's slot and drops it from the registry. Called
// exactly once per session, from Session.Close.
func (m *Manager) release(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.slots.Release(1)
}

// ActiveSessions reports the number of open sessions.
func (m *Manager) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown closes every open session and stops the browser process.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		s.Close()
	}
	m.allocatorCancel()
	m.logger.Info("Browser manager shut down", zap.Int("sessions_closed", len(open)))
}

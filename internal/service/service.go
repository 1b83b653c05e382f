// Package service exposes the top-level extraction API: one call turns a
// share URL into a direct download link, with session pooling, layered
// extraction and bounded recovery handled internally.
package service

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/browser"
	"github.com/xkilldash9x/teralink/internal/config"
	"github.com/xkilldash9x/teralink/internal/extract"
	"github.com/xkilldash9x/teralink/internal/fingerprint"
	"github.com/xkilldash9x/teralink/internal/recovery"
	"github.com/xkilldash9x/teralink/internal/resolver"
)

// Extractor is the long-lived service object. Safe for concurrent Resolve
// calls; the browser manager's session cap provides the backpressure.
type Extractor struct {
	cfg      *config.Config
	logger   *zap.Logger
	manager  *browser.Manager
	resolver *resolver.Resolver
	profiles *fingerprint.Generator

	// attempt is swapped out in tests to avoid a live browser.
	attempt func(ctx context.Context, profile schemas.Profile, shareURL, shareID string) (*schemas.Result, error)
}

// New starts the browser manager and returns a ready extractor. Call
// Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Extractor, error) {
	manager, err := browser.NewManager(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		cfg:      cfg,
		logger:   logger.Named("extractor"),
		manager:  manager,
		resolver: resolver.New(cfg.Extraction, logger),
		profiles: fingerprint.NewGenerator(logger),
	}
	e.attempt = e.runAttempt
	return e, nil
}

// Close shuts the browser down and invalidates the extractor.
func (e *Extractor) Close() {
	e.manager.Shutdown()
}

// Resolve extracts the direct download link behind rawURL. Unsupported
// domains fail before any browser resource is spent; everything else goes
// through the recovery loop with a fresh fingerprint per attempt.
func (e *Extractor) Resolve(ctx context.Context, rawURL string) (*schemas.Result, error) {
	shareURL, err := e.resolver.NormalizeShareURL(rawURL)
	if err != nil {
		return nil, err
	}
	shareID := e.resolver.ShareID(shareURL)

	e.logger.Info("Resolving share link",
		zap.String("share_id", shareID),
		zap.String("host", hostOf(shareURL)),
	)

	controller := recovery.NewController(e.cfg.Recovery, e.profiles, &runnerAdapter{
		extractor: e,
		shareURL:  shareURL,
		shareID:   shareID,
	}, e.logger)

	started := time.Now()
	result, err := controller.Run(ctx)
	if err != nil {
		e.logger.Error("Extraction failed",
			zap.String("share_id", shareID),
			zap.String("kind", string(schemas.KindOf(err))),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return nil, err
	}

	e.logger.Info("Extraction succeeded",
		zap.String("share_id", shareID),
		zap.String("layer", string(result.Layer)),
		zap.String("filename", result.Filename),
		zap.Int64("size", result.Size),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// runnerAdapter binds one Resolve call's share URL into the recovery
// controller's AttemptRunner shape.
type runnerAdapter struct {
	extractor *Extractor
	shareURL  string
	shareID   string
}

func (r *runnerAdapter) Attempt(ctx context.Context, profile schemas.Profile, ordinal int) (*schemas.Result, error) {
	return r.extractor.attempt(ctx, profile, r.shareURL, r.shareID)
}

// runAttempt is one complete attempt: open a session with the profile,
// navigate, run the pipeline, validate the winning candidate. The session
// never outlives the attempt.
func (e *Extractor) runAttempt(ctx context.Context, profile schemas.Profile, shareURL, shareID string) (*schemas.Result, error) {
	session, err := e.manager.NewSession(ctx, profile)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	// Attach before navigating so the page load itself is observed.
	collector := extract.NewCollector(session.Context(), e.cfg.Extraction, e.logger)

	if err := session.Navigate(ctx, shareURL); err != nil {
		return nil, err
	}

	pipeline := extract.NewPipeline(
		[]extract.Layer{
			extract.NewNetworkLayer(session, collector, e.logger),
			extract.NewJSStateLayer(session, e.logger),
			extract.NewDOMLayer(session, collector, e.logger),
		},
		map[schemas.Layer]time.Duration{
			schemas.LayerNetwork: e.cfg.Extraction.NetworkLayerTimeout,
			schemas.LayerJSState: e.cfg.Extraction.JSLayerTimeout,
			schemas.LayerDOM:     e.cfg.Extraction.DOMLayerTimeout,
		},
		e.logger,
	)

	// Layers drive the browser, so the pipeline runs over the session
	// context; the watcher carries the attempt's cancellation into it.
	runCtx, cancelRun := context.WithCancel(session.Context())
	defer cancelRun()
	go func() {
		select {
		case <-ctx.Done():
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	candidate, layer, attempts, err := pipeline.Run(runCtx)
	if err != nil {
		e.logger.Debug("Pipeline pass failed",
			zap.String("session_id", session.ID),
			zap.Int("layers_tried", len(attempts)),
			zap.Error(err),
		)
		return nil, err
	}

	return e.resolver.Resolve(ctx, candidate, shareID, layer)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}

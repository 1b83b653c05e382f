package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/browser"
)

// downloadSelectors are tried in order; the first visible match is clicked.
var downloadSelectors = []string{
	`[data-testid="download-btn"]`,
	`button[title*="Download" i]`,
	`a[title*="Download" i]`,
	`.download-btn`,
	`.btn-download`,
	`[class*="downloadBtn"]`,
	`[class*="download-button"]`,
	`a[href*="download"]`,
	`button[class*="download" i]`,
}

// dismissSelectors close the interstitials the share page likes to raise
// before it lets anyone near the download button.
var dismissSelectors = []string{
	`[class*="modal"] [class*="close"]`,
	`.dialog-close`,
	`[aria-label="Close" i]`,
	`[class*="popup"] [class*="close"]`,
	`.ad-close`,
}

// DOMLayer is the last and most intrusive layer: it behaves like a user,
// scrolling the page, dismissing popups and clicking the download control,
// then watches the traffic that the click sets off.
type DOMLayer struct {
	session   *browser.Session
	collector *Collector
	logger    *zap.Logger
}

func NewDOMLayer(session *browser.Session, collector *Collector, logger *zap.Logger) *DOMLayer {
	return &DOMLayer{session: session, collector: collector, logger: logger}
}

func (l *DOMLayer) Name() schemas.Layer { return schemas.LayerDOM }

func (l *DOMLayer) Run(ctx context.Context) schemas.Attempt {
	human := l.session.Humanoid()

	// Read the page like a person would before reaching for the button.
	if err := human.ScrollBy(ctx, 250); err != nil {
		return l.finish(ctx)
	}
	if err := human.Hesitate(ctx, 600*time.Millisecond, 200*time.Millisecond); err != nil {
		return l.finish(ctx)
	}

	l.dismissOverlays(ctx, human)

	clicked := false
	for _, selector := range downloadSelectors {
		x, y, found := l.elementCenter(ctx, selector)
		if !found {
			continue
		}
		l.logger.Debug("Clicking download control", zap.String("selector", selector))
		if err := human.Click(ctx, x, y); err != nil {
			return l.finish(ctx)
		}
		clicked = true
		break
	}

	if clicked {
		// The click may spawn a countdown or a second confirm dialog.
		if err := human.Hesitate(ctx, 1500*time.Millisecond, 500*time.Millisecond); err != nil {
			return l.finish(ctx)
		}
		l.dismissOverlays(ctx, human)
		for _, selector := range downloadSelectors {
			if x, y, found := l.elementCenter(ctx, selector); found {
				_ = human.Click(ctx, x, y)
				break
			}
		}
		if cand := l.collector.Wait(ctx); cand != nil {
			return schemas.Attempt{Outcome: schemas.OutcomeSuccess, Candidate: cand}
		}
	}

	return l.finish(ctx)
}

// finish classifies a pass that produced no candidate.
func (l *DOMLayer) finish(ctx context.Context) schemas.Attempt {
	if cand := l.collector.Best(); cand != nil {
		return schemas.Attempt{Outcome: schemas.OutcomeSuccess, Candidate: cand}
	}
	if signal, blocked := checkChallenge(l.session.Context()); blocked {
		return schemas.Attempt{Outcome: schemas.OutcomeBlocked, Signal: signal}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return schemas.Attempt{Outcome: schemas.OutcomeTimedOut}
	}
	return schemas.Attempt{Outcome: schemas.OutcomeNotFound}
}

func (l *DOMLayer) dismissOverlays(ctx context.Context, human interface {
	Click(context.Context, float64, float64) error
}) {
	for _, selector := range dismissSelectors {
		if x, y, found := l.elementCenter(ctx, selector); found {
			_ = human.Click(ctx, x, y)
			return
		}
	}
}

// elementCenter locates the first visible match of selector and returns the
// center of its bounding box in page coordinates.
func (l *DOMLayer) elementCenter(ctx context.Context, selector string) (x, y float64, found bool) {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return null;
		const r = el.getBoundingClientRect();
		if (!r.width || !r.height) return null;
		const style = getComputedStyle(el);
		if (style.visibility === 'hidden' || style.display === 'none') return null;
		return { x: r.x + r.width / 2, y: r.y + r.height / 2 };
	})()`, selector)

	var point *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &point)); err != nil || point == nil {
		return 0, 0, false
	}
	return point.X, point.Y, true
}

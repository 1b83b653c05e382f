package extract

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/browser"
)

// NetworkLayer is the passive first layer: it only watches the traffic the
// share page generates on its own. Cheapest, least detectable, and on pages
// that autoplay a preview often sufficient.
type NetworkLayer struct {
	session   *browser.Session
	collector *Collector
	logger    *zap.Logger
}

func NewNetworkLayer(session *browser.Session, collector *Collector, logger *zap.Logger) *NetworkLayer {
	return &NetworkLayer{session: session, collector: collector, logger: logger}
}

func (l *NetworkLayer) Name() schemas.Layer { return schemas.LayerNetwork }

func (l *NetworkLayer) Run(ctx context.Context) schemas.Attempt {
	if cand := l.collector.Wait(ctx); cand != nil {
		return schemas.Attempt{Outcome: schemas.OutcomeSuccess, Candidate: cand}
	}

	// Nothing surfaced inside the window; find out whether the page is
	// fighting back before handing over to the next layer.
	if signal, blocked := checkChallenge(l.session.Context()); blocked {
		return schemas.Attempt{Outcome: schemas.OutcomeBlocked, Signal: signal}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return schemas.Attempt{Outcome: schemas.OutcomeTimedOut}
	}
	return schemas.Attempt{Outcome: schemas.OutcomeNotFound}
}

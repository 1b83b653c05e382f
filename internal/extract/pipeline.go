// Package extract implements the layered extraction pipeline. Layers run
// in fixed order from least to most intrusive: passive network
// interception, then in-page JS state inspection, then DOM automation.
// The first layer to produce a candidate wins; a detection signal aborts
// the whole pass so the caller can retry with a fresh identity.
package extract

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
)

// Layer is one extraction strategy. Run must honor ctx and report its
// outcome in the returned attempt; it never panics the pipeline.
type Layer interface {
	Name() schemas.Layer
	Run(ctx context.Context) schemas.Attempt
}

// Pipeline executes its layers in order with individual time budgets.
type Pipeline struct {
	layers   []Layer
	timeouts map[schemas.Layer]time.Duration
	logger   *zap.Logger
}

// NewPipeline builds a pipeline over the given layers. A missing timeout
// entry means the layer inherits the caller's deadline.
func NewPipeline(layers []Layer, timeouts map[schemas.Layer]time.Duration, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{layers: layers, timeouts: timeouts, logger: logger}
}

// Run drives one full pass. It returns the first accepted candidate and
// the layer that produced it. A blocked outcome short-circuits with a
// DetectionError; layers that time out or find nothing pass control to the
// next layer. When every layer misses, the pass ends in NotFoundError —
// unless every layer ran out of time, which is a TimeoutError: nothing
// actually searched the page to completion.
func (p *Pipeline) Run(ctx context.Context) (*schemas.Candidate, schemas.Layer, []schemas.Attempt, error) {
	attempts := make([]schemas.Attempt, 0, len(p.layers))
	timedOut := 0

	for _, layer := range p.layers {
		if err := ctx.Err(); err != nil {
			return nil, "", attempts, schemas.TimeoutError("extraction pass")
		}

		layerCtx := ctx
		var cancel context.CancelFunc
		if budget, ok := p.timeouts[layer.Name()]; ok && budget > 0 {
			layerCtx, cancel = context.WithTimeout(ctx, budget)
		}

		started := time.Now()
		attempt := layer.Run(layerCtx)
		if cancel != nil {
			cancel()
		}
		attempt.Layer = layer.Name()
		attempt.Duration = time.Since(started)
		attempts = append(attempts, attempt)

		p.logger.Debug("Layer finished",
			zap.String("layer", string(attempt.Layer)),
			zap.String("outcome", string(attempt.Outcome)),
			zap.Duration("duration", attempt.Duration),
		)

		switch attempt.Outcome {
		case schemas.OutcomeSuccess:
			if attempt.Candidate == nil {
				// A layer reporting success without a candidate is a bug;
				// treat it as a miss rather than crash the pass.
				p.logger.Warn("Layer reported success without a candidate",
					zap.String("layer", string(attempt.Layer)))
				continue
			}
			return attempt.Candidate, attempt.Layer, attempts, nil
		case schemas.OutcomeBlocked:
			return nil, "", attempts, schemas.DetectionError(attempt.Signal)
		case schemas.OutcomeTimedOut:
			timedOut++
		}
		// not-found and timed-out fall through to the next layer.
	}

	if len(attempts) > 0 && timedOut == len(attempts) {
		return nil, "", attempts, schemas.TimeoutError("extraction pass")
	}
	return nil, "", attempts, schemas.NotFoundError()
}

// Package recovery drives the bounded retry loop around extraction
// attempts. Every retry gets a fresh fingerprint profile; delays between
// attempts grow exponentially with optional jitter.
package recovery

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/config"
)

// State is the controller's position in its lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateAttempting State = "attempting"
	StateRetrying   State = "retrying"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)

// ProfileSource yields a fresh identity per attempt.
type ProfileSource interface {
	Generate() schemas.Profile
}

// AttemptRunner executes one full extraction attempt with the given
// profile. Implementations own the session lifecycle for the attempt.
type AttemptRunner interface {
	Attempt(ctx context.Context, profile schemas.Profile, ordinal int) (*schemas.Result, error)
}

// AttemptRecord is the trace of one finished attempt.
type AttemptRecord struct {
	Ordinal int
	Kind    schemas.FailureKind
	Err     error
	Waited  time.Duration
}

// Controller runs the retry loop for a single share URL. Not safe for
// concurrent use; create one per extraction.
type Controller struct {
	cfg      config.RecoveryConfig
	profiles ProfileSource
	runner   AttemptRunner
	logger   *zap.Logger
	rng      *rand.Rand

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error

	state   State
	history []AttemptRecord
}

// NewController wires a controller over the given collaborators.
func NewController(cfg config.RecoveryConfig, profiles ProfileSource, runner AttemptRunner, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		cfg:      cfg,
		profiles: profiles,
		runner:   runner,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:    sleepCtx,
		state:    StateIdle,
	}
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State { return c.state }

// History returns the records of all finished attempts so far.
func (c *Controller) History() []AttemptRecord { return c.history }

// Run executes attempts until one succeeds, a non-retryable failure
// occurs, the attempt budget is spent, or ctx is cancelled. Exactly
// MaxAttempts attempts run in the worst case, each with a profile of its
// own.
func (c *Controller) Run(ctx context.Context) (*schemas.Result, error) {
	var lastErr error

	for ordinal := 1; ordinal <= c.cfg.MaxAttempts; ordinal++ {
		if err := ctx.Err(); err != nil {
			return nil, schemas.NewError(schemas.FailTimeout, "extraction cancelled", err)
		}

		c.state = StateAttempting
		profile := c.profiles.Generate()

		c.logger.Info("Starting extraction attempt",
			zap.Int("attempt", ordinal),
			zap.Int("max_attempts", c.cfg.MaxAttempts),
			zap.String("platform", profile.PlatformFamily),
		)

		result, err := c.runner.Attempt(ctx, profile, ordinal)
		if err == nil {
			c.state = StateSucceeded
			c.history = append(c.history, AttemptRecord{Ordinal: ordinal})
			return result, nil
		}

		lastErr = err
		kind := schemas.KindOf(err)
		record := AttemptRecord{Ordinal: ordinal, Kind: kind, Err: err}

		if !kind.Retryable() {
			c.history = append(c.history, record)
			c.state = StateExhausted
			return nil, err
		}
		if ordinal == c.cfg.MaxAttempts {
			c.history = append(c.history, record)
			break
		}

		c.state = StateRetrying
		wait := Backoff(c.cfg, ordinal, c.rng)
		record.Waited = wait
		c.history = append(c.history, record)

		c.logger.Warn("Attempt failed, backing off before retry",
			zap.Int("attempt", ordinal),
			zap.String("kind", string(kind)),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, schemas.NewError(schemas.FailTimeout, "cancelled during backoff", err)
		}
	}

	c.state = StateExhausted
	return nil, schemas.ExhaustedError(c.cfg.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

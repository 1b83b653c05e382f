package recovery

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/config"
	"github.com/xkilldash9x/teralink/internal/fingerprint"
)

type scriptedRunner struct {
	outcomes []error
	profiles []schemas.Profile
	calls    int
}

func (s *scriptedRunner) Attempt(_ context.Context, profile schemas.Profile, _ int) (*schemas.Result, error) {
	s.profiles = append(s.profiles, profile)
	err := s.outcomes[s.calls]
	s.calls++
	if err != nil {
		return nil, err
	}
	return &schemas.Result{URL: "https://d3.terabox.com/ok?sign=x"}, nil
}

func testController(t *testing.T, runner AttemptRunner) *Controller {
	t.Helper()
	cfg := config.Get().Recovery
	c := NewController(cfg, fingerprint.NewSeededGenerator(1, zap.NewNop()), runner, zap.NewNop())
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return c
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	runner := &scriptedRunner{outcomes: []error{nil}}
	c := testController(t, runner)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, StateSucceeded, c.State())
}

func TestRunRetriesDetectionWithFreshProfile(t *testing.T) {
	runner := &scriptedRunner{outcomes: []error{
		schemas.DetectionError("captcha-iframe"),
		nil,
	}}
	c := testController(t, runner)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Equal(t, 2, runner.calls)

	// Each attempt must carry its own identity.
	assert.NotEqual(t, runner.profiles[0].UserAgent+runner.profiles[0].Timezone,
		runner.profiles[1].UserAgent+runner.profiles[1].Timezone)
	assert.NotEqual(t, runner.profiles[0].CanvasSeed, runner.profiles[1].CanvasSeed)
}

func TestRunStopsAtExactlyMaxAttempts(t *testing.T) {
	runner := &scriptedRunner{outcomes: []error{
		schemas.NotFoundError(),
		schemas.TimeoutError("navigation"),
		schemas.DetectionError("http-429"),
		nil, // must never be reached
	}}
	c := testController(t, runner)

	res, err := c.Run(context.Background())
	assert.Nil(t, res)
	assert.Equal(t, config.Get().Recovery.MaxAttempts, runner.calls)
	assert.Equal(t, StateExhausted, c.State())

	var extractErr *schemas.ExtractError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, schemas.FailExhausted, extractErr.Kind)
	// The terminal error keeps the last underlying failure.
	assert.Equal(t, schemas.FailDetection, schemas.KindOf(extractErr.Err))
}

func TestRunFailsFastOnNonRetryable(t *testing.T) {
	runner := &scriptedRunner{outcomes: []error{
		schemas.UnsupportedDomainError("example.com"),
		nil,
	}}
	c := testController(t, runner)

	_, err := c.Run(context.Background())
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, schemas.FailUnsupportedDomain, schemas.KindOf(err))
	assert.Equal(t, StateExhausted, c.State())
}

func TestRunRecordsHistory(t *testing.T) {
	runner := &scriptedRunner{outcomes: []error{
		schemas.DetectionError("http-403"),
		nil,
	}}
	c := testController(t, runner)

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	history := c.History()
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Ordinal)
	assert.Equal(t, schemas.FailDetection, history[0].Kind)
	assert.Equal(t, 2, history[1].Ordinal)
	assert.NoError(t, history[1].Err)
}

func TestRunHonorsCancellationDuringBackoff(t *testing.T) {
	runner := &scriptedRunner{outcomes: []error{
		schemas.NotFoundError(),
		nil,
	}}
	c := testController(t, runner)
	c.sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }

	_, err := c.Run(context.Background())
	assert.Equal(t, 1, runner.calls)
	assert.Equal(t, schemas.FailTimeout, schemas.KindOf(err))
}

func TestBackoffGrowsAndClamps(t *testing.T) {
	cfg := config.RecoveryConfig{
		MaxAttempts:       10,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		BackoffMax:        30 * time.Second,
		BackoffJitter:     false,
	}

	assert.Equal(t, 2*time.Second, Backoff(cfg, 1, nil))
	assert.Equal(t, 4*time.Second, Backoff(cfg, 2, nil))
	assert.Equal(t, 8*time.Second, Backoff(cfg, 3, nil))
	assert.Equal(t, 16*time.Second, Backoff(cfg, 4, nil))
	assert.Equal(t, 30*time.Second, Backoff(cfg, 5, nil))
	assert.Equal(t, 30*time.Second, Backoff(cfg, 9, nil))
}

func TestBackoffJitterStaysInBand(t *testing.T) {
	cfg := config.RecoveryConfig{
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		BackoffMax:        30 * time.Second,
		BackoffJitter:     true,
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		d := Backoff(cfg, 2, rng)
		assert.GreaterOrEqual(t, d, 3*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}

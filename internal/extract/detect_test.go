package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckChallengeBoundsTheProbe(t *testing.T) {
	orig := runChallengeProbe
	defer func() { runChallengeProbe = orig }()

	var deadline time.Time
	var hasDeadline bool
	runChallengeProbe = func(ctx context.Context, signal *string) error {
		deadline, hasDeadline = ctx.Deadline()
		*signal = "captcha-widget"
		return nil
	}

	// The caller's context carries no deadline; the probe must get one.
	signal, blocked := checkChallenge(context.Background())
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(challengeProbeTimeout), deadline, time.Second)
	assert.True(t, blocked)
	assert.Equal(t, "captcha-widget", signal)
}

func TestCheckChallengeFailsOpenOnProbeError(t *testing.T) {
	orig := runChallengeProbe
	defer func() { runChallengeProbe = orig }()

	runChallengeProbe = func(ctx context.Context, _ *string) error {
		return errors.New("page is wedged")
	}

	signal, blocked := checkChallenge(context.Background())
	assert.False(t, blocked)
	assert.Empty(t, signal)
}

func TestCheckChallengeCleanPage(t *testing.T) {
	orig := runChallengeProbe
	defer func() { runChallengeProbe = orig }()

	runChallengeProbe = func(ctx context.Context, signal *string) error {
		*signal = ""
		return nil
	}

	_, blocked := checkChallenge(context.Background())
	assert.False(t, blocked)
}

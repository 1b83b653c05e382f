package recovery

import (
	"math"
	"math/rand"
	"time"

	"github.com/xkilldash9x/teralink/internal/config"
)

// Backoff returns the delay before retry number attempt (1-based: the
// delay after the first failed attempt is Backoff(cfg, 1, …)). The delay
// grows geometrically and is clamped to the configured maximum before
// jitter is applied.
func Backoff(cfg config.RecoveryConfig, attempt int, rng *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := time.Duration(float64(cfg.BackoffBase) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1)))
	if d > cfg.BackoffMax || d < 0 {
		d = cfg.BackoffMax
	}

	if cfg.BackoffJitter && rng != nil {
		// Spread retries across +/-25% so parallel extractions don't
		// hammer the site in lockstep.
		d = time.Duration(float64(d) * (0.75 + rng.Float64()*0.5))
	}
	return d
}

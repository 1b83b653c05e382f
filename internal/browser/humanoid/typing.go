package humanoid

import (
	"math/rand"
	"time"
	"unicode"
)

// Typing rhythm parameters, in milliseconds. Tuned to a moderately fast
// touch typist.
const (
	typeMeanDelay   = 110.0
	typeStdDevDelay = 35.0
	typeMinDelay    = 30.0
	spacePauseBoost = 1.6
	thinkPauseProb  = 0.04
)

// typingTrace returns one inter-key delay per rune of text. Delays follow a
// normal distribution, word boundaries take longer, and an occasional
// "thinking" pause breaks the rhythm.
func typingTrace(text string, rng *rand.Rand) []time.Duration {
	runes := []rune(text)
	delays := make([]time.Duration, len(runes))
	for i, r := range runes {
		ms := typeMeanDelay + rng.NormFloat64()*typeStdDevDelay
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			ms *= spacePauseBoost
		}
		if rng.Float64() < thinkPauseProb {
			ms += 300 + rng.Float64()*700
		}
		if ms < typeMinDelay {
			ms = typeMinDelay
		}
		delays[i] = time.Duration(ms * float64(time.Millisecond))
	}
	return delays
}

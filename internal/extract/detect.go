package extract

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
)

// challengeProbeTimeout caps the probe so a wedged page cannot stall the
// pass after a layer's own budget is already spent.
const challengeProbeTimeout = 3 * time.Second

// challengeProbeJS inspects the live document for bot-challenge markers and
// returns the name of the first one that fires, or an empty string.
const challengeProbeJS = `(() => {
	const selectors = [
		['captcha-iframe', 'iframe[src*="captcha"], iframe[src*="recaptcha"], iframe[src*="hcaptcha"], iframe[src*="turnstile"]'],
		['captcha-widget', '.g-recaptcha, .h-captcha, .cf-turnstile, #captcha, [class*="captcha"]'],
		['challenge-form', '#challenge-form, #challenge-running, .challenge-container'],
		['verify-slider', '.verify-slider, .slider-verify, [class*="slide-verify"]'],
	];
	for (const [name, sel] of selectors) {
		try {
			if (document.querySelector(sel)) return name;
		} catch (e) { /* bad selector on this engine */ }
	}

	const title = (document.title || '').toLowerCase();
	const titleMarkers = ['just a moment', 'access denied', 'attention required', 'security check'];
	for (const m of titleMarkers) {
		if (title.includes(m)) return 'title:' + m;
	}

	const body = document.body ? (document.body.innerText || '').slice(0, 4000).toLowerCase() : '';
	const textMarkers = [
		'verify you are human',
		'unusual traffic',
		'complete the security check',
		'prove you are not a robot',
	];
	for (const m of textMarkers) {
		if (body.includes(m)) return 'text:' + m;
	}
	return '';
})()`

// runChallengeProbe is swapped out in tests.
var runChallengeProbe = func(ctx context.Context, signal *string) error {
	return chromedp.Run(ctx, chromedp.Evaluate(challengeProbeJS, signal))
}

// checkChallenge probes the page for detection markers. The returned signal
// is empty when the page looks clean. Probe failures are reported as clean;
// a broken page surfaces through the layer's own extraction path.
func checkChallenge(ctx context.Context) (string, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, challengeProbeTimeout)
	defer cancel()

	var signal string
	if err := runChallengeProbe(probeCtx, &signal); err != nil {
		return "", false
	}
	return signal, signal != ""
}

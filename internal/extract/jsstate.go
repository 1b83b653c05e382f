package extract

import (
	"context"
	"errors"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/browser"
)

// stateProbeJS runs inside the share page. It pulls the session token out
// of the page state and asks the site's own share/list API for the direct
// link, falling back to a playing video element or a dlink already present
// in the page source.
const stateProbeJS = `(async () => {
	const html = document.documentElement.outerHTML;

	const fallback = () => {
		const v = document.querySelector('video');
		if (v && v.src && v.src.startsWith('http')) {
			return { url: v.src, filename: '', size: 0, contentType: 'video/mp4' };
		}
		const dl = html.match(/"dlink"\s*:\s*"(https?:[^"]+)"/);
		if (dl) {
			return { url: dl[1].replace(/\\\//g, '/'), filename: '', size: 0, contentType: '' };
		}
		return null;
	};

	const tokenMatch =
		html.match(/jsToken.{0,200}?%22([0-9A-F]+)%22/i) ||
		html.match(/jsToken['"]?\s*[:=]\s*['"]([0-9A-F]+)['"]/i);
	const surlMatch =
		location.search.match(/surl=([A-Za-z0-9_-]+)/) ||
		location.pathname.match(/\/s\/1([A-Za-z0-9_-]+)/) ||
		location.pathname.match(/\/s\/([A-Za-z0-9_-]+)/);
	if (!tokenMatch || !surlMatch) return fallback();

	const params = new URLSearchParams({
		app_id: '250528',
		web: '1',
		channel: 'dubox',
		clienttype: '0',
		jsToken: tokenMatch[1],
		shorturl: '1' + surlMatch[1],
		root: '1',
	});

	try {
		const resp = await fetch(location.origin + '/share/list?' + params.toString(), {
			credentials: 'include',
		});
		if (!resp.ok) return fallback();
		const data = await resp.json();
		if (data.errno !== 0 || !Array.isArray(data.list) || data.list.length === 0) return fallback();
		const file = data.list.find((f) => f.dlink) || data.list[0];
		if (!file.dlink) return fallback();
		return {
			url: file.dlink,
			filename: file.server_filename || '',
			size: Number(file.size) || 0,
			contentType: '',
		};
	} catch (e) {
		return fallback();
	}
})()`

type stateProbeResult struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

// JSStateLayer is the second layer: it inspects the page's own JavaScript
// state and replays the site's internal API call with the page's session
// token. More intrusive than listening, still no synthetic input.
type JSStateLayer struct {
	session *browser.Session
	logger  *zap.Logger
}

func NewJSStateLayer(session *browser.Session, logger *zap.Logger) *JSStateLayer {
	return &JSStateLayer{session: session, logger: logger}
}

func (l *JSStateLayer) Name() schemas.Layer { return schemas.LayerJSState }

func (l *JSStateLayer) Run(ctx context.Context) schemas.Attempt {
	var result *stateProbeResult
	err := chromedp.Run(ctx, chromedp.Evaluate(stateProbeJS, &result,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return schemas.Attempt{Outcome: schemas.OutcomeTimedOut}
		}
		l.logger.Debug("State probe failed", zap.Error(err))
		return schemas.Attempt{Outcome: schemas.OutcomeNotFound}
	}

	if result != nil && result.URL != "" {
		return schemas.Attempt{
			Outcome: schemas.OutcomeSuccess,
			Candidate: &schemas.Candidate{
				URL:         result.URL,
				Filename:    result.Filename,
				Size:        result.Size,
				ContentType: result.ContentType,
			},
		}
	}

	if signal, blocked := checkChallenge(l.session.Context()); blocked {
		return schemas.Attempt{Outcome: schemas.OutcomeBlocked, Signal: signal}
	}
	return schemas.Attempt{Outcome: schemas.OutcomeNotFound}
}

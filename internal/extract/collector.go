package extract

import (
	"context"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/config"
)

// mediaTypes are content types that mark a response as file payload rather
// than page asset.
var mediaTypes = map[string]bool{
	"application/octet-stream":     true,
	"application/zip":              true,
	"application/x-zip-compressed": true,
	"application/x-rar-compressed": true,
	"application/x-7z-compressed":  true,
	"application/pdf":              true,
	"application/vnd.android.package-archive": true,
}

// Collector passively observes network responses on a session and keeps
// every one that looks like a direct download. Attach before navigation so
// the initial page load is covered.
type Collector struct {
	cfg    config.ExtractionConfig
	logger *zap.Logger

	mu         sync.Mutex
	candidates []schemas.Candidate
	notify     chan struct{}
}

// NewCollector attaches a collector to the session context.
func NewCollector(sessionCtx context.Context, cfg config.ExtractionConfig, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		cfg:    cfg,
		logger: logger,
		notify: make(chan struct{}, 1),
	}

	chromedp.ListenTarget(sessionCtx, func(ev any) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok {
			return
		}
		c.observe(resp.Response)
	})

	return c
}

func (c *Collector) observe(resp *network.Response) {
	if resp == nil || resp.Status < 200 || resp.Status >= 300 {
		return
	}

	cand, ok := c.classify(resp)
	if !ok {
		return
	}

	c.mu.Lock()
	c.candidates = append(c.candidates, cand)
	c.mu.Unlock()

	c.logger.Debug("Captured download candidate",
		zap.String("content_type", cand.ContentType),
		zap.Int64("size", cand.Size),
	)

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// classify decides whether a response is a direct download. Two routes in:
// a media content type of sufficient size, or a signed URL on a known CDN
// host.
func (c *Collector) classify(resp *network.Response) (schemas.Candidate, bool) {
	contentType := strings.ToLower(strings.TrimSpace(strings.SplitN(resp.MimeType, ";", 2)[0]))
	size := contentLength(resp)

	isMedia := strings.HasPrefix(contentType, "video/") ||
		strings.HasPrefix(contentType, "audio/") ||
		mediaTypes[contentType]

	parsed, err := url.Parse(resp.URL)
	if err != nil {
		return schemas.Candidate{}, false
	}
	onCDN := c.matchesCDN(parsed.Host)
	signed := c.hasSignature(parsed)

	switch {
	case isMedia && size >= c.cfg.MinFileSize:
	case isMedia && onCDN && signed:
	case onCDN && signed && size >= c.cfg.MinFileSize:
	default:
		return schemas.Candidate{}, false
	}

	return schemas.Candidate{
		URL:         resp.URL,
		Filename:    filenameFrom(resp, parsed),
		Size:        size,
		ContentType: contentType,
	}, true
}

func (c *Collector) matchesCDN(host string) bool {
	host = strings.ToLower(host)
	for _, pattern := range c.cfg.CDNPatterns {
		if strings.Contains(host, pattern) {
			return true
		}
	}
	return false
}

func (c *Collector) hasSignature(u *url.URL) bool {
	query := u.Query()
	for _, param := range c.cfg.SignatureParams {
		if query.Has(param) {
			return true
		}
	}
	return false
}

// Best returns the strongest candidate so far: video content wins, then
// the largest payload.
func (c *Collector) Best() *schemas.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *schemas.Candidate
	for i := range c.candidates {
		cand := &c.candidates[i]
		if best == nil || betterCandidate(cand, best) {
			best = cand
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// Wait blocks until at least one candidate exists or ctx expires, then
// returns the best one. Returns nil on timeout.
func (c *Collector) Wait(ctx context.Context) *schemas.Candidate {
	for {
		if best := c.Best(); best != nil {
			return best
		}
		select {
		case <-ctx.Done():
			return c.Best()
		case <-c.notify:
		}
	}
}

// Count reports how many candidates have been captured.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.candidates)
}

func betterCandidate(a, b *schemas.Candidate) bool {
	aVideo := strings.HasPrefix(a.ContentType, "video/")
	bVideo := strings.HasPrefix(b.ContentType, "video/")
	if aVideo != bVideo {
		return aVideo
	}
	return a.Size > b.Size
}

func contentLength(resp *network.Response) int64 {
	for key, value := range resp.Headers {
		if !strings.EqualFold(key, "content-length") {
			continue
		}
		if s, ok := value.(string); ok {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

func filenameFrom(resp *network.Response, u *url.URL) string {
	for key, value := range resp.Headers {
		if !strings.EqualFold(key, "content-disposition") {
			continue
		}
		if s, ok := value.(string); ok {
			if _, params, err := mime.ParseMediaType(s); err == nil {
				if name := params["filename"]; name != "" {
					return name
				}
			}
		}
	}
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return ""
}

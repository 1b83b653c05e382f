// Package resolver validates share URLs on the way in and candidate
// download links on the way out. Normalization is idempotent; validation
// never mutates an accepted result.
package resolver

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/config"
)

// Resolver checks URLs against the configured domain and signature sets.
type Resolver struct {
	cfg    config.ExtractionConfig
	client *http.Client
	logger *zap.Logger
}

// New builds a resolver. The HTTP client is only used when probing is
// enabled in the configuration.
func New(cfg config.ExtractionConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.ProbeTimeout},
	}
}

// NormalizeShareURL canonicalizes a raw share URL: scheme defaulted to
// https, host lowercased, fragment dropped. Applying it twice gives the
// same string. Returns ValidationError for anything that is not a URL and
// UnsupportedDomainError for hosts outside the supported set.
func (r *Resolver) NormalizeShareURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", schemas.ValidationError("share URL is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", schemas.ValidationError(fmt.Sprintf("%q is not a URL", raw))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", schemas.ValidationError(fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Hostname())
	u.Fragment = ""
	stripTrackingParams(u)

	if !r.SupportedDomain(u.Host) {
		return "", schemas.UnsupportedDomainError(u.Host)
	}
	return u.String(), nil
}

// stripTrackingParams drops campaign parameters that carry no routing
// meaning, so the same share arrives at the same canonical URL.
func stripTrackingParams(u *url.URL) {
	query := u.Query()
	changed := false
	for param := range query {
		if strings.HasPrefix(param, "utm_") || param == "fbclid" || param == "gclid" || param == "ref" {
			query.Del(param)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

// SupportedDomain reports whether host is a supported domain or a
// subdomain of one.
func (r *Resolver) SupportedDomain(host string) bool {
	host = strings.ToLower(host)
	for _, domain := range r.cfg.SupportedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// ShareID extracts the short share identifier from a normalized share URL.
// Both the ?surl= form and the /s/1… path form are recognized.
func (r *Resolver) ShareID(shareURL string) string {
	u, err := url.Parse(shareURL)
	if err != nil {
		return ""
	}
	if surl := u.Query().Get("surl"); surl != "" {
		return surl
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg == "s" && i+1 < len(segments) {
			return strings.TrimPrefix(segments[i+1], "1")
		}
	}
	return ""
}

// Resolve turns an accepted candidate into the final immutable result.
// The candidate URL must be absolute https; when probing is enabled the
// link is fetched once to weed out links that serve an error page instead
// of bytes.
func (r *Resolver) Resolve(ctx context.Context, cand *schemas.Candidate, shareID string, layer schemas.Layer) (*schemas.Result, error) {
	u, err := url.Parse(cand.URL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, schemas.ValidationError(fmt.Sprintf("candidate %q is not an absolute URL", cand.URL))
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, schemas.ValidationError(fmt.Sprintf("candidate has unsupported scheme %q", u.Scheme))
	}

	if r.cfg.ProbeLinks {
		if err := r.probe(ctx, cand.URL); err != nil {
			return nil, err
		}
	}

	filename := cand.Filename
	if filename == "" {
		if base := path.Base(u.Path); base != "." && base != "/" {
			filename = base
		}
	}

	return &schemas.Result{
		URL:      cand.URL,
		Filename: filename,
		Size:     cand.Size,
		FileType: fileType(filename, cand.ContentType),
		Layer:    layer,
		ShareID:  shareID,
	}, nil
}

// probe fetches the first byte of the link. Links that answer with an
// HTML error page are rejected; transport failures are reported as
// validation failures too, since the link is what is being judged.
func (r *Resolver) probe(ctx context.Context, link string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return schemas.ValidationError("building probe request: " + err.Error())
	}
	req.Header.Set("Range", "bytes=0-0")

	resp, err := r.client.Do(req)
	if err != nil {
		return schemas.ValidationError("probing link: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return schemas.ValidationError(fmt.Sprintf("link probe returned HTTP %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		if marker := htmlErrorMarker(resp); marker != "" {
			return schemas.ValidationError("link serves an error page: " + marker)
		}
		return schemas.ValidationError("link serves HTML instead of file content")
	}
	return nil
}

// htmlErrorMarker parses the HTML body and names the error indicator it
// finds, if any.
func htmlErrorMarker(resp *http.Response) string {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	for _, marker := range []string{"error", "expired", "not found", "denied", "forbidden"} {
		if strings.Contains(title, marker) {
			return "title:" + marker
		}
	}

	found := ""
	doc.Find(".error, .error-page, [class*='error-msg'], [class*='expired']").EachWithBreak(
		func(_ int, sel *goquery.Selection) bool {
			if text := strings.TrimSpace(sel.Text()); text != "" {
				if len(text) > 60 {
					text = text[:60]
				}
				found = "body:" + text
				return false
			}
			return true
		})
	return found
}

func fileType(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), "."); ext != "" {
		return ext
	}
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return strings.TrimPrefix(contentType, "video/")
	case strings.HasPrefix(contentType, "audio/"):
		return strings.TrimPrefix(contentType, "audio/")
	case contentType == "application/zip":
		return "zip"
	case contentType == "application/pdf":
		return "pdf"
	}
	return ""
}

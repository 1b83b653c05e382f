// Package download fetches the resolved direct link to disk. Interrupted
// downloads resume through HTTP range requests when a partial file exists.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/xkilldash9x/teralink/api/schemas"
	"github.com/xkilldash9x/teralink/internal/config"
)

// Engine downloads resolved links. Safe for concurrent use.
type Engine struct {
	cfg    config.DownloadConfig
	client *http.Client
	logger *zap.Logger
}

// New builds a download engine over the configured output directory.
func New(cfg config.DownloadConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch downloads the result's URL into the output directory and returns
// the final file path. Progress renders to the terminal unless quiet is
// set. A pre-existing partial file is resumed, not restarted.
func (e *Engine) Fetch(ctx context.Context, result *schemas.Result, quiet bool) (string, error) {
	filename := safeFilename(result.Filename)
	if filename == "" {
		filename = "download-" + result.ShareID
	}
	destination := filepath.Join(e.cfg.OutputDir, filename)

	var offset int64
	if info, err := os.Stat(destination); err == nil {
		offset = info.Size()
		if result.Size > 0 && offset >= result.Size {
			e.logger.Info("File already complete", zap.String("path", destination))
			return destination, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, result.URL, nil)
	if err != nil {
		return "", fmt.Errorf("building download request: %w", err)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("starting download: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Server ignored the range; start over.
		offset = 0
	case http.StatusPartialContent:
	default:
		return "", fmt.Errorf("download request returned HTTP %d", resp.StatusCode)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(destination, flags, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", destination, err)
	}
	defer file.Close()

	total := offset + resp.ContentLength
	if resp.ContentLength < 0 {
		total = result.Size
	}

	var reader io.Reader = resp.Body
	var bar *pb.ProgressBar
	if !quiet && total > 0 {
		tmpl := `{{string . "prefix"}}{{counters . }} {{bar . }} {{percent . }} {{speed . }} {{rtime . "ETA %s"}}`
		bar = pb.ProgressBarTemplate(tmpl).Start64(total)
		bar.Set(pb.Bytes, true)
		bar.Set(pb.SIBytesPrefix, true)
		bar.Set("prefix", filename+": ")
		bar.SetCurrent(offset)
		reader = bar.NewProxyReader(resp.Body)
	}

	written, err := io.CopyBuffer(file, reader, make([]byte, e.cfg.ChunkSize))
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return "", fmt.Errorf("after %d bytes: %w", offset+written, err)
	}

	e.logger.Info("Download complete",
		zap.String("path", destination),
		zap.Int64("bytes", offset+written),
	)
	return destination, nil
}

// safeFilename strips path separators and control characters so a hostile
// filename cannot escape the output directory.
func safeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '/', r == '\\', r == ':':
			return '_'
		}
		return r
	}, name)
}

package media

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/httpclient"
	"github.com/kbukum/audioscribe/logger"
)

// DefaultMaxDownload bounds a single remote media fetch.
const DefaultMaxDownload int64 = 2 << 30

// Downloader fetches remote media into the cache directory.
type Downloader struct {
	client   *httpclient.Client
	cacheDir string
	maxBytes int64
	log      *logger.Logger
}

// NewDownloader creates a Downloader. A nil client uses httpclient defaults.
func NewDownloader(client *httpclient.Client, cacheDir string, log *logger.Logger) (*Downloader, error) {
	if client == nil {
		var err error
		client, err = httpclient.New(httpclient.Config{})
		if err != nil {
			return nil, err
		}
	}
	if log == nil {
		log = logger.Get("media")
	}
	return &Downloader{
		client:   client,
		cacheDir: cacheDir,
		maxBytes: DefaultMaxDownload,
		log:      log.WithComponent("download"),
	}, nil
}

// DownloadPath returns the cache path rawURL is downloaded to.
func (d *Downloader) DownloadPath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	ext := ".bin"
	if u, err := url.Parse(rawURL); err == nil {
		if e := strings.ToLower(path.Ext(u.Path)); e != "" && len(e) <= 6 {
			ext = e
		}
	}
	return filepath.Join(d.cacheDir, "download-"+hex.EncodeToString(sum[:])[:12]+ext)
}

// Fetch downloads rawURL and returns the local handle. Any failure is
// reported as SOURCE_UNAVAILABLE and leaves no partial file behind.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) (Handle, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.SourceUnavailable(rawURL, err).WithDetail("reason", "not an http(s) url")
	}
	if err := os.MkdirAll(d.cacheDir, 0o755); err != nil {
		return "", errors.Internal(err)
	}

	resp, err := d.client.Stream(ctx, httpclient.Request{Method: http.MethodGet, Path: rawURL})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", errors.Cancelled("Download").WithCause(ctxErr)
		}
		return "", errors.SourceUnavailable(rawURL, err)
	}
	defer resp.Close() //nolint:errcheck // read-only body

	if resp.ContentLength > d.maxBytes {
		return "", errors.SourceUnavailable(rawURL, nil).
			WithDetail("reason", fmt.Sprintf("content length %d exceeds limit", resp.ContentLength))
	}

	dst := d.DownloadPath(rawURL)
	tmp, err := os.CreateTemp(d.cacheDir, ".download-*")
	if err != nil {
		return "", errors.Internal(err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after rename

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxBytes+1))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", errors.Cancelled("Download").WithCause(ctxErr)
		}
		return "", errors.SourceUnavailable(rawURL, err)
	}
	if n > d.maxBytes {
		return "", errors.SourceUnavailable(rawURL, nil).WithDetail("reason", "download exceeds size limit")
	}
	if n == 0 {
		return "", errors.SourceUnavailable(rawURL, nil).WithDetail("reason", "empty response body")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", errors.Internal(err)
	}

	d.log.WithContext(ctx).Info("media downloaded", logger.Fields(logger.FieldPath, dst, logger.FieldSize, n))
	return Handle(dst), nil
}

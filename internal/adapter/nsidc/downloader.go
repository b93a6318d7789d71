// Package nsidc downloads NSIDC-0630 brightness-temperature files.
package nsidc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"go.ngs.io/swe-api/internal/domain"
)

// EarthdataHost is the login server NSIDC redirects to.
const EarthdataHost = "urs.earthdata.nasa.gov"

// ErrUnauthorized is returned when the server rejects the credentials.
var ErrUnauthorized = errors.New("earthdata authentication failed")

// Session carries the HTTP client and credentials used for every request.
// Cookies picked up while following the login redirects are kept in the
// client's jar.
type Session struct {
	Client   *http.Client
	Username string
	Password string
}

// NewSession creates a session whose client answers the Earthdata login
// redirect with basic auth.
func NewSession(username, password string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	s := &Session{Username: username, Password: password}
	s.Client = &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			if req.URL.Hostname() == EarthdataHost && s.Username != "" {
				req.SetBasicAuth(s.Username, s.Password)
			}
			return nil
		},
	}
	return s, nil
}

// Downloader fetches files into one directory.
type Downloader struct {
	session *Session
	outDir  string
	logger  *zap.SugaredLogger
}

// NewDownloader creates a downloader writing to outDir.
func NewDownloader(session *Session, outDir string, logger *zap.SugaredLogger) *Downloader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Downloader{session: session, outDir: outDir, logger: logger}
}

// Result describes one download.
type Result struct {
	Path    string
	Skipped bool
}

// Download fetches the file described by d. An existing file is kept unless
// overwrite is set.
func (d *Downloader) Download(ctx context.Context, desc domain.FileDescriptor, overwrite bool) (Result, error) {
	path := filepath.Join(d.outDir, desc.FileName())
	if _, err := os.Stat(path); err == nil && !overwrite {
		d.logger.Debugf("skipping existing file %s", path)
		return Result{Path: path, Skipped: true}, nil
	}
	if err := os.MkdirAll(d.outDir, 0o750); err != nil {
		return Result{}, fmt.Errorf("failed to create download directory: %w", err)
	}

	url := desc.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := d.session.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return Result{}, fmt.Errorf("%w: %s", ErrUnauthorized, url)
	case resp.StatusCode != http.StatusOK:
		return Result{}, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	tmp, err := os.CreateTemp(d.outDir, ".download-*")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return Result{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Result{}, fmt.Errorf("failed to move download into place: %w", err)
	}
	d.logger.Infof("downloaded %s", path)
	return Result{Path: path}, nil
}

// Package sde obtains and queries the EVE static data export: a bzip2
// compressed SQLite snapshot of all reference data, published by fuzzwork.
package sde

import (
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"eve-neic/internal/config"
	"eve-neic/internal/logger"
)

// Sentinel errors for the two loader failure classes. Callers match with
// errors.Is to distinguish a retryable transfer problem from a corrupt
// archive.
var (
	ErrTransfer = errors.New("sde: transfer failed")
	ErrCorrupt  = errors.New("sde: corrupt archive")
)

// Progress describes the state of a bulk transfer. TotalBytes is 0 when
// the remote response carries no Content-Length, in which case consumers
// should display raw bytes instead of a percentage.
type Progress struct {
	Stage      string // "download", "extract" or "ready"
	BytesRead  int64
	TotalBytes int64
}

// ProgressFunc receives throttled transfer progress. Events for one
// transfer arrive in increasing BytesRead order.
type ProgressFunc func(Progress)

// Loader downloads and unpacks the SDE into the local data directory.
type Loader struct {
	cfg  *config.Config
	http *http.Client
}

// NewLoader creates a Loader. The overall download timeout comes from the
// config (minutes-scale; the SDE is a few hundred MB).
func NewLoader(cfg *config.Config) *Loader {
	return &Loader{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.DownloadTimeout},
	}
}

// EnsureAvailable makes sure the reference store exists at cfg.DBPath().
// If it is already present this is a no-op. Otherwise the compressed SDE
// is downloaded in bounded chunks, decompressed to a temporary file and
// published atomically, so a failure at any point leaves no partial store.
func (l *Loader) EnsureAvailable(ctx context.Context, progress ProgressFunc) error {
	dbPath := l.cfg.DBPath()
	if _, err := os.Stat(dbPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	bz2Path := dbPath + ".bz2"
	logger.Info("SDE", "Downloading static data export...")
	if err := l.download(ctx, bz2Path, progress); err != nil {
		os.Remove(bz2Path)
		return err
	}

	logger.Info("SDE", "Extracting the database...")
	if progress != nil {
		progress(Progress{Stage: "extract"})
	}
	if err := extractBz2(bz2Path, dbPath); err != nil {
		os.Remove(bz2Path)
		return err
	}
	os.Remove(bz2Path)

	if progress != nil {
		progress(Progress{Stage: "ready"})
	}
	logger.Success("SDE", "Database ready")
	return nil
}

// download streams the compressed SDE to dst, reporting progress roughly
// every MB rather than for every chunk.
func (l *Loader) download(ctx context.Context, dst string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.SDEURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)

	resp, err := l.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrTransfer, resp.StatusCode)
	}

	// -1 when the server omits Content-Length.
	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer f.Close()

	chunk := make([]byte, l.cfg.DownloadChunkKiB*1024)
	reportEvery := int64(1 << 20)
	var read, lastReport int64
	for {
		n, rerr := resp.Body.Read(chunk)
		if n > 0 {
			if _, werr := f.Write(chunk[:n]); werr != nil {
				return fmt.Errorf("write %s: %w", dst, werr)
			}
			read += int64(n)
			if progress != nil && read-lastReport >= reportEvery {
				lastReport = read
				progress(Progress{Stage: "download", BytesRead: read, TotalBytes: total})
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("%w: %v", ErrTransfer, rerr)
		}
	}
	if progress != nil {
		progress(Progress{Stage: "download", BytesRead: read, TotalBytes: total})
	}
	return nil
}

// extractBz2 decompresses src into dst. The decompressed stream is written
// to a temporary file first and renamed into place, so a concurrent reader
// never sees a half-written store.
func extractBz2(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if _, err := io.Copy(out, bzip2.NewReader(in)); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publish %s: %w", dst, err)
	}
	return nil
}

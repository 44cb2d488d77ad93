// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/ci-report/internal/workbook"
)

const defaultConcurrency = 4

// Options controls Mirror.
type Options struct {
	// Concurrency bounds parallel downloads (default 4).
	Concurrency int
	// Force downloads every file even when the local copy is current.
	Force  bool
	Logger *zap.Logger
}

// Summary holds counts from a mirror run.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of spreadsheets considered.
func (s Summary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// HasFailures reports whether any download failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

type remoteFile struct {
	node Node
	rel  string
}

// Mirror copies every spreadsheet under the folder rootID into destDir,
// keeping the folder structure. A file is downloaded when it is missing
// locally or older than the repository copy. Individual failures are
// counted and reported to w; listing failures abort the run.
func Mirror(ctx context.Context, c *Client, rootID, destDir string, opts Options, w io.Writer) (Summary, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var summary Summary

	files, err := walk(ctx, c, rootID, "", log)
	if err != nil {
		return summary, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var mu sync.Mutex
	report := func(f func()) {
		mu.Lock()
		defer mu.Unlock()
		f()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, f := range files {
		dest := filepath.Join(destDir, f.rel)
		if !opts.Force && current(dest, f.node) {
			report(func() {
				fmt.Fprintf(w, "skipped %s\n", f.rel)
				summary.Skipped++
			})
			continue
		}

		g.Go(func() error {
			if err := download(gctx, c, f.node, dest); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("download failed", zap.String("path", f.rel), zap.Error(err))
				report(func() {
					fmt.Fprintf(w, "failed  %s: %v\n", f.rel, err)
					summary.Failed++
				})
				return nil
			}
			report(func() {
				fmt.Fprintf(w, "fetched %s\n", f.rel)
				summary.Downloaded++
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "\nfetched: %d, skipped: %d, failed: %d (total: %d)\n",
		summary.Downloaded, summary.Skipped, summary.Failed, summary.Total())
	return summary, nil
}

// walk lists the spreadsheets below folder id, depth first.
func walk(ctx context.Context, c *Client, id, rel string, log *zap.Logger) ([]remoteFile, error) {
	children, err := c.Children(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Debug("listed folder", zap.String("path", rel), zap.Int("children", len(children)))

	var files []remoteFile
	for _, n := range children {
		path := filepath.Join(rel, n.Name)
		switch {
		case n.IsFolder:
			sub, err := walk(ctx, c, n.ID, path, log)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		case strings.EqualFold(filepath.Ext(n.Name), workbook.Ext) && !strings.HasPrefix(n.Name, "~$"):
			files = append(files, remoteFile{node: n, rel: path})
		}
	}
	return files, nil
}

// current reports whether dest exists and is at least as new as n.
func current(dest string, n Node) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	return !info.ModTime().Before(n.ModifiedAt)
}

// download writes n to dest through a temporary file and stamps it with
// the repository modification time.
func download(ctx context.Context, c *Client, n Node, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	dlErr := c.Download(ctx, n.ID, tmp)
	closeErr := tmp.Close()
	if dlErr != nil {
		os.Remove(tmpPath)
		return dlErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	if !n.ModifiedAt.IsZero() {
		if err := os.Chtimes(dest, n.ModifiedAt, n.ModifiedAt); err != nil {
			return fmt.Errorf("setting modification time: %w", err)
		}
	}
	return nil
}

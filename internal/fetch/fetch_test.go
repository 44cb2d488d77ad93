// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/ci-report/internal/httputil"
	"github.com/pdiddy/ci-report/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	goleak.VerifyTestMain(m)
}

var modified = "2026-09-01T12:00:00.000+0000"

type entry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsFolder   bool   `json:"isFolder"`
	ModifiedAt string `json:"modifiedAt"`
}

// fakeRepo serves a small Alfresco folder tree. The Grades folder is split
// over two pages, broken.xlsx always fails, and the indicator sheet is
// throttled on its first download.
type fakeRepo struct {
	mu        sync.Mutex
	throttled bool
	downloads map[string]int
}

func (f *fakeRepo) pages(id string) [][]entry {
	switch id {
	case "-root-":
		return [][]entry{{
			{ID: "grades", Name: "Grades", IsFolder: true},
			{ID: "ind", Name: "ENCV Indicators.xlsx", ModifiedAt: modified},
			{ID: "txt", Name: "notes.txt", ModifiedAt: modified},
			{ID: "lock", Name: "~$ENCV Indicators.xlsx", ModifiedAt: modified},
		}}
	case "grades":
		return [][]entry{
			{{ID: "encv", Name: "ENCV", IsFolder: true}},
			{{ID: "bad", Name: "broken.xlsx", ModifiedAt: modified}},
		}
	case "encv":
		return [][]entry{{{ID: "exam", Name: "ENGI 1010 Final Exam.xlsx", ModifiedAt: modified}}}
	}
	return nil
}

func (f *fakeRepo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if u, p, ok := r.BasicAuth(); !ok || u != "ci-bot" || p != "pw" {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"briefSummary":"Authentication failed"}}`))
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, apiPath+"/nodes/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	id, action, _ := strings.Cut(rest, "/")

	switch action {
	case "children":
		pages := f.pages(id)
		skip, _ := strconv.Atoi(r.URL.Query().Get("skipCount"))
		if pages == nil || skip >= len(pages) {
			http.NotFound(w, r)
			return
		}
		page := pages[skip]
		var entries []map[string]entry
		for _, e := range page {
			entries = append(entries, map[string]entry{"entry": e})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"list": map[string]any{
				"pagination": map[string]any{"count": len(page), "hasMoreItems": skip+1 < len(pages), "skipCount": skip},
				"entries":    entries,
			},
		})
	case "content":
		f.mu.Lock()
		f.downloads[id]++
		throttle := id == "ind" && !f.throttled
		if throttle {
			f.throttled = true
		}
		f.mu.Unlock()

		switch {
		case throttle:
			w.WriteHeader(http.StatusTooManyRequests)
		case id == "bad":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte("xlsx-" + id))
		}
	default:
		http.NotFound(w, r)
	}
}

func newRepo(t *testing.T, username string) (*fakeRepo, *Client) {
	t.Helper()
	repo := &fakeRepo{downloads: make(map[string]int)}
	ts := httptest.NewServer(repo)
	t.Cleanup(ts.Close)

	c := NewClient(types.AlfrescoConfig{
		BaseURL:    ts.URL + "/",
		Username:   username,
		Password:   "pw",
		MaxRetries: 2,
	}, ts.Client(), zaptest.NewLogger(t))
	return repo, c
}

func TestChildrenFollowsPagination(t *testing.T) {
	_, c := newRepo(t, "ci-bot")

	nodes, err := c.Children(context.Background(), "grades")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "ENCV", nodes[0].Name)
	assert.True(t, nodes[0].IsFolder)
	assert.Equal(t, "broken.xlsx", nodes[1].Name)
	assert.Equal(t, time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC), nodes[1].ModifiedAt.UTC())
}

func TestChildrenErrors(t *testing.T) {
	_, c := newRepo(t, "intruder")
	_, err := c.Children(context.Background(), "-root-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401: Authentication failed")

	_, c = newRepo(t, "ci-bot")
	_, err = c.Children(context.Background(), "missing")
	assert.Error(t, err)
}

func TestMirror(t *testing.T) {
	repo, c := newRepo(t, "ci-bot")
	dest := t.TempDir()
	ctx := context.Background()
	opts := Options{Concurrency: 2, Logger: zaptest.NewLogger(t)}

	var out bytes.Buffer
	summary, err := Mirror(ctx, c, "-root-", dest, opts, &out)
	require.NoError(t, err)
	assert.Equal(t, Summary{Downloaded: 2, Failed: 1}, summary)
	assert.True(t, summary.HasFailures())
	assert.Contains(t, out.String(), "failed  "+filepath.Join("Grades", "broken.xlsx"))

	data, err := os.ReadFile(filepath.Join(dest, "Grades", "ENCV", "ENGI 1010 Final Exam.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "xlsx-exam", string(data))

	info, err := os.Stat(filepath.Join(dest, "ENCV Indicators.xlsx"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)))

	_, err = os.Stat(filepath.Join(dest, "notes.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, "Grades", "broken.xlsx"))
	assert.True(t, os.IsNotExist(err))

	leftovers, err := filepath.Glob(filepath.Join(dest, "Grades", ".fetch-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	t.Run("current files are skipped", func(t *testing.T) {
		summary, err := Mirror(ctx, c, "-root-", dest, opts, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, Summary{Skipped: 2, Failed: 1}, summary)
	})

	t.Run("force downloads again", func(t *testing.T) {
		forced := opts
		forced.Force = true
		summary, err := Mirror(ctx, c, "-root-", dest, forced, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Downloaded)
	})

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 0, repo.downloads["txt"])
	assert.Equal(t, 0, repo.downloads["lock"])
	assert.Equal(t, 2, repo.downloads["exam"])
}

func TestMirrorListingFailure(t *testing.T) {
	_, c := newRepo(t, "intruder")
	_, err := Mirror(context.Background(), c, "-root-", t.TempDir(), Options{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestMirrorCancelled(t *testing.T) {
	_, c := newRepo(t, "ci-bot")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Mirror(ctx, c, "-root-", t.TempDir(), Options{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

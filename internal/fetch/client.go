// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch mirrors the grade and indicator spreadsheets kept in an
// Alfresco content repository into the local working tree, using the
// repository's public REST API.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/pdiddy/ci-report/internal/httputil"
	"github.com/pdiddy/ci-report/pkg/types"
)

const (
	apiPath  = "/alfresco/api/-default-/public/alfresco/versions/1"
	pageSize = 100

	// modifiedLayout is the timestamp format of Alfresco node entries.
	modifiedLayout = "2006-01-02T15:04:05.000-0700"
)

// Node is a file or folder in the repository.
type Node struct {
	ID         string
	Name       string
	IsFolder   bool
	ModifiedAt time.Time
	Size       int64
}

// Client talks to one Alfresco repository.
type Client struct {
	http       *http.Client
	baseURL    string
	username   string
	password   string
	maxRetries int
	log        *zap.Logger
}

// NewClient returns a Client for cfg. A nil httpClient gets one with
// cfg.Timeout (30 s when unset).
func NewClient(cfg types.AlfrescoConfig, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		http:       httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		maxRetries: cfg.MaxRetries,
		log:        log,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := c.baseURL + apiPath + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries, c.log)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		msg := gjson.GetBytes(body, "error.briefSummary").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, msg)
	}
	return resp, nil
}

// Children lists every child of the folder node id, following pagination.
func (c *Client) Children(ctx context.Context, id string) ([]Node, error) {
	var nodes []Node
	for skip := 0; ; {
		q := url.Values{}
		q.Set("skipCount", strconv.Itoa(skip))
		q.Set("maxItems", strconv.Itoa(pageSize))

		resp, err := c.get(ctx, "/nodes/"+url.PathEscape(id)+"/children", q)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading children of %s: %w", id, err)
		}
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("children of %s: invalid JSON response", id)
		}

		page := gjson.GetManyBytes(body, "list.entries", "list.pagination.hasMoreItems", "list.pagination.count")
		for _, e := range page[0].Array() {
			n, err := parseNode(e.Get("entry"))
			if err != nil {
				return nil, fmt.Errorf("children of %s: %w", id, err)
			}
			nodes = append(nodes, n)
		}

		if !page[1].Bool() {
			return nodes, nil
		}
		count := int(page[2].Int())
		if count == 0 {
			count = len(page[0].Array())
		}
		if count == 0 {
			return nodes, nil
		}
		skip += count
	}
}

func parseNode(e gjson.Result) (Node, error) {
	n := Node{
		ID:       e.Get("id").String(),
		Name:     e.Get("name").String(),
		IsFolder: e.Get("isFolder").Bool(),
		Size:     e.Get("content.sizeInBytes").Int(),
	}
	if n.ID == "" || n.Name == "" {
		return n, fmt.Errorf("node entry without id or name: %s", e.Raw)
	}
	if raw := e.Get("modifiedAt").String(); raw != "" {
		t, err := parseModified(raw)
		if err != nil {
			return n, fmt.Errorf("node %s: %w", n.Name, err)
		}
		n.ModifiedAt = t
	}
	return n, nil
}

func parseModified(s string) (time.Time, error) {
	if t, err := time.Parse(modifiedLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Download streams the content of file node id into w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) error {
	resp, err := c.get(ctx, "/nodes/"+url.PathEscape(id)+"/content", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading content of %s: %w", id, err)
	}
	return nil
}

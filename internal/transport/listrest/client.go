// Package listrest queries lists in other sites over the generic REST list endpoint.
package listrest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/rollup/internal/db"
	"github.com/kailas-cloud/rollup/internal/domain"
)

const maxErrorBody = 512

// Config holds client parameters.
type Config struct {
	Timeout time.Duration
	// Token, when set, is sent as a bearer token.
	Token string
}

// Client issues list item queries against {site}/_api/web/lists/getbytitle('{list}')/items.
// Rows are stamped with the list GUID as ListId, resolved once per site and list.
type Client struct {
	http  *http.Client
	token string

	mu  sync.Mutex
	ids map[string]string
}

// New creates a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewWithHTTPClient(&http.Client{Timeout: timeout}, cfg.Token)
}

// NewWithHTTPClient wraps an existing http.Client.
func NewWithHTTPClient(c *http.Client, token string) *Client {
	return &Client{http: c, token: token, ids: make(map[string]string)}
}

type itemsResponse struct {
	Value []map[string]any `json:"value"`
}

type listResponse struct {
	ID string `json:"Id"`
}

// QueryList runs q against the remote site and returns the raw item rows.
func (c *Client) QueryList(ctx context.Context, q db.ListQuery) ([]db.Row, error) {
	endpoint, err := BuildURL(q)
	if err != nil {
		return nil, err
	}

	var out itemsResponse
	if err := c.get(ctx, endpoint, q.Collection, &out); err != nil {
		return nil, err
	}

	// Without the GUID the rows fall back to the list title as collection id.
	listID, _ := c.ListID(ctx, q.SiteURL, q.Collection)

	rows := make([]db.Row, 0, len(out.Value))
	for _, v := range out.Value {
		row := db.Row(v)
		if _, ok := row["ListId"]; !ok && listID != "" {
			row["ListId"] = listID
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ListID returns the GUID of the list titled collection in site. Successful
// lookups are cached for the lifetime of the client.
func (c *Client) ListID(ctx context.Context, site, collection string) (string, error) {
	base, err := listPath(site, collection)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	id, ok := c.ids[base]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	var out listResponse
	if err := c.get(ctx, base+"?$select=Id", collection, &out); err != nil {
		return "", err
	}
	id = strings.ToLower(strings.Trim(out.ID, "{}"))
	if id == "" {
		return "", fmt.Errorf("list %q: empty id", collection)
	}

	c.mu.Lock()
	c.ids[base] = id
	c.mu.Unlock()
	return id, nil
}

func (c *Client) get(ctx context.Context, endpoint, collection string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json;odata=nometadata")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("list request %q: %w: %w", collection, domain.ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("list request %q: %w: status %d: %s",
				collection, domain.ErrBackendUnavailable, resp.StatusCode, msg)
		}
		return fmt.Errorf("list request %q: status %d: %s", collection, resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode list response %q: %w", collection, err)
	}
	return nil
}

// listPath renders {site}/_api/web/lists/getbytitle('{title}').
func listPath(siteURL, collection string) (string, error) {
	site := strings.TrimRight(strings.TrimSpace(siteURL), "/")
	if site == "" {
		return "", fmt.Errorf("site url is required")
	}
	if _, err := url.Parse(site); err != nil {
		return "", fmt.Errorf("parse site url: %w", err)
	}
	title := url.PathEscape(strings.ReplaceAll(collection, "'", "''"))
	return site + "/_api/web/lists/getbytitle('" + title + "')", nil
}

// BuildURL renders the REST endpoint for q.
func BuildURL(q db.ListQuery) (string, error) {
	base, err := listPath(q.SiteURL, q.Collection)
	if err != nil {
		return "", err
	}
	path := base + "/items"

	var filters []string
	if q.ContentTypeID != "" {
		filters = append(filters, "startswith(ContentTypeId,'"+strings.ReplaceAll(q.ContentTypeID, "'", "''")+"')")
	}
	if q.Filter != "" {
		filters = append(filters, "("+q.Filter+")")
	}

	params := url.Values{}
	if len(q.Fields) > 0 {
		params.Set("$select", strings.Join(q.Fields, ","))
	}
	if len(filters) > 0 {
		params.Set("$filter", strings.Join(filters, " and "))
	}
	if q.OrderBy != "" {
		order := q.OrderBy
		if q.Desc {
			order += " desc"
		}
		params.Set("$orderby", order)
	}
	if q.Top > 0 {
		params.Set("$top", strconv.Itoa(q.Top))
	}
	if len(params) == 0 {
		return path, nil
	}
	return path + "?" + params.Encode(), nil
}

// Package remote talks to the catalog backend: the spreadsheet-style REST
// store, the spec-sheet verification endpoint, the missing-information
// analysis, and the push channel that announces server-side changes.
//
// The sync core consumes narrow single-method views of this client (each
// package declares the interface it needs), so tests swap in small fakes
// without touching HTTP.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/metrics"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// Common errors.
var (
	ErrNotFound = errors.New("row not found")
	ErrRejected = errors.New("remote store rejected write")
)

// DefaultTimeout bounds any single request. The remote sheet mirror is slow;
// writes that exceed this are reported as failed rather than waited on
// forever.
const DefaultTimeout = 30 * time.Second

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithAuthToken sets a bearer token attached to every request.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// Client is the HTTP implementation of the backend contracts.
type Client struct {
	baseURL string
	hc      *http.Client
	timeout time.Duration
	token   string
}

// NewClient creates a client for the given API base URL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote: base URL required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid base URL: %w", err)
	}

	c := &Client{
		baseURL: baseURL,
		hc:      &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// rowPayload is the wire shape of one catalog row. The backend sends row
// identifiers as either numbers or strings depending on which sheet export
// produced them; json.RawMessage absorbs both.
type rowPayload struct {
	RowID  json.RawMessage   `json:"row_id"`
	Fields map[string]string `json:"fields"`
}

func (p rowPayload) id() model.RowID {
	raw := strings.Trim(string(p.RowID), `"`)
	return model.NormalizeRowID(raw)
}

// LoadAll bulk-fetches every row of a collection.
func (c *Client) LoadAll(ctx context.Context, coll model.Collection) (map[string]model.Record, error) {
	defer metrics.Timer(metrics.CatalogLoad)()

	var payload struct {
		Rows []rowPayload `json:"rows"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/collections/%s/rows", coll), &payload); err != nil {
		return nil, fmt.Errorf("loading %s: %w", coll, err)
	}

	out := make(map[string]model.Record, len(payload.Rows))
	for _, row := range payload.Rows {
		id := row.id()
		if id.IsZero() {
			continue
		}
		out[id.String()] = model.Record(row.Fields)
	}
	debug.Log("remote: loaded %d rows from %s", len(out), coll)
	return out, nil
}

// LoadOne fetches a single row's current state, used by the on-demand
// refresh fallback when the push channel is down.
func (c *Client) LoadOne(ctx context.Context, coll model.Collection, rowID model.RowID) (model.Record, error) {
	var row rowPayload
	err := c.getJSON(ctx, fmt.Sprintf("/collections/%s/rows/%s", coll, rowID), &row)
	if err != nil {
		return nil, fmt.Errorf("loading %s row %s: %w", coll, rowID, err)
	}
	return model.Record(row.Fields), nil
}

// WriteFields persists a field map to one row. The backend applies writes
// field-by-field, so repeating the same payload is safe: the queue relies on
// at-least-once delivery.
func (c *Client) WriteFields(ctx context.Context, coll model.Collection, rowID model.RowID, fields map[string]string) error {
	defer metrics.Timer(metrics.RemoteWrite)()

	body := struct {
		Fields map[string]string `json:"fields"`
	}{Fields: fields}

	status, err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/collections/%s/rows/%s", coll, rowID), body, nil)
	if err != nil {
		return fmt.Errorf("writing %s row %s: %w", coll, rowID, err)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("writing %s row %s: %w", coll, rowID, ErrNotFound)
	}
	if status >= 400 {
		return fmt.Errorf("writing %s row %s: %w (status %d)", coll, rowID, ErrRejected, status)
	}
	return nil
}

// VerifyDocument asks the backend to check a spec-sheet URL against the
// row's SKU and returns the match confidence.
func (c *Client) VerifyDocument(ctx context.Context, coll model.Collection, rowID model.RowID, docURL string) (model.MatchCategory, error) {
	defer metrics.Timer(metrics.VerificationRTT)()

	body := struct {
		URL string `json:"url"`
	}{URL: docURL}

	var result struct {
		Match string `json:"match"`
	}
	status, err := c.send(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/rows/%s/verify", coll, rowID), body, &result)
	if err != nil {
		return model.MatchUnverifiable, fmt.Errorf("verifying %s row %s: %w", coll, rowID, err)
	}
	if status >= 400 {
		return model.MatchUnverifiable, fmt.Errorf("verifying %s row %s: status %d", coll, rowID, status)
	}
	return model.ParseMatchCategory(result.Match), nil
}

// MissingInfo fetches the per-row missing-field analysis for a collection.
// The result maps canonical row identifiers to taxonomy category names.
func (c *Client) MissingInfo(ctx context.Context, coll model.Collection) (map[string][]string, error) {
	var payload struct {
		Rows []struct {
			RowID      json.RawMessage `json:"row_id"`
			Categories []string        `json:"categories"`
		} `json:"rows"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/collections/%s/missing-info", coll), &payload); err != nil {
		return nil, fmt.Errorf("loading missing-info for %s: %w", coll, err)
	}

	out := make(map[string][]string, len(payload.Rows))
	for _, row := range payload.Rows {
		id := model.NormalizeRowID(strings.Trim(string(row.RowID), `"`))
		if id.IsZero() {
			continue
		}
		out[id.String()] = row.Categories
	}
	return out, nil
}

// GenerateContent requests AI content generation for a row. The result
// arrives later via the push channel, or via the deferred refresh fallback
// when the channel is down.
func (c *Client) GenerateContent(ctx context.Context, coll model.Collection, rowID model.RowID, fields []string) error {
	body := struct {
		Fields []string `json:"fields"`
	}{Fields: fields}

	status, err := c.send(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/rows/%s/generate", coll, rowID), body, nil)
	if err != nil {
		return fmt.Errorf("requesting generation for %s row %s: %w", coll, rowID, err)
	}
	if status >= 400 {
		return fmt.Errorf("requesting generation for %s row %s: status %d", coll, rowID, status)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	_, err := c.send(ctx, http.MethodGet, path, nil, out)
	return err
}

// send issues one request and decodes the response into out when non-nil.
// 4xx/5xx statuses are returned to the caller, not treated as transport
// errors, so callers can distinguish rejection from unreachability.
func (c *Client) send(ctx context.Context, method, path string, body, out any) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 400 {
		stop := metrics.Timer(metrics.JSONParsing)
		err = json.NewDecoder(resp.Body).Decode(out)
		stop()
		if err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	} else {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
	}
	return resp.StatusCode, nil
}

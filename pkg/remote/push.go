package remote

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// PushEvent announces a server-side change to one row, typically after an
// AI-generation job commits. Data carries the new values for the fields
// named in Fields.
type PushEvent struct {
	RowID  model.RowID
	Fields []string
	Data   map[string]string
}

// reconnectDelay paces reconnect attempts when the event stream drops.
const reconnectDelay = 5 * time.Second

// Subscribe opens the server-sent-events stream for a collection and
// forwards decoded events until ctx is cancelled. The returned channel is
// closed when the subscription ends for good.
//
// The initial connection must succeed; callers treat an error here as "push
// channel unavailable" and fall back to on-demand refresh. Once connected,
// later stream drops reconnect transparently.
func (c *Client) Subscribe(ctx context.Context, coll model.Collection) (<-chan PushEvent, error) {
	resp, err := c.openStream(ctx, coll)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s events: %w", coll, err)
	}

	ch := make(chan PushEvent, 8)
	go func() {
		defer close(ch)
		for {
			if resp != nil {
				c.readStream(ctx, resp, ch)
				resp.Body.Close()
				resp = nil
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}

			r, err := c.openStream(ctx, coll)
			if err != nil {
				debug.Log("remote: event stream reconnect failed: %v", err)
				continue
			}
			resp = r
		}
	}()
	return ch, nil
}

func (c *Client) openStream(ctx context.Context, coll model.Collection) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/collections/%s/events", c.baseURL, coll), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("event stream status %d", resp.StatusCode)
	}
	return resp, nil
}

// readStream decodes SSE data lines into PushEvents until the stream ends
// or ctx is cancelled.
func (c *Client) readStream(ctx context.Context, resp *http.Response, ch chan<- PushEvent) {
	if resp == nil {
		return
	}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var raw struct {
			RowID  json.RawMessage   `json:"row_id"`
			Fields []string          `json:"fields_updated"`
			Data   map[string]string `json:"updated_data"`
		}
		if err := json.Unmarshal([]byte(payload), &raw); err != nil {
			debug.Log("remote: dropping malformed push event: %v", err)
			continue
		}

		ev := PushEvent{
			RowID:  model.NormalizeRowID(strings.Trim(string(raw.RowID), `"`)),
			Fields: raw.Fields,
			Data:   raw.Data,
		}
		if ev.RowID.IsZero() {
			continue
		}

		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/events"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/model"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/storage"
)

// fetchToggles performs one conditional synchronization against the remote
// endpoint. It never returns an error: every failure path resolves to a
// no-op with an event on the error topic, so a flaky network looks like a
// quiet interval to callers. fetchMu keeps at most one fetch in flight.
func (c *Client) fetchToggles(ctx context.Context) {
	if c.transport == nil {
		c.transportWarn.Do(func() {
			c.logger.Warn("no transport available, toggle synchronization is disabled")
		})
		return
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	c.mu.RLock()
	evalContext := c.context.Copy()
	etag := c.etag
	c.mu.RUnlock()

	req, err := c.buildRequest(ctx, evalContext, etag)
	if err != nil {
		c.bus.Emit(events.TopicError, err)
		return
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		c.bus.Emit(events.TopicError, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.bus.Emit(events.TopicError, model.HTTPError{StatusCode: resp.StatusCode})
		return
	}

	var set model.ToggleSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		c.bus.Emit(events.TopicError, fmt.Errorf("unable to decode toggle response: %w", err))
		return
	}
	if set.Toggles == nil {
		set.Toggles = []model.Toggle{}
	}

	c.mu.Lock()
	c.toggles = set.Toggles
	c.etag = resp.Header.Get("ETag")
	emitReady := !c.readyEmitted
	c.readyEmitted = true
	c.mu.Unlock()

	if err := c.persistSnapshot(ctx, set.Toggles); err != nil {
		c.logger.Errorf("unable to persist toggle snapshot: %v", err)
	}

	c.bus.Emit(events.TopicUpdate, model.CopyToggles(set.Toggles))
	if emitReady {
		c.bus.Emit(events.TopicReady, nil)
	}
}

func (c *Client) buildRequest(ctx context.Context, evalContext model.Context, etag string) (*http.Request, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid toggle endpoint url: %w", err)
	}
	u.RawQuery = evalContext.QueryParams().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build toggle request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	for k, v := range c.cfg.CustomHeaders {
		req.Header.Set(k, v)
	}
	// the auth header always wins over custom headers
	req.Header.Set(c.cfg.AuthHeader, c.cfg.ClientKey)
	return req, nil
}

func (c *Client) loadCache(ctx context.Context) ([]model.Toggle, error) {
	raw, found, err := c.store.Get(ctx, storage.KeyRepository)
	if err != nil {
		return []model.Toggle{}, fmt.Errorf("unable to load toggle cache: %w", err)
	}
	if !found {
		return []model.Toggle{}, nil
	}
	var toggles []model.Toggle
	if err := json.Unmarshal(raw, &toggles); err != nil {
		return []model.Toggle{}, fmt.Errorf("unable to parse toggle cache: %w", err)
	}
	return toggles, nil
}

func (c *Client) persistSnapshot(ctx context.Context, toggles []model.Toggle) error {
	raw, err := json.Marshal(toggles)
	if err != nil {
		return fmt.Errorf("unable to marshal toggle snapshot: %w", err)
	}
	if err := c.store.Save(ctx, storage.KeyRepository, raw); err != nil {
		return fmt.Errorf("unable to save toggle snapshot: %w", err)
	}
	return nil
}

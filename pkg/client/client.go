// Package client implements the toggle client: it keeps a local snapshot of
// feature toggles synchronized with a remote proxy endpoint and evaluates
// toggle and variant state against the current context.
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/events"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/metrics"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/model"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/storage"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/transport"
)

// Client synchronizes a toggle snapshot and evaluates it. All methods are
// safe for concurrent use; evaluation methods never block on I/O.
type Client struct {
	cfg        Config
	logger     *log.Entry
	bus        *events.Bus
	store      storage.Store
	transport  transport.Doer
	collector  metrics.Collector
	instanceID string

	// mu guards the snapshot, context, revision marker and lifecycle flags.
	// The snapshot is only ever replaced wholesale under the write lock.
	mu           sync.RWMutex
	context      model.Context
	toggles      []model.Toggle
	etag         string
	readyEmitted bool
	started      bool
	schedule     *cron.Cron

	// fetchMu serializes synchronizations: one fetch in flight per client,
	// so an older response can never overwrite a newer snapshot.
	fetchMu sync.Mutex

	transportWarn sync.Once
	initDone      chan struct{}
}

// New validates the configuration and begins initialization immediately:
// session id resolution, cache load and bootstrap reconciliation run on a
// background goroutine so callers can await readiness without calling Start.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	c := &Client{
		cfg:        cfg,
		logger:     cfg.Logger.WithField("component", "client"),
		bus:        cfg.Bus,
		store:      cfg.Storage,
		transport:  transport.Resolve(cfg.Transport),
		instanceID: uuid.NewString(),
		initDone:   make(chan struct{}),
	}

	c.context = model.Context{
		AppName:       cfg.AppName,
		Environment:   cfg.Environment,
		UserID:        cfg.Context.UserID,
		SessionID:     cfg.Context.SessionID,
		RemoteAddress: cfg.Context.RemoteAddress,
		Properties:    cfg.Context.Copy().Properties,
	}
	if cfg.Context.AppName != "" || cfg.Context.Environment != "" {
		c.logger.Warn("appName and environment in the initial context are ignored, the static configuration values apply")
	}

	switch {
	case cfg.Metrics != nil:
		c.collector = cfg.Metrics
	case cfg.DisableMetrics:
		c.collector = metrics.Noop{}
	default:
		c.collector = metrics.NewReporter(metrics.ReporterConfig{
			URL:           cfg.URL,
			ClientKey:     cfg.ClientKey,
			AuthHeader:    cfg.AuthHeader,
			CustomHeaders: cfg.CustomHeaders,
			AppName:       cfg.AppName,
			InstanceID:    c.instanceID,
			Interval:      cfg.MetricsInterval,
			Transport:     c.transport,
			Logger:        cfg.Logger,
		})
	}

	go c.initialize(context.Background())
	return c, nil
}

// initialize runs exactly once. Failures are reported on the error topic
// but never leave initialization unresolved.
func (c *Client) initialize(ctx context.Context) {
	defer close(c.initDone)

	if err := c.resolveSessionID(ctx); err != nil {
		c.logger.Errorf("session id resolution failed: %v", err)
		c.bus.Emit(events.TopicError, err)
	}

	cached, err := c.loadCache(ctx)
	if err != nil {
		c.logger.Errorf("toggle cache load failed: %v", err)
		c.bus.Emit(events.TopicError, err)
	}

	bootstrapped := false
	c.mu.Lock()
	c.toggles = cached
	if len(c.cfg.Bootstrap) > 0 && (c.cfg.bootstrapOverride() || len(cached) == 0) {
		c.toggles = model.CopyToggles(c.cfg.Bootstrap)
		c.readyEmitted = true
		bootstrapped = true
	}
	c.mu.Unlock()

	if bootstrapped {
		if err := c.persistSnapshot(ctx, c.cfg.Bootstrap); err != nil {
			c.logger.Errorf("unable to persist bootstrap toggles: %v", err)
		}
		c.bus.Emit(events.TopicReady, nil)
	}

	c.bus.Emit(events.TopicInitialized, nil)
}

func (c *Client) resolveSessionID(ctx context.Context) error {
	c.mu.RLock()
	existing := c.context.SessionID
	c.mu.RUnlock()
	if existing != "" {
		return nil
	}

	if raw, found, err := c.store.Get(ctx, storage.KeySessionID); err != nil {
		return fmt.Errorf("unable to load session id: %w", err)
	} else if found && len(raw) > 0 {
		c.setSessionID(string(raw))
		return nil
	}

	id := uuid.NewString()
	c.setSessionID(id)
	if err := c.store.Save(ctx, storage.KeySessionID, []byte(id)); err != nil {
		return fmt.Errorf("unable to persist session id: %w", err)
	}
	return nil
}

func (c *Client) setSessionID(id string) {
	c.mu.Lock()
	c.context.SessionID = id
	c.mu.Unlock()
}

// WaitForInitialization blocks until the initialization sequence has
// completed, or until ctx is done.
func (c *Client) WaitForInitialization(ctx context.Context) error {
	select {
	case <-c.initDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// On subscribes a handler to one of the client's event topics.
func (c *Client) On(topic events.Topic, handler events.Handler) {
	c.bus.Subscribe(topic, handler)
}

// Start awaits initialization, starts the metrics collector, synchronizes
// once immediately and, unless refresh is disabled, schedules periodic
// synchronization. Calling Start on a started client is a no-op.
func (c *Client) Start(ctx context.Context) error {
	if err := c.WaitForInitialization(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		c.logger.Warn("client already started, ignoring duplicate start")
		return nil
	}
	c.started = true
	c.mu.Unlock()

	c.collector.Start()
	c.fetchToggles(ctx)

	if !c.cfg.DisableRefresh && c.cfg.RefreshInterval > 0 {
		schedule := cron.New()
		err := schedule.AddFunc(fmt.Sprintf("@every %s", c.cfg.RefreshInterval), func() {
			c.fetchToggles(context.Background())
		})
		if err != nil {
			return fmt.Errorf("unable to schedule toggle refresh: %w", err)
		}
		schedule.Start()
		c.mu.Lock()
		c.schedule = schedule
		c.mu.Unlock()
	}
	return nil
}

// Stop cancels the refresh schedule and stops the metrics collector. It is
// idempotent and does not cancel an in-flight fetch; a late response still
// updates the snapshot.
func (c *Client) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	schedule := c.schedule
	c.schedule = nil
	c.mu.Unlock()

	if schedule != nil {
		schedule.Stop()
	}
	c.collector.Stop()
}

// IsEnabled reports whether the named toggle is enabled. Missing toggles
// evaluate to false. Every call is counted; toggles with impression data
// enabled additionally publish an impression event.
func (c *Client) IsEnabled(name string) bool {
	c.mu.RLock()
	toggle, found := c.lookup(name)
	evalContext := c.context.Copy()
	c.mu.RUnlock()

	enabled := found && toggle.Enabled
	c.collector.Count(name, enabled)

	if found && toggle.ImpressionData {
		c.bus.Emit(events.TopicImpression, model.ImpressionEvent{
			EventID:        uuid.NewString(),
			Context:        evalContext,
			Enabled:        enabled,
			ToggleName:     name,
			EvaluationKind: model.EvaluationIsEnabled,
		})
	}
	return enabled
}

// GetVariant returns the named toggle's variant, or the disabled sentinel
// variant when the toggle is missing from the snapshot.
func (c *Client) GetVariant(name string) model.Variant {
	c.mu.RLock()
	toggle, found := c.lookup(name)
	evalContext := c.context.Copy()
	c.mu.RUnlock()

	if !found {
		c.collector.Count(name, false)
		return model.DisabledVariant()
	}

	c.collector.Count(name, true)
	variant := toggle.Variant
	if variant.Payload != nil {
		payload := *variant.Payload
		variant.Payload = &payload
	}

	if toggle.ImpressionData {
		c.bus.Emit(events.TopicImpression, model.ImpressionEvent{
			EventID:        uuid.NewString(),
			Context:        evalContext,
			Enabled:        toggle.Enabled,
			ToggleName:     name,
			EvaluationKind: model.EvaluationGetVariant,
			VariantName:    variant.Name,
		})
	}
	return variant
}

// lookup must be called with at least the read lock held.
func (c *Client) lookup(name string) (model.Toggle, bool) {
	for _, t := range c.toggles {
		if t.Name == name {
			return t, true
		}
	}
	return model.Toggle{}, false
}

// UpdateContext replaces the mutable portion of the context wholesale.
// Attempts to change appName or environment are ignored with a diagnostic,
// and an unset sessionId keeps the resolved one. If the client is polling,
// an immediate synchronization runs and completes before UpdateContext
// returns.
func (c *Client) UpdateContext(ctx context.Context, mutable model.Context) error {
	if mutable.AppName != "" || mutable.Environment != "" {
		c.logger.Warn("appName and environment are static and cannot be changed through UpdateContext")
	}

	c.mu.Lock()
	session := c.context.SessionID
	if mutable.SessionID != "" {
		session = mutable.SessionID
	}
	c.context = model.Context{
		AppName:       c.context.AppName,
		Environment:   c.context.Environment,
		UserID:        mutable.UserID,
		SessionID:     session,
		RemoteAddress: mutable.RemoteAddress,
		Properties:    mutable.Copy().Properties,
	}
	polling := c.started
	c.mu.Unlock()

	if polling {
		c.fetchToggles(ctx)
	}
	return nil
}

// SetContextField sets a single mutable context field. Reserved names map
// to the corresponding top-level field, anything else lands in the
// properties bag. If the client is polling, a synchronization is triggered
// without waiting for it.
func (c *Client) SetContextField(name, value string) {
	if model.IsStaticField(name) {
		c.logger.Warnf("context field %q is static and cannot be changed", name)
		return
	}

	c.mu.Lock()
	switch name {
	case model.FieldUserID:
		c.context.UserID = value
	case model.FieldSessionID:
		c.context.SessionID = value
	case model.FieldRemoteAddress:
		c.context.RemoteAddress = value
	default:
		if c.context.Properties == nil {
			c.context.Properties = map[string]string{}
		}
		c.context.Properties[name] = value
	}
	polling := c.started
	c.mu.Unlock()

	if polling {
		go c.fetchToggles(context.Background())
	}
}

// GetContext returns a copy of the current evaluation context.
func (c *Client) GetContext() model.Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.context.Copy()
}

// GetAllToggles returns a copy of the current snapshot.
func (c *Client) GetAllToggles() []model.Toggle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.CopyToggles(c.toggles)
}

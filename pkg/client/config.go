package client

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/events"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/metrics"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/model"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/storage"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/transport"
)

const (
	defaultEnvironment     = "default"
	defaultRefreshInterval = 30 * time.Second
	defaultMetricsInterval = 30 * time.Second
	defaultAuthHeader      = "Authorization"
)

// Config carries the construction inputs for a Client. URL, ClientKey and
// AppName are required; everything else has a default.
type Config struct {
	// URL is the base address of the toggle endpoint, e.g.
	// https://app.unleash-hosted.com/hosted/proxy.
	URL       string
	ClientKey string
	AppName   string

	// Environment is the static environment tag sent with every fetch.
	// Defaults to "default".
	Environment string

	// RefreshInterval is the toggle synchronization period. Defaults to
	// 30s when zero; set DisableRefresh to skip the schedule entirely.
	RefreshInterval time.Duration
	DisableRefresh  bool

	// MetricsInterval is the metrics upload period. Defaults to 30s when
	// zero; set DisableMetrics to never record or upload counts.
	MetricsInterval time.Duration
	DisableMetrics  bool

	// Storage overrides the persistence provider. Defaults to a
	// non-durable in-memory store.
	Storage storage.Store

	// Context holds the initial mutable context fields. AppName and
	// Environment set here are ignored in favor of the static fields above.
	Context model.Context

	// Transport overrides the HTTP client used for fetches and metrics.
	Transport transport.Doer

	// Bootstrap seeds the snapshot before any network access completes.
	// BootstrapOverride controls whether it replaces a non-empty persisted
	// cache; nil means true.
	Bootstrap         []model.Toggle
	BootstrapOverride *bool

	// AuthHeader is the header name the client key is sent under.
	// Defaults to Authorization. CustomHeaders are added to every request
	// and may not override the auth header.
	AuthHeader    string
	CustomHeaders map[string]string

	// Metrics overrides the collector. Defaults to a periodic Reporter,
	// or a no-op when DisableMetrics is set.
	Metrics metrics.Collector

	// Bus overrides the event bus. Defaults to a bus private to this client.
	Bus *events.Bus

	// Logger is the diagnostic sink. Defaults to logrus.StandardLogger().
	Logger *log.Logger
}

func (c Config) validate() error {
	if c.URL == "" {
		return model.ErrMissingURL
	}
	if c.ClientKey == "" {
		return model.ErrMissingClientKey
	}
	if c.AppName == "" {
		return model.ErrMissingAppName
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Environment == "" {
		c.Environment = defaultEnvironment
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.MetricsInterval == 0 {
		c.MetricsInterval = defaultMetricsInterval
	}
	if c.AuthHeader == "" {
		c.AuthHeader = defaultAuthHeader
	}
	if c.Storage == nil {
		c.Storage = storage.NewMemory()
	}
	if c.Bus == nil {
		c.Bus = events.NewBus()
	}
	if c.Logger == nil {
		c.Logger = log.StandardLogger()
	}
	return c
}

func (c Config) bootstrapOverride() bool {
	if c.BootstrapOverride == nil {
		return true
	}
	return *c.BootstrapOverride
}

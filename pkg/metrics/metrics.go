// Package metrics aggregates toggle evaluation counts and periodically
// uploads them to the remote service.
package metrics

// Collector is the metrics port the client evaluates against. Count must be
// cheap and safe for concurrent callers; Start and Stop bracket the upload
// schedule and are idempotent.
type Collector interface {
	Start()
	Stop()
	Count(toggleName string, enabled bool)
}

// Noop is used when metrics are disabled.
type Noop struct{}

func (Noop) Start() {}

func (Noop) Stop() {}

func (Noop) Count(string, bool) {}

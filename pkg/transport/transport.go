// Package transport defines the HTTP port used for toggle fetches and
// metrics uploads.
package transport

import (
	"net/http"
	"time"
)

// Doer is the transport port: anything that can execute an HTTP request.
// *http.Client satisfies it, as do resilient wrappers supplied by callers.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultTimeout = 10 * time.Second

// Resolve returns the caller-supplied transport, falling back to a default
// client with a request timeout. Timeout policy beyond the default is the
// transport's own responsibility.
func Resolve(override Doer) Doer {
	if override != nil {
		return override
	}
	return &http.Client{Timeout: defaultTimeout}
}

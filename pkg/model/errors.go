package model

import (
	"errors"
	"fmt"
)

// Configuration errors are returned synchronously from client construction.
var (
	ErrMissingURL       = errors.New("client configuration requires a url")
	ErrMissingClientKey = errors.New("client configuration requires a clientKey")
	ErrMissingAppName   = errors.New("client configuration requires an appName")
)

// HTTPError is emitted on the error topic for non-2xx, non-304 responses.
type HTTPError struct {
	StatusCode int
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code %d from toggle endpoint", e.StatusCode)
}

package domain

import (
	"errors"
	"fmt"
)

// ErrRunInProgress is returned by run triggers when another run holds the lock.
var ErrRunInProgress = errors.New("run already in progress")

// FetchError reports a network or parse failure for one feed.
// HTTPStatus is zero when no response status was received.
type FetchError struct {
	URL        string
	HTTPStatus int
	Err        error
}

func (e *FetchError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError reports a store write failure.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string { return fmt.Sprintf("persist %s: %v", e.Op, e.Err) }

func (e *PersistError) Unwrap() error { return e.Err }

// ConfigError reports an invalid configuration value found at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config %s: %s", e.Field, e.Reason) }

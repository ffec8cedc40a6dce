package domain

import (
	"errors"
	"fmt"
)

// Configuration errors. Fatal, reported before any remote call.
var (
	// ErrInvalidQuerySpec signals a malformed or incomplete query spec.
	ErrInvalidQuerySpec = errors.New("invalid query spec")
	// ErrUnknownAction signals an unrecognized action name.
	ErrUnknownAction = errors.New("unknown action")
	// ErrOutputDir signals an output directory that cannot be created.
	ErrOutputDir = errors.New("output directory not writable")
)

// Catalog errors. Fatal for the current run.
var (
	// ErrOrganizationNotFound signals that no organization matched the display name exactly.
	ErrOrganizationNotFound = errors.New("organization not found")
	// ErrCatalogQueryFailed signals a failed or malformed catalog response.
	ErrCatalogQueryFailed = errors.New("catalog query failed")
)

// Per-check errors. Captured as FailureRecord, never fatal.
var (
	// ErrCheckOutputInvalid signals checker output that is not the expected JSON document.
	ErrCheckOutputInvalid = errors.New("checker output invalid")
	// ErrCheckTimeout signals a checker invocation that exceeded its deadline.
	ErrCheckTimeout = errors.New("checker timed out")
	// ErrCheckerStart signals a checker process that could not be started.
	ErrCheckerStart = errors.New("checker failed to start")
)

// CatalogAPIError wraps ErrCatalogQueryFailed with the error reported by the catalog.
type CatalogAPIError struct {
	Op         string
	StatusCode int
	Type       string
	Message    string
}

func (e *CatalogAPIError) Error() string {
	msg := e.Message
	if e.Type != "" {
		msg = e.Type + ": " + msg
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", ErrCatalogQueryFailed.Error(), e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrCatalogQueryFailed.Error(), e.Op, msg)
}

func (e *CatalogAPIError) Unwrap() error { return ErrCatalogQueryFailed }

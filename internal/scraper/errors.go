package scraper

import (
	"fmt"

	"github.com/stacklok/layermap-scraper/internal/target"
)

// TaskErrorKind says which step of a poll cycle failed
type TaskErrorKind string

const (
	// KindFetch is a failed layer map request
	KindFetch TaskErrorKind = "fetch"
	// KindWrite is a failed append to the record writer
	KindWrite TaskErrorKind = "write"
)

// TaskError terminates the poll task of Key. The failed cycle is not retried;
// the coordinator starts a fresh task if the key is still desired.
type TaskError struct {
	Key  target.Key
	Kind TaskErrorKind
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Kind, e.Key, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

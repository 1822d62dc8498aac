package util

import (
	"fmt"
	"time"
)

// NewID returns a prefixed, time-ordered identifier ("job_...", "set_...").
// Nanosecond timestamps are unique enough here: rows are allocated by a
// single API process, never concurrently per nanosecond.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

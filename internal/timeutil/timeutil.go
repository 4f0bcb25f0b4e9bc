// Package timeutil centralizes the few timestamp conventions the engine
// relies on: RFC3339 "now", the "epoch zero" never-used sentinel, and the
// compact timestamp backup file names are stamped with.
package timeutil

import "time"

// Now returns the current local time as an RFC3339 string.
func Now() string {
	return time.Now().Format(time.RFC3339)
}

// EpochZero is the sentinel value for "this timestamp has never been set".
// Metadata fields use this instead of an empty string once created.
func EpochZero() string {
	return time.Unix(0, 0).UTC().Format(time.RFC3339)
}

// SimpleTimestamp renders the compact "YYYYMMDD-HHMMSS" form used in
// backup file names.
func SimpleTimestamp() string {
	return time.Now().Format("20060102-150405")
}

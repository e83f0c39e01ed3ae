package controller

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned by a SelectRegion call whose fetch resolved
// after a newer selection took over. The newer selection owns the view; the
// stale result was discarded without touching state.
var ErrSuperseded = errors.New("region selection superseded by a newer selection")

// ErrNotRendered is returned by operations that are only valid once a
// region's geometry is cached and on the map.
var ErrNotRendered = errors.New("no region rendered")

// ValidationError reports malformed ZIP search input. Recoverable; surfaced
// inline to the user.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid ZIP %q: %s", e.Input, e.Reason)
}

// LookupMissKind distinguishes the two ways a well-formed ZIP search can
// miss, which get distinct user-facing messages.
type LookupMissKind int

const (
	// LookupMissDatabase: the ZIP is not in the ZIP→region lookup table.
	LookupMissDatabase LookupMissKind = iota
	// LookupMissBoundaries: the ZIP resolved to a region, but that region's
	// loaded boundary set has no feature with this ZIP.
	LookupMissBoundaries
)

// LookupMissError reports a ZIP that could not be located. Recoverable; the
// map is left unchanged.
type LookupMissError struct {
	Zip    string
	Kind   LookupMissKind
	Region string // set for LookupMissBoundaries
}

func (e *LookupMissError) Error() string {
	switch e.Kind {
	case LookupMissBoundaries:
		return fmt.Sprintf("ZIP %s was not found in the loaded boundaries for %s", e.Zip, e.Region)
	default:
		return fmt.Sprintf("ZIP %s is not in the region database", e.Zip)
	}
}

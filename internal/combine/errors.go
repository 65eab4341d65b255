package combine

import "errors"

var (
	// ErrDuplicateRegime indicates two files claim the same (regime,
	// variant) slot for a (mass, flavour) unit — a fatal, non-mergeable
	// overlap per spec.md §4.3 step 5.
	ErrDuplicateRegime = errors.New("combine: overlapping non-mergeable sample files")
)

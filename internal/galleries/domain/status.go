// Package domain provides core business rules for the galleries bounded context.
package domain

// Status is the lifecycle state of a gallery. Values are part of the external
// API contract and must match exactly, case-sensitive.
type Status string

const (
	StatusPlanning   Status = "Planning"
	StatusOpen       Status = "Open"
	StatusClosed     Status = "Closed"
	StatusProcessing Status = "Processing"
	StatusDelivered  Status = "Delivered"
)

var knownStatuses = map[Status]struct{}{
	StatusPlanning:   {},
	StatusOpen:       {},
	StatusClosed:     {},
	StatusProcessing: {},
	StatusDelivered:  {},
}

// IsKnownStatus reports whether the value is one of the five lifecycle states.
func IsKnownStatus(s Status) bool {
	_, ok := knownStatuses[s]
	return ok
}

// forwardTransitions is the primary lifecycle path. Each status advances to
// exactly one successor.
var forwardTransitions = map[Status]Status{
	StatusPlanning:   StatusOpen,
	StatusOpen:       StatusClosed,
	StatusClosed:     StatusProcessing,
	StatusProcessing: StatusDelivered,
}

// CanAdvance reports whether from→to is a legal forward transition.
func CanAdvance(from, to Status) bool {
	next, ok := forwardTransitions[from]
	return ok && next == to
}

// reopenSources are the statuses a gallery may be reopened from. Reopen
// requests are creatable in all three, so the arbitrated backward transition
// accepts all three.
var reopenSources = map[Status]struct{}{
	StatusClosed:     {},
	StatusProcessing: {},
	StatusDelivered:  {},
}

// CanReopenFrom reports whether the backward transition to Open is legal.
func CanReopenFrom(s Status) bool {
	_, ok := reopenSources[s]
	return ok
}

// IsEditable reports whether client selection edits are allowed. Only an
// open, unlocked gallery accepts toggles, add-on changes and comments.
func IsEditable(s Status, locked bool) bool {
	return s == StatusOpen && !locked
}

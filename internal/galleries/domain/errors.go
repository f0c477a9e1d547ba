package domain

import (
	"fmt"

	"github.com/npsfilm/proof-perfect-sub000/platform/apperr"
)

// Guard codes carried on every state/validation error so callers always learn
// which rule was violated.
const (
	CodeIllegalTransition      = "illegal_transition"
	CodeGalleryNotEditable     = "gallery_not_editable"
	CodeStaleState             = "stale_state"
	CodeEmptySelection         = "empty_selection"
	CodeForeignPhoto           = "foreign_photo"
	CodeAddOnOnUnselectedPhoto = "addon_on_unselected_photo"
	CodeNotEligible            = "not_eligible"
	CodeAlreadyResolved        = "already_resolved"
)

// ErrIllegalTransition reports a transition attempt outside the legal table.
// The message names current status, requested status and the violated guard.
func ErrIllegalTransition(from, to Status, guard string) *apperr.Error {
	return apperr.Conflict(
		fmt.Sprintf("illegal transition from %s to %s: %s", from, to, guard),
	).WithCode(CodeIllegalTransition)
}

// ErrGalleryNotEditable reports an edit attempt while the gallery is not open
// for selection.
func ErrGalleryNotEditable(s Status, locked bool) *apperr.Error {
	reason := fmt.Sprintf("gallery status is %s", s)
	if s == StatusOpen && locked {
		reason = "gallery selection is locked"
	}
	return apperr.Conflict("this gallery can no longer be edited: " + reason).
		WithCode(CodeGalleryNotEditable)
}

// ErrStaleState reports a lost update detected by the optimistic toggle.
func ErrStaleState() *apperr.Error {
	return apperr.Conflict("photo selection changed in another session, refetch and retry").
		WithCode(CodeStaleState)
}

// ErrEmptySelection rejects a finalize call without any selected photos.
func ErrEmptySelection() *apperr.Error {
	return apperr.Validation("at least one photo must be selected").
		WithCode(CodeEmptySelection)
}

// ErrForeignPhoto rejects photo ids that belong to a different gallery.
func ErrForeignPhoto(photoID string) *apperr.Error {
	return apperr.Validation(
		fmt.Sprintf("photo %s does not belong to this gallery", photoID),
	).WithCode(CodeForeignPhoto)
}

// ErrAddOnOnUnselectedPhoto rejects add-ons that reference unselected photos.
func ErrAddOnOnUnselectedPhoto(photoID string) *apperr.Error {
	return apperr.Validation(
		fmt.Sprintf("add-on references photo %s which is not part of the selection", photoID),
	).WithCode(CodeAddOnOnUnselectedPhoto)
}

// ErrNotEligible rejects a reopen request on a gallery that has not been
// finalized yet.
func ErrNotEligible(s Status) *apperr.Error {
	return apperr.Conflict(
		fmt.Sprintf("gallery status is %s, reopen requests require a finalized gallery", s),
	).WithCode(CodeNotEligible)
}

// ErrAlreadyResolved reports a second resolution attempt on the same request.
func ErrAlreadyResolved() *apperr.Error {
	return apperr.Conflict("reopen request has already been resolved").
		WithCode(CodeAlreadyResolved)
}

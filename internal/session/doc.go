// Package session implements the edit-state machine of the image editor and the
// asynchronous preview renderer that feeds it.
//
// A Session moves between three states:
//
//	Empty --Open--> Clean --Adjust(f != 1)--> Dirty
//	                  ^                         |
//	                  +--Discard / CommitSave --+
//
// Open is allowed from any state; Adjust, Discard and CommitSave need an open
// image and report ErrInvalidState otherwise. The invariants dirty ⇒ opened and
// ¬dirty ⇒ factor == 1 hold after every transition.
//
// Previews are always rendered from the baseline image, never from an earlier
// preview. The Previewer runs renders off the caller's goroutine and keeps only
// the result of the most recent request; results for superseded factors are
// dropped no matter when they arrive.
package session

package entity

import "fmt"

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	StatusDraft     ListingStatus = "draft"
	StatusPending   ListingStatus = "pending"
	StatusApproved  ListingStatus = "approved"
	StatusRejected  ListingStatus = "rejected"
	StatusPublished ListingStatus = "published"
	// StatusDeleted is terminal and never stored: deleting removes every copy.
	StatusDeleted ListingStatus = "deleted"
)

// IsValid reports whether s can be stored on a record.
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// Discoverable reports whether other users may see and enroll in the listing.
func (s ListingStatus) Discoverable() bool {
	return s == StatusApproved || s == StatusPublished
}

// transitions lists the forward moves out of each state. Delete is legal from
// any state and handled separately.
var transitions = map[ListingStatus][]ListingStatus{
	"":              {StatusDraft, StatusPending},
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusApproved, StatusPublished, StatusRejected},
	StatusApproved:  {StatusPublished},
	StatusPublished: {},
	StatusRejected:  {},
}

// adminTransitions are the moves only the admin actor makes, on the global record.
var adminTransitions = map[ListingStatus][]ListingStatus{
	StatusPending:  {StatusApproved, StatusPublished, StatusRejected},
	StatusApproved: {StatusPublished},
}

// CanTransition reports whether a listing in from may move to to.
// The empty from state stands for creation.
func CanTransition(from, to ListingStatus) bool {
	if to == StatusDeleted {
		return from != StatusDeleted
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsAdminTransition reports whether from→to is an admin moderation move.
func IsAdminTransition(from, to ListingStatus) bool {
	for _, next := range adminTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition when from→to is illegal.
func ValidateTransition(from, to ListingStatus) error {
	if !CanTransition(from, to) {
		if from == "" {
			return fmt.Errorf("%w: cannot create a listing as %q", ErrInvalidTransition, to)
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

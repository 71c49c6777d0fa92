package entity

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
)

// ListingPatch is a partial update. Nil fields are left untouched.
type ListingPatch struct {
	Title              *string        `json:"title,omitempty"`
	Description        *string        `json:"description,omitempty"`
	Category           *string        `json:"category,omitempty"`
	ClassType          *string        `json:"classType,omitempty"`
	Difficulty         *string        `json:"difficulty,omitempty"`
	SubscriberPrice    *float64       `json:"subscriberPrice,omitempty"`
	NonSubscriberPrice *float64       `json:"nonSubscriberPrice,omitempty"`
	Date               *string        `json:"date,omitempty"`
	Time               *string        `json:"time,omitempty"`
	Location           *string        `json:"location,omitempty"`
	AvailableSeats     *int           `json:"availableSeats,omitempty"`
	InstructorName     *string        `json:"instructorName,omitempty"`
	ImageRef           *string        `json:"imageRef,omitempty"`
	Status             *ListingStatus `json:"status,omitempty"`
	GlobalID           *string        `json:"globalId,omitempty"`
	OwnerLocalID       *string        `json:"ownerLocalId,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ListingPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// TouchesContent reports whether the patch sets any instructor-owned field.
func (p ListingPatch) TouchesContent() bool {
	f := p.Fields()
	for _, name := range contentFields {
		if _, ok := f[name]; ok {
			return true
		}
	}
	return false
}

// Fields returns the set fields in stored form.
func (p ListingPatch) Fields() store.Value {
	v := store.Value{}
	setString := func(name string, s *string) {
		if s != nil {
			v[name] = *s
		}
	}
	setString(FieldTitle, p.Title)
	setString(FieldDescription, p.Description)
	setString(FieldCategory, p.Category)
	setString(FieldClassType, p.ClassType)
	setString(FieldDifficulty, p.Difficulty)
	setString(FieldDate, p.Date)
	setString(FieldTime, p.Time)
	setString(FieldLocation, p.Location)
	setString(FieldInstructorName, p.InstructorName)
	setString(FieldImageRef, p.ImageRef)
	setString(FieldGlobalID, p.GlobalID)
	setString(FieldOwnerLocalID, p.OwnerLocalID)
	if p.SubscriberPrice != nil {
		v[FieldSubscriberPrice] = *p.SubscriberPrice
	}
	if p.NonSubscriberPrice != nil {
		v[FieldNonSubscriberPrice] = *p.NonSubscriberPrice
	}
	if p.AvailableSeats != nil {
		v[FieldAvailableSeats] = *p.AvailableSeats
	}
	if p.Status != nil {
		v[FieldStatus] = string(*p.Status)
	}
	return v
}

// MergeListing applies patch to base. It is the single place partial updates
// are combined, and it refuses merges that would break the record:
//   - status must be a known value reachable from base.Status;
//   - globalId and ownerLocalId may be set once, never changed or cleared;
//   - numeric fields must stay in range.
func MergeListing(base Listing, patch ListingPatch) (Listing, error) {
	out := base
	if patch.Status != nil {
		next := *patch.Status
		if !next.IsValid() {
			return base, &ValidationError{Fields: []string{FieldStatus}, Reason: fmt.Sprintf("unknown status %q", next)}
		}
		if next != base.Status {
			if err := ValidateTransition(base.Status, next); err != nil {
				return base, err
			}
			out.Status = next
		}
	}
	if patch.GlobalID != nil {
		if err := mergeRef(FieldGlobalID, base.GlobalID, *patch.GlobalID); err != nil {
			return base, err
		}
		out.GlobalID = *patch.GlobalID
	}
	if patch.OwnerLocalID != nil {
		if err := mergeRef(FieldOwnerLocalID, base.OwnerLocalID, *patch.OwnerLocalID); err != nil {
			return base, err
		}
		out.OwnerLocalID = *patch.OwnerLocalID
	}

	if patch.Title != nil {
		out.Title = *patch.Title
	}
	if patch.Description != nil {
		out.Description = *patch.Description
	}
	if patch.Category != nil {
		out.Category = *patch.Category
	}
	if patch.ClassType != nil {
		out.ClassType = *patch.ClassType
	}
	if patch.Difficulty != nil {
		out.Difficulty = *patch.Difficulty
	}
	if patch.SubscriberPrice != nil {
		out.SubscriberPrice = *patch.SubscriberPrice
	}
	if patch.NonSubscriberPrice != nil {
		out.NonSubscriberPrice = *patch.NonSubscriberPrice
	}
	if patch.Date != nil {
		out.Date = *patch.Date
	}
	if patch.Time != nil {
		out.Time = *patch.Time
	}
	if patch.Location != nil {
		out.Location = *patch.Location
	}
	if patch.AvailableSeats != nil {
		out.AvailableSeats = *patch.AvailableSeats
	}
	if patch.InstructorName != nil {
		out.InstructorName = *patch.InstructorName
	}
	if patch.ImageRef != nil {
		out.ImageRef = *patch.ImageRef
	}

	if err := out.Validate(); err != nil {
		return base, err
	}
	// A listing that already left draft must keep what publishing required.
	if out.Status != "" && out.Status != StatusDraft && patch.TouchesContent() {
		if err := out.ValidateForPublish(); err != nil {
			return base, err
		}
	}
	return out, nil
}

func mergeRef(field, current, next string) error {
	if next == "" {
		return &ValidationError{Fields: []string{field}, Reason: "cross-reference cannot be cleared"}
	}
	if current != "" && current != next {
		return &ValidationError{Fields: []string{field}, Reason: "cross-reference cannot be changed"}
	}
	return nil
}

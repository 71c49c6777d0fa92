package entity

import (
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
)

// Record field names. These are part of the stored format.
const (
	FieldTitle              = "title"
	FieldDescription        = "description"
	FieldCategory           = "category"
	FieldClassType          = "classType"
	FieldDifficulty         = "difficulty"
	FieldSubscriberPrice    = "subscriberPrice"
	FieldNonSubscriberPrice = "nonSubscriberPrice"
	FieldDate               = "date"
	FieldTime               = "time"
	FieldLocation           = "location"
	FieldAvailableSeats     = "availableSeats"
	FieldStatus             = "status"
	FieldInstructorID       = "instructorId"
	FieldInstructorName     = "instructorName"
	FieldImageRef           = "imageRef"
	FieldRating             = "rating"
	FieldSubscriberCount    = "subscriberCount"
	FieldCreatedAt          = "createdAt"
	FieldUpdatedAt          = "updatedAt"
	FieldGlobalID           = "globalId"
	FieldOwnerLocalID       = "ownerLocalId"
	FieldSourceDraftID      = "sourceDraftId"
	FieldDeleting           = "deleting"
)

// contentFields are owned by the instructor; the mirror is authoritative for them.
var contentFields = []string{
	FieldTitle, FieldDescription, FieldCategory, FieldClassType, FieldDifficulty,
	FieldSubscriberPrice, FieldNonSubscriberPrice, FieldDate, FieldTime, FieldLocation,
	FieldAvailableSeats, FieldInstructorName, FieldImageRef,
}

// ContentFields returns the names of the instructor-owned fields.
func ContentFields() []string {
	out := make([]string, len(contentFields))
	copy(out, contentFields)
	return out
}

// Listing is one class listing. The same logical listing is stored as a draft,
// or as a global record plus an owner mirror.
type Listing struct {
	// ID is the key of the copy this value was read from. It is not stored.
	ID                 string        `json:"id"`
	GlobalID           string        `json:"globalId,omitempty"`
	OwnerLocalID       string        `json:"ownerLocalId,omitempty"`
	SourceDraftID      string        `json:"sourceDraftId,omitempty"`
	// Deleting marks a mirror whose delete has started. The reconciler
	// finishes such a delete instead of rebuilding the pair.
	Deleting           bool          `json:"deleting,omitempty"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	Category           string        `json:"category"`
	ClassType          string        `json:"classType"`
	Difficulty         string        `json:"difficulty"`
	SubscriberPrice    float64       `json:"subscriberPrice"`
	NonSubscriberPrice float64       `json:"nonSubscriberPrice"`
	Date               string        `json:"date"`
	Time               string        `json:"time"`
	Location           string        `json:"location"`
	AvailableSeats     int           `json:"availableSeats"`
	Status             ListingStatus `json:"status"`
	InstructorID       string        `json:"instructorId"`
	InstructorName     string        `json:"instructorName"`
	ImageRef           string        `json:"imageRef"`
	Rating             float64       `json:"rating"`
	SubscriberCount    int           `json:"subscriberCount"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// Value encodes the full record.
func (l Listing) Value() store.Value {
	v := l.Content()
	v[FieldStatus] = string(l.Status)
	v[FieldInstructorID] = l.InstructorID
	v[FieldRating] = l.Rating
	v[FieldSubscriberCount] = l.SubscriberCount
	v[FieldCreatedAt] = store.Millis(l.CreatedAt)
	v[FieldUpdatedAt] = store.Millis(l.UpdatedAt)
	if l.GlobalID != "" {
		v[FieldGlobalID] = l.GlobalID
	}
	if l.OwnerLocalID != "" {
		v[FieldOwnerLocalID] = l.OwnerLocalID
	}
	if l.SourceDraftID != "" {
		v[FieldSourceDraftID] = l.SourceDraftID
	}
	if l.Deleting {
		v[FieldDeleting] = true
	}
	return v
}

// Content encodes only the instructor-owned fields.
func (l Listing) Content() store.Value {
	return store.Value{
		FieldTitle:              l.Title,
		FieldDescription:        l.Description,
		FieldCategory:           l.Category,
		FieldClassType:          l.ClassType,
		FieldDifficulty:         l.Difficulty,
		FieldSubscriberPrice:    l.SubscriberPrice,
		FieldNonSubscriberPrice: l.NonSubscriberPrice,
		FieldDate:               l.Date,
		FieldTime:               l.Time,
		FieldLocation:           l.Location,
		FieldAvailableSeats:     l.AvailableSeats,
		FieldInstructorName:     l.InstructorName,
		FieldImageRef:           l.ImageRef,
	}
}

// ListingFromValue decodes a stored record read from key.
func ListingFromValue(key string, v store.Value) Listing {
	return Listing{
		ID:                 key,
		GlobalID:           v.GetString(FieldGlobalID),
		OwnerLocalID:       v.GetString(FieldOwnerLocalID),
		SourceDraftID:      v.GetString(FieldSourceDraftID),
		Deleting:           v.GetBool(FieldDeleting),
		Title:              v.GetString(FieldTitle),
		Description:        v.GetString(FieldDescription),
		Category:           v.GetString(FieldCategory),
		ClassType:          v.GetString(FieldClassType),
		Difficulty:         v.GetString(FieldDifficulty),
		SubscriberPrice:    v.GetFloat(FieldSubscriberPrice),
		NonSubscriberPrice: v.GetFloat(FieldNonSubscriberPrice),
		Date:               v.GetString(FieldDate),
		Time:               v.GetString(FieldTime),
		Location:           v.GetString(FieldLocation),
		AvailableSeats:     v.GetInt(FieldAvailableSeats),
		Status:             ListingStatus(v.GetString(FieldStatus)),
		InstructorID:       v.GetString(FieldInstructorID),
		InstructorName:     v.GetString(FieldInstructorName),
		ImageRef:           v.GetString(FieldImageRef),
		Rating:             v.GetFloat(FieldRating),
		SubscriberCount:    v.GetInt(FieldSubscriberCount),
		CreatedAt:          v.GetTime(FieldCreatedAt),
		UpdatedAt:          v.GetTime(FieldUpdatedAt),
	}
}

// ValidateForPublish checks the fields a listing needs before it leaves draft.
func (l Listing) ValidateForPublish() error {
	var missing []string
	if strings.TrimSpace(l.Title) == "" {
		missing = append(missing, FieldTitle)
	}
	if strings.TrimSpace(l.Description) == "" {
		missing = append(missing, FieldDescription)
	}
	if strings.TrimSpace(l.Category) == "" {
		missing = append(missing, FieldCategory)
	}
	if l.AvailableSeats == 0 {
		missing = append(missing, FieldAvailableSeats)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing, Reason: "required to publish"}
	}
	return l.Validate()
}

// Validate checks value ranges that hold in every state.
func (l Listing) Validate() error {
	var bad []string
	if l.AvailableSeats < 0 {
		bad = append(bad, FieldAvailableSeats)
	}
	if l.SubscriberPrice < 0 {
		bad = append(bad, FieldSubscriberPrice)
	}
	if l.NonSubscriberPrice < 0 {
		bad = append(bad, FieldNonSubscriberPrice)
	}
	if l.Rating < 0 || l.Rating > MaxRating {
		bad = append(bad, FieldRating)
	}
	if l.Status != "" && !l.Status.IsValid() {
		bad = append(bad, FieldStatus)
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad, Reason: "out of range"}
	}
	return nil
}

// SeatsLeft is the number of seats not yet taken.
func (l Listing) SeatsLeft() int {
	left := l.AvailableSeats - l.SubscriberCount
	if left < 0 {
		return 0
	}
	return left
}

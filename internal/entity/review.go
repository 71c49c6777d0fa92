package entity

import (
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is an append-only rating of a listing, stored under reviews/{globalId}.
type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Rating      int       `json:"rating"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r Review) Value() store.Value {
	return store.Value{
		FieldUserID:      r.UserID,
		FieldRating:      r.Rating,
		FieldDescription: r.Description,
		FieldCreatedAt:   store.Millis(r.CreatedAt),
	}
}

func ReviewFromValue(key string, v store.Value) Review {
	return Review{
		ID:          key,
		UserID:      v.GetString(FieldUserID),
		Rating:      v.GetInt(FieldRating),
		Description: v.GetString(FieldDescription),
		CreatedAt:   v.GetTime(FieldCreatedAt),
	}
}

func (r Review) Validate() error {
	var bad []string
	if r.UserID == "" {
		bad = append(bad, FieldUserID)
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		bad = append(bad, FieldRating)
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad, Reason: "rating must be between 1 and 5"}
	}
	return nil
}

// Enrollment records one user's seat in a class.
type Enrollment struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e Enrollment) Value() store.Value {
	return store.Value{
		FieldUserID:    e.UserID,
		FieldCreatedAt: store.Millis(e.CreatedAt),
	}
}

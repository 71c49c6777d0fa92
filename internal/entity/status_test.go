package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ListingStatus
		want     bool
	}{
		{"", StatusDraft, true},
		{"", StatusPending, true},
		{"", StatusApproved, false},
		{StatusDraft, StatusPending, true},
		{StatusDraft, StatusApproved, false},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusPublished, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusDraft, false},
		{StatusApproved, StatusPublished, true},
		{StatusApproved, StatusDraft, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusPublished, StatusPending, false},
		{StatusDraft, StatusDeleted, true},
		{StatusRejected, StatusDeleted, true},
		{StatusPublished, StatusDeleted, true},
		{StatusDeleted, StatusDeleted, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusPending, StatusRejected))

	err := ValidateTransition(StatusApproved, StatusDraft)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "approved -> draft")
}

func TestListingStatus_IsValid(t *testing.T) {
	assert.True(t, StatusPublished.IsValid())
	assert.False(t, StatusDeleted.IsValid())
	assert.False(t, ListingStatus("archived").IsValid())
	assert.False(t, ListingStatus("").IsValid())
}

func TestIsAdminTransition(t *testing.T) {
	assert.True(t, IsAdminTransition(StatusPending, StatusRejected))
	assert.True(t, IsAdminTransition(StatusApproved, StatusPublished))
	assert.False(t, IsAdminTransition(StatusDraft, StatusPending))
}

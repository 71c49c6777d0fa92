package entity

import (
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
)

const (
	FieldPostID       = "postId"
	FieldOwnerID      = "ownerId"
	FieldCaption      = "caption"
	FieldLikeCount    = "likeCount"
	FieldCommentCount = "commentCount"
	FieldUserID       = "userId"
	FieldText         = "text"
)

// Post is a social post. The global copy at posts/{postId} is authoritative;
// the owner mirror only carries content and the postId reference.
type Post struct {
	ID           string    `json:"id"`
	PostID       string    `json:"postId"`
	OwnerID      string    `json:"ownerId"`
	OwnerLocalID string    `json:"ownerLocalId,omitempty"`
	Caption      string    `json:"caption"`
	ImageRef     string    `json:"imageRef"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Value encodes the global record.
func (p Post) Value() store.Value {
	v := p.MirrorValue()
	v[FieldLikeCount] = p.LikeCount
	v[FieldCommentCount] = p.CommentCount
	if p.OwnerLocalID != "" {
		v[FieldOwnerLocalID] = p.OwnerLocalID
	}
	return v
}

// MirrorValue encodes the owner mirror.
func (p Post) MirrorValue() store.Value {
	return store.Value{
		FieldPostID:    p.PostID,
		FieldOwnerID:   p.OwnerID,
		FieldCaption:   p.Caption,
		FieldImageRef:  p.ImageRef,
		FieldCreatedAt: store.Millis(p.CreatedAt),
	}
}

func PostFromValue(key string, v store.Value) Post {
	return Post{
		ID:           key,
		PostID:       v.GetString(FieldPostID),
		OwnerID:      v.GetString(FieldOwnerID),
		OwnerLocalID: v.GetString(FieldOwnerLocalID),
		Caption:      v.GetString(FieldCaption),
		ImageRef:     v.GetString(FieldImageRef),
		LikeCount:    v.GetInt(FieldLikeCount),
		CommentCount: v.GetInt(FieldCommentCount),
		CreatedAt:    v.GetTime(FieldCreatedAt),
	}
}

// Validate requires a caption or an image.
func (p Post) Validate() error {
	if strings.TrimSpace(p.Caption) == "" && p.ImageRef == "" {
		return &ValidationError{Fields: []string{FieldCaption, FieldImageRef}, Reason: "a post needs a caption or an image"}
	}
	if p.OwnerID == "" {
		return &ValidationError{Fields: []string{FieldOwnerID}}
	}
	return nil
}

// Comment is an append-only child of a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c Comment) Value() store.Value {
	return store.Value{
		FieldPostID:    c.PostID,
		FieldUserID:    c.UserID,
		FieldText:      c.Text,
		FieldCreatedAt: store.Millis(c.CreatedAt),
	}
}

func CommentFromValue(key string, v store.Value) Comment {
	return Comment{
		ID:        key,
		PostID:    v.GetString(FieldPostID),
		UserID:    v.GetString(FieldUserID),
		Text:      v.GetString(FieldText),
		CreatedAt: v.GetTime(FieldCreatedAt),
	}
}

func (c Comment) Validate() error {
	var bad []string
	if c.UserID == "" {
		bad = append(bad, FieldUserID)
	}
	if strings.TrimSpace(c.Text) == "" {
		bad = append(bad, FieldText)
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

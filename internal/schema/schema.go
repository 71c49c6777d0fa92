// Package schema is the logical path layout of every record the service
// writes. Paths are the durable wire format: changing one strands data.
//
//	registry/{globalId}                          Listing (status-authoritative)
//	owners/{ownerId}/published/{mirrorLocalId}   Listing mirror (content-authoritative)
//	owners/{ownerId}/drafts/{draftLocalId}       Listing (status = draft)
//	reviews/{globalId}/{reviewId}                Review (append-only)
//	enrollments/{globalId}/{userId}              Enrollment
//	posts/{postId}                               Post (authoritative)
//	posts/{postId}/comments/{commentId}          Comment (append-only)
//	posts/{postId}/likes/{userId}                Like
//	owners/{ownerId}/posts/{localId}             Post mirror
//	owners/{ownerId}/handoff/{key}               ephemeral scalar, deleted on read
package schema

import "github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"

const (
	registryRoot    = "registry"
	ownersRoot      = "owners"
	reviewsRoot     = "reviews"
	enrollmentsRoot = "enrollments"
	postsRoot       = "posts"

	publishedSegment = "published"
	draftsSegment    = "drafts"
	postsSegment     = "posts"
	handoffSegment   = "handoff"
	commentsSegment  = "comments"
	likesSegment     = "likes"
)

func Registry() string { return registryRoot }

func RegistryEntry(globalID string) string { return store.Join(registryRoot, globalID) }

func OwnerPublished(ownerID string) string {
	return store.Join(ownersRoot, ownerID, publishedSegment)
}

func OwnerPublishedEntry(ownerID, localID string) string {
	return store.Join(ownersRoot, ownerID, publishedSegment, localID)
}

func OwnerDrafts(ownerID string) string {
	return store.Join(ownersRoot, ownerID, draftsSegment)
}

func OwnerDraft(ownerID, localID string) string {
	return store.Join(ownersRoot, ownerID, draftsSegment, localID)
}

func Reviews(globalID string) string { return store.Join(reviewsRoot, globalID) }

func Review(globalID, reviewID string) string {
	return store.Join(reviewsRoot, globalID, reviewID)
}

func Enrollments(globalID string) string { return store.Join(enrollmentsRoot, globalID) }

func Enrollment(globalID, userID string) string {
	return store.Join(enrollmentsRoot, globalID, userID)
}

func Posts() string { return postsRoot }

func Post(postID string) string { return store.Join(postsRoot, postID) }

func Comments(postID string) string { return store.Join(postsRoot, postID, commentsSegment) }

func Comment(postID, commentID string) string {
	return store.Join(postsRoot, postID, commentsSegment, commentID)
}

func Likes(postID string) string { return store.Join(postsRoot, postID, likesSegment) }

func Like(postID, userID string) string {
	return store.Join(postsRoot, postID, likesSegment, userID)
}

func OwnerPosts(ownerID string) string {
	return store.Join(ownersRoot, ownerID, postsSegment)
}

func OwnerPost(ownerID, localID string) string {
	return store.Join(ownersRoot, ownerID, postsSegment, localID)
}

func Handoff(ownerID, key string) string {
	return store.Join(ownersRoot, ownerID, handoffSegment, key)
}

// ValidID reports whether id can be used as a single path segment.
func ValidID(id string) bool {
	return id != "" && store.ValidatePath(id) == nil && store.Parent(id) == ""
}

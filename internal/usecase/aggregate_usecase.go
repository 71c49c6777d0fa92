package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AggregateUsecase keeps derived fields in step with the logs they summarize.
type AggregateUsecase struct {
	base
}

func NewAggregateUsecase(client store.Client, events EventPublisher, m *metrics.MetricsManager, log *logger.Logger) *AggregateUsecase {
	return &AggregateUsecase{base: newBase(client, events, m, log, "AggregateUsecase")}
}

// RecomputeRating sets rating to the mean of the listing's reviews on the
// global record and, when it resolves, on the owner mirror. With no reviews
// the rating keeps its last value. Reviews are summed in key order so the
// result is the same on every run.
func (uc *AggregateUsecase) RecomputeRating(ctx context.Context, globalID string) (float64, error) {
	if err := requireID(entity.FieldGlobalID, globalID); err != nil {
		return 0, err
	}
	ctx, op := uc.begin(ctx, "recompute_rating", attribute.String("global_id", globalID))

	global, reviews, err := uc.readWithLog(ctx, op, globalID, schema.Reviews(globalID))
	if err != nil {
		return 0, op.end(err)
	}
	if len(reviews) == 0 {
		op.end(nil)
		return global.Rating, nil
	}

	keys := make([]string, 0, len(reviews))
	for k := range reviews {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sum float64
	for _, k := range keys {
		sum += reviews[k].GetFloat(entity.FieldRating)
	}
	rating := sum / float64(len(keys))

	if err := uc.writeDerived(ctx, op, global, store.Value{entity.FieldRating: rating}); err != nil {
		return 0, op.end(err)
	}
	op.end(nil)
	uc.log.Debug("Rating recomputed", zap.String("global_id", globalID), zap.Float64("rating", rating), zap.Int("reviews", len(keys)))
	return rating, nil
}

// RecomputeSubscribers sets subscriberCount from the enrollment log.
func (uc *AggregateUsecase) RecomputeSubscribers(ctx context.Context, globalID string) (int, error) {
	if err := requireID(entity.FieldGlobalID, globalID); err != nil {
		return 0, err
	}
	ctx, op := uc.begin(ctx, "recompute_subscribers", attribute.String("global_id", globalID))

	global, enrollments, err := uc.readWithLog(ctx, op, globalID, schema.Enrollments(globalID))
	if err != nil {
		return 0, op.end(err)
	}
	count := len(enrollments)
	if err := uc.writeDerived(ctx, op, global, store.Value{entity.FieldSubscriberCount: count}); err != nil {
		return 0, op.end(err)
	}
	op.end(nil)
	return count, nil
}

func (uc *AggregateUsecase) readWithLog(ctx context.Context, op *operation, globalID, logPath string) (entity.Listing, map[string]store.Value, error) {
	globalPath := schema.RegistryEntry(globalID)
	var (
		global entity.Listing
		found  bool
	)
	err := op.step("read_global", func() (err error) {
		global, found, err = uc.readListing(ctx, globalPath)
		return err
	})
	if err != nil {
		return entity.Listing{}, nil, err
	}
	if !found {
		return entity.Listing{}, nil, entity.NotFoundError(globalPath)
	}
	var entries map[string]store.Value
	err = op.step("read_log", func() (err error) {
		entries, err = uc.client.Children(ctx, logPath)
		return err
	})
	return global, entries, err
}

// writeDerived writes fields to the global record, then to the mirror its
// back-reference names. A mirror that does not point back is left alone.
func (uc *AggregateUsecase) writeDerived(ctx context.Context, op *operation, global entity.Listing, fields store.Value) error {
	globalPath := schema.RegistryEntry(global.ID)
	err := op.step("update_global", func() error {
		return uc.client.UpdateFields(ctx, globalPath, fields)
	})
	if err != nil {
		return err
	}
	if global.InstructorID == "" || global.OwnerLocalID == "" {
		uc.orphan(op.name, &entity.OrphanError{Path: globalPath, Missing: entity.FieldOwnerLocalID})
		return nil
	}
	mirrorPath := schema.OwnerPublishedEntry(global.InstructorID, global.OwnerLocalID)
	var (
		mirror entity.Listing
		found  bool
	)
	err = op.step("read_mirror", func() (err error) {
		mirror, found, err = uc.readListing(ctx, mirrorPath)
		return err
	})
	if err != nil {
		return err
	}
	if !found || mirror.GlobalID != global.ID {
		uc.orphan(op.name, &entity.OrphanError{Path: globalPath, Missing: mirrorPath})
		return nil
	}
	return op.step("update_mirror", func() error {
		return uc.client.UpdateFields(ctx, mirrorPath, fields)
	})
}

// IncrementCommentCount reads commentCount and writes it back plus one.
// This is a read-modify-write, not an atomic increment: concurrent callers
// can read the same value and under-count. RecountComments restores the
// exact value from the comment log.
func (uc *AggregateUsecase) IncrementCommentCount(ctx context.Context, postID string) (int, error) {
	if err := requireID(entity.FieldPostID, postID); err != nil {
		return 0, err
	}
	ctx, op := uc.begin(ctx, "increment_comment_count", attribute.String("post_id", postID))
	path := schema.Post(postID)

	var (
		post  store.Value
		found bool
	)
	err := op.step("read_post", func() (err error) {
		post, found, err = uc.client.ReadOnce(ctx, path)
		return err
	})
	if err != nil {
		return 0, op.end(err)
	}
	if !found {
		return 0, op.end(entity.NotFoundError(path))
	}
	next := post.GetInt(entity.FieldCommentCount) + 1
	err = op.step("write_count", func() error {
		return uc.client.UpdateFields(ctx, path, store.Value{entity.FieldCommentCount: next})
	})
	if err = op.end(err); err != nil {
		return 0, err
	}
	return next, nil
}

// RecountComments sets commentCount to the size of the comment log.
func (uc *AggregateUsecase) RecountComments(ctx context.Context, postID string) (int, error) {
	return uc.recount(ctx, "recount_comments", postID, schema.Comments(postID), entity.FieldCommentCount)
}

// RecountLikes sets likeCount to the number of likes.
func (uc *AggregateUsecase) RecountLikes(ctx context.Context, postID string) (int, error) {
	return uc.recount(ctx, "recount_likes", postID, schema.Likes(postID), entity.FieldLikeCount)
}

func (uc *AggregateUsecase) recount(ctx context.Context, name, postID, logPath, field string) (int, error) {
	if err := requireID(entity.FieldPostID, postID); err != nil {
		return 0, err
	}
	ctx, op := uc.begin(ctx, name, attribute.String("post_id", postID))
	path := schema.Post(postID)

	var found bool
	err := op.step("read_post", func() (err error) {
		_, found, err = uc.client.ReadOnce(ctx, path)
		return err
	})
	if err != nil {
		return 0, op.end(err)
	}
	if !found {
		return 0, op.end(entity.NotFoundError(path))
	}
	var entries map[string]store.Value
	err = op.step("read_log", func() (err error) {
		entries, err = uc.client.Children(ctx, logPath)
		return err
	})
	if err != nil {
		return 0, op.end(err)
	}
	count := len(entries)
	err = op.step("write_count", func() error {
		return uc.client.UpdateFields(ctx, path, store.Value{field: count})
	})
	if err = op.end(err); err != nil {
		return 0, err
	}
	return count, nil
}

// AddReview appends a review and refreshes the rating inline.
func (uc *AggregateUsecase) AddReview(ctx context.Context, globalID, userID string, rating int, description string) (entity.Review, error) {
	if err := requireID(entity.FieldGlobalID, globalID); err != nil {
		return entity.Review{}, err
	}
	review := entity.Review{UserID: userID, Rating: rating, Description: description, CreatedAt: uc.now()}
	if err := review.Validate(); err != nil {
		return entity.Review{}, err
	}

	ctx, op := uc.begin(ctx, "add_review", attribute.String("global_id", globalID), attribute.String("user_id", userID))
	globalPath := schema.RegistryEntry(globalID)
	var found bool
	err := op.step("read_global", func() (err error) {
		_, found, err = uc.client.ReadOnce(ctx, globalPath)
		return err
	})
	if err != nil {
		return entity.Review{}, op.end(err)
	}
	if !found {
		return entity.Review{}, op.end(entity.NotFoundError(globalPath))
	}

	err = op.step("write_review", func() error {
		id, err := uc.client.AppendChild(ctx, schema.Reviews(globalID))
		if err != nil {
			return err
		}
		review.ID = id
		return uc.client.WriteAll(ctx, schema.Review(globalID, id), review.Value())
	})
	if err == nil {
		err = op.step("recompute_rating", func() error {
			_, err := uc.RecomputeRating(ctx, globalID)
			return err
		})
	}
	if err = op.end(err); err != nil {
		return entity.Review{}, err
	}

	uc.log.Info("Review added", zap.String("global_id", globalID), zap.String("review_id", review.ID), zap.Int("rating", rating))
	uc.publish(ctx, SubjectReviewAdded, map[string]interface{}{
		"global_id": globalID,
		"review_id": review.ID,
		"user_id":   userID,
		"rating":    rating,
	})
	return review, nil
}

// Enroll takes a seat for userID. Enrolling twice is a no-op. Only approved
// or published classes accept enrollments.
func (uc *AggregateUsecase) Enroll(ctx context.Context, globalID, userID string) (entity.Listing, error) {
	if err := requireID(entity.FieldGlobalID, globalID); err != nil {
		return entity.Listing{}, err
	}
	if err := requireID(entity.FieldUserID, userID); err != nil {
		return entity.Listing{}, err
	}
	ctx, op := uc.begin(ctx, "enroll", attribute.String("global_id", globalID), attribute.String("user_id", userID))

	global, enrollments, err := uc.readWithLog(ctx, op, globalID, schema.Enrollments(globalID))
	if err != nil {
		return entity.Listing{}, op.end(err)
	}
	if !global.Status.Discoverable() {
		return entity.Listing{}, op.end(&entity.ValidationError{
			Fields: []string{entity.FieldStatus},
			Reason: fmt.Sprintf("listing is %s", global.Status),
		})
	}
	if _, ok := enrollments[userID]; ok {
		op.end(nil)
		return global, nil
	}
	if len(enrollments) >= global.AvailableSeats {
		return entity.Listing{}, op.end(fmt.Errorf("%w: %d of %d taken", entity.ErrNoSeats, len(enrollments), global.AvailableSeats))
	}

	err = op.step("write_enrollment", func() error {
		e := entity.Enrollment{UserID: userID, CreatedAt: uc.now()}
		return uc.client.WriteAll(ctx, schema.Enrollment(globalID, userID), e.Value())
	})
	var count int
	if err == nil {
		err = op.step("recompute_subscribers", func() (err error) {
			count, err = uc.RecomputeSubscribers(ctx, globalID)
			return err
		})
	}
	if err = op.end(err); err != nil {
		return entity.Listing{}, err
	}
	global.SubscriberCount = count

	uc.log.Info("Enrolled", zap.String("global_id", globalID), zap.String("user_id", userID), zap.Int("subscribers", count))
	uc.publish(ctx, SubjectEnrollmentAdded, map[string]interface{}{
		"global_id":   globalID,
		"user_id":     userID,
		"subscribers": count,
	})
	return global, nil
}

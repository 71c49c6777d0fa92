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

// PostUsecase writes the two copies of a post and its comment and like logs.
type PostUsecase struct {
	base
	aggregates *AggregateUsecase
}

func NewPostUsecase(client store.Client, aggregates *AggregateUsecase, events EventPublisher, m *metrics.MetricsManager, log *logger.Logger) *PostUsecase {
	return &PostUsecase{
		base:       newBase(client, events, m, log, "PostUsecase"),
		aggregates: aggregates,
	}
}

type PostInput struct {
	Caption   string `json:"caption"`
	ImageRef  string `json:"imageRef"`
	RequestID string `json:"requestId,omitempty"`
}

// CreatePost writes the global post, then the owner mirror, then links them.
func (uc *PostUsecase) CreatePost(ctx context.Context, ownerID string, in PostInput) (entity.Post, error) {
	if err := requireID(entity.FieldOwnerID, ownerID); err != nil {
		return entity.Post{}, err
	}
	post := entity.Post{OwnerID: ownerID, Caption: in.Caption, ImageRef: in.ImageRef, CreatedAt: uc.now()}
	if err := post.Validate(); err != nil {
		return entity.Post{}, err
	}

	ctx, op := uc.begin(ctx, "create_post", attribute.String("owner_id", ownerID))
	seed := seeds("post", ownerID, in.RequestID)

	err := op.step("allocate_post", func() (err error) {
		post.PostID, err = uc.client.AppendChild(ctx, schema.Posts(), seed...)
		return err
	})
	if err != nil {
		return entity.Post{}, op.end(err)
	}
	postPath := schema.Post(post.PostID)
	err = op.step("write_post", func() error {
		if len(seed) > 0 {
			prev, ok, err := uc.client.ReadOnce(ctx, postPath)
			if err != nil {
				return err
			}
			if ok {
				existing := entity.PostFromValue(post.PostID, prev)
				post.LikeCount, post.CommentCount = existing.LikeCount, existing.CommentCount
				post.CreatedAt = existing.CreatedAt
			}
		}
		return uc.client.WriteAll(ctx, postPath, post.Value())
	})
	if err != nil {
		return entity.Post{}, op.end(err)
	}

	var localID string
	err = op.step("allocate_mirror", func() (err error) {
		localID, err = uc.client.AppendChild(ctx, schema.OwnerPosts(ownerID), seed...)
		return err
	})
	if err == nil {
		err = op.step("write_mirror", func() error {
			return uc.client.WriteAll(ctx, schema.OwnerPost(ownerID, localID), post.MirrorValue())
		})
	}
	if err == nil {
		err = op.step("link_post", func() error {
			return uc.client.UpdateFields(ctx, postPath, store.Value{entity.FieldOwnerLocalID: localID})
		})
	}
	if err = op.end(err); err != nil {
		return entity.Post{}, err
	}

	post.ID = post.PostID
	post.OwnerLocalID = localID
	uc.log.Info("Post created", zap.String("owner_id", ownerID), zap.String("post_id", post.PostID), zap.String("local_id", localID))
	uc.publish(ctx, SubjectPostCreated, map[string]interface{}{
		"owner_id": ownerID,
		"post_id":  post.PostID,
		"local_id": localID,
	})
	return post, nil
}

// DeletePost removes the global post with its comments and likes, then the
// owner mirror. Deleting an absent post succeeds.
func (uc *PostUsecase) DeletePost(ctx context.Context, ownerID, localID string) error {
	if err := requireID(entity.FieldOwnerID, ownerID); err != nil {
		return err
	}
	if err := requireID("localId", localID); err != nil {
		return err
	}
	ctx, op := uc.begin(ctx, "delete_post", attribute.String("owner_id", ownerID), attribute.String("local_id", localID))
	mirrorPath := schema.OwnerPost(ownerID, localID)

	var (
		mirror store.Value
		found  bool
	)
	err := op.step("read_mirror", func() (err error) {
		mirror, found, err = uc.client.ReadOnce(ctx, mirrorPath)
		return err
	})
	if err != nil {
		return op.end(err)
	}
	postID := mirror.GetString(entity.FieldPostID)
	if found && postID != "" {
		err = op.step("remove_post", func() error {
			return uc.client.RemoveSubtree(ctx, schema.Post(postID))
		})
		if err != nil {
			return op.end(err)
		}
	} else if found {
		uc.orphan("delete_post", &entity.OrphanError{Path: mirrorPath, Missing: entity.FieldPostID})
	}
	err = op.step("remove_mirror", func() error {
		return uc.client.RemoveSubtree(ctx, mirrorPath)
	})
	if err = op.end(err); err != nil {
		return err
	}

	if found {
		uc.log.Info("Post deleted", zap.String("owner_id", ownerID), zap.String("local_id", localID), zap.String("post_id", postID))
		uc.publish(ctx, SubjectPostDeleted, map[string]interface{}{
			"owner_id": ownerID,
			"post_id":  postID,
			"local_id": localID,
		})
	}
	return nil
}

// AddComment appends a comment and bumps the post's commentCount.
func (uc *PostUsecase) AddComment(ctx context.Context, postID, userID, text string) (entity.Comment, error) {
	if err := requireID(entity.FieldPostID, postID); err != nil {
		return entity.Comment{}, err
	}
	comment := entity.Comment{PostID: postID, UserID: userID, Text: text, CreatedAt: uc.now()}
	if err := comment.Validate(); err != nil {
		return entity.Comment{}, err
	}

	ctx, op := uc.begin(ctx, "add_comment", attribute.String("post_id", postID), attribute.String("user_id", userID))
	postPath := schema.Post(postID)
	var found bool
	err := op.step("read_post", func() (err error) {
		_, found, err = uc.client.ReadOnce(ctx, postPath)
		return err
	})
	if err != nil {
		return entity.Comment{}, op.end(err)
	}
	if !found {
		return entity.Comment{}, op.end(entity.NotFoundError(postPath))
	}

	err = op.step("write_comment", func() error {
		id, err := uc.client.AppendChild(ctx, schema.Comments(postID))
		if err != nil {
			return err
		}
		comment.ID = id
		return uc.client.WriteAll(ctx, schema.Comment(postID, id), comment.Value())
	})
	if err == nil {
		err = op.step("increment_comment_count", func() error {
			_, err := uc.aggregates.IncrementCommentCount(ctx, postID)
			return err
		})
	}
	if err = op.end(err); err != nil {
		return entity.Comment{}, err
	}

	uc.log.Info("Comment added", zap.String("post_id", postID), zap.String("comment_id", comment.ID))
	uc.publish(ctx, SubjectCommentAdded, map[string]interface{}{
		"post_id":    postID,
		"comment_id": comment.ID,
		"user_id":    userID,
	})
	return comment, nil
}

// LikePost records one like per user and returns the new likeCount.
func (uc *PostUsecase) LikePost(ctx context.Context, postID, userID string) (int, error) {
	return uc.setLike(ctx, postID, userID, true)
}

// UnlikePost removes the user's like and returns the new likeCount.
func (uc *PostUsecase) UnlikePost(ctx context.Context, postID, userID string) (int, error) {
	return uc.setLike(ctx, postID, userID, false)
}

func (uc *PostUsecase) setLike(ctx context.Context, postID, userID string, liked bool) (int, error) {
	if err := requireID(entity.FieldPostID, postID); err != nil {
		return 0, err
	}
	if err := requireID(entity.FieldUserID, userID); err != nil {
		return 0, err
	}
	name := "unlike_post"
	if liked {
		name = "like_post"
	}
	ctx, op := uc.begin(ctx, name, attribute.String("post_id", postID), attribute.String("user_id", userID))
	postPath := schema.Post(postID)
	var found bool
	err := op.step("read_post", func() (err error) {
		_, found, err = uc.client.ReadOnce(ctx, postPath)
		return err
	})
	if err != nil {
		return 0, op.end(err)
	}
	if !found {
		return 0, op.end(entity.NotFoundError(postPath))
	}
	err = op.step("write_like", func() error {
		if liked {
			return uc.client.WriteAll(ctx, schema.Like(postID, userID), store.Value{
				entity.FieldUserID:    userID,
				entity.FieldCreatedAt: store.Millis(uc.now()),
			})
		}
		return uc.client.RemoveSubtree(ctx, schema.Like(postID, userID))
	})
	var count int
	if err == nil {
		err = op.step("recount_likes", func() (err error) {
			count, err = uc.aggregates.RecountLikes(ctx, postID)
			return err
		})
	}
	if err = op.end(err); err != nil {
		return 0, err
	}
	return count, nil
}

func (uc *PostUsecase) GetPost(ctx context.Context, postID string) (entity.Post, error) {
	if err := requireID(entity.FieldPostID, postID); err != nil {
		return entity.Post{}, err
	}
	path := schema.Post(postID)
	v, ok, err := uc.client.ReadOnce(ctx, path)
	if err != nil {
		return entity.Post{}, fmt.Errorf("get post: %w", err)
	}
	if !ok {
		return entity.Post{}, entity.NotFoundError(path)
	}
	return entity.PostFromValue(postID, v), nil
}

// ListComments returns the comments of a post, oldest first.
func (uc *PostUsecase) ListComments(ctx context.Context, postID string) ([]entity.Comment, error) {
	if err := requireID(entity.FieldPostID, postID); err != nil {
		return nil, err
	}
	children, err := uc.client.Children(ctx, schema.Comments(postID))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out := make([]entity.Comment, 0, len(children))
	for key, v := range children {
		out = append(out, entity.CommentFromValue(key, v))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

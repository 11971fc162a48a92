package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/yukikurage/community-api/internal/metrics"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/repository"
	"gorm.io/gorm"
)

// LikeService implements toggle-like over posts and comments.
type LikeService struct {
	likeRepo    repository.LikeRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	metrics     *metrics.Metrics
	log         *slog.Logger
}

// NewLikeService creates a new LikeService.
func NewLikeService(likeRepo repository.LikeRepository, postRepo repository.PostRepository, commentRepo repository.CommentRepository, m *metrics.Metrics, log *slog.Logger) *LikeService {
	return &LikeService{
		likeRepo:    likeRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		metrics:     m,
		log:         log,
	}
}

// ToggleOutcome reports the state after a toggle.
type ToggleOutcome struct {
	Action     string
	IsLiked    bool
	TotalLikes int64
	LikeID     uint64
}

const (
	ActionLiked   = "liked"
	ActionUnliked = "unliked"
)

// likeTarget validates that exactly one of postID and commentID is set.
func likeTarget(postID, commentID *uint64) (repository.LikeTarget, error) {
	switch {
	case postID != nil && commentID == nil:
		return repository.LikeTarget{Kind: models.LikeTargetPost, ID: *postID}, nil
	case commentID != nil && postID == nil:
		return repository.LikeTarget{Kind: models.LikeTargetComment, ID: *commentID}, nil
	default:
		return repository.LikeTarget{}, ErrInvalidLikeTarget
	}
}

func (s *LikeService) ensureTarget(ctx context.Context, target repository.LikeTarget) error {
	var err error
	if target.Kind == models.LikeTargetComment {
		_, err = s.commentRepo.FindByID(ctx, target.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
	} else {
		_, err = s.postRepo.FindByID(ctx, target.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
	}
	if err != nil {
		return wrapInternal("load like target", err)
	}
	return nil
}

// Toggle likes the target if the actor has not, otherwise removes the like.
func (s *LikeService) Toggle(ctx context.Context, actor *AuthenticatedUser, postID, commentID *uint64) (*ToggleOutcome, error) {
	if err := CheckAccess(actor, ActionToggleLike).Err(); err != nil {
		return nil, err
	}

	target, err := likeTarget(postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureTarget(ctx, target); err != nil {
		return nil, err
	}

	result, err := s.likeRepo.Toggle(ctx, actor.ID, target)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrLikeConflict
		}
		return nil, wrapInternal("toggle like", err)
	}

	outcome := &ToggleOutcome{
		Action:     ActionUnliked,
		IsLiked:    result.Liked,
		TotalLikes: result.TotalLikes,
		LikeID:     result.LikeID,
	}
	if result.Liked {
		outcome.Action = ActionLiked
	}
	s.metrics.LikeToggled(outcome.Action)
	return outcome, nil
}

// ListForTarget lists who liked a post or a comment.
func (s *LikeService) ListForTarget(ctx context.Context, kind models.LikeTargetKind, id uint64) ([]repository.LikerView, error) {
	target := repository.LikeTarget{Kind: kind, ID: id}
	if err := s.ensureTarget(ctx, target); err != nil {
		return nil, err
	}
	views, err := s.likeRepo.ListForTarget(ctx, target)
	if err != nil {
		return nil, wrapInternal("list likes", err)
	}
	return views, nil
}

// Delete removes one of the actor's likes and returns the remaining count.
func (s *LikeService) Delete(ctx context.Context, actor *AuthenticatedUser, likeID uint64) (int64, error) {
	if actor == nil {
		return 0, ErrLoginRequired
	}

	like, err := s.likeRepo.FindByID(ctx, likeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrLikeNotFound
		}
		return 0, wrapInternal("load like", err)
	}
	if like.UserID != actor.ID {
		return 0, ErrNotOwner
	}

	remaining, err := s.likeRepo.Delete(ctx, like)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrLikeNotFound
		}
		return 0, wrapInternal("delete like", err)
	}
	s.metrics.LikeToggled(ActionUnliked)
	return remaining, nil
}

// Status reports which of the given posts and comments userID has liked.
// Only liked targets appear, keyed post_<id> or comment_<id>.
func (s *LikeService) Status(ctx context.Context, actor *AuthenticatedUser, userID uint64, postIDs, commentIDs []uint64) (map[string]bool, error) {
	if actor == nil {
		return nil, ErrLoginRequired
	}
	if actor.ID != userID {
		return nil, ErrNotSelf
	}

	status := make(map[string]bool)

	likedPosts, err := s.likeRepo.LikedIDs(ctx, userID, models.LikeTargetPost, postIDs)
	if err != nil {
		return nil, wrapInternal("load post like status", err)
	}
	for _, id := range likedPosts {
		status["post_"+strconv.FormatUint(id, 10)] = true
	}

	likedComments, err := s.likeRepo.LikedIDs(ctx, userID, models.LikeTargetComment, commentIDs)
	if err != nil {
		return nil, wrapInternal("load comment like status", err)
	}
	for _, id := range likedComments {
		status["comment_"+strconv.FormatUint(id, 10)] = true
	}

	return status, nil
}

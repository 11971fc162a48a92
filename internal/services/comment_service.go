package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/repository"
	"gorm.io/gorm"
)

// CommentService handles comment business logic.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	moderator   Moderator
	log         *slog.Logger
}

// NewCommentService creates a new CommentService. moderator may be nil.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, moderator Moderator, log *slog.Logger) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		moderator:   moderator,
		log:         log,
	}
}

func (s *CommentService) ensurePost(ctx context.Context, postID uint64) error {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return wrapInternal("load post", err)
	}
	return nil
}

func (s *CommentService) load(ctx context.Context, id uint64) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, wrapInternal("load comment", err)
	}
	return comment, nil
}

// ListByPost returns the comments on a post in posting order.
func (s *CommentService) ListByPost(ctx context.Context, viewer *AuthenticatedUser, postID uint64) ([]repository.CommentView, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	views, err := s.commentRepo.ListByPost(ctx, postID, viewerID(viewer))
	if err != nil {
		return nil, wrapInternal("list comments", err)
	}
	return views, nil
}

// Create adds a comment by a community member to an existing post.
func (s *CommentService) Create(ctx context.Context, actor *AuthenticatedUser, postID uint64, text string) (*repository.CommentView, error) {
	if err := CheckAccess(actor, ActionCreateComment).Err(); err != nil {
		return nil, err
	}

	text, err := cleanText(text, constants.MaxCommentLength)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	if err := screen(ctx, s.moderator, s.log, text); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID: postID,
		UserID: actor.ID,
		Text:   text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, wrapInternal("create comment", err)
	}

	return s.view(ctx, actor, comment.ID)
}

func (s *CommentService) view(ctx context.Context, viewer *AuthenticatedUser, id uint64) (*repository.CommentView, error) {
	view, err := s.commentRepo.FindView(ctx, id, viewerID(viewer))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, wrapInternal("load comment", err)
	}
	return view, nil
}

// Update edits a comment and marks it edited. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, actor *AuthenticatedUser, id uint64, text string) (*repository.CommentView, error) {
	if actor == nil {
		return nil, ErrLoginRequired
	}

	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.ID {
		return nil, ErrNotOwner
	}

	text, err = cleanText(text, constants.MaxCommentLength)
	if err != nil {
		return nil, err
	}
	if err := screen(ctx, s.moderator, s.log, text); err != nil {
		return nil, err
	}

	if err := s.commentRepo.UpdateText(ctx, id, text); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, wrapInternal("update comment", err)
	}
	return s.view(ctx, actor, id)
}

// Delete removes a comment and its likes. The author and the admin may delete.
func (s *CommentService) Delete(ctx context.Context, actor *AuthenticatedUser, id uint64) error {
	if actor == nil {
		return ErrLoginRequired
	}

	comment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID && !actor.IsAdmin() {
		return ErrNotOwner
	}

	if err := s.commentRepo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return wrapInternal("delete comment", err)
	}
	return nil
}

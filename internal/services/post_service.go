package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/repository"
	"github.com/yukikurage/community-api/internal/storage"
	"github.com/yukikurage/community-api/internal/utils"
	"gorm.io/gorm"
)

// ImageStore persists uploaded images by generated name.
type ImageStore interface {
	Save(prefix string, data []byte, ext string) (string, error)
	Remove(name string) error
}

// PostService handles post business logic.
type PostService struct {
	postRepo  repository.PostRepository
	images    ImageStore
	moderator Moderator
	log       *slog.Logger
}

// NewPostService creates a new PostService. moderator may be nil.
func NewPostService(postRepo repository.PostRepository, images ImageStore, moderator Moderator, log *slog.Logger) *PostService {
	return &PostService{
		postRepo:  postRepo,
		images:    images,
		moderator: moderator,
		log:       log,
	}
}

// CreatePostInput holds the fields of a new post.
type CreatePostInput struct {
	Content  string
	ImageURL *string
}

// UpdatePostInput holds the editable post fields. A nil ImageURL keeps the
// current image unless RemoveImage is set.
type UpdatePostInput struct {
	Content     string
	ImageURL    *string
	RemoveImage bool
}

func viewerID(viewer *AuthenticatedUser) uint64 {
	if viewer == nil {
		return 0
	}
	return viewer.ID
}

func cleanText(text string, max int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(text) > max {
		return "", validationError("Content must be at most %d characters", max)
	}
	return text, nil
}

// imageName accepts either a stored name or the URL returned for it.
func imageName(ref string) string {
	ref = strings.TrimSpace(ref)
	return strings.TrimPrefix(ref, constants.PostImageRoute)
}

// attachableImage resolves ref to a stored image uploaded by actor. An empty
// reference means no image.
func (s *PostService) attachableImage(ctx context.Context, actor *AuthenticatedUser, ref *string) (*string, error) {
	if ref == nil {
		return nil, nil
	}
	name := imageName(*ref)
	if name == "" {
		return nil, nil
	}
	if !storage.ValidName(name) {
		return nil, ErrInvalidImageRef
	}

	image, err := s.postRepo.FindImage(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidImageRef
		}
		return nil, wrapInternal("load image", err)
	}
	if image.UserID != actor.ID {
		return nil, ErrImageNotOwned
	}
	return &name, nil
}

// releaseImage removes the stored file once no post references it.
func (s *PostService) releaseImage(ctx context.Context, name *string) {
	if name == nil || s.images == nil {
		return
	}
	released, err := s.postRepo.ReleaseImage(ctx, *name)
	if err != nil {
		s.log.Warn("failed to release post image", "file", *name, "error", err)
		return
	}
	if !released {
		return
	}
	if err := s.images.Remove(*name); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
		s.log.Warn("failed to remove post image", "file", *name, "error", err)
	}
}

// List returns a page of posts as seen by viewer.
func (s *PostService) List(ctx context.Context, viewer *AuthenticatedUser, params utils.PaginationParams) ([]repository.PostView, int64, error) {
	views, total, err := s.postRepo.List(ctx, viewerID(viewer), params)
	if err != nil {
		return nil, 0, wrapInternal("list posts", err)
	}
	return views, total, nil
}

// Get returns one post as seen by viewer.
func (s *PostService) Get(ctx context.Context, viewer *AuthenticatedUser, id uint64) (*repository.PostView, error) {
	view, err := s.postRepo.FindView(ctx, id, viewerID(viewer))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, wrapInternal("load post", err)
	}
	return view, nil
}

// Create stores a post by a community member.
func (s *PostService) Create(ctx context.Context, actor *AuthenticatedUser, input CreatePostInput) (*repository.PostView, error) {
	if err := CheckAccess(actor, ActionCreatePost).Err(); err != nil {
		return nil, err
	}

	content, err := cleanText(input.Content, constants.MaxPostLength)
	if err != nil {
		return nil, err
	}
	if err := screen(ctx, s.moderator, s.log, content); err != nil {
		return nil, err
	}

	image, err := s.attachableImage(ctx, actor, input.ImageURL)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:   actor.ID,
		Content:  content,
		ImageURL: image,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, wrapInternal("create post", err)
	}

	s.log.Info("post created", "post_id", post.ID, "user_id", actor.ID)
	return s.Get(ctx, actor, post.ID)
}

// Update edits a post. Only the author may edit.
func (s *PostService) Update(ctx context.Context, actor *AuthenticatedUser, id uint64, input UpdatePostInput) (*repository.PostView, error) {
	if actor == nil {
		return nil, ErrLoginRequired
	}

	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, wrapInternal("load post", err)
	}
	if post.UserID != actor.ID {
		return nil, ErrNotOwner
	}

	content, err := cleanText(input.Content, constants.MaxPostLength)
	if err != nil {
		return nil, err
	}
	if err := screen(ctx, s.moderator, s.log, content); err != nil {
		return nil, err
	}

	image := post.ImageURL
	switch {
	case input.RemoveImage:
		image = nil
	case input.ImageURL != nil:
		if post.ImageURL != nil && imageName(*input.ImageURL) == *post.ImageURL {
			break
		}
		if image, err = s.attachableImage(ctx, actor, input.ImageURL); err != nil {
			return nil, err
		}
	}

	if err := s.postRepo.Update(ctx, id, content, image); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, wrapInternal("update post", err)
	}
	if post.ImageURL != nil && (image == nil || *image != *post.ImageURL) {
		s.releaseImage(ctx, post.ImageURL)
	}
	return s.Get(ctx, actor, id)
}

// Delete removes a post with its comments and likes. The author and the
// admin may delete.
func (s *PostService) Delete(ctx context.Context, actor *AuthenticatedUser, id uint64) error {
	if actor == nil {
		return ErrLoginRequired
	}

	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return wrapInternal("load post", err)
	}
	if post.UserID != actor.ID && !actor.IsAdmin() {
		return ErrNotOwner
	}

	if err := s.postRepo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPostNotFound
		}
		return wrapInternal("delete post", err)
	}

	s.releaseImage(ctx, post.ImageURL)

	s.log.Info("post deleted", "post_id", id, "actor_id", actor.ID)
	return nil
}

// UploadImage validates and stores an image for a future post and returns
// its stored name.
func (s *PostService) UploadImage(ctx context.Context, actor *AuthenticatedUser, data []byte) (string, error) {
	if err := CheckAccess(actor, ActionUploadImage).Err(); err != nil {
		return "", err
	}

	ext, _, err := storage.DetectImage(data)
	if err != nil {
		return "", err
	}
	name, err := s.images.Save(constants.PostImagePrefix, data, ext)
	if err != nil {
		return "", wrapInternal("store image", err)
	}
	if err := s.postRepo.RecordImage(ctx, &models.PostImage{Name: name, UserID: actor.ID}); err != nil {
		if rmErr := s.images.Remove(name); rmErr != nil {
			s.log.Warn("failed to remove unrecorded image", "file", name, "error", rmErr)
		}
		return "", wrapInternal("record image", err)
	}

	s.log.Info("post image uploaded", "user_id", actor.ID, "file", name)
	return name, nil
}

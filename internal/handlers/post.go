package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/dto"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/services"
	"github.com/yukikurage/community-api/internal/storage"
	"github.com/yukikurage/community-api/internal/utils"
)

// FileLocator resolves a stored file name to a path on disk.
type FileLocator interface {
	Path(name string) (string, error)
}

// PostHandler serves posts and post images.
type PostHandler struct {
	postService *services.PostService
	images      FileLocator
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(postService *services.PostService, images FileLocator) *PostHandler {
	return &PostHandler{
		postService: postService,
		images:      images,
	}
}

// ListPosts returns a page of posts, newest first.
func (h *PostHandler) ListPosts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	viewer, _ := middleware.GetUser(c)

	views, total, err := h.postService.List(c.Request.Context(), viewer, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPostListResponse(views, params, total))
}

// GetPost returns a single post.
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "post ID")
	if !ok {
		return
	}

	viewer, _ := middleware.GetUser(c)
	view, err := h.postService.Get(c.Request.Context(), viewer, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPostDTO(*view))
}

// CreatePost creates a post for the current member.
func (h *PostHandler) CreatePost(c *gin.Context) {
	type CreatePostRequest struct {
		Content  string  `json:"content"`
		ImageURL *string `json:"imageUrl"`
	}

	var req CreatePostRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	user, _ := middleware.GetUser(c)
	view, err := h.postService.Create(c.Request.Context(), user, services.CreatePostInput{
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToPostDTO(*view))
}

// UpdatePost edits the caller's post.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "post ID")
	if !ok {
		return
	}

	type UpdatePostRequest struct {
		Content     string  `json:"content"`
		ImageURL    *string `json:"imageUrl"`
		RemoveImage bool    `json:"removeImage"`
	}

	var req UpdatePostRequest
	if !bindJSON(c, &req, "Invalid request body") {
		return
	}

	user, _ := middleware.GetUser(c)
	view, err := h.postService.Update(c.Request.Context(), user, id, services.UpdatePostInput{
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		RemoveImage: req.RemoveImage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPostDTO(*view))
}

// DeletePost deletes a post with its comments and likes.
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "post ID")
	if !ok {
		return
	}

	user, _ := middleware.GetUser(c)
	if err := h.postService.Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Post deleted successfully",
	})
}

// UploadImage stores one image for a later post.
func (h *PostHandler) UploadImage(c *gin.Context) {
	data, err := readUpload(c, constants.UploadFieldImage)
	if err != nil {
		respondError(c, err)
		return
	}

	user, _ := middleware.GetUser(c)
	name, err := h.postService.UploadImage(c.Request.Context(), user, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"imageName": name,
		"imageUrl":  dto.PostImageURL(&name),
	})
}

// GetImage streams a stored post image.
func (h *PostHandler) GetImage(c *gin.Context) {
	serveStoredFile(c, h.images, c.Param("filename"), "Image not found")
}

func serveStoredFile(c *gin.Context, files FileLocator, name, notFound string) {
	path, err := files.Path(name)
	switch {
	case err == nil:
		c.Header("X-Content-Type-Options", "nosniff")
		c.File(path)
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrFileNotFound):
		apierrors.NotFound(c, notFound)
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

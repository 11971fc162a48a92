package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/dto"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/models"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestPostHandler_MembershipGate(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodPost, "/posts", map[string]string{"content": "hello"}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	outsider := env.createUser(t)
	w = env.do(t, http.MethodPost, "/posts", map[string]string{"content": "hello"}, env.login(t, outsider.Email))
	require.Equal(t, http.StatusForbidden, w.Code)
	apiErr := decode[apierrors.APIError](t, w)
	require.Equal(t, apierrors.ErrCodeMembershipRequired, apiErr.Code)

	_, cookies := env.member(t)
	w = env.do(t, http.MethodPost, "/posts", map[string]string{"content": "hello"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestPostHandler_Lifecycle(t *testing.T) {
	env := setupTestEnv(t)
	author, cookies := env.member(t)
	_, otherCookies := env.member(t)

	w := env.do(t, http.MethodPost, "/posts", map[string]string{"content": "  first post  "}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[dto.PostDTO](t, w)
	require.Equal(t, "first post", created.Content)
	require.Equal(t, author.ID, created.Author.ID)

	w = env.do(t, http.MethodPost, "/posts", map[string]string{"content": "   "}, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)

	path := fmt.Sprintf("/posts/%d", created.ID)

	w = env.do(t, http.MethodPut, path, map[string]string{"content": "hijacked"}, otherCookies)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, path, map[string]string{"content": "edited"}, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "edited", decode[dto.PostDTO](t, w).Content)

	w = env.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodDelete, path, nil, otherCookies)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodDelete, path, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/posts/abc", nil, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostHandler_ListWithLikes(t *testing.T) {
	env := setupTestEnv(t)
	_, cookies := env.member(t)

	var ids []uint64
	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/posts", map[string]string{"content": fmt.Sprintf("post %d", i)}, cookies)
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, decode[dto.PostDTO](t, w).ID)
	}

	w := env.do(t, http.MethodPost, "/likes/toggle", map[string]uint64{"postId": ids[0]}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/posts?page=1&limit=2", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[dto.PostListResponse](t, w)
	require.Len(t, page.Posts, 2)
	require.EqualValues(t, 3, page.Pagination.Total)
	require.Equal(t, ids[2], page.Posts[0].ID)

	w = env.do(t, http.MethodGet, "/posts?page=2&limit=2", nil, cookies)
	page = decode[dto.PostListResponse](t, w)
	require.Len(t, page.Posts, 1)
	require.Equal(t, ids[0], page.Posts[0].ID)
	require.True(t, page.Posts[0].IsLiked)
	require.EqualValues(t, 1, page.Posts[0].LikeCount)

	// Anonymous readers never see liked flags.
	w = env.do(t, http.MethodGet, "/posts?page=2&limit=2", nil, nil)
	page = decode[dto.PostListResponse](t, w)
	require.False(t, page.Posts[0].IsLiked)
}

func TestPostHandler_UploadImage(t *testing.T) {
	env := setupTestEnv(t)
	_, cookies := env.member(t)

	w := env.upload(t, "/posts/upload-image", constants.UploadFieldImage, pngHeader, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	uploaded := decode[map[string]string](t, w)
	require.True(t, strings.HasPrefix(uploaded["imageName"], constants.PostImagePrefix+"-"))
	require.Equal(t, "/posts/images/"+uploaded["imageName"], uploaded["imageUrl"])

	w = env.do(t, http.MethodGet, uploaded["imageUrl"], nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, pngHeader, w.Body.Bytes())

	w = env.do(t, http.MethodPost, "/posts", map[string]string{
		"content":  "with picture",
		"imageUrl": uploaded["imageName"],
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[dto.PostDTO](t, w)
	require.NotNil(t, post.ImageURL)
	require.Equal(t, uploaded["imageUrl"], *post.ImageURL)

	w = env.do(t, http.MethodGet, "/posts/images/missing.png", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/posts/images/post-1700000000-0a1b2c3d.png", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostHandler_ImageReferences(t *testing.T) {
	env := setupTestEnv(t)
	_, cookies := env.member(t)
	_, otherCookies := env.member(t)

	w := env.upload(t, "/posts/upload-image", constants.UploadFieldImage, pngHeader, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	uploaded := decode[map[string]string](t, w)

	// The returned URL is accepted and stored without a doubled prefix.
	w = env.do(t, http.MethodPost, "/posts", map[string]string{
		"content":  "by url",
		"imageUrl": uploaded["imageUrl"],
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[dto.PostDTO](t, w)
	require.NotNil(t, post.ImageURL)
	require.Equal(t, uploaded["imageUrl"], *post.ImageURL)

	w = env.do(t, http.MethodPost, "/posts", map[string]string{
		"content":  "borrowed",
		"imageUrl": uploaded["imageName"],
	}, otherCookies)
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/posts", map[string]string{
		"content":  "traversal",
		"imageUrl": "../../etc/passwd",
	}, otherCookies)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var count int64
	require.NoError(t, env.db.Model(&models.Post{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestPostHandler_UploadRejections(t *testing.T) {
	env := setupTestEnv(t)
	_, cookies := env.member(t)

	tests := []struct {
		name   string
		field  string
		data   []byte
		status int
		code   string
	}{
		{
			name:   "not an image",
			field:  constants.UploadFieldImage,
			data:   []byte("just some text"),
			status: http.StatusBadRequest,
			code:   apierrors.ErrCodeUnsupportedMedia,
		},
		{
			name:   "wrong field",
			field:  "file",
			data:   pngHeader,
			status: http.StatusBadRequest,
			code:   apierrors.ErrCodeNoFile,
		},
		{
			name:   "too large",
			field:  constants.UploadFieldImage,
			data:   append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, constants.MaxUploadSize)...),
			status: http.StatusRequestEntityTooLarge,
			code:   apierrors.ErrCodeFileTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.upload(t, "/posts/upload-image", tt.field, tt.data, cookies)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			apiErr := decode[apierrors.APIError](t, w)
			require.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestCommentHandler_Lifecycle(t *testing.T) {
	env := setupTestEnv(t)
	author, cookies := env.member(t)
	post := env.createPost(t, author.ID)

	w := env.do(t, http.MethodPost, "/comments", map[string]any{"postId": post.ID, "text": "nice"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comment := decode[dto.CommentDTO](t, w)
	require.False(t, comment.Edited)

	w = env.do(t, http.MethodPost, "/comments", map[string]any{"postId": post.ID + 100, "text": "lost"}, cookies)
	require.Equal(t, http.StatusNotFound, w.Code)

	path := fmt.Sprintf("/comments/%d", comment.ID)
	w = env.do(t, http.MethodPut, path, map[string]string{"text": "nicer"}, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[dto.CommentDTO](t, w)
	require.True(t, updated.Edited)
	require.Equal(t, "nicer", updated.Text)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/comments/post/%d", post.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[map[string][]dto.CommentDTO](t, w)
	require.Len(t, listed["comments"], 1)

	w = env.do(t, http.MethodDelete, path, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/comments/post/%d", post.ID), nil, nil)
	listed = decode[map[string][]dto.CommentDTO](t, w)
	require.Empty(t, listed["comments"])
}

func TestLikeHandler_ToggleAndStatus(t *testing.T) {
	env := setupTestEnv(t)
	user, cookies := env.member(t)
	post := env.createPost(t, user.ID)

	w := env.do(t, http.MethodPost, "/likes/toggle", map[string]uint64{"postId": post.ID}, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	liked := decode[dto.ToggleLikeResponse](t, w)
	require.Equal(t, "liked", liked.Action)
	require.True(t, liked.IsLiked)
	require.EqualValues(t, 1, liked.TotalLikes)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/likes/user/%d/status?postIds=%d,%d", user.ID, post.ID, post.ID+1), nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, fmt.Sprintf(`{"status":{"post_%d":true}}`, post.ID), w.Body.String())

	w = env.do(t, http.MethodGet, fmt.Sprintf("/likes/post/%d", post.ID), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.EqualValues(t, 1, decode[dto.LikeListResponse](t, w).Total)

	w = env.do(t, http.MethodPost, "/likes/toggle", map[string]uint64{"postId": post.ID}, cookies)
	unliked := decode[dto.ToggleLikeResponse](t, w)
	require.Equal(t, "unliked", unliked.Action)
	require.False(t, unliked.IsLiked)
	require.Zero(t, unliked.TotalLikes)

	w = env.do(t, http.MethodPost, "/likes/toggle", map[string]any{}, cookies)
	require.Equal(t, http.StatusBadRequest, w.Code)

	_, otherCookies := env.member(t)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/likes/user/%d/status?postIds=%d", user.ID, post.ID), nil, otherCookies)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func (e *testEnv) createPost(t *testing.T, authorID uint64) *models.Post {
	t.Helper()
	post := &models.Post{UserID: authorID, Content: "seeded post"}
	require.NoError(t, e.db.Create(post).Error)
	return post
}

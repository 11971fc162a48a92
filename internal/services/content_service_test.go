package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/community-api/internal/logger"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/repository"
	"github.com/yukikurage/community-api/internal/storage"
	"github.com/yukikurage/community-api/internal/testutil"
	"github.com/yukikurage/community-api/internal/utils"
	"gorm.io/gorm"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type stubModerator struct {
	flagged bool
	err     error
}

func (m stubModerator) Flagged(context.Context, string) (bool, error) {
	return m.flagged, m.err
}

type ContentServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	images   *storage.LocalStore
	imageDir string
	posts    *PostService
	comments *CommentService
	likes    *LikeService

	admin    *AuthenticatedUser
	member   *AuthenticatedUser
	other    *AuthenticatedUser
	outsider *AuthenticatedUser
}

func (s *ContentServiceTestSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.ctx = context.Background()

	root := s.T().TempDir()
	images, err := storage.NewLocalStore(root, "posts")
	s.Require().NoError(err)
	s.images = images
	s.imageDir = filepath.Join(root, "posts")

	postRepo := repository.NewPostRepository(s.db)
	commentRepo := repository.NewCommentRepository(s.db)
	log := logger.Discard()
	s.posts = NewPostService(postRepo, s.images, nil, log)
	s.comments = NewCommentService(commentRepo, postRepo, nil, log)
	s.likes = NewLikeService(repository.NewLikeRepository(s.db), postRepo, commentRepo, nil, log)

	community, admin := testutil.CreateCommunity(s.T(), s.db)
	s.admin = newAuthenticatedUser(admin)
	s.member = newAuthenticatedUser(testutil.CreateUser(s.T(), s.db, testutil.AsMember(community.ID)))
	s.other = newAuthenticatedUser(testutil.CreateUser(s.T(), s.db, testutil.AsMember(community.ID)))
	s.outsider = newAuthenticatedUser(testutil.CreateUser(s.T(), s.db))
}

func (s *ContentServiceTestSuite) createPost(actor *AuthenticatedUser, content string) *repository.PostView {
	post, err := s.posts.Create(s.ctx, actor, CreatePostInput{Content: content})
	s.Require().NoError(err)
	return post
}

func (s *ContentServiceTestSuite) count(model interface{}, query string, args ...interface{}) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func (s *ContentServiceTestSuite) TestCreatePostJoinsAuthor() {
	post := s.createPost(s.member, "  Hello community  ")
	s.Equal("Hello community", post.Content)
	s.Equal(s.member.ID, post.UserID)
	s.Equal(s.member.FirstName, post.FirstName)
	s.Equal(s.member.LastName, post.LastName)
	s.Equal("Engineer", post.JobTitle)
	s.Zero(post.LikeCount)
}

func (s *ContentServiceTestSuite) TestCreatePostGate() {
	_, err := s.posts.Create(s.ctx, nil, CreatePostInput{Content: "hi"})
	s.ErrorIs(err, ErrLoginRequired)

	_, err = s.posts.Create(s.ctx, s.outsider, CreatePostInput{Content: "hi"})
	s.ErrorIs(err, ErrCommunityRequired)

	_, err = s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "   "})
	s.ErrorIs(err, ErrEmptyContent)

	_, err = s.posts.Create(s.ctx, s.member, CreatePostInput{Content: strings.Repeat("a", 5001)})
	s.ErrorIs(err, ErrValidation)

	s.Zero(s.count(&models.Post{}, "1 = 1"))
}

func (s *ContentServiceTestSuite) TestCreatePostModeration() {
	s.posts.moderator = stubModerator{flagged: true}
	_, err := s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "flagged"})
	s.ErrorIs(err, ErrContentRejected)

	s.posts.moderator = stubModerator{err: errors.New("unavailable")}
	_, err = s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "allowed"})
	s.NoError(err)
}

func (s *ContentServiceTestSuite) TestListPosts() {
	first := s.createPost(s.member, "first")
	s.createPost(s.other, "second")
	_, err := s.likes.Toggle(s.ctx, s.other, &first.ID, nil)
	s.Require().NoError(err)

	views, total, err := s.posts.List(s.ctx, s.other, utils.PaginationParams{Page: 1, Limit: 10})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(views, 2)
	s.Equal("second", views[0].Content)
	s.Equal(int64(1), views[1].LikeCount)
	s.True(views[1].LikedByViewer)
	s.False(views[0].LikedByViewer)
}

func (s *ContentServiceTestSuite) TestUpdatePostOwnerOnly() {
	post := s.createPost(s.member, "original")

	_, err := s.posts.Update(s.ctx, s.other, post.ID, UpdatePostInput{Content: "hijacked"})
	s.ErrorIs(err, ErrNotOwner)

	updated, err := s.posts.Update(s.ctx, s.member, post.ID, UpdatePostInput{Content: "edited"})
	s.Require().NoError(err)
	s.Equal("edited", updated.Content)

	_, err = s.posts.Update(s.ctx, s.member, post.ID+100, UpdatePostInput{Content: "x"})
	s.ErrorIs(err, ErrPostNotFound)
}

func (s *ContentServiceTestSuite) TestDeletePostCascades() {
	post := s.createPost(s.member, "doomed")
	comment, err := s.comments.Create(s.ctx, s.other, post.ID, "reply")
	s.Require().NoError(err)
	_, err = s.likes.Toggle(s.ctx, s.other, &post.ID, nil)
	s.Require().NoError(err)
	_, err = s.likes.Toggle(s.ctx, s.member, nil, &comment.ID)
	s.Require().NoError(err)

	s.ErrorIs(s.posts.Delete(s.ctx, s.other, post.ID), ErrNotOwner)
	s.Require().NoError(s.posts.Delete(s.ctx, s.member, post.ID))

	s.Zero(s.count(&models.Post{}, "id = ?", post.ID))
	s.Zero(s.count(&models.Comment{}, "post_id = ?", post.ID))
	s.Zero(s.count(&models.Like{}, "1 = 1"))

	s.ErrorIs(s.posts.Delete(s.ctx, s.member, post.ID), ErrPostNotFound)
}

func (s *ContentServiceTestSuite) TestAdminMayDeleteAnyPost() {
	post := s.createPost(s.member, "moderated")
	s.NoError(s.posts.Delete(s.ctx, s.admin, post.ID))
}

func (s *ContentServiceTestSuite) TestUploadImageAndDeleteRemovesFile() {
	_, err := s.posts.UploadImage(s.ctx, s.outsider, pngHeader)
	s.ErrorIs(err, ErrCommunityRequired)

	_, err = s.posts.UploadImage(s.ctx, s.member, []byte("plain text, not an image"))
	s.ErrorIs(err, storage.ErrUnsupportedImageType)

	name, err := s.posts.UploadImage(s.ctx, s.member, pngHeader)
	s.Require().NoError(err)
	s.True(strings.HasPrefix(name, "post-"))
	s.True(strings.HasSuffix(name, ".png"))
	_, err = os.Stat(filepath.Join(s.imageDir, name))
	s.Require().NoError(err)

	post, err := s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "with image", ImageURL: &name})
	s.Require().NoError(err)
	s.Require().NotNil(post.ImageURL)
	s.Equal(name, *post.ImageURL)

	s.Require().NoError(s.posts.Delete(s.ctx, s.member, post.ID))
	_, err = os.Stat(filepath.Join(s.imageDir, name))
	s.True(os.IsNotExist(err))
}

func (s *ContentServiceTestSuite) imageExists(name string) bool {
	_, err := os.Stat(filepath.Join(s.imageDir, name))
	return err == nil
}

func (s *ContentServiceTestSuite) TestAttachImageRequiresUploader() {
	name, err := s.posts.UploadImage(s.ctx, s.member, pngHeader)
	s.Require().NoError(err)

	_, err = s.posts.Create(s.ctx, s.other, CreatePostInput{Content: "borrowed", ImageURL: &name})
	s.ErrorIs(err, ErrImageNotOwned)
	s.ErrorIs(err, ErrForbidden)

	own := s.createPost(s.other, "mine")
	_, err = s.posts.Update(s.ctx, s.other, own.ID, UpdatePostInput{Content: "mine", ImageURL: &name})
	s.ErrorIs(err, ErrImageNotOwned)

	s.True(s.imageExists(name))
	s.Zero(s.count(&models.Post{}, "image_url IS NOT NULL"))
}

func (s *ContentServiceTestSuite) TestAttachImageRejectsForeignReferences() {
	for _, ref := range []string{
		"../../etc/passwd",
		"/posts/images/../../etc/passwd",
		"https://example.com/cat.png",
		"post-1-abcdef.png",
	} {
		_, err := s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "bad ref", ImageURL: &ref})
		s.ErrorIs(err, ErrInvalidImageRef, ref)
	}
	s.Zero(s.count(&models.Post{}, "1 = 1"))
}

func (s *ContentServiceTestSuite) TestAttachImageAcceptsReturnedURL() {
	name, err := s.posts.UploadImage(s.ctx, s.member, pngHeader)
	s.Require().NoError(err)

	ref := "/posts/images/" + name
	post, err := s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "by url", ImageURL: &ref})
	s.Require().NoError(err)
	s.Require().NotNil(post.ImageURL)
	s.Equal(name, *post.ImageURL)

	// Re-sending the current image keeps it.
	updated, err := s.posts.Update(s.ctx, s.member, post.ID, UpdatePostInput{Content: "edited", ImageURL: &ref})
	s.Require().NoError(err)
	s.Require().NotNil(updated.ImageURL)
	s.Equal(name, *updated.ImageURL)
	s.True(s.imageExists(name))
}

func (s *ContentServiceTestSuite) TestSharedImageKeptUntilLastPostDeleted() {
	name, err := s.posts.UploadImage(s.ctx, s.member, pngHeader)
	s.Require().NoError(err)

	first, err := s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "one", ImageURL: &name})
	s.Require().NoError(err)
	second, err := s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "two", ImageURL: &name})
	s.Require().NoError(err)

	s.Require().NoError(s.posts.Delete(s.ctx, s.admin, first.ID))
	s.True(s.imageExists(name))

	s.Require().NoError(s.posts.Delete(s.ctx, s.member, second.ID))
	s.False(s.imageExists(name))
	s.Zero(s.count(&models.PostImage{}, "name = ?", name))
}

func (s *ContentServiceTestSuite) TestUpdateReplacingImageReleasesOld() {
	oldName, err := s.posts.UploadImage(s.ctx, s.member, pngHeader)
	s.Require().NoError(err)
	newName, err := s.posts.UploadImage(s.ctx, s.member, pngHeader)
	s.Require().NoError(err)

	post, err := s.posts.Create(s.ctx, s.member, CreatePostInput{Content: "v1", ImageURL: &oldName})
	s.Require().NoError(err)

	_, err = s.posts.Update(s.ctx, s.member, post.ID, UpdatePostInput{Content: "v2", ImageURL: &newName})
	s.Require().NoError(err)
	s.False(s.imageExists(oldName))
	s.True(s.imageExists(newName))

	_, err = s.posts.Update(s.ctx, s.member, post.ID, UpdatePostInput{Content: "v3", RemoveImage: true})
	s.Require().NoError(err)
	s.False(s.imageExists(newName))
}

func (s *ContentServiceTestSuite) TestCommentLifecycle() {
	post := s.createPost(s.member, "discuss")

	_, err := s.comments.Create(s.ctx, s.outsider, post.ID, "let me in")
	s.ErrorIs(err, ErrCommunityRequired)
	_, err = s.comments.Create(s.ctx, s.other, post.ID+100, "lost")
	s.ErrorIs(err, ErrPostNotFound)

	comment, err := s.comments.Create(s.ctx, s.other, post.ID, "first!")
	s.Require().NoError(err)
	s.False(comment.Edited)
	s.Equal(s.other.FirstName, comment.FirstName)

	_, err = s.comments.Update(s.ctx, s.member, comment.ID, "not mine")
	s.ErrorIs(err, ErrNotOwner)

	edited, err := s.comments.Update(s.ctx, s.other, comment.ID, "second!")
	s.Require().NoError(err)
	s.True(edited.Edited)
	s.Equal("second!", edited.Text)

	list, err := s.comments.ListByPost(s.ctx, nil, post.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)

	_, err = s.comments.ListByPost(s.ctx, nil, post.ID+100)
	s.ErrorIs(err, ErrPostNotFound)

	_, err = s.likes.Toggle(s.ctx, s.member, nil, &comment.ID)
	s.Require().NoError(err)
	s.ErrorIs(s.comments.Delete(s.ctx, s.member, comment.ID), ErrNotOwner)
	s.Require().NoError(s.comments.Delete(s.ctx, s.admin, comment.ID))
	s.Zero(s.count(&models.Like{}, "comment_id = ?", comment.ID))

	_, err = s.comments.Update(s.ctx, s.other, comment.ID, "gone")
	s.ErrorIs(err, ErrCommentNotFound)
}

func (s *ContentServiceTestSuite) TestToggleLikeTwiceRestoresCount() {
	post := s.createPost(s.member, "like me")

	liked, err := s.likes.Toggle(s.ctx, s.other, &post.ID, nil)
	s.Require().NoError(err)
	s.Equal(ActionLiked, liked.Action)
	s.True(liked.IsLiked)
	s.Equal(int64(1), liked.TotalLikes)

	unliked, err := s.likes.Toggle(s.ctx, s.other, &post.ID, nil)
	s.Require().NoError(err)
	s.Equal(ActionUnliked, unliked.Action)
	s.False(unliked.IsLiked)
	s.Equal(int64(0), unliked.TotalLikes)
}

func (s *ContentServiceTestSuite) TestToggleLikeValidation() {
	post := s.createPost(s.member, "target")
	comment, err := s.comments.Create(s.ctx, s.member, post.ID, "reply")
	s.Require().NoError(err)

	_, err = s.likes.Toggle(s.ctx, s.member, nil, nil)
	s.ErrorIs(err, ErrInvalidLikeTarget)
	_, err = s.likes.Toggle(s.ctx, s.member, &post.ID, &comment.ID)
	s.ErrorIs(err, ErrInvalidLikeTarget)

	missing := post.ID + 100
	_, err = s.likes.Toggle(s.ctx, s.member, &missing, nil)
	s.ErrorIs(err, ErrPostNotFound)
	_, err = s.likes.Toggle(s.ctx, s.member, nil, &missing)
	s.ErrorIs(err, ErrCommentNotFound)

	_, err = s.likes.Toggle(s.ctx, s.outsider, &post.ID, nil)
	s.ErrorIs(err, ErrCommunityRequired)
	_, err = s.likes.Toggle(s.ctx, nil, &post.ID, nil)
	s.ErrorIs(err, ErrLoginRequired)

	s.Zero(s.count(&models.Like{}, "1 = 1"))
}

func (s *ContentServiceTestSuite) TestConcurrentLikesFromDifferentUsers() {
	post := s.createPost(s.member, "popular")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, actor := range []*AuthenticatedUser{s.member, s.other} {
		wg.Add(1)
		go func(i int, actor *AuthenticatedUser) {
			defer wg.Done()
			_, errs[i] = s.likes.Toggle(s.ctx, actor, &post.ID, nil)
		}(i, actor)
	}
	wg.Wait()

	s.NoError(errs[0])
	s.NoError(errs[1])
	s.Equal(int64(2), s.count(&models.Like{}, "post_id = ?", post.ID))
}

func (s *ContentServiceTestSuite) TestLikeListsDeleteAndStatus() {
	post := s.createPost(s.member, "status")
	comment, err := s.comments.Create(s.ctx, s.member, post.ID, "reply")
	s.Require().NoError(err)
	untouched := s.createPost(s.member, "ignored")

	postLike, err := s.likes.Toggle(s.ctx, s.other, &post.ID, nil)
	s.Require().NoError(err)
	_, err = s.likes.Toggle(s.ctx, s.other, nil, &comment.ID)
	s.Require().NoError(err)

	likers, err := s.likes.ListForTarget(s.ctx, models.LikeTargetPost, post.ID)
	s.Require().NoError(err)
	s.Require().Len(likers, 1)
	s.Equal(s.other.ID, likers[0].UserID)

	status, err := s.likes.Status(s.ctx, s.other, s.other.ID, []uint64{post.ID, untouched.ID}, []uint64{comment.ID})
	s.Require().NoError(err)
	s.Equal(map[string]bool{
		"post_" + strconv.FormatUint(post.ID, 10):       true,
		"comment_" + strconv.FormatUint(comment.ID, 10): true,
	}, status)

	_, err = s.likes.Status(s.ctx, s.member, s.other.ID, nil, nil)
	s.ErrorIs(err, ErrNotSelf)

	_, err = s.likes.Delete(s.ctx, s.member, postLike.LikeID)
	s.ErrorIs(err, ErrNotOwner)
	remaining, err := s.likes.Delete(s.ctx, s.other, postLike.LikeID)
	s.Require().NoError(err)
	s.Zero(remaining)
	_, err = s.likes.Delete(s.ctx, s.other, postLike.LikeID)
	s.ErrorIs(err, ErrLikeNotFound)
}

func TestContentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ContentServiceTestSuite))
}

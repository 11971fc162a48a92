package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/testutil"
	"gorm.io/gorm"
)

func TestLikeRepository_ToggleTwiceRestoresCount(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, user.ID, "hello")
	target := LikeTarget{Kind: models.LikeTargetPost, ID: post.ID}

	first, err := repo.Toggle(ctx, user.ID, target)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int64(1), first.TotalLikes)
	assert.NotZero(t, first.LikeID)

	second, err := repo.Toggle(ctx, user.ID, target)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, int64(0), second.TotalLikes)
	assert.Equal(t, first.LikeID, second.LikeID)
}

func TestLikeRepository_ToggleComment(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, user.ID, "hello")
	comment := testutil.CreateComment(t, db, post.ID, user.ID, "first")

	res, err := repo.Toggle(ctx, user.ID, LikeTarget{Kind: models.LikeTargetComment, ID: comment.ID})
	require.NoError(t, err)
	assert.True(t, res.Liked)

	var like models.Like
	require.NoError(t, db.First(&like, res.LikeID).Error)
	assert.Nil(t, like.PostID)
	require.NotNil(t, like.CommentID)
	assert.Equal(t, comment.ID, *like.CommentID)
}

func TestLikeRepository_ConcurrentDifferentUsers(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, author.ID, "popular")
	target := LikeTarget{Kind: models.LikeTargetPost, ID: post.ID}

	users := []*models.User{testutil.CreateUser(t, db), testutil.CreateUser(t, db)}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, err := repo.Toggle(ctx, id, target)
			assert.NoError(t, err)
		}(u.ID)
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestLikeRepository_UniqueAndSingleTargetConstraints(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db)
	post := testutil.CreatePost(t, db, user.ID, "p")
	comment := testutil.CreateComment(t, db, post.ID, user.ID, "c")

	require.NoError(t, db.Create(&models.Like{UserID: user.ID, PostID: &post.ID}).Error)

	err := db.Create(&models.Like{UserID: user.ID, PostID: &post.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = db.Create(&models.Like{UserID: user.ID, PostID: &post.ID, CommentID: &comment.ID}).Error
	assert.Error(t, err)

	err = db.Create(&models.Like{UserID: user.ID}).Error
	assert.Error(t, err)
}

func TestLikeRepository_DeleteListAndLikedIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db)
	bob := testutil.CreateUser(t, db)
	p1 := testutil.CreatePost(t, db, alice.ID, "one")
	p2 := testutil.CreatePost(t, db, alice.ID, "two")
	p3 := testutil.CreatePost(t, db, alice.ID, "three")

	r1, err := repo.Toggle(ctx, bob.ID, LikeTarget{Kind: models.LikeTargetPost, ID: p1.ID})
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, alice.ID, LikeTarget{Kind: models.LikeTargetPost, ID: p1.ID})
	require.NoError(t, err)
	_, err = repo.Toggle(ctx, bob.ID, LikeTarget{Kind: models.LikeTargetPost, ID: p3.ID})
	require.NoError(t, err)

	likers, err := repo.ListForTarget(ctx, LikeTarget{Kind: models.LikeTargetPost, ID: p1.ID})
	require.NoError(t, err)
	assert.Len(t, likers, 2)

	ids, err := repo.LikedIDs(ctx, bob.ID, models.LikeTargetPost, []uint64{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{p1.ID, p3.ID}, ids)

	like, err := repo.FindByID(ctx, r1.LikeID)
	require.NoError(t, err)
	remaining, err := repo.Delete(ctx, like)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	_, err = repo.Delete(ctx, like)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

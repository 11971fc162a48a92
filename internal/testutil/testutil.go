// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/community-api/internal/database"
	"github.com/yukikurage/community-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database. The pool is pinned to
// one connection so every query sees the same memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	return db
}

var userSeq atomic.Uint64

// UserOption mutates a fixture user before insert.
type UserOption func(*models.User)

// WithPassword stores a MinCost bcrypt hash of password.
func WithPassword(password string) UserOption {
	return func(u *models.User) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		h := string(hash)
		u.PasswordHash = &h
	}
}

// AsMember admits the user to the community.
func AsMember(communityID uint64) UserOption {
	return func(u *models.User) {
		id := communityID
		u.CommunityID = &id
	}
}

// AsAdmin grants the admin permission.
func AsAdmin() UserOption {
	return func(u *models.User) {
		u.PermissionLevel = models.PermissionAdmin
	}
}

// WithEmail overrides the generated email.
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// CreateUser inserts a user with unique generated identity fields.
func CreateUser(t *testing.T, db *gorm.DB, opts ...UserOption) *models.User {
	t.Helper()

	n := userSeq.Add(1)
	user := &models.User{
		FirstName:       "User",
		LastName:        fmt.Sprintf("Number%d", n),
		Email:           fmt.Sprintf("user%d@example.com", n),
		AuthProvider:    models.AuthProviderLocal,
		Company:         "Acme",
		JobTitle:        "Engineer",
		Industry:        "Technology",
		PermissionLevel: models.PermissionUser,
		JoinedAt:        time.Now(),
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCommunity inserts the singleton community with a fresh admin member.
func CreateCommunity(t *testing.T, db *gorm.DB) (*models.Community, *models.User) {
	t.Helper()

	admin := CreateUser(t, db, AsAdmin())
	community := &models.Community{
		Name:        "M-Connect",
		Description: "Test community",
		AdminUserID: &admin.ID,
	}
	require.NoError(t, db.Create(community).Error)
	require.NoError(t, db.Model(admin).Update("community_id", community.ID).Error)
	admin.CommunityID = &community.ID

	return community, admin
}

// CreatePost inserts a post by author.
func CreatePost(t *testing.T, db *gorm.DB, authorID uint64, content string) *models.Post {
	t.Helper()
	post := &models.Post{UserID: authorID, Content: content}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateComment inserts a comment on a post.
func CreateComment(t *testing.T, db *gorm.DB, postID, authorID uint64, text string) *models.Comment {
	t.Helper()
	comment := &models.Comment{PostID: postID, UserID: authorID, Text: text}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

package database

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/yukikurage/community-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions configures the bootstrap admin and the community row.
type SeedOptions struct {
	AdminEmail           string
	AdminPassword        string // generated when empty
	CommunityName        string
	CommunityDescription string
}

// EnsureCommunity makes sure the singleton community and its admin exist and
// that the admin is a member. It is idempotent.
func EnsureCommunity(ctx context.Context, db *gorm.DB, opts SeedOptions, log *slog.Logger) (*models.Community, error) {
	var community models.Community

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin, err := ensureAdmin(tx, opts, log)
		if err != nil {
			return err
		}

		err = tx.Order("id").First(&community).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			community = models.Community{
				Name:        opts.CommunityName,
				Description: opts.CommunityDescription,
				AdminUserID: &admin.ID,
			}
			if err := tx.Create(&community).Error; err != nil {
				return fmt.Errorf("insert community: %w", err)
			}
			log.Info("community created", "name", community.Name)
		case err != nil:
			return fmt.Errorf("load community: %w", err)
		case community.AdminUserID == nil:
			if err := tx.Model(&community).Update("admin_user_id", admin.ID).Error; err != nil {
				return fmt.Errorf("assign community admin: %w", err)
			}
		}

		if admin.CommunityID == nil || *admin.CommunityID != community.ID {
			if err := tx.Model(admin).Update("community_id", community.ID).Error; err != nil {
				return fmt.Errorf("admit admin: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func ensureAdmin(tx *gorm.DB, opts SeedOptions, log *slog.Logger) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))

	var admin models.User
	err := tx.Where("email = ?", email).First(&admin).Error
	if err == nil {
		if !admin.IsAdmin() {
			if err := tx.Model(&admin).Update("permission_level", models.PermissionAdmin).Error; err != nil {
				return nil, fmt.Errorf("promote admin: %w", err)
			}
		}
		log.Info("seed admin already exists", "email", email)
		return &admin, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load admin: %w", err)
	}

	password := opts.AdminPassword
	if password == "" {
		password, err = generatePassword()
		if err != nil {
			return nil, fmt.Errorf("generate seed password: %w", err)
		}
		log.Warn("generated seed admin password, set ADMIN_PASSWORD to choose one", "email", email, "password", password)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	hashStr := string(hash)

	admin = models.User{
		FirstName:       "Community",
		LastName:        "Admin",
		Email:           email,
		PasswordHash:    &hashStr,
		AuthProvider:    models.AuthProviderLocal,
		Company:         "Unknown",
		JobTitle:        "Administrator",
		Industry:        "Other",
		PermissionLevel: models.PermissionAdmin,
		JoinedAt:        time.Now(),
	}
	if err := tx.Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("insert seed admin: %w", err)
	}

	log.Info("seed admin created", "email", email)
	return &admin, nil
}

func generatePassword() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

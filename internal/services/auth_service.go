package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/metrics"
	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/repository"
	"github.com/yukikurage/community-api/internal/session"
	"github.com/yukikurage/community-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PasswordHasher hashes and verifies secrets at rest.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher. Tests use bcrypt.MinCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// AuthenticatedUser is the identity resolved for a request. It is only
// produced by the auth service from a fresh user record.
type AuthenticatedUser struct {
	ID              uint64
	Email           string
	FirstName       string
	LastName        string
	PermissionLevel models.PermissionLevel
	CommunityID     *uint64
}

// IsAdmin reports whether the user holds the admin permission.
func (u *AuthenticatedUser) IsAdmin() bool {
	return u != nil && u.PermissionLevel == models.PermissionAdmin
}

func newAuthenticatedUser(user *models.User) *AuthenticatedUser {
	return &AuthenticatedUser{
		ID:              user.ID,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		PermissionLevel: user.PermissionLevel,
		CommunityID:     user.CommunityID,
	}
}

// AuthService owns the session store and the logout tombstones.
type AuthService struct {
	userRepo   repository.UserRepository
	sessions   session.Store
	tombstones session.TombstoneSet
	hasher     PasswordHasher
	sessionTTL time.Duration
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// AuthConfig bundles AuthService dependencies.
type AuthConfig struct {
	Users      repository.UserRepository
	Sessions   session.Store
	Tombstones session.TombstoneSet
	Hasher     PasswordHasher
	SessionTTL time.Duration
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthConfig) *AuthService {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &AuthService{
		userRepo:   cfg.Users,
		sessions:   cfg.Sessions,
		tombstones: cfg.Tombstones,
		hasher:     cfg.Hasher,
		sessionTTL: ttl,
		metrics:    cfg.Metrics,
		log:        cfg.Logger,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Company   string
	JobTitle  string
	Industry  string
}

// Signup validates and stores a new local account and returns its id.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (uint64, error) {
	firstName := utils.SanitizeName(input.FirstName)
	lastName := utils.SanitizeName(input.LastName)
	company := utils.SanitizeName(input.Company)
	jobTitle := utils.SanitizeName(input.JobTitle)
	industry := utils.SanitizeName(input.Industry)
	email := utils.NormalizeEmail(input.Email)

	if firstName == "" || lastName == "" || email == "" || input.Password == "" ||
		company == "" || jobTitle == "" || industry == "" {
		return 0, validationError("All fields are required")
	}
	if !utils.IsValidEmail(email) {
		return 0, ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return 0, ErrPasswordTooShort
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, validationError("Password is too long")
		}
		return 0, wrapInternal("hash password", err)
	}

	user := &models.User{
		FirstName:       firstName,
		LastName:        lastName,
		Email:           email,
		PasswordHash:    &hash,
		AuthProvider:    models.AuthProviderLocal,
		Company:         company,
		JobTitle:        jobTitle,
		Industry:        industry,
		PermissionLevel: models.PermissionUser,
		JoinedAt:        time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, ErrEmailTaken
		}
		return 0, wrapInternal("create user", err)
	}

	s.log.Info("user signed up", "user_id", user.ID)
	return user.ID, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials, clears any logout tombstone and opens a new
// session. previousSessionID, when set, is destroyed first.
func (s *AuthService) Login(ctx context.Context, input LoginInput, previousSessionID string) (*AuthenticatedUser, *session.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, utils.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.LoginAttempt(string(models.AuthProviderLocal), false)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, wrapInternal("find user", err)
	}

	if user.PasswordHash == nil || s.hasher.Compare(*user.PasswordHash, input.Password) != nil {
		s.metrics.LoginAttempt(string(models.AuthProviderLocal), false)
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.establishSession(ctx, user.ID, previousSessionID)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.LoginAttempt(string(models.AuthProviderLocal), true)
	s.log.Info("user logged in", "user_id", user.ID, "method", models.AuthProviderLocal)
	return newAuthenticatedUser(user), sess, nil
}

// OAuthProfile is the identity returned by an external provider.
type OAuthProfile struct {
	Provider   models.AuthProvider
	ExternalID string
	Email      string
	GivenName  string
	FamilyName string
}

// OAuthLogin finds or creates the account for an external identity, links
// the hashed external id when missing, and opens a new session.
func (s *AuthService) OAuthLogin(ctx context.Context, profile OAuthProfile, previousSessionID string) (*AuthenticatedUser, *session.Session, error) {
	email := utils.NormalizeEmail(profile.Email)
	if email == "" {
		s.metrics.LoginAttempt(string(profile.Provider), false)
		return nil, nil, ErrMissingEmail
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if user.GoogleIDHash == nil && profile.ExternalID != "" {
			if err := s.linkExternalID(ctx, user, profile.ExternalID); err != nil {
				return nil, nil, err
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createOAuthUser(ctx, email, profile)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, wrapInternal("find user", err)
	}

	sess, err := s.establishSession(ctx, user.ID, previousSessionID)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.LoginAttempt(string(profile.Provider), true)
	s.log.Info("user logged in", "user_id", user.ID, "method", profile.Provider)
	return newAuthenticatedUser(user), sess, nil
}

func (s *AuthService) linkExternalID(ctx context.Context, user *models.User, externalID string) error {
	hash, err := s.hasher.Hash(externalID)
	if err != nil {
		return wrapInternal("hash external id", err)
	}
	if err := s.userRepo.LinkGoogle(ctx, user.ID, hash); err != nil {
		return wrapInternal("link external id", err)
	}
	user.GoogleIDHash = &hash
	return nil
}

func (s *AuthService) createOAuthUser(ctx context.Context, email string, profile OAuthProfile) (*models.User, error) {
	firstName := utils.SanitizeName(profile.GivenName)
	if firstName == "" {
		firstName = constants.DefaultGivenName
	}
	lastName := utils.SanitizeName(profile.FamilyName)
	if lastName == "" {
		lastName = constants.DefaultFamilyName
	}

	user := &models.User{
		FirstName:       firstName,
		LastName:        lastName,
		Email:           email,
		AuthProvider:    profile.Provider,
		Company:         constants.DefaultCompany,
		JobTitle:        constants.DefaultJobTitle,
		Industry:        constants.DefaultIndustry,
		PermissionLevel: models.PermissionUser,
		JoinedAt:        time.Now(),
	}
	if profile.ExternalID != "" {
		hash, err := s.hasher.Hash(profile.ExternalID)
		if err != nil {
			return nil, wrapInternal("hash external id", err)
		}
		user.GoogleIDHash = &hash
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent first login for the same email.
			existing, findErr := s.userRepo.FindByEmail(ctx, email)
			if findErr != nil {
				return nil, wrapInternal("find user", findErr)
			}
			return existing, nil
		}
		return nil, wrapInternal("create user", err)
	}

	s.log.Info("user created from external identity", "user_id", user.ID, "provider", profile.Provider)
	return user, nil
}

func (s *AuthService) establishSession(ctx context.Context, userID uint64, previousSessionID string) (*session.Session, error) {
	if previousSessionID != "" {
		if err := s.sessions.Destroy(ctx, previousSessionID); err != nil {
			s.log.Warn("failed to destroy previous session", "error", err)
		}
	}
	if err := s.tombstones.Remove(ctx, userID); err != nil {
		return nil, wrapInternal("clear logout tombstone", err)
	}
	sess, err := s.sessions.Create(ctx, userID, s.sessionTTL)
	if err != nil {
		return nil, wrapInternal("create session", err)
	}
	return sess, nil
}

// Logout tombstones the user and destroys the caller's session. The
// tombstone is written first so a failed destroy cannot resurrect the login.
func (s *AuthService) Logout(ctx context.Context, userID uint64, sessionID string) error {
	var errs []error
	if userID != 0 {
		if err := s.tombstones.Add(ctx, userID); err != nil {
			errs = append(errs, fmt.Errorf("tombstone user: %w", err))
		}
	}
	if sessionID != "" {
		if err := s.sessions.Destroy(ctx, sessionID); err != nil {
			errs = append(errs, fmt.Errorf("destroy session: %w", err))
		}
	}
	if len(errs) > 0 {
		return wrapInternal("logout", errors.Join(errs...))
	}

	s.metrics.Logout()
	s.log.Info("user logged out", "user_id", userID)
	return nil
}

// EndSession destroys a session without tombstoning its user.
func (s *AuthService) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return wrapInternal("destroy session", err)
	}
	return nil
}

// ResolveSession maps a session id to a freshly loaded user. Missing or
// expired sessions, tombstoned users and deleted users all resolve to
// ErrUnauthenticated.
func (s *AuthService) ResolveSession(ctx context.Context, sessionID string) (*AuthenticatedUser, error) {
	if sessionID == "" {
		return nil, ErrUnauthenticated
	}

	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, wrapInternal("load session", err)
	}

	tombstoned, err := s.tombstones.Contains(ctx, sess.UserID)
	if err != nil {
		return nil, wrapInternal("check logout tombstone", err)
	}
	if tombstoned {
		s.metrics.TombstoneHit()
		s.log.Warn("rejected session of logged out user", "user_id", sess.UserID)
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = s.sessions.Destroy(ctx, sessionID)
			return nil, ErrUnauthenticated
		}
		return nil, wrapInternal("load user", err)
	}

	return newAuthenticatedUser(user), nil
}

// ClearAllSessions empties the session store and the tombstone set together.
func (s *AuthService) ClearAllSessions(ctx context.Context) (int, error) {
	n, err := s.sessions.Clear(ctx)
	if err != nil {
		return 0, wrapInternal("clear sessions", err)
	}
	if err := s.tombstones.Clear(ctx); err != nil {
		return 0, wrapInternal("clear logout tombstones", err)
	}

	s.log.Warn("all sessions cleared", "count", n)
	return n, nil
}

// ListSessions enumerates active sessions.
func (s *AuthService) ListSessions(ctx context.Context) ([]session.Session, error) {
	list, err := s.sessions.List(ctx)
	if err != nil {
		return nil, wrapInternal("list sessions", err)
	}
	return list, nil
}

// SessionTTL is the lifetime given to new sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}


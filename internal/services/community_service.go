package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yukikurage/community-api/internal/models"
	"github.com/yukikurage/community-api/internal/repository"
	"gorm.io/gorm"
)

const joinRequestSuffix = "requested to join the community"

// JoinRequestMessage is the notification text sent to the admin.
func JoinRequestMessage(firstName, lastName string) string {
	return fmt.Sprintf("%s %s %s", firstName, lastName, joinRequestSuffix)
}

// CommunityService implements the singleton community and its join workflow.
type CommunityService struct {
	communityRepo repository.CommunityRepository
	userRepo      repository.UserRepository
	log           *slog.Logger
}

// NewCommunityService creates a new CommunityService.
func NewCommunityService(communityRepo repository.CommunityRepository, userRepo repository.UserRepository, log *slog.Logger) *CommunityService {
	return &CommunityService{
		communityRepo: communityRepo,
		userRepo:      userRepo,
		log:           log,
	}
}

// Info returns the community record.
func (s *CommunityService) Info(ctx context.Context) (*models.Community, error) {
	community, err := s.communityRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, wrapInternal("load community", err)
	}
	return community, nil
}

func (s *CommunityService) requireAdmin(ctx context.Context, actor *AuthenticatedUser) (*models.Community, error) {
	if actor == nil {
		return nil, ErrLoginRequired
	}
	community, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	if community.AdminUserID == nil || *community.AdminUserID != actor.ID {
		return nil, ErrAdminRequired
	}
	return community, nil
}

// UpdateInfo changes the community name and description. Admin only.
func (s *CommunityService) UpdateInfo(ctx context.Context, actor *AuthenticatedUser, name, description string) (*models.Community, error) {
	community, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, validationError("Community name is required")
	}

	if err := s.communityRepo.UpdateInfo(ctx, community.ID, name, description); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommunityNotFound
		}
		return nil, wrapInternal("update community", err)
	}

	community.Name = name
	community.Description = description
	s.log.Info("community info updated", "admin_id", actor.ID)
	return community, nil
}

// MembersCount counts admitted members.
func (s *CommunityService) MembersCount(ctx context.Context) (int64, error) {
	community, err := s.Info(ctx)
	if err != nil {
		return 0, err
	}
	count, err := s.userRepo.CountMembers(ctx, community.ID)
	if err != nil {
		return 0, wrapInternal("count members", err)
	}
	return count, nil
}

// JoinedMembers lists admitted members, most recent first.
func (s *CommunityService) JoinedMembers(ctx context.Context) ([]models.User, error) {
	community, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListMembers(ctx, community.ID)
	if err != nil {
		return nil, wrapInternal("list members", err)
	}
	return users, nil
}

// RequestJoin notifies the admin that actor wants to join. A second request
// while the first is pending is a conflict.
func (s *CommunityService) RequestJoin(ctx context.Context, actor *AuthenticatedUser) error {
	if actor == nil {
		return ErrLoginRequired
	}
	if actor.CommunityID != nil {
		return ErrAlreadyMember
	}

	community, err := s.Info(ctx)
	if err != nil {
		return err
	}
	if community.AdminUserID == nil {
		return wrapInternal("request join", errors.New("community has no admin"))
	}

	request := &models.Notification{
		ReceiverID:  *community.AdminUserID,
		SenderID:    actor.ID,
		CommunityID: &community.ID,
		Message:     JoinRequestMessage(actor.FirstName, actor.LastName),
	}
	if err := s.communityRepo.CreateJoinRequest(ctx, request); err != nil {
		if errors.Is(err, repository.ErrJoinRequestExists) {
			return ErrJoinRequestPending
		}
		return wrapInternal("create join request", err)
	}

	s.log.Info("join requested", "user_id", actor.ID, "notification_id", request.ID)
	return nil
}

// ProcessJoinRequest applies the admin's decision on a join request: on
// approval the user becomes a member; either way the user is told the outcome
// and the request notification is deleted.
func (s *CommunityService) ProcessJoinRequest(ctx context.Context, actor *AuthenticatedUser, notificationID, userID uint64, approve bool) error {
	community, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return err
	}

	verdict := "declined"
	if approve {
		verdict = "approved"
	}
	outcome := &models.Notification{
		ReceiverID:  userID,
		SenderID:    actor.ID,
		CommunityID: &community.ID,
		Message:     fmt.Sprintf("Your request to join %s has been %s", community.Name, verdict),
	}

	err = s.communityRepo.ProcessJoinRequest(ctx, repository.ProcessJoinParams{
		NotificationID: notificationID,
		UserID:         userID,
		Approve:        approve,
		CommunityID:    community.ID,
		Outcome:        outcome,
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotificationNotFound
	case errors.Is(err, repository.ErrJoinRequestMismatch):
		return ErrRequestMismatch
	default:
		return wrapInternal("process join request", err)
	}

	s.log.Info("join request processed", "user_id", userID, "approved", approve, "admin_id", actor.ID)
	return nil
}

// ApproveJoin admits userID directly and removes their pending requests.
func (s *CommunityService) ApproveJoin(ctx context.Context, actor *AuthenticatedUser, userID uint64) error {
	community, err := s.requireAdmin(ctx, actor)
	if err != nil {
		return err
	}

	removed, err := s.communityRepo.ApproveMember(ctx, community.ID, userID, "%"+joinRequestSuffix+"%")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return wrapInternal("approve member", err)
	}

	s.log.Info("member approved", "user_id", userID, "requests_removed", removed)
	return nil
}

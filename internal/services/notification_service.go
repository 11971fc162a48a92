package services

import (
	"context"

	"github.com/yukikurage/community-api/internal/repository"
)

// NotificationService reads and acknowledges a user's own notifications.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// ownerID resolves whose notifications are addressed. An explicit user id
// must match the caller.
func ownerID(actor *AuthenticatedUser, requested *uint64) (uint64, error) {
	if actor == nil {
		return 0, ErrLoginRequired
	}
	if requested != nil && *requested != actor.ID {
		return 0, ErrNotSelf
	}
	return actor.ID, nil
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor *AuthenticatedUser, requested *uint64) ([]repository.NotificationView, error) {
	id, err := ownerID(actor, requested)
	if err != nil {
		return nil, err
	}
	views, err := s.notificationRepo.ListForReceiver(ctx, id)
	if err != nil {
		return nil, wrapInternal("list notifications", err)
	}
	return views, nil
}

// UnreadCount counts the caller's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, actor *AuthenticatedUser, requested *uint64) (int64, error) {
	id, err := ownerID(actor, requested)
	if err != nil {
		return 0, err
	}
	count, err := s.notificationRepo.CountUnread(ctx, id)
	if err != nil {
		return 0, wrapInternal("count unread notifications", err)
	}
	return count, nil
}

// MarkAllRead marks every unread notification of the caller as read and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor *AuthenticatedUser, requested *uint64) (int64, error) {
	id, err := ownerID(actor, requested)
	if err != nil {
		return 0, err
	}
	changed, err := s.notificationRepo.MarkAllRead(ctx, id)
	if err != nil {
		return 0, wrapInternal("mark notifications read", err)
	}
	return changed, nil
}

package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of these,
// so handlers can map them to a status with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrInternal     = errors.New("internal error")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func validationError(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// internalError hides the cause from clients but keeps it for logs.
type internalError struct {
	op    string
	cause error
}

func (e *internalError) Error() string { return e.op + ": " + e.cause.Error() }
func (e *internalError) Unwrap() []error { return []error{ErrInternal, e.cause} }

func wrapInternal(op string, err error) error {
	return &internalError{op: op, cause: err}
}

var (
	ErrEmailTaken         = newError(ErrConflict, "Email already exists")
	ErrInvalidCredentials = newError(ErrUnauthorized, "Invalid credentials")
	ErrUnauthenticated    = newError(ErrUnauthorized, "Not authenticated")
	ErrMissingEmail       = newError(ErrUnauthorized, "Identity provider did not supply an email address")
	ErrLoginRequired      = newError(ErrUnauthorized, "Please log in to continue")
	ErrCommunityRequired  = newError(ErrForbidden, "You must be a community member to perform this action")
	ErrAdminRequired      = newError(ErrForbidden, "Only the community admin can perform this action")
	ErrNotOwner           = newError(ErrForbidden, "You can only modify your own content")
	ErrNotSelf            = newError(ErrForbidden, "You can only access your own account")
	ErrImageNotOwned      = newError(ErrForbidden, "You can only attach images you uploaded")

	ErrUserNotFound         = newError(ErrNotFound, "User not found")
	ErrCommunityNotFound    = newError(ErrNotFound, "Community not found")
	ErrPostNotFound         = newError(ErrNotFound, "Post not found")
	ErrCommentNotFound      = newError(ErrNotFound, "Comment not found")
	ErrLikeNotFound         = newError(ErrNotFound, "Like not found")
	ErrNotificationNotFound = newError(ErrNotFound, "Notification not found")
	ErrAvatarNotFound       = newError(ErrNotFound, "Avatar not found")

	ErrAlreadyMember      = newError(ErrConflict, "You are already a member of the community")
	ErrJoinRequestPending = newError(ErrConflict, "Join request already sent")
	ErrLikeConflict       = newError(ErrConflict, "Like changed concurrently, please retry")

	ErrPasswordTooShort  = newError(ErrValidation, "Password must be at least 8 characters")
	ErrInvalidEmail      = newError(ErrValidation, "Invalid email format")
	ErrEmptyContent      = newError(ErrValidation, "Content cannot be empty")
	ErrInvalidLikeTarget = newError(ErrValidation, "Exactly one of postId or commentId must be provided")
	ErrInvalidImageRef   = newError(ErrValidation, "Invalid image reference")
	ErrContentRejected   = newError(ErrValidation, "Content violates community guidelines")
	ErrRequestMismatch   = newError(ErrValidation, "Notification does not belong to this user")
)

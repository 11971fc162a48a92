package services

// Action names a content mutation guarded by community membership.
type Action string

const (
	ActionCreatePost    Action = "create_post"
	ActionCreateComment Action = "create_comment"
	ActionToggleLike    Action = "toggle_like"
	ActionUploadImage   Action = "upload_image"
)

// DenialReason explains why CheckAccess refused an action.
type DenialReason string

const (
	ReasonLoginRequired     DenialReason = "LoginRequired"
	ReasonCommunityRequired DenialReason = "CommunityRequired"
)

// AccessDecision is the result of CheckAccess.
type AccessDecision struct {
	Allowed bool
	Reason  DenialReason
}

// Err converts a denial into the matching service error, or nil.
func (d AccessDecision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonLoginRequired:
		return ErrLoginRequired
	default:
		return ErrCommunityRequired
	}
}

// CheckAccess decides whether user may perform action. A nil user is
// anonymous. Every action currently requires community membership.
func CheckAccess(user *AuthenticatedUser, action Action) AccessDecision {
	if user == nil {
		return AccessDecision{Reason: ReasonLoginRequired}
	}
	if user.CommunityID == nil {
		return AccessDecision{Reason: ReasonCommunityRequired}
	}
	return AccessDecision{Allowed: true}
}

package constants

import "time"

// Session keys and cookie names
const (
	SessionCookieName    = "mconnect_session"
	SessionKeyID         = "sid"
	SessionKeyOAuthNonce = "oauth_nonce"
	ContextKeyUserID     = "user_id"
	ContextKeyUser       = "auth_user"
	ContextKeySessionID  = "session_id"
	DefaultSessionTTL    = 24 * time.Hour
)

// Validation
const (
	MinPasswordLength = 8
	MaxPostLength     = 5000
	MaxCommentLength  = 2000
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Uploads
const (
	MaxUploadSize     = 5 << 20
	MaxUploadFiles    = 1
	UploadFieldImage  = "image"
	UploadFieldAvatar = "avatar"
	PostImagePrefix   = "post"
	PostImageRoute    = "/posts/images/"
	AvatarPrefix      = "avatar"
)

// Profile defaults for accounts created through an external provider
const (
	DefaultCompany    = "Unknown"
	DefaultJobTitle   = "Unknown"
	DefaultIndustry   = "Other"
	DefaultGivenName  = "Google"
	DefaultFamilyName = "User"
)

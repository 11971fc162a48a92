package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/constants"
	"github.com/yukikurage/community-api/internal/logger"
	"github.com/yukikurage/community-api/internal/metrics"
	"github.com/yukikurage/community-api/internal/middleware"
	"github.com/yukikurage/community-api/internal/services"
)

// RouterConfig wires services into the HTTP routes.
type RouterConfig struct {
	Auth          *services.AuthService
	Community     *services.CommunityService
	Notifications *services.NotificationService
	Posts         *services.PostService
	Comments      *services.CommentService
	Likes         *services.LikeService
	Users         *services.UserService

	// OAuth is nil when Google sign-in is not configured.
	OAuth *OAuthHandler

	PostImages FileLocator
	Avatars    FileLocator
	DB         Pinger
	Metrics    *metrics.Metrics
	Logger     *slog.Logger

	SessionSecret  string
	Cookie         CookieConfig
	AllowedOrigins []string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Cookie.TTL == 0 {
		cfg.Cookie.TTL = cfg.Auth.SessionTTL()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger(cfg.Logger))
	r.Use(cfg.Metrics.Middleware())

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(cfg.Cookie.options(int(cfg.Cookie.TTL.Seconds())))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.Use(middleware.LoadSession(cfg.Auth, cfg.Logger))

	authHandler := NewAuthHandler(cfg.Auth, cfg.Cookie)
	communityHandler := NewCommunityHandler(cfg.Community)
	notificationHandler := NewNotificationHandler(cfg.Notifications, cfg.Community)
	postHandler := NewPostHandler(cfg.Posts, cfg.PostImages)
	commentHandler := NewCommentHandler(cfg.Comments)
	likeHandler := NewLikeHandler(cfg.Likes)
	userHandler := NewUserHandler(cfg.Users, cfg.Avatars)
	healthHandler := NewHealthHandler(cfg.DB)

	requireAuth := middleware.RequireAuth()

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	r.GET("/current-user", authHandler.GetCurrentUser)

	auth := r.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/google/logout", authHandler.Logout)
		auth.GET("/current-user", authHandler.GetCurrentUser)
		auth.GET("/verify-session", authHandler.VerifySession)
		auth.POST("/cleanup-session", authHandler.CleanupSession)
		auth.GET("/sessions", middleware.RequireAdmin(), authHandler.ListSessions)
		auth.POST("/clear-all-sessions", middleware.RequireAdmin(), authHandler.ClearAllSessions)

		if cfg.OAuth != nil {
			auth.GET("/google", cfg.OAuth.GoogleStart)
			auth.GET("/google/callback", cfg.OAuth.GoogleCallback)
		}
	}

	community := r.Group("/community")
	{
		community.GET("/community-info", communityHandler.GetInfo)
		community.PUT("/community-info", requireAuth, communityHandler.UpdateInfo)
		community.GET("/members-count", communityHandler.MembersCount)
		community.GET("/joined-members", communityHandler.JoinedMembers)
		community.POST("/join", requireAuth, communityHandler.Join)
		community.POST("/approve-join", requireAuth, communityHandler.ApproveJoin)
	}

	posts := r.Group("/posts")
	{
		posts.GET("", postHandler.ListPosts)
		posts.POST("", middleware.RequireCommunityMember(services.ActionCreatePost), postHandler.CreatePost)
		posts.POST("/upload-image", middleware.RequireCommunityMember(services.ActionUploadImage), postHandler.UploadImage)
		posts.GET("/images/:filename", postHandler.GetImage)
		posts.GET("/:id", postHandler.GetPost)
		posts.PUT("/:id", requireAuth, postHandler.UpdatePost)
		posts.DELETE("/:id", requireAuth, postHandler.DeletePost)
	}

	comments := r.Group("/comments")
	{
		comments.GET("/post/:postId", commentHandler.ListByPost)
		comments.POST("", middleware.RequireCommunityMember(services.ActionCreateComment), commentHandler.CreateComment)
		comments.PUT("/:commentId", requireAuth, commentHandler.UpdateComment)
		comments.DELETE("/:commentId", requireAuth, commentHandler.DeleteComment)
	}

	likes := r.Group("/likes")
	{
		likes.GET("/post/:postId", likeHandler.ListForPost)
		likes.GET("/comment/:commentId", likeHandler.ListForComment)
		likes.POST("/toggle", middleware.RequireCommunityMember(services.ActionToggleLike), likeHandler.Toggle)
		likes.DELETE("/:likeId", requireAuth, likeHandler.Delete)
		likes.GET("/user/:userId/status", requireAuth, likeHandler.Status)
	}

	notifications := r.Group("/notifications")
	notifications.Use(requireAuth)
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/mark-read", notificationHandler.MarkRead)
		notifications.POST("/process-join", notificationHandler.ProcessJoin)
	}

	users := r.Group("/users")
	{
		users.GET("/:userId", userHandler.GetProfile)
		users.PUT("/:userId", requireAuth, userHandler.UpdateProfile)
		users.POST("/:userId/avatar", requireAuth, userHandler.UploadAvatar)
		users.GET("/:userId/avatar", userHandler.GetAvatar)
	}

	return r
}

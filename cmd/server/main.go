package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/yukikurage/community-api/internal/config"
	"github.com/yukikurage/community-api/internal/database"
	"github.com/yukikurage/community-api/internal/handlers"
	"github.com/yukikurage/community-api/internal/logger"
	"github.com/yukikurage/community-api/internal/metrics"
	"github.com/yukikurage/community-api/internal/oauth"
	"github.com/yukikurage/community-api/internal/repository"
	"github.com/yukikurage/community-api/internal/services"
	"github.com/yukikurage/community-api/internal/session"
	"github.com/yukikurage/community-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	db, err := database.Connect(cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("close database", "error", err)
		}
	}()

	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if _, err := database.EnsureCommunity(ctx, db, database.SeedOptions{
		AdminEmail:           cfg.AdminEmail,
		AdminPassword:        cfg.AdminPassword,
		CommunityName:        cfg.CommunityName,
		CommunityDescription: cfg.CommunityDescription,
	}, log); err != nil {
		return fmt.Errorf("seed community: %w", err)
	}

	sessions, tombstones, err := openSessionBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			log.Error("close session store", "error", err)
		}
	}()
	log.Info("session backend ready", "backend", cfg.SessionBackend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	postImages, err := storage.NewLocalStore(cfg.UploadDir, "posts")
	if err != nil {
		return fmt.Errorf("post image store: %w", err)
	}
	avatars, err := storage.NewLocalStore(cfg.UploadDir, "avatars")
	if err != nil {
		return fmt.Errorf("avatar store: %w", err)
	}

	// Moderation is optional; without a key content is accepted as is.
	var moderator services.Moderator
	if cfg.OpenAIAPIKey != "" {
		moderator = services.NewOpenAIModerator(cfg.OpenAIAPIKey)
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authService := services.NewAuthService(services.AuthConfig{
		Users:      userRepo,
		Sessions:   sessions,
		Tombstones: tombstones,
		Hasher:     services.NewBcryptHasher(bcrypt.DefaultCost),
		SessionTTL: cfg.SessionTTL,
		Metrics:    m,
		Logger:     log,
	})
	communityService := services.NewCommunityService(repository.NewCommunityRepository(db), userRepo, log)

	cookie := handlers.CookieConfig{
		Secure: cfg.IsProduction(),
		TTL:    cfg.SessionTTL,
	}

	var oauthHandler *handlers.OAuthHandler
	if cfg.GoogleEnabled() {
		provider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
		oauthHandler = handlers.NewOAuthHandler(authService, provider, oauth.NewStateSigner(cfg.SessionSecret), cfg.FrontendURL, cookie, log)
	} else {
		log.Warn("google sign-in disabled", "reason", "GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:           authService,
		Community:      communityService,
		Notifications:  services.NewNotificationService(repository.NewNotificationRepository(db)),
		Posts:          services.NewPostService(postRepo, postImages, moderator, log),
		Comments:       services.NewCommentService(commentRepo, postRepo, moderator, log),
		Likes:          services.NewLikeService(repository.NewLikeRepository(db), postRepo, commentRepo, m, log),
		Users:          services.NewUserService(userRepo, avatars, log),
		OAuth:          oauthHandler,
		PostImages:     postImages,
		Avatars:        avatars,
		DB:             database.NewPinger(db),
		Metrics:        m,
		Logger:         log,
		SessionSecret:  cfg.SessionSecret,
		Cookie:         cookie,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openSessionBackend(ctx context.Context, cfg *config.Config) (session.Store, session.TombstoneSet, error) {
	if cfg.SessionBackend == "redis" {
		client, err := session.NewRedisClient(ctx, cfg.RedisHost+":"+cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return session.NewRedisStore(client), session.NewRedisTombstones(client), nil
	}
	return session.NewMemoryStore(time.Minute), session.NewMemoryTombstones(), nil
}

package main

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"profile-portal/internal/auth"
	"profile-portal/internal/config"
	apphttp "profile-portal/internal/http"
	"profile-portal/internal/metrics"
	"profile-portal/internal/repository"
	redisrepo "profile-portal/internal/repository/redis"
	"profile-portal/internal/repository/sqlite"
	"profile-portal/internal/service"
	"profile-portal/internal/storage"
	"profile-portal/internal/web"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(ctx, db); err != nil {
		logger.Fatalf("migrate database: %v", err)
	}

	pictureStore, err := storage.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	var sessionRepo repository.SessionRepository
	switch cfg.Session.Backend {
	case "redis":
		client, err := redisrepo.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatalf("connect redis: %v", err)
		}
		defer client.Close()
		sessionRepo = redisrepo.NewSessionRepository(client)
		logger.Infof("sessions stored in redis at %s", cfg.Redis.Addr)
	default:
		sessionRepo = sqlite.NewSessionRepository(db)
	}

	hasher, err := auth.NewPasswords(cfg.Auth.Hasher, cfg.Auth.PBKDF2Iterations)
	if err != nil {
		logger.Fatalf("setup password hasher: %v", err)
	}

	secret := []byte(strings.TrimSpace(cfg.Auth.SessionSecret))
	if len(secret) == 0 {
		logger.Warn("auth session secret is not set, generating one; sessions end on restart")
		if secret, err = auth.GenerateSecret(); err != nil {
			logger.Fatalf("generate session secret: %v", err)
		}
	}
	tokens, err := auth.NewTokens(secret)
	if err != nil {
		logger.Fatalf("setup session tokens: %v", err)
	}

	assets := web.Static()
	placeholder, err := fs.ReadFile(assets, web.PlaceholderPicture)
	if err != nil {
		logger.Fatalf("read placeholder picture: %v", err)
	}
	templates, err := web.Templates()
	if err != nil {
		logger.Fatalf("parse templates: %v", err)
	}

	userService := service.NewUserService(sqlite.NewUserRepository(db), pictureStore, hasher, logger)
	sessionService := service.NewSessionService(userService, sessionRepo, tokens, cfg.Auth.SessionTTL)
	pictureService := service.NewPictureService(pictureStore, placeholder, "image/svg+xml", logger)

	router := gin.New()
	handler := apphttp.NewHandler(apphttp.Config{
		Users:        userService,
		Sessions:     sessionService,
		Pictures:     pictureService,
		Metrics:      metrics.New(),
		Logger:       logger,
		Templates:    templates,
		Assets:       assets,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

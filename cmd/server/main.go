package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"travelxguide/internal/admin"
	"travelxguide/internal/auth"
	"travelxguide/internal/chat"
	"travelxguide/internal/config"
	"travelxguide/internal/db"
	"travelxguide/internal/guide"
	"travelxguide/internal/mail"
	"travelxguide/internal/metric"
	"travelxguide/internal/middleware"
	"travelxguide/internal/user"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		),
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("parse config", slog.Any("error", err))
		os.Exit(1)
	}

	// Platform layer
	database, err := db.NewDatabase(cfg.DBDSN)
	if err != nil {
		slog.Error("connect to postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Conn.Close()

	if err := database.AutoMigrate(); err != nil {
		slog.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		slog.Error("connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	mailer, err := mail.New(cfg.SMTP, cfg.Admin.Email)
	if err != nil {
		slog.Error("init mailer", slog.Any("error", err))
		os.Exit(1)
	}

	tokens := auth.NewManager(cfg.JWTSecret)

	// Features
	userRepo := user.NewRepository(database.Conn)
	userService := user.NewService(userRepo, tokens)
	userHandler := user.NewHandler(userService)

	guideRepo := guide.NewRepository(database.Conn)
	guideService := guide.NewService(guideRepo, mailer, tokens)
	guideHandler := guide.NewHandler(guideService, cfg.UploadDir)

	adminRepo := admin.NewRepository(database.Conn)
	adminService := admin.NewService(adminRepo, guideRepo, mailer, tokens)
	adminHandler := admin.NewHandler(adminService)

	if err := adminService.Seed(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		slog.Error("seed admin account", slog.Any("error", err))
		os.Exit(1)
	}

	chatRepo := chat.NewRepository(database.Conn)
	hub := chat.NewHub(chat.NewRegistry(), chatRepo, userService, chat.NewRedisPublisher(redisClient))
	chatHandler := chat.NewHandler(hub, chatRepo)

	go hub.Run()
	go hub.SubscribeToRedis(ctx, redisClient)

	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// Routes
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(metric.HTTPMetrics)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("API Working"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/uploads/guides/*", http.StripPrefix("/uploads/guides/",
		http.FileServer(http.Dir(cfg.UploadDir))))

	r.Post("/api/auth/register", userHandler.Register)
	r.Post("/api/auth/login", userHandler.Login)

	r.Post("/api/guide/apply", guideHandler.Apply)
	r.Post("/api/guide/login", guideHandler.Login)
	r.Post("/api/guide/verify-email", guideHandler.VerifyEmail)
	r.Post("/api/guide/resend-otp", guideHandler.ResendOTP)
	r.Get("/api/guide/approved", guideHandler.Approved)

	r.Post("/api/admin/login", adminHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Require(auth.RoleUser))
		r.Get("/api/user/data", userHandler.Data)
		r.Get("/ws", chatHandler.ServeWs)
		r.Get("/api/messages/{roomID}", chatHandler.History)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Require(auth.RoleGuide))
		r.Get("/api/guide/profile", guideHandler.Profile)
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Require(auth.RoleAdmin))
		r.Get("/api/admin/dashboard/stats", adminHandler.Stats)
		r.Get("/api/admin/applications", adminHandler.Applications)
		r.Get("/api/admin/applications/{id}", adminHandler.Application)
		r.Put("/api/admin/applications/{id}/approve", adminHandler.Approve)
		r.Put("/api/admin/applications/{id}/reject", adminHandler.Reject)
		r.Put("/api/admin/guides/{id}/active", adminHandler.SetGuideActive)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", slog.String("addr", cfg.HTTPAddr))
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown", slog.Any("error", err))
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/DergiSamayoa/user-verify-email/internal/config"
	"github.com/DergiSamayoa/user-verify-email/internal/handler"
	"github.com/DergiSamayoa/user-verify-email/internal/mail"
	"github.com/DergiSamayoa/user-verify-email/internal/middleware"
	"github.com/DergiSamayoa/user-verify-email/internal/repository"
	"github.com/DergiSamayoa/user-verify-email/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	mailer, err := mail.NewClient(cfg.SMTPHost, cfg.SMTPUser, cfg.SMTPPass, cfg.MailAddress, cfg.MailSkipVerify)
	if err != nil {
		slog.Error("mail client setup failed", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	codeRepo := repository.NewCodeRepository(db)
	userService := service.NewUserService(userRepo, codeRepo, mailer, cfg.JWTSecret, cfg.JWTExpiry, cfg.FrontBaseURLs)
	userHandler := handler.NewUserHandler(userService)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", userHandler.HandleRegister)
		r.Post("/login", userHandler.HandleLogin)
		r.Get("/verify/{code}", userHandler.HandleVerifyEmail)
		r.Post("/reset_password", userHandler.HandleResetPassword)
		r.Post("/reset_password/{code}", userHandler.HandleChangePassword)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))
			r.Get("/", userHandler.HandleGetAll)
			r.Get("/me", userHandler.HandleMe)
			r.Get("/{id}", userHandler.HandleGetOne)
			r.Put("/{id}", userHandler.HandleUpdate)
			r.Delete("/{id}", userHandler.HandleRemove)
		})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/judyrop/viara-backend/app/accounts"
	"github.com/judyrop/viara-backend/app/auth"
	"github.com/judyrop/viara-backend/config"
	"github.com/judyrop/viara-backend/models"
	"github.com/judyrop/viara-backend/notify"
)

func main() {
	cfg, envLoaded := config.Load()

	log, flush, err := config.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer flush()

	if err := run(cfg, log, envLoaded); err != nil {
		log.Error(err, "server stopped")
		flush()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logr.Logger, envLoaded bool) error {
	if !envLoaded {
		log.Info("no .env file found, using environment")
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	log.Info("database ready", "driver", cfg.DBDriver)

	if err := ensureAdmin(ctx, models.NewUsersRepository(db), cfg, log); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	opts := Options{
		Log:         log,
		MediaDir:    cfg.MediaDir,
		CORSOrigins: cfg.CORSOrigins,
		Accounts: accounts.Settings{
			FrontendURL: cfg.FrontendURL,
			Debug:       cfg.Debug,
		},
	}

	if rdb := config.NewRedis(cfg, log); rdb != nil {
		defer rdb.Close()
		opts.Limiter = auth.RedisCounter{Client: rdb}
	}

	if cfg.OIDCIssuer != "" && cfg.OIDCClientID != "" {
		verifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			log.Error(err, "admin single sign-on disabled")
		} else {
			opts.SSO = verifier
		}
	}

	secret := cfg.JWTSecret
	if secret == "" {
		log.Info("JWT_SECRET not set, reset links will not survive a restart")
		secret = uuid.NewString()
	}
	opts.ResetTokens = accounts.NewResetTokens(secret, cfg.ResetTokenTTL)

	if cfg.SMTPHost != "" {
		opts.Mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail)
	} else {
		opts.Mailer = notify.LogMailer{Log: log.WithName("mail")}
	}
	if cfg.SMSAPIKey != "" {
		opts.SMS = notify.NewSMSSender(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSUsername)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           SetupRouter(db, opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// ensureAdmin creates the ADMIN_USERNAME superuser on first start.
func ensureAdmin(ctx context.Context, users *models.UsersRepository, cfg *config.Config, log logr.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	email := cfg.AdminEmail
	if email == "" {
		email = cfg.AdminUsername + "@localhost"
	}
	admin := &models.User{
		Username:     cfg.AdminUsername,
		Email:        email,
		PasswordHash: string(hash),
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Info("admin user created", "username", admin.Username)
	return nil
}

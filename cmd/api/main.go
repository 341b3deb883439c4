package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/justsurfingit/job-application-tracker/internal/auth"
	"github.com/justsurfingit/job-application-tracker/internal/config"
	"github.com/justsurfingit/job-application-tracker/internal/database"
	"github.com/justsurfingit/job-application-tracker/internal/handlers"
	"github.com/justsurfingit/job-application-tracker/internal/services"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/genai"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using process environment")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. User storage
	var store services.UserStore
	if cfg.Database.DSN != "" {
		db, err := database.Connect(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("Database error: %v", err)
		}
		store = services.NewGormUserStore(db)
	} else {
		log.Println("⚠️  DATABASE_DSN not set, users are kept in memory")
		store = services.NewMemoryUserStore()
	}

	// 3. Core services
	extractor, err := newExtractor(ctx, cfg)
	if err != nil {
		log.Fatalf("Extraction backend error: %v", err)
	}
	mailer, err := newMailer(ctx, cfg)
	if err != nil {
		log.Fatalf("Mail transport error: %v", err)
	}

	linkService := services.NewLinkService(services.LinkServiceConfig{
		FetchTimeout:    cfg.Processor.FetchTimeout,
		ExtractTimeout:  cfg.Processor.ExtractTimeout,
		MailTimeout:     cfg.Processor.MailTimeout,
		MaxContentChars: cfg.Processor.MaxContentChars,
	}, services.NewFetchService(cfg.Processor.FetchTimeout), extractor, mailer)
	userService := services.NewUserService(store)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// 4. Handlers
	authHandler := &handlers.AuthHandler{
		UserService:   userService,
		Tokens:        tokens,
		FrontendURL:   cfg.Server.FrontendURL,
		SecureCookies: strings.HasPrefix(cfg.Microsoft.RedirectURL, "https://"),
	}
	if cfg.MicrosoftEnabled() {
		authHandler.Microsoft = auth.NewMicrosoftAuth(cfg.Microsoft.ClientID, cfg.Microsoft.ClientSecret,
			cfg.Microsoft.TenantID, cfg.Microsoft.RedirectURL)
		log.Println("✅ Microsoft sign-in enabled")
	} else {
		log.Println("⚠️  Microsoft sign-in disabled (CLIENT_ID, CLIENT_SECRET or TENANT_ID missing)")
	}

	r := handlers.NewRouter(handlers.Deps{
		Links:        handlers.NewLinkHandler(linkService),
		Users:        handlers.NewUserHandler(userService, tokens),
		Auth:         authHandler,
		Tokens:       tokens,
		FrontendURL:  cfg.Server.FrontendURL,
		MaxBodyBytes: cfg.Processor.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

func newExtractor(ctx context.Context, cfg config.Config) (services.Extractor, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGenAI:
		return services.NewGenAIService(ctx, &genai.ClientConfig{APIKey: cfg.LLM.APIKey},
			cfg.LLM.Model, services.NewRequestLimiter(cfg.LLM.RequestsPerMinute))
	case config.ProviderLangChain:
		return services.NewLLMService(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.RequestsPerMinute)
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
}

func newMailer(ctx context.Context, cfg config.Config) (services.Mailer, error) {
	switch cfg.Mail.Transport {
	case config.TransportGmail:
		log.Println("Initializing Gmail Client...")
		httpClient, err := auth.GmailClient(ctx, cfg.Mail.CredentialsPath, cfg.Mail.TokenPath)
		if err != nil {
			return nil, err
		}
		gmailService, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gmail service: %w", err)
		}
		log.Println("✅ Gmail Service connected successfully.")
		return services.NewGmailMailer(gmailService, cfg.Mail.From), nil
	case config.TransportSMTP:
		return services.NewSMTPMailer(services.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			Timeout:  cfg.Processor.MailTimeout,
		}), nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
}

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blastline/panel-server-go/internal/bot"
	"github.com/blastline/panel-server-go/internal/config"
	"github.com/blastline/panel-server-go/internal/database"
	"github.com/blastline/panel-server-go/internal/handler"
	"github.com/blastline/panel-server-go/internal/jobs"
	"github.com/blastline/panel-server-go/internal/linking"
	"github.com/blastline/panel-server-go/internal/middleware"
	"github.com/blastline/panel-server-go/internal/redis"
	"github.com/blastline/panel-server-go/internal/repository"
	"github.com/blastline/panel-server-go/internal/service"
	"github.com/blastline/panel-server-go/internal/sse"
	"github.com/blastline/panel-server-go/internal/telegram"
	"github.com/blastline/panel-server-go/internal/util"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	box, err := util.NewSecretBox(cfg.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid encryption key")
	}
	if box == nil {
		log.Warn().Msg("ENCRYPTION_KEY not set, session credentials stored unencrypted")
	}

	userRepo := repository.NewUserRepository(db.DB)
	accountRepo := repository.NewTelegramAccountRepository(db.DB)
	blastRepo := repository.NewBlastRepository(db.DB)
	sessionRepo := repository.NewPanelSessionRepository(db.DB)
	botLinkRepo := repository.NewBotLinkTokenRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	var dialer telegram.Dialer
	if cfg.ProviderConfigured() {
		dialer = telegram.NewGotdDialer(cfg.TelegramAPIID, cfg.TelegramAPIHash)
	} else {
		log.Warn().Msg("telegram api credentials not set, account linking disabled")
	}

	attemptStore := linking.NewAttemptStore(cfg.LinkAttemptTTL())
	attemptStore.Start(config.AttemptSweepInterval)
	defer attemptStore.Stop()

	linker := linking.NewLinker(dialer, attemptStore, accountRepo, box)

	var emailService service.EmailService = service.NoopEmailService{}
	if cfg.ResendAPIKey != "" {
		emailService = service.NewResendEmailService(cfg.ResendAPIKey, cfg.EmailFrom)
		log.Info().Msg("email delivery enabled")
	}

	panelService := service.NewPanelService(userRepo, sessionRepo, emailService, cfg.SessionSecret)
	adminService := service.NewAdminService(userRepo, accountRepo, sessionRepo, blastRepo, attemptStore, emailService)
	blastService := service.NewBlastService(blastRepo, accountRepo)
	botLinkService := service.NewBotLinkService(botLinkRepo, userRepo, cfg.BotUsername, cfg.BotLinkTTL())

	sessionMiddleware := middleware.NewSessionMiddleware(panelService)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(redisClient.Client)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	authHandler := handler.NewAuthHandler(panelService, isProduction)
	linkHandler := handler.NewLinkHandler(linker, accountRepo, broker)
	blastHandler := handler.NewBlastHandler(blastService, botLinkService, broker)
	adminHandler := handler.NewAdminHandler(adminService)
	eventsHandler := handler.NewEventsHandler(broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/panel/api", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(csrfMiddleware.Handler)

		r.Mount("/auth", authHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware.Handler)
			r.Use(rateLimitMiddleware.Limit("api", config.DefaultRateLimitPerMin))

			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
			r.Get("/events", eventsHandler.ServeHTTP)

			r.Route("/link", func(r chi.Router) {
				r.Get("/", linkHandler.GetStatus)
				r.Delete("/", linkHandler.Unlink)
				r.Put("/groups", blastHandler.SetTargetGroups)
				r.With(rateLimitMiddleware.Limit("link-request", config.LinkRequestRateLimit)).
					Post("/request-code", linkHandler.RequestCode)
				r.With(rateLimitMiddleware.Limit("link-verify", config.LinkVerifyRateLimit)).
					Post("/verify-code", linkHandler.VerifyCode)
			})

			r.Mount("/blasts", blastHandler.Routes())
			r.Post("/bot/link", blastHandler.GenerateBotLink)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Mount("/admin", adminHandler.Routes())
			})
		})
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, botLinkRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	if cfg.BotConfigured() {
		notifyBot, err := bot.New(cfg.BotToken, botLinkService, blastRepo, accountRepo)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start notification bot")
		}
		notifyBot.Start()
		defer notifyBot.Stop()
	} else {
		log.Warn().Msg("bot token not set, notification bot disabled")
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/auth"
	"github.com/gokatarajesh/mentors-mantra/internal/auth/jwt"
	"github.com/gokatarajesh/mentors-mantra/internal/chat"
	"github.com/gokatarajesh/mentors-mantra/internal/config"
	"github.com/gokatarajesh/mentors-mantra/internal/db"
	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
	"github.com/gokatarajesh/mentors-mantra/internal/db/repository"
	"github.com/gokatarajesh/mentors-mantra/internal/logging"
	"github.com/gokatarajesh/mentors-mantra/internal/notify"
	"github.com/gokatarajesh/mentors-mantra/internal/question"
	"github.com/gokatarajesh/mentors-mantra/internal/results"
	"github.com/gokatarajesh/mentors-mantra/internal/server"
	"github.com/gokatarajesh/mentors-mantra/internal/session"
	"github.com/gokatarajesh/mentors-mantra/internal/session/scoring"
	"github.com/gokatarajesh/mentors-mantra/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	db    *sql.DB
	redis *redis.Client
	http  *http.Server

	expiryWorker *session.ExpiryWorker
	countdown    *session.CountdownBroadcaster
	bgCancels    []context.CancelFunc
}

// New bootstraps the database, optional Redis, services and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	driver, dsn, err := cfg.Database.DSN()
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(ctx, db.Driver(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(ctx, conn, db.Driver(driver)); err != nil {
		_ = conn.Close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; sessions are kept in process memory")
	}

	q := queries.New(conn, db.Driver(driver))
	userRepo := repository.NewUserRepository(q)
	questionRepo := repository.NewQuestionRepository(q)
	resultRepo := repository.NewResultRepository(q)

	validate := validator.New()

	authSvc := auth.NewService(userRepo, auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			Secret:    []byte(cfg.Security.JWTSecret),
			AccessTTL: cfg.Security.AccessTTL,
			Issuer:    cfg.Name,
		},
		BcryptCost: cfg.Security.BcryptCost,
	}, logger)

	// Question bank gateway
	gatewayOpts := question.ServiceOptions{FetchTimeout: cfg.Test.FetchTimeout}
	if redisClient != nil {
		gatewayOpts.Cache = question.NewCache(redisClient, cfg.Test.QuestionPoolTTL)
	}
	questionSvc := question.NewService(question.NewSQLBank(questionRepo), gatewayOpts, logger)

	resultsSvc := results.NewService(resultRepo, logger)

	var notifier session.ResultNotifier
	if cfg.SMTP.Host != "" {
		mailer := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
		}, logger)
		notifier = notify.NewScorecardNotifier(mailer, authSvc, cfg.SMTP.InstructorEmails, logger)
	} else {
		logger.Warn().Msg("SMTP_HOST not set; scorecards will not be emailed")
	}

	engine := session.NewEngine(questionSvc, resultsSvc, notifier, session.EngineOptions{
		Scoring:           scoring.Config{PointsPerCorrect: cfg.Test.PointsPerCorrect},
		SideEffectTimeout: cfg.Test.SideEffectTimeout,
		Metrics:           session.NewMetrics(prometheus.DefaultRegisterer),
	}, logger)

	var store session.Store
	if redisClient != nil {
		store = session.NewRedisStore(redisClient, cfg.Test.SessionRetention, cfg.Test.LockWait, logger)
	} else {
		store = session.NewMemoryStore()
	}
	manager := session.NewManager(engine, store, logger)

	hub := ws.NewHub(logger)
	countdown := session.NewCountdownBroadcaster(manager, hub, time.Second, logger)

	var chatSvc *chat.Service
	chatSvc, err = chat.NewOpenAIService(chat.Config{
		BaseURL: cfg.Chat.BaseURL,
		APIKey:  cfg.Chat.APIKey,
		Model:   cfg.Chat.Model,
		Timeout: cfg.Chat.Timeout,
	}, logger)
	if err != nil {
		if !errors.Is(err, chat.ErrNotConfigured) {
			logger.Error().Err(err).Msg("chat assistant disabled")
		} else {
			logger.Warn().Msg("CHAT_API_KEY not set; chat assistant disabled")
		}
		chatSvc = nil
	}

	handlers := server.Handlers{
		AuthSvc: authSvc,
		Auth:    auth.NewHTTPHandlers(authSvc, validate, logger),
		Sessions: session.NewHTTPHandlers(manager, questionSvc, validate, session.Limits{
			DefaultQuestionCount: cfg.Test.DefaultQuestionCount,
			MaxQuestionCount:     cfg.Test.MaxQuestionCount,
			DefaultDuration:      cfg.Test.DefaultDuration,
			MaxDuration:          cfg.Test.MaxDuration,
		}, logger),
		SessionWS: session.NewWSHandler(manager, countdown, hub, authSvc, &server.WSUpgrader, logger),
		Results:   results.NewHTTPHandler(resultsSvc, logger),
		Catalog:   question.NewHTTPHandler(questionSvc, logger),
		Chat:      chat.NewHTTPHandler(chatSvc, validate, logger),
	}

	checks := []server.Check{{Name: "database", Ping: conn.PingContext}}
	if redisClient != nil {
		checks = append(checks, server.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}

	router := server.NewRouter(cfg, logger, handlers, checks)
	apiServer := server.NewHTTPServer(cfg, router)

	return &Application{
		cfg:          cfg,
		logger:       logger,
		db:           conn,
		redis:        redisClient,
		http:         apiServer,
		expiryWorker: session.NewExpiryWorker(manager, cfg.Test.ExpirySweepInterval, logger),
		countdown:    countdown,
		bgCancels:    make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error().Err(err).Msg("database shutdown error")
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.expiryWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.expiryWorker.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("expiry worker stopped")
			}
		}()
	}

	if a.countdown != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.countdown.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("countdown broadcaster stopped")
			}
		}()
	}
}

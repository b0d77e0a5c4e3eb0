package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/psds-microservice/helpdesk-service/internal/auth"
	"github.com/psds-microservice/helpdesk-service/internal/config"
	"github.com/psds-microservice/helpdesk-service/internal/crew"
	"github.com/psds-microservice/helpdesk-service/internal/database"
	"github.com/psds-microservice/helpdesk-service/internal/handler"
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/router"
	"github.com/psds-microservice/helpdesk-service/internal/service"
	"github.com/psds-microservice/helpdesk-service/internal/tokencache"
)

// API приложение: HTTP сервер (режим api).
type API struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *gorm.DB
	cache    *tokencache.Cache
	producer *kafka.Producer
	httpSrv  *http.Server
}

// NewAPI применяет миграции, поднимает зависимости и собирает роутер.
func NewAPI(ctx context.Context, cfg *config.Config, log *slog.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	cache := tokencache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.TokenTTL)
	if cache != nil {
		if err := cache.Ping(ctx); err != nil {
			// без Redis работаем напрямую с БД
			log.Warn("token cache unavailable", "addr", cfg.Redis.Addr, "error", err)
		}
	}
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicTicket)
	if !producer.Enabled() {
		log.Info("kafka disabled: KAFKA_BROKERS not set")
	}

	lib, err := crew.LoadLibrary(ctx, cfg.Crew.MediaDir, crew.DefaultSystems(), cfg.Crew.ChunkSize, cfg.Crew.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("crew library: %w", err)
	}
	llm := crew.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout)
	crewSvc := crew.NewService(lib, llm, cfg.Crew.TopK)

	users := service.NewUserService(db, auth.NewPasswordHasher(cfg.BcryptCost), cache)
	h := router.New(router.Deps{
		Users:     users,
		Tickets:   service.NewTicketService(db, producer),
		Solutions: service.NewSolutionService(db, crewSvc, producer),
		Solver:    crewSvc,
		Health:    handler.NewHealthHandler(db),
		Logger:    log,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// генерация решения ждёт LLM
		WriteTimeout: cfg.LLM.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &API{
		cfg:      cfg,
		log:      log,
		db:       db,
		cache:    cache,
		producer: producer,
		httpSrv:  httpSrv,
	}, nil
}

// Run запускает HTTP сервер, блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info("HTTP server listening",
		"addr", a.httpSrv.Addr,
		"swagger", base+router.PathSwagger,
		"health", base+router.PathHealth,
		"api", base+router.PathAPI+"/",
	)

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			a.close()
			return fmt.Errorf("http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := a.httpSrv.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	a.log.Info("HTTP server stopped")
	return nil
}

func (a *API) close() {
	if err := a.producer.Close(); err != nil {
		a.log.Warn("kafka close", "error", err)
	}
	if err := a.cache.Close(); err != nil {
		a.log.Warn("token cache close", "error", err)
	}
	if err := database.Close(a.db); err != nil {
		a.log.Warn("database close", "error", err)
	}
}

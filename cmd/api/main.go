package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/brookside/clinic-portal/internal/config"
	appointmentHandler "github.com/brookside/clinic-portal/internal/handler/appointment"
	orderHandler "github.com/brookside/clinic-portal/internal/handler/order"
	promHandler "github.com/brookside/clinic-portal/internal/handler/prometheus"
	ratingHandler "github.com/brookside/clinic-portal/internal/handler/rating"
	statsHandler "github.com/brookside/clinic-portal/internal/handler/stats"
	"github.com/brookside/clinic-portal/internal/middleware"
	"github.com/brookside/clinic-portal/internal/model"
	"github.com/brookside/clinic-portal/internal/repository"
	"github.com/brookside/clinic-portal/internal/repository/memory"
	"github.com/brookside/clinic-portal/internal/repository/postgres"
	"github.com/brookside/clinic-portal/internal/router"
	"github.com/brookside/clinic-portal/internal/service/access"
	appointmentService "github.com/brookside/clinic-portal/internal/service/appointment"
	catalogService "github.com/brookside/clinic-portal/internal/service/catalog"
	"github.com/brookside/clinic-portal/internal/service/notification"
	orderService "github.com/brookside/clinic-portal/internal/service/order"
	ratingService "github.com/brookside/clinic-portal/internal/service/rating"
	statsService "github.com/brookside/clinic-portal/internal/service/stats"
	"github.com/brookside/clinic-portal/pkg/auth"
	"github.com/brookside/clinic-portal/pkg/logger"
	"github.com/brookside/clinic-portal/pkg/messaging/redis"
	"github.com/brookside/clinic-portal/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	appointmentRepo, orderRepo, ratingRepo, catalogRepo, cleanup, err := buildRepositories(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer cleanup()

	// Notifications degrade to no-op when the broker is unreachable; the
	// lifecycle operations never depend on it.
	notifSvc := buildNotifier(cfg, appLogger)

	gate := access.NewGate()
	catalogSvc := catalogService.NewService(catalogRepo)
	appointmentSvc := appointmentService.NewService(appointmentRepo, gate, appointmentService.Weekdays{}, notifSvc)
	orderSvc := orderService.NewService(orderRepo, gate, catalogSvc, notifSvc)
	ratingSvc := ratingService.NewService(ratingRepo, appointmentRepo, orderRepo, gate)
	statsSvc := statsService.NewService(appointmentRepo, orderRepo, ratingRepo, gate)

	authMiddleware := middleware.NewAuthMiddleware(auth.NewTokenValidator(cfg.JWT.Secret))
	v := validator.New()

	prom := promHandler.New()

	r := router.NewRouter(
		authMiddleware,
		appointmentHandler.NewHandler(appointmentSvc, v),
		orderHandler.NewHandler(orderSvc, v),
		ratingHandler.NewHandler(ratingSvc, v),
		statsHandler.NewHandler(statsSvc),
		prom,
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RPS),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func buildRepositories(cfg *config.Config) (
	repository.AppointmentRepository,
	repository.OrderRepository,
	repository.RatingRepository,
	repository.CatalogRepository,
	func(),
	error,
) {
	if cfg.Store.Backend == "memory" {
		catalogRepo := memory.NewCatalogRepository()
		seedCatalog(catalogRepo)
		return memory.NewAppointmentRepository(),
			memory.NewOrderRepository(),
			memory.NewRatingRepository(),
			catalogRepo,
			func() {},
			nil
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return postgres.NewAppointmentRepository(db),
		postgres.NewOrderRepository(db),
		postgres.NewRatingRepository(db),
		postgres.NewCatalogRepository(db),
		func() { db.Close() },
		nil
}

// seedCatalog loads a small test catalog so the memory backend is usable out
// of the box.
func seedCatalog(repo *memory.CatalogRepository) {
	for _, entry := range []model.TestCatalogEntry{
		{TestID: "cbc", Name: "Complete Blood Count", Code: "CBC", UnitPrice: decimal.NewFromFloat(49.99)},
		{TestID: "lipid", Name: "Lipid Panel", Code: "LIPID", UnitPrice: decimal.NewFromFloat(39.50)},
		{TestID: "tsh", Name: "Thyroid Stimulating Hormone", Code: "TSH", UnitPrice: decimal.NewFromFloat(55.00)},
		{TestID: "hba1c", Name: "Hemoglobin A1c", Code: "HBA1C", UnitPrice: decimal.NewFromFloat(42.75)},
	} {
		repo.Put(entry)
	}
}

func buildNotifier(cfg *config.Config, appLogger *logger.Logger) notification.Service {
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &zl)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, notifications disabled")
		return notification.Noop{}
	}
	return notification.NewService(broker, appLogger)
}

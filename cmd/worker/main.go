package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brookside/clinic-portal/internal/email"
	"github.com/brookside/clinic-portal/pkg/logger"
	"github.com/brookside/clinic-portal/pkg/messaging/redis"
	"github.com/brookside/clinic-portal/pkg/metrics"
	"github.com/brookside/clinic-portal/pkg/worker"
)

// Config is read from the environment; the worker ships in containers where
// a config file would just be another mount.
type Config struct {
	RedisURL   string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	Inbox      string `envconfig:"NOTIFICATION_INBOX" required:"true"`
	HealthPort string `envconfig:"HEALTH_PORT" default:"8081"`

	SMTPHost     string `envconfig:"SMTP_HOST" required:"true"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" required:"true"`
}

func setupHealthCheck(port string, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			appLogger.Error(err, "health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := logger.NewLogger(nil)

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	emailSvc := email.NewGomailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	dispatcher := worker.NewDispatcher(
		broker,
		emailSvc,
		cfg.Inbox,
		appLogger,
		metrics.NewMetrics("clinic", "dispatcher"),
	)

	setupHealthCheck(cfg.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("shutting down...")
		cancel()
	}()

	if err := dispatcher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("dispatcher exited")
	}
}

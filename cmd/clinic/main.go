package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/clinic-scheduler/internal/application"
	"github.com/example/clinic-scheduler/internal/config"
	httptransport "github.com/example/clinic-scheduler/internal/http"
	"github.com/example/clinic-scheduler/internal/notify"
	"github.com/example/clinic-scheduler/internal/persistence/sqlite"
)

func main() {
	// A missing .env is fine: deployments configure the process
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.DatabasePath))
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	patientRepo := sqlite.NewPatientRepository(pool)
	doctorRepo := sqlite.NewDoctorRepository(pool)
	appointmentRepo := sqlite.NewAppointmentRepository(pool)
	deliveryLogRepo := sqlite.NewDeliveryLogRepository(pool)

	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, deliveryLogRepo, logger)

	appointmentService := application.NewAppointmentService(appointmentRepo, patientRepo, doctorRepo, mailer, logger, time.Now)
	patientService := application.NewPatientService(patientRepo, appointmentRepo, logger, time.Now)
	doctorService := application.NewDoctorService(doctorRepo, appointmentRepo, logger, time.Now)

	limiter := httptransport.NewRateLimiter(20, 40)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Patients:      httptransport.NewPatientHandler(patientService, logger),
		Doctors:       httptransport.NewDoctorHandler(doctorService, logger),
		Appointments:  httptransport.NewAppointmentHandler(appointmentService, logger),
		Notifications: httptransport.NewNotificationHandler(deliveryLogRepo, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			limiter.Middleware(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("clinic scheduling API listening", "addr", server.Addr, "mail_enabled", cfg.SMTPHost != "")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

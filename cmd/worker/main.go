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

	"github.com/jwalitptl/clinic-booking/internal/app"
	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/handler/health"
	"github.com/jwalitptl/clinic-booking/internal/schedule"
	"github.com/jwalitptl/clinic-booking/internal/worker"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := app.NewLogger(cfg.Log).With("reminder_worker")

	infra, err := app.Open(cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	a, err := app.New(cfg, infra.Deps)
	if err != nil {
		return err
	}

	loc, err := cfg.Clinic.Location()
	if err != nil {
		return err
	}
	reminders, err := worker.NewReminderWorker(
		a.Appointments,
		schedule.SystemClock(loc),
		worker.ReminderWorkerConfig{
			PollInterval: cfg.Reminder.Interval,
			LeadDays:     cfg.Reminder.LeadDays,
		},
		log,
		a.Metrics,
	)
	if err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := healthServer(cfg.Reminder.HealthPort, health.NewHandler(infra.Deps.Checks, infra.Deps.Registry), log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	reminders.Start(ctx)
	return nil
}

func healthServer(port int, h *health.Handler, log *logger.Logger) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	h.RegisterRoutes(engine.Group(""))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "health check server failed")
		}
	}()
	return srv
}

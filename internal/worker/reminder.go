package worker

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/schedule"
	"github.com/jwalitptl/clinic-booking/internal/service/appointment"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

// ReminderSender is the part of the appointment service the worker drives.
type ReminderSender interface {
	SendDueReminders(ctx context.Context, date model.Date) (appointment.ReminderSummary, error)
}

type ReminderWorkerConfig struct {
	PollInterval time.Duration
	// LeadDays is added to today's date to pick the appointments to remind.
	LeadDays int
}

// ReminderWorker sends WhatsApp reminders for upcoming appointments on a fixed interval.
// Each appointment is reminded at most once, so overlapping runs across instances only
// cost duplicate lookups.
type ReminderWorker struct {
	sender  ReminderSender
	clock   schedule.Clock
	config  ReminderWorkerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewReminderWorker(
	sender ReminderSender,
	clock schedule.Clock,
	config ReminderWorkerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*ReminderWorker, error) {
	if config.PollInterval <= 0 {
		return nil, errors.New("reminder poll interval must be greater than 0")
	}
	if config.LeadDays < 0 {
		return nil, errors.New("reminder lead days must not be negative")
	}

	return &ReminderWorker{
		sender:  sender,
		clock:   clock,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Start runs one pass immediately and then one per interval until ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.logger.Info("starting reminder worker",
		"interval", w.config.PollInterval.String(),
		"lead_days", w.config.LeadDays)

	w.run(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down reminder worker")
			return
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *ReminderWorker) run(ctx context.Context) {
	if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error(err, "reminder pass failed")
	}
}

// RunOnce reminds every open appointment on the target date.
func (w *ReminderWorker) RunOnce(ctx context.Context) (appointment.ReminderSummary, error) {
	timer := prometheus.NewTimer(w.metrics.ReminderRunDuration)
	defer timer.ObserveDuration()

	date := w.TargetDate()
	summary, err := w.sender.SendDueReminders(ctx, date)
	if err != nil {
		return summary, err
	}

	if summary.Sent+summary.Failed > 0 {
		w.logger.Info("reminder pass finished",
			"date", date.String(),
			"sent", summary.Sent,
			"failed", summary.Failed,
			"skipped", summary.Skipped)
	}
	return summary, nil
}

func (w *ReminderWorker) TargetDate() model.Date {
	return model.DateOf(w.clock.Now()).AddDays(w.config.LeadDays)
}

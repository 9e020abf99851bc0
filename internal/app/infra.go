package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/handler/health"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/internal/repository/cache"
	"github.com/jwalitptl/clinic-booking/internal/repository/postgres"
	"github.com/jwalitptl/clinic-booking/internal/service/notification"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/messaging/redis"
)

func NewLogger(cfg config.LogConfig) *logger.Logger {
	return logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Level),
		Output: os.Stdout,
		JSON:   strings.EqualFold(cfg.Format, "json"),
	})
}

// Infra holds the connections a process opens at startup.
type Infra struct {
	DB     *sqlx.DB
	Broker *redis.RedisBroker
	Relay  *realtime.Relay
	Deps   Deps
}

// Open connects to postgres and, in redis realtime mode, to the broker.
func Open(cfg *config.Config, log *logger.Logger) (*Infra, error) {
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := postgres.NewStore(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	infra := &Infra{DB: db}
	hub := realtime.NewHub()
	checks := map[string]health.Pinger{"database": store}

	var publisher realtime.Publisher = hub
	if cfg.Realtime.Mode == "redis" {
		broker, err := redis.NewRedisBroker(cfg.Redis, log.Zerolog())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		infra.Broker = broker
		checks["redis"] = broker

		origin, _ := os.Hostname()
		publisher = realtime.NewBrokerPublisher(broker, cfg.Realtime.Channel, origin, hub, log.With("realtime"))
		infra.Relay = realtime.NewRelay(broker, cfg.Realtime.Channel, hub, log.With("realtime"))
	}

	deps := Deps{
		Store:     store,
		Catalog:   cache.NewCatalog(store.Catalog(), cfg.Catalog.CacheTTL, cfg.Catalog.CleanupInterval),
		Hub:       hub,
		Publisher: publisher,
		WhatsApp: notification.NewWhatsAppSender(notification.WhatsAppConfig{
			Endpoint: cfg.Notification.WhatsApp.Endpoint,
			Token:    cfg.Notification.WhatsApp.Token,
			Sender:   cfg.Notification.WhatsApp.Sender,
			Timeout:  cfg.Notification.WhatsApp.Timeout,
		}),
		Registry: registry,
		Checks:   checks,
		Logger:   log,
	}
	if smtp := cfg.Notification.SMTP; smtp.Enabled() {
		deps.Mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     smtp.Host,
			Port:     smtp.Port,
			Username: smtp.Username,
			Password: smtp.Password,
			From:     smtp.From,
		})
	}
	infra.Deps = deps

	return infra, nil
}

// StartRelay feeds broker changes into the local hub until ctx ends. It is a no-op in local
// realtime mode.
func (i *Infra) StartRelay(ctx context.Context) error {
	if i.Relay == nil {
		return nil
	}
	return i.Relay.Start(ctx)
}

func (i *Infra) Close() {
	if i.Broker != nil {
		_ = i.Broker.Close()
	}
	_ = i.DB.Close()
}

// Package app wires services, handlers and the router from configuration and the
// infrastructure the caller has already opened.
package app

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/internal/handler"
	appointmentHandler "github.com/jwalitptl/clinic-booking/internal/handler/appointment"
	billingHandler "github.com/jwalitptl/clinic-booking/internal/handler/billing"
	"github.com/jwalitptl/clinic-booking/internal/handler/health"
	recordHandler "github.com/jwalitptl/clinic-booking/internal/handler/record"
	"github.com/jwalitptl/clinic-booking/internal/handler/ws"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/internal/repository"
	"github.com/jwalitptl/clinic-booking/internal/router"
	"github.com/jwalitptl/clinic-booking/internal/schedule"
	"github.com/jwalitptl/clinic-booking/internal/service/appointment"
	"github.com/jwalitptl/clinic-booking/internal/service/billing"
	"github.com/jwalitptl/clinic-booking/internal/service/medical"
	"github.com/jwalitptl/clinic-booking/internal/service/notification"
	"github.com/jwalitptl/clinic-booking/pkg/auth"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

// Deps are the opened resources the application runs on.
type Deps struct {
	Store   repository.Store
	Catalog repository.CatalogRepository
	Hub     *realtime.Hub
	// Publisher defaults to Hub.
	Publisher realtime.Publisher
	WhatsApp  notification.Sender
	// Mailer is optional; without it no receipts are emailed.
	Mailer   notification.Mailer
	Clock    schedule.Clock
	Registry *prometheus.Registry
	Checks   map[string]health.Pinger
	Logger   *logger.Logger
}

type App struct {
	Appointments  *appointment.Service
	Records       *medical.Service
	Billing       *billing.Service
	Notifications *notification.Service
	Tokens        *auth.TokenService
	Metrics       *metrics.Metrics
	Router        *router.Router
}

func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Store == nil || deps.Hub == nil || deps.Registry == nil || deps.Logger == nil {
		return nil, errors.New("app: store, hub, registry and logger are required")
	}
	if deps.Catalog == nil {
		deps.Catalog = deps.Store.Catalog()
	}
	if deps.Publisher == nil {
		deps.Publisher = deps.Hub
	}

	grid, err := schedule.NewGrid(cfg.Clinic.Shifts)
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		loc, err := cfg.Clinic.Location()
		if err != nil {
			return nil, err
		}
		deps.Clock = schedule.SystemClock(loc)
	}

	log := deps.Logger
	m := metrics.NewMetrics(cfg.Metrics.Namespace, "", deps.Registry)
	events := realtime.NewEmitter(deps.Publisher, m, log.With("realtime"))

	notifier := notification.NewService(
		deps.Store.Notifications(),
		deps.WhatsApp,
		deps.Mailer,
		cfg.Clinic.Name,
		m,
		log.With("notification"),
	)
	var receipts billing.Receipts
	if deps.Mailer != nil {
		receipts = notifier
	}

	a := &App{
		Appointments: appointment.NewService(
			deps.Store,
			deps.Catalog,
			grid,
			deps.Clock,
			events,
			notifier,
			m,
			log.With("appointment"),
			appointment.Options{MaxAdvanceDays: cfg.Clinic.MaxAdvanceDays},
		),
		Records:       medical.NewService(deps.Store, deps.Catalog, deps.Clock, events, m, log.With("medical")),
		Billing:       billing.NewService(deps.Store, deps.Catalog, events, receipts, m, log.With("billing")),
		Notifications: notifier,
		Tokens:        auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer),
		Metrics:       m,
	}

	routes := []handler.Handler{
		appointmentHandler.NewHandler(a.Appointments),
		recordHandler.NewHandler(a.Records),
		billingHandler.NewHandler(a.Billing),
		ws.NewHandler(deps.Hub, a.Appointments, ws.Config{
			Debounce:       cfg.Realtime.Debounce,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, m, log.With("ws")),
	}

	a.Router = router.NewRouter(
		middleware.NewAuthMiddleware(a.Tokens),
		health.NewHandler(deps.Checks, deps.Registry),
		routes,
		log.With("http"),
		router.RouterConfig{
			Release:          cfg.IsProduction(),
			RateLimit:        cfg.RateLimit.RequestsPerSecond,
			RateBurst:        cfg.RateLimit.Burst,
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			MetricsNamespace: cfg.Metrics.Namespace,
			Registerer:       deps.Registry,
		},
	)
	a.Router.Setup()

	return a, nil
}

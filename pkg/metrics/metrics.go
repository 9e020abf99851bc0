package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	Bookings             *prometheus.CounterVec
	SlotConflicts        prometheus.Counter
	StatusTransitions    *prometheus.CounterVec
	Rollbacks            prometheus.Counter
	OrphanedAppointments prometheus.Counter

	// Billing metrics
	Transactions *prometheus.CounterVec

	// Realtime metrics
	RealtimeEvents      *prometheus.CounterVec
	RealtimeSubscribers prometheus.Gauge

	// Notification metrics
	Notifications *prometheus.CounterVec

	// Worker metrics
	ReminderRunDuration prometheus.Histogram
}

// NewMetrics creates all application metrics and registers them with reg. A nil reg uses the
// default prometheus registry.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Bookings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bookings_total",
			Help:      "Appointment creation attempts by channel and result",
		}, []string{"channel", "result"}),
		SlotConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_conflicts_total",
			Help:      "Bookings rejected because the slot was already taken",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "status_transitions_total",
			Help:      "Appointment status changes by target status and result",
		}, []string{"to", "result"}),
		Rollbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rollbacks_total",
			Help:      "Units of work that were rolled back",
		}),
		OrphanedAppointments: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orphaned_appointments_total",
			Help:      "Appointments left behind by a failed rollback",
		}),
		Transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transactions_total",
			Help:      "Finalized payments by method",
		}, []string{"method"}),
		RealtimeEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "realtime_events_total",
			Help:      "Table change events published",
		}, []string{"table"}),
		RealtimeSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "realtime_subscribers",
			Help:      "Current number of realtime subscribers",
		}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_total",
			Help:      "Notification send attempts by kind and status",
		}, []string{"kind", "status"}),
		ReminderRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reminder_run_duration_seconds",
			Help:      "Time spent in one reminder worker pass",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
	}
}

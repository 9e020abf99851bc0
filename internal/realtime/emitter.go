package realtime

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

// Emitter publishes changes on behalf of services. Publishing is best-effort: a failure is
// logged and never fails the write that caused it.
type Emitter struct {
	pub     Publisher
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

func NewEmitter(pub Publisher, m *metrics.Metrics, log *logger.Logger) *Emitter {
	return &Emitter{pub: pub, metrics: m, logger: log, now: time.Now}
}

func (e *Emitter) Emit(ctx context.Context, op Op, tables ...Table) {
	for _, table := range tables {
		e.metrics.RealtimeEvents.WithLabelValues(string(table)).Inc()
		if err := e.pub.Publish(ctx, Change{Table: table, Op: op, At: e.now()}); err != nil {
			e.logger.Error(err, "failed to publish change", "table", string(table), "op", string(op))
		}
	}
}

package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/schedule"
	"github.com/jwalitptl/clinic-booking/internal/service/appointment"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

type recordingSender struct {
	mu    sync.Mutex
	dates []model.Date
	err   error
}

func (r *recordingSender) SendDueReminders(ctx context.Context, date model.Date) (appointment.ReminderSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dates = append(r.dates, date)
	if r.err != nil {
		return appointment.ReminderSummary{}, r.err
	}
	return appointment.ReminderSummary{Sent: 2, Skipped: 1}, nil
}

func (r *recordingSender) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dates)
}

var wib = time.FixedZone("WIB", 7*60*60)

func newWorker(t *testing.T, sender ReminderSender, cfg ReminderWorkerConfig) *ReminderWorker {
	t.Helper()
	// 06:00 local is still the previous day in UTC.
	clock := schedule.FixedClock(time.Date(2025, 6, 1, 6, 0, 0, 0, wib))
	m := metrics.NewMetrics("test", "worker", prometheus.NewRegistry())
	w, err := NewReminderWorker(sender, clock, cfg, logger.Nop(), m)
	require.NoError(t, err)
	return w
}

func TestNewReminderWorkerRejectsBadConfig(t *testing.T) {
	_, err := NewReminderWorker(&recordingSender{}, schedule.FixedClock(time.Now()), ReminderWorkerConfig{}, logger.Nop(), nil)
	assert.Error(t, err)

	_, err = NewReminderWorker(&recordingSender{}, schedule.FixedClock(time.Now()), ReminderWorkerConfig{PollInterval: time.Minute, LeadDays: -1}, logger.Nop(), nil)
	assert.Error(t, err)
}

func TestRunOnceTargetsLeadDate(t *testing.T) {
	sender := &recordingSender{}
	w := newWorker(t, sender, ReminderWorkerConfig{PollInterval: time.Minute, LeadDays: 1})

	summary, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sent)
	require.Len(t, sender.dates, 1)
	assert.Equal(t, model.NewDate(2025, 6, 2), sender.dates[0])
}

func TestRunOnceReturnsStoreError(t *testing.T) {
	sender := &recordingSender{err: errors.New("database unavailable")}
	w := newWorker(t, sender, ReminderWorkerConfig{PollInterval: time.Minute})

	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestStartRunsUntilCancelled(t *testing.T) {
	sender := &recordingSender{}
	w := newWorker(t, sender, ReminderWorkerConfig{PollInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sender.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

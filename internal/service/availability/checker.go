// Package availability runs debounced slot checks for interactive booking forms.
package availability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

const DefaultDelay = 500 * time.Millisecond

// SlotLookup answers whether a slot is held by a non-cancelled appointment.
type SlotLookup interface {
	IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, t model.Clock) (bool, error)
}

type Query struct {
	DoctorID uuid.UUID   `json:"doctor_id"`
	Date     model.Date  `json:"date"`
	Time     model.Clock `json:"time"`
}

// Result of a check. When Err is set Taken is meaningless and the slot must be treated as
// unavailable.
type Result struct {
	Query Query `json:"query"`
	Taken bool  `json:"taken"`
	Err   error `json:"-"`
}

func (r Result) Available() bool {
	return r.Err == nil && !r.Taken
}

// Checker waits for the input to settle before querying and only ever reports the latest
// request. A new Request cancels the pending or in-flight one; a superseded result that still
// arrives is dropped.
type Checker struct {
	lookup SlotLookup
	delay  time.Duration

	mu     sync.Mutex
	gen    uint64
	timer  *time.Timer
	cancel context.CancelFunc

	// applyMu serializes apply calls; the generation is rechecked while it is held.
	applyMu sync.Mutex
}

func NewChecker(lookup SlotLookup, delay time.Duration) *Checker {
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Checker{lookup: lookup, delay: delay}
}

// Request schedules a check of q. apply runs on a separate goroutine at most once, and only
// if no newer Request was made by the time the lookup returns. Calls to apply never overlap,
// so once a result is applied no older one can follow it. apply must not block on another
// check's apply.
func (c *Checker) Request(ctx context.Context, q Query, apply func(Result)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.gen++
	gen := c.gen

	checkCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.timer = time.AfterFunc(c.delay, func() {
		taken, err := c.lookup.IsSlotTaken(checkCtx, q.DoctorID, q.Date, q.Time)

		c.applyMu.Lock()
		defer c.applyMu.Unlock()
		if !c.current(gen) {
			return
		}
		apply(Result{Query: q, Taken: taken, Err: err})
	})
}

// Cancel drops any pending or in-flight check.
func (c *Checker) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.gen++
}

func (c *Checker) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

func (c *Checker) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Package realtime propagates "table changed" signals to subscribers. A signal carries no row
// data; receivers refetch whatever they display.
package realtime

import (
	"context"
	"sync"
	"time"
)

type Table string

const (
	TableAppointments   Table = "appointments"
	TableMedicalRecords Table = "medical_records"
	TableTransactions   Table = "transactions"
)

// Tables lists every table that emits changes.
var Tables = []Table{TableAppointments, TableMedicalRecords, TableTransactions}

func (t Table) Valid() bool {
	for _, known := range Tables {
		if t == known {
			return true
		}
	}
	return false
}

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change says that some row of Table changed.
type Change struct {
	Table  Table     `json:"table"`
	Op     Op        `json:"op"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin,omitempty"`
}

// Publisher emits changes. Implementations must not block on slow subscribers.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

type subscription struct {
	table    Table
	callback func(Change)

	mu     sync.Mutex
	latest Change

	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

// Hub fans changes out to in-process subscribers. Each subscriber runs its callback on its own
// goroutine; changes that arrive while a callback is running collapse into one more call.
type Hub struct {
	mu   sync.RWMutex
	subs map[Table]map[*subscription]struct{}
}

var _ Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{subs: make(map[Table]map[*subscription]struct{})}
}

// Subscribe registers callback for changes on table. The returned func stops delivery and is
// safe to call more than once.
func (h *Hub) Subscribe(table Table, callback func(Change)) (unsubscribe func()) {
	sub := &subscription{
		table:    table,
		callback: callback,
		signal:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs[table] == nil {
		h.subs[table] = make(map[*subscription]struct{})
	}
	h.subs[table][sub] = struct{}{}
	h.mu.Unlock()

	go sub.run()

	return func() {
		sub.once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[table]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, table)
				}
			}
			h.mu.Unlock()
			close(sub.done)
		})
	}
}

func (h *Hub) Publish(_ context.Context, change Change) error {
	if change.At.IsZero() {
		change.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[change.Table] {
		sub.mu.Lock()
		sub.latest = change
		sub.mu.Unlock()

		select {
		case sub.signal <- struct{}{}:
		default:
			// a signal is already pending; the subscriber will see the latest change
		}
	}
	return nil
}

// SubscriberCount returns the number of subscribers of table.
func (h *Hub) SubscriberCount(table Table) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
			s.mu.Lock()
			change := s.latest
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.callback(change)
		}
	}
}

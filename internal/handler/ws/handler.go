// Package ws serves the realtime websocket. Clients subscribe to tables and receive a
// "changed" message to refetch, and may run debounced slot checks over the same socket.
package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/internal/service/availability"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
	sendBuffer = 64
)

// Subscriber registers table callbacks.
type Subscriber interface {
	Subscribe(table realtime.Table, callback func(realtime.Change)) (unsubscribe func())
}

// ClientMessage is an inbound message.
type ClientMessage struct {
	Action   string   `json:"action"`
	Tables   []string `json:"tables,omitempty"`
	DoctorID string   `json:"doctor_id,omitempty"`
	Date     string   `json:"date,omitempty"`
	Time     string   `json:"time,omitempty"`
}

// ServerMessage is an outbound message.
type ServerMessage struct {
	Type      string           `json:"type"`
	Change    *realtime.Change `json:"change,omitempty"`
	Slot      *SlotResult      `json:"slot,omitempty"`
	Tables    []realtime.Table `json:"tables,omitempty"`
	Message   string           `json:"message,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type SlotResult struct {
	DoctorID  uuid.UUID   `json:"doctor_id"`
	Date      model.Date  `json:"date"`
	Time      model.Clock `json:"time"`
	Taken     bool        `json:"taken"`
	Available bool        `json:"available"`
	Error     string      `json:"error,omitempty"`
}

type Config struct {
	Debounce       time.Duration
	AllowedOrigins []string
}

type Handler struct {
	hub      Subscriber
	lookup   availability.SlotLookup
	cfg      Config
	upgrader gorillawebsocket.Upgrader
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewHandler(hub Subscriber, lookup availability.SlotLookup, cfg Config, m *metrics.Metrics, log *logger.Logger) *Handler {
	h := &Handler{
		hub:     hub,
		lookup:  lookup,
		cfg:     cfg,
		metrics: m,
		logger:  log,
	}
	h.upgrader = gorillawebsocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ws", h.Connect)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range h.cfg.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Connect upgrades the request and serves the session until the client goes away.
func (h *Handler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the error response
		h.logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}

	s := &session{
		h:       h,
		conn:    conn,
		send:    make(chan ServerMessage, sendBuffer),
		subs:    make(map[realtime.Table]func()),
		checker: availability.NewChecker(h.lookup, h.cfg.Debounce),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	h.metrics.RealtimeSubscribers.Inc()
	go s.writePump()
	s.readPump()
}

type session struct {
	h    *Handler
	conn *gorillawebsocket.Conn
	send chan ServerMessage

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	subs    map[realtime.Table]func()
	closed  bool
	checker *availability.Checker
}

func (s *session) readPump() {
	defer s.close()

	s.conn.SetReadLimit(maxMessage)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if gorillawebsocket.IsUnexpectedCloseError(err, gorillawebsocket.CloseGoingAway, gorillawebsocket.CloseNormalClosure) {
				s.h.logger.Warn("websocket closed unexpectedly", "error", err.Error())
			}
			return
		}
		s.handle(msg)
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(gorillawebsocket.CloseMessage, gorillawebsocket.FormatCloseMessage(gorillawebsocket.CloseNormalClosure, ""))
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.cancel()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(gorillawebsocket.PingMessage, nil); err != nil {
				s.cancel()
				return
			}
		}
	}
}

func (s *session) handle(msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		s.subscribe(msg.Tables)
	case "unsubscribe":
		s.unsubscribe(msg.Tables)
	case "check_slot":
		s.checkSlot(msg)
	default:
		s.push(ServerMessage{Type: "error", Message: "unknown action " + msg.Action})
	}
}

func (s *session) subscribe(tables []string) {
	var added []realtime.Table
	s.mu.Lock()
	for _, raw := range tables {
		table := realtime.Table(raw)
		if !table.Valid() {
			continue
		}
		if _, ok := s.subs[table]; ok {
			continue
		}
		s.subs[table] = s.h.hub.Subscribe(table, func(change realtime.Change) {
			s.push(ServerMessage{Type: "changed", Change: &change})
		})
		added = append(added, table)
	}
	s.mu.Unlock()

	s.push(ServerMessage{Type: "subscribed", Tables: added})
}

func (s *session) unsubscribe(tables []string) {
	var removed []realtime.Table
	s.mu.Lock()
	for _, raw := range tables {
		table := realtime.Table(raw)
		if unsubscribe, ok := s.subs[table]; ok {
			unsubscribe()
			delete(s.subs, table)
			removed = append(removed, table)
		}
	}
	s.mu.Unlock()

	s.push(ServerMessage{Type: "unsubscribed", Tables: removed})
}

func (s *session) checkSlot(msg ClientMessage) {
	doctorID, err := uuid.Parse(msg.DoctorID)
	if err != nil {
		s.push(ServerMessage{Type: "error", Message: "doctor_id must be a valid id"})
		return
	}
	date, err := model.ParseDate(msg.Date)
	if err != nil {
		s.push(ServerMessage{Type: "error", Message: "date must be formatted YYYY-MM-DD"})
		return
	}
	t, err := model.ParseClock(msg.Time)
	if err != nil {
		s.push(ServerMessage{Type: "error", Message: "time must be formatted HH:MM"})
		return
	}

	q := availability.Query{DoctorID: doctorID, Date: date, Time: t}
	s.checker.Request(s.ctx, q, func(r availability.Result) {
		result := &SlotResult{
			DoctorID:  r.Query.DoctorID,
			Date:      r.Query.Date,
			Time:      r.Query.Time,
			Taken:     r.Taken,
			Available: r.Available(),
		}
		if r.Err != nil {
			result.Error = "availability unknown, please retry"
		}
		s.push(ServerMessage{Type: "slot", Slot: result})
	})
}

// push queues msg without blocking. A client too slow to drain its buffer misses messages;
// every message only asks it to refetch.
func (s *session) push(msg ServerMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- msg:
	default:
		s.h.logger.Debug("websocket client is slow, dropping message", "type", msg.Type)
	}
}

func (s *session) close() {
	s.checker.Cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, unsubscribe := range subs {
		unsubscribe()
	}
	s.cancel()
	s.h.metrics.RealtimeSubscribers.Dec()
}


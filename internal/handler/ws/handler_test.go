package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/realtime"
	"github.com/jwalitptl/clinic-booking/pkg/logger"
	"github.com/jwalitptl/clinic-booking/pkg/metrics"
)

type takenAt model.Clock

func (t takenAt) IsSlotTaken(ctx context.Context, doctorID uuid.UUID, date model.Date, c model.Clock) (bool, error) {
	return c == model.Clock(t), nil
}

func dial(t *testing.T, hub *realtime.Hub) *gorillawebsocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := metrics.NewMetrics("test", "ws", prometheus.NewRegistry())
	h := NewHandler(hub, takenAt(model.NewClock(10, 0)), Config{Debounce: 50 * time.Millisecond}, m, logger.Nop())

	r := gin.New()
	h.RegisterRoutes(r.Group(""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := gorillawebsocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *gorillawebsocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestSubscribeReceivesChanges(t *testing.T) {
	hub := realtime.NewHub()
	conn := dial(t, hub)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "subscribe", Tables: []string{"appointments", "bogus"}}))
	ack := read(t, conn)
	assert.Equal(t, "subscribed", ack.Type)
	assert.Equal(t, []realtime.Table{realtime.TableAppointments}, ack.Tables)

	require.NoError(t, hub.Publish(context.Background(), realtime.Change{Table: realtime.TableAppointments, Op: realtime.OpInsert}))
	msg := read(t, conn)
	assert.Equal(t, "changed", msg.Type)
	require.NotNil(t, msg.Change)
	assert.Equal(t, realtime.OpInsert, msg.Change.Op)

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "unsubscribe", Tables: []string{"appointments"}}))
	assert.Equal(t, "unsubscribed", read(t, conn).Type)
	assert.Eventually(t, func() bool { return hub.SubscriberCount(realtime.TableAppointments) == 0 }, time.Second, 10*time.Millisecond)
}

func TestCheckSlotReportsLatestQuery(t *testing.T) {
	conn := dial(t, realtime.NewHub())
	doctorID := uuid.NewString()

	for _, at := range []string{"10:00", "10:30"} {
		require.NoError(t, conn.WriteJSON(ClientMessage{Action: "check_slot", DoctorID: doctorID, Date: "2025-06-02", Time: at}))
	}

	msg := read(t, conn)
	assert.Equal(t, "slot", msg.Type)
	require.NotNil(t, msg.Slot)
	assert.Equal(t, model.NewClock(10, 30), msg.Slot.Time)
	assert.True(t, msg.Slot.Available)
}

func TestCheckSlotRejectsBadInput(t *testing.T) {
	conn := dial(t, realtime.NewHub())

	require.NoError(t, conn.WriteJSON(ClientMessage{Action: "check_slot", DoctorID: "x"}))
	msg := read(t, conn)
	assert.Equal(t, "error", msg.Type)
}

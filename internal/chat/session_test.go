package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// sessionHarness runs real sessions behind an httptest server so the pumps
// exercise an actual WebSocket transport.
type sessionHarness struct {
	registry    *Registry
	broadcaster *Broadcaster
	policy      *AdmissionPolicy
	srv         *httptest.Server
}

func newSessionHarness(t *testing.T, capacity int) *sessionHarness {
	t.Helper()

	h := &sessionHarness{
		registry:    NewRegistry(),
		broadcaster: newTestBroadcaster(),
	}
	h.policy = NewAdmissionPolicy(h.registry, capacity)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		handle := uuid.New()
		if h.policy.Admit(roomID, handle) == RoomFull {
			http.Error(w, "room full", http.StatusConflict)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.registry.RemoveParticipant(roomID, handle)
			return
		}
		NewSession(testLogger(), conn, h.registry, h.broadcaster, roomID, handle, SessionConfig{
			MaxMessageSize:  512,
			RateLimitBurst:  100,
			RateLimitRefill: time.Second,
		}).Run()
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *sessionHarness) dial(t *testing.T, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/?room=" + room
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func waitForMembers(t *testing.T, reg *Registry, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r, err := reg.GetRoom(room); err == nil && r.MemberCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %q never reached %d members", room, want)
}

func TestSessionBroadcastsToEveryParticipant(t *testing.T) {
	h := newSessionHarness(t, 2)

	alice := h.dial(t, "abc")
	bob := h.dial(t, "abc")
	waitForMembers(t, h.registry, "abc", 2)

	require.NoError(t, alice.WriteJSON(Envelope{Message: "hello"}))

	require.Equal(t, "hello", readEnvelope(t, alice).Message)
	require.Equal(t, "hello", readEnvelope(t, bob).Message)
}

func TestSessionDeliversHistoryBeforeLive(t *testing.T) {
	h := newSessionHarness(t, 2)

	h.broadcaster.Publish("r2", "old1")
	h.broadcaster.Publish("r2", "old2")

	conn := h.dial(t, "r2")
	require.Equal(t, "old1", readEnvelope(t, conn).Message)
	require.Equal(t, "old2", readEnvelope(t, conn).Message)

	h.broadcaster.Publish("r2", "live")
	require.Equal(t, "live", readEnvelope(t, conn).Message)
}

func TestSessionDropsEmptyAndMalformedPayloads(t *testing.T) {
	h := newSessionHarness(t, 2)

	conn := h.dial(t, "r")
	waitForMembers(t, h.registry, "r", 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(Envelope{Message: ""}))
	require.NoError(t, conn.WriteJSON(map[string]string{"other": "field"}))
	require.NoError(t, conn.WriteJSON(Envelope{Message: "ok"}))

	// Only the valid, non-empty payload is published.
	require.Equal(t, "ok", readEnvelope(t, conn).Message)
	history := h.broadcaster.History("r")
	require.Len(t, history, 1)
	require.Equal(t, "ok", history[0].Text)
}

func TestSessionTeardownOnDisconnect(t *testing.T) {
	h := newSessionHarness(t, 2)

	leaver := h.dial(t, "r")
	stayer := h.dial(t, "r")
	waitForMembers(t, h.registry, "r", 2)

	require.NoError(t, leaver.Close())
	waitForMembers(t, h.registry, "r", 1)

	// Publishing after the disconnect neither errors nor loses delivery to
	// the remaining participant.
	h.broadcaster.Publish("r", "still here")
	require.Equal(t, "still here", readEnvelope(t, stayer).Message)
}

func TestSessionSlotReusableAfterDisconnect(t *testing.T) {
	h := newSessionHarness(t, 2)

	first := h.dial(t, "r")
	h.dial(t, "r")
	waitForMembers(t, h.registry, "r", 2)

	require.NoError(t, first.Close())
	waitForMembers(t, h.registry, "r", 1)

	h.dial(t, "r")
	waitForMembers(t, h.registry, "r", 2)
}

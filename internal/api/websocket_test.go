package api

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gymlink/gymlink-relay/internal/relay"
)

const readWait = 2 * time.Second

// dialWS connects a websocket client to the test server's handshake endpoint.
func dialWS(t *testing.T, ts *httptest.Server, gymID, secret, connType string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	u := fmt.Sprintf("%s/ws?gymId=%s&secret=%s&type=%s",
		wsURL, url.QueryEscape(gymID), url.QueryEscape(secret), url.QueryEscape(connType))

	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v (resp: %+v)", u, err, resp)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEnvelope reads one frame from the connection within readWait.
func readEnvelope(t *testing.T, conn *websocket.Conn) relay.Envelope {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}

	var env relay.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("frame is not a valid envelope: %v (%s)", err, data)
	}
	return env
}

// readStatus reads one frame and asserts it is a bridge-status with the
// given value.
func readStatus(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()

	env := readEnvelope(t, conn)
	if env.Type != relay.MsgTypeBridgeStatus {
		t.Fatalf("frame type = %q, want %q", env.Type, relay.MsgTypeBridgeStatus)
	}
	var status relay.BridgeStatus
	if err := json.Unmarshal(env.Payload, &status); err != nil {
		t.Fatalf("unmarshal bridge-status: %v", err)
	}
	if status.Status != want {
		t.Fatalf("status = %q, want %q", status.Status, want)
	}
}

// assertSilent verifies no frame arrives within a short window.
func assertSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected frame: %s", data)
	}
}

func TestWebSocket_RejectsBadSecret(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	conn := dialWS(t, ts, "gym_1", "wrong-secret", "BRIDGE")

	env := readEnvelope(t, conn)
	if env.Type != relay.MsgTypeError {
		t.Fatalf("frame type = %q, want %q", env.Type, relay.MsgTypeError)
	}
	var payload relay.ErrorPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if payload.Message != "invalid secret" {
		t.Errorf("message = %q, want %q", payload.Message, "invalid secret")
	}

	// Server closes the socket after the error frame.
	conn.SetReadDeadline(time.Now().Add(readWait)) //nolint:errcheck // test cleanup read
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after rejection")
	}

	// Rejected handshakes touch no relay state.
	if srv.hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after rejection, want 0", srv.hub.ClientCount())
	}
}

func TestWebSocket_RejectsMissingGymID(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	conn := dialWS(t, ts, "", testSecret, "ADMIN")

	env := readEnvelope(t, conn)
	if env.Type != relay.MsgTypeError {
		t.Fatalf("frame type = %q, want %q", env.Type, relay.MsgTypeError)
	}
	var payload relay.ErrorPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if payload.Message != "gymId is required" {
		t.Errorf("message = %q, want %q", payload.Message, "gymId is required")
	}
}

func TestWebSocket_BridgeAdminFlow(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	// Admin connects first and sees the bridge as offline.
	admin := dialWS(t, ts, "gym_1", testSecret, "ADMIN")
	readStatus(t, admin, relay.StatusOffline)

	// Bridge comes online; the group is told.
	bridge := dialWS(t, ts, "gym_1", testSecret, "BRIDGE")
	readStatus(t, admin, relay.StatusOnline)
	readStatus(t, bridge, relay.StatusOnline)

	// Admin sends a command; the bridge receives the original bytes.
	command := `{"type":"cloud-command","payload":{"action":"unlock-door","userId":42,"door":"front"}}`
	if err := admin.WriteMessage(websocket.TextMessage, []byte(command)); err != nil {
		t.Fatalf("write command: %v", err)
	}
	bridge.SetReadDeadline(time.Now().Add(readWait)) //nolint:errcheck // deadline for test read
	_, relayed, err := bridge.ReadMessage()
	if err != nil {
		t.Fatalf("bridge read: %v", err)
	}
	if string(relayed) != command {
		t.Errorf("relayed = %s, want verbatim command", relayed)
	}

	// Bridge reports an event; the admin receives it.
	eventFrame := `{"type":"hardware-event","payload":{"type":"check-in","userId":101}}`
	if err := bridge.WriteMessage(websocket.TextMessage, []byte(eventFrame)); err != nil {
		t.Fatalf("write event: %v", err)
	}
	env := readEnvelope(t, admin)
	if env.Type != relay.MsgTypeHardwareEvent {
		t.Fatalf("admin got %q frame, want %q", env.Type, relay.MsgTypeHardwareEvent)
	}

	// Bridge disconnects; the admin is told it went offline.
	bridge.Close()
	readStatus(t, admin, relay.StatusOffline)
}

func TestWebSocket_InvalidMessageGetsErrorFrame(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	admin := dialWS(t, ts, "gym_1", testSecret, "ADMIN")
	readStatus(t, admin, relay.StatusOffline)

	if err := admin.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := readEnvelope(t, admin)
	if env.Type != relay.MsgTypeError {
		t.Fatalf("frame type = %q, want %q", env.Type, relay.MsgTypeError)
	}

	// The connection stays open after a rejected message.
	if err := admin.WriteMessage(websocket.TextMessage, []byte(`{"type":"cloud-command","payload":{"action":"ping"}}`)); err != nil {
		t.Errorf("connection unusable after rejected message: %v", err)
	}
}

func TestWebSocket_TenantIsolation(t *testing.T) {
	srv := testServer(t, nil)
	ts := httptest.NewServer(srv.buildRouter())
	defer ts.Close()

	adminA := dialWS(t, ts, "gym_1", testSecret, "ADMIN")
	readStatus(t, adminA, relay.StatusOffline)
	adminB := dialWS(t, ts, "gym_2", testSecret, "ADMIN")
	readStatus(t, adminB, relay.StatusOffline)

	bridgeA := dialWS(t, ts, "gym_1", testSecret, "BRIDGE")
	readStatus(t, adminA, relay.StatusOnline)
	readStatus(t, bridgeA, relay.StatusOnline)

	// gym_2's admin sees neither the presence change nor the event.
	if err := bridgeA.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"hardware-event","payload":{"type":"check-in","userId":1}}`)); err != nil {
		t.Fatalf("write event: %v", err)
	}

	env := readEnvelope(t, adminA)
	if env.Type != relay.MsgTypeHardwareEvent {
		t.Fatalf("gym_1 admin got %q, want hardware-event", env.Type)
	}
	assertSilent(t, adminB)
}

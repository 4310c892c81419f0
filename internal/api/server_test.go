package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gymlink/gymlink-relay/internal/event"
	"github.com/gymlink/gymlink-relay/internal/infrastructure/config"
	"github.com/gymlink/gymlink-relay/internal/infrastructure/logging"
	"github.com/gymlink/gymlink-relay/internal/relay"
)

const testSecret = "test-secret"

// testServer creates a Server wired to a real hub and authenticator.
// The events repository is optional.
func testServer(t *testing.T, events event.Repository) *Server {
	t.Helper()

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	hub := relay.NewHub(relay.HubDeps{Logger: log})

	srv, err := New(Deps{
		Config: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.ServerTimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:  log,
		Hub:     hub,
		Auth:    relay.NewAuthenticator(testSecret),
		Events:  events,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return srv
}

// setupEventRepo creates an event repository backed by in-memory SQLite.
func setupEventRepo(t *testing.T) *event.SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gym_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			occurred_at TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return event.NewSQLiteRepository(db)
}

func TestNew_RequiresDependencies(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	hub := relay.NewHub(relay.HubDeps{Logger: log})
	auth := relay.NewAuthenticator(testSecret)

	tests := []struct {
		name string
		deps Deps
	}{
		{"missing logger", Deps{Hub: hub, Auth: auth}},
		{"missing hub", Deps{Logger: log, Auth: auth}},
		{"missing authenticator", Deps{Logger: log, Hub: hub}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
}

func TestRequestID_Generated(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestListEvents(t *testing.T) {
	repo := setupEventRepo(t)
	srv := testServer(t, repo)
	router := srv.buildRouter()

	ctx := context.Background()
	for i, eventType := range []string{"check-in", "door-open", "check-in"} {
		ev := relay.HardwareEvent{
			Type:      eventType,
			UserID:    int64(i + 1),
			GymID:     "gym_1",
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/gyms/gym_1/events?limit=2", nil)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp struct {
		GymID  string        `json:"gym_id"`
		Events []event.Entry `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.GymID != "gym_1" {
		t.Errorf("gym_id = %q, want gym_1", resp.GymID)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("events length = %d, want 2", len(resp.Events))
	}
	// Newest first.
	if resp.Events[0].Type != "check-in" || resp.Events[0].UserID != 3 {
		t.Errorf("events[0] = %+v, want the newest row", resp.Events[0])
	}
}

func TestListEvents_Auth(t *testing.T) {
	srv := testServer(t, setupEventRepo(t))
	router := srv.buildRouter()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer guess", http.StatusUnauthorized},
		{"malformed header", testSecret, http.StatusUnauthorized},
		{"valid secret", "Bearer " + testSecret, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/gyms/gym_1/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestListEvents_BadLimit(t *testing.T) {
	srv := testServer(t, setupEventRepo(t))
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/gyms/gym_1/events?limit=banana", nil)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListEvents_Disabled(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/gyms/gym_1/events", nil)
	req.Header.Set("Authorization", "Bearer "+testSecret)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestNotFound(t *testing.T) {
	srv := testServer(t, nil)
	router := srv.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

package influxdb

import (
	"context"
	"errors"
	"testing"

	"github.com/gymlink/gymlink-relay/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	_, err := Connect(config.InfluxDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1",
		Token:   "token",
		Org:     "gymlink",
		Bucket:  "relay_metrics",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestDisconnectedClientIsSafe(t *testing.T) {
	// A zero-value client must swallow writes and report unhealthy rather
	// than panic; the relay treats telemetry as strictly optional.
	c := &Client{}

	c.WriteRelayMetric("gym_1", "events_relayed", 1)
	c.WritePoint("relay_metrics", nil, map[string]interface{}{"value": 1.0})
	c.Flush()

	if c.IsConnected() {
		t.Error("zero-value client reports connected")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

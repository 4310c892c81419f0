// Package influxdb provides relay telemetry storage for GymLink.
//
// It wraps the official influxdb-client-go v2 library with GymLink-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package records relay throughput per tenant:
//   - relayed hardware events and cloud commands
//   - bridge presence transitions
//   - persistence gateway activity
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "gymlink",
//	    Bucket: "relay_metrics",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteRelayMetric("gym_42", "events_relayed", 1)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
package influxdb

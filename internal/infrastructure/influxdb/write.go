package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRelayMetric writes a single relay measurement to InfluxDB.
//
// This is the primary method for recording relay throughput. The write is
// non-blocking; data is batched and sent asynchronously. A disconnected
// client drops the point silently, telemetry must never stall the relay.
//
// Parameters:
//   - gymID: Tenant the measurement belongs to
//   - measurement: The metric name (e.g., "events_relayed", "bridge_online")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteRelayMetric("gym_42", "events_relayed", 1)
//	client.WriteRelayMetric("gym_42", "bridge_online", 0)
func (c *Client) WriteRelayMetric(gymID string, measurement string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"relay_metrics",
		map[string]string{
			"gym_id":      gymID,
			"measurement": measurement,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit WriteRelayMetric, such as
// persistence gateway queue depth sampled at shutdown.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

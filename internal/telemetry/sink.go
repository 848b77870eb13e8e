package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/radiomesh/internal/pubsub"
)

// Client is the node's telemetry sink.
var _ pubsub.TelemetrySink = (*Client)(nil)

// RecordCounters writes the node's message counters.
//
// This is the node's deferred telemetry publication, called once per
// processing cycle with work done. The write is non-blocking; data is
// batched and sent asynchronously.
//
// Parameters:
//   - sent: Total messages published since startup
//   - received: Total messages dispatched since startup
//   - rssi: Signal strength of the most recent reception
func (c *Client) RecordCounters(sent, received uint64, rssi int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"node_counters",
		map[string]string{
			"node_id": c.nodeID,
		},
		map[string]interface{}{
			"sent":      int64(sent), //nolint:gosec // counters stay far below int64 range
			"received":  int64(received),
			"last_rssi": rssi,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordStatus writes the node's last status string.
//
// Parameters:
//   - status: Human-readable status (e.g. "OK", "channel mismatch")
func (c *Client) RecordStatus(status string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"node_status",
		map[string]string{
			"node_id": c.nodeID,
		},
		map[string]interface{}{
			"status": status,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods. The
// node_id tag is added automatically.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	merged := map[string]string{"node_id": c.nodeID}
	for k, v := range tags {
		merged[k] = v
	}

	point := write.NewPoint(measurement, merged, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// Package telemetry provides InfluxDB connectivity for radiomesh.
//
// It wraps the official influxdb-client-go v2 library as the node's
// telemetry sink: connection management, counter and status writes, and
// health monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Node message counters (sent, received, last RSSI)
//   - Node status strings
//
// # Usage
//
//	cfg := config.TelemetryConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "radiomesh",
//	    Bucket:  "telemetry",
//	}
//
//	client, err := telemetry.Connect(cfg, "node-001")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	node.SetTelemetrySink(client)
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
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// The node already defers telemetry to once per processing cycle; batching
// keeps the network quiet even on busy channels.
package telemetry

package pubsub

import (
	"errors"

	"github.com/nerrad567/radiomesh/internal/transport"
)

// State names the channel state machine's current position.
type State string

const (
	// StateUninitialized means no binding has been attempted yet.
	StateUninitialized State = "uninitialized"

	// StateBinding means the transport (re)initialization sequence is
	// running after a matching link event or standalone bring-up.
	StateBinding State = "binding_transport"

	// StateReady means the binding sequence completed. Check
	// Diagnostics.TransportReady: a failed bring-up leaves the node in
	// Ready with the transport degraded.
	StateReady State = "ready"

	// StateRebinding means steps five to seven of the binding sequence
	// are being repeated after a link or mode event.
	StateRebinding State = "rebinding"

	// StateChannelMismatch means the observed network channel disagrees
	// with the configured one. Entry to Ready is blocked until a link
	// event reports the configured channel.
	StateChannelMismatch State = "channel_mismatch"
)

// Well-known status strings. Status is last-write-wins, human-readable
// and mirrored to the telemetry sink once per processing cycle.
const (
	statusOK              = "OK"
	statusNotInitialized  = "transport not initialized"
	statusInitialized     = "transport initialized"
	statusChannelMismatch = "channel mismatch"
	statusQueueOverflow   = "queue full, dropped oldest message"
)

// sendFailureStatus maps a transport send error onto its enumerated
// status description.
func sendFailureStatus(err error) string {
	switch {
	case errors.Is(err, transport.ErrNotInitialized):
		return "send failed: transport not initialized"
	case errors.Is(err, transport.ErrInvalidArgument):
		return "send failed: invalid argument"
	case errors.Is(err, transport.ErrInternal):
		return "send failed: internal error"
	case errors.Is(err, transport.ErrNoMemory):
		return "send failed: out of memory"
	case errors.Is(err, transport.ErrPeerNotFound):
		return "send failed: peer not found"
	default:
		return "send failed: " + err.Error()
	}
}

// Counters holds the node's monotonic message counts and last-observed
// values. Lifetime equals the process lifetime; nothing is persisted.
type Counters struct {
	Sent       uint64
	Received   uint64
	LastRSSI   int
	LastStatus string
}

// Diagnostics is the summary returned by Node.Describe.
type Diagnostics struct {
	MACAddress        string
	State             State
	ConfiguredChannel int
	ObservedChannel   int // 0 means unknown
	ChannelCompatible bool
	TransportReady    bool
	PowerSave         string
	LastStatus        string
	LastError         string
	Subscriptions     []string
	Sent              uint64
	Received          uint64
	LastRSSI          int
	QueueEvictions    uint64
}

// Logger is the logging interface the node writes to. Compatible with
// logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is the default logger; it discards everything.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// TelemetrySink receives the node's deferred telemetry publication, once
// per processing cycle with work done, never once per message.
type TelemetrySink interface {
	RecordCounters(sent, received uint64, rssi int)
	RecordStatus(status string)
}

// Journal records message traffic for diagnostics. Journal errors are
// logged and never affect dispatch or publishing.
type Journal interface {
	RecordPublished(topic string, payload []byte) error
	RecordReceived(topic string, payload []byte, source string, rssi int) error
}

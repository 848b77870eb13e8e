package transport

import "net"

// MaxFrameSize is the largest frame a single transmission may carry.
// Larger payloads are rejected; the overlay does not fragment.
const MaxFrameSize = 250

// Broadcast is the well-known all-FF destination address. Every frame the
// overlay sends goes to this address; there is no unicast addressing.
var Broadcast = net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// Mode is the radio's operating mode. The overlay requires a station-like
// mode; anything else is forced to ModeStation during binding.
type Mode int

const (
	ModeOff Mode = iota
	ModeStation
	ModeAccessPoint
	ModeStationAccessPoint
)

// Compatible reports whether the overlay can operate in this mode.
func (m Mode) Compatible() bool {
	return m == ModeStation || m == ModeAccessPoint || m == ModeStationAccessPoint
}

// String returns a human-readable mode name for diagnostics.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeStation:
		return "station"
	case ModeAccessPoint:
		return "access_point"
	case ModeStationAccessPoint:
		return "station_access_point"
	default:
		return "unknown"
	}
}

// PowerSave is the radio's power-saving policy.
type PowerSave int

const (
	// PowerSaveNone disables power saving for reliable reception.
	PowerSaveNone PowerSave = iota

	// PowerSaveMin is the typical driver default (modem sleep).
	PowerSaveMin

	// PowerSaveMax is the aggressive policy for standalone send-only nodes.
	PowerSaveMax
)

// String returns a human-readable policy name for diagnostics.
func (p PowerSave) String() string {
	switch p {
	case PowerSaveNone:
		return "none"
	case PowerSaveMin:
		return "min_modem"
	case PowerSaveMax:
		return "max_modem"
	default:
		return "unknown"
	}
}

// ReceiveFunc is invoked asynchronously for every frame received on the
// bound channel. src is the sender's hardware address and rssi the signal
// strength of the reception (0 when the medium cannot report one).
//
// Implementations call it from the receive context; it must not block.
// The frame slice is only valid for the duration of the call.
type ReceiveFunc func(src net.HardwareAddr, rssi int, frame []byte)

// Radio is the driver-level half of the transport.
//
// Errors are classified with the sentinel errors in this package so
// callers can tolerate benign conditions (ErrAlreadyInitialized from
// Init, ErrNotConnected from Start).
type Radio interface {
	// Init initialises the radio driver. Returns ErrAlreadyInitialized
	// when the driver is already up; callers treat that as success.
	Init() error

	// Deinit tears the driver down.
	Deinit() error

	// Start brings the driver up. A standalone bring-up tolerates
	// ErrNotConnected, which only signals that no upstream link exists.
	Start() error

	// Started reports whether the driver is currently running.
	Started() bool

	// Mode returns the current operating mode.
	Mode() (Mode, error)

	// SetMode switches the operating mode.
	SetMode(Mode) error

	// Channel returns the currently tuned radio channel.
	Channel() (int, error)

	// SetChannel forces the radio onto the given channel. All peers must
	// share one channel for broadcast frames to be heard.
	SetChannel(channel int) error

	// PowerSave returns the active power-saving policy.
	PowerSave() (PowerSave, error)

	// SetPowerSave selects the power-saving policy.
	SetPowerSave(PowerSave) error

	// HardwareAddr returns the radio's hardware identity.
	HardwareAddr() (net.HardwareAddr, error)
}

// Messenger is the overlay-level half of the transport: connectionless
// frame exchange with registered peers on the bound channel.
type Messenger interface {
	// Reset tears the messaging layer down and brings it back up in a
	// clean state. Peer and callback registrations do not survive a
	// reset. A reset failure leaves the messenger unusable.
	Reset() error

	// AddPeer registers a destination address on the given channel with
	// no encryption. Returns ErrPeerExists when the peer is already
	// registered; callers treat that as success.
	AddPeer(addr net.HardwareAddr, channel int) error

	// Send transmits a frame to the destination. It begins a best-effort
	// attempt and returns immediately; there is no acknowledgement.
	Send(dst net.HardwareAddr, frame []byte) error

	// RegisterReceive installs the asynchronous receive callback,
	// replacing any previous one.
	RegisterReceive(fn ReceiveFunc) error

	// UnregisterReceive removes the receive callback. Unregistering when
	// none is installed is not an error.
	UnregisterReceive() error
}

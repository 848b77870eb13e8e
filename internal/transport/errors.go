package transport

import "errors"

// Sentinel errors mirroring the radio driver's failure conditions.
// Use errors.Is() to classify errors returned by Radio and Messenger
// implementations.
var (
	// ErrNotInitialized is returned when the messaging layer is used
	// before a successful Reset.
	ErrNotInitialized = errors.New("transport: not initialized")

	// ErrAlreadyInitialized is returned by Init when the driver is
	// already up. Callers tolerate it as success.
	ErrAlreadyInitialized = errors.New("transport: already initialized")

	// ErrNotConnected is returned by Start when the driver came up
	// without an upstream link. Benign for broadcast-only operation.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrNoMemory is returned when the driver cannot allocate a buffer
	// for the operation.
	ErrNoMemory = errors.New("transport: out of memory")

	// ErrInvalidArgument is returned for malformed parameters, including
	// frames exceeding MaxFrameSize.
	ErrInvalidArgument = errors.New("transport: invalid argument")

	// ErrInternal is returned for unspecified driver-internal failures.
	ErrInternal = errors.New("transport: internal error")

	// ErrPeerNotFound is returned by Send when the destination has not
	// been registered as a peer.
	ErrPeerNotFound = errors.New("transport: peer not found")

	// ErrPeerExists is returned by AddPeer when the peer is already
	// registered. Callers tolerate it as success.
	ErrPeerExists = errors.New("transport: peer already exists")
)

package pubsub

import "errors"

// Domain-specific errors for overlay operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotReady is returned by Publish before a successful transport
	// binding. Publishing fails fast; there is no queueing of outbound
	// messages.
	ErrNotReady = errors.New("pubsub: transport not ready")

	// ErrChannelMismatch is returned while the configured channel
	// disagrees with the network stack's observed channel. Send and
	// receive stay blocked until a matching link event clears it.
	ErrChannelMismatch = errors.New("pubsub: channel mismatch")

	// ErrMalformedFrame is returned when received bytes lack the
	// topic/payload separator or carry an empty payload region.
	ErrMalformedFrame = errors.New("pubsub: malformed frame")

	// ErrInvalidTopic is returned when an empty topic is published.
	ErrInvalidTopic = errors.New("pubsub: topic cannot be empty")

	// ErrInvalidChannel is returned for channels outside 1-14.
	ErrInvalidChannel = errors.New("pubsub: channel must be between 1 and 14")
)

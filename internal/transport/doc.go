// Package transport defines the radio abstraction the pub/sub overlay is
// built on: a connectionless, broadcast-only, best-effort medium shared by
// peer nodes on a single radio channel.
//
// Two interfaces split the surface the way radio SDKs do:
//
//   - Radio covers driver-level operations: mode, driver lifecycle,
//     channel selection, power-save policy and hardware identity.
//   - Messenger covers overlay-level operations: peer registration,
//     frame transmission and the asynchronous receive callback.
//
// Concrete implementations live in subpackages: udpradio maps the shared
// radio channel onto a UDP broadcast port for LAN deployments, memradio
// provides an in-process bus for tests and loopback demos.
//
// # Receive context
//
// The receive callback is invoked from the transport's own execution
// context, analogous to an interrupt handler. Callbacks must be fast,
// must not block and must not perform long-running work; the overlay's
// callback only validates and queues the frame.
package transport

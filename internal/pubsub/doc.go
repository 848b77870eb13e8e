// Package pubsub implements a brokerless publish/subscribe overlay on a
// broadcast-only, best-effort radio transport.
//
// Nodes subscribe to MQTT-style hierarchical topic patterns (`+` matches a
// single level, a trailing `#` matches all remaining levels) and exchange
// short topic/payload messages with every peer on the shared channel.
// There is no acknowledgement, no ordering across senders and no
// guaranteed delivery.
//
// # Components
//
//   - Matches: the pure topic-matching function
//   - Registry: the ordered subscription collection
//   - Queue: the bounded inbound queue bridging the receive and
//     processing contexts
//   - Dispatcher: queue drain and handler invocation
//   - Node: the channel state machine, binding sequence, publish path
//     and counters, tied together behind the host-facing API
//
// # Execution contexts
//
// Two contexts exist. The transport invokes the receive callback
// asynchronously; its only job is to validate the frame, split it into
// topic and payload and push it onto the Queue, which never blocks. The
// host drives the processing context by calling Node.Tick periodically;
// all matching, dispatch and telemetry publication happens there. Tick
// reports when it has nothing left to do so the host can suspend the loop
// until the Queue's wake signal re-arms it.
//
// # Wire format
//
// A frame is topic bytes, a single zero byte, then payload bytes. No
// length prefix; the topic ends at the first zero byte. Frames without a
// separator before the final byte, or with an empty payload region, are
// malformed and dropped.
package pubsub

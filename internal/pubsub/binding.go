package pubsub

import (
	"errors"
	"fmt"

	"github.com/nerrad567/radiomesh/internal/transport"
)

// Setup performs the initial transport binding.
//
// Standalone nodes run the extended bring-up (driver init, forced station
// mode, forced start) followed by the full binding sequence. Nodes with a
// managed network stack bind immediately when the link is already up,
// otherwise they wait for HandleNetworkEvent to deliver a link event.
//
// Binding failures are recoverable: the returned error is informational
// and the node keeps running; a later network event retries the binding.
func (n *Node) Setup() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.standalone {
		if err := n.standaloneBringUpLocked(); err != nil {
			return err
		}
		return n.bindLocked()
	}

	// Managed network stack: bind now if the link is already up.
	if n.radio.Started() {
		if ch, err := n.radio.Channel(); err == nil && ch > 0 {
			return n.handleLinkEstablishedLocked(ch)
		}
	}

	n.setStatusLocked("waiting for link")
	n.logger.Info("waiting for network link before binding transport")
	return nil
}

// HandleNetworkEvent feeds a discrete network-stack event into the
// channel state machine. Safe to call from the stack's event goroutine.
func (n *Node) HandleNetworkEvent(ev transport.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.logger.Debug("network event", "event", ev.Type.String(), "channel", ev.Channel)

	switch ev.Type {
	case transport.EventLinkEstablished:
		if ev.Channel <= 0 {
			// Link up but channel not yet known; wait for the next event.
			return
		}
		//nolint:errcheck // outcome recorded in status and lastErr
		_ = n.handleLinkEstablishedLocked(ev.Channel)

	case transport.EventLinkLost, transport.EventModeStarted, transport.EventModeStopped:
		if n.state == StateUninitialized {
			// Nothing bound yet; the link event will do the first binding.
			return
		}
		if mode, err := n.radio.Mode(); err != nil || !mode.Compatible() {
			n.logger.Warn("skipping rebind, radio mode not compatible", "mode", mode.String())
			return
		}
		//nolint:errcheck // outcome recorded in status and lastErr
		_ = n.rebindLocked()
	}
}

// handleLinkEstablishedLocked records the observed channel and either
// blocks on a mismatch or runs the full binding sequence.
func (n *Node) handleLinkEstablishedLocked(observed int) error {
	n.observedChannel = observed
	n.compatible = observed == n.channel

	if !n.compatible {
		n.state = StateChannelMismatch
		n.lastErr = ErrChannelMismatch
		n.setStatusLocked(statusChannelMismatch)
		n.logger.Error("configured channel does not match network channel",
			"configured", n.channel,
			"observed", observed,
		)
		return ErrChannelMismatch
	}
	return n.bindLocked()
}

// standaloneBringUpLocked is the extended bring-up for nodes with no
// managed network stack: explicit driver initialization (tolerating an
// already-initialized driver), forced station mode, forced start
// (tolerating the benign not-connected condition).
func (n *Node) standaloneBringUpLocked() error {
	if err := n.radio.Init(); err != nil {
		if !errors.Is(err, transport.ErrAlreadyInitialized) {
			n.lastErr = err
			n.setStatusLocked("transport init failed: " + err.Error())
			return fmt.Errorf("initializing radio driver: %w", err)
		}
		n.logger.Debug("radio driver already initialized")
	}

	if err := n.radio.SetMode(transport.ModeStation); err != nil {
		n.lastErr = err
		n.setStatusLocked("transport init failed: " + err.Error())
		return fmt.Errorf("setting station mode: %w", err)
	}

	if err := n.radio.Start(); err != nil && !errors.Is(err, transport.ErrNotConnected) {
		n.lastErr = err
		n.setStatusLocked("transport init failed: " + err.Error())
		return fmt.Errorf("starting radio driver: %w", err)
	}
	return nil
}

// bindLocked runs the full binding sequence, steps one to seven.
// Steps one to three are best-effort: failures are logged and recorded
// but only a driver start failure aborts the attempt.
func (n *Node) bindLocked() error {
	n.state = StateBinding
	n.transportReady = false

	// 1. Ensure the radio is in a compatible mode, defaulting to station.
	mode, err := n.radio.Mode()
	if err != nil || !mode.Compatible() {
		if setErr := n.radio.SetMode(transport.ModeStation); setErr != nil {
			n.lastErr = setErr
			n.logger.Error("failed to set radio mode", "error", setErr)
		}
	}

	// 2. Ensure the radio driver is started.
	if !n.radio.Started() {
		if startErr := n.radio.Start(); startErr != nil && !errors.Is(startErr, transport.ErrNotConnected) {
			n.lastErr = startErr
			n.setStatusLocked("transport init failed: " + startErr.Error())
			n.logger.Error("failed to start radio driver", "error", startErr)
			n.state = n.settledStateLocked()
			return fmt.Errorf("starting radio driver: %w", startErr)
		}
	}

	// 3. Force the radio onto the configured channel.
	if chErr := n.radio.SetChannel(n.channel); chErr != nil {
		n.lastErr = chErr
		n.logger.Error("failed to set radio channel", "channel", n.channel, "error", chErr)
	} else if n.observedChannel == 0 {
		// No network stack reports a channel in standalone mode; the
		// forced channel is the observed one.
		n.observedChannel = n.channel
		n.compatible = true
	}

	// 4. Select the power-saving policy: reliable reception wins when
	// anything subscribes, efficiency wins for standalone send-only
	// nodes, otherwise the driver default stays.
	switch {
	case n.registry.Len() > 0:
		if psErr := n.radio.SetPowerSave(transport.PowerSaveNone); psErr != nil {
			n.lastErr = psErr
			n.logger.Warn("failed to disable power save", "error", psErr)
		}
	case n.standalone:
		if psErr := n.radio.SetPowerSave(transport.PowerSaveMax); psErr != nil {
			n.lastErr = psErr
			n.logger.Warn("failed to enable power save", "error", psErr)
		}
	}

	return n.finishBindingLocked()
}

// rebindLocked repeats steps five to seven after a link or mode event.
// Mode, driver start and channel are assumed correct from the prior
// successful binding.
func (n *Node) rebindLocked() error {
	n.state = StateRebinding
	return n.finishBindingLocked()
}

// finishBindingLocked runs steps five to seven: transport reset,
// broadcast peer registration and receive callback registration. Peer
// and callback registration are idempotent, so re-entering any number of
// times leaves the transport singly registered.
func (n *Node) finishBindingLocked() error {
	// 5. Reset the transport's internal state. Failure is fatal for this
	// binding attempt and leaves the transport degraded.
	if err := n.messenger.Reset(); err != nil {
		n.transportReady = false
		n.lastErr = err
		n.setStatusLocked("transport init failed: " + err.Error())
		n.logger.Error("transport reset failed", "error", err)
		n.state = n.settledStateLocked()
		return fmt.Errorf("resetting transport: %w", err)
	}
	n.transportReady = true
	n.setStatusLocked(statusInitialized)

	// 6. Register the well-known broadcast destination as a
	// non-encrypted peer. An existing registration counts as success.
	if err := n.messenger.AddPeer(transport.Broadcast, n.channel); err != nil && !errors.Is(err, transport.ErrPeerExists) {
		n.lastErr = err
		n.logger.Error("failed to register broadcast peer", "error", err)
	}

	// 7. Receive callback only when something subscribes; otherwise make
	// sure none is installed.
	if n.registry.Len() > 0 {
		if err := n.messenger.RegisterReceive(n.handleReceive); err != nil {
			n.lastErr = err
			n.logger.Error("failed to register receive callback", "error", err)
		}
	} else if err := n.messenger.UnregisterReceive(); err != nil {
		n.logger.Warn("failed to unregister receive callback", "error", err)
	}

	n.state = n.settledStateLocked()
	n.pendingTelemetry = true
	n.logger.Info("transport bound",
		"state", string(n.state),
		"channel", n.channel,
		"subscriptions", n.registry.Len(),
	)
	return nil
}

// settledStateLocked is the state to settle in after a binding attempt:
// a known channel mismatch keeps blocking Ready until cleared.
func (n *Node) settledStateLocked() State {
	if !n.compatible {
		return StateChannelMismatch
	}
	return StateReady
}

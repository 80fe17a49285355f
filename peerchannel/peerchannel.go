// Package peerchannel provides the typed send/receive facade applications
// use instead of talking to a DataChannel directly: one method per message
// variant, typed event subscription, and an expect/confirm contract for
// request-response flows. It also enforces reject-loop-safety: a REJECT
// that itself fails to parse never produces another REJECT.
package peerchannel

import (
	"fmt"
	"sync"
	"time"

	"novapeer/blockchain"
	"novapeer/cache"
	"novapeer/datachannel"
	"novapeer/wire"
)

// DefaultExpectTimeout bounds how long ExpectMessage waits for a reply
// before treating the peer as unresponsive.
const DefaultExpectTimeout = 30 * time.Second

// seenInvCacheSize bounds how many inventory hashes a PeerChannel remembers
// when deduplicating inbound INV announcements from this peer.
const seenInvCacheSize = 4096

// PeerChannel is a typed facade over a DataChannel for a single peer
// connection.
type PeerChannel struct {
	dc     *datachannel.DataChannel
	nodeID string

	seenInv *cache.LRU[blockchain.Hash, struct{}]

	mu       sync.Mutex
	handlers map[wire.Type][]func(*wire.Message)
	onClose  []func(CloseType, error)
	closed   bool
}

// New wraps dc in a PeerChannel identified by nodeID (the peer's advertised
// node identity, or "" before the handshake completes).
func New(dc *datachannel.DataChannel, nodeID string) *PeerChannel {
	pc := &PeerChannel{
		dc:       dc,
		nodeID:   nodeID,
		seenInv:  cache.NewLRU[blockchain.Hash, struct{}](seenInvCacheSize),
		handlers: make(map[wire.Type][]func(*wire.Message)),
	}
	dc.OnMessage(pc.handleFrame)
	dc.OnClose(func(err error) {
		if err != nil {
			pc.closeWith(CloseNetworkError, err)
		} else {
			pc.closeWith(CloseNormal, nil)
		}
	})
	return pc
}

// NodeID returns the peer's advertised node identity.
func (pc *PeerChannel) NodeID() string {
	return pc.nodeID
}

// SetNodeID records the peer's node identity once the VERSION handshake
// confirms it.
func (pc *PeerChannel) SetNodeID(id string) {
	pc.mu.Lock()
	pc.nodeID = id
	pc.mu.Unlock()
}

// On registers fn to be called for every inbound message of type t, in
// arrival order, after any pending ExpectMessage for t has been confirmed.
func (pc *PeerChannel) On(t wire.Type, fn func(*wire.Message)) {
	pc.mu.Lock()
	pc.handlers[t] = append(pc.handlers[t], fn)
	pc.mu.Unlock()
}

// OnClose registers fn to be called once, when the channel closes.
func (pc *PeerChannel) OnClose(fn func(CloseType, error)) {
	pc.mu.Lock()
	pc.onClose = append(pc.onClose, fn)
	pc.mu.Unlock()
}

// ExpectMessage records that a reply of type t is expected within timeout.
// The wait itself is owned by the underlying DataChannel (see
// DataChannel.ExpectMessage): if no message of type t arrives (parsed
// successfully or not, per ConfirmExpectedMessage) within timeout, the
// channel closes with CloseTimeout. A zero timeout uses
// DefaultExpectTimeout.
func (pc *PeerChannel) ExpectMessage(t wire.Type, timeout time.Duration) {
	if timeout <= 0 {
		timeout = DefaultExpectTimeout
	}
	pc.dc.ExpectMessage([]wire.Type{t}, timeout, func() {
		pc.closeWith(CloseTimeout, fmt.Errorf("peerchannel: no %s within %s", t, timeout))
	})
}

// ConfirmExpectedMessage cancels a pending ExpectMessage(t), reporting
// whether one was pending.
func (pc *PeerChannel) ConfirmExpectedMessage(t wire.Type) bool {
	return pc.dc.ConfirmExpectedMessage(t, true)
}

// IsExpectingMessage reports whether a reply of type t is currently
// expected.
func (pc *PeerChannel) IsExpectingMessage(t wire.Type) bool {
	return pc.dc.IsExpectingMessage(t)
}

// handleFrame is the DataChannel message handler: it parses the reassembled
// frame and either dispatches it, rejects it and stays open, or closes the
// connection.
//
// Reject-loop-safety: if the frame fails to parse, and either its type
// cannot be determined or that type is REJECT, the channel closes with
// CloseFailedToParseMessageType and no REJECT is sent. Replying to a
// malformed REJECT with another REJECT is exactly the cascading loop this
// guards against. For any other malformed frame, a single best-effort
// REJECT is sent and the message is dropped, but the connection stays
// open: one bad frame is not yet a peer worth disconnecting.
func (pc *PeerChannel) handleFrame(buf []byte) {
	msg, err := wire.Parse(buf)
	if err != nil {
		t, peekErr := wire.PeekType(buf)
		if peekErr != nil || t == wire.TypeReject {
			pc.closeWith(CloseFailedToParseMessageType, err)
			return
		}
		// The peer did reply, just not with something parseable; resolve
		// any pending expectation for t so it doesn't spuriously time out.
		pc.dc.ConfirmExpectedMessage(t, false)
		_ = pc.SendReject(t, wire.RejectMalformed, err.Error())
		return
	}

	pc.dispatch(msg)
}

func (pc *PeerChannel) dispatch(msg *wire.Message) {
	pc.ConfirmExpectedMessage(msg.Type)

	if msg.Type == wire.TypeInv {
		msg = pc.dedupInv(msg)
		if msg == nil {
			return
		}
	}

	pc.mu.Lock()
	handlers := append([]func(*wire.Message){}, pc.handlers[msg.Type]...)
	pc.mu.Unlock()

	for _, fn := range handlers {
		fn(msg)
	}
}

// dedupInv drops inventory vectors already seen from this peer, returning
// nil if nothing new remains so the caller can skip firing handlers
// entirely.
func (pc *PeerChannel) dedupInv(msg *wire.Message) *wire.Message {
	fresh := make([]wire.InventoryVector, 0, len(msg.Inv.Vectors))
	for _, v := range msg.Inv.Vectors {
		if _, seen := pc.seenInv.Get(v.Hash); seen {
			continue
		}
		pc.seenInv.Set(v.Hash, struct{}{})
		fresh = append(fresh, v)
	}
	if len(fresh) == 0 {
		return nil
	}
	return &wire.Message{Type: wire.TypeInv, Inv: &wire.InvPayload{Vectors: fresh}}
}

func (pc *PeerChannel) send(msg *wire.Message) error {
	frame, err := wire.Serialize(msg)
	if err != nil {
		return fmt.Errorf("peerchannel: %w", err)
	}
	return pc.dc.Send(frame)
}

// Close shuts the channel down cleanly.
func (pc *PeerChannel) Close() error {
	err := pc.dc.Close(nil)
	pc.closeWith(CloseNormal, nil)
	return err
}

// closeWith reports reason/err to OnClose subscribers exactly once and
// closes the underlying DataChannel if it is not already closing.
func (pc *PeerChannel) closeWith(reason CloseType, err error) {
	pc.mu.Lock()
	if pc.closed {
		pc.mu.Unlock()
		return
	}
	pc.closed = true
	handlers := append([]func(CloseType, error){}, pc.onClose...)
	pc.mu.Unlock()

	if reason != CloseNormal {
		pc.dc.Close(err)
	}

	for _, fn := range handlers {
		fn(reason, err)
	}
}

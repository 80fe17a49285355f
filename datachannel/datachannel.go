// Package datachannel implements the chunking and reassembly layer that
// sits between a raw Transport and the typed PeerChannel facade: it splits
// an outbound wire frame into tagged chunks no larger than ChunkSizeMax,
// and reassembles an inbound stream of chunks back into a single frame,
// enforcing that at most one inbound message is ever being assembled at a
// time.
package datachannel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"novapeer/wire"
)

// Chunk and message timeouts. A stalled peer that stops sending chunks
// mid-message is caught by ChunkTimeout long before MessageTimeout would
// ever fire on a well-behaved but slow one. Declared as vars, not consts,
// so tests can shrink them instead of sleeping for the real production
// durations.
var (
	ChunkTimeout   = 5 * time.Second
	MessageTimeout = 3200 * time.Second
)

// tagModulus is UINT8_MAX (255), not 256: tag values only ever range over
// [0, 254]. This is an inherited off-by-one in the wire format (tag 255 is
// never sent) and must be preserved for compatibility.
const tagModulus = 255

// State is the DataChannel's reassembly state.
type State int

const (
	Idle State = iota
	Assembling
)

func (s State) String() string {
	if s == Assembling {
		return "ASSEMBLING"
	}
	return "IDLE"
}

// assembly tracks the one inbound message currently being reassembled.
type assembly struct {
	id          int
	buf         []byte
	expectedLen uint32
	nextTag     uint8
	lastTag     uint8
	chunkTimer  *time.Timer
	msgTimer    *time.Timer
}

// expectation tracks one pending reply, covering one or more message types:
// whichever arrives first (successfully parsed or not) resolves all of
// them. onTimeout fires if none does; resolving or timing out never closes
// the DataChannel itself, since only the caller knows what an unanswered
// reply means for the connection.
type expectation struct {
	id        int
	types     map[wire.Type]bool
	timer     *time.Timer
	onTimeout func()
	done      bool
}

// DataChannel reassembles inbound chunks from, and splits outbound frames
// for, a single Transport.
type DataChannel struct {
	mu        sync.Mutex
	transport Transport
	state     State
	current   *assembly
	outTag    uint8
	msgSeq    int
	closed    bool

	// receivingTag is the last chunk tag accepted across all messages, or -1
	// before the first chunk has ever arrived. A new message's first chunk
	// must continue this sequence: tag == (receivingTag+1) mod tagModulus.
	receivingTag int32

	nextExpectID int
	expecting    map[wire.Type]*expectation

	onMessage []func([]byte)
	onChunk   []func(tag byte, size int)
	onClose   []func(error)
	onError   []func(error)
}

// New wraps transport in a DataChannel, registering itself as the
// transport's chunk receiver.
func New(transport Transport) *DataChannel {
	dc := &DataChannel{
		transport:    transport,
		receivingTag: -1,
		expecting:    make(map[wire.Type]*expectation),
	}
	transport.SetReceiver(dc.receiveChunk)
	return dc
}

// OnMessage registers fn to be called with each fully reassembled inbound
// frame, in arrival order.
func (dc *DataChannel) OnMessage(fn func([]byte)) {
	dc.mu.Lock()
	dc.onMessage = append(dc.onMessage, fn)
	dc.mu.Unlock()
}

// OnChunk registers fn to be called once per inbound chunk, before it has
// necessarily completed a message.
func (dc *DataChannel) OnChunk(fn func(tag byte, size int)) {
	dc.mu.Lock()
	dc.onChunk = append(dc.onChunk, fn)
	dc.mu.Unlock()
}

// OnClose registers fn to be called when the channel closes. err is the
// reason passed to Close: nil for a clean Close, non-nil when a tag or
// framing violation forced the closure or the caller closed with a reason.
// Timeouts never close the channel.
func (dc *DataChannel) OnClose(fn func(error)) {
	dc.mu.Lock()
	dc.onClose = append(dc.onClose, fn)
	dc.mu.Unlock()
}

// OnError registers fn to be called for a non-fatal error: a dropped empty
// chunk, a chunk/message reassembly timeout that dropped the in-flight
// message without closing, or (immediately before the channel closes) a
// tag gap or framing violation.
func (dc *DataChannel) OnError(fn func(error)) {
	dc.mu.Lock()
	dc.onError = append(dc.onError, fn)
	dc.mu.Unlock()
}

// IsAssembling reports whether an inbound message is currently in flight.
func (dc *DataChannel) IsAssembling() bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc.state == Assembling
}

// Send splits frame into ChunkSizeMax-sized tagged chunks and pushes them
// to the transport in order.
func (dc *DataChannel) Send(frame []byte) error {
	dc.mu.Lock()
	if dc.closed {
		dc.mu.Unlock()
		return errors.New("datachannel: send on closed channel")
	}
	tag := dc.outTag
	dc.mu.Unlock()

	for offset := 0; offset < len(frame) || offset == 0; {
		end := offset + wire.ChunkSizeMax
		if end > len(frame) {
			end = len(frame)
		}
		chunk := make([]byte, 1+end-offset)
		chunk[0] = tag
		copy(chunk[1:], frame[offset:end])

		if err := dc.transport.SendChunk(chunk); err != nil {
			return fmt.Errorf("datachannel: send chunk: %w", err)
		}

		tag = nextTag(tag)
		offset = end
		if offset >= len(frame) {
			break
		}
	}

	dc.mu.Lock()
	dc.outTag = tag
	dc.mu.Unlock()
	return nil
}

func nextTag(t uint8) uint8 {
	if int(t)+1 >= tagModulus {
		return 0
	}
	return t + 1
}

// receiveChunk is the Transport's Receiver callback.
func (dc *DataChannel) receiveChunk(chunk []byte) {
	dc.mu.Lock()

	if dc.closed {
		dc.mu.Unlock()
		return
	}

	if len(chunk) == 0 {
		dc.mu.Unlock()
		dc.emitError(errors.New("datachannel: empty chunk dropped"))
		return
	}

	tag := chunk[0]
	body := chunk[1:]

	if len(body) > wire.ChunkSizeMax {
		dc.mu.Unlock()
		dc.fail(fmt.Errorf("datachannel: chunk of %d bytes exceeds ChunkSizeMax", len(body)))
		return
	}

	if dc.state == Assembling && len(body) == 0 {
		dc.mu.Unlock()
		dc.emitError(errors.New("datachannel: empty chunk dropped"))
		return
	}

	if dc.state == Idle {
		if len(body) < wire.HeaderSize {
			dc.mu.Unlock()
			dc.fail(fmt.Errorf("datachannel: first chunk shorter than frame header (%d bytes)", len(body)))
			return
		}
		want := uint8(0)
		if dc.receivingTag >= 0 {
			want = nextTag(uint8(dc.receivingTag))
		}
		if tag != want {
			dc.mu.Unlock()
			dc.fail(fmt.Errorf("datachannel: idle-state first chunk tag %d does not continue sequence (want %d)", tag, want))
			return
		}
		length, err := wire.PeekLength(body)
		if err != nil {
			dc.mu.Unlock()
			dc.fail(fmt.Errorf("datachannel: %w", err))
			return
		}

		dc.msgSeq++
		a := &assembly{
			id:          dc.msgSeq,
			expectedLen: length + wire.HeaderSize,
			nextTag:     tag,
		}
		dc.current = a
		dc.state = Assembling
	}

	a := dc.current
	if tag != a.nextTag {
		dc.mu.Unlock()
		dc.fail(fmt.Errorf("datachannel: tag gap, expected %d got %d", a.nextTag, tag))
		return
	}
	a.lastTag = tag
	a.nextTag = nextTag(tag)

	if a.chunkTimer != nil {
		a.chunkTimer.Stop()
	}
	if a.msgTimer == nil {
		a.msgTimer = time.AfterFunc(MessageTimeout, func() { dc.onMsgTimeout(a.id) })
	}
	a.chunkTimer = time.AfterFunc(ChunkTimeout, func() { dc.onChunkTimeout(a.id) })

	a.buf = append(a.buf, body...)
	complete := uint32(len(a.buf)) >= a.expectedLen
	buf := append([]byte(nil), a.buf...)

	dc.mu.Unlock()

	dc.emitChunk(tag, len(body))

	if complete {
		dc.completeAssembly(a.id, buf)
	}
}

func (dc *DataChannel) completeAssembly(id int, buf []byte) {
	dc.mu.Lock()
	if dc.current == nil || dc.current.id != id {
		dc.mu.Unlock()
		return
	}
	a := dc.current
	a.chunkTimer.Stop()
	a.msgTimer.Stop()
	dc.current = nil
	dc.state = Idle
	dc.receivingTag = int32(a.lastTag)
	dc.mu.Unlock()

	dc.emitMessage(buf)
}

// onChunkTimeout fires when ChunkTimeout elapses without a new chunk for
// the in-flight message. It drops the partial message and returns to Idle
// without closing the channel: a stalled message is not itself a protocol
// violation, and whether the peer should be disconnected over it is for a
// higher layer (e.g. an unanswered PeerChannel.ExpectMessage) to decide.
func (dc *DataChannel) onChunkTimeout(id int) {
	dc.mu.Lock()
	if dc.current == nil || dc.current.id != id {
		dc.mu.Unlock()
		return
	}
	a := dc.current
	if a.msgTimer != nil {
		a.msgTimer.Stop()
	}
	dc.current = nil
	dc.state = Idle
	dc.receivingTag = int32(a.lastTag)
	dc.mu.Unlock()

	dc.emitError(fmt.Errorf("datachannel: chunk timeout waiting for tag after %s, message dropped", ChunkTimeout))
}

// onMsgTimeout fires when MessageTimeout elapses without completing the
// in-flight message. Like onChunkTimeout, it drops the message and returns
// to Idle without closing the channel.
func (dc *DataChannel) onMsgTimeout(id int) {
	dc.mu.Lock()
	if dc.current == nil || dc.current.id != id {
		dc.mu.Unlock()
		return
	}
	a := dc.current
	if a.chunkTimer != nil {
		a.chunkTimer.Stop()
	}
	dc.current = nil
	dc.state = Idle
	dc.receivingTag = int32(a.lastTag)
	dc.mu.Unlock()

	dc.emitError(fmt.Errorf("datachannel: message reassembly exceeded %s, message dropped", MessageTimeout))
}

// fail aborts the in-flight assembly and closes the channel with err. Used
// only for actual protocol violations (a tag that skips or repeats, an
// oversized chunk, a forged or truncated header) rather than a merely slow
// peer.
func (dc *DataChannel) fail(err error) {
	dc.emitError(err)
	dc.Close(err)
}

// ExpectMessage records that a reply matching one of types is expected
// within timeout. If a matching message arrives first, ConfirmExpectedMessage
// resolves it and onTimeout never fires; otherwise onTimeout fires exactly
// once. Registering a new expectation for a type already being waited on
// replaces the previous one: the replaced expectation is cancelled for all
// of its types and its onTimeout never fires. Returns an id
// identifying this expectation, primarily useful for logging.
func (dc *DataChannel) ExpectMessage(types []wire.Type, timeout time.Duration, onTimeout func()) int {
	dc.mu.Lock()
	dc.nextExpectID++
	id := dc.nextExpectID

	exp := &expectation{id: id, types: make(map[wire.Type]bool, len(types)), onTimeout: onTimeout}
	for _, t := range types {
		exp.types[t] = true
		if old, ok := dc.expecting[t]; ok && old != exp {
			old.done = true
			old.timer.Stop()
			dc.forgetLocked(old)
		}
		dc.expecting[t] = exp
	}
	exp.timer = time.AfterFunc(timeout, func() { dc.fireTimeout(exp) })
	dc.mu.Unlock()
	return id
}

func (dc *DataChannel) forgetLocked(exp *expectation) {
	for t := range exp.types {
		if dc.expecting[t] == exp {
			delete(dc.expecting, t)
		}
	}
}

func (dc *DataChannel) fireTimeout(exp *expectation) {
	dc.mu.Lock()
	if exp.done {
		dc.mu.Unlock()
		return
	}
	exp.done = true
	dc.forgetLocked(exp)
	dc.mu.Unlock()

	if exp.onTimeout != nil {
		exp.onTimeout()
	}
}

// ConfirmExpectedMessage reports that a message of type t arrived,
// resolving any pending expectation covering t before its timer fires.
// success records whether the message also parsed correctly; either way, a
// reply did arrive, so the expectation is resolved rather than left to
// spuriously time out. Reports whether an expectation for t was pending.
func (dc *DataChannel) ConfirmExpectedMessage(t wire.Type, success bool) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	exp, ok := dc.expecting[t]
	if !ok {
		return false
	}
	exp.done = true
	exp.timer.Stop()
	dc.forgetLocked(exp)
	return true
}

// IsExpectingMessage reports whether a reply matching t is currently
// expected.
func (dc *DataChannel) IsExpectingMessage(t wire.Type) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	_, ok := dc.expecting[t]
	return ok
}

// Close shuts the channel down. reason is nil for a clean, caller-initiated
// close.
func (dc *DataChannel) Close(reason error) error {
	dc.mu.Lock()
	if dc.closed {
		dc.mu.Unlock()
		return nil
	}
	dc.closed = true
	if dc.current != nil {
		if dc.current.chunkTimer != nil {
			dc.current.chunkTimer.Stop()
		}
		if dc.current.msgTimer != nil {
			dc.current.msgTimer.Stop()
		}
		dc.current = nil
	}
	dc.state = Idle
	for _, exp := range dc.expecting {
		exp.done = true
		exp.timer.Stop()
	}
	dc.expecting = make(map[wire.Type]*expectation)
	dc.mu.Unlock()

	err := dc.transport.Close()
	dc.emitClose(reason)
	return err
}

func (dc *DataChannel) emitMessage(buf []byte) {
	dc.mu.Lock()
	handlers := make([]func([]byte), len(dc.onMessage))
	copy(handlers, dc.onMessage)
	dc.mu.Unlock()
	for _, fn := range handlers {
		fn(buf)
	}
}

func (dc *DataChannel) emitChunk(tag byte, size int) {
	dc.mu.Lock()
	handlers := make([]func(byte, int), len(dc.onChunk))
	copy(handlers, dc.onChunk)
	dc.mu.Unlock()
	for _, fn := range handlers {
		fn(tag, size)
	}
}

func (dc *DataChannel) emitClose(err error) {
	dc.mu.Lock()
	handlers := make([]func(error), len(dc.onClose))
	copy(handlers, dc.onClose)
	dc.mu.Unlock()
	for _, fn := range handlers {
		fn(err)
	}
}

func (dc *DataChannel) emitError(err error) {
	dc.mu.Lock()
	handlers := make([]func(error), len(dc.onError))
	copy(handlers, dc.onError)
	dc.mu.Unlock()
	for _, fn := range handlers {
		fn(err)
	}
}

package peerchannel

import (
	"testing"
	"time"

	"novapeer/blockchain"
	"novapeer/datachannel"
	"novapeer/transport/pipe"
	"novapeer/wire"
)

func newPair(t *testing.T) (a, b *PeerChannel) {
	t.Helper()
	pa, pb := pipe.New(16)
	a = New(datachannel.New(pa), "a")
	b = New(datachannel.New(pb), "b")
	return a, b
}

func TestPingPongRoundTrip(t *testing.T) {
	a, b := newPair(t)

	pong := make(chan uint64, 1)
	b.On(wire.TypePing, func(msg *wire.Message) {
		_ = b.SendPong(msg.Ping.Nonce)
	})
	a.On(wire.TypePong, func(msg *wire.Message) {
		pong <- msg.Pong.Nonce
	})

	if err := a.SendPing(7); err != nil {
		t.Fatalf("SendPing: %v", err)
	}

	select {
	case nonce := <-pong:
		if nonce != 7 {
			t.Fatalf("want nonce 7, got %d", nonce)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for pong")
	}
}

func TestExpectConfirmClearsTimer(t *testing.T) {
	a, b := newPair(t)

	b.On(wire.TypeVersion, func(msg *wire.Message) {
		_ = b.SendVerack()
	})

	a.ExpectMessage(wire.TypeVerack, 200*time.Millisecond)
	if !a.IsExpectingMessage(wire.TypeVerack) {
		t.Fatal("expected ExpectMessage to register the pending reply")
	}

	closed := make(chan CloseType, 1)
	a.OnClose(func(reason CloseType, err error) { closed <- reason })

	if err := a.SendVersion(&wire.VersionPayload{NodeID: "a"}); err != nil {
		t.Fatalf("SendVersion: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if a.IsExpectingMessage(wire.TypeVerack) {
		t.Fatal("VERACK should have confirmed the expectation and cleared the timer")
	}

	select {
	case reason := <-closed:
		t.Fatalf("channel should not have closed, got reason %s", reason)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestUnconfirmedExpectationTimesOut(t *testing.T) {
	a, _ := newPair(t)

	closed := make(chan CloseType, 1)
	a.OnClose(func(reason CloseType, err error) { closed <- reason })

	a.ExpectMessage(wire.TypeVerack, 50*time.Millisecond)

	select {
	case reason := <-closed:
		if reason != CloseTimeout {
			t.Fatalf("want CloseTimeout, got %s", reason)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for expectation timeout to close the channel")
	}
}

func TestMalformedRejectNeverLoops(t *testing.T) {
	a, b := newPair(t)

	closedA := make(chan CloseType, 1)
	a.OnClose(func(reason CloseType, err error) { closedA <- reason })

	rejectsSeen := make(chan struct{}, 4)
	b.On(wire.TypeReject, func(msg *wire.Message) { rejectsSeen <- struct{}{} })

	// Hand-craft a REJECT frame with a truncated, undecodable payload and
	// feed it directly into a's DataChannel as if it arrived from the wire.
	good, err := wire.Serialize(&wire.Message{Type: wire.TypeReject, Reject: &wire.RejectPayload{
		RejectedType: wire.TypeTx,
		Code:         wire.RejectMalformed,
		Reason:       "x",
	}})
	if err != nil {
		t.Fatal(err)
	}
	truncated := good[:len(good)-3]
	a.handleFrame(truncated)

	select {
	case reason := <-closedA:
		if reason != CloseFailedToParseMessageType {
			t.Fatalf("want CloseFailedToParseMessageType, got %s", reason)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close after malformed REJECT")
	}

	select {
	case <-rejectsSeen:
		t.Fatal("a malformed REJECT must never produce an outbound REJECT")
	case <-time.After(100 * time.Millisecond):
	}

	_ = b
}

func TestMalformedNonRejectStaysOpen(t *testing.T) {
	a, b := newPair(t)

	closedA := make(chan CloseType, 1)
	a.OnClose(func(reason CloseType, err error) { closedA <- reason })

	rejectsSeen := make(chan wire.RejectCode, 1)
	b.On(wire.TypeReject, func(msg *wire.Message) { rejectsSeen <- msg.Reject.Code })

	good, err := wire.Serialize(&wire.Message{Type: wire.TypeTx, Tx: &blockchain.Transaction{
		Type:   blockchain.TxTransfer,
		Amount: 10,
		Nonce:  1,
	}})
	if err != nil {
		t.Fatal(err)
	}
	truncated := good[:len(good)-3]
	a.handleFrame(truncated)

	select {
	case code := <-rejectsSeen:
		if code != wire.RejectMalformed {
			t.Fatalf("want RejectMalformed, got %v", code)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for REJECT after malformed TX")
	}

	select {
	case reason := <-closedA:
		t.Fatalf("a malformed non-REJECT frame must not close the channel, got reason %s", reason)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMalformedReplyConfirmsExpectationWithoutTimeout(t *testing.T) {
	a, _ := newPair(t)

	closed := make(chan CloseType, 1)
	a.OnClose(func(reason CloseType, err error) { closed <- reason })

	a.ExpectMessage(wire.TypeVerack, 150*time.Millisecond)

	verack, err := wire.Serialize(&wire.Message{Type: wire.TypeVerack})
	if err != nil {
		t.Fatal(err)
	}
	// Corrupt the checksum so Parse fails but PeekType still succeeds: a
	// badly-formed VERACK still counts as "the peer replied" and must
	// resolve the pending expectation instead of letting its own timer
	// fire later.
	verack[9] ^= 0xff
	a.handleFrame(verack)

	if a.IsExpectingMessage(wire.TypeVerack) {
		t.Fatal("a malformed reply of the expected type should have confirmed the expectation")
	}

	select {
	case reason := <-closed:
		t.Fatalf("confirmed expectation must not later time out the channel, got reason %s", reason)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDuplicateInvDropped(t *testing.T) {
	a, b := newPair(t)

	var received []int
	done := make(chan struct{}, 1)
	b.On(wire.TypeInv, func(msg *wire.Message) {
		received = append(received, len(msg.Inv.Vectors))
		done <- struct{}{}
	})

	vec := wire.InventoryVector{Kind: wire.InvBlock}
	if err := a.SendInv([]wire.InventoryVector{vec}); err != nil {
		t.Fatal(err)
	}
	<-done

	if err := a.SendInv([]wire.InventoryVector{vec}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
		t.Fatal("duplicate inventory vector should have been deduplicated, not re-delivered")
	case <-time.After(200 * time.Millisecond):
	}

	if len(received) != 1 || received[0] != 1 {
		t.Fatalf("want exactly one delivery of one vector, got %v", received)
	}
}

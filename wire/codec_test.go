package wire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"novapeer/blockchain"
)

func TestSerializeParseRoundTrip(t *testing.T) {
	cases := []*Message{
		{Type: TypePing, Ping: &PingPongPayload{Nonce: 42}},
		{Type: TypeVerack},
		{Type: TypeVersion, Version: &VersionPayload{
			ProtocolVersion: 1,
			NodeID:          "abc123",
			UserAgent:       "test/0.1",
		}},
		{Type: TypeInv, Inv: &InvPayload{Vectors: []InventoryVector{
			{Kind: InvBlock, Hash: blockchain.Hash{1, 2, 3}},
		}}},
		{Type: TypeReject, Reject: &RejectPayload{RejectedType: TypeTx, Code: RejectInvalid, Reason: "bad sig"}},
	}

	for _, msg := range cases {
		frame, err := Serialize(msg)
		if err != nil {
			t.Fatalf("Serialize(%s): %v", msg.Type, err)
		}

		got, err := Parse(frame)
		if err != nil {
			t.Fatalf("Parse(%s): %v", msg.Type, err)
		}
		if got.Type != msg.Type {
			t.Fatalf("round trip type: want %s got %s", msg.Type, got.Type)
		}
	}
}

func TestPeekTypeAndLength(t *testing.T) {
	msg := &Message{Type: TypePing, Ping: &PingPongPayload{Nonce: 7}}
	frame, err := Serialize(msg)
	if err != nil {
		t.Fatal(err)
	}

	typ, err := PeekType(frame)
	if err != nil {
		t.Fatal(err)
	}
	if typ != TypePing {
		t.Fatalf("PeekType: want PING got %s", typ)
	}

	length, err := PeekLength(frame)
	if err != nil {
		t.Fatal(err)
	}
	if length != uint32(len(frame)-HeaderSize) {
		t.Fatalf("PeekLength: want %d got %d", len(frame)-HeaderSize, length)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	frame, err := Serialize(&Message{Type: TypeVerack})
	if err != nil {
		t.Fatal(err)
	}
	frame[0] ^= 0xFF

	if _, err := Parse(frame); err != ErrBadMagic {
		t.Fatalf("want ErrBadMagic, got %v", err)
	}
}

func TestParseRejectsChecksumMismatch(t *testing.T) {
	frame, err := Serialize(&Message{Type: TypePing, Ping: &PingPongPayload{Nonce: 1}})
	if err != nil {
		t.Fatal(err)
	}
	frame[len(frame)-1] ^= 0xFF

	if _, err := Parse(frame); err != ErrChecksumMismatch {
		t.Fatalf("want ErrChecksumMismatch, got %v", err)
	}
}

func TestParseRejectsOversizedLength(t *testing.T) {
	frame, err := Serialize(&Message{Type: TypeVerack})
	if err != nil {
		t.Fatal(err)
	}
	binary.BigEndian.PutUint32(frame[5:9], MessageSizeMax+1)

	if _, err := Parse(frame); err != ErrMessageTooLarge {
		t.Fatalf("want ErrMessageTooLarge, got %v", err)
	}
}

func TestPeekLengthNeverAllocatesOversized(t *testing.T) {
	// A forged header claiming an over-limit length must be rejected by
	// PeekLength alone, before any reassembly buffer is sized from it.
	header := make([]byte, HeaderSize)
	copy(header[0:4], Magic[:])
	header[4] = byte(TypeBlock)
	binary.BigEndian.PutUint32(header[5:9], MessageSizeMax+1024)

	if _, err := PeekLength(header); err != ErrMessageTooLarge {
		t.Fatalf("want ErrMessageTooLarge, got %v", err)
	}
}

func TestParseRejectsShortHeader(t *testing.T) {
	if _, err := Parse([]byte{1, 2, 3}); err != ErrShortHeader {
		t.Fatalf("want ErrShortHeader, got %v", err)
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	frame, err := Serialize(&Message{Type: TypeVerack})
	if err != nil {
		t.Fatal(err)
	}
	frame[4] = 0xFE

	if _, err := Parse(frame); err != ErrUnknownType {
		t.Fatalf("want ErrUnknownType, got %v", err)
	}
}

func TestSerializeRejectsOversizedPayload(t *testing.T) {
	msg := &Message{Type: TypeAddr, Addr: &AddrPayload{Addresses: make([]string, 0)}}
	// Build an oversized payload directly to exercise the MessageSizeMax
	// guard without actually allocating MessageSizeMax of real data twice.
	big := make([]string, 1)
	big[0] = string(bytes.Repeat([]byte{'x'}, MessageSizeMax+1))
	msg.Addr.Addresses = big

	if _, err := Serialize(msg); err != ErrMessageTooLarge {
		t.Fatalf("want ErrMessageTooLarge, got %v", err)
	}
}

package pipe

import (
	"bytes"
	"testing"
	"time"

	"novapeer/datachannel"
)

func TestPipeDeliversChunksInOrder(t *testing.T) {
	a, b := New(4)
	defer a.Close()
	defer b.Close()

	received := make(chan []byte, 3)
	b.SetReceiver(func(chunk []byte) { received <- chunk })

	want := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, chunk := range want {
		if err := a.SendChunk(chunk); err != nil {
			t.Fatalf("SendChunk: %v", err)
		}
	}

	for i, w := range want {
		select {
		case got := <-received:
			if !bytes.Equal(got, w) {
				t.Fatalf("chunk %d: want %q got %q", i, w, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for chunk %d", i)
		}
	}
}

func TestPipeCloseRejectsFurtherSends(t *testing.T) {
	a, b := New(1)
	defer b.Close()

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.SendChunk([]byte("late")); err != ErrClosed {
		t.Fatalf("want ErrClosed after Close, got %v", err)
	}
	if a.ReadyState() != datachannel.Closed {
		t.Fatalf("want ReadyState Closed, got %s", a.ReadyState())
	}
}

package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"novapeer/blockchain"
)

// Sentinel errors returned by Parse/PeekLength/PeekType. Callers that need
// to distinguish "not enough bytes yet" from "this will never be valid"
// should check against these with errors.Is.
var (
	ErrShortHeader      = errors.New("wire: buffer shorter than frame header")
	ErrBadMagic         = errors.New("wire: bad magic prefix")
	ErrMessageTooLarge  = errors.New("wire: message exceeds MessageSizeMax")
	ErrChecksumMismatch = errors.New("wire: checksum mismatch")
	ErrUnknownType      = errors.New("wire: unknown message type")
	ErrDecodeFailed     = errors.New("wire: payload decode failed")
)

// payload returns the single non-nil payload value selected by m.Type, or
// nil if m.Type carries no payload (VERACK, GET_HEADER, MEMPOOL, GET_ADDR).
func (m *Message) payload() interface{} {
	switch m.Type {
	case TypeVersion:
		return m.Version
	case TypeInv:
		return m.Inv
	case TypeGetData:
		return m.GetData
	case TypeNotFound:
		return m.NotFound
	case TypeGetBlocks:
		return m.GetBlocks
	case TypeBlock:
		return m.Block
	case TypeHeader:
		return m.Header
	case TypeTx:
		return m.Tx
	case TypeReject:
		return m.Reject
	case TypeSubscribe:
		return m.Subscribe
	case TypeAddr:
		return m.Addr
	case TypePing:
		return m.Ping
	case TypePong:
		return m.Pong
	case TypeSignal:
		return m.Signal
	case TypeGetChainProof:
		return m.GetChainProof
	case TypeChainProof:
		return m.ChainProof
	case TypeGetAccountsProof:
		return m.GetAccountsProof
	case TypeAccountsProof:
		return m.AccountsProof
	case TypeGetAccountsTreeChunk:
		return m.GetAccountsTreeChunk
	case TypeAccountsTreeChunk:
		return m.AccountsTreeChunk
	case TypeGetTransactionsProof:
		return m.GetTransactionsProof
	case TypeTransactionsProof:
		return m.TransactionsProof
	case TypeGetTransactionReceipts:
		return m.GetTransactionReceipts
	case TypeTransactionReceipts:
		return m.TransactionReceipts
	case TypeGetBlockProof:
		return m.GetBlockProof
	case TypeBlockProof:
		return m.BlockProof
	case TypeGetHead:
		return m.GetHead
	case TypeHead:
		return m.Head
	default:
		return nil
	}
}

// newPayload allocates the zero value a decoder should gob.Decode into for
// t, or nil if t carries no payload.
func newPayload(t Type) interface{} {
	switch t {
	case TypeVersion:
		return &VersionPayload{}
	case TypeInv, TypeGetData, TypeNotFound:
		return &InvPayload{}
	case TypeGetBlocks:
		return &GetBlocksPayload{}
	case TypeBlock:
		return &blockchain.Block{}
	case TypeHeader, TypeHead:
		return &blockchain.Header{}
	case TypeTx:
		return &blockchain.Transaction{}
	case TypeReject:
		return &RejectPayload{}
	case TypeSubscribe:
		return &SubscribePayload{}
	case TypeAddr:
		return &AddrPayload{}
	case TypePing, TypePong:
		return &PingPongPayload{}
	case TypeSignal:
		return &SignalPayload{}
	case TypeGetChainProof:
		return &GetChainProofPayload{}
	case TypeChainProof:
		return &ChainProofPayload{}
	case TypeGetAccountsProof:
		return &GetAccountsProofPayload{}
	case TypeAccountsProof:
		return &AccountsProofPayload{}
	case TypeGetAccountsTreeChunk:
		return &GetAccountsTreeChunkPayload{}
	case TypeAccountsTreeChunk:
		return &AccountsTreeChunkPayload{}
	case TypeGetTransactionsProof:
		return &GetTransactionsProofPayload{}
	case TypeTransactionsProof:
		return &TransactionsProofPayload{}
	case TypeGetTransactionReceipts:
		return &GetTransactionReceiptsPayload{}
	case TypeTransactionReceipts:
		return &TransactionReceiptsPayload{}
	case TypeGetBlockProof:
		return &GetBlockProofPayload{}
	case TypeBlockProof:
		return &BlockProofPayload{}
	case TypeGetHead:
		return &GetHeadPayload{}
	default:
		return nil
	}
}

// setPayload assigns the decoded value v into the field m.Type selects.
func (m *Message) setPayload(v interface{}) {
	switch m.Type {
	case TypeVersion:
		m.Version = v.(*VersionPayload)
	case TypeInv:
		m.Inv = v.(*InvPayload)
	case TypeGetData:
		m.GetData = v.(*InvPayload)
	case TypeNotFound:
		m.NotFound = v.(*InvPayload)
	case TypeGetBlocks:
		m.GetBlocks = v.(*GetBlocksPayload)
	case TypeBlock:
		m.Block = v.(*blockchain.Block)
	case TypeHeader:
		m.Header = v.(*blockchain.Header)
	case TypeTx:
		m.Tx = v.(*blockchain.Transaction)
	case TypeReject:
		m.Reject = v.(*RejectPayload)
	case TypeSubscribe:
		m.Subscribe = v.(*SubscribePayload)
	case TypeAddr:
		m.Addr = v.(*AddrPayload)
	case TypePing:
		m.Ping = v.(*PingPongPayload)
	case TypePong:
		m.Pong = v.(*PingPongPayload)
	case TypeSignal:
		m.Signal = v.(*SignalPayload)
	case TypeGetChainProof:
		m.GetChainProof = v.(*GetChainProofPayload)
	case TypeChainProof:
		m.ChainProof = v.(*ChainProofPayload)
	case TypeGetAccountsProof:
		m.GetAccountsProof = v.(*GetAccountsProofPayload)
	case TypeAccountsProof:
		m.AccountsProof = v.(*AccountsProofPayload)
	case TypeGetAccountsTreeChunk:
		m.GetAccountsTreeChunk = v.(*GetAccountsTreeChunkPayload)
	case TypeAccountsTreeChunk:
		m.AccountsTreeChunk = v.(*AccountsTreeChunkPayload)
	case TypeGetTransactionsProof:
		m.GetTransactionsProof = v.(*GetTransactionsProofPayload)
	case TypeTransactionsProof:
		m.TransactionsProof = v.(*TransactionsProofPayload)
	case TypeGetTransactionReceipts:
		m.GetTransactionReceipts = v.(*GetTransactionReceiptsPayload)
	case TypeTransactionReceipts:
		m.TransactionReceipts = v.(*TransactionReceiptsPayload)
	case TypeGetBlockProof:
		m.GetBlockProof = v.(*GetBlockProofPayload)
	case TypeBlockProof:
		m.BlockProof = v.(*BlockProofPayload)
	case TypeGetHead:
		m.GetHead = v.(*GetHeadPayload)
	case TypeHead:
		m.Head = v.(*blockchain.Header)
	}
}

// checksum returns the 4-byte frame checksum over payload: the first four
// bytes of its blake2b-256 digest.
func checksum(payload []byte) [4]byte {
	sum := blake2b.Sum256(payload)
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

// Serialize encodes m into a complete frame: header plus gob-encoded
// payload. It never produces a frame exceeding MessageSizeMax payload
// bytes; callers that build oversized messages get ErrMessageTooLarge
// before anything is written to a Transport.
func Serialize(m *Message) ([]byte, error) {
	var payloadBytes []byte
	if p := m.payload(); p != nil {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(p); err != nil {
			return nil, fmt.Errorf("wire: encode %s payload: %w", m.Type, err)
		}
		payloadBytes = buf.Bytes()
	}

	if len(payloadBytes) > MessageSizeMax {
		return nil, ErrMessageTooLarge
	}

	sum := checksum(payloadBytes)

	out := make([]byte, HeaderSize+len(payloadBytes))
	copy(out[0:4], Magic[:])
	out[4] = byte(m.Type)
	binary.BigEndian.PutUint32(out[5:9], uint32(len(payloadBytes)))
	copy(out[9:13], sum[:])
	copy(out[HeaderSize:], payloadBytes)

	return out, nil
}

// PeekType reads the message type byte out of a buffer that has at least a
// full header available, without touching the payload.
func PeekType(buf []byte) (Type, error) {
	if len(buf) < HeaderSize {
		return 0, ErrShortHeader
	}
	if !bytes.Equal(buf[0:4], Magic[:]) {
		return 0, ErrBadMagic
	}
	return Type(buf[4]), nil
}

// PeekLength reads the declared payload length out of a buffer that has at
// least a full header available. DataChannel uses this to size its
// reassembly buffer before any payload bytes have arrived, so a forged
// length can be rejected pre-allocation.
func PeekLength(buf []byte) (uint32, error) {
	if len(buf) < HeaderSize {
		return 0, ErrShortHeader
	}
	if !bytes.Equal(buf[0:4], Magic[:]) {
		return 0, ErrBadMagic
	}
	length := binary.BigEndian.Uint32(buf[5:9])
	if length > MessageSizeMax {
		return 0, ErrMessageTooLarge
	}
	return length, nil
}

// Parse decodes a complete frame (header plus exactly PeekLength(buf) bytes
// of payload) into a Message. A buffer shorter than the header yields
// ErrShortHeader; a payload whose length differs from the declared length
// in either direction is rejected with an error.
func Parse(buf []byte) (*Message, error) {
	if len(buf) < HeaderSize {
		return nil, ErrShortHeader
	}
	if !bytes.Equal(buf[0:4], Magic[:]) {
		return nil, ErrBadMagic
	}

	t := Type(buf[4])
	length := binary.BigEndian.Uint32(buf[5:9])
	if length > MessageSizeMax {
		return nil, ErrMessageTooLarge
	}
	if uint32(len(buf)-HeaderSize) != length {
		return nil, fmt.Errorf("wire: declared length %d, got %d payload bytes", length, len(buf)-HeaderSize)
	}

	var wantSum [4]byte
	copy(wantSum[:], buf[9:13])
	payloadBytes := buf[HeaderSize:]
	if checksum(payloadBytes) != wantSum {
		return nil, ErrChecksumMismatch
	}

	if !t.Known() {
		return nil, ErrUnknownType
	}

	m := &Message{Type: t}
	if dst := newPayload(t); dst != nil {
		if len(payloadBytes) > 0 {
			if err := gob.NewDecoder(bytes.NewReader(payloadBytes)).Decode(dst); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
			}
		}
		m.setPayload(dst)
	}

	return m, nil
}

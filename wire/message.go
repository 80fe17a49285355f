// Package wire implements the length-prefixed, tagged binary format shared by
// every message on the novapeer wire: a fixed frame header (magic, type,
// length, checksum) wrapping a gob-encoded, type-specific payload.
package wire

import (
	"encoding/gob"

	"novapeer/blockchain"
)

// Type is the stable wire constant identifying a message variant. It is the
// single byte that determines the payload layout on the wire.
type Type uint8

const (
	TypeVersion Type = iota + 1
	TypeVerack
	TypeInv
	TypeGetData
	TypeGetHeader
	TypeNotFound
	TypeGetBlocks
	TypeBlock
	TypeHeader
	TypeTx
	TypeMempool
	TypeReject
	TypeSubscribe
	TypeAddr
	TypeGetAddr
	TypePing
	TypePong
	TypeSignal
	TypeGetChainProof
	TypeChainProof
	TypeGetAccountsProof
	TypeAccountsProof
	TypeGetAccountsTreeChunk
	TypeAccountsTreeChunk
	TypeGetTransactionsProof
	TypeTransactionsProof
	TypeGetTransactionReceipts
	TypeTransactionReceipts
	TypeGetBlockProof
	TypeBlockProof
	TypeGetHead
	TypeHead
)

var typeNames = map[Type]string{
	TypeVersion:                "VERSION",
	TypeVerack:                 "VERACK",
	TypeInv:                    "INV",
	TypeGetData:                "GET_DATA",
	TypeGetHeader:              "GET_HEADER",
	TypeNotFound:               "NOT_FOUND",
	TypeGetBlocks:              "GET_BLOCKS",
	TypeBlock:                  "BLOCK",
	TypeHeader:                 "HEADER",
	TypeTx:                     "TX",
	TypeMempool:                "MEMPOOL",
	TypeReject:                 "REJECT",
	TypeSubscribe:              "SUBSCRIBE",
	TypeAddr:                   "ADDR",
	TypeGetAddr:                "GET_ADDR",
	TypePing:                   "PING",
	TypePong:                   "PONG",
	TypeSignal:                 "SIGNAL",
	TypeGetChainProof:          "GET_CHAIN_PROOF",
	TypeChainProof:             "CHAIN_PROOF",
	TypeGetAccountsProof:       "GET_ACCOUNTS_PROOF",
	TypeAccountsProof:          "ACCOUNTS_PROOF",
	TypeGetAccountsTreeChunk:   "GET_ACCOUNTS_TREE_CHUNK",
	TypeAccountsTreeChunk:      "ACCOUNTS_TREE_CHUNK",
	TypeGetTransactionsProof:   "GET_TRANSACTIONS_PROOF",
	TypeTransactionsProof:      "TRANSACTIONS_PROOF",
	TypeGetTransactionReceipts: "GET_TRANSACTION_RECEIPTS",
	TypeTransactionReceipts:    "TRANSACTION_RECEIPTS",
	TypeGetBlockProof:          "GET_BLOCK_PROOF",
	TypeBlockProof:             "BLOCK_PROOF",
	TypeGetHead:                "GET_HEAD",
	TypeHead:                   "HEAD",
}

// String returns the protocol name of t, or "UNKNOWN" if t is not a known type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Known reports whether t is one of the defined message types.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// RejectCode enumerates why a REJECT message was generated. RejectMalformed
// is the code PeerChannel always uses for parse failures (see peerchannel).
type RejectCode uint8

const (
	RejectMalformed RejectCode = iota + 1
	RejectInvalid
	RejectObsolete
	RejectDoubleSpend
)

// Message is the tagged union flowing between DataChannel and PeerChannel.
// Exactly one of the payload fields is meaningful, selected by Type.
type Message struct {
	Type Type

	Version   *VersionPayload
	Inv       *InvPayload
	GetData   *InvPayload
	NotFound  *InvPayload
	GetBlocks *GetBlocksPayload
	Block     *blockchain.Block
	Header    *blockchain.Header
	Tx        *blockchain.Transaction
	Reject    *RejectPayload
	Subscribe *SubscribePayload
	Addr      *AddrPayload
	Ping      *PingPongPayload
	Pong      *PingPongPayload
	Signal    *SignalPayload

	GetChainProof          *GetChainProofPayload
	ChainProof             *ChainProofPayload
	GetAccountsProof       *GetAccountsProofPayload
	AccountsProof          *AccountsProofPayload
	GetAccountsTreeChunk   *GetAccountsTreeChunkPayload
	AccountsTreeChunk      *AccountsTreeChunkPayload
	GetTransactionsProof   *GetTransactionsProofPayload
	TransactionsProof      *TransactionsProofPayload
	GetTransactionReceipts *GetTransactionReceiptsPayload
	TransactionReceipts    *TransactionReceiptsPayload
	GetBlockProof          *GetBlockProofPayload
	BlockProof             *BlockProofPayload
	GetHead                *GetHeadPayload
	Head                   *blockchain.Header
	// Verack, GetHeader, Mempool, GetAddr carry no payload beyond the frame header.
}

// InventoryVector identifies a single piece of relayable data (a block or a
// transaction) by its type and hash, mirroring Bitcoin-style inv vectors.
type InventoryVector struct {
	Kind InvKind
	Hash blockchain.Hash
}

// InvKind distinguishes the kind of object an InventoryVector names.
type InvKind uint8

const (
	InvBlock InvKind = iota + 1
	InvTransaction
)

// VersionPayload is the handshake payload exchanged by both sides on connect.
type VersionPayload struct {
	ProtocolVersion uint32
	NodeID          string
	GenesisHash     blockchain.Hash
	HeadHash        blockchain.Hash
	Height          uint64
	Timestamp       int64
	UserAgent       string
}

// InvPayload carries a bounded list of inventory vectors; used for INV,
// GET_DATA, and NOT_FOUND.
type InvPayload struct {
	Vectors []InventoryVector
}

// GetBlocksPayload requests blocks descending from one of the given locator
// hashes, stopping at HashStop (zero hash meaning "as many as allowed").
type GetBlocksPayload struct {
	Locator  []blockchain.Hash
	HashStop blockchain.Hash
}

// RejectPayload reports why a previously received message of RejectedType
// was refused. A RejectPayload must never itself cause another REJECT to be
// generated; see peerchannel's reject-loop-safety rule.
type RejectPayload struct {
	RejectedType Type
	Code         RejectCode
	Reason       string
}

// SubscribePayload lets a peer declare which kinds of inventory they want
// announced to them.
type SubscribePayload struct {
	Addresses []string
	All       bool
}

// AddrPayload carries a bounded list of peer network addresses.
type AddrPayload struct {
	Addresses []string
}

// PingPongPayload carries a single nonce, echoed back unmodified by PONG.
type PingPongPayload struct {
	Nonce uint64
}

// SignalPayload relays an opaque signalling message (e.g. WebRTC SDP/ICE)
// between two peers via a third, already-connected peer.
type SignalPayload struct {
	SenderID    string
	RecipientID string
	Nonce       uint32
	TTL         uint8
	Payload     []byte
}

type GetChainProofPayload struct{}

type ChainProofPayload struct {
	Proof []byte
}

type GetAccountsProofPayload struct {
	BlockHash blockchain.Hash
	Addresses [][32]byte
}

type AccountsProofPayload struct {
	BlockHash blockchain.Hash
	Proof     []byte
}

type GetAccountsTreeChunkPayload struct {
	BlockHash   blockchain.Hash
	StartPrefix string
}

type AccountsTreeChunkPayload struct {
	Chunk []byte
}

type GetTransactionsProofPayload struct {
	BlockHash blockchain.Hash
	Addresses [][32]byte
}

type TransactionsProofPayload struct {
	BlockHash blockchain.Hash
	Proof     []byte
}

type GetTransactionReceiptsPayload struct {
	Address [32]byte
}

type TransactionReceiptsPayload struct {
	Receipts []byte
}

type GetBlockProofPayload struct {
	BlockHashToProve blockchain.Hash
	KnownBlockHash   blockchain.Hash
}

type BlockProofPayload struct {
	Proof []byte
}

type GetHeadPayload struct{}

func init() {
	gob.Register(VersionPayload{})
	gob.Register(InvPayload{})
	gob.Register(GetBlocksPayload{})
	gob.Register(blockchain.Block{})
	gob.Register(blockchain.Header{})
	gob.Register(blockchain.Transaction{})
	gob.Register(RejectPayload{})
	gob.Register(SubscribePayload{})
	gob.Register(AddrPayload{})
	gob.Register(PingPongPayload{})
	gob.Register(SignalPayload{})
	gob.Register(GetChainProofPayload{})
	gob.Register(ChainProofPayload{})
	gob.Register(GetAccountsProofPayload{})
	gob.Register(AccountsProofPayload{})
	gob.Register(GetAccountsTreeChunkPayload{})
	gob.Register(AccountsTreeChunkPayload{})
	gob.Register(GetTransactionsProofPayload{})
	gob.Register(TransactionsProofPayload{})
	gob.Register(GetTransactionReceiptsPayload{})
	gob.Register(TransactionReceiptsPayload{})
	gob.Register(GetBlockProofPayload{})
	gob.Register(BlockProofPayload{})
	gob.Register(GetHeadPayload{})
}

// Package blockchain holds the minimal consensus data types the wire codec
// needs in order to give BLOCK, HEADER, and TX messages a concrete payload.
// Their wire shape is in scope; their validation (signatures, balances, DAG
// placement) is not, since that belongs to the consensus module the core
// treats as an opaque collaborator.
package blockchain

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Hash is a 32-byte content identifier.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash, used as a sentinel (e.g.
// "no parent", "no stop hash") throughout the wire payloads.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Header is the subset of Block fields needed to verify a chain of blocks
// without downloading transaction bodies. It is the HEADER/HEAD payload.
type Header struct {
	Hash       Hash
	ParentHash Hash
	Height     uint64
	Timestamp  int64
	Author     [32]byte
	Signature  []byte
}

// Block is a single unit of the chain: a header plus its transaction
// payload. It models a single-parent chain block, matching the
// GET_BLOCKS/locator vocabulary used on the wire.
type Block struct {
	Header
	TxPayload []byte // gob-encoded []Transaction
}

// NewBlock builds and self-signs a block over the given parent.
func NewBlock(parent Hash, height uint64, author ed25519.PublicKey, priv ed25519.PrivateKey, payload []byte) *Block {
	b := &Block{
		Header: Header{
			ParentHash: parent,
			Height:     height,
			Timestamp:  time.Now().UnixNano(),
			Author:     [32]byte(author),
		},
		TxPayload: payload,
	}
	b.Hash = b.ComputeHash()
	b.Signature = ed25519.Sign(priv, b.Hash[:])
	return b
}

// ComputeHash derives the block's self-hash from its contents. This is a
// prototype-grade scheme (teacher parity): production code would hash a
// canonical binary encoding rather than a concatenated string.
func (b *Block) ComputeHash() Hash {
	record := string(b.Author[:]) + string(b.TxPayload) + strconv.FormatInt(b.Timestamp, 10) + b.ParentHash.String()
	return sha256.Sum256([]byte(record))
}

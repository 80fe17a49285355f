package blockchain

import (
	"bytes"
	"encoding/binary"
)

// TxType distinguishes the kind of operation a Transaction carries. novapeer
// only needs the wire shape, not the execution rules each type implies in
// the consensus module.
type TxType uint8

const (
	TxTransfer TxType = iota
	TxStake
	TxUnstake
	TxDelegate
	TxWithdraw
	TxGrant
	TxBuyLicense
)

// TxMaxAge bounds how old a transaction's Timestamp may be before IsExpired
// rejects it, in nanoseconds.
const TxMaxAge = int64(5 * 60 * 1_000_000_000)

// Transaction is the TX message payload: a signed, self-contained
// record of a value transfer or staking operation. Its signature and nonce
// are present on the wire so every node can check authenticity and replay
// protection without consulting anything else, but the balance/nonce rules
// those checks feed into belong to the consensus module, not this package.
type Transaction struct {
	Type      TxType
	From      [32]byte
	To        [32]byte
	Amount    uint64
	Fee       uint64
	Nonce     uint64
	Timestamp int64
	Sig       []byte
}

// IsExpired reports whether tx is older (or, suspiciously, newer) than
// TxMaxAge relative to currentTime. A zero Timestamp is legacy and never
// expires.
func (tx *Transaction) IsExpired(currentTime int64) bool {
	if tx.Timestamp == 0 {
		return false
	}
	age := currentTime - tx.Timestamp
	return age > TxMaxAge || age < -TxMaxAge
}

// SerializeForSigning returns the canonical 97-byte encoding signed by the
// sender and verified by every recipient. Sig is deliberately excluded: it
// is the output of signing this, not an input to it.
func (tx *Transaction) SerializeForSigning() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(tx.Type))
	buf.Write(tx.From[:])
	buf.Write(tx.To[:])

	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, tx.Amount)
	buf.Write(b)
	binary.BigEndian.PutUint64(b, tx.Fee)
	buf.Write(b)
	binary.BigEndian.PutUint64(b, tx.Nonce)
	buf.Write(b)
	binary.BigEndian.PutUint64(b, uint64(tx.Timestamp))
	buf.Write(b)

	return buf.Bytes()
}

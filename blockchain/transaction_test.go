package blockchain

import "testing"

func TestIsExpired(t *testing.T) {
	tx := &Transaction{Timestamp: 1000}

	if tx.IsExpired(1000) {
		t.Fatal("fresh transaction should not be expired")
	}
	if !tx.IsExpired(1000 + TxMaxAge + 1) {
		t.Fatal("transaction older than TxMaxAge should be expired")
	}
	if !tx.IsExpired(1000 - TxMaxAge - 1) {
		t.Fatal("transaction timestamped too far in the future should be expired")
	}
}

func TestIsExpiredZeroTimestampNeverExpires(t *testing.T) {
	tx := &Transaction{}
	if tx.IsExpired(1 << 40) {
		t.Fatal("zero-Timestamp transaction should never expire")
	}
}

func TestSerializeForSigningDeterministicAndExcludesSig(t *testing.T) {
	tx := &Transaction{
		Type:      TxStake,
		From:      [32]byte{1},
		To:        [32]byte{2},
		Amount:    5,
		Fee:       1,
		Nonce:     3,
		Timestamp: 42,
		Sig:       []byte("ignored"),
	}

	a := tx.SerializeForSigning()
	tx.Sig = []byte("different but irrelevant")
	b := tx.SerializeForSigning()

	if len(a) != 97 {
		t.Fatalf("want 97-byte canonical encoding, got %d", len(a))
	}
	if string(a) != string(b) {
		t.Fatal("SerializeForSigning must not depend on Sig")
	}
}

func TestSerializeForSigningDiffersOnFieldChange(t *testing.T) {
	base := &Transaction{Type: TxTransfer, Amount: 5, Nonce: 1, Timestamp: 1}
	changed := &Transaction{Type: TxTransfer, Amount: 6, Nonce: 1, Timestamp: 1}

	if string(base.SerializeForSigning()) == string(changed.SerializeForSigning()) {
		t.Fatal("changing Amount should change the canonical encoding")
	}
}

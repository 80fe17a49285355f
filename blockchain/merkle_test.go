package blockchain

import (
	"bytes"
	"testing"
)

func TestMerkleRootSingleLeaf(t *testing.T) {
	leaf := []byte("only")
	if got := MerkleRoot([][]byte{leaf}); !bytes.Equal(got, leaf) {
		t.Fatalf("single-leaf root should be the leaf itself, got %x", got)
	}
}

func TestMerkleRootEmpty(t *testing.T) {
	if got := MerkleRoot(nil); len(got) != 0 {
		t.Fatalf("empty input should produce an empty root, got %x", got)
	}
}

func TestMerkleRootOddCountDuplicatesLast(t *testing.T) {
	leaves := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	withDup := MerkleRoot([][]byte{leaves[0], leaves[1], leaves[2], leaves[2]})
	odd := MerkleRoot(leaves)

	if !bytes.Equal(odd, withDup) {
		t.Fatal("odd leaf count should duplicate the last leaf, matching the explicit duplicate")
	}
}

func TestMerkleRootOrderSensitive(t *testing.T) {
	a := MerkleRoot([][]byte{[]byte("a"), []byte("b")})
	b := MerkleRoot([][]byte{[]byte("b"), []byte("a")})
	if bytes.Equal(a, b) {
		t.Fatal("swapping leaf order should change the root")
	}
}

package blockchain

import "crypto/sha256"

// MerkleRoot computes the root hash of a list of leaf hashes using a simple
// binary tree. It is a standalone primitive: nothing in this module calls
// it, and the CHAIN_PROOF/TRANSACTIONS_PROOF payloads carry opaque proof
// bytes built outside this module.
func MerkleRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return []byte{}
	}
	if len(leaves) == 1 {
		return leaves[0]
	}

	if len(leaves)%2 != 0 {
		leaves = append(leaves, leaves[len(leaves)-1])
	}

	var next [][]byte
	for i := 0; i < len(leaves); i += 2 {
		h := sha256.New()
		h.Write(leaves[i])
		h.Write(leaves[i+1])
		next = append(next, h.Sum(nil))
	}

	return MerkleRoot(next)
}

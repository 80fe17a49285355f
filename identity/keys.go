// Package identity provides the Ed25519 node keys from which a node's NodeID
// is derived, plus Sign/Verify helpers. The VERSION handshake carries only
// the NodeID; nothing in it is signed.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
)

// KeyPair is a node's Ed25519 identity.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh node identity.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// Sign signs msg with the node's private key.
func (kp *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(kp.PrivateKey, msg)
}

// Verify checks sig over msg against pubKey.
func Verify(pubKey []byte, msg []byte, sig []byte) bool {
	if len(pubKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), msg, sig)
}

// NodeID is the hex-encoded public key advertised in VersionPayload.NodeID.
func (kp *KeyPair) NodeID() string {
	return hex.EncodeToString(kp.PublicKey)
}

package signature

import (
	"crypto/ed25519"
)

// Ed25519FromSeed derives the signing identity from the same 32-byte account
// seed as the on-chain account key.
func Ed25519FromSeed(seed []byte) (ed25519.PublicKey, ed25519.PrivateKey) {
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), priv
}

func ED25519Sign(privKey ed25519.PrivateKey, message []byte) []byte {
	return ed25519.Sign(privKey, message)
}

func ED25519Verify(pubKey ed25519.PublicKey, message []byte, sig []byte) bool {
	if len(pubKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pubKey, message, sig)
}

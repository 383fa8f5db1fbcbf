package duskcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"

	"github.com/pkg/errors"
)

// KeyPair wraps an Ed25519 key pair. Ed25519 is mandated by spec.md §3/§4.1
// directly and ships in the standard library (crypto/ed25519) — see
// DESIGN.md for why this stays stdlib rather than reaching for a
// third-party signing package.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeyPair generates a fresh random Ed25519 key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, errors.Wrap(err, "duskcrypto: generate ed25519 key pair")
	}
	return KeyPair{Public: pub, Private: priv}, nil
}

// generatorSeed fixes the transaction generator's Ed25519 key deterministically
// across every node and run, so every peer bootstraps the identical ICO
// sender address without needing to transmit a key out of band.
var generatorSeed = sha256.Sum256([]byte("duskchain transaction generator"))

// HardcodedGeneratorKeyPair derives the transaction generator's fixed
// signing keypair (spec.md §4.4: "signs with a hard-coded Ed25519
// keypair"). Unlike the reference implementation — whose generator's
// sender_addr is a separately hard-coded constant unrelated to its
// signing key's actual hash, violating invariant S — this keypair's
// public key hashes to exactly the address bootstrapped with ICO funds;
// see accountstate.ICOAddresses.
func HardcodedGeneratorKeyPair() KeyPair {
	priv := ed25519.NewKeyFromSeed(generatorSeed[:])
	return KeyPair{Public: priv.Public().(ed25519.PublicKey), Private: priv}
}

// Sign Ed25519-signs msg, the canonical byte encoding of an unsigned
// transaction (spec.md §4.1).
func (k KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.Private, msg)
}

// VerifySignature reports whether signature is a valid Ed25519 signature of
// msg under publicKey. It never panics on malformed input — a caller that
// hands it garbage bytes gets false, per spec.md §4.1's "must return a
// boolean, never raise".
func VerifySignature(publicKey, msg, signature []byte) bool {
	if l := len(publicKey); l != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), msg, signature)
}

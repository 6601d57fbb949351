// Package cryptox implements the key material used on the ledger: ed25519
// signers derived from 32-byte seeds, decentralized identifiers (DIDs) and
// verification keys in their full and abbreviated base58 forms.
package cryptox

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/mr-tron/base58"
)

// SeedSize is the required length of a signer seed.
const SeedSize = ed25519.SeedSize

// didSize is the number of leading verkey bytes that form the DID.
const didSize = 16

// Signer holds an ed25519 key pair derived from a seed.
type Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	did  string
}

// NewSigner derives a key pair from seed, which must be exactly SeedSize
// bytes (the ledger's seeds are 32 printable characters).
func NewSigner(seed []byte) (*Signer, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", common.ErrorInvalidSeed, SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Signer{
		priv: priv,
		pub:  pub,
		did:  base58.Encode(pub[:didSize]),
	}, nil
}

// DID returns the identifier: base58 of the first 16 verkey bytes.
func (s *Signer) DID() string {
	return s.did
}

// Verkey returns the abbreviated verkey: "~" followed by base58 of the
// remaining 16 bytes. It is only meaningful together with the DID.
func (s *Signer) Verkey() string {
	return "~" + base58.Encode(s.pub[didSize:])
}

// FullVerkey returns base58 of the whole public key.
func (s *Signer) FullVerkey() string {
	return base58.Encode(s.pub)
}

// PublicKey returns the raw ed25519 public key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.pub
}

// Sign signs msg and returns the base58-encoded signature.
func (s *Signer) Sign(msg []byte) string {
	return base58.Encode(ed25519.Sign(s.priv, msg))
}

// ExpandVerkey resolves a verkey as stored on the ledger to a public key.
// Abbreviated verkeys ("~...") are completed with the DID bytes.
func ExpandVerkey(did, verkey string) (ed25519.PublicKey, error) {
	var raw []byte
	if rest, ok := strings.CutPrefix(verkey, "~"); ok {
		head, err := base58.Decode(did)
		if err != nil || len(head) != didSize {
			return nil, fmt.Errorf("%w: bad did %q", common.ErrorInvalidVerkey, did)
		}
		tail, err := base58.Decode(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInvalidVerkey, err)
		}
		raw = append(head, tail...)
	} else {
		var err error
		raw, err = base58.Decode(verkey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInvalidVerkey, err)
		}
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", common.ErrorInvalidVerkey, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// SameVerkey reports whether two verkeys of the same DID denote the same key,
// regardless of abbreviation.
func SameVerkey(did, a, b string) bool {
	ka, err := ExpandVerkey(did, a)
	if err != nil {
		return false
	}
	kb, err := ExpandVerkey(did, b)
	if err != nil {
		return false
	}
	return bytes.Equal(ka, kb)
}

// Verify checks a base58 signature over msg.
func Verify(pub ed25519.PublicKey, msg []byte, signature string) error {
	sig, err := base58.Decode(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInvalidSignature, err)
	}
	if !ed25519.Verify(pub, msg, sig) {
		return common.ErrorInvalidSignature
	}
	return nil
}

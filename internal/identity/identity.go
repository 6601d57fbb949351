// Package identity generates the synthetic users of a load-test run.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/cryptox"
	"golang.org/x/crypto/hkdf"
)

// User is one simulated ledger user. Seed is 32 printable characters and is
// unique within a generated set.
type User struct {
	Identifier string
	Verkey     string
	Seed       []byte
}

// Generator produces a set of users.
type Generator interface {
	Generate(n int) ([]User, error)
}

var ErrInvalidCount = errors.New("users count must be positive")

// NewUser derives the identifier and abbreviated verkey for seed.
func NewUser(seed []byte) (User, error) {
	s, err := cryptox.NewSigner(seed)
	if err != nil {
		return User{}, err
	}
	return User{Identifier: s.DID(), Verkey: s.Verkey(), Seed: seed}, nil
}

// RandomGenerator draws every seed from crypto/rand.
type RandomGenerator struct{}

// randSeed is a seam for tests.
var randSeed = func() (string, error) {
	return common.MakeRandHexString(cryptox.SeedSize / 2)
}

func (RandomGenerator) Generate(n int) ([]User, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}
	return generate(n, func(int) ([]byte, error) {
		s, err := randSeed()
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	})
}

// DeterministicGenerator derives the i-th seed from BaseSeed with
// HKDF-SHA256, so the same base seed always yields the same users.
type DeterministicGenerator struct {
	BaseSeed []byte
}

func (g DeterministicGenerator) Generate(n int) ([]User, error) {
	if n <= 0 {
		return nil, ErrInvalidCount
	}
	if len(g.BaseSeed) == 0 {
		return nil, fmt.Errorf("%w: empty base seed", common.ErrorInvalidSeed)
	}
	return generate(n, func(i int) ([]byte, error) {
		r := hkdf.New(sha256.New, g.BaseSeed, nil, []byte(fmt.Sprintf("user-%d", i)))
		buf := make([]byte, cryptox.SeedSize/2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		return []byte(hex.EncodeToString(buf)), nil
	})
}

func generate(n int, seedFor func(i int) ([]byte, error)) ([]User, error) {
	users := make([]User, 0, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		seed, err := seedFor(i)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		if _, dup := seen[string(seed)]; dup {
			return nil, fmt.Errorf("seed %d: duplicate seed", i)
		}
		seen[string(seed)] = struct{}{}

		u, err := NewUser(seed)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

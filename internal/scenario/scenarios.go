package scenario

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/cryptox"
	"github.com/dmitrijs2005/ledgerload/internal/ledger"
)

// Operation labels used for metrics and logs.
const (
	OpNym    = "nym"
	OpGetNym = "get_nym"
)

func createNyms(ctx context.Context, s *session, job Job) error {
	steward, err := cryptox.NewSigner(job.Seed)
	if err != nil {
		return err
	}

	for i, n := range job.Nyms {
		req, err := ledger.NewNymRequest(steward, n.Dest, n.Verkey, "")
		if err != nil {
			return err
		}
		if _, err := s.submit(ctx, OpNym, req); err != nil {
			return fmt.Errorf("create nym %d (%s): %w", i, n.Dest, err)
		}
	}
	s.log.Info(ctx, "nyms created", "count", len(job.Nyms))
	return nil
}

// newSeed is a seam for tests.
var newSeed = func() ([]byte, error) {
	s, err := common.MakeRandHexString(cryptox.SeedSize / 2)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// wallet keeps a fixed DID while its signing key rotates.
type wallet struct {
	did string
	key *cryptox.Signer
}

func (w *wallet) DID() string {
	return w.did
}

func (w *wallet) Sign(msg []byte) string {
	return w.key.Sign(msg)
}

func rotateAndRead(ctx context.Context, s *session, job Job) error {
	key, err := cryptox.NewSigner(job.Seed)
	if err != nil {
		return err
	}
	w := &wallet{did: key.DID(), key: key}

	for i := range job.Iterations {
		seed, err := newSeed()
		if err != nil {
			return fmt.Errorf("iteration %d: new key: %w", i, err)
		}
		next, err := cryptox.NewSigner(seed)
		common.WipeByteArray(seed)
		if err != nil {
			return fmt.Errorf("iteration %d: new key: %w", i, err)
		}
		newVerkey := next.FullVerkey()

		req, err := ledger.NewNymRequest(w, w.did, newVerkey, "")
		if err != nil {
			return err
		}
		if _, err := s.submit(ctx, OpNym, req); err != nil {
			return fmt.Errorf("iteration %d: rotate key: %w", i, err)
		}
		w.key = next

		reply, err := s.submit(ctx, OpGetNym, ledger.NewGetNymRequest(w.did, w.did))
		if err != nil {
			return fmt.Errorf("iteration %d: read key: %w", i, err)
		}
		if reply.Result == nil || reply.Result.Data == nil {
			return fmt.Errorf("iteration %d: %w: nym %s not found", i, common.ErrVerkeyMismatch, w.did)
		}
		if got := reply.Result.Data.Verkey; !cryptox.SameVerkey(w.did, got, newVerkey) {
			return fmt.Errorf("iteration %d: %w: want %s, got %s", i, common.ErrVerkeyMismatch, newVerkey, got)
		}
		s.log.Info(ctx, "key rotated", "iteration", i+1, "verkey", newVerkey)
	}
	return nil
}

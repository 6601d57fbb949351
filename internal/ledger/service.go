package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/cryptox"
	"github.com/dmitrijs2005/ledgerload/internal/dbx"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/repositories/repomanager"
	"github.com/dmitrijs2005/ledgerload/internal/logging"
)

// Service validates requests against the current ledger state and applies
// NYM writes.
type Service struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time

	// writes are applied one at a time, in ledger order
	writeMu sync.Mutex
}

func NewService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *Service {
	if log == nil {
		log = logging.Nop{}
	}
	return &Service{db: db, repomanager: m, log: log, now: time.Now}
}

// Ping checks that the ledger store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Submit processes req and returns the ledger's reply. Rule violations are
// reported in the reply (REQNACK, REJECT); the error is reserved for
// infrastructure failures.
func (s *Service) Submit(ctx context.Context, req *Request) (*Reply, error) {
	if err := req.Validate(); err != nil {
		return reject(OpReqNack, req, err), nil
	}

	if !req.IsWrite() {
		return s.getNym(ctx, req)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var result *Result
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		result, err = s.writeNym(ctx, tx, req)
		return err
	})
	if err != nil {
		if isRuleViolation(err) {
			s.log.Debug(ctx, "nym write refused", "identifier", req.Identifier, "reqId", req.ReqID, "error", err)
			return reject(opFor(err), req, err), nil
		}
		return nil, err
	}

	s.log.Debug(ctx, "nym written", "dest", req.Operation.Dest, "seqNo", result.SeqNo)
	return &Reply{Op: OpReply, Identifier: req.Identifier, ReqID: req.ReqID, Result: result}, nil
}

func (s *Service) getNym(ctx context.Context, req *Request) (*Reply, error) {
	nym, err := s.repomanager.Nyms(s.db).Get(ctx, req.Operation.Dest)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	result := &Result{}
	if nym != nil {
		result.SeqNo = nym.SeqNo
		result.TxnTime = nym.TxnTime
		result.Data = nym
	}
	return &Reply{Op: OpReply, Identifier: req.Identifier, ReqID: req.ReqID, Result: result}, nil
}

func (s *Service) writeNym(ctx context.Context, tx dbx.DBTX, req *Request) (*Result, error) {
	nymRepo := s.repomanager.Nyms(tx)
	txnRepo := s.repomanager.Txns(tx)
	op := req.Operation

	seen, err := txnRepo.Exists(ctx, req.Identifier, req.ReqID)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, fmt.Errorf("%w: %s/%d", common.ErrReplay, req.Identifier, req.ReqID)
	}

	sender, err := nymRepo.Get(ctx, req.Identifier)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownSender, req.Identifier)
	}
	if err != nil {
		return nil, err
	}
	if err := verifyRequest(req, sender); err != nil {
		return nil, err
	}

	current, err := nymRepo.Get(ctx, op.Dest)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		current = nil
		if !sender.CanCreateNyms() {
			return nil, fmt.Errorf("%w: %s may not create nyms", common.ErrorUnauthorized, req.Identifier)
		}
		if op.Verkey == "" {
			return nil, fmt.Errorf("%w: new nym needs a verkey", common.ErrorInvalidRequest)
		}
	case err != nil:
		return nil, err
	default:
		if req.Identifier != op.Dest {
			return nil, fmt.Errorf("%w: only the owner may update %s", common.ErrorUnauthorized, op.Dest)
		}
		if op.Role != "" && op.Role != current.Role {
			return nil, fmt.Errorf("%w: role change is not supported", common.ErrorUnauthorized)
		}
	}

	if op.Verkey != "" {
		if _, err := cryptox.ExpandVerkey(op.Dest, op.Verkey); err != nil {
			return nil, err
		}
	}

	txn := &models.Txn{
		Identifier: req.Identifier,
		ReqID:      req.ReqID,
		Type:       op.Type,
		Dest:       op.Dest,
		Verkey:     op.Verkey,
		Role:       op.Role,
		TxnTime:    s.now().Unix(),
	}
	if _, err := txnRepo.Append(ctx, txn); err != nil {
		return nil, err
	}

	nym := &models.Nym{
		Dest:      op.Dest,
		Verkey:    op.Verkey,
		Role:      op.Role,
		CreatedBy: req.Identifier,
		SeqNo:     txn.SeqNo,
		TxnTime:   txn.TxnTime,
	}
	if current != nil {
		nym.Role = current.Role
		nym.CreatedBy = current.CreatedBy
		if nym.Verkey == "" {
			nym.Verkey = current.Verkey
		}
	}
	if err := nymRepo.Upsert(ctx, nym); err != nil {
		return nil, err
	}

	return &Result{SeqNo: txn.SeqNo, TxnTime: txn.TxnTime, Data: nym}, nil
}

// verifyRequest checks the request signature against the sender's verkey as
// currently stored on the ledger.
func verifyRequest(req *Request, sender *models.Nym) error {
	pub, err := cryptox.ExpandVerkey(sender.Dest, sender.Verkey)
	if err != nil {
		return err
	}
	payload, err := req.SigningPayload()
	if err != nil {
		return err
	}
	return cryptox.Verify(pub, payload, req.Signature)
}

func isRuleViolation(err error) bool {
	for _, c := range knownCauses {
		if errors.Is(err, c) {
			return true
		}
	}
	return false
}

// GenesisNym is a nym present on the ledger before any request.
type GenesisNym struct {
	Dest   string
	Verkey string
	Role   string
}

// StewardGenesis builds the genesis entry of the steward owning seed.
func StewardGenesis(seed []byte) (GenesisNym, error) {
	s, err := cryptox.NewSigner(seed)
	if err != nil {
		return GenesisNym{}, err
	}
	return GenesisNym{Dest: s.DID(), Verkey: s.Verkey(), Role: models.RoleSteward}, nil
}

// Bootstrap writes the genesis nyms that are not on the ledger yet. It is
// safe to call on every start.
func (s *Service) Bootstrap(ctx context.Context, genesis ...GenesisNym) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		nymRepo := s.repomanager.Nyms(tx)
		txnRepo := s.repomanager.Txns(tx)

		for _, g := range genesis {
			_, err := nymRepo.Get(ctx, g.Dest)
			if err == nil {
				continue
			}
			if !errors.Is(err, common.ErrorNotFound) {
				return err
			}

			txn := &models.Txn{
				Identifier: g.Dest,
				ReqID:      0,
				Type:       TypeNym,
				Dest:       g.Dest,
				Verkey:     g.Verkey,
				Role:       g.Role,
				TxnTime:    s.now().Unix(),
			}
			if _, err := txnRepo.Append(ctx, txn); err != nil {
				return fmt.Errorf("genesis %s: %w", g.Dest, err)
			}
			if err := nymRepo.Upsert(ctx, &models.Nym{
				Dest:      g.Dest,
				Verkey:    g.Verkey,
				Role:      g.Role,
				CreatedBy: g.Dest,
				SeqNo:     txn.SeqNo,
				TxnTime:   txn.TxnTime,
			}); err != nil {
				return fmt.Errorf("genesis %s: %w", g.Dest, err)
			}
			s.log.Info(ctx, "genesis nym written", "dest", g.Dest, "role", g.Role)
		}
		return nil
	})
}

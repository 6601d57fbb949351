// Package ledger implements the NYM ledger used by the load test: signed
// write requests, unsigned reads, and the Service that validates and applies
// them on top of the nym and transaction repositories.
package ledger

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
)

// Operation types.
const (
	TypeNym    = "1"
	TypeGetNym = "105"
)

type Operation struct {
	Type   string `json:"type"`
	Dest   string `json:"dest"`
	Verkey string `json:"verkey,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Request is a ledger request. Writes must carry the sender's signature
// over SigningPayload; reads are unsigned.
type Request struct {
	Identifier string    `json:"identifier"`
	ReqID      int64     `json:"reqId"`
	Operation  Operation `json:"operation"`
	Signature  string    `json:"signature,omitempty"`
}

// Sender identifies and signs write requests. *cryptox.Signer is a Sender
// whose DID is derived from its own key; after a key rotation the DID stays
// and only the signing key changes.
type Sender interface {
	DID() string
	Sign(msg []byte) string
}

var lastReqID atomic.Int64

// NextReqID returns a process-wide strictly increasing request id based on
// the wall clock in nanoseconds.
func NextReqID() int64 {
	for {
		now := time.Now().UnixNano()
		last := lastReqID.Load()
		if now <= last {
			now = last + 1
		}
		if lastReqID.CompareAndSwap(last, now) {
			return now
		}
	}
}

// NewNymRequest builds and signs a NYM write: register dest (sender must be a
// steward) or rotate dest's verkey (sender must be dest).
func NewNymRequest(sender Sender, dest, verkey, role string) (*Request, error) {
	req := &Request{
		Identifier: sender.DID(),
		ReqID:      NextReqID(),
		Operation:  Operation{Type: TypeNym, Dest: dest, Verkey: verkey, Role: role},
	}
	if err := req.Sign(sender); err != nil {
		return nil, err
	}
	return req, nil
}

// NewGetNymRequest builds a GET_NYM read of dest.
func NewGetNymRequest(identifier, dest string) *Request {
	return &Request{
		Identifier: identifier,
		ReqID:      NextReqID(),
		Operation:  Operation{Type: TypeGetNym, Dest: dest},
	}
}

// SigningPayload is the canonical JSON of everything but the signature.
func (r *Request) SigningPayload() ([]byte, error) {
	return json.Marshal(struct {
		Identifier string    `json:"identifier"`
		ReqID      int64     `json:"reqId"`
		Operation  Operation `json:"operation"`
	}{r.Identifier, r.ReqID, r.Operation})
}

func (r *Request) Sign(s Sender) error {
	payload, err := r.SigningPayload()
	if err != nil {
		return err
	}
	r.Signature = s.Sign(payload)
	return nil
}

// IsWrite reports whether the request changes ledger state.
func (r *Request) IsWrite() bool {
	return r.Operation.Type == TypeNym
}

// Validate performs the static checks done before any ledger lookup.
func (r *Request) Validate() error {
	if r.Identifier == "" {
		return fmt.Errorf("%w: missing identifier", common.ErrorInvalidRequest)
	}
	if r.ReqID <= 0 {
		return fmt.Errorf("%w: reqId must be positive", common.ErrorInvalidRequest)
	}
	if r.Operation.Dest == "" {
		return fmt.Errorf("%w: missing dest", common.ErrorInvalidRequest)
	}
	switch r.Operation.Type {
	case TypeGetNym:
		return nil
	case TypeNym:
		if r.Signature == "" {
			return fmt.Errorf("%w: write request is not signed", common.ErrorInvalidRequest)
		}
		if r.Operation.Role != "" && r.Operation.Role != models.RoleSteward && r.Operation.Role != models.RoleTrustee {
			return fmt.Errorf("%w: unknown role %q", common.ErrorInvalidRequest, r.Operation.Role)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown operation type %q", common.ErrorInvalidRequest, r.Operation.Type)
	}
}

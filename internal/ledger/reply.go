package ledger

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
)

// Reply kinds.
const (
	// OpReply is a successful write or read.
	OpReply = "REPLY"
	// OpReqNack is a statically invalid request (malformed, bad signature).
	OpReqNack = "REQNACK"
	// OpReject is a well-formed request refused by ledger rules.
	OpReject = "REJECT"
)

type Result struct {
	SeqNo   int64       `json:"seqNo,omitempty"`
	TxnTime int64       `json:"txnTime,omitempty"`
	Data    *models.Nym `json:"data"`
}

type Reply struct {
	Op         string  `json:"op"`
	Identifier string  `json:"identifier"`
	ReqID      int64   `json:"reqId"`
	Reason     string  `json:"reason,omitempty"`
	Result     *Result `json:"result,omitempty"`
}

// Err converts a non-REPLY reply into a *RejectError.
func (r *Reply) Err() error {
	if r.Op == OpReply {
		return nil
	}
	return &RejectError{Op: r.Op, ReqID: r.ReqID, Reason: r.Reason, Err: causeOf(r.Reason)}
}

// RejectError is a request refused by the ledger.
type RejectError struct {
	Op     string
	ReqID  int64
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s for request %d: %s", e.Op, e.ReqID, e.Reason)
}

func (e *RejectError) Unwrap() error {
	return e.Err
}

// knownCauses lets a client recover sentinel errors from the reason text
// of a reply received over the wire.
var knownCauses = []error{
	common.ErrorInvalidRequest,
	common.ErrorInvalidSignature,
	common.ErrorInvalidVerkey,
	common.ErrorUnauthorized,
	common.ErrReplay,
	common.ErrUnknownSender,
}

func causeOf(reason string) error {
	for _, c := range knownCauses {
		if len(reason) >= len(c.Error()) && reason[:len(c.Error())] == c.Error() {
			return c
		}
	}
	return nil
}

func reject(op string, req *Request, err error) *Reply {
	return &Reply{Op: op, Identifier: req.Identifier, ReqID: req.ReqID, Reason: err.Error()}
}

// opFor picks REQNACK for static failures and REJECT for rule violations.
func opFor(err error) string {
	if errors.Is(err, common.ErrorInvalidRequest) ||
		errors.Is(err, common.ErrorInvalidSignature) ||
		errors.Is(err, common.ErrorInvalidVerkey) {
		return OpReqNack
	}
	return OpReject
}

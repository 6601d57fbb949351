// Package models defines the ledger records persisted in the database.
package models

// Ledger roles. An empty role is a plain identity owner.
const (
	RoleTrustee = "0"
	RoleSteward = "2"
)

// Nym is the current state of a ledger identity: the DID and its active
// verification key.
type Nym struct {
	Dest      string `json:"dest"`
	Verkey    string `json:"verkey,omitempty"`
	Role      string `json:"role,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
	// SeqNo is the sequence number of the transaction that last wrote the nym.
	SeqNo int64 `json:"seqNo"`
	// TxnTime is the unix time (seconds) of that transaction.
	TxnTime int64 `json:"txnTime"`
}

// CanCreateNyms reports whether the role may register new identities.
func (n *Nym) CanCreateNyms() bool {
	return n.Role == RoleSteward || n.Role == RoleTrustee
}

// Txn is one entry of the append-only transaction log.
type Txn struct {
	SeqNo      int64
	Identifier string
	ReqID      int64
	Type       string
	Dest       string
	Verkey     string
	Role       string
	TxnTime    int64
}

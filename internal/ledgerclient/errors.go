package ledgerclient

import "errors"

var (
	ErrUnavailable = errors.New("ledger unavailable")
	ErrNotReady    = errors.New("ledger not ready")
)

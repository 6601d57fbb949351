// Package common defines shared sentinel errors and small helpers used across
// the load-test driver and the ledger node. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Request validation errors.
	ErrorInvalidRequest   = errors.New("invalid request")
	ErrorInvalidSignature = errors.New("invalid signature")
	ErrorInvalidSeed      = errors.New("invalid seed")
	ErrorInvalidVerkey    = errors.New("invalid verkey")

	// Ledger write errors.
	ErrReplay        = errors.New("request already processed")
	ErrUnknownSender = errors.New("unknown sender")

	// Scenario errors.
	ErrVerkeyMismatch = errors.New("verkey mismatch")
)

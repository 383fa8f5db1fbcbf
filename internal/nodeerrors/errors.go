// Package nodeerrors holds the sentinel errors shared across the node's
// actors, so callers can use errors.Is at component boundaries instead of
// string-matching (spec.md §7).
package nodeerrors

import "errors"

var (
	// Wire decode errors.
	ErrMalformedMessage = errors.New("nodeerrors: malformed message bytes")
	ErrUnknownMessageKind = errors.New("nodeerrors: unknown message kind byte")

	// Block acceptance errors.
	ErrInvalidSignature     = errors.New("nodeerrors: transaction signature invalid")
	ErrSenderAddrMismatch   = errors.New("nodeerrors: sender_addr does not match public key")
	ErrProofOfWorkFailed    = errors.New("nodeerrors: block hash exceeds tip difficulty")
	ErrParentUnknown        = errors.New("nodeerrors: block's parent is not in the store")
	ErrInvalidMerkleRoot    = errors.New("nodeerrors: header merkle_root does not match content")

	// Transaction batch errors.
	ErrBatchSignatureFailed = errors.New("nodeerrors: one or more transactions in batch failed verification")

	// Process-level errors.
	ErrChannelDisconnect = errors.New("nodeerrors: inbound channel closed")
)

package services

import "github.com/pkg/errors"

var (
	// ErrUnknownSigner means neither the manager nor a worker keystore
	// holds the requested from address.
	ErrUnknownSigner = errors.New("no keystore owns the requested signer")

	// ErrHashMismatch means the node reported a different hash than the
	// one derived locally from the signed payload. The stored row is kept
	// as a best-effort record; the caller must treat the send as failed.
	ErrHashMismatch = errors.New("broadcast returned an unexpected transaction hash")
)

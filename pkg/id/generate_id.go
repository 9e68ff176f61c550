package id

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID32 returns exactly 32 lowercase hex characters.
func NewID32() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// NewTransferRef returns a reference the token service uses to deduplicate a transfer.
func NewTransferRef() string { return "xfer_" + NewID32() }

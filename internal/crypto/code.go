package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// codeBytes is the entropy of a verification code. 32 bytes gives 256 bits,
// enough that codes are unguessable without expiry or attempt limits.
const codeBytes = 32

// NewVerificationCode generates a random hex-encoded one-time code.
func NewVerificationCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

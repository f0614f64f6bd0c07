package crypto

import (
	"encoding/hex"
	"testing"
)

func TestNewVerificationCode(t *testing.T) {
	code, err := NewVerificationCode()
	if err != nil {
		t.Fatalf("NewVerificationCode() unexpected error: %v", err)
	}

	if len(code) != codeBytes*2 {
		t.Errorf("NewVerificationCode() length = %d, want %d", len(code), codeBytes*2)
	}

	raw, err := hex.DecodeString(code)
	if err != nil {
		t.Fatalf("NewVerificationCode() returned non-hex code: %v", err)
	}
	if len(raw) != codeBytes {
		t.Errorf("NewVerificationCode() entropy = %d bytes, want %d", len(raw), codeBytes)
	}
}

func TestNewVerificationCodeUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := NewVerificationCode()
		if err != nil {
			t.Fatalf("NewVerificationCode() unexpected error: %v", err)
		}
		if seen[code] {
			t.Fatalf("NewVerificationCode() produced duplicate code: %s", code)
		}
		seen[code] = true
	}
}

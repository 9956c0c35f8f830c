package crypto

import (
	"encoding/base64"
	"errors"
	"testing"
)

const testKey = "k7Qp2vXw9mZr4tYb8nLc3hJd6fGs1aEu"

func newTestEncryptor(t *testing.T) *Encryptor {
	t.Helper()
	enc, err := NewEncryptor(testKey)
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}
	return enc
}

func TestNewEncryptor(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"32 bytes", testKey, false},
		{"empty", "", true},
		{"short", "not-long-enough", true},
		{"long", testKey + "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncryptor(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("error = %v, want ErrInvalidKey", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	enc := newTestEncryptor(t)
	token := "access-sandbox-8ab976e6-64bc-4b38-98f7-731e7a349970"

	sealed, err := enc.Encrypt(token)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed == token {
		t.Fatal("Encrypt returned the plaintext")
	}

	again, err := enc.Encrypt(token)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if again == sealed {
		t.Error("two encryptions of the same token should differ by nonce")
	}

	for _, ct := range []string{sealed, again} {
		got, err := enc.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != token {
			t.Errorf("Decrypt = %q, want %q", got, token)
		}
	}
}

func TestEmptyValuesPassThrough(t *testing.T) {
	enc := newTestEncryptor(t)

	if got, err := enc.Encrypt(""); err != nil || got != "" {
		t.Errorf("Encrypt(\"\") = %q, %v", got, err)
	}
	if got, err := enc.Decrypt(""); err != nil || got != "" {
		t.Errorf("Decrypt(\"\") = %q, %v", got, err)
	}
}

func TestDecryptRejects(t *testing.T) {
	enc := newTestEncryptor(t)
	sealed, err := enc.Encrypt("access-production-1")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[len(raw)-1] ^= 0xff

	other, err := NewEncryptor("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	tests := []struct {
		name  string
		enc   *Encryptor
		input string
	}{
		{"not base64", enc, "%%%"},
		{"too short", enc, base64.StdEncoding.EncodeToString([]byte("abc"))},
		{"tampered", enc, base64.StdEncoding.EncodeToString(raw)},
		{"wrong key", other, sealed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.enc.Decrypt(tt.input); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := enc.Decrypt(base64.StdEncoding.EncodeToString([]byte("abc"))); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("short input error = %v, want ErrCiphertextTooShort", err)
	}
}

package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestNewCodec_RejectsEmptyKey(t *testing.T) {
	if _, err := NewCodec("   "); err == nil {
		t.Fatal("expected error for blank key, got nil")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := mustCodec(t, "test-key")

	tests := []struct {
		name  string
		input string
	}{
		{name: "plain ascii", input: "12345"},
		{name: "decimal amount", input: "4.50"},
		{name: "free text with spaces", input: "Coffee at the corner shop"},
		{name: "multi-byte text", input: "コーヒー ☕ 4,50€"},
		{name: "long value", input: strings.Repeat("a9", 512)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := codec.Encrypt(tt.input)
			if err != nil {
				t.Fatalf("Encrypt returned error: %v", err)
			}
			if sealed == tt.input {
				t.Fatal("ciphertext equals plaintext")
			}
			got, err := codec.Decrypt(sealed)
			if err != nil {
				t.Fatalf("Decrypt returned error: %v", err)
			}
			if got != tt.input {
				t.Fatalf("round trip mismatch: want %q, got %q", tt.input, got)
			}
		})
	}
}

func TestCodec_EmptyStringRoundTripsToEmpty(t *testing.T) {
	codec := mustCodec(t, "test-key")

	sealed, err := codec.Encrypt("")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if sealed != "" {
		t.Fatalf("expected empty ciphertext, got %q", sealed)
	}
	got, err := codec.Decrypt("")
	if err != nil {
		t.Fatalf("Decrypt returned error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty plaintext, got %q", got)
	}
}

func TestCodec_CiphertextIsNonDeterministic(t *testing.T) {
	codec := mustCodec(t, "test-key")

	first, err := codec.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	second, err := codec.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct ciphertexts for repeated encryption")
	}
}

func TestCodec_DecryptFailures(t *testing.T) {
	codec := mustCodec(t, "test-key")

	tests := []struct {
		name  string
		input string
	}{
		{name: "legacy plaintext", input: "12345"},
		{name: "legacy plaintext with spaces", input: "never encrypted value"},
		{name: "valid base64 but garbage", input: "aGVsbG8gd29ybGQgdGhpcyBpcyBub3QgY2lwaGVydGV4dA"},
		{name: "truncated", input: "YWJj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Decrypt(tt.input); !errors.Is(err, ErrDecrypt) {
				t.Fatalf("expected ErrDecrypt, got %v", err)
			}
		})
	}
}

func TestCodec_KeyMismatchFailsDecrypt(t *testing.T) {
	first := mustCodec(t, "key-one")
	second := mustCodec(t, "key-two")

	sealed, err := first.Encrypt("sensitive")
	if err != nil {
		t.Fatalf("Encrypt returned error: %v", err)
	}
	if _, err := second.Decrypt(sealed); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt under wrong key, got %v", err)
	}
}

func mustCodec(t *testing.T, key string) *Codec {
	t.Helper()
	codec, err := NewCodec(key)
	if err != nil {
		t.Fatalf("NewCodec returned error: %v", err)
	}
	return codec
}

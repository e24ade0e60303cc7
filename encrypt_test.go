package morph

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

var testKey = []byte("32-byte-key-for-aes-256-encrypt!")

func TestAES_RoundTrip(t *testing.T) {
	enc, err := AES(testKey)
	if err != nil {
		t.Fatalf("AES() error: %v", err)
	}

	plaintext := []byte("hello, world!")
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if bytes.Equal(plaintext, ciphertext) {
		t.Error("ciphertext should differ from plaintext")
	}

	decrypted, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error: %v", err)
	}
	if !bytes.Equal(plaintext, decrypted) {
		t.Errorf("round-trip failed: got %q, want %q", decrypted, plaintext)
	}
}

func TestAES_InvalidKeySize(t *testing.T) {
	if _, err := AES([]byte("short")); err == nil {
		t.Error("expected error for invalid key size")
	}
}

func TestAES_DifferentNonce(t *testing.T) {
	enc, _ := AES(testKey)

	c1, _ := enc.Encrypt([]byte("hello"))
	c2, _ := enc.Encrypt([]byte("hello"))
	if bytes.Equal(c1, c2) {
		t.Error("same plaintext should produce different ciphertext (random nonce)")
	}
}

func TestAES_Tampered(t *testing.T) {
	enc, _ := AES(testKey)

	if _, err := enc.Decrypt([]byte("abc")); err == nil {
		t.Error("Decrypt() of short input should fail")
	}
	c, _ := enc.Encrypt([]byte("hello"))
	c[len(c)-1] ^= 0xff
	if _, err := enc.Decrypt(c); err == nil {
		t.Error("Decrypt() of tampered ciphertext should fail")
	}
}

func TestEncryptDecrypt_Transform(t *testing.T) {
	enc, _ := AES(testKey)
	src := map[string]any{"email": "alice@example.com", "none": nil}

	sealed := eval(t, Encrypt(enc, Get("email")), src)
	s, ok := sealed.(string)
	if !ok || s == "alice@example.com" {
		t.Fatalf("Encrypt() = %v, want base64 ciphertext", sealed)
	}

	opened := eval(t, Decrypt(enc, Self()), s)
	if opened != "alice@example.com" {
		t.Errorf("Decrypt() = %v, want alice@example.com", opened)
	}

	if got := eval(t, Encrypt(enc, Get("none")), src); got != nil {
		t.Errorf("Encrypt() of nil = %v, want nil", got)
	}
	if _, err := Eval(context.Background(), Decrypt(enc, Const("not base64!")), nil); !errors.Is(err, ErrCoercion) {
		t.Errorf("Decrypt() of garbage error = %v, want ErrCoercion", err)
	}
	if err := checkAll(Encrypt(nil, Get("email"))); !errors.Is(err, ErrDefinition) {
		t.Errorf("check() with nil encryptor error = %v, want ErrDefinition", err)
	}
}

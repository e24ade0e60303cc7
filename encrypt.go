package morph

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// Encryptor performs reversible encryption.
type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

var errCiphertextShort = errors.New("ciphertext too short")

type aesGCM struct {
	aead cipher.AEAD
}

// AES returns an AES-GCM encryptor. The key must be 16, 24 or 32 bytes.
// Ciphertext is the random nonce followed by the sealed data.
func AES(key []byte) (Encryptor, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	return &aesGCM{aead: aead}, nil
}

func (e *aesGCM) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize(), e.aead.NonceSize()+len(plaintext)+e.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *aesGCM) Decrypt(ciphertext []byte) ([]byte, error) {
	n := e.aead.NonceSize()
	if len(ciphertext) < n {
		return nil, errCiphertextShort
	}
	return e.aead.Open(nil, ciphertext[:n], ciphertext[n:], nil)
}

type cryptNode struct {
	enc     Encryptor
	decrypt bool
	inner   Transform
}

// Encrypt returns a transform encrypting the string form of inner's result.
// The output is base64 (standard encoding) text.
func Encrypt(enc Encryptor, inner any) Transform {
	return &cryptNode{enc: enc, inner: asTransform(inner)}
}

// Decrypt returns a transform reversing Encrypt: it decodes base64 text and
// decrypts it into a string.
func Decrypt(enc Encryptor, inner any) Transform {
	return &cryptNode{enc: enc, decrypt: true, inner: asTransform(inner)}
}

func (n *cryptNode) check() error {
	if n.enc == nil {
		return definitionError("nil encryptor")
	}
	return checkAll(n.inner)
}

func (n *cryptNode) Eval(scope *Scope, source any) (any, error) {
	v, err := n.inner.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	s, err := ToString(v)
	if err != nil {
		return nil, err
	}

	if !n.decrypt {
		out, err := n.enc.Encrypt([]byte(s))
		if err != nil {
			return nil, newCoercionError("ciphertext", v, err)
		}
		return base64.StdEncoding.EncodeToString(out), nil
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, newCoercionError("plaintext", v, err)
	}
	out, err := n.enc.Decrypt(raw)
	if err != nil {
		return nil, newCoercionError("plaintext", v, err)
	}
	return string(out), nil
}

package morph

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hasher performs one-way hashing.
// Password hashers (argon2, bcrypt) embed salt and parameters in the result;
// deterministic hashers (sha256, sha512) return hex digests.
type Hasher interface {
	Hash(plaintext []byte) (string, error)
}

// HasherFunc adapts a function to Hasher.
type HasherFunc func([]byte) (string, error)

// Hash implements Hasher.
func (f HasherFunc) Hash(plaintext []byte) (string, error) { return f(plaintext) }

// Argon2Params configures Argon2id hashing.
type Argon2Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params returns the OWASP-recommended Argon2id parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

// Argon2 returns an Argon2id hasher producing PHC-formatted strings.
func Argon2(p Argon2Params) Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		salt := make([]byte, p.SaltLen)
		if _, err := rand.Read(salt); err != nil {
			return "", fmt.Errorf("generate salt: %w", err)
		}
		key := argon2.IDKey(plaintext, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
		return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2.Version, p.Memory, p.Time, p.Threads,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key),
		), nil
	})
}

// Bcrypt returns a bcrypt hasher with the given cost.
func Bcrypt(cost int) Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		out, err := bcrypt.GenerateFromPassword(plaintext, cost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(out), nil
	})
}

// SHA256 returns a hex-encoded SHA-256 hasher. Not for passwords.
func SHA256() Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		sum := sha256.Sum256(plaintext)
		return hex.EncodeToString(sum[:]), nil
	})
}

// SHA512 returns a hex-encoded SHA-512 hasher. Not for passwords.
func SHA512() Hasher {
	return HasherFunc(func(plaintext []byte) (string, error) {
		sum := sha512.Sum512(plaintext)
		return hex.EncodeToString(sum[:]), nil
	})
}

// HasherFor returns the built-in hasher for algo with default parameters.
func HasherFor(algo HashAlgo) (Hasher, bool) {
	switch algo {
	case HashArgon2:
		return Argon2(DefaultArgon2Params()), true
	case HashBcrypt:
		return Bcrypt(bcrypt.DefaultCost), true
	case HashSHA256:
		return SHA256(), true
	case HashSHA512:
		return SHA512(), true
	}
	return nil, false
}

type hashNode struct {
	algo   HashAlgo
	hasher Hasher
	inner  Transform
}

// Hash returns a transform hashing the string form of inner's result.
func Hash(algo HashAlgo, inner any) Transform {
	h, _ := HasherFor(algo)
	return &hashNode{algo: algo, hasher: h, inner: asTransform(inner)}
}

// HashWith returns a transform hashing inner's result with a custom hasher.
func HashWith(h Hasher, inner any) Transform {
	return &hashNode{algo: "custom", hasher: h, inner: asTransform(inner)}
}

func (n *hashNode) check() error {
	if n.hasher == nil {
		return definitionError("unknown hash algorithm %q", n.algo)
	}
	return checkAll(n.inner)
}

func (n *hashNode) Eval(scope *Scope, source any) (any, error) {
	v, err := n.inner.Eval(scope, source)
	if err != nil || v == nil {
		return nil, err
	}
	s, err := ToString(v)
	if err != nil {
		return nil, err
	}
	out, err := n.hasher.Hash([]byte(s))
	if err != nil {
		return nil, newCoercionError(string(n.algo), v, err)
	}
	return out, nil
}

package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies user passwords. Verify never returns an
// error: a malformed or foreign hash simply does not match.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// Supported algorithm names, as used in configuration.
const (
	AlgBcrypt   = "bcrypt"
	AlgArgon2id = "argon2id"
)

// Argon2id parameters.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

var errHashFormat = errors.New("cryptox: invalid hash format")

// BcryptHasher produces standard $2a$ bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) cost() int {
	if h.Cost < bcrypt.MinCost || h.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

func (h BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", fmt.Errorf("cryptox: bcrypt: %w", err)
	}
	return string(b), nil
}

func (h BcryptHasher) Verify(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password)) == nil
}

// Argon2Hasher produces PHC-format Argon2id hashes. Pepper is appended to the
// password before hashing and must stay stable for existing hashes to verify.
type Argon2Hasher struct {
	Pepper string
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password+h.Pepper), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (h Argon2Hasher) Verify(password, encodedHash string) bool {
	return verifyArgon2(password+h.Pepper, encodedHash) == nil
}

// verifyArgon2 checks a PHC string: $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
func verifyArgon2(secret, encodedHash string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" || parts[2] != "v=19" {
		return errHashFormat
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return errHashFormat
	}
	if iters == 0 || par == 0 {
		return errHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return errHashFormat
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return errHashFormat
	}

	computed := argon2.IDKey(
		[]byte(secret),
		salt,
		iters,
		mem,
		par,
		uint32(len(expected)), // #nosec G115
	)
	if subtle.ConstantTimeCompare(computed, expected) != 1 {
		return errors.New("password does not match")
	}
	return nil
}

// MultiHasher hashes with Primary and verifies any supported algorithm by
// inspecting the hash prefix, so existing hashes keep working after the
// configured algorithm changes.
type MultiHasher struct {
	Primary string
	Bcrypt  BcryptHasher
	Argon2  Argon2Hasher
}

// NewMultiHasher validates alg and returns a hasher for it.
func NewMultiHasher(alg string, bcryptCost int, pepper string) (*MultiHasher, error) {
	switch alg {
	case AlgBcrypt, AlgArgon2id:
	default:
		return nil, fmt.Errorf("cryptox: unsupported password algorithm %q", alg)
	}
	return &MultiHasher{
		Primary: alg,
		Bcrypt:  BcryptHasher{Cost: bcryptCost},
		Argon2:  Argon2Hasher{Pepper: pepper},
	}, nil
}

func (h *MultiHasher) Hash(password string) (string, error) {
	if h.Primary == AlgArgon2id {
		return h.Argon2.Hash(password)
	}
	return h.Bcrypt.Hash(password)
}

func (h *MultiHasher) Verify(password, encodedHash string) bool {
	switch algorithmOf(encodedHash) {
	case AlgBcrypt:
		return h.Bcrypt.Verify(password, encodedHash)
	case AlgArgon2id:
		return h.Argon2.Verify(password, encodedHash)
	default:
		return false
	}
}

// NeedsRehash reports whether encodedHash was produced by something other
// than the primary algorithm (or an outdated bcrypt cost).
func (h *MultiHasher) NeedsRehash(encodedHash string) bool {
	alg := algorithmOf(encodedHash)
	if alg != h.Primary {
		return true
	}
	if alg == AlgBcrypt {
		cost, err := bcrypt.Cost([]byte(encodedHash))
		return err != nil || cost != h.Bcrypt.cost()
	}
	return false
}

func algorithmOf(encodedHash string) string {
	switch {
	case strings.HasPrefix(encodedHash, "$2a$"),
		strings.HasPrefix(encodedHash, "$2b$"),
		strings.HasPrefix(encodedHash, "$2y$"):
		return AlgBcrypt
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return AlgArgon2id
	default:
		return ""
	}
}

package cryptox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// InviteAlphabet omits characters that are easily confused when read aloud
// or typed: 0/O/o, 1/l/I/i.
const InviteAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"

// GenerateCode returns a uniformly random string of length characters drawn
// from alphabet.
func GenerateCode(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}
	if len(alphabet) < 2 {
		return "", errors.New("alphabet too small")
	}

	base := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

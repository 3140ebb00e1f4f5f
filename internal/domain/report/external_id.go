package report

import (
	"crypto/rand"

	"bugtriage/internal/errs"
)

const externalIDLength = 12

const externalIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// largest multiple of len(externalIDAlphabet) that fits in a byte; values at
// or above it are discarded so every character is equally likely.
const externalIDByteLimit = 252

// NewExternalID returns the externally visible report identifier: 12
// lowercase alphanumeric characters. The internal sequential key never
// leaves the system.
func NewExternalID() (string, error) {
	out := make([]byte, 0, externalIDLength)
	buf := make([]byte, externalIDLength)
	for len(out) < externalIDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", errs.Wrap(err, "read random bytes")
		}
		for _, b := range buf {
			if b >= externalIDByteLimit {
				continue
			}
			out = append(out, externalIDAlphabet[int(b)%len(externalIDAlphabet)])
			if len(out) == externalIDLength {
				break
			}
		}
	}
	return string(out), nil
}

package security

import (
	"crypto/rand"
	"fmt"
)

// UpperAlnum is the alphabet used for human facing reference codes.
const UpperAlnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString draws length characters uniformly from charset using
// crypto/rand with rejection sampling.
func RandomString(length int, charset string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if len(charset) == 0 || len(charset) > 256 {
		return "", fmt.Errorf("charset must hold 1..256 characters")
	}

	limit := 256 - (256 % len(charset))
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, charset[int(b)%len(charset)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

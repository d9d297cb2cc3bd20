package lib

import (
	"context"
	"crypto/rand"
	"fmt"
)

// 0/O and 1/I are excluded so codes survive being read aloud
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// GenerateUniqueCode produces a 6-character join code for a teacher profile.
// exists reports whether a candidate is already taken; a handful of attempts
// is plenty with a 32^6 space.
func GenerateUniqueCode(ctx context.Context, exists func(ctx context.Context, code string) (bool, error)) (string, error) {
	const maxAttempts = 10

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}

		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique teacher code after %d attempts", maxAttempts)
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

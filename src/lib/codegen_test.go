package lib

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neverTaken(ctx context.Context, code string) (bool, error) {
	return false, nil
}

func TestGenerateUniqueCodeFormat(t *testing.T) {
	ctx := context.Background()
	seen := map[string]bool{}

	for i := 0; i < 50; i++ {
		code, err := GenerateUniqueCode(ctx, neverTaken)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected character %q in code %s", r, code)
		}
		assert.NotContains(t, code, "0")
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "1")
		assert.NotContains(t, code, "I")
		seen[code] = true
	}
	// 32^6 candidates; 50 draws colliding would point at a broken generator
	assert.Greater(t, len(seen), 45)
}

func TestGenerateUniqueCodeRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls <= 3, nil
	}

	code, err := GenerateUniqueCode(context.Background(), exists)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, 4, calls)
}

func TestGenerateUniqueCodeGivesUp(t *testing.T) {
	alwaysTaken := func(ctx context.Context, code string) (bool, error) {
		return true, nil
	}

	_, err := GenerateUniqueCode(context.Background(), alwaysTaken)
	require.Error(t, err)
}

func TestGenerateUniqueCodePropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	failing := func(ctx context.Context, code string) (bool, error) {
		return false, boom
	}

	_, err := GenerateUniqueCode(context.Background(), failing)
	assert.ErrorIs(t, err, boom)
}

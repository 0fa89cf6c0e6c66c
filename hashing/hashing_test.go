package hashing

import (
	"errors"
	"hash"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSha256(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    Hashable
		expected string
	}{
		{
			name:     "empty string",
			input:    HashableString(""),
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "simple string",
			input:    HashableString("hello"),
			expected: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
		{
			name:     "simple bytes",
			input:    HashableBytes([]byte("hello")),
			expected: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := Sha256(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestXxh3(t *testing.T) {
	t.Parallel()

	a, err := Xxh3(HashableBytes([]byte("- descriptor: {id: m}")))
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := Xxh3(HashableString("- descriptor: {id: m}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Xxh3(HashableString("- descriptor: {id: n}"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

var errWrite = errors.New("write failed")

type failing struct{}

func (failing) UpdateHash(hash.Hash) error { return errWrite }

func TestHashErrors(t *testing.T) {
	t.Parallel()

	for _, fn := range []HashFunc{Xxh3, Sha256} {
		_, err := fn(failing{})
		require.ErrorIs(t, err, errWrite)
	}
}

// Package hashing fingerprints description content so unchanged files can be
// skipped without recompiling them.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"github.com/zeebo/xxh3"
)

// HashFunc takes a Hashable and returns a string representation of its hash.
// Xxh3 and Sha256 are both HashFuncs.
type HashFunc func(hashable Hashable) (string, error)

// Hashable is anything that can feed its contents into a hash.Hash.
type Hashable interface {
	UpdateHash(h hash.Hash) error
}

// Xxh3 returns the 64-bit XXH3 hash of the given Hashable, hex encoded.
// This is the default fingerprint for description files.
func Xxh3(hashable Hashable) (string, error) {
	return sum(xxh3.New(), hashable)
}

// Sha256 returns the SHA256 hash of the given Hashable, hex encoded.
func Sha256(hashable Hashable) (string, error) {
	return sum(sha256.New(), hashable)
}

func sum(h hash.Hash, hashable Hashable) (string, error) {
	if err := hashable.UpdateHash(h); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashableString hashes a string's bytes.
type HashableString string

func (s HashableString) UpdateHash(h hash.Hash) error {
	_, err := h.Write([]byte(s))

	return err
}

// HashableBytes hashes a byte slice, typically a file's content.
type HashableBytes []byte

func (b HashableBytes) UpdateHash(h hash.Hash) error {
	_, err := h.Write(b)

	return err
}

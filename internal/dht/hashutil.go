package dht

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// HashFunc is a deterministic mapping from a name and an identifier-space
// size to an integer key in [0, N). The core treats it as opaque;
// swapping it changes key distribution only, never correctness.
type HashFunc func(name string, n int) int

// DefaultHash hashes name with SHA3-256 and folds the leading 8 bytes of
// the digest, interpreted as a big-endian uint64, into [0, n) by modulo.
func DefaultHash(name string, n int) int {
	sum := sha3.Sum256([]byte(name))
	prefix := binary.BigEndian.Uint64(sum[:8])
	return int(prefix % uint64(n))
}

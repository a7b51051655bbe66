// Package types provides common type definitions for stateberry.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Version represents a state revision, typically a block height.
// Versions are assigned by the caller and must increase monotonically
// across committed batches.
type Version uint64

// KeyHashSize is the size of a key hash in bytes.
const KeyHashSize = sha256.Size // 32 bytes

// KeyHash is the fixed-size digest of an application-level key.
// The external merkle tree addresses all state by key hash; the
// original key bytes are recovered through the preimage index.
type KeyHash [KeyHashSize]byte

// NodeKey is an opaque, byte-comparable tree node identifier assigned
// by the external tree algorithm. The store never interprets it beyond
// exact-match lookups.
type NodeKey []byte

// String returns the version as a string.
func (v Version) String() string {
	return fmt.Sprintf("%d", v)
}

// Uint64 returns the version as a uint64.
func (v Version) Uint64() uint64 {
	return uint64(v)
}

// HashKey computes the key hash for application key bytes.
func HashKey(key []byte) KeyHash {
	return sha256.Sum256(key)
}

// NewKeyHash builds a KeyHash from raw digest bytes.
// Returns an error if b is not exactly KeyHashSize bytes.
func NewKeyHash(b []byte) (KeyHash, error) {
	var kh KeyHash
	if len(b) != KeyHashSize {
		return kh, fmt.Errorf("%w: key hash must be %d bytes, got %d", ErrInvalidKeyHash, KeyHashSize, len(b))
	}
	copy(kh[:], b)
	return kh, nil
}

// String returns the key hash as a hexadecimal string.
func (kh KeyHash) String() string {
	return hex.EncodeToString(kh[:])
}

// Bytes returns the raw bytes of the key hash.
func (kh KeyHash) Bytes() []byte {
	return kh[:]
}

// IsZero returns true if the key hash is all zeros.
func (kh KeyHash) IsZero() bool {
	return kh == KeyHash{}
}

// String returns the node key as a hexadecimal string.
func (k NodeKey) String() string {
	return hex.EncodeToString(k)
}

// Equal returns true if the node keys are equal.
func (k NodeKey) Equal(other NodeKey) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the node key.
func (k NodeKey) Clone() NodeKey {
	return append(NodeKey(nil), k...)
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortHashLen is the number of hex characters kept by ShortHash.
// Sixteen characters (64 bits) keeps store paths readable while making
// accidental collisions between distinct source images vanishingly unlikely.
const ShortHashLen = 16

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ShortHash computes a SHA-256 hash truncated to ShortHashLen hex characters.
// Used for content-addressed store paths where full digests are unwieldy.
func ShortHash(data []byte) string {
	return Hash(data)[:ShortHashLen]
}

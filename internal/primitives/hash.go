// Package primitives defines the fixed-width binary value types shared by
// every component of the ledger: hashes, addresses, signatures and the
// unsigned balance type. All types here are plain values (safe to
// copy) and encode to lowercase hex without a leading "0x", matching the
// wire contract the HTTP surface and the persisted rows both rely on.
package primitives

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashSize is the length in bytes of a Hash.
const HashSize = 32

// Hash is a 32-byte, big-endian digest. The zero value is the all-zero
// hash used as the parent_hash of the first block.
type Hash [HashSize]byte

// ZeroHash is the all-zero Hash value.
var ZeroHash = Hash{}

// String returns the lowercase hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// LeadingZeroBytes returns the number of leading zero bytes in h. This is a
// deliberate byte-granularity measure (not bits): it is the unit the
// difficulty target is expressed in.
func (h Hash) LeadingZeroBytes() int {
	n := 0
	for _, b := range h {
		if b != 0 {
			break
		}
		n++
	}
	return n
}

// HashFromHex decodes a hex string of exactly HashSize*2 characters into a
// Hash. Invalid hex or a wrong-length input is rejected with an error.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("primitives: decode hash hex: %w", err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("primitives: hash must be %d bytes, got %d", HashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// MarshalJSON implements json.Marshaler, encoding the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

// Bytes returns a freshly allocated copy of h's bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

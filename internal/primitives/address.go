package primitives

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// AddressSize is the length in bytes of an Address: the SEC1-compressed
// encoding of a secp256k1 public key.
const AddressSize = 33

// Address is a 33-byte SEC1-compressed secp256k1 public key, used as the
// sole account identifier throughout the ledger.
type Address [AddressSize]byte

// ZeroAddress is the all-zero Address value.
var ZeroAddress = Address{}

// String returns the lowercase hex encoding of a.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// AddressFromHex decodes a hex string of exactly AddressSize*2 characters.
func AddressFromHex(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("primitives: decode address hex: %w", err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("primitives: address must be %d bytes, got %d", AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// MarshalJSON implements json.Marshaler.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := AddressFromHex(s)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// Bytes returns a freshly allocated copy of a's bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressSize)
	copy(out, a[:])
	return out
}

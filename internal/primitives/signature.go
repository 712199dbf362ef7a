package primitives

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SignatureSize is the length in bytes of a compact ECDSA signature: the
// concatenation of the 32-byte r and 32-byte s values, with no recovery
// byte and no DER framing.
const SignatureSize = 64

// Signature is a 64-byte compact ECDSA (r‖s) signature over secp256k1.
type Signature [SignatureSize]byte

// String returns the lowercase hex encoding of s.
func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// SignatureFromHex decodes a hex string of exactly SignatureSize*2 characters.
func SignatureFromHex(str string) (Signature, error) {
	var s Signature
	b, err := hex.DecodeString(str)
	if err != nil {
		return s, fmt.Errorf("primitives: decode signature hex: %w", err)
	}
	if len(b) != SignatureSize {
		return s, fmt.Errorf("primitives: signature must be %d bytes, got %d", SignatureSize, len(b))
	}
	copy(s[:], b)
	return s, nil
}

// MarshalJSON implements json.Marshaler.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Signature) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	decoded, err := SignatureFromHex(str)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// R returns the first 32 bytes of the compact signature.
func (s Signature) R() [32]byte {
	var r [32]byte
	copy(r[:], s[:32])
	return r
}

// S returns the last 32 bytes of the compact signature.
func (s Signature) S() [32]byte {
	var v [32]byte
	copy(v[:], s[32:])
	return v
}

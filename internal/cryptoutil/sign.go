package cryptoutil

import (
	"errors"

	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/coreledger/ledgerd/internal/primitives"
)

// Sentinel crypto errors. Callers (the API handlers and the mining
// protocol) choose the apierr Crypto code to report for them.
var (
	ErrInvalidMessage    = errors.New("cryptoutil: message must be a 32-byte digest")
	ErrInvalidPrivateKey = errors.New("cryptoutil: private key scalar out of range")
	ErrInvalidSignature  = errors.New("cryptoutil: signature does not verify")
	ErrInvalidPublicKey  = errors.New("cryptoutil: malformed public key")
)

// Sign produces a compact (r‖s) ECDSA signature over secp256k1 for an
// already-hashed 32-byte message digest.
func Sign(private primitives.Hash, message []byte) (primitives.Signature, error) {
	if len(message) != primitives.HashSize {
		return primitives.Signature{}, ErrInvalidMessage
	}
	privKey, err := privateKeyFromHash(private)
	if err != nil {
		return primitives.Signature{}, err
	}

	// btcecdsa.SignCompact returns [recovery/header byte][32-byte r][32-byte s];
	// the ledger's wire signature drops the recovery byte, since verification
	// here always carries the signer's public key alongside the signature.
	compact, err := btcecdsa.SignCompact(privKey, message, true)
	if err != nil {
		return primitives.Signature{}, err
	}

	var sig primitives.Signature
	copy(sig[:], compact[1:])
	return sig, nil
}

// Verify checks sig against message under the secp256k1 public key encoded
// by pub (the account address).
func Verify(pub primitives.Address, sig primitives.Signature, message []byte) error {
	if len(message) != primitives.HashSize {
		return ErrInvalidMessage
	}
	pubKey, err := secp256k1.ParsePubKey(pub[:])
	if err != nil {
		return ErrInvalidPublicKey
	}

	rBytes := sig.R()
	sBytes := sig.S()
	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(rBytes[:]); overflow {
		return ErrInvalidSignature
	}
	if overflow := s.SetByteSlice(sBytes[:]); overflow {
		return ErrInvalidSignature
	}

	signature := ecdsa.NewSignature(&r, &s)
	if !signature.Verify(message, pubKey) {
		return ErrInvalidSignature
	}
	return nil
}

// DerivePubKey returns the SEC1-compressed public key (the Address) for a
// private scalar.
func DerivePubKey(private primitives.Hash) (primitives.Address, error) {
	privKey, err := privateKeyFromHash(private)
	if err != nil {
		return primitives.Address{}, err
	}
	var addr primitives.Address
	copy(addr[:], privKey.PubKey().SerializeCompressed())
	return addr, nil
}

func privateKeyFromHash(private primitives.Hash) (*secp256k1.PrivateKey, error) {
	var scalar secp256k1.ModNScalar
	overflow := scalar.SetByteSlice(private[:])
	if overflow || scalar.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return secp256k1.NewPrivateKey(&scalar), nil
}

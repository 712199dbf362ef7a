package cryptoutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreledger/ledgerd/internal/primitives"
)

func testPrivateKey(t *testing.T, b byte) primitives.Hash {
	t.Helper()
	var h primitives.Hash
	for i := range h {
		h[i] = b
	}
	return h
}

func TestSignVerifyRoundTrip(t *testing.T) {
	priv := testPrivateKey(t, 0x07)
	pub, err := DerivePubKey(priv)
	require.NoError(t, err)

	msg := HashMessage([]byte("hello ledger"))

	sig, err := Sign(priv, msg[:])
	require.NoError(t, err)

	require.NoError(t, Verify(pub, sig, msg[:]))
}

func TestVerifyRejectsWrongSigner(t *testing.T) {
	priv1 := testPrivateKey(t, 0x01)
	priv2 := testPrivateKey(t, 0x02)
	pub2, err := DerivePubKey(priv2)
	require.NoError(t, err)

	msg := HashMessage([]byte("hello ledger"))
	sig, err := Sign(priv1, msg[:])
	require.NoError(t, err)

	require.ErrorIs(t, Verify(pub2, sig, msg[:]), ErrInvalidSignature)
}

func TestSignRejectsWrongLengthMessage(t *testing.T) {
	priv := testPrivateKey(t, 0x09)
	_, err := Sign(priv, []byte("too short"))
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestHashNodesIsOrderSensitive(t *testing.T) {
	a := HashMessage([]byte("a"))
	b := HashMessage([]byte("b"))
	require.NotEqual(t, HashNodes(a, b), HashNodes(b, a))
}

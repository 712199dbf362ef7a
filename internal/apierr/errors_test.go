package apierr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicMessageHidesInternalCause(t *testing.T) {
	err := Wrap(errors.New("pq: connection reset by peer"))
	require.Equal(t, 500, err.Code.HTTPStatus())
	require.Equal(t, "Internal server error", err.PublicMessage())
}

func TestPublicMessageSurfacesBadRequest(t *testing.T) {
	err := New(CodeBadRequest, "No transactions to mine")
	require.Equal(t, 400, err.Code.HTTPStatus())
	require.Equal(t, "No transactions to mine", err.PublicMessage())
}

func TestNotFoundStatus(t *testing.T) {
	err := New(CodeNotFound, "transaction not found")
	require.Equal(t, 404, err.Code.HTTPStatus())
}

package memstore_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/coreledger/ledgerd/internal/primitives"
	"github.com/coreledger/ledgerd/internal/store/memstore"
	"github.com/coreledger/ledgerd/internal/testfixtures"
)

func TestAccountScenariosFromFixtures(t *testing.T) {
	suite, err := testfixtures.Load("../../testfixtures/testdata/scenarios.yaml")
	require.NoError(t, err)

	for _, sc := range suite.AccountScenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			ctx := context.Background()
			s := memstore.New()
			var addr primitives.Address
			addr[0] = 0x01

			starting, err := primitives.BalanceFromString(sc.StartingBalance)
			require.NoError(t, err)
			require.NoError(t, s.Accounts().UpdateBalance(ctx, addr, starting))

			delta, ok := new(big.Int).SetString(sc.Delta, 10)
			require.True(t, ok)

			err = s.Accounts().CreditBalance(ctx, addr, delta)
			if sc.ExpectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			got, err := s.Accounts().GetBalance(ctx, addr)
			require.NoError(t, err)
			if got.String() != sc.ExpectedBalance {
				t.Fatalf("scenario %s: balance = %s, want %s\naccount: %s",
					sc.Name, got.String(), sc.ExpectedBalance, spew.Sdump(got))
			}
		})
	}
}

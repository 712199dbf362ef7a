package pgstore

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/primitives"
)

type accountStore struct {
	q execer
}

func (a accountStore) EnsureExists(ctx context.Context, addr primitives.Address) error {
	_, err := a.q.ExecContext(ctx,
		`INSERT INTO accounts (address, balance, nonce) VALUES ($1, 0, 0)
		 ON CONFLICT (address) DO NOTHING`,
		addr.String())
	if err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: ensure account exists: %w", err))
	}
	return nil
}

func (a accountStore) GetBalance(ctx context.Context, addr primitives.Address) (primitives.Balance, error) {
	if err := a.EnsureExists(ctx, addr); err != nil {
		return primitives.Balance{}, err
	}
	var s string
	err := a.q.QueryRowContext(ctx, `SELECT balance::text FROM accounts WHERE address = $1`, addr.String()).Scan(&s)
	if err != nil {
		return primitives.Balance{}, apierr.Wrap(fmt.Errorf("pgstore: get balance: %w", err))
	}
	return primitives.BalanceFromString(s)
}

func (a accountStore) GetNonce(ctx context.Context, addr primitives.Address) (uint64, error) {
	if err := a.EnsureExists(ctx, addr); err != nil {
		return 0, err
	}
	var n int64
	err := a.q.QueryRowContext(ctx, `SELECT nonce FROM accounts WHERE address = $1`, addr.String()).Scan(&n)
	if err != nil {
		return 0, apierr.Wrap(fmt.Errorf("pgstore: get nonce: %w", err))
	}
	return uint64(n), nil
}

func (a accountStore) UpdateBalance(ctx context.Context, addr primitives.Address, balance primitives.Balance) error {
	if err := a.EnsureExists(ctx, addr); err != nil {
		return err
	}
	_, err := a.q.ExecContext(ctx, `UPDATE accounts SET balance = $1 WHERE address = $2`, balance.String(), addr.String())
	if err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: update balance: %w", err))
	}
	return nil
}

func (a accountStore) UpdateNonce(ctx context.Context, addr primitives.Address, nonce uint64) error {
	if err := a.EnsureExists(ctx, addr); err != nil {
		return err
	}
	_, err := a.q.ExecContext(ctx, `UPDATE accounts SET nonce = $1 WHERE address = $2`, int64(nonce), addr.String())
	if err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: update nonce: %w", err))
	}
	return nil
}

// CreditBalance is a read-modify-write signed delta add, used by the mining
// reward and the mint admin path. Writing a value that would underflow
// below zero is an invariant break and fails.
func (a accountStore) CreditBalance(ctx context.Context, addr primitives.Address, delta *big.Int) error {
	if err := a.EnsureExists(ctx, addr); err != nil {
		return err
	}
	var s string
	err := a.q.QueryRowContext(ctx, `SELECT balance::text FROM accounts WHERE address = $1 FOR UPDATE`, addr.String()).Scan(&s)
	if err != nil {
		if err == sql.ErrNoRows {
			return apierr.New(apierr.CodeInternal, "account vanished mid-transaction")
		}
		return apierr.Wrap(fmt.Errorf("pgstore: credit balance: select: %w", err))
	}
	current, err := primitives.BalanceFromString(s)
	if err != nil {
		return apierr.Wrap(err)
	}
	updated, err := current.Add(delta)
	if err != nil {
		return apierr.New(apierr.CodeBadRequest, err.Error())
	}
	if _, err := a.q.ExecContext(ctx, `UPDATE accounts SET balance = $1 WHERE address = $2`, updated.String(), addr.String()); err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: credit balance: update: %w", err))
	}
	return nil
}

package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/coretypes"
	"github.com/coreledger/ledgerd/internal/primitives"
)

type transactionStore struct {
	q execer
}

func (t transactionStore) AddPending(ctx context.Context, tx coretypes.Transaction) error {
	_, err := t.q.ExecContext(ctx,
		`INSERT INTO transactions (hash, "from", "to", amount, nonce, status, block_id, index_in_block)
		 VALUES ($1, $2, $3, $4, $5, $6, NULL, NULL)`,
		tx.Hash.String(), tx.From.String(), tx.To.String(), tx.Amount.String(), int64(tx.Nonce), string(coretypes.StatusPending))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return apierr.New(apierr.CodeBadRequest, fmt.Sprintf("transaction %s already exists", tx.Hash))
		}
		return apierr.Wrap(fmt.Errorf("pgstore: add pending transaction: %w", err))
	}
	return nil
}

func (t transactionStore) Get(ctx context.Context, hash primitives.Hash) (*coretypes.Transaction, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT hash, "from", "to", amount, nonce, status, block_id, index_in_block
		 FROM transactions WHERE hash = $1`, hash.String())
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: get transaction: %w", err))
	}
	return tx, nil
}

func (t transactionStore) GetByParty(ctx context.Context, addr primitives.Address) ([]coretypes.Transaction, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT hash, "from", "to", amount, nonce, status, block_id, index_in_block
		 FROM transactions WHERE "from" = $1 OR "to" = $1`, addr.String())
	if err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: get transactions by party: %w", err))
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (t transactionStore) GetPending(ctx context.Context, limit int) ([]coretypes.Transaction, error) {
	rows, err := t.q.QueryContext(ctx,
		`SELECT hash, "from", "to", amount, nonce, status, block_id, index_in_block
		 FROM transactions WHERE status = $1 ORDER BY created_at ASC LIMIT $2`,
		string(coretypes.StatusPending), limit)
	if err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: get pending transactions: %w", err))
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// Confirm bulk-transitions hashes to Confirmed in a single statement,
// assigning index_in_block as each hash's position in the supplied
// (already block-ordered) slice, per spec.md §9's resolution of the
// index_in_block Open Question.
func (t transactionStore) Confirm(ctx context.Context, hashes []primitives.Hash, blockID uint64) error {
	if len(hashes) == 0 {
		return nil
	}
	hexHashes := make([]string, len(hashes))
	indexes := make([]int64, len(hashes))
	for i, h := range hashes {
		hexHashes[i] = h.String()
		indexes[i] = int64(i)
	}

	res, err := t.q.ExecContext(ctx,
		`UPDATE transactions AS t
		 SET status = $1, block_id = $2, index_in_block = v.idx
		 FROM (SELECT unnest($3::text[]) AS hash, unnest($4::bigint[]) AS idx) AS v
		 WHERE t.hash = v.hash`,
		string(coretypes.StatusConfirmed), int64(blockID), pq.Array(hexHashes), pq.Array(indexes))
	if err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: confirm transactions: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: confirm transactions: rows affected: %w", err))
	}
	if int(n) != len(hashes) {
		return apierr.New(apierr.CodeInternal, fmt.Sprintf("confirmed %d of %d transactions", n, len(hashes)))
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTransaction(row scannable) (*coretypes.Transaction, error) {
	var (
		hashHex, fromHex, toHex, amountStr, status string
		nonce                                      int64
		blockID, indexInBlock                      sql.NullInt64
	)
	if err := row.Scan(&hashHex, &fromHex, &toHex, &amountStr, &nonce, &status, &blockID, &indexInBlock); err != nil {
		return nil, err
	}
	return assembleTransaction(hashHex, fromHex, toHex, amountStr, status, nonce, blockID, indexInBlock)
}

func scanTransactions(rows *sql.Rows) ([]coretypes.Transaction, error) {
	var out []coretypes.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, apierr.Wrap(fmt.Errorf("pgstore: scan transaction row: %w", err))
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: iterate transaction rows: %w", err))
	}
	return out, nil
}

func assembleTransaction(hashHex, fromHex, toHex, amountStr, status string, nonce int64, blockID, indexInBlock sql.NullInt64) (*coretypes.Transaction, error) {
	hash, err := primitives.HashFromHex(hashHex)
	if err != nil {
		return nil, err
	}
	from, err := primitives.AddressFromHex(fromHex)
	if err != nil {
		return nil, err
	}
	to, err := primitives.AddressFromHex(toHex)
	if err != nil {
		return nil, err
	}
	amount, err := primitives.BalanceFromString(amountStr)
	if err != nil {
		return nil, err
	}
	tx := &coretypes.Transaction{
		Hash:   hash,
		From:   from,
		To:     to,
		Amount: amount,
		Nonce:  uint64(nonce),
		Status: coretypes.Status(status),
	}
	if blockID.Valid {
		id := uint64(blockID.Int64)
		tx.BlockID = &id
	}
	if indexInBlock.Valid {
		idx := uint64(indexInBlock.Int64)
		tx.IndexInBlock = &idx
	}
	return tx, nil
}

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

type blockStore struct {
	q execer
}

func (b blockStore) Add(ctx context.Context, block coretypes.Block) error {
	var hashHex, producedByHex sql.NullString
	var nonce sql.NullInt64
	if block.Hash != nil {
		hashHex = sql.NullString{String: block.Hash.String(), Valid: true}
	}
	if block.ProducedBy != nil {
		producedByHex = sql.NullString{String: block.ProducedBy.String(), Valid: true}
	}
	if block.Nonce != nil {
		nonce = sql.NullInt64{Int64: int64(*block.Nonce), Valid: true}
	}

	_, err := b.q.ExecContext(ctx,
		`INSERT INTO blocks (id, hash, parent_hash, merkle_root, produced_by, nonce)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		int64(block.ID), hashHex, block.ParentHash.String(), block.MerkleRoot.String(), producedByHex, nonce)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return apierr.New(apierr.CodeBadRequest, fmt.Sprintf("block %d already exists", block.ID))
		}
		return apierr.Wrap(fmt.Errorf("pgstore: add block: %w", err))
	}
	return nil
}

func (b blockStore) Latest(ctx context.Context) (uint64, primitives.Hash, error) {
	var id int64
	var hashHex sql.NullString
	err := b.q.QueryRowContext(ctx, `SELECT id, hash FROM blocks ORDER BY id DESC LIMIT 1`).Scan(&id, &hashHex)
	if err == sql.ErrNoRows {
		return 0, primitives.ZeroHash, nil
	}
	if err != nil {
		return 0, primitives.Hash{}, apierr.Wrap(fmt.Errorf("pgstore: latest block: %w", err))
	}
	if !hashHex.Valid {
		return uint64(id), primitives.ZeroHash, nil
	}
	hash, err := primitives.HashFromHex(hashHex.String)
	if err != nil {
		return 0, primitives.Hash{}, apierr.Wrap(err)
	}
	return uint64(id), hash, nil
}

func (b blockStore) GetByID(ctx context.Context, id uint64) (*coretypes.Block, error) {
	row := b.q.QueryRowContext(ctx,
		`SELECT id, hash, parent_hash, merkle_root, produced_by, nonce FROM blocks WHERE id = $1`, int64(id))
	return scanBlock(row)
}

func (b blockStore) GetByHash(ctx context.Context, hash primitives.Hash) (*coretypes.Block, error) {
	row := b.q.QueryRowContext(ctx,
		`SELECT id, hash, parent_hash, merkle_root, produced_by, nonce FROM blocks WHERE hash = $1`, hash.String())
	return scanBlock(row)
}

func scanBlock(row *sql.Row) (*coretypes.Block, error) {
	var (
		id                         int64
		hashHex, parentHex, rootHex, producedByHex sql.NullString
		nonce                      sql.NullInt64
	)
	err := row.Scan(&id, &hashHex, &parentHex, &rootHex, &producedByHex, &nonce)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: scan block: %w", err))
	}

	parentHash, err := primitives.HashFromHex(parentHex.String)
	if err != nil {
		return nil, apierr.Wrap(err)
	}
	merkleRoot, err := primitives.HashFromHex(rootHex.String)
	if err != nil {
		return nil, apierr.Wrap(err)
	}

	block := &coretypes.Block{
		ID:         uint64(id),
		ParentHash: parentHash,
		MerkleRoot: merkleRoot,
	}
	if hashHex.Valid {
		h, err := primitives.HashFromHex(hashHex.String)
		if err != nil {
			return nil, apierr.Wrap(err)
		}
		block.Hash = &h
	}
	if producedByHex.Valid {
		a, err := primitives.AddressFromHex(producedByHex.String)
		if err != nil {
			return nil, apierr.Wrap(err)
		}
		block.ProducedBy = &a
	}
	if nonce.Valid {
		n := uint64(nonce.Int64)
		block.Nonce = &n
	}
	return block, nil
}

package pgstore

import (
	"context"
	"fmt"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/merkle"
	"github.com/coreledger/ledgerd/internal/primitives"
)

type merkleStore struct {
	q execer
}

// AddNodes inserts one row per node in tree order, tolerating idempotent
// re-insertion on the composite key (block_id, root, index), per spec.md
// §4.G step 6.
func (m merkleStore) AddNodes(ctx context.Context, blockID uint64, root primitives.Hash, nodes []merkle.Node) error {
	for i, n := range nodes {
		b := n.ToBytes()
		_, err := m.q.ExecContext(ctx,
			`INSERT INTO merkle_nodes (block_id, root, "index", node) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (block_id, root, "index") DO NOTHING`,
			int64(blockID), root.String(), i, b[:])
		if err != nil {
			return apierr.Wrap(fmt.Errorf("pgstore: insert merkle node %d: %w", i, err))
		}
	}
	return nil
}

// GetNodes returns the block's nodes in layered ascending order (index
// ASC), the order merkle.FromNodes expects.
func (m merkleStore) GetNodes(ctx context.Context, blockID uint64) ([]merkle.Node, error) {
	rows, err := m.q.QueryContext(ctx,
		`SELECT node FROM merkle_nodes WHERE block_id = $1 ORDER BY "index" ASC`, int64(blockID))
	if err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: get merkle nodes: %w", err))
	}
	defer rows.Close()

	var out []merkle.Node
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, apierr.Wrap(fmt.Errorf("pgstore: scan merkle node: %w", err))
		}
		node, err := merkle.NodeFromBytes(b)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: iterate merkle nodes: %w", err))
	}
	if len(out) == 0 {
		return nil, apierr.New(apierr.CodeNotFound, fmt.Sprintf("no merkle nodes for block %d", blockID))
	}
	return out, nil
}

// Package memstore is an in-memory store.Store used only by tests, the
// same role a hand-rolled fake plays in the teacher's blockchain package
// tests (see blockchain/common_test.go building fixtures in memory before
// exercising production validation code). It is not part of the served
// ledger; production persistence is pgstore.
package memstore

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/coretypes"
	"github.com/coreledger/ledgerd/internal/merkle"
	"github.com/coreledger/ledgerd/internal/primitives"
	"github.com/coreledger/ledgerd/internal/store"
)

type accountRow struct {
	balance primitives.Balance
	nonce   uint64
}

type txRow struct {
	tx        coretypes.Transaction
	createdAt time.Time
}

type blockRow struct {
	block coretypes.Block
}

// Store is a mutex-guarded in-memory implementation of store.Store. It has
// no genuine transaction isolation: WithinTx takes a snapshot under the
// single lock, releases the lock while fn runs, and restores the snapshot if
// fn fails, which is sufficient for the single-goroutine-per-test use this
// package serves.
type Store struct {
	mu sync.Mutex

	accounts map[primitives.Address]accountRow
	txs      map[primitives.Hash]txRow
	blocks   map[uint64]blockRow
	nodes    map[uint64][]merkle.Node

	seq int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[primitives.Address]accountRow),
		txs:      make(map[primitives.Hash]txRow),
		blocks:   make(map[uint64]blockRow),
		nodes:    make(map[uint64][]merkle.Node),
	}
}

func (s *Store) Accounts() store.AccountStore         { return accountView{s} }
func (s *Store) Transactions() store.TransactionStore { return txView{s} }
func (s *Store) Blocks() store.BlockStore             { return blockView{s} }
func (s *Store) Merkle() store.MerkleStore            { return merkleView{s} }

// snapshot is a deep-enough copy to restore on rollback.
type snapshot struct {
	accounts map[primitives.Address]accountRow
	txs      map[primitives.Hash]txRow
	blocks   map[uint64]blockRow
	nodes    map[uint64][]merkle.Node
}

func (s *Store) snapshotLocked() snapshot {
	snap := snapshot{
		accounts: make(map[primitives.Address]accountRow, len(s.accounts)),
		txs:      make(map[primitives.Hash]txRow, len(s.txs)),
		blocks:   make(map[uint64]blockRow, len(s.blocks)),
		nodes:    make(map[uint64][]merkle.Node, len(s.nodes)),
	}
	for k, v := range s.accounts {
		snap.accounts[k] = v
	}
	for k, v := range s.txs {
		snap.txs[k] = v
	}
	for k, v := range s.blocks {
		snap.blocks[k] = v
	}
	for k, v := range s.nodes {
		snap.nodes[k] = append([]merkle.Node(nil), v...)
	}
	return snap
}

func (s *Store) restoreLocked(snap snapshot) {
	s.accounts = snap.accounts
	s.txs = snap.txs
	s.blocks = snap.blocks
	s.nodes = snap.nodes
}

// WithinTx snapshots the store, runs fn against it directly (fn's own
// store calls take the lock per-call, the same as any top-level caller),
// and restores the snapshot if fn returns an error. This gives tests
// all-or-nothing semantics without requiring a reentrant lock.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

// ---- accounts ----

type accountView struct{ s *Store }

func (a accountView) ensureLocked(addr primitives.Address) {
	if _, ok := a.s.accounts[addr]; !ok {
		a.s.accounts[addr] = accountRow{}
	}
}

func (a accountView) EnsureExists(ctx context.Context, addr primitives.Address) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.ensureLocked(addr)
	return nil
}

func (a accountView) GetBalance(ctx context.Context, addr primitives.Address) (primitives.Balance, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.ensureLocked(addr)
	return a.s.accounts[addr].balance, nil
}

func (a accountView) GetNonce(ctx context.Context, addr primitives.Address) (uint64, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.ensureLocked(addr)
	return a.s.accounts[addr].nonce, nil
}

func (a accountView) UpdateBalance(ctx context.Context, addr primitives.Address, balance primitives.Balance) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.ensureLocked(addr)
	row := a.s.accounts[addr]
	row.balance = balance
	a.s.accounts[addr] = row
	return nil
}

func (a accountView) UpdateNonce(ctx context.Context, addr primitives.Address, nonce uint64) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.ensureLocked(addr)
	row := a.s.accounts[addr]
	row.nonce = nonce
	a.s.accounts[addr] = row
	return nil
}

func (a accountView) CreditBalance(ctx context.Context, addr primitives.Address, delta *big.Int) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	a.ensureLocked(addr)
	row := a.s.accounts[addr]
	updated, err := row.balance.Add(delta)
	if err != nil {
		return apierr.New(apierr.CodeBadRequest, err.Error())
	}
	row.balance = updated
	a.s.accounts[addr] = row
	return nil
}

// ---- transactions ----

type txView struct{ s *Store }

func (t txView) AddPending(ctx context.Context, tx coretypes.Transaction) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, exists := t.s.txs[tx.Hash]; exists {
		return apierr.New(apierr.CodeBadRequest, fmt.Sprintf("transaction %s already exists", tx.Hash))
	}
	tx.Status = coretypes.StatusPending
	tx.BlockID = nil
	tx.IndexInBlock = nil
	t.s.seq++
	t.s.txs[tx.Hash] = txRow{tx: tx, createdAt: time.Unix(0, t.s.seq)}
	return nil
}

func (t txView) Get(ctx context.Context, hash primitives.Hash) (*coretypes.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	row, ok := t.s.txs[hash]
	if !ok {
		return nil, nil
	}
	tx := row.tx
	return &tx, nil
}

func (t txView) GetByParty(ctx context.Context, addr primitives.Address) ([]coretypes.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []coretypes.Transaction
	for _, row := range t.s.txs {
		if row.tx.From == addr || row.tx.To == addr {
			out = append(out, row.tx)
		}
	}
	return out, nil
}

func (t txView) GetPending(ctx context.Context, limit int) ([]coretypes.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	rows := make([]txRow, 0, len(t.s.txs))
	for _, row := range t.s.txs {
		if row.tx.Status == coretypes.StatusPending {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].createdAt.Before(rows[j].createdAt) })

	if limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]coretypes.Transaction, len(rows))
	for i, row := range rows {
		out[i] = row.tx
	}
	return out, nil
}

func (t txView) Confirm(ctx context.Context, hashes []primitives.Hash, blockID uint64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i, h := range hashes {
		row, ok := t.s.txs[h]
		if !ok {
			return apierr.New(apierr.CodeInternal, fmt.Sprintf("transaction %s vanished before confirmation", h))
		}
		idx := uint64(i)
		id := blockID
		row.tx.Status = coretypes.StatusConfirmed
		row.tx.BlockID = &id
		row.tx.IndexInBlock = &idx
		t.s.txs[h] = row
	}
	return nil
}

// ---- blocks ----

type blockView struct{ s *Store }

func (b blockView) Add(ctx context.Context, block coretypes.Block) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if _, exists := b.s.blocks[block.ID]; exists {
		return apierr.New(apierr.CodeBadRequest, fmt.Sprintf("block %d already exists", block.ID))
	}
	b.s.blocks[block.ID] = blockRow{block: block}
	return nil
}

func (b blockView) Latest(ctx context.Context) (uint64, primitives.Hash, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	var maxID uint64
	for id := range b.s.blocks {
		if id > maxID {
			maxID = id
		}
	}
	if maxID == 0 {
		return 0, primitives.ZeroHash, nil
	}
	block := b.s.blocks[maxID].block
	if block.Hash == nil {
		return maxID, primitives.ZeroHash, nil
	}
	return maxID, *block.Hash, nil
}

func (b blockView) GetByID(ctx context.Context, id uint64) (*coretypes.Block, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	row, ok := b.s.blocks[id]
	if !ok {
		return nil, nil
	}
	block := row.block
	return &block, nil
}

func (b blockView) GetByHash(ctx context.Context, hash primitives.Hash) (*coretypes.Block, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, row := range b.s.blocks {
		if row.block.Hash != nil && *row.block.Hash == hash {
			block := row.block
			return &block, nil
		}
	}
	return nil, nil
}

// ---- merkle ----

type merkleView struct{ s *Store }

func (m merkleView) AddNodes(ctx context.Context, blockID uint64, root primitives.Hash, nodes []merkle.Node) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, exists := m.s.nodes[blockID]; exists {
		return nil
	}
	m.s.nodes[blockID] = append([]merkle.Node(nil), nodes...)
	return nil
}

func (m merkleView) GetNodes(ctx context.Context, blockID uint64) ([]merkle.Node, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	nodes, ok := m.s.nodes[blockID]
	if !ok {
		return nil, apierr.New(apierr.CodeNotFound, fmt.Sprintf("no merkle nodes for block %d", blockID))
	}
	return append([]merkle.Node(nil), nodes...), nil
}

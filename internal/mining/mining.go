// Package mining orchestrates the account store, transaction store, block
// store and Merkle engine into the atomic block-production protocol
// (spec.md §4.G) and the transfer/mint ingestion paths (§4.H, §4.I),
// generalized from the teacher's mining.MiningPolicy orchestration shape
// (mining/policy.go) from "which PoW algorithm produced this block" down to
// "does this block meet the leading-zero-byte target and the miner's
// signature".
package mining

import (
	"context"
	"fmt"
	"math/big"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/config"
	"github.com/coreledger/ledgerd/internal/coretypes"
	"github.com/coreledger/ledgerd/internal/cryptoutil"
	"github.com/coreledger/ledgerd/internal/ledgerlog"
	"github.com/coreledger/ledgerd/internal/merkle"
	"github.com/coreledger/ledgerd/internal/primitives"
	"github.com/coreledger/ledgerd/internal/store"
)

var log = ledgerlog.Logger(ledgerlog.SubsystemMine)

// Protocol bundles the static configuration and store handle try_mine,
// AddTransaction and Mint need.
type Protocol struct {
	Store          store.Store
	Live           *config.Live
	MerkleTreeSize int
	BlockSize      int
	BaseReward     int64
}

// New constructs a Protocol.
func New(s store.Store, live *config.Live, merkleTreeSize, blockSize int, baseReward int64) *Protocol {
	return &Protocol{
		Store:          s,
		Live:           live,
		MerkleTreeSize: merkleTreeSize,
		BlockSize:      blockSize,
		BaseReward:     baseReward,
	}
}

// MineRequest is the input to TryMine, corresponding to MineInfo in
// spec.md §6.
type MineRequest struct {
	Miner     primitives.Address
	Nonce     uint64
	Signature primitives.Signature
}

// MineResult is returned on a successful TryMine.
type MineResult struct {
	Block coretypes.Block
}

// TryMine runs the 7-step block-production sequence in spec.md §4.G,
// sampling mode and target once at the start (spec.md §5) and persisting
// the whole group — block, Merkle nodes, transaction confirmations, the
// transfer of each confirmed amount from sender to recipient, miner
// reward — inside one database transaction.
func (p *Protocol) TryMine(ctx context.Context, req MineRequest) (*MineResult, error) {
	mode := p.Live.Mode()
	target := p.Live.Target()

	// Step 1: select pending transactions.
	pending, err := p.Store.Transactions().GetPending(ctx, p.BlockSize)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, apierr.New(apierr.CodeBadRequest, "No transactions to mine")
	}

	hashes := make([]primitives.Hash, len(pending))
	for i, tx := range pending {
		hashes[i] = tx.Hash
	}

	// Step 2: build the Merkle tree over the selected transaction hashes.
	tree := merkle.New(p.MerkleTreeSize)
	if err := tree.Initialize(hashes); err != nil {
		return nil, err
	}
	root, err := tree.Root()
	if err != nil {
		return nil, err
	}

	latestID, latestHash, err := p.Store.Blocks().Latest(ctx)
	if err != nil {
		return nil, err
	}

	// Step 3: frame the block.
	nonce := req.Nonce
	block := coretypes.Block{
		ID:         latestID + 1,
		ParentHash: latestHash,
		MerkleRoot: root,
		Nonce:      &nonce,
		ProducedBy: &req.Miner,
	}

	// Step 4: hash the block.
	blockHash, err := block.ComputeHash()
	if err != nil {
		return nil, apierr.Wrap(err)
	}
	block.Hash = &blockHash

	// Step 5: Full-mode-only signature and difficulty checks.
	if mode == config.ModeFull {
		mineMsg := cryptoutil.MineMessageInput(req.Miner, block.ParentHash, block.MerkleRoot, nonce)
		digest := cryptoutil.HashMessage(mineMsg)
		if err := cryptoutil.Verify(req.Miner, req.Signature, digest[:]); err != nil {
			return nil, apierr.New(apierr.CodeInvalidSignature, "invalid miner signature")
		}

		leadingZeros := blockHash.LeadingZeroBytes()
		if leadingZeros < target {
			return nil, apierr.New(apierr.CodeBadRequest, "Block does not meet target")
		}
	}

	// Step 6: persist the whole group atomically.
	err = p.Store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.Blocks().Add(ctx, block); err != nil {
			return err
		}
		if err := tx.Merkle().AddNodes(ctx, block.ID, root, tree.Nodes()); err != nil {
			return err
		}
		if err := tx.Transactions().Confirm(ctx, hashes, block.ID); err != nil {
			return err
		}
		for _, ptx := range pending {
			amount := new(big.Int).Set(ptx.Amount.Int())
			if err := tx.Accounts().CreditBalance(ctx, ptx.From, new(big.Int).Neg(amount)); err != nil {
				return err
			}
			if err := tx.Accounts().CreditBalance(ctx, ptx.To, amount); err != nil {
				return err
			}
		}
		if err := tx.Accounts().CreditBalance(ctx, req.Miner, big.NewInt(p.BaseReward)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("mined block %d with %d transactions, miner %s", block.ID, len(hashes), req.Miner)
	return &MineResult{Block: block}, nil
}

// TransferRequest is the input to AddTransaction, corresponding to
// ApiTransfer in spec.md §6.
type TransferRequest struct {
	From      primitives.Address
	To        primitives.Address
	Amount    primitives.Balance
	Signature primitives.Signature
}

// AddTransaction implements spec.md §4.H: builds a Transaction with the
// sender's current nonce, verifies the signature against the transaction
// hash, inserts it into the mempool, and advances the sender's nonce by one.
func (p *Protocol) AddTransaction(ctx context.Context, req TransferRequest) (*coretypes.Transaction, error) {
	nonce, err := p.Store.Accounts().GetNonce(ctx, req.From)
	if err != nil {
		return nil, err
	}

	tx := coretypes.Transaction{
		From:   req.From,
		To:     req.To,
		Amount: req.Amount,
		Nonce:  nonce,
		Status: coretypes.StatusPending,
	}
	tx.Hash = tx.ComputeHash()

	if err := cryptoutil.Verify(req.From, req.Signature, tx.Hash[:]); err != nil {
		return nil, apierr.New(apierr.CodeInvalidSignature, "invalid transfer signature")
	}
	tx.Signature = req.Signature

	if err := p.Store.Transactions().AddPending(ctx, tx); err != nil {
		return nil, err
	}
	if err := p.Store.Accounts().UpdateNonce(ctx, req.From, nonce+1); err != nil {
		return nil, err
	}
	log.Infof("accepted transaction %s from %s to %s", tx.Hash, req.From, req.To)
	return &tx, nil
}

// Mint credits amount (a signed delta) to addr without creating a
// transaction record, per spec.md §4.I. It is a test/bootstrap affordance.
func (p *Protocol) Mint(ctx context.Context, addr primitives.Address, amount *big.Int) error {
	if err := p.Store.Accounts().CreditBalance(ctx, addr, amount); err != nil {
		return err
	}
	log.Infof("minted %s to %s", amount.String(), addr)
	return nil
}

// GetProof implements spec.md §4.J: looks up the transaction's position
// within its confirming block, loads that block's full Merkle tree, and
// extracts the inclusion proof.
func (p *Protocol) GetProof(ctx context.Context, txHash primitives.Hash) (merkle.Proof, error) {
	tx, err := p.Store.Transactions().Get(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if tx == nil || tx.BlockID == nil || tx.IndexInBlock == nil {
		return nil, apierr.New(apierr.CodeNotFound, fmt.Sprintf("no confirmed transaction %s", txHash))
	}

	nodes, err := p.Store.Merkle().GetNodes(ctx, *tx.BlockID)
	if err != nil {
		return nil, err
	}
	tree, err := merkle.FromNodes(nodes)
	if err != nil {
		return nil, err
	}
	return tree.GetProof(int(*tx.IndexInBlock))
}

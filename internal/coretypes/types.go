// Package coretypes defines the domain value types persisted by the
// account, transaction and block stores: the tuples described in spec.md
// §3, independent of any particular storage engine.
package coretypes

import (
	"fmt"

	"github.com/coreledger/ledgerd/internal/cryptoutil"
	"github.com/coreledger/ledgerd/internal/primitives"
)

// Account is the balance/nonce row keyed by address.
type Account struct {
	Address primitives.Address
	Balance primitives.Balance
	Nonce   uint64
}

// Status is a transaction's place in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

// Transaction is a single signed transfer, pending or confirmed into a
// block.
type Transaction struct {
	Hash          primitives.Hash
	From          primitives.Address
	To            primitives.Address
	Amount        primitives.Balance
	Nonce         uint64
	Status        Status
	BlockID       *uint64
	IndexInBlock  *uint64
	Signature     primitives.Signature
}

// ComputeHash returns the Blake2s-256 hash of the transaction's canonical
// string form, per spec.md §3: "Transfer from:<hexA> to:<hexA>
// amount:<u128> nonce:<u64>".
func (t Transaction) ComputeHash() primitives.Hash {
	input := cryptoutil.TransferHashInput(t.From, t.To, t.Amount.String(), t.Nonce)
	return cryptoutil.HashMessage(input)
}

// Block is an append-only committed block.
type Block struct {
	ID          uint64
	Hash        *primitives.Hash
	ParentHash  primitives.Hash
	MerkleRoot  primitives.Hash
	Nonce       *uint64
	ProducedBy  *primitives.Address
}

// ComputeHash returns the Blake2s-256 hash of the block's canonical string
// form, per spec.md §4.G step 4: "Block id:<id> parent_hash:<hex>
// merkle_root:<hex> nonce:<u64>". nonce must already be set on b.
func (b Block) ComputeHash() (primitives.Hash, error) {
	if b.Nonce == nil {
		return primitives.Hash{}, fmt.Errorf("coretypes: block nonce is required to compute its hash")
	}
	input := cryptoutil.BlockHashInput(b.ID, b.ParentHash, b.MerkleRoot, *b.Nonce)
	return cryptoutil.HashMessage(input), nil
}

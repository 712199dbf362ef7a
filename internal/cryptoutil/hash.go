// Package cryptoutil implements the ledger's hashing and signature
// discipline: Blake2s-256 content hashing and compact ECDSA over
// secp256k1, grounded on the same btcec/v2 stack the teacher's address and
// multi-signature packages build on.
package cryptoutil

import (
	"fmt"

	"golang.org/x/crypto/blake2s"

	"github.com/coreledger/ledgerd/internal/primitives"
)

// HashMessage returns the Blake2s-256 digest of msg.
func HashMessage(msg []byte) primitives.Hash {
	return primitives.Hash(blake2s.Sum256(msg))
}

// HashNodes returns the Blake2s-256 digest of left‖right, the combining
// step used at every internal Merkle node.
func HashNodes(left, right primitives.Hash) primitives.Hash {
	buf := make([]byte, 0, primitives.HashSize*2)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return HashMessage(buf)
}

// TransferHashInput renders the canonical string form hashed to produce a
// transaction's identity: "Transfer from:<hexA> to:<hexA> amount:<u128>
// nonce:<u64>".
func TransferHashInput(from, to primitives.Address, amount string, nonce uint64) []byte {
	return []byte(fmt.Sprintf("Transfer from:%s to:%s amount:%s nonce:%d", from, to, amount, nonce))
}

// BlockHashInput renders the canonical string form hashed to produce a
// block's hash: "Block id:<id> parent_hash:<hex> merkle_root:<hex>
// nonce:<u64>".
func BlockHashInput(id uint64, parentHash, merkleRoot primitives.Hash, nonce uint64) []byte {
	return []byte(fmt.Sprintf("Block id:%d parent_hash:%s merkle_root:%s nonce:%d", id, parentHash, merkleRoot, nonce))
}

// MineMessageInput renders the canonical string form a miner signs to
// authorize a block: "Mine block miner:<hex> parent_hash:<hex>
// merkle_root:<hex> nonce:<u64>".
func MineMessageInput(miner primitives.Address, parentHash, merkleRoot primitives.Hash, nonce uint64) []byte {
	return []byte(fmt.Sprintf("Mine block miner:%s parent_hash:%s merkle_root:%s nonce:%d", miner, parentHash, merkleRoot, nonce))
}

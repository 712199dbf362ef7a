package merkle

import (
	"encoding/hex"
	"fmt"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/cryptoutil"
	"github.com/coreledger/ledgerd/internal/primitives"
)

// Proof is an ordered inclusion proof for one leaf: a sibling per
// non-root layer, terminated by a Node carrying the tree's root hash and
// Direction None.
type Proof []Node

// GetProof extracts the inclusion proof for the leaf at leafIndex: the
// sibling of the current index at each non-root layer (found by XOR-ing the
// index with 1 within that layer), followed by a terminal root node.
func (t *Tree) GetProof(leafIndex int) (Proof, error) {
	if t.root == nil {
		return nil, apierr.New(apierr.CodeNotInitialized, "merkle tree has not been initialized")
	}
	if leafIndex < 0 || leafIndex >= t.size {
		return nil, apierr.New(apierr.CodeBadRequest, fmt.Sprintf("leaf index %d out of range [0,%d)", leafIndex, t.size))
	}

	proof := make(Proof, 0, t.depth)
	idx := leafIndex
	for layer := 0; layer < t.depth-1; layer++ {
		start, _ := t.layerBounds(layer)
		sibling := idx ^ 1
		proof = append(proof, t.nodes[start+sibling])
		idx /= 2
	}
	proof = append(proof, Node{Hash: *t.root, Direction: None})
	return proof, nil
}

// Verify recombines the proof with candidateLeafHash and reports whether
// the result matches the proof's embedded root. It returns false if the
// sequence never reaches a None-terminated node.
func (p Proof) Verify(candidateLeafHash primitives.Hash) bool {
	current := Node{Hash: candidateLeafHash, Direction: None}
	for _, n := range p {
		switch n.Direction {
		case Left:
			current = Node{Hash: cryptoutil.HashNodes(n.Hash, current.Hash), Direction: None}
		case Right:
			current = Node{Hash: cryptoutil.HashNodes(current.Hash, n.Hash), Direction: None}
		case None:
			return current.Hash == n.Hash
		default:
			return false
		}
	}
	return false
}

// ToHex serializes the proof as a sequence of hex-encoded 33-byte node
// records, the form returned by GET /get_proof.
func (p Proof) ToHex() []string {
	out := make([]string, len(p))
	for i, n := range p {
		b := n.ToBytes()
		out[i] = hex.EncodeToString(b[:])
	}
	return out
}

// ProofFromHex parses a hex-encoded 33-byte node record sequence back into
// a Proof.
func ProofFromHex(records []string) (Proof, error) {
	proof := make(Proof, 0, len(records))
	for i, rec := range records {
		b, err := hex.DecodeString(rec)
		if err != nil {
			return nil, apierr.New(apierr.CodeDeserializing, fmt.Sprintf("proof record %d is not valid hex", i))
		}
		node, err := NodeFromBytes(b)
		if err != nil {
			return nil, err
		}
		proof = append(proof, node)
	}
	return proof, nil
}

// Package merkle implements the fixed-size, power-of-two, direction-tagged
// Merkle tree engine adapted from the teacher's linear-array construction in
// blockchain/merkle.go (BuildMerkleTreeStore, HashMerkleBranches,
// nextPowerOfTwo), generalized here to carry an explicit parent-direction
// tag on every node so that a proof, once extracted from the tree, can be
// verified without access to the original tree or leaf positions.
package merkle

import (
	"fmt"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/primitives"
)

// Direction marks which side of its parent a node sits on. None is used
// only for the root, and as the terminal marker in a serialized proof.
type Direction byte

const (
	Left  Direction = 0
	Right Direction = 1
	None  Direction = 2
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case None:
		return "None"
	default:
		return "Invalid"
	}
}

// NodeSize is the length in bytes of a serialized Node.
const NodeSize = primitives.HashSize + 1

// Node is one element of a Merkle tree: a hash and the direction tag that
// tells a verifier which side of its parent it sits on.
type Node struct {
	Hash      primitives.Hash
	Direction Direction
}

// ToBytes serializes n to exactly NodeSize bytes: bytes [0:32] = hash,
// byte [32] = direction (0=Left, 1=Right, 2=None).
func (n Node) ToBytes() [NodeSize]byte {
	var out [NodeSize]byte
	copy(out[:primitives.HashSize], n.Hash[:])
	out[primitives.HashSize] = byte(n.Direction)
	return out
}

// NodeFromBytes deserializes a Node, failing with a Deserializing error if
// the direction byte is not one of {0,1,2}.
func NodeFromBytes(b []byte) (Node, error) {
	if len(b) != NodeSize {
		return Node{}, apierr.New(apierr.CodeDeserializing, fmt.Sprintf("merkle node must be %d bytes, got %d", NodeSize, len(b)))
	}
	dir := Direction(b[primitives.HashSize])
	if dir != Left && dir != Right && dir != None {
		return Node{}, apierr.New(apierr.CodeDeserializing, fmt.Sprintf("invalid merkle node direction byte %d", b[primitives.HashSize]))
	}
	var n Node
	copy(n.Hash[:], b[:primitives.HashSize])
	n.Direction = dir
	return n, nil
}

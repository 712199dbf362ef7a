package merkle

import (
	"fmt"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/cryptoutil"
	"github.com/coreledger/ledgerd/internal/primitives"
)

// Tree is a fixed power-of-two Merkle tree over leaf hashes. Nodes are
// stored in layered ascending order: the size leaves first, then size/2
// internal nodes, and so on down to a single root at index 2*size-2.
type Tree struct {
	size   int
	depth  int
	root   *primitives.Hash
	leaves []primitives.Hash
	nodes  []Node
}

// New allocates a Tree of the given size, which must be a power of two.
// Calling New with a non-power-of-two size is a programmer error and
// panics, matching the teacher's posture on malformed construction
// parameters (see chaincfg.Params' "must be fully specified" invariants
// applied structurally here).
func New(size int) *Tree {
	if size <= 0 || size&(size-1) != 0 {
		panic(fmt.Sprintf("merkle: size must be a power of two, got %d", size))
	}
	return &Tree{
		size:  size,
		depth: log2(size) + 1,
	}
}

func log2(n int) int {
	d := 0
	for n > 1 {
		n >>= 1
		d++
	}
	return d
}

// Size returns the tree's fixed leaf capacity.
func (t *Tree) Size() int { return t.size }

// Depth returns the tree's depth (log2(size)+1).
func (t *Tree) Depth() int { return t.depth }

// Root returns the tree's root hash. It is only valid after Initialize.
func (t *Tree) Root() (primitives.Hash, error) {
	if t.root == nil {
		return primitives.Hash{}, apierr.New(apierr.CodeNotInitialized, "merkle tree has not been initialized")
	}
	return *t.root, nil
}

// Nodes returns the full layered node sequence (2*size-1 entries). Only
// valid after Initialize.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// Leaves returns the padded leaf hashes. Only valid after Initialize.
func (t *Tree) Leaves() []primitives.Hash {
	return t.leaves
}

// Initialize builds the tree over leaves, zero-padding up to size. It fails
// if more leaves are supplied than the tree's size.
func (t *Tree) Initialize(leaves []primitives.Hash) error {
	if len(leaves) > t.size {
		return apierr.New(apierr.CodeLeavesExceedSize, fmt.Sprintf("got %d leaves, tree size is %d", len(leaves), t.size))
	}

	padded := make([]primitives.Hash, t.size)
	copy(padded, leaves)
	t.leaves = padded

	nodes := make([]Node, 0, 2*t.size-1)
	layerStart := 0
	layerLen := t.size
	for i, h := range padded {
		nodes = append(nodes, Node{Hash: h, Direction: directionForIndex(i)})
	}

	for layerLen > 1 {
		nextLen := layerLen / 2
		for p := 0; p < nextLen; p++ {
			left := nodes[layerStart+2*p]
			right := nodes[layerStart+2*p+1]
			nodes = append(nodes, Node{
				Hash:      cryptoutil.HashNodes(left.Hash, right.Hash),
				Direction: directionForIndex(p),
			})
		}
		layerStart += layerLen
		layerLen = nextLen
	}

	rootIdx := len(nodes) - 1
	nodes[rootIdx].Direction = None
	root := nodes[rootIdx].Hash

	t.nodes = nodes
	t.root = &root
	return nil
}

func directionForIndex(i int) Direction {
	if i%2 == 0 {
		return Left
	}
	return Right
}

// layerBounds returns, for the tree's current size, the [start, start+len)
// index range of layer L (0 = leaves).
func (t *Tree) layerBounds(layer int) (start, length int) {
	start = 0
	length = t.size
	for l := 0; l < layer; l++ {
		start += length
		length /= 2
	}
	return start, length
}

// FromNodes reconstructs a Tree from the full persisted layered node
// sequence, verifying every reconstructed node matches the stored one.
func FromNodes(nodes []Node) (*Tree, error) {
	total := len(nodes)
	if total == 0 {
		return nil, apierr.New(apierr.CodeEmptyTree, "no merkle nodes supplied")
	}
	size := 1
	for size*2-1 < total {
		size *= 2
	}
	if size*2-1 != total {
		return nil, apierr.New(apierr.CodeDeserializing, fmt.Sprintf("merkle node count %d is not 2*size-1 for any power-of-two size", total))
	}

	leaves := make([]primitives.Hash, size)
	for i := 0; i < size; i++ {
		leaves[i] = nodes[i].Hash
	}

	t := New(size)
	if err := t.Initialize(leaves); err != nil {
		return nil, err
	}

	for i, want := range nodes {
		got := t.nodes[i]
		if got.Hash != want.Hash || got.Direction != want.Direction {
			return nil, apierr.New(apierr.CodeDeserializing, fmt.Sprintf("reconstructed node %d does not match stored node", i))
		}
	}
	return t, nil
}

package merkle

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/coreledger/ledgerd/internal/cryptoutil"
	"github.com/coreledger/ledgerd/internal/primitives"
)

// TestMerkleProofInvariants exercises the two invariants from spec.md §8:
// every leaf's proof verifies against its own hash, and (with overwhelming
// probability) not against any other leaf's hash.
func TestMerkleProofInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		power := rapid.IntRange(0, 5).Draw(t, "power")
		size := 1 << power
		count := rapid.IntRange(1, size).Draw(t, "count")

		leaves := make([]primitives.Hash, count)
		for i := range leaves {
			leaves[i] = cryptoutil.HashMessage([]byte{byte(i), byte(power)})
		}

		tr := New(size)
		if err := tr.Initialize(leaves); err != nil {
			t.Fatalf("initialize: %v", err)
		}

		i := rapid.IntRange(0, count-1).Draw(t, "index")
		proof, err := tr.GetProof(i)
		if err != nil {
			t.Fatalf("get proof: %v", err)
		}
		if !proof.Verify(leaves[i]) {
			t.Fatalf("proof for leaf %d did not verify against its own hash", i)
		}

		if count > 1 {
			j := rapid.IntRange(0, count-1).Filter(func(j int) bool { return j != i }).Draw(t, "other index")
			if proof.Verify(leaves[j]) {
				t.Fatalf("proof for leaf %d unexpectedly verified against leaf %d's hash", i, j)
			}
		}
	})
}

// TestMerkleRoundTripInvariant exercises the FromNodes round-trip: rebuilding
// from tree.Nodes() succeeds and yields the same root.
func TestMerkleRoundTripInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		power := rapid.IntRange(0, 5).Draw(t, "power")
		size := 1 << power
		count := rapid.IntRange(1, size).Draw(t, "count")

		leaves := make([]primitives.Hash, count)
		for i := range leaves {
			leaves[i] = cryptoutil.HashMessage([]byte{byte(i), byte(power)})
		}

		tr := New(size)
		if err := tr.Initialize(leaves); err != nil {
			t.Fatalf("initialize: %v", err)
		}

		rebuilt, err := FromNodes(tr.Nodes())
		if err != nil {
			t.Fatalf("from nodes: %v", err)
		}
		wantRoot, _ := tr.Root()
		gotRoot, _ := rebuilt.Root()
		if wantRoot != gotRoot {
			t.Fatalf("round-tripped root mismatch")
		}
	})
}

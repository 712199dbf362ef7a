package merkle_test

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/coreledger/ledgerd/internal/merkle"
	"github.com/coreledger/ledgerd/internal/primitives"
	"github.com/coreledger/ledgerd/internal/testfixtures"
)

func TestMerkleScenariosFromFixtures(t *testing.T) {
	suite, err := testfixtures.Load("../testfixtures/testdata/scenarios.yaml")
	require.NoError(t, err)

	for _, sc := range suite.MerkleScenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			leaves := make([]primitives.Hash, len(sc.Leaves))
			for i, hexLeaf := range sc.Leaves {
				h, err := primitives.HashFromHex(hexLeaf)
				require.NoError(t, err)
				leaves[i] = h
			}

			tree := merkle.New(sc.TreeSize)
			require.NoError(t, tree.Initialize(leaves))

			proof, err := tree.GetProof(sc.ProofIndex)
			require.NoError(t, err)

			got := proof.Verify(tree.Leaves()[sc.ProofIndex])
			if got != sc.ShouldMatch {
				t.Fatalf("scenario %s: proof verify = %v, want %v\ntree: %s\nproof: %s",
					sc.Name, got, sc.ShouldMatch, spew.Sdump(tree.Nodes()), spew.Sdump(proof))
			}
		})
	}
}

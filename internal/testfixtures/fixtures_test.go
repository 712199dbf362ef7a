package testfixtures

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadParsesScenarios(t *testing.T) {
	suite, err := Load("testdata/scenarios.yaml")
	require.NoError(t, err)
	require.Len(t, suite.MerkleScenarios, 2)
	require.Len(t, suite.AccountScenarios, 3)
	require.Equal(t, "single_leaf_tree", suite.MerkleScenarios[0].Name)
	require.Equal(t, "debit_below_zero_rejected", suite.AccountScenarios[2].Name)
	require.True(t, suite.AccountScenarios[2].ExpectError)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("testdata/does_not_exist.yaml")
	require.Error(t, err)
}

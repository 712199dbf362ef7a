// Package testfixtures loads YAML-described test scenarios for table tests
// across the ledger, the same role human-editable fixture files play in
// the teacher's test/ directory (test/rpcserverhelp fixtures), generalized
// here from flat key/value text to structured yaml.v3 documents.
package testfixtures

import (
	"os"

	"gopkg.in/yaml.v3"
)

// MerkleScenario describes one Merkle engine table-test case: a list of
// hex-encoded leaf hashes, the leaf index to extract a proof for, and
// whether that proof is expected to verify against its own leaf.
type MerkleScenario struct {
	Name        string   `yaml:"name"`
	TreeSize    int      `yaml:"tree_size"`
	Leaves      []string `yaml:"leaves"`
	ProofIndex  int      `yaml:"proof_index"`
	ShouldMatch bool     `yaml:"should_match"`
}

// AccountScenario describes one account-store table-test case: a starting
// balance, a signed delta to apply, and the expected resulting balance (or
// an expected failure when the delta would underflow).
type AccountScenario struct {
	Name            string `yaml:"name"`
	StartingBalance string `yaml:"starting_balance"`
	Delta           string `yaml:"delta"`
	ExpectError     bool   `yaml:"expect_error"`
	ExpectedBalance string `yaml:"expected_balance"`
}

// Suite is the top-level document shape loaded from a fixture file.
type Suite struct {
	MerkleScenarios  []MerkleScenario  `yaml:"merkle_scenarios"`
	AccountScenarios []AccountScenario `yaml:"account_scenarios"`
}

// Load reads and parses a fixture file at path.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	return &suite, nil
}

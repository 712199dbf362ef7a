package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func validEnv() map[string]string {
	return map[string]string{
		"SERVER_URL":       "127.0.0.1:8080",
		"DATABASE_URL":     "postgres://localhost/ledger",
		"NODE_MODE":        "test",
		"MERKLE_TREE_SIZE": "16",
		"BASE_REWARD":      "50",
		"BLOCK_SIZE":       "10",
		"TARGET":           "2",
	}
}

func TestLoadSucceedsWithAllVariables(t *testing.T) {
	setEnv(t, validEnv())
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 16, cfg.MerkleTreeSize)
	require.Equal(t, int64(50), cfg.BaseReward)
	require.Equal(t, ModeTest, cfg.Live.Mode())
	require.Equal(t, 2, cfg.Live.Target())
}

func TestLoadFailsOnMissingVariable(t *testing.T) {
	env := validEnv()
	delete(env, "TARGET")
	setEnv(t, env)
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsNonPowerOfTwoMerkleSize(t *testing.T) {
	env := validEnv()
	env["MERKLE_TREE_SIZE"] = "15"
	setEnv(t, env)
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	env := validEnv()
	env["NODE_MODE"] = "bogus"
	setEnv(t, env)
	_, err := Load()
	require.Error(t, err)
}

func TestLiveSnapshotIsIndependentOfLaterWrites(t *testing.T) {
	live := NewLive(ModeFull, 3)
	target := live.Target()
	live.SetTarget(9)
	require.Equal(t, 3, target)
	require.Equal(t, 9, live.Target())
}

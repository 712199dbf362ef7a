package config

import "sync/atomic"

// Live holds the configuration fields an admin endpoint may mutate after
// startup (NODE_MODE via /set_mode, TARGET via /set_target). It follows the
// teacher's sync/atomic posture for hot fields shared across request
// goroutines (mempool.TxPool keeps lastUpdated as an atomically-accessed
// int64 for exactly this reason: many readers, rare single writer, no lock
// needed). try_mine samples both fields once at the start of each run, so a
// racing admin update never splits one mining attempt across two configs
// (spec.md §5).
type Live struct {
	mode   atomic.Value // stores Mode
	target atomic.Int64
}

// NewLive constructs a Live cell seeded with the given mode and target.
func NewLive(mode Mode, target int) *Live {
	l := &Live{}
	l.mode.Store(mode)
	l.target.Store(int64(target))
	return l
}

// Mode returns the current node mode.
func (l *Live) Mode() Mode {
	return l.mode.Load().(Mode)
}

// SetMode sets the current node mode. The single writer discipline is
// enforced by convention (only the /set_mode handler calls this); the
// atomic.Value guarantees torn-free publication to concurrent readers.
func (l *Live) SetMode(mode Mode) {
	l.mode.Store(mode)
}

// Target returns the current leading-zero-byte difficulty target.
func (l *Live) Target() int {
	return int(l.target.Load())
}

// SetTarget sets the current difficulty target.
func (l *Live) SetTarget(target int) {
	l.target.Store(int64(target))
}

// Package ledgerlog wires up the per-subsystem btclog.Logger registry used
// across the repository, grounded on the teacher's own pattern (see
// mining/randomx/miner.go's package-level `log btclog.Logger` with
// UseLogger/DisableLog) generalized from one package to a small registry
// shared by cmd/ledgerd at startup.
package ledgerlog

import (
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem names, one btclog.Logger per ledger component.
const (
	SubsystemAPI   = "API"
	SubsystemMine  = "MINE"
	SubsystemStore = "STOR"
	SubsystemCfg   = "CFG"
)

var (
	backendLog = btclog.NewBackend(os.Stdout)

	loggers = map[string]btclog.Logger{
		SubsystemAPI:   backendLog.Logger(SubsystemAPI),
		SubsystemMine:  backendLog.Logger(SubsystemMine),
		SubsystemStore: backendLog.Logger(SubsystemStore),
		SubsystemCfg:   backendLog.Logger(SubsystemCfg),
	}
)

// Logger returns the registered logger for subsystem, defaulting to a
// disabled logger if the name is unrecognized.
func Logger(subsystem string) btclog.Logger {
	if l, ok := loggers[subsystem]; ok {
		return l
	}
	return btclog.Disabled
}

// SetLevel sets the logging level for every registered subsystem.
func SetLevel(level btclog.Level) {
	for _, l := range loggers {
		l.SetLevel(level)
	}
}

// UseRotatingFile rebuilds every registered subsystem logger on a backend
// that writes to a size-rotated log file at path, keeping the most recent
// maxRolls rotations, the same jrick/logrotate backend the teacher wires its
// own subsystems through. Only loggers obtained from Logger after this call
// write to the file: loggers already held elsewhere (such as package-level
// variables initialized at startup) keep writing to the previous backend,
// and the rebuilt loggers start at btclog's default level, not at a level
// set earlier with SetLevel.
func UseRotatingFile(path string, maxRolls int) error {
	r, err := rotator.New(path, 10*1024, false, maxRolls)
	if err != nil {
		return err
	}
	backendLog = btclog.NewBackend(r)
	for name := range loggers {
		loggers[name] = backendLog.Logger(name)
	}
	return nil
}

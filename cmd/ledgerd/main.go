// Command ledgerd is the ledger daemon: it loads configuration from the
// environment, opens the Postgres store, wires the mining protocol and
// HTTP surface together, and serves until interrupted.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"

	"github.com/coreledger/ledgerd/internal/api"
	"github.com/coreledger/ledgerd/internal/config"
	"github.com/coreledger/ledgerd/internal/ledgerlog"
	"github.com/coreledger/ledgerd/internal/mining"
	"github.com/coreledger/ledgerd/internal/store/pgstore"
)

// cliOptions holds the process flags layered on top of the required
// environment configuration: log verbosity and an optional rotating log
// file, the same split the teacher's daemon flags keep between
// operational knobs and chain configuration.
type cliOptions struct {
	LogLevel string `long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical}" default:"info"`
	LogDir   string `long:"logdir" description:"Directory to write a rotating log file to; empty disables file logging"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var opts cliOptions
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}

	level, ok := btclog.LevelFromString(opts.LogLevel)
	if !ok {
		return fmt.Errorf("ledgerd: unrecognized loglevel %q", opts.LogLevel)
	}
	ledgerlog.SetLevel(level)
	if opts.LogDir != "" {
		logPath := opts.LogDir + "/ledgerd.log"
		if err := ledgerlog.UseRotatingFile(logPath, 3); err != nil {
			return fmt.Errorf("ledgerd: open log file: %w", err)
		}
	}

	log := ledgerlog.Logger(ledgerlog.SubsystemCfg)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ledgerd: load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infof("connecting to database")
	db, err := pgstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("ledgerd: open store: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("ledgerd: migrate store: %w", err)
	}

	protocol := mining.New(db, cfg.Live, cfg.MerkleTreeSize, cfg.BlockSize, cfg.BaseReward)
	router := api.NewRouter(&api.Server{Store: db, Protocol: protocol, Live: cfg.Live})

	server := &http.Server{
		Addr:              cfg.ServerURL,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.ServerURL)
		serveErr <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ledgerd: serve: %w", err)
		}
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ledgerd: shutdown: %w", err)
		}
	}
	return nil
}

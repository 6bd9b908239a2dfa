package main

import (
	"bufio"
	"fmt"
	"os"

	"wallet-lite/internal/cli"
	"wallet-lite/internal/config"
	"wallet-lite/internal/ledger"
	"wallet-lite/internal/logging"
	"wallet-lite/internal/secrets"
	"wallet-lite/internal/state"
	"wallet-lite/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Logging)

	kv, err := storage.OpenFileStore(cfg.Data.LedgerFile)
	if err != nil {
		return fmt.Errorf("open ledger store: %w", err)
	}
	defer kv.Close()

	sec, err := secrets.OpenFileStore(cfg.Data.SecretsFile)
	if err != nil {
		return fmt.Errorf("open secret store: %w", err)
	}

	engine := ledger.New(kv, sec, ledger.Options{
		MinFee:  cfg.Ledger.MinFee,
		FeeRate: cfg.Ledger.FeeRate,
		Logger:  log,
	})
	ctrl := state.NewController(engine)

	ui := cli.NewUI(ctrl, bufio.NewReader(os.Stdin), os.Stdout)
	for {
		switch ui.SelectMode() {
		case cli.ModeSignup:
			if ui.HandleSignup() {
				ui.HandleSession()
			}
		case cli.ModeLogin:
			if ui.HandleLogin() {
				ui.HandleSession()
			}
		default:
			return nil
		}
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"wallet-lite/internal/bot"
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
	if cfg.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	log := logging.New(cfg.Logging)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}

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

	log.Info("bot started", "account", api.Self.UserName)
	bot.New(api, ctrl, log).Start(cfg.Telegram.Timeout)
	return nil
}

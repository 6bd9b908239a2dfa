// Package bot is the Telegram front-end. Like the CLI it is presentation
// glue only: every command maps to one engine operation through the state
// controller.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"wallet-lite/internal/domain"
	"wallet-lite/internal/ledger"
	"wallet-lite/internal/state"
)

const helpText = `Available commands:
/signup <name> <email> <password>
/login <email> <password>
/logout
/balance
/history
/topup <amount> [note]
/send <recipient> <amount> [note]
/receive <sender> <amount> [note]
/refund <source> <amount> [note]`

type Bot struct {
	api  *tgbotapi.BotAPI
	ctrl *state.Controller
	log  *slog.Logger
}

func New(api *tgbotapi.BotAPI, ctrl *state.Controller, log *slog.Logger) *Bot {
	return &Bot{api: api, ctrl: ctrl, log: log}
}

// Start consumes updates until the channel closes.
func (b *Bot) Start(timeout int) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		if !update.Message.IsCommand() {
			b.reply(update.Message.Chat.ID, "Use /help for the list of commands")
			continue
		}
		b.reply(update.Message.Chat.ID, b.handleCommand(update.Message))
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) string {
	ctx := context.Background()
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		return helpText

	case "signup":
		if len(args) < 3 {
			return "Usage: /signup <name> <email> <password>"
		}
		u, err := b.ctrl.Signup(ctx, args[0], args[1], args[2])
		if err != nil {
			return b.errorText(err)
		}
		return fmt.Sprintf("Welcome, %s! Your balance is %s.", u.Name, u.Balance.StringFixed(2))

	case "login":
		if len(args) < 2 {
			return "Usage: /login <email> <password>"
		}
		u, err := b.ctrl.Login(ctx, args[0], args[1])
		if err != nil {
			return b.errorText(err)
		}
		return fmt.Sprintf("Welcome back, %s!", u.Name)

	case "logout":
		if err := b.ctrl.Logout(ctx); err != nil {
			return b.errorText(err)
		}
		return "Logged out."

	case "balance":
		if _, ok := b.ctrl.User(); !ok {
			return "Not logged in. Use /login or /signup."
		}
		return "Balance: " + b.ctrl.Balance().StringFixed(2)

	case "history":
		if _, ok := b.ctrl.User(); !ok {
			return "Not logged in. Use /login or /signup."
		}
		txs := b.ctrl.Transactions()
		if len(txs) == 0 {
			return "No transactions yet."
		}
		var sb strings.Builder
		sb.WriteString("Latest transactions:\n")
		for i, t := range txs {
			if i == 10 {
				break
			}
			who := t.Counterparty
			if who == "" {
				who = "-"
			}
			fmt.Fprintf(&sb, "%s  %s  %s  total %s\n",
				t.CreatedAt.Format("02.01.2006 15:04"), t.Type, who, t.Total.StringFixed(2))
		}
		return sb.String()

	case "topup":
		return b.createTx(ctx, domain.TxTopup, "", args)

	case "send", "receive", "refund":
		if len(args) < 2 {
			return fmt.Sprintf("Usage: /%s <counterparty> <amount> [note]", msg.Command())
		}
		return b.createTx(ctx, domain.TxType(msg.Command()), args[0], args[1:])

	default:
		return "Unknown command. Use /help."
	}
}

// createTx parses "<amount> [note...]" from args and books the transaction.
func (b *Bot) createTx(ctx context.Context, kind domain.TxType, counterparty string, args []string) string {
	if len(args) < 1 {
		return "Missing amount"
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil || amount.Sign() < 0 {
		return "Invalid amount: " + args[0]
	}
	tx, err := b.ctrl.CreateTransaction(ctx, ledger.CreateTransactionInput{
		Type:         kind,
		Counterparty: counterparty,
		Amount:       amount,
		Note:         strings.Join(args[1:], " "),
	})
	if err != nil {
		return b.errorText(err)
	}
	return fmt.Sprintf("Booked %s of %s (fee %s, total %s). Balance: %s",
		tx.Type, tx.Amount.StringFixed(2), tx.Fee.StringFixed(2),
		tx.Total.StringFixed(2), b.ctrl.Balance().StringFixed(2))
}

func (b *Bot) errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateIdentifier):
		return "That identifier is already registered."
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrInvalidCredentials):
		// presented identically to avoid identifier enumeration
		return "Wrong identifier or password."
	case errors.Is(err, domain.ErrNoActiveSession):
		return "Not logged in. Use /login or /signup."
	default:
		b.log.Error("command failed", "error", err)
		return "Something went wrong, please try again."
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Error("send reply", "error", err)
	}
}

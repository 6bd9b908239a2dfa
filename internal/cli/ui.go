package cli

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet-lite/internal/domain"
	"wallet-lite/internal/ledger"
	"wallet-lite/internal/state"
)

type Mode int

const (
	ModeExit Mode = iota
	ModeSignup
	ModeLogin
)

// UI is the terminal front-end. It only talks to the ledger through the
// state controller and re-renders from the controller's projection.
type UI struct {
	ctrl *state.Controller
	in   *bufio.Reader
	out  io.Writer
}

func NewUI(ctrl *state.Controller, in *bufio.Reader, out io.Writer) *UI {
	return &UI{ctrl: ctrl, in: in, out: out}
}

func (ui *UI) SelectMode() Mode {
	fmt.Fprintln(ui.out, "\nChoose mode:")
	fmt.Fprintln(ui.out, "1) Sign up")
	fmt.Fprintln(ui.out, "2) Log in")
	fmt.Fprintln(ui.out, "0) Quit")
	fmt.Fprint(ui.out, "> ")
	switch strings.TrimSpace(ui.readLine()) {
	case "1":
		return ModeSignup
	case "2":
		return ModeLogin
	default:
		return ModeExit
	}
}

func (ui *UI) HandleSignup() bool {
	fmt.Fprintln(ui.out, "\n=== Sign up ===")
	fmt.Fprint(ui.out, "Name: ")
	name := ui.readLine()
	fmt.Fprint(ui.out, "Email or phone: ")
	identifier := strings.TrimSpace(ui.readLine())
	fmt.Fprint(ui.out, "Password: ")
	pass := ui.readPassword()
	fmt.Fprint(ui.out, "Confirm password: ")
	confirm := ui.readPassword()
	if len(pass) < 6 {
		fmt.Fprintln(ui.out, "Password must be at least 6 characters.")
		return false
	}
	if pass != confirm {
		fmt.Fprintln(ui.out, "Passwords do not match.")
		return false
	}
	u, err := ui.ctrl.Signup(context.Background(), name, identifier, pass)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentifier) {
			fmt.Fprintln(ui.out, "That identifier is already registered.")
		} else {
			fmt.Fprintln(ui.out, "Error:", err)
		}
		return false
	}
	fmt.Fprintf(ui.out, "Welcome, %s!\n", u.Name)
	return true
}

func (ui *UI) HandleLogin() bool {
	fmt.Fprintln(ui.out, "\n=== Log in ===")
	fmt.Fprint(ui.out, "Email or phone: ")
	identifier := strings.TrimSpace(ui.readLine())
	fmt.Fprint(ui.out, "Password: ")
	pass := ui.readPassword()
	u, err := ui.ctrl.Login(context.Background(), identifier, pass)
	if err != nil {
		// user-not-found and bad-password read the same on purpose
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidCredentials) {
			fmt.Fprintln(ui.out, "Wrong identifier or password.")
		} else {
			fmt.Fprintln(ui.out, "Error:", err)
		}
		return false
	}
	fmt.Fprintf(ui.out, "Welcome back, %s!\n", u.Name)
	return true
}

func (ui *UI) HandleSession() {
	for {
		u, ok := ui.ctrl.User()
		if !ok {
			return
		}
		fmt.Fprintf(ui.out, "\n=== %s — balance %s ===\n", u.Name, u.Balance.StringFixed(2))
		fmt.Fprintln(ui.out, "1) History")
		fmt.Fprintln(ui.out, "2) Top up")
		fmt.Fprintln(ui.out, "3) Send")
		fmt.Fprintln(ui.out, "4) Receive")
		fmt.Fprintln(ui.out, "5) Refund")
		fmt.Fprintln(ui.out, "6) Export statement (CSV)")
		fmt.Fprintln(ui.out, "0) Log out")
		fmt.Fprint(ui.out, "> ")
		switch strings.TrimSpace(ui.readLine()) {
		case "1":
			ui.history()
		case "2":
			ui.createTx(domain.TxTopup)
		case "3":
			ui.createTx(domain.TxSend)
		case "4":
			ui.createTx(domain.TxReceive)
		case "5":
			ui.createTx(domain.TxRefund)
		case "6":
			ui.exportStatement()
		default:
			if err := ui.ctrl.Logout(context.Background()); err != nil {
				fmt.Fprintln(ui.out, "Error:", err)
			}
			return
		}
	}
}

func (ui *UI) history() {
	txs := ui.ctrl.Transactions()
	if len(txs) == 0 {
		fmt.Fprintln(ui.out, "No transactions yet.")
		return
	}
	fmt.Fprintln(ui.out, "Transactions (newest first):")
	for _, t := range txs {
		who := t.Counterparty
		if who == "" {
			who = "-"
		}
		fmt.Fprintf(ui.out, "- %s  %-7s  %s  amount %s  fee %s  total %s  %s\n",
			t.CreatedAt.Format("2006-01-02 15:04"), t.Type, who,
			t.Amount.StringFixed(2), t.Fee.StringFixed(2), t.Total.StringFixed(2), t.Status)
		if strings.TrimSpace(t.Note) != "" {
			fmt.Fprintf(ui.out, "    %s\n", t.Note)
		}
	}
}

func (ui *UI) createTx(kind domain.TxType) {
	in := ledger.CreateTransactionInput{Type: kind}
	if kind != domain.TxTopup {
		fmt.Fprint(ui.out, "Counterparty: ")
		in.Counterparty = strings.TrimSpace(ui.readLine())
	}
	amount, ok := ui.readAmount("Amount: ")
	if !ok {
		return
	}
	in.Amount = amount
	fmt.Fprint(ui.out, "Fee (blank for default): ")
	if raw := strings.TrimSpace(ui.readLine()); raw != "" {
		fee, err := decimal.NewFromString(raw)
		if err != nil || fee.Sign() < 0 {
			fmt.Fprintln(ui.out, "Invalid fee.")
			return
		}
		in.Fee = &fee
	}
	fmt.Fprint(ui.out, "Note: ")
	in.Note = ui.readLine()

	// the engine allows overdrafts; the warning lives here
	if kind == domain.TxSend {
		fee := ui.ctrl.FeeQuote(in.Amount)
		if in.Fee != nil {
			fee = *in.Fee
		}
		if in.Amount.Add(fee).GreaterThan(ui.ctrl.Balance()) {
			fmt.Fprint(ui.out, "This would overdraw your balance. Continue? (y/N) ")
			if !strings.EqualFold(strings.TrimSpace(ui.readLine()), "y") {
				return
			}
		}
	}

	tx, err := ui.ctrl.CreateTransaction(context.Background(), in)
	if err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	fmt.Fprintf(ui.out, "Done. %s of %s (fee %s, total %s). New balance: %s\n",
		tx.Type, tx.Amount.StringFixed(2), tx.Fee.StringFixed(2),
		tx.Total.StringFixed(2), ui.ctrl.Balance().StringFixed(2))
}

func (ui *UI) exportStatement() {
	fmt.Fprint(ui.out, "Output file (default statement.csv): ")
	path := strings.TrimSpace(ui.readLine())
	if path == "" {
		path = "statement.csv"
	}
	if err := ui.writeStatement(path); err != nil {
		fmt.Fprintln(ui.out, "Error:", err)
		return
	}
	fmt.Fprintf(ui.out, "Written to %s\n", path)
}

func (ui *UI) writeStatement(path string) error {
	txs := ui.ctrl.Transactions()
	rows := [][]string{{"tx_id", "type", "counterparty", "amount", "fee", "total", "status", "created_at", "note"}}
	for _, t := range txs {
		rows = append(rows, []string{
			string(t.ID), string(t.Type), t.Counterparty,
			t.Amount.StringFixed(2), t.Fee.StringFixed(2), t.Total.StringFixed(2),
			string(t.Status), t.CreatedAt.Format(time.RFC3339), t.Note,
		})
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (ui *UI) readLine() string {
	s, _ := ui.in.ReadString('\n')
	return strings.TrimRight(s, "\r\n")
}

func (ui *UI) readPassword() string {
	// for simplicity in cross-platform environments, we don't disable echo.
	return ui.readLine()
}

func (ui *UI) readAmount(prompt string) (decimal.Decimal, bool) {
	for {
		fmt.Fprint(ui.out, prompt)
		raw := strings.TrimSpace(ui.readLine())
		if raw == "" {
			return decimal.Zero, false
		}
		raw = strings.ReplaceAll(raw, ",", ".")
		d, err := decimal.NewFromString(raw)
		if err != nil || d.Sign() < 0 {
			fmt.Fprintln(ui.out, "Invalid amount. Example: 100.50")
			continue
		}
		return d, true
	}
}

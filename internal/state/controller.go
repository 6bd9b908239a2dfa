// Package state holds an in-memory projection of the ledger for front-ends
// to read. The controller never writes ledger-owned data directly; every
// mutation goes through an engine operation and is followed by a refresh
// of the cached view.
package state

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"wallet-lite/internal/domain"
	"wallet-lite/internal/ledger"
)

type Controller struct {
	engine *ledger.Ledger

	mu      sync.RWMutex
	user    domain.User
	hasUser bool
	balance decimal.Decimal
	txs     []domain.Transaction
}

func NewController(engine *ledger.Ledger) *Controller {
	return &Controller{engine: engine}
}

// Refresh re-reads the current user, balance, and transaction log from the
// engine and replaces the cached projection.
func (c *Controller) Refresh(ctx context.Context) error {
	u, ok, err := c.engine.CurrentUser(ctx)
	if err != nil {
		return err
	}
	balance, err := c.engine.BalanceForCurrentUser(ctx)
	if err != nil {
		return err
	}
	var txs []domain.Transaction
	if ok {
		txs, err = c.engine.TransactionsForUser(ctx, u.ID)
		if err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.user, c.hasUser = u, ok
	c.balance = balance
	c.txs = txs
	c.mu.Unlock()
	return nil
}

func (c *Controller) User() (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user, c.hasUser
}

func (c *Controller) Balance() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.balance
}

// FeeQuote is the fee the engine would apply to amount by default.
func (c *Controller) FeeQuote(amount decimal.Decimal) decimal.Decimal {
	return c.engine.QuoteFee(amount)
}

func (c *Controller) Transactions() []domain.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Transaction, len(c.txs))
	copy(out, c.txs)
	return out
}

// Signup delegates to the engine and refreshes the projection.
func (c *Controller) Signup(ctx context.Context, name, identifier, password string) (domain.User, error) {
	u, err := c.engine.Signup(ctx, name, identifier, password)
	if err != nil {
		return domain.User{}, err
	}
	return u, c.Refresh(ctx)
}

// Login delegates to the engine and refreshes the projection.
func (c *Controller) Login(ctx context.Context, identifier, password string) (domain.User, error) {
	u, err := c.engine.Login(ctx, identifier, password)
	if err != nil {
		return domain.User{}, err
	}
	return u, c.Refresh(ctx)
}

// Logout delegates to the engine and refreshes the projection.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.engine.Logout(ctx); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// CreateTransaction delegates to the engine and refreshes the projection.
func (c *Controller) CreateTransaction(ctx context.Context, in ledger.CreateTransactionInput) (domain.Transaction, error) {
	tx, err := c.engine.CreateTransactionForCurrentUser(ctx, in)
	if err != nil {
		return domain.Transaction{}, err
	}
	return tx, c.Refresh(ctx)
}

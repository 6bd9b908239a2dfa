// Package ledger implements the wallet's core engine: the user registry,
// the current-session pointer, and each user's append-only transaction
// log. All durable state lives in the injected stores; the engine never
// retries and never rolls back, it fails fast and surfaces storage errors
// unchanged.
package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"wallet-lite/internal/domain"
	"wallet-lite/internal/secrets"
	"wallet-lite/internal/storage"
)

// Options configures a Ledger. Zero values fall back to the demo fee
// schedule, uuid ids, the system clock and a discarded logger.
type Options struct {
	MinFee  decimal.Decimal
	FeeRate decimal.Decimal
	IDs     IDGenerator
	Clock   Clock
	Logger  *slog.Logger
}

type Ledger struct {
	kv      storage.KVS
	secrets secrets.Store
	ids     IDGenerator
	clock   Clock
	minFee  decimal.Decimal
	feeRate decimal.Decimal
	log     *slog.Logger

	mu    sync.Mutex
	locks map[domain.UserID]*sync.Mutex
}

func New(kv storage.KVS, sec secrets.Store, opts Options) *Ledger {
	l := &Ledger{
		kv:      kv,
		secrets: sec,
		ids:     opts.IDs,
		clock:   opts.Clock,
		minFee:  opts.MinFee,
		feeRate: opts.FeeRate,
		log:     opts.Logger,
		locks:   map[domain.UserID]*sync.Mutex{},
	}
	if l.ids == nil {
		l.ids = uuidGenerator{}
	}
	if l.clock == nil {
		l.clock = systemClock{}
	}
	if l.minFee.IsZero() {
		l.minFee = DefaultMinFee
	}
	if l.feeRate.IsZero() {
		l.feeRate = DefaultFeeRate
	}
	if l.log == nil {
		l.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// userLock returns the mutex serializing read-modify-write sequences for
// one user, creating it on first use.
func (l *Ledger) userLock(id domain.UserID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

func (l *Ledger) loadUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if _, err := l.kv.Get(ctx, storage.KeyUsers, &users); err != nil {
		return nil, fmt.Errorf("load user registry: %w", err)
	}
	return users, nil
}

func txKey(id domain.UserID) string { return storage.KeyTxsPrefix + string(id) }

// Signup registers a new user with a zero balance, stores the credential,
// and opens a session for the new user.
func (l *Ledger) Signup(ctx context.Context, name, identifier, password string) (domain.User, error) {
	users, err := l.loadUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if u.Identifier == identifier {
			return domain.User{}, domain.ErrDuplicateIdentifier
		}
	}
	u := domain.User{
		ID:         domain.UserID(l.ids.Next()),
		Name:       name,
		Identifier: identifier,
		Balance:    decimal.Zero,
		CreatedAt:  l.clock.Now(),
	}
	users = append(users, u)
	if err := l.kv.Set(ctx, storage.KeyUsers, users); err != nil {
		return domain.User{}, fmt.Errorf("persist user registry: %w", err)
	}
	if err := l.secrets.Set(ctx, string(u.ID), password); err != nil {
		return domain.User{}, fmt.Errorf("store credential: %w", err)
	}
	if err := l.kv.Set(ctx, storage.KeySession, string(u.ID)); err != nil {
		return domain.User{}, fmt.Errorf("persist session: %w", err)
	}
	if err := l.kv.Set(ctx, txKey(u.ID), []domain.Transaction{}); err != nil {
		return domain.User{}, fmt.Errorf("init transaction log: %w", err)
	}
	l.log.Info("user signed up", "user_id", u.ID, "identifier", identifier)
	return u, nil
}

// Login authenticates by identifier and opens a session. A missing user
// and a bad password are distinct errors; callers may present them
// identically to avoid identifier enumeration.
func (l *Ledger) Login(ctx context.Context, identifier, password string) (domain.User, error) {
	users, err := l.loadUsers(ctx)
	if err != nil {
		return domain.User{}, err
	}
	var user *domain.User
	for i := range users {
		if users[i].Identifier == identifier {
			user = &users[i]
			break
		}
	}
	if user == nil {
		return domain.User{}, domain.ErrUserNotFound
	}
	ok, err := l.secrets.Match(ctx, string(user.ID), password)
	if err != nil {
		return domain.User{}, fmt.Errorf("read credential: %w", err)
	}
	if !ok {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err := l.kv.Set(ctx, storage.KeySession, string(user.ID)); err != nil {
		return domain.User{}, fmt.Errorf("persist session: %w", err)
	}
	l.log.Info("user logged in", "user_id", user.ID)
	return *user, nil
}

// Logout clears the session pointer. Calling it with no active session is
// not an error.
func (l *Ledger) Logout(ctx context.Context) error {
	if err := l.kv.Set(ctx, storage.KeySession, ""); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser resolves the session pointer. The second return is false
// when no session is active. A session pointing at an unknown user is an
// internal-consistency error since registry entries are never deleted.
func (l *Ledger) CurrentUser(ctx context.Context) (domain.User, bool, error) {
	var id string
	ok, err := l.kv.Get(ctx, storage.KeySession, &id)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("read session: %w", err)
	}
	if !ok || id == "" {
		return domain.User{}, false, nil
	}
	users, err := l.loadUsers(ctx)
	if err != nil {
		return domain.User{}, false, err
	}
	for _, u := range users {
		if u.ID == domain.UserID(id) {
			return u, true, nil
		}
	}
	return domain.User{}, false, fmt.Errorf("session points at unknown user %s", id)
}

// TransactionsForUser returns the user's transactions newest-first.
// The sort is stable and the log is kept in reverse-insertion order, so
// entries sharing a timestamp come back most-recently-created first.
func (l *Ledger) TransactionsForUser(ctx context.Context, userID domain.UserID) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if _, err := l.kv.Get(ctx, txKey(userID), &txs); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
	return txs, nil
}

// BalanceForCurrentUser returns the persisted balance of the session's
// user, or zero when no session is active.
func (l *Ledger) BalanceForCurrentUser(ctx context.Context) (decimal.Decimal, error) {
	u, ok, err := l.CurrentUser(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, nil
	}
	return u.Balance, nil
}

// CreateTransactionInput carries the caller-supplied fields of a new
// transaction. Fee, when nil, is computed from the fee schedule.
type CreateTransactionInput struct {
	Type         domain.TxType
	Counterparty string
	Amount       decimal.Decimal
	Fee          *decimal.Decimal
	Note         string
}

// CreateTransactionForCurrentUser appends a completed transaction to the
// session user's log and applies its net effect to the balance. The two
// writes are serialized per user but not transactional: a failure between
// them leaves the last successfully written state in place.
//
// No overdraft check happens here; a send may drive the balance negative.
func (l *Ledger) CreateTransactionForCurrentUser(ctx context.Context, in CreateTransactionInput) (domain.Transaction, error) {
	if !in.Type.Valid() {
		return domain.Transaction{}, fmt.Errorf("%w: %q", domain.ErrUnknownTxType, in.Type)
	}
	user, ok, err := l.CurrentUser(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	if !ok {
		return domain.Transaction{}, domain.ErrNoActiveSession
	}

	lock := l.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so concurrent creations see each other's
	// balance writes.
	users, err := l.loadUsers(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	idx := -1
	for i := range users {
		if users[i].ID == user.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Transaction{}, fmt.Errorf("session points at unknown user %s", user.ID)
	}

	fee := defaultFee(in.Amount, l.minFee, l.feeRate)
	if in.Fee != nil {
		fee = *in.Fee
	}
	total := in.Amount.Sub(fee)
	if in.Type == domain.TxSend {
		total = in.Amount.Add(fee)
	}
	tx := domain.Transaction{
		ID:           domain.TxID(l.ids.Next()),
		UserID:       user.ID,
		Type:         in.Type,
		Counterparty: in.Counterparty,
		Amount:       in.Amount,
		Fee:          fee,
		Total:        total,
		Note:         in.Note,
		Status:       domain.StatusCompleted,
		CreatedAt:    l.clock.Now(),
	}

	var log []domain.Transaction
	if _, err := l.kv.Get(ctx, txKey(user.ID), &log); err != nil {
		return domain.Transaction{}, fmt.Errorf("load transactions: %w", err)
	}
	log = append([]domain.Transaction{tx}, log...)
	if err := l.kv.Set(ctx, txKey(user.ID), log); err != nil {
		return domain.Transaction{}, fmt.Errorf("persist transactions: %w", err)
	}

	users[idx].Balance = users[idx].Balance.Add(tx.NetEffect())
	if err := l.kv.Set(ctx, storage.KeyUsers, users); err != nil {
		return domain.Transaction{}, fmt.Errorf("persist balance: %w", err)
	}

	l.log.Info("transaction created",
		"tx_id", tx.ID, "user_id", user.ID, "type", tx.Type,
		"amount", tx.Amount, "fee", tx.Fee, "balance", users[idx].Balance)
	return tx, nil
}

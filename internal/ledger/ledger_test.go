package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wallet-lite/internal/domain"
	"wallet-lite/internal/secrets"
	"wallet-lite/internal/storage"
)

type seqIDs struct{ n int }

func (s *seqIDs) Next() string {
	s.n++
	return fmt.Sprintf("id-%03d", s.n)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	ledger *Ledger
	kv     *storage.MemStore
	clock  *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kv := storage.NewMemStore()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(kv, secrets.NewMemStore(), Options{
		IDs:   &seqIDs{},
		Clock: clock,
	})
	return &testEnv{ledger: l, kv: kv, clock: clock}
}

func mustSignup(t *testing.T, env *testEnv, name, identifier, password string) domain.User {
	t.Helper()
	u, err := env.ledger.Signup(context.Background(), name, identifier, password)
	if err != nil {
		t.Fatalf("signup %s: %v", identifier, err)
	}
	return u
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSignupDuplicateIdentifier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mustSignup(t, env, "Ada", "ada@x.com", "secret1")

	_, err := env.ledger.Signup(ctx, "Other Ada", "ada@x.com", "secret2")
	if !errors.Is(err, domain.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}

	var users []domain.User
	if _, err := env.kv.Get(ctx, storage.KeyUsers, &users); err != nil {
		t.Fatalf("read registry: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("registry changed by failed signup: %d users", len(users))
	}
}

func TestSignupOpensSessionWithZeroBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := mustSignup(t, env, "Ada", "ada@x.com", "secret1")
	if !created.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", created.Balance)
	}

	u, ok, err := env.ledger.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if !ok || u.ID != created.ID {
		t.Fatalf("expected session for %s, got ok=%v id=%s", created.ID, ok, u.ID)
	}
}

func TestLoginCredentialGate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := mustSignup(t, env, "Ada", "ada@x.com", "secret1")
	if err := env.ledger.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := env.ledger.Login(ctx, "ada@x.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, ok, _ := env.ledger.CurrentUser(ctx); ok {
		t.Fatal("failed login must not change the session")
	}

	if _, err := env.ledger.Login(ctx, "nobody@x.com", "secret1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	u, err := env.ledger.Login(ctx, "ada@x.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID != created.ID {
		t.Fatalf("login returned user %s, want %s", u.ID, created.ID)
	}
	cur, ok, _ := env.ledger.CurrentUser(ctx)
	if !ok || cur.ID != created.ID {
		t.Fatalf("session not set after login: ok=%v id=%s", ok, cur.ID)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.ledger.Logout(ctx); err != nil {
		t.Fatalf("logout with no session: %v", err)
	}
	mustSignup(t, env, "Ada", "ada@x.com", "secret1")
	if err := env.ledger.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := env.ledger.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if _, ok, _ := env.ledger.CurrentUser(ctx); ok {
		t.Fatal("session survived logout")
	}
	balance, err := env.ledger.BalanceForCurrentUser(ctx)
	if err != nil {
		t.Fatalf("balance after logout: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero balance after logout, got %s", balance)
	}
}

func TestBalanceFoldInvariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := mustSignup(t, env, "Ada", "ada@x.com", "secret1")

	inputs := []CreateTransactionInput{
		{Type: domain.TxTopup, Amount: dec("500")},
		{Type: domain.TxSend, Amount: dec("120.50"), Counterparty: "Bob"},
		{Type: domain.TxReceive, Amount: dec("75"), Counterparty: "Carol"},
		{Type: domain.TxRefund, Amount: dec("30.25"), Counterparty: "Shop"},
		{Type: domain.TxSend, Amount: dec("999"), Counterparty: "Dan"},
	}

	want := decimal.Zero
	for _, in := range inputs {
		env.clock.Advance(time.Minute)
		tx, err := env.ledger.CreateTransactionForCurrentUser(ctx, in)
		if err != nil {
			t.Fatalf("create %s: %v", in.Type, err)
		}
		want = want.Add(tx.NetEffect())
	}

	got, err := env.ledger.BalanceForCurrentUser(ctx)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("balance %s does not equal fold of net effects %s", got, want)
	}

	txs, err := env.ledger.TransactionsForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != len(inputs) {
		t.Fatalf("expected %d transactions, got %d", len(inputs), len(txs))
	}
}

func TestTransactionsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := mustSignup(t, env, "Ada", "ada@x.com", "secret1")

	var created []domain.Transaction
	for i := 0; i < 5; i++ {
		env.clock.Advance(time.Hour)
		tx, err := env.ledger.CreateTransactionForCurrentUser(ctx, CreateTransactionInput{
			Type: domain.TxTopup, Amount: dec("100"),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		created = append(created, tx)
	}

	txs, err := env.ledger.TransactionsForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	for i := range txs {
		want := created[len(created)-1-i]
		if txs[i].ID != want.ID {
			t.Fatalf("position %d: got %s, want %s", i, txs[i].ID, want.ID)
		}
		if i > 0 && txs[i].CreatedAt.After(txs[i-1].CreatedAt) {
			t.Fatalf("ordering not descending at position %d", i)
		}
	}
}

func TestEqualTimestampsKeepReverseInsertionOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := mustSignup(t, env, "Ada", "ada@x.com", "secret1")

	// clock never advances: all three share one timestamp
	var ids []domain.TxID
	for i := 0; i < 3; i++ {
		tx, err := env.ledger.CreateTransactionForCurrentUser(ctx, CreateTransactionInput{
			Type: domain.TxTopup, Amount: dec("10"),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, tx.ID)
	}

	txs, err := env.ledger.TransactionsForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	for i := range txs {
		if txs[i].ID != ids[len(ids)-1-i] {
			t.Fatalf("position %d: got %s, want %s", i, txs[i].ID, ids[len(ids)-1-i])
		}
	}
}

func TestNoSessionSafety(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	balance, err := env.ledger.BalanceForCurrentUser(ctx)
	if err != nil {
		t.Fatalf("balance with no session: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", balance)
	}

	_, err = env.ledger.CreateTransactionForCurrentUser(ctx, CreateTransactionInput{
		Type: domain.TxTopup, Amount: dec("100"),
	})
	if !errors.Is(err, domain.ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}

	var users []domain.User
	if ok, _ := env.kv.Get(ctx, storage.KeyUsers, &users); ok && len(users) > 0 {
		t.Fatal("failed create persisted user state")
	}
}

func TestDefaultFeeOnTopup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mustSignup(t, env, "Ada", "ada@x.com", "secret1")

	tx, err := env.ledger.CreateTransactionForCurrentUser(ctx, CreateTransactionInput{
		Type: domain.TxTopup, Amount: dec("100"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !tx.Fee.Equal(dec("10")) {
		t.Fatalf("fee = %s, want 10 (max of minimum fee and 100*0.015)", tx.Fee)
	}
	if !tx.Total.Equal(dec("90")) {
		t.Fatalf("total = %s, want 90", tx.Total)
	}
	balance, _ := env.ledger.BalanceForCurrentUser(ctx)
	if !balance.Equal(dec("90")) {
		t.Fatalf("balance = %s, want 90", balance)
	}
}

func TestSignupThenSendAllowsOverdraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mustSignup(t, env, "Ada", "ada@x.com", "secret1")

	fee := dec("5")
	tx, err := env.ledger.CreateTransactionForCurrentUser(ctx, CreateTransactionInput{
		Type:         domain.TxSend,
		Counterparty: "Bob",
		Amount:       dec("50"),
		Fee:          &fee,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !tx.Total.Equal(dec("55")) {
		t.Fatalf("total = %s, want 55", tx.Total)
	}
	if tx.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", tx.Status)
	}
	balance, _ := env.ledger.BalanceForCurrentUser(ctx)
	if !balance.Equal(dec("-55")) {
		t.Fatalf("balance = %s, want -55 (no overdraft check)", balance)
	}
}

func TestUnknownTransactionTypeRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mustSignup(t, env, "Ada", "ada@x.com", "secret1")

	_, err := env.ledger.CreateTransactionForCurrentUser(ctx, CreateTransactionInput{
		Type: "chargeback", Amount: dec("10"),
	})
	if !errors.Is(err, domain.ErrUnknownTxType) {
		t.Fatalf("expected ErrUnknownTxType, got %v", err)
	}
}

func TestStorageFailureSurfacesUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	mustSignup(t, env, "Ada", "ada@x.com", "secret1")

	env.kv.FailWrites()
	_, err := env.ledger.CreateTransactionForCurrentUser(ctx, CreateTransactionInput{
		Type: domain.TxTopup, Amount: dec("100"),
	})
	if !errors.Is(err, env.kv.SetErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestDanglingSessionIsAnError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.kv.Set(ctx, storage.KeySession, "ghost"); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if _, _, err := env.ledger.CurrentUser(ctx); err == nil {
		t.Fatal("expected internal-consistency error for dangling session")
	}
}

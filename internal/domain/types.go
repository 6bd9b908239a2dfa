package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type UserID string
type TxID string

// User is a registered wallet owner. Balance is the authoritative running
// total and is only ever changed by the ledger's transaction creation.
type User struct {
	ID         UserID          `json:"id"`
	Name       string          `json:"name"`
	Identifier string          `json:"identifier"`
	Balance    decimal.Decimal `json:"balance"`
	CreatedAt  time.Time       `json:"created_at"`
}

type TxType string

const (
	TxSend    TxType = "send"
	TxReceive TxType = "receive"
	TxTopup   TxType = "topup"
	TxRefund  TxType = "refund"
)

// Valid reports whether t is one of the four known transaction kinds.
func (t TxType) Valid() bool {
	switch t {
	case TxSend, TxReceive, TxTopup, TxRefund:
		return true
	}
	return false
}

// Credit reports whether the kind increases the owner's balance.
func (t TxType) Credit() bool { return t != TxSend }

type TxStatus string

const (
	StatusCompleted TxStatus = "completed"
	StatusPending   TxStatus = "pending"
	StatusFailed    TxStatus = "failed"
)

// Transaction is an immutable ledger entry. Total is stored for display;
// the balance mutation rule nets the fee out of the credited amount for
// credit kinds (see NetEffect) and is the only authority over User.Balance.
type Transaction struct {
	ID           TxID            `json:"id"`
	UserID       UserID          `json:"user_id"`
	Type         TxType          `json:"type"`
	Counterparty string          `json:"counterparty,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Fee          decimal.Decimal `json:"fee"`
	Total        decimal.Decimal `json:"total"`
	Note         string          `json:"note,omitempty"`
	Status       TxStatus        `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NetEffect is the signed delta the transaction applies to its owner's
// balance: -(amount+fee) for send, +(amount-fee) for the credit kinds.
func (tx Transaction) NetEffect() decimal.Decimal {
	if tx.Type.Credit() {
		return tx.Amount.Sub(tx.Fee)
	}
	return tx.Amount.Add(tx.Fee).Neg()
}

package domain

import (
	"math"
	"time"

	"github.com/fintrackapp/fintrack/internal/ledger/errors"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

const maxDescriptionLength = 200

// Transaction is a single income or expense event owned by a user.
// The owner reference never changes after creation.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

func IsValidTransactionType(transactionType string) bool {
	return transactionType == TypeIncome || transactionType == TypeExpense
}

// Delta is the signed contribution of the transaction to the owner's
// balance: +amount for income, -amount for expense.
func (t *Transaction) Delta() float64 {
	if t.Type == TypeIncome {
		return t.Amount
	}
	return -t.Amount
}

func (t *Transaction) Validate() error {
	if t.Amount <= 0 {
		return errors.ErrInvalidAmount
	}
	if !IsValidTransactionType(t.Type) {
		return errors.ErrInvalidTransactionType
	}
	if t.Category == "" {
		return errors.ErrMissingCategory
	}
	if len(t.Description) > maxDescriptionLength {
		return errors.NewValidationError("Description must be of length less than 200")
	}
	return nil
}

func (t *Transaction) RoundToTwoDecimalPlaces() {
	t.Amount = math.Round(t.Amount*100) / 100
}

// TransactionPatch is the closed set of fields a transaction owner may
// change. Anything outside this record (owner, id) is rejected at the
// decoding layer, not by key-enumeration at runtime.
type TransactionPatch struct {
	Description *string    `json:"description"`
	Amount      *float64   `json:"amount"`
	Category    *string    `json:"category"`
	Type        *string    `json:"type"`
	Date        *time.Time `json:"date"`
}

func (p *TransactionPatch) IsEmpty() bool {
	return p.Description == nil && p.Amount == nil && p.Category == nil && p.Type == nil && p.Date == nil
}

// Apply returns a copy of tx with the patched fields replaced. ID and
// UserID are carried over untouched.
func (p *TransactionPatch) Apply(tx Transaction) Transaction {
	patched := tx
	if p.Description != nil {
		patched.Description = *p.Description
	}
	if p.Amount != nil {
		patched.Amount = *p.Amount
	}
	if p.Category != nil {
		patched.Category = *p.Category
	}
	if p.Type != nil {
		patched.Type = *p.Type
	}
	if p.Date != nil {
		patched.Date = *p.Date
	}
	return patched
}

// BalanceSnapshot is a user's stored balance together with the version
// counter used for the compare-and-swap commit of a mutation.
type BalanceSnapshot struct {
	Balance float64
	Version int64
}

// TransactionRepository persists transactions together with the owner's
// denormalized balance. Every mutating method commits the transaction row
// and the balance update as one atomic unit. Two guards protect the unit:
// the snapshot version on the balance, and, for update and delete, the
// prior transaction state (amount and type) the caller computed its delta
// from. Either being stale returns errors.ErrBalanceConflict and leaves
// everything untouched, so the caller re-reads and retries.
type TransactionRepository interface {
	FindByID(userID, transactionID string) (*Transaction, error)
	FindByUser(userID, transactionType string) ([]Transaction, error)
	GetBalance(userID string) (BalanceSnapshot, error)
	CreateWithBalance(transaction Transaction, snapshot BalanceSnapshot, newBalance float64) error
	UpdateWithBalance(updated Transaction, prior Transaction, snapshot BalanceSnapshot, newBalance float64) error
	DeleteWithBalance(prior Transaction, snapshot BalanceSnapshot, newBalance float64) error
	SumDeltas(userID string) (float64, error)
	ListUserIDs() ([]string, error)
}

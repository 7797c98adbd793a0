package application

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/fintrackapp/fintrack/internal/ledger/domain"
	ledgerErrors "github.com/fintrackapp/fintrack/internal/ledger/errors"
)

// maxCommitAttempts bounds the optimistic retry loop when two mutations
// race on the same user's balance.
const maxCommitAttempts = 3

// Reconciler is the single entry point for transaction mutations. It keeps
// the owner's denormalized balance equal to the sum of deltas over the
// owner's transactions, adjusting it by the mutation's delta instead of
// recomputing the whole ledger.
type Reconciler struct {
	repo domain.TransactionRepository
}

func NewReconciler(repo domain.TransactionRepository) *Reconciler {
	return &Reconciler{repo: repo}
}

func roundToTwoDecimalPlaces(value float64) float64 {
	return math.Round(value*100) / 100
}

// balanceWrite persists one prepared mutation against the given snapshot.
type balanceWrite func(newBalance float64, snapshot domain.BalanceSnapshot) error

// Create validates and persists a new transaction, moving the owner's
// balance by the transaction's delta. Returns the committed balance. The
// caller's transaction is only modified once the commit succeeds.
func (s *Reconciler) Create(userID string, transaction *domain.Transaction) (float64, error) {
	candidate := *transaction
	candidate.RoundToTwoDecimalPlaces()
	if err := candidate.Validate(); err != nil {
		return 0, err
	}

	candidate.ID = uuid.NewString()
	candidate.UserID = userID
	if candidate.Date.IsZero() {
		candidate.Date = time.Now().UTC()
	}

	newBalance, err := s.commit(userID, func() (float64, balanceWrite, error) {
		return candidate.Delta(), func(newBalance float64, snapshot domain.BalanceSnapshot) error {
			return s.repo.CreateWithBalance(candidate, snapshot, newBalance)
		}, nil
	})
	if err != nil {
		return 0, err
	}
	*transaction = candidate
	return newBalance, nil
}

// Update applies a patch to an existing transaction owned by userID. The
// balance moves by delta(new) - delta(old), which is zero when only
// descriptive fields change and correct when amount and type change in the
// same patch. The old delta is re-read on every commit attempt, so a
// concurrent mutation of the same transaction can never leave a stale
// adjustment applied against a fresh balance.
func (s *Reconciler) Update(userID, transactionID string, patch *domain.TransactionPatch) (*domain.Transaction, float64, error) {
	var patched domain.Transaction
	newBalance, err := s.commit(userID, func() (float64, balanceWrite, error) {
		existing, err := s.repo.FindByID(userID, transactionID)
		if err != nil {
			return 0, nil, err
		}
		prior := *existing

		patched = patch.Apply(prior)
		patched.RoundToTwoDecimalPlaces()
		if err := patched.Validate(); err != nil {
			return 0, nil, err
		}

		adjustment := patched.Delta() - prior.Delta()
		return adjustment, func(newBalance float64, snapshot domain.BalanceSnapshot) error {
			return s.repo.UpdateWithBalance(patched, prior, snapshot, newBalance)
		}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &patched, newBalance, nil
}

// Delete removes a transaction owned by userID and reverses its
// contribution to the balance, re-reading that contribution on every
// commit attempt.
func (s *Reconciler) Delete(userID, transactionID string) (*domain.Transaction, float64, error) {
	var deleted domain.Transaction
	newBalance, err := s.commit(userID, func() (float64, balanceWrite, error) {
		existing, err := s.repo.FindByID(userID, transactionID)
		if err != nil {
			return 0, nil, err
		}
		deleted = *existing

		return -deleted.Delta(), func(newBalance float64, snapshot domain.BalanceSnapshot) error {
			return s.repo.DeleteWithBalance(deleted, snapshot, newBalance)
		}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &deleted, newBalance, nil
}

// ListTransactions returns the user's transactions, newest first,
// optionally filtered by type. Reads do not take part in the balance
// versioning.
func (s *Reconciler) ListTransactions(userID, transactionType string) ([]domain.Transaction, error) {
	if transactionType != "" && !domain.IsValidTransactionType(transactionType) {
		return nil, ledgerErrors.ErrInvalidTransactionType
	}
	transactions, err := s.repo.FindByUser(userID, transactionType)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		return []domain.Transaction{}, nil
	}
	return transactions, nil
}

// commit runs the read-compute-write cycle for one balance adjustment.
// prepare runs once per attempt, so both the balance snapshot and the
// mutation's delta come from the same window; a conflict from either the
// balance version or the prior transaction state rereads both and tries
// again, up to maxCommitAttempts. A conflict is never surfaced with a
// partial write.
func (s *Reconciler) commit(userID string, prepare func() (float64, balanceWrite, error)) (float64, error) {
	var err error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		var delta float64
		var write balanceWrite
		delta, write, err = prepare()
		if err != nil {
			return 0, err
		}

		var snapshot domain.BalanceSnapshot
		snapshot, err = s.repo.GetBalance(userID)
		if err != nil {
			return 0, err
		}

		newBalance := roundToTwoDecimalPlaces(snapshot.Balance + delta)
		err = write(newBalance, snapshot)
		if err == nil {
			return newBalance, nil
		}
		if !errors.Is(err, ledgerErrors.ErrBalanceConflict) {
			return 0, err
		}
	}
	return 0, err
}

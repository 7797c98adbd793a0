package application

import (
	"fmt"
	"math"

	"github.com/fintrackapp/fintrack/internal/ledger/domain"
)

// BalanceAuditor recomputes each user's ledger sum and compares it with
// the stored balance. It only detects drift; repairing goes through the
// normal mutation path.
type BalanceAuditor struct {
	repo domain.TransactionRepository
}

func NewBalanceAuditor(repo domain.TransactionRepository) *BalanceAuditor {
	return &BalanceAuditor{repo: repo}
}

type BalanceDrift struct {
	UserID        string
	StoredBalance float64
	LedgerSum     float64
}

func (d BalanceDrift) String() string {
	return fmt.Sprintf("user %s: stored balance %.2f, ledger sum %.2f", d.UserID, d.StoredBalance, d.LedgerSum)
}

// Audit returns one entry per user whose stored balance disagrees with the
// sum of transaction deltas by more than a cent.
func (a *BalanceAuditor) Audit() ([]BalanceDrift, error) {
	userIDs, err := a.repo.ListUserIDs()
	if err != nil {
		return nil, err
	}

	var drifted []BalanceDrift
	for _, userID := range userIDs {
		snapshot, err := a.repo.GetBalance(userID)
		if err != nil {
			return nil, err
		}
		ledgerSum, err := a.repo.SumDeltas(userID)
		if err != nil {
			return nil, err
		}
		if math.Abs(snapshot.Balance-ledgerSum) >= 0.01 {
			drifted = append(drifted, BalanceDrift{
				UserID:        userID,
				StoredBalance: snapshot.Balance,
				LedgerSum:     ledgerSum,
			})
		}
	}
	return drifted, nil
}

package infrastructure

import (
	"sort"
	"sync"

	"github.com/fintrackapp/fintrack/internal/ledger/domain"
	ledgerErrors "github.com/fintrackapp/fintrack/internal/ledger/errors"
)

// MockTransactionRepository is an in-memory TransactionRepository for
// tests. It enforces the same version and prior-state guards as the
// Postgres repository, so conflict-retry behaviour can be exercised
// without a database.
type MockTransactionRepository struct {
	mu           sync.Mutex
	transactions map[string]domain.Transaction
	balances     map[string]domain.BalanceSnapshot

	// BeforeBalanceRead, when set, runs before each GetBalance with the
	// repository lock released. Tests use it to interleave a competing
	// mutation at a precise point in a commit cycle.
	BeforeBalanceRead func()
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]domain.Transaction),
		balances:     make(map[string]domain.BalanceSnapshot),
	}
}

// SeedUser registers a user with a starting balance.
func (m *MockTransactionRepository) SeedUser(userID string, balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = domain.BalanceSnapshot{Balance: balance}
}

func (m *MockTransactionRepository) FindByID(userID, transactionID string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transaction, ok := m.transactions[transactionID]
	if !ok || transaction.UserID != userID {
		return nil, ledgerErrors.ErrTransactionNotFound
	}
	found := transaction
	return &found, nil
}

func (m *MockTransactionRepository) FindByUser(userID, transactionType string) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var transactions []domain.Transaction
	for _, transaction := range m.transactions {
		if transaction.UserID != userID {
			continue
		}
		if transactionType != "" && transaction.Type != transactionType {
			continue
		}
		transactions = append(transactions, transaction)
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
	return transactions, nil
}

func (m *MockTransactionRepository) GetBalance(userID string) (domain.BalanceSnapshot, error) {
	if m.BeforeBalanceRead != nil {
		m.BeforeBalanceRead()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.balances[userID]
	if !ok {
		return domain.BalanceSnapshot{}, ledgerErrors.ErrUserNotFound
	}
	return snapshot, nil
}

func (m *MockTransactionRepository) CreateWithBalance(transaction domain.Transaction, snapshot domain.BalanceSnapshot, newBalance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.commitBalance(transaction.UserID, snapshot, newBalance); err != nil {
		return err
	}
	m.transactions[transaction.ID] = transaction
	return nil
}

func (m *MockTransactionRepository) UpdateWithBalance(updated domain.Transaction, prior domain.Transaction, snapshot domain.BalanceSnapshot, newBalance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.matchPriorState(prior); err != nil {
		return err
	}
	if err := m.commitBalance(updated.UserID, snapshot, newBalance); err != nil {
		return err
	}
	m.transactions[updated.ID] = updated
	return nil
}

func (m *MockTransactionRepository) DeleteWithBalance(prior domain.Transaction, snapshot domain.BalanceSnapshot, newBalance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.matchPriorState(prior); err != nil {
		return err
	}
	if err := m.commitBalance(prior.UserID, snapshot, newBalance); err != nil {
		return err
	}
	delete(m.transactions, prior.ID)
	return nil
}

// matchPriorState mirrors the Postgres WHERE predicate on amount and type:
// a row that was changed or removed since the caller read it is a
// conflict, resolved by the caller's re-read. Callers must hold the lock.
func (m *MockTransactionRepository) matchPriorState(prior domain.Transaction) error {
	existing, ok := m.transactions[prior.ID]
	if !ok || existing.UserID != prior.UserID || existing.Amount != prior.Amount || existing.Type != prior.Type {
		return ledgerErrors.ErrBalanceConflict
	}
	return nil
}

// commitBalance mirrors the Postgres version guard. Callers must hold the
// lock.
func (m *MockTransactionRepository) commitBalance(userID string, snapshot domain.BalanceSnapshot, newBalance float64) error {
	current, ok := m.balances[userID]
	if !ok {
		return ledgerErrors.ErrUserNotFound
	}
	if current.Version != snapshot.Version {
		return ledgerErrors.ErrBalanceConflict
	}
	m.balances[userID] = domain.BalanceSnapshot{Balance: newBalance, Version: current.Version + 1}
	return nil
}

func (m *MockTransactionRepository) SumDeltas(userID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sum float64
	for _, transaction := range m.transactions {
		if transaction.UserID == userID {
			sum += transaction.Delta()
		}
	}
	return sum, nil
}

func (m *MockTransactionRepository) ListUserIDs() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var userIDs []string
	for userID := range m.balances {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)
	return userIDs, nil
}

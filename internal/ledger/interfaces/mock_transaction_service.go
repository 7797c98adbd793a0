package interfaces

import (
	"github.com/fintrackapp/fintrack/internal/ledger/domain"
)

type MockTransactionService struct {
	Balance      float64
	Transactions []domain.Transaction
	Err          error

	LastUserID        string
	LastTransactionID string
	LastPatch         *domain.TransactionPatch
}

func (m *MockTransactionService) Create(userID string, transaction *domain.Transaction) (float64, error) {
	m.LastUserID = userID
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Balance, nil
}

func (m *MockTransactionService) Update(userID, transactionID string, patch *domain.TransactionPatch) (*domain.Transaction, float64, error) {
	m.LastUserID = userID
	m.LastTransactionID = transactionID
	m.LastPatch = patch
	if m.Err != nil {
		return nil, 0, m.Err
	}
	if len(m.Transactions) == 0 {
		return &domain.Transaction{}, m.Balance, nil
	}
	return &m.Transactions[0], m.Balance, nil
}

func (m *MockTransactionService) Delete(userID, transactionID string) (*domain.Transaction, float64, error) {
	m.LastUserID = userID
	m.LastTransactionID = transactionID
	if m.Err != nil {
		return nil, 0, m.Err
	}
	if len(m.Transactions) == 0 {
		return &domain.Transaction{}, m.Balance, nil
	}
	return &m.Transactions[0], m.Balance, nil
}

func (m *MockTransactionService) ListTransactions(userID, transactionType string) ([]domain.Transaction, error) {
	m.LastUserID = userID
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Transactions, nil
}

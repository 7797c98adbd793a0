package infrastructure

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/fintrackapp/fintrack/internal/ledger/domain"
	ledgerErrors "github.com/fintrackapp/fintrack/internal/ledger/errors"
)

// TransactionRepository stores transactions in Postgres. Mutations write
// the transaction row and the owner's balance inside one SQL transaction.
// The balance update is guarded by the balance_version column, and update
// and delete additionally assert the prior amount and type the caller's
// delta was computed from; a stale snapshot or a concurrently changed row
// rolls the whole unit back with ErrBalanceConflict.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) FindByID(userID, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, category, description, date
		FROM transactions
		WHERE id = $1 AND user_id = $2
	`
	var transaction domain.Transaction
	err := r.db.QueryRow(query, transactionID, userID).Scan(
		&transaction.ID, &transaction.UserID, &transaction.Type, &transaction.Amount,
		&transaction.Category, &transaction.Description, &transaction.Date,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledgerErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("could not find transaction: %v", err)
	}
	return &transaction, nil
}

func (r *TransactionRepository) FindByUser(userID, transactionType string) ([]domain.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount, category, description, date
		FROM transactions
		WHERE user_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY date DESC
	`
	rows, err := r.db.Query(query, userID, transactionType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var transaction domain.Transaction
		if err := rows.Scan(&transaction.ID, &transaction.UserID, &transaction.Type, &transaction.Amount,
			&transaction.Category, &transaction.Description, &transaction.Date); err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}
	return transactions, rows.Err()
}

func (r *TransactionRepository) GetBalance(userID string) (domain.BalanceSnapshot, error) {
	var snapshot domain.BalanceSnapshot
	err := r.db.QueryRow(`SELECT balance, balance_version FROM users WHERE id = $1`, userID).
		Scan(&snapshot.Balance, &snapshot.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BalanceSnapshot{}, ledgerErrors.ErrUserNotFound
		}
		return domain.BalanceSnapshot{}, fmt.Errorf("could not read balance: %v", err)
	}
	return snapshot, nil
}

func (r *TransactionRepository) CreateWithBalance(transaction domain.Transaction, snapshot domain.BalanceSnapshot, newBalance float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO transactions (id, user_id, type, amount, category, description, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		transaction.ID, transaction.UserID, transaction.Type, transaction.Amount,
		transaction.Category, transaction.Description, transaction.Date,
	)
	if err != nil {
		safeRollback(tx)
		return err
	}

	if err := r.commitBalance(tx, transaction.UserID, snapshot, newBalance); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateWithBalance matches the row against the prior amount and type in
// the WHERE clause. Zero rows affected means the row was changed or
// removed after the caller read it; the caller re-reads and retries.
func (r *TransactionRepository) UpdateWithBalance(updated domain.Transaction, prior domain.Transaction, snapshot domain.BalanceSnapshot, newBalance float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	result, err := tx.Exec(
		`UPDATE transactions
		 SET type = $1, amount = $2, category = $3, description = $4, date = $5
		 WHERE id = $6 AND user_id = $7 AND amount = $8 AND type = $9`,
		updated.Type, updated.Amount, updated.Category, updated.Description,
		updated.Date, updated.ID, updated.UserID, prior.Amount, prior.Type,
	)
	if err != nil {
		safeRollback(tx)
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		safeRollback(tx)
		return ledgerErrors.ErrBalanceConflict
	}

	if err := r.commitBalance(tx, updated.UserID, snapshot, newBalance); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *TransactionRepository) DeleteWithBalance(prior domain.Transaction, snapshot domain.BalanceSnapshot, newBalance float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	result, err := tx.Exec(
		`DELETE FROM transactions
		 WHERE id = $1 AND user_id = $2 AND amount = $3 AND type = $4`,
		prior.ID, prior.UserID, prior.Amount, prior.Type,
	)
	if err != nil {
		safeRollback(tx)
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		safeRollback(tx)
		return ledgerErrors.ErrBalanceConflict
	}

	if err := r.commitBalance(tx, prior.UserID, snapshot, newBalance); err != nil {
		return err
	}
	return tx.Commit()
}

// commitBalance applies the balance write inside tx, guarded by the
// snapshot version. Zero rows affected means another mutation committed
// first; the caller's whole unit is rolled back.
func (r *TransactionRepository) commitBalance(tx *sql.Tx, userID string, snapshot domain.BalanceSnapshot, newBalance float64) error {
	result, err := tx.Exec(
		`UPDATE users
		 SET balance = $1, balance_version = balance_version + 1, updated_at = NOW()
		 WHERE id = $2 AND balance_version = $3`,
		newBalance, userID, snapshot.Version,
	)
	if err != nil {
		safeRollback(tx)
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		safeRollback(tx)
		return ledgerErrors.ErrBalanceConflict
	}
	return nil
}

func (r *TransactionRepository) SumDeltas(userID string) (float64, error) {
	var sum float64
	err := r.db.QueryRow(
		`SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0)
		 FROM transactions
		 WHERE user_id = $1`,
		userID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("could not sum transactions: %v", err)
	}
	return sum, nil
}

func (r *TransactionRepository) ListUserIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT id FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, rows.Err()
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		log.Printf("Error during transaction rollback: %v", err)
	}
}

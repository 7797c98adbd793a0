package budget

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Repository interface {
	createBudget(budget *Budget) error
	getBudgetsByUser(userID string) ([]Budget, error)
	getBudgetByID(userID, budgetID string) (*Budget, error)
	getMonthlySpendingByCategory(userID string, monthStart time.Time) (map[string]float64, error)
	updateBudgetLimit(userID, budgetID string, limit float64) error
	deleteBudget(userID, budgetID string) error
}

type budgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) Repository {
	return &budgetRepository{
		db: db,
	}
}

func (r *budgetRepository) createBudget(budget *Budget) error {
	query := `
		INSERT INTO budgets (id, user_id, category, spending_limit, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(query, budget.ID, budget.UserID, budget.Category, budget.Limit, budget.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrCategoryAlreadyExists
		}
		return fmt.Errorf("could not create budget: %v", err)
	}
	return nil
}

func (r *budgetRepository) getBudgetsByUser(userID string) ([]Budget, error) {
	query := `
		SELECT id, user_id, category, spending_limit, created_at
		FROM budgets
		WHERE user_id = $1
		ORDER BY category
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list budgets: %v", err)
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan budget: %v", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *budgetRepository) getBudgetByID(userID, budgetID string) (*Budget, error) {
	query := `
		SELECT id, user_id, category, spending_limit, created_at
		FROM budgets
		WHERE id = $1 AND user_id = $2
	`
	var b Budget
	err := r.db.QueryRow(query, budgetID, userID).Scan(&b.ID, &b.UserID, &b.Category, &b.Limit, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBudgetNotFound
		}
		return nil, fmt.Errorf("could not find budget: %v", err)
	}
	return &b, nil
}

func (r *budgetRepository) getMonthlySpendingByCategory(userID string, monthStart time.Time) (map[string]float64, error) {
	query := `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = 'expense' AND date >= $2
		GROUP BY category
	`
	rows, err := r.db.Query(query, userID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("could not sum spending: %v", err)
	}
	defer rows.Close()

	spending := make(map[string]float64)
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("could not scan spending: %v", err)
		}
		spending[category] = total
	}
	return spending, rows.Err()
}

func (r *budgetRepository) updateBudgetLimit(userID, budgetID string, limit float64) error {
	query := `
		UPDATE budgets
		SET spending_limit = $1
		WHERE id = $2 AND user_id = $3
	`
	result, err := r.db.Exec(query, limit, budgetID, userID)
	if err != nil {
		return fmt.Errorf("could not update budget: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not update budget: %v", err)
	}
	if affected == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

func (r *budgetRepository) deleteBudget(userID, budgetID string) error {
	query := `
		DELETE FROM budgets
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.Exec(query, budgetID, userID)
	if err != nil {
		return fmt.Errorf("could not delete budget: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not delete budget: %v", err)
	}
	if affected == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

package savings

import (
	"database/sql"
	"errors"
	"fmt"
)

type Repository interface {
	createGoal(goal *Goal) error
	getGoalsByUser(userID string) ([]Goal, error)
	getGoalByID(userID, goalID string) (*Goal, error)
	updateCurrentAmount(userID, goalID string, currentAmount float64) error
	deleteGoal(userID, goalID string) error
}

type savingsRepository struct {
	db *sql.DB
}

func NewSavingsRepository(db *sql.DB) Repository {
	return &savingsRepository{
		db: db,
	}
}

func (r *savingsRepository) createGoal(goal *Goal) error {
	query := `
		INSERT INTO savings_goals (id, user_id, name, target_amount, current_amount, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(query, goal.ID, goal.UserID, goal.Name, goal.TargetAmount, goal.CurrentAmount, goal.DueDate, goal.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not create savings goal: %v", err)
	}
	return nil
}

func (r *savingsRepository) getGoalsByUser(userID string) ([]Goal, error) {
	query := `
		SELECT id, user_id, name, target_amount, current_amount, due_date, created_at
		FROM savings_goals
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("could not list savings goals: %v", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.DueDate, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan savings goal: %v", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *savingsRepository) getGoalByID(userID, goalID string) (*Goal, error) {
	query := `
		SELECT id, user_id, name, target_amount, current_amount, due_date, created_at
		FROM savings_goals
		WHERE id = $1 AND user_id = $2
	`
	var g Goal
	err := r.db.QueryRow(query, goalID, userID).Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.DueDate, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		return nil, fmt.Errorf("could not find savings goal: %v", err)
	}
	return &g, nil
}

func (r *savingsRepository) updateCurrentAmount(userID, goalID string, currentAmount float64) error {
	query := `
		UPDATE savings_goals
		SET current_amount = $1
		WHERE id = $2 AND user_id = $3
	`
	result, err := r.db.Exec(query, currentAmount, goalID, userID)
	if err != nil {
		return fmt.Errorf("could not update savings goal: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not update savings goal: %v", err)
	}
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *savingsRepository) deleteGoal(userID, goalID string) error {
	query := `
		DELETE FROM savings_goals
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.Exec(query, goalID, userID)
	if err != nil {
		return fmt.Errorf("could not delete savings goal: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not delete savings goal: %v", err)
	}
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

package budget

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBudgetNotFound        = errors.New("budget not found")
	ErrCategoryAlreadyExists = errors.New("budget for this category already exists")
	ErrInvalidCategory       = errors.New("category is required")
	ErrInvalidLimit          = errors.New("limit must be greater than zero")
	ErrInternalError         = errors.New("internal server error")
)

type Budget struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Category  string    `json:"category"`
	Limit     float64   `json:"limit"`
	CreatedAt time.Time `json:"created_at"`
}

// BudgetStatus is a Budget decorated with the sum of the current
// month's expenses in its category.
type BudgetStatus struct {
	Budget
	CurrentSpending float64 `json:"current_spending"`
}

type Service interface {
	CreateBudget(userID, category string, limit float64) (*Budget, error)
	ListBudgets(userID string) ([]BudgetStatus, error)
	UpdateBudgetLimit(userID, budgetID string, limit float64) (*Budget, error)
	DeleteBudget(userID, budgetID string) error
}

type service struct {
	repo Repository
}

func NewBudgetService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateBudget(userID, category string, limit float64) (*Budget, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, ErrInvalidCategory
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	newBudget := &Budget{
		ID:        uuid.New().String(),
		UserID:    userID,
		Category:  category,
		Limit:     limit,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.createBudget(newBudget); err != nil {
		return nil, err
	}
	return newBudget, nil
}

// ListBudgets returns the user's budgets, each with the current
// month's expense total for its category.
func (s *service) ListBudgets(userID string) ([]BudgetStatus, error) {
	budgets, err := s.repo.getBudgetsByUser(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	spending, err := s.repo.getMonthlySpendingByCategory(userID, monthStart)
	if err != nil {
		return nil, err
	}

	statuses := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		statuses = append(statuses, BudgetStatus{
			Budget:          b,
			CurrentSpending: spending[b.Category],
		})
	}
	return statuses, nil
}

func (s *service) UpdateBudgetLimit(userID, budgetID string, limit float64) (*Budget, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	existing, err := s.repo.getBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	existing.Limit = limit
	if err := s.repo.updateBudgetLimit(userID, budgetID, limit); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *service) DeleteBudget(userID, budgetID string) error {
	return s.repo.deleteBudget(userID, budgetID)
}

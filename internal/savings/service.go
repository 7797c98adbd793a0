package savings

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGoalNotFound         = errors.New("savings goal not found")
	ErrInvalidName          = errors.New("goal name is required")
	ErrInvalidTargetAmount  = errors.New("target amount must be greater than zero")
	ErrInvalidCurrentAmount = errors.New("current amount cannot be negative")
	ErrInvalidContribution  = errors.New("contribution amount must be greater than zero")
	ErrInternalError        = errors.New("internal server error")
)

const maxGoalNameLength = 100

type Goal struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Name          string     `json:"name"`
	TargetAmount  float64    `json:"target_amount"`
	CurrentAmount float64    `json:"current_amount"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Progress reports how far along the goal is, capped at 100.
func (g *Goal) Progress() float64 {
	if g.TargetAmount <= 0 {
		return 0
	}
	progress := g.CurrentAmount / g.TargetAmount * 100
	if progress > 100 {
		return 100
	}
	return progress
}

type Service interface {
	CreateGoal(userID, name string, targetAmount, currentAmount float64, dueDate *time.Time) (*Goal, error)
	ListGoals(userID string) ([]Goal, error)
	Contribute(userID, goalID string, amount float64) (*Goal, error)
	DeleteGoal(userID, goalID string) error
}

type service struct {
	repo Repository
}

func NewSavingsService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateGoal(userID, name string, targetAmount, currentAmount float64, dueDate *time.Time) (*Goal, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxGoalNameLength {
		return nil, ErrInvalidName
	}
	if targetAmount <= 0 {
		return nil, ErrInvalidTargetAmount
	}
	if currentAmount < 0 {
		return nil, ErrInvalidCurrentAmount
	}

	newGoal := &Goal{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          name,
		TargetAmount:  targetAmount,
		CurrentAmount: currentAmount,
		DueDate:       dueDate,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.createGoal(newGoal); err != nil {
		return nil, err
	}
	return newGoal, nil
}

func (s *service) ListGoals(userID string) ([]Goal, error) {
	return s.repo.getGoalsByUser(userID)
}

// Contribute adds to the goal's current amount.
func (s *service) Contribute(userID, goalID string, amount float64) (*Goal, error) {
	if amount <= 0 {
		return nil, ErrInvalidContribution
	}

	goal, err := s.repo.getGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	goal.CurrentAmount += amount
	if err := s.repo.updateCurrentAmount(userID, goalID, goal.CurrentAmount); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *service) DeleteGoal(userID, goalID string) error {
	return s.repo.deleteGoal(userID, goalID)
}

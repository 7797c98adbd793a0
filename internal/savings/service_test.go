package savings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockSavingsRepository struct {
	goals map[string]*Goal
}

func newMockSavingsRepository() *mockSavingsRepository {
	return &mockSavingsRepository{goals: make(map[string]*Goal)}
}

func (m *mockSavingsRepository) createGoal(goal *Goal) error {
	stored := *goal
	m.goals[goal.ID] = &stored
	return nil
}

func (m *mockSavingsRepository) getGoalsByUser(userID string) ([]Goal, error) {
	var goals []Goal
	for _, g := range m.goals {
		if g.UserID == userID {
			goals = append(goals, *g)
		}
	}
	return goals, nil
}

func (m *mockSavingsRepository) getGoalByID(userID, goalID string) (*Goal, error) {
	g, exists := m.goals[goalID]
	if !exists || g.UserID != userID {
		return nil, ErrGoalNotFound
	}
	copied := *g
	return &copied, nil
}

func (m *mockSavingsRepository) updateCurrentAmount(userID, goalID string, currentAmount float64) error {
	g, exists := m.goals[goalID]
	if !exists || g.UserID != userID {
		return ErrGoalNotFound
	}
	g.CurrentAmount = currentAmount
	return nil
}

func (m *mockSavingsRepository) deleteGoal(userID, goalID string) error {
	g, exists := m.goals[goalID]
	if !exists || g.UserID != userID {
		return ErrGoalNotFound
	}
	delete(m.goals, goalID)
	return nil
}

func TestCreateGoal_Validation(t *testing.T) {
	service := NewSavingsService(newMockSavingsRepository())

	_, err := service.CreateGoal("user-1", "", 1000, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = service.CreateGoal("user-1", "Vacation", 0, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidTargetAmount)

	_, err = service.CreateGoal("user-1", "Vacation", 1000, -5, nil)
	assert.ErrorIs(t, err, ErrInvalidCurrentAmount)

	dueDate := time.Now().AddDate(0, 6, 0)
	goal, err := service.CreateGoal("user-1", "Vacation", 1000, 250, &dueDate)
	assert.NoError(t, err)
	assert.Equal(t, 25.0, goal.Progress())
}

func TestContribute(t *testing.T) {
	repo := newMockSavingsRepository()
	service := NewSavingsService(repo)

	goal, err := service.CreateGoal("user-1", "Vacation", 1000, 100, nil)
	assert.NoError(t, err)

	updated, err := service.Contribute("user-1", goal.ID, 400)
	assert.NoError(t, err)
	assert.Equal(t, 500.0, updated.CurrentAmount)
	assert.Equal(t, 50.0, updated.Progress())

	_, err = service.Contribute("user-1", goal.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidContribution)

	_, err = service.Contribute("someone-else", goal.ID, 50)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestGoalProgress_CappedAtHundred(t *testing.T) {
	goal := Goal{TargetAmount: 100, CurrentAmount: 250}
	assert.Equal(t, 100.0, goal.Progress())
}

func TestDeleteGoal(t *testing.T) {
	repo := newMockSavingsRepository()
	service := NewSavingsService(repo)

	goal, err := service.CreateGoal("user-1", "Vacation", 1000, 0, nil)
	assert.NoError(t, err)

	assert.NoError(t, service.DeleteGoal("user-1", goal.ID))
	assert.ErrorIs(t, service.DeleteGoal("user-1", goal.ID), ErrGoalNotFound)
}

package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockBudgetRepository struct {
	budgets  map[string]*Budget
	spending map[string]float64
	err      error
}

func newMockBudgetRepository() *mockBudgetRepository {
	return &mockBudgetRepository{
		budgets:  make(map[string]*Budget),
		spending: make(map[string]float64),
	}
}

func (m *mockBudgetRepository) createBudget(budget *Budget) error {
	if m.err != nil {
		return m.err
	}
	for _, b := range m.budgets {
		if b.UserID == budget.UserID && b.Category == budget.Category {
			return ErrCategoryAlreadyExists
		}
	}
	stored := *budget
	m.budgets[budget.ID] = &stored
	return nil
}

func (m *mockBudgetRepository) getBudgetsByUser(userID string) ([]Budget, error) {
	if m.err != nil {
		return nil, m.err
	}
	var budgets []Budget
	for _, b := range m.budgets {
		if b.UserID == userID {
			budgets = append(budgets, *b)
		}
	}
	return budgets, nil
}

func (m *mockBudgetRepository) getBudgetByID(userID, budgetID string) (*Budget, error) {
	b, exists := m.budgets[budgetID]
	if !exists || b.UserID != userID {
		return nil, ErrBudgetNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBudgetRepository) getMonthlySpendingByCategory(userID string, monthStart time.Time) (map[string]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.spending, nil
}

func (m *mockBudgetRepository) updateBudgetLimit(userID, budgetID string, limit float64) error {
	b, exists := m.budgets[budgetID]
	if !exists || b.UserID != userID {
		return ErrBudgetNotFound
	}
	b.Limit = limit
	return nil
}

func (m *mockBudgetRepository) deleteBudget(userID, budgetID string) error {
	b, exists := m.budgets[budgetID]
	if !exists || b.UserID != userID {
		return ErrBudgetNotFound
	}
	delete(m.budgets, budgetID)
	return nil
}

func TestCreateBudget_Success(t *testing.T) {
	repo := newMockBudgetRepository()
	service := NewBudgetService(repo)

	created, err := service.CreateBudget("user-1", "groceries", 500)
	assert.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "groceries", created.Category)
	assert.Equal(t, 500.0, created.Limit)
}

func TestCreateBudget_ValidationErrors(t *testing.T) {
	repo := newMockBudgetRepository()
	service := NewBudgetService(repo)

	_, err := service.CreateBudget("user-1", "  ", 500)
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = service.CreateBudget("user-1", "groceries", 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = service.CreateBudget("user-1", "groceries", -10)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestCreateBudget_DuplicateCategory(t *testing.T) {
	repo := newMockBudgetRepository()
	service := NewBudgetService(repo)

	_, err := service.CreateBudget("user-1", "groceries", 500)
	assert.NoError(t, err)

	_, err = service.CreateBudget("user-1", "groceries", 300)
	assert.ErrorIs(t, err, ErrCategoryAlreadyExists)
}

func TestListBudgets_DecoratesCurrentSpending(t *testing.T) {
	repo := newMockBudgetRepository()
	service := NewBudgetService(repo)

	_, err := service.CreateBudget("user-1", "groceries", 500)
	assert.NoError(t, err)
	_, err = service.CreateBudget("user-1", "transport", 100)
	assert.NoError(t, err)

	repo.spending["groceries"] = 123.45

	statuses, err := service.ListBudgets("user-1")
	assert.NoError(t, err)
	assert.Len(t, statuses, 2)

	byCategory := make(map[string]BudgetStatus)
	for _, s := range statuses {
		byCategory[s.Category] = s
	}
	assert.Equal(t, 123.45, byCategory["groceries"].CurrentSpending)
	assert.Equal(t, 0.0, byCategory["transport"].CurrentSpending)
}

func TestUpdateBudgetLimit(t *testing.T) {
	repo := newMockBudgetRepository()
	service := NewBudgetService(repo)

	created, err := service.CreateBudget("user-1", "groceries", 500)
	assert.NoError(t, err)

	updated, err := service.UpdateBudgetLimit("user-1", created.ID, 750)
	assert.NoError(t, err)
	assert.Equal(t, 750.0, updated.Limit)

	_, err = service.UpdateBudgetLimit("user-1", created.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = service.UpdateBudgetLimit("someone-else", created.ID, 100)
	assert.ErrorIs(t, err, ErrBudgetNotFound)
}

func TestDeleteBudget(t *testing.T) {
	repo := newMockBudgetRepository()
	service := NewBudgetService(repo)

	created, err := service.CreateBudget("user-1", "groceries", 500)
	assert.NoError(t, err)

	err = service.DeleteBudget("user-1", created.ID)
	assert.NoError(t, err)

	err = service.DeleteBudget("user-1", created.ID)
	assert.ErrorIs(t, err, ErrBudgetNotFound)
}

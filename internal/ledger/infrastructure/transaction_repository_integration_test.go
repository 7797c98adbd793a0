package infrastructure

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fintrackapp/fintrack/internal/ledger/domain"
	ledgerErrors "github.com/fintrackapp/fintrack/internal/ledger/errors"
)

const integrationSchema = `
CREATE TABLE users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    balance NUMERIC(14,2) NOT NULL DEFAULT 0,
    balance_version BIGINT NOT NULL DEFAULT 0,
    two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    hash_token TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE transactions (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
    amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
    category TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    date TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fintrack_test"),
		postgres.WithUsername("fintrack"),
		postgres.WithPassword("fintrack"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	_, err = db.Exec(integrationSchema)
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *sql.DB, balance float64) string {
	t.Helper()
	var userID string
	err := db.QueryRow(
		`INSERT INTO users (name, email, password_hash, balance) VALUES ($1, $2, $3, $4) RETURNING id`,
		"Test User", uuid.NewString()+"@example.com", "x", balance,
	).Scan(&userID)
	require.NoError(t, err)
	return userID
}

func TestTransactionRepository_CreateCommitsTransactionAndBalanceTogether(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db := setupPostgres(t)
	repo := NewTransactionRepository(db)
	userID := createUser(t, db, 0)

	snapshot, err := repo.GetBalance(userID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, snapshot.Balance)
	assert.Equal(t, int64(0), snapshot.Version)

	transaction := domain.Transaction{
		ID:       uuid.NewString(),
		UserID:   userID,
		Type:     domain.TypeIncome,
		Amount:   100,
		Category: "Salary",
		Date:     time.Now().UTC(),
	}
	err = repo.CreateWithBalance(transaction, snapshot, 100)
	require.NoError(t, err)

	snapshot, err = repo.GetBalance(userID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, snapshot.Balance)
	assert.Equal(t, int64(1), snapshot.Version)

	found, err := repo.FindByID(userID, transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeIncome, found.Type)
	assert.Equal(t, 100.0, found.Amount)

	sum, err := repo.SumDeltas(userID)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Balance, sum)
}

func TestTransactionRepository_StaleSnapshotLeavesNothingBehind(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db := setupPostgres(t)
	repo := NewTransactionRepository(db)
	userID := createUser(t, db, 0)

	stale, err := repo.GetBalance(userID)
	require.NoError(t, err)

	first := domain.Transaction{
		ID: uuid.NewString(), UserID: userID, Type: domain.TypeIncome,
		Amount: 50, Category: "Salary", Date: time.Now().UTC(),
	}
	require.NoError(t, err)
	err = repo.CreateWithBalance(first, stale, 50)
	require.NoError(t, err)

	// the snapshot read before the first commit is now stale
	second := domain.Transaction{
		ID: uuid.NewString(), UserID: userID, Type: domain.TypeExpense,
		Amount: 20, Category: "Lunch", Date: time.Now().UTC(),
	}
	err = repo.CreateWithBalance(second, stale, -20)
	assert.ErrorIs(t, err, ledgerErrors.ErrBalanceConflict)

	// neither the transaction row nor the balance changed
	_, err = repo.FindByID(userID, second.ID)
	assert.ErrorIs(t, err, ledgerErrors.ErrTransactionNotFound)

	snapshot, err := repo.GetBalance(userID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, snapshot.Balance)
	assert.Equal(t, int64(1), snapshot.Version)
}

func TestTransactionRepository_ScopesLookupsToOwner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db := setupPostgres(t)
	repo := NewTransactionRepository(db)
	owner := createUser(t, db, 0)
	stranger := createUser(t, db, 0)

	snapshot, err := repo.GetBalance(owner)
	require.NoError(t, err)

	transaction := domain.Transaction{
		ID: uuid.NewString(), UserID: owner, Type: domain.TypeIncome,
		Amount: 10, Category: "Salary", Date: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateWithBalance(transaction, snapshot, 10))

	_, err = repo.FindByID(stranger, transaction.ID)
	assert.ErrorIs(t, err, ledgerErrors.ErrTransactionNotFound)

	// a delete scoped to the wrong owner matches no row and removes nothing
	strangerSnapshot, err := repo.GetBalance(stranger)
	require.NoError(t, err)
	foreign := transaction
	foreign.UserID = stranger
	err = repo.DeleteWithBalance(foreign, strangerSnapshot, 0)
	assert.ErrorIs(t, err, ledgerErrors.ErrBalanceConflict)

	_, err = repo.FindByID(owner, transaction.ID)
	assert.NoError(t, err)
}

func TestTransactionRepository_StalePriorStateRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	db := setupPostgres(t)
	repo := NewTransactionRepository(db)
	userID := createUser(t, db, 0)

	snapshot, err := repo.GetBalance(userID)
	require.NoError(t, err)

	transaction := domain.Transaction{
		ID: uuid.NewString(), UserID: userID, Type: domain.TypeExpense,
		Amount: 40, Category: "Groceries", Date: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateWithBalance(transaction, snapshot, -40))

	prior := transaction
	snapshot, err = repo.GetBalance(userID)
	require.NoError(t, err)

	// another mutation changes the row after prior was read
	changed := transaction
	changed.Amount = 60
	require.NoError(t, repo.UpdateWithBalance(changed, prior, snapshot, -60))

	// prior no longer matches the row: both writes must roll back
	stale := transaction
	stale.Amount = 100
	freshSnapshot, err := repo.GetBalance(userID)
	require.NoError(t, err)
	err = repo.UpdateWithBalance(stale, prior, freshSnapshot, -100)
	assert.ErrorIs(t, err, ledgerErrors.ErrBalanceConflict)

	found, err := repo.FindByID(userID, transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, found.Amount)

	current, err := repo.GetBalance(userID)
	require.NoError(t, err)
	assert.Equal(t, -60.0, current.Balance)
	assert.Equal(t, freshSnapshot.Version, current.Version)
}

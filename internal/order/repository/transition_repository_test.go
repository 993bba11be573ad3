package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padaria/internal/commons"
	"padaria/internal/domain"
	"padaria/internal/testutil"
)

// Unit Tests

func TestNewMySQLTransitionRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLTransitionRepository(db, commons.RetryPolicy{MaxAttempts: 3})

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
	assert.Equal(t, 3, repo.retry.MaxAttempts)
}

func TestIsDeadlockError(t *testing.T) {
	assert.True(t, isDeadlockError(&mysql.MySQLError{Number: 1213}))
	assert.True(t, isDeadlockError(fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1205})))
	assert.False(t, isDeadlockError(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDeadlockError(fmt.Errorf("other")))
}

// Integration Tests

func TestTransitionRepository_InsertAndFind(t *testing.T) {
	db := testutil.AuditDB(t)

	repo := NewMySQLTransitionRepository(db, commons.RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond})
	ctx := context.Background()
	changedAt := time.Now().UTC().Truncate(time.Millisecond)

	steps := []struct{ from, to domain.OrderStatus }{
		{domain.OrderStatusWaiting, domain.OrderStatusPreparing},
		{domain.OrderStatusPreparing, domain.OrderStatusReady},
	}
	for i, step := range steps {
		id, err := repo.Insert(ctx, domain.StatusTransition{
			OrderRemoteID: "remote-1",
			OrderID:       1700000000000,
			BakeryID:      "b1",
			FromStatus:    step.from,
			ToStatus:      step.to,
			ChangedAt:     changedAt.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		assert.Greater(t, id, uint(0))
	}

	transitions, err := repo.FindByOrder(ctx, "remote-1")
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	assert.Equal(t, domain.OrderStatusWaiting, transitions[0].FromStatus)
	assert.Equal(t, domain.OrderStatusPreparing, transitions[0].ToStatus)
	assert.Equal(t, domain.OrderStatusReady, transitions[1].ToStatus)
	assert.Equal(t, int64(1700000000000), transitions[1].OrderID)
	assert.Equal(t, "b1", transitions[1].BakeryID)
}

func TestTransitionRepository_FindByOrder_Empty(t *testing.T) {
	db := testutil.AuditDB(t)

	repo := NewMySQLTransitionRepository(db, commons.RetryPolicy{MaxAttempts: 1})

	transitions, err := repo.FindByOrder(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, transitions)
}

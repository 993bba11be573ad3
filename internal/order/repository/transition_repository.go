package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"padaria/internal/commons"
	"padaria/internal/domain"

	"github.com/go-sql-driver/mysql"
)

type MySQLTransitionRepository struct {
	db    *sql.DB
	retry commons.RetryPolicy
}

func NewMySQLTransitionRepository(db *sql.DB, retry commons.RetryPolicy) *MySQLTransitionRepository {
	return &MySQLTransitionRepository{db: db, retry: retry}
}

// Insert retries on lock wait timeouts and deadlocks only.
func (r *MySQLTransitionRepository) Insert(ctx context.Context, t domain.StatusTransition) (uint, error) {
	query := `
		INSERT INTO OrderStatusTransitions (orderRemoteId, orderId, bakeryId, fromStatus, toStatus, changedAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var lastInsertID int64
	err := commons.Retry(ctx, r.retry, isDeadlockError, func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, query,
			t.OrderRemoteID, t.OrderID, t.BakeryID, string(t.FromStatus), string(t.ToStatus), t.ChangedAt,
		)
		if err != nil {
			return err
		}

		lastInsertID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("inserting status transition: %w", err)
	}

	return uint(lastInsertID), nil
}

func (r *MySQLTransitionRepository) FindByOrder(ctx context.Context, orderRemoteID string) ([]domain.StatusTransition, error) {
	query := `
		SELECT id, orderRemoteId, orderId, bakeryId, fromStatus, toStatus, changedAt
		FROM OrderStatusTransitions
		WHERE orderRemoteId = ?
		ORDER BY changedAt ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderRemoteID)
	if err != nil {
		return nil, fmt.Errorf("querying status transitions: %w", err)
	}
	defer rows.Close()

	transitions := []domain.StatusTransition{}
	for rows.Next() {
		var t domain.StatusTransition
		var from, to string
		if err := rows.Scan(&t.ID, &t.OrderRemoteID, &t.OrderID, &t.BakeryID, &from, &to, &t.ChangedAt); err != nil {
			return nil, fmt.Errorf("scanning status transition: %w", err)
		}
		t.FromStatus = domain.OrderStatus(from)
		t.ToStatus = domain.OrderStatus(to)
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status transitions: %w", err)
	}

	return transitions, nil
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}

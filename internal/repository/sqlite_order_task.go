package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// SQLiteOrderTaskRepo implements OrderTaskRepo using a SQLite database.
type SQLiteOrderTaskRepo struct {
	db db.DBTX
}

func NewSQLiteOrderTaskRepo(conn db.DBTX) *SQLiteOrderTaskRepo {
	return &SQLiteOrderTaskRepo{db: conn}
}

const orderTaskColumns = `t.id, t.order_id, t.workflow_step_id, t.task_id, t.task_name, t.prerequisites, t.resources, t.status, t.created_at, t.updated_at`

func (r *SQLiteOrderTaskRepo) Create(ctx context.Context, t *domain.OrderTask) error {
	prereqs, err := toJSON("prerequisites", nonNilStrings(t.Prerequisites))
	if err != nil {
		return err
	}
	resources, err := toJSON("resources", t.Resources)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO order_tasks
		(id, order_id, workflow_step_id, task_id, task_name, prerequisites, resources, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrderID, t.WorkflowStepID, t.TaskID, t.TaskName, prereqs, resources, string(t.Status),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting order task: %w", err)
	}
	return nil
}

func (r *SQLiteOrderTaskRepo) GetByID(ctx context.Context, id string) (*domain.OrderTask, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderTaskColumns+` FROM order_tasks t WHERE t.id = ?`, id)
	return scanOrderTask(row)
}

// ListByOrder returns the order's tasks in creation order, which follows
// the workflow's topological order.
func (r *SQLiteOrderTaskRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.OrderTask, error) {
	return r.list(ctx, `SELECT `+orderTaskColumns+` FROM order_tasks t
		WHERE t.order_id = ? ORDER BY t.rowid`, orderID)
}

// ListPending returns pending tasks of all orders, oldest order first.
func (r *SQLiteOrderTaskRepo) ListPending(ctx context.Context) ([]domain.OrderTask, error) {
	return r.list(ctx, `SELECT `+orderTaskColumns+` FROM order_tasks t
		JOIN orders o ON o.id = t.order_id
		WHERE t.status = 'pending'
		ORDER BY o.created_at, o.id, t.rowid`)
}

func (r *SQLiteOrderTaskRepo) MarkScheduled(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE order_tasks SET status = 'scheduled', updated_at = ?
		WHERE id = ? AND status = 'pending'`, formatTime(now), id)
	if err != nil {
		return fmt.Errorf("marking order task scheduled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking order task rows affected: %w", err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("order task %s: %w", id, domain.ErrAlreadyScheduled)
	}
	return nil
}

func (r *SQLiteOrderTaskRepo) list(ctx context.Context, query string, args ...any) ([]domain.OrderTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing order tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.OrderTask
	for rows.Next() {
		t, err := scanOrderTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order tasks: %w", err)
	}
	return tasks, nil
}

func scanOrderTask(row rowScanner) (*domain.OrderTask, error) {
	var t domain.OrderTask
	var prereqs, resources, status, createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.OrderID, &t.WorkflowStepID, &t.TaskID, &t.TaskName,
		&prereqs, &resources, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound("order task", err)
	}
	t.Status = domain.OrderTaskStatus(status)
	if err := fromJSON("prerequisites", prereqs, &t.Prerequisites); err != nil {
		return nil, fmt.Errorf("order task %s: %w", t.ID, err)
	}
	if err := fromJSON("resources", resources, &t.Resources); err != nil {
		return nil, fmt.Errorf("order task %s: %w", t.ID, err)
	}
	if t.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// SQLiteScheduledTaskRepo implements ScheduledTaskRepo using a SQLite database.
type SQLiteScheduledTaskRepo struct {
	db db.DBTX
}

func NewSQLiteScheduledTaskRepo(conn db.DBTX) *SQLiteScheduledTaskRepo {
	return &SQLiteScheduledTaskRepo{db: conn}
}

const scheduledColumns = `s.id, s.order_task_id, s.start_time, s.end_time, s.machine_id, s.operator_id, s.provider_id, s.created_at`

func (r *SQLiteScheduledTaskRepo) Create(ctx context.Context, st *domain.ScheduledTask) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO scheduled_tasks
		(id, order_task_id, start_time, end_time, machine_id, operator_id, provider_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.OrderTaskID, formatTime(st.Start), formatTime(st.End),
		nullableString(st.MachineID), nullableString(st.OperatorID), nullableString(st.ProviderID),
		formatTime(st.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting scheduled task: %w", err)
	}
	return nil
}

func (r *SQLiteScheduledTaskRepo) GetByOrderTask(ctx context.Context, orderTaskID string) (*domain.ScheduledTask, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scheduledColumns+` FROM scheduled_tasks s WHERE s.order_task_id = ?`, orderTaskID)
	return scanScheduledTask(row)
}

func (r *SQLiteScheduledTaskRepo) ListByOrder(ctx context.Context, orderID string) ([]domain.ScheduledTask, error) {
	return r.list(ctx, `SELECT `+scheduledColumns+` FROM scheduled_tasks s
		JOIN order_tasks t ON t.id = s.order_task_id
		WHERE t.order_id = ? ORDER BY s.start_time, s.id`, orderID)
}

func (r *SQLiteScheduledTaskRepo) ListBetween(ctx context.Context, from, to time.Time) ([]domain.ScheduledTask, error) {
	return r.list(ctx, `SELECT `+scheduledColumns+` FROM scheduled_tasks s
		WHERE s.start_time < ? AND s.end_time > ?
		ORDER BY s.start_time, s.id`, formatTime(to), formatTime(from))
}

func (r *SQLiteScheduledTaskRepo) FindConflicts(ctx context.Context, machineID, operatorID string, start, end time.Time) ([]domain.ScheduledTask, error) {
	if machineID == "" && operatorID == "" {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+scheduledColumns+` FROM scheduled_tasks s
		WHERE s.start_time < ? AND s.end_time > ?
		  AND ((? != '' AND s.machine_id = ?) OR (? != '' AND s.operator_id = ?))
		ORDER BY s.start_time, s.id`,
		formatTime(end), formatTime(start), machineID, machineID, operatorID, operatorID)
}

func (r *SQLiteScheduledTaskRepo) list(ctx context.Context, query string, args ...any) ([]domain.ScheduledTask, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.ScheduledTask
	for rows.Next() {
		st, err := scanScheduledTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduled tasks: %w", err)
	}
	return out, nil
}

func scanScheduledTask(row rowScanner) (*domain.ScheduledTask, error) {
	var st domain.ScheduledTask
	var start, end, createdAt string
	var machineID, operatorID, providerID sql.NullString
	err := row.Scan(&st.ID, &st.OrderTaskID, &start, &end, &machineID, &operatorID, &providerID, &createdAt)
	if err != nil {
		return nil, notFound("scheduled task", err)
	}
	st.MachineID = stringPtr(machineID)
	st.OperatorID = stringPtr(operatorID)
	st.ProviderID = stringPtr(providerID)
	if st.Start, err = parseTime("start_time", start); err != nil {
		return nil, err
	}
	if st.End, err = parseTime("end_time", end); err != nil {
		return nil, err
	}
	if st.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &st, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// SQLiteOrderRepo implements OrderRepo using a SQLite database.
type SQLiteOrderRepo struct {
	db db.DBTX
}

func NewSQLiteOrderRepo(conn db.DBTX) *SQLiteOrderRepo {
	return &SQLiteOrderRepo{db: conn}
}

const orderColumns = `id, order_number, product_id, quantity, width, height, due_date, configs, status, created_at, updated_at`

func (r *SQLiteOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	configs, err := toJSON("configs", o.Configs)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.ProductID, o.Quantity, o.Width, o.Height,
		nullableTimeToString(o.DueDate), configs, string(o.Status),
		formatTime(o.CreatedAt), formatTime(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (r *SQLiteOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	return scanOrder(row)
}

// List returns orders newest first, optionally filtered by status.
func (r *SQLiteOrderRepo) List(ctx context.Context, status *domain.OrderStatus) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return orders, nil
}

func (r *SQLiteOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(now), id)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return requireAffected(res, "order")
}

func (r *SQLiteOrderRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	return requireAffected(res, "order")
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var dueDate sql.NullString
	var configs, status, createdAt, updatedAt string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.ProductID, &o.Quantity, &o.Width, &o.Height,
		&dueDate, &configs, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound("order", err)
	}
	o.DueDate = parseNullableTime(dueDate)
	o.Status = domain.OrderStatus(status)
	if err := fromJSON("configs", configs, &o.Configs); err != nil {
		return nil, fmt.Errorf("order %s: %w", o.ID, err)
	}
	if o.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

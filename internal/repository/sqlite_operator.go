package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// SQLiteOperatorRepo implements OperatorRepo using a SQLite database.
type SQLiteOperatorRepo struct {
	db db.DBTX
}

func NewSQLiteOperatorRepo(conn db.DBTX) *SQLiteOperatorRepo {
	return &SQLiteOperatorRepo{db: conn}
}

func (r *SQLiteOperatorRepo) Create(ctx context.Context, o *domain.Operator) error {
	schedule, err := toJSON("schedule", o.Schedule)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO operators (id, name, type, schedule, created_at) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.Type, schedule, formatTime(o.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting operator: %w", err)
	}
	return r.replaceSkills(ctx, o.ID, o.MachineIDs)
}

func (r *SQLiteOperatorRepo) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, type, schedule, created_at FROM operators WHERE id = ?`, id)
	o, err := scanOperator(row)
	if err != nil {
		return nil, err
	}
	if o.MachineIDs, err = r.listSkills(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *SQLiteOperatorRepo) List(ctx context.Context) ([]*domain.Operator, error) {
	return r.list(ctx, `SELECT id, name, type, schedule, created_at FROM operators ORDER BY name, id`)
}

// ListByMachine returns the operators skilled on machineID.
func (r *SQLiteOperatorRepo) ListByMachine(ctx context.Context, machineID string) ([]*domain.Operator, error) {
	return r.list(ctx, `SELECT o.id, o.name, o.type, o.schedule, o.created_at
		FROM operators o JOIN operator_skills s ON s.operator_id = o.id
		WHERE s.machine_id = ? ORDER BY o.name, o.id`, machineID)
}

// Update rewrites the operator row and replaces its skill set.
func (r *SQLiteOperatorRepo) Update(ctx context.Context, o *domain.Operator) error {
	schedule, err := toJSON("schedule", o.Schedule)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE operators SET name = ?, type = ?, schedule = ? WHERE id = ?`,
		o.Name, o.Type, schedule, o.ID)
	if err != nil {
		return fmt.Errorf("updating operator: %w", err)
	}
	if err := requireAffected(res, "operator"); err != nil {
		return err
	}
	return r.replaceSkills(ctx, o.ID, o.MachineIDs)
}

func (r *SQLiteOperatorRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM operators WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting operator: %w", err)
	}
	return requireAffected(res, "operator")
}

func (r *SQLiteOperatorRepo) list(ctx context.Context, query string, args ...any) ([]*domain.Operator, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing operators: %w", err)
	}
	var ops []*domain.Operator
	for rows.Next() {
		o, err := scanOperator(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		ops = append(ops, o)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating operators: %w", err)
	}

	for _, o := range ops {
		if o.MachineIDs, err = r.listSkills(ctx, o.ID); err != nil {
			return nil, err
		}
	}
	return ops, nil
}

func (r *SQLiteOperatorRepo) listSkills(ctx context.Context, operatorID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT machine_id FROM operator_skills WHERE operator_id = ? ORDER BY machine_id`, operatorID)
	if err != nil {
		return nil, fmt.Errorf("listing operator skills: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning operator skill: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operator skills: %w", err)
	}
	return ids, nil
}

func (r *SQLiteOperatorRepo) replaceSkills(ctx context.Context, operatorID string, machineIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM operator_skills WHERE operator_id = ?`, operatorID); err != nil {
		return fmt.Errorf("clearing operator skills: %w", err)
	}
	for _, mid := range machineIDs {
		_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO operator_skills (operator_id, machine_id) VALUES (?, ?)`, operatorID, mid)
		if err != nil {
			return fmt.Errorf("inserting operator skill %s: %w", mid, err)
		}
	}
	return nil
}

func scanOperator(row rowScanner) (*domain.Operator, error) {
	var o domain.Operator
	var schedule, createdAt string
	if err := row.Scan(&o.ID, &o.Name, &o.Type, &schedule, &createdAt); err != nil {
		return nil, notFound("operator", err)
	}
	if err := fromJSON("schedule", schedule, &o.Schedule); err != nil {
		return nil, fmt.Errorf("operator %s: %w", o.ID, err)
	}
	var err error
	if o.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &o, nil
}

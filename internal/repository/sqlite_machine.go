package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// SQLiteMachineRepo implements MachineRepo using a SQLite database.
type SQLiteMachineRepo struct {
	db db.DBTX
}

func NewSQLiteMachineRepo(conn db.DBTX) *SQLiteMachineRepo {
	return &SQLiteMachineRepo{db: conn}
}

// Create inserts the machine and all of its rules. Callers wanting
// atomicity run it inside a unit of work.
func (r *SQLiteMachineRepo) Create(ctx context.Context, m *domain.Machine) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO machines (id, name, created_at) VALUES (?, ?, ?)`,
		m.ID, m.Name, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting machine: %w", err)
	}
	for i := range m.Rules {
		m.Rules[i].MachineID = m.ID
		if err := r.UpsertRule(ctx, &m.Rules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteMachineRepo) GetByID(ctx context.Context, id string) (*domain.Machine, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM machines WHERE id = ?`, id)
	return r.scanWithRules(ctx, row)
}

func (r *SQLiteMachineRepo) GetByName(ctx context.Context, name string) (*domain.Machine, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM machines WHERE name = ? COLLATE NOCASE`, name)
	return r.scanWithRules(ctx, row)
}

func (r *SQLiteMachineRepo) List(ctx context.Context) ([]*domain.Machine, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM machines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing machines: %w", err)
	}
	var machines []*domain.Machine
	for rows.Next() {
		m, err := scanMachine(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		machines = append(machines, m)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating machines: %w", err)
	}

	// Rules are loaded after the cursor is closed; a tx-backed DBTX holds a
	// single connection.
	for _, m := range machines {
		if m.Rules, err = r.listRules(ctx, "machine_id", m.ID); err != nil {
			return nil, err
		}
	}
	return machines, nil
}

// UpsertRule inserts the rule or replaces the existing rule for the same
// machine and task.
func (r *SQLiteMachineRepo) UpsertRule(ctx context.Context, rule *domain.MachineTaskRule) error {
	wt, err := toJSON("work_time_rules", rule.WorkTime)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO machine_task_rules (id, machine_id, task_id, setup_time_min, finish_time_min, work_time_rules)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(machine_id, task_id) DO UPDATE SET
			setup_time_min = excluded.setup_time_min,
			finish_time_min = excluded.finish_time_min,
			work_time_rules = excluded.work_time_rules`,
		rule.ID, rule.MachineID, rule.TaskID, rule.SetupTimeMin, rule.FinishTimeMin, wt)
	if err != nil {
		return fmt.Errorf("upserting machine task rule: %w", err)
	}
	return nil
}

func (r *SQLiteMachineRepo) DeleteRule(ctx context.Context, machineID, taskID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM machine_task_rules WHERE machine_id = ? AND task_id = ?`, machineID, taskID)
	if err != nil {
		return fmt.Errorf("deleting machine task rule: %w", err)
	}
	return requireAffected(res, "machine task rule")
}

// ListRulesByTask returns every machine rule for taskID, ordered by machine name.
func (r *SQLiteMachineRepo) ListRulesByTask(ctx context.Context, taskID string) ([]domain.MachineTaskRule, error) {
	return r.listRules(ctx, "task_id", taskID)
}

func (r *SQLiteMachineRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM machines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting machine: %w", err)
	}
	return requireAffected(res, "machine")
}

// listRules filters on one machine_task_rules column.
func (r *SQLiteMachineRepo) listRules(ctx context.Context, column string, arg any) ([]domain.MachineTaskRule, error) {
	query := `SELECT r.id, r.machine_id, r.task_id, r.setup_time_min, r.finish_time_min, r.work_time_rules
		FROM machine_task_rules r JOIN machines m ON m.id = r.machine_id
		WHERE r.` + column + ` = ? ORDER BY m.name, r.task_id`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing machine task rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.MachineTaskRule
	for rows.Next() {
		var rule domain.MachineTaskRule
		var wt string
		if err := rows.Scan(&rule.ID, &rule.MachineID, &rule.TaskID, &rule.SetupTimeMin, &rule.FinishTimeMin, &wt); err != nil {
			return nil, fmt.Errorf("scanning machine task rule: %w", err)
		}
		if err := fromJSON("work_time_rules", wt, &rule.WorkTime); err != nil {
			return nil, fmt.Errorf("machine %s task %s: %w", rule.MachineID, rule.TaskID, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating machine task rules: %w", err)
	}
	return rules, nil
}

func (r *SQLiteMachineRepo) scanWithRules(ctx context.Context, row rowScanner) (*domain.Machine, error) {
	m, err := scanMachine(row)
	if err != nil {
		return nil, err
	}
	if m.Rules, err = r.listRules(ctx, "machine_id", m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

func scanMachine(row rowScanner) (*domain.Machine, error) {
	var m domain.Machine
	var createdAt string
	if err := row.Scan(&m.ID, &m.Name, &createdAt); err != nil {
		return nil, notFound("machine", err)
	}
	var err error
	if m.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// SQLiteProviderRepo implements ProviderRepo using a SQLite database.
type SQLiteProviderRepo struct {
	db db.DBTX
}

func NewSQLiteProviderRepo(conn db.DBTX) *SQLiteProviderRepo {
	return &SQLiteProviderRepo{db: conn}
}

func (r *SQLiteProviderRepo) Create(ctx context.Context, p *domain.Provider) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO providers (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting provider: %w", err)
	}
	for i := range p.Rules {
		p.Rules[i].ProviderID = p.ID
		if err := r.UpsertRule(ctx, &p.Rules[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteProviderRepo) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM providers WHERE id = ?`, id)
	return r.scanWithRules(ctx, row)
}

func (r *SQLiteProviderRepo) GetByName(ctx context.Context, name string) (*domain.Provider, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM providers WHERE name = ? COLLATE NOCASE`, name)
	return r.scanWithRules(ctx, row)
}

func (r *SQLiteProviderRepo) List(ctx context.Context) ([]*domain.Provider, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM providers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing providers: %w", err)
	}
	var providers []*domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		providers = append(providers, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating providers: %w", err)
	}

	for _, p := range providers {
		if p.Rules, err = r.listRules(ctx, "provider_id", p.ID); err != nil {
			return nil, err
		}
	}
	return providers, nil
}

func (r *SQLiteProviderRepo) UpsertRule(ctx context.Context, rule *domain.ProviderTaskRule) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO provider_task_rules (id, provider_id, task_id, delivery_time_days)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(provider_id, task_id) DO UPDATE SET delivery_time_days = excluded.delivery_time_days`,
		rule.ID, rule.ProviderID, rule.TaskID, rule.DeliveryTimeDays)
	if err != nil {
		return fmt.Errorf("upserting provider task rule: %w", err)
	}
	return nil
}

func (r *SQLiteProviderRepo) ListRulesByTask(ctx context.Context, taskID string) ([]domain.ProviderTaskRule, error) {
	return r.listRules(ctx, "task_id", taskID)
}

func (r *SQLiteProviderRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM providers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting provider: %w", err)
	}
	return requireAffected(res, "provider")
}

func (r *SQLiteProviderRepo) listRules(ctx context.Context, column string, arg any) ([]domain.ProviderTaskRule, error) {
	query := `SELECT r.id, r.provider_id, r.task_id, r.delivery_time_days
		FROM provider_task_rules r JOIN providers p ON p.id = r.provider_id
		WHERE r.` + column + ` = ? ORDER BY p.name, r.task_id`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing provider task rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.ProviderTaskRule
	for rows.Next() {
		var rule domain.ProviderTaskRule
		if err := rows.Scan(&rule.ID, &rule.ProviderID, &rule.TaskID, &rule.DeliveryTimeDays); err != nil {
			return nil, fmt.Errorf("scanning provider task rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provider task rules: %w", err)
	}
	return rules, nil
}

func (r *SQLiteProviderRepo) scanWithRules(ctx context.Context, row rowScanner) (*domain.Provider, error) {
	p, err := scanProvider(row)
	if err != nil {
		return nil, err
	}
	if p.Rules, err = r.listRules(ctx, "provider_id", p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func scanProvider(row rowScanner) (*domain.Provider, error) {
	var p domain.Provider
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &createdAt); err != nil {
		return nil, notFound("provider", err)
	}
	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

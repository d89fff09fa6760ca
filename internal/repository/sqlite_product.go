package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/slotwise/internal/db"
	"github.com/alexanderramin/slotwise/internal/domain"
)

// SQLiteProductRepo implements ProductRepo using a SQLite database.
type SQLiteProductRepo struct {
	db db.DBTX
}

func NewSQLiteProductRepo(conn db.DBTX) *SQLiteProductRepo {
	return &SQLiteProductRepo{db: conn}
}

func (r *SQLiteProductRepo) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO products (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, formatTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	for i := range p.Workflow {
		s := &p.Workflow[i]
		s.ProductID = p.ID
		prereqs, err := toJSON("prerequisites", nonNilStrings(s.Prerequisites))
		if err != nil {
			return err
		}
		_, err = r.db.ExecContext(ctx, `INSERT INTO workflow_steps (id, product_id, task_id, position, is_optional, prerequisites)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, s.ProductID, s.TaskID, s.Position, boolToInt(s.IsOptional), prereqs)
		if err != nil {
			return fmt.Errorf("inserting workflow step %s: %w", s.ID, err)
		}
	}
	return nil
}

func (r *SQLiteProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM products WHERE id = ?`, id)
	return r.scanWithWorkflow(ctx, row)
}

func (r *SQLiteProductRepo) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM products WHERE name = ? COLLATE NOCASE`, name)
	return r.scanWithWorkflow(ctx, row)
}

func (r *SQLiteProductRepo) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		products = append(products, p)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	for _, p := range products {
		if p.Workflow, err = r.listSteps(ctx, p.ID); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *SQLiteProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return requireAffected(res, "product")
}

func (r *SQLiteProductRepo) listSteps(ctx context.Context, productID string) ([]domain.WorkflowStep, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, product_id, task_id, position, is_optional, prerequisites
		FROM workflow_steps WHERE product_id = ? ORDER BY position, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("listing workflow steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.WorkflowStep
	for rows.Next() {
		var s domain.WorkflowStep
		var optional int
		var prereqs string
		if err := rows.Scan(&s.ID, &s.ProductID, &s.TaskID, &s.Position, &optional, &prereqs); err != nil {
			return nil, fmt.Errorf("scanning workflow step: %w", err)
		}
		s.IsOptional = intToBool(optional)
		if err := fromJSON("prerequisites", prereqs, &s.Prerequisites); err != nil {
			return nil, fmt.Errorf("workflow step %s: %w", s.ID, err)
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workflow steps: %w", err)
	}
	return steps, nil
}

func (r *SQLiteProductRepo) scanWithWorkflow(ctx context.Context, row rowScanner) (*domain.Product, error) {
	p, err := scanProduct(row)
	if err != nil {
		return nil, err
	}
	if p.Workflow, err = r.listSteps(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var createdAt string
	if err := row.Scan(&p.ID, &p.Name, &createdAt); err != nil {
		return nil, notFound("product", err)
	}
	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// nonNilStrings keeps JSON columns as [] rather than null.
func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

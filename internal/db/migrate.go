package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillOrderStatus(db); err != nil {
		return fmt.Errorf("backfilling order status: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS machines (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,

	// work_time_rules holds the canonical WorkTimeRule as JSON.
	`CREATE TABLE IF NOT EXISTS machine_task_rules (
		id              TEXT PRIMARY KEY,
		machine_id      TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
		task_id         TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		setup_time_min  INTEGER NOT NULL DEFAULT 0 CHECK(setup_time_min >= 0),
		finish_time_min INTEGER NOT NULL DEFAULT 0 CHECK(finish_time_min >= 0),
		work_time_rules TEXT NOT NULL DEFAULT '{}',
		UNIQUE(machine_id, task_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_machine_task_rules_task ON machine_task_rules(task_id)`,

	`CREATE TABLE IF NOT EXISTS operators (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		type       TEXT NOT NULL DEFAULT '',
		schedule   TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS operator_skills (
		operator_id TEXT NOT NULL REFERENCES operators(id) ON DELETE CASCADE,
		machine_id  TEXT NOT NULL REFERENCES machines(id) ON DELETE CASCADE,
		PRIMARY KEY (operator_id, machine_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_operator_skills_machine ON operator_skills(machine_id)`,

	`CREATE TABLE IF NOT EXISTS providers (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS provider_task_rules (
		id                 TEXT PRIMARY KEY,
		provider_id        TEXT NOT NULL REFERENCES providers(id) ON DELETE CASCADE,
		task_id            TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		delivery_time_days INTEGER NOT NULL DEFAULT 1,
		UNIQUE(provider_id, task_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_provider_task_rules_task ON provider_task_rules(task_id)`,

	`CREATE TABLE IF NOT EXISTS products (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS workflow_steps (
		id            TEXT PRIMARY KEY,
		product_id    TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		task_id       TEXT NOT NULL REFERENCES tasks(id),
		position      INTEGER NOT NULL DEFAULT 0,
		is_optional   INTEGER NOT NULL DEFAULT 0,
		prerequisites TEXT NOT NULL DEFAULT '[]'
	)`,

	`CREATE INDEX IF NOT EXISTS idx_workflow_steps_product ON workflow_steps(product_id)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id           TEXT PRIMARY KEY,
		order_number TEXT NOT NULL DEFAULT '',
		product_id   TEXT NOT NULL REFERENCES products(id),
		quantity     INTEGER NOT NULL CHECK(quantity > 0),
		width        REAL NOT NULL DEFAULT 0,
		height       REAL NOT NULL DEFAULT 0,
		configs      TEXT NOT NULL DEFAULT '{}',
		status       TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','planned')),
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,

	// resources is the PossibleResources snapshot taken at order creation.
	`CREATE TABLE IF NOT EXISTS order_tasks (
		id               TEXT PRIMARY KEY,
		order_id         TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		workflow_step_id TEXT NOT NULL,
		task_id          TEXT NOT NULL,
		task_name        TEXT NOT NULL DEFAULT '',
		prerequisites    TEXT NOT NULL DEFAULT '[]',
		resources        TEXT NOT NULL DEFAULT '{}',
		status           TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','scheduled')),
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL,
		UNIQUE(order_id, workflow_step_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_order_tasks_order ON order_tasks(order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_order_tasks_status ON order_tasks(status)`,

	`CREATE TABLE IF NOT EXISTS scheduled_tasks (
		id            TEXT PRIMARY KEY,
		order_task_id TEXT NOT NULL UNIQUE REFERENCES order_tasks(id) ON DELETE CASCADE,
		start_time    TEXT NOT NULL,
		end_time      TEXT NOT NULL,
		machine_id    TEXT REFERENCES machines(id),
		operator_id   TEXT REFERENCES operators(id),
		provider_id   TEXT REFERENCES providers(id),
		created_at    TEXT NOT NULL,
		CHECK(end_time > start_time),
		CHECK((machine_id IS NULL) != (provider_id IS NULL)),
		CHECK(machine_id IS NULL OR operator_id IS NOT NULL),
		CHECK(provider_id IS NULL OR operator_id IS NULL)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_scheduled_machine ON scheduled_tasks(machine_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_operator ON scheduled_tasks(operator_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_provider ON scheduled_tasks(provider_id, start_time)`,

	// Due dates arrived after the first release.
	`ALTER TABLE orders ADD COLUMN due_date TEXT`,
}

// migrateBackfillOrderStatus marks orders planned when every one of their
// tasks is already scheduled. Databases written before order status was
// maintained on commit left them pending. Idempotent.
func migrateBackfillOrderStatus(db *sql.DB) error {
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `UPDATE orders SET status = 'planned'
		WHERE status = 'pending'
		  AND EXISTS (SELECT 1 FROM order_tasks t WHERE t.order_id = orders.id)
		  AND NOT EXISTS (
			SELECT 1 FROM order_tasks t
			WHERE t.order_id = orders.id AND t.status != 'scheduled'
		  )`)
	if err != nil {
		return fmt.Errorf("updating orders: %w", err)
	}
	return nil
}

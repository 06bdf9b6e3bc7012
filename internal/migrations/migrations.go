package migrations

import (
	"github.com/jmoiron/sqlx"
)

// Run creates the schema required by the POS service. Statements are
// idempotent so the service can bootstrap an empty database on startup.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			icon TEXT,
			sort_order INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			price BIGINT NOT NULL,
			category_id BIGINT NOT NULL REFERENCES categories(id),
			image_url TEXT,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			points_per_item BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS members (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL UNIQUE,
			total_points BIGINT NOT NULL DEFAULT 0,
			total_spent BIGINT NOT NULL DEFAULT 0,
			visit_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT members_points_non_negative CHECK (total_points >= 0)
		)`,
		`CREATE TABLE IF NOT EXISTS store_sessions (
			id BIGSERIAL PRIMARY KEY,
			opened_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			opened_by TEXT,
			closed_at TIMESTAMPTZ,
			closed_by TEXT,
			total_orders BIGINT,
			total_items BIGINT,
			total_revenue BIGINT,
			cash_revenue BIGINT,
			transfer_revenue BIGINT
		)`,
		// At most one open session, enforced by the database rather than
		// by a read-then-write convention.
		`CREATE UNIQUE INDEX IF NOT EXISTS store_sessions_single_open
			ON store_sessions ((closed_at IS NULL)) WHERE closed_at IS NULL`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			order_number TEXT NOT NULL,
			session_id BIGINT REFERENCES store_sessions(id),
			member_id BIGINT REFERENCES members(id),
			member_phone TEXT,
			points_earned BIGINT NOT NULL DEFAULT 0,
			points_redeemed BIGINT NOT NULL DEFAULT 0,
			points_discount BIGINT NOT NULL DEFAULT 0,
			subtotal BIGINT NOT NULL,
			discount BIGINT NOT NULL DEFAULT 0,
			total BIGINT NOT NULL,
			payment_method TEXT NOT NULL,
			status TEXT NOT NULL,
			created_by TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS orders_session_id_idx ON orders (session_id)`,
		`CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES orders(id),
			product_id BIGINT NOT NULL,
			product_name TEXT NOT NULL,
			price BIGINT NOT NULL,
			quantity BIGINT NOT NULL,
			note TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id)`,
		`CREATE TABLE IF NOT EXISTS member_points_history (
			id BIGSERIAL PRIMARY KEY,
			member_id BIGINT NOT NULL REFERENCES members(id),
			order_id BIGINT REFERENCES orders(id),
			type TEXT NOT NULL,
			points BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS member_points_history_member_idx
			ON member_points_history (member_id, created_at DESC)`,
		// One settlement per order; the conflict on insert is what makes
		// updateMemberAfterOrder safe to retry.
		`CREATE TABLE IF NOT EXISTS point_settlements (
			order_id BIGINT PRIMARY KEY REFERENCES orders(id),
			member_id BIGINT NOT NULL REFERENCES members(id),
			settled_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS store_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

package riverpress

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migration is one ordered, additive schema step. Applied versions are
// recorded in schema_migrations and never re-run.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create posts",
		statements: []string{`
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    excerpt TEXT NOT NULL,
    content TEXT NOT NULL,
    cover_url TEXT,
    tags TEXT,
    published INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    publish_date TEXT
)`},
	},
	{
		version: 2,
		name:    "post seo and presentation fields",
		statements: []string{
			`ALTER TABLE posts ADD COLUMN meta_title TEXT`,
			`ALTER TABLE posts ADD COLUMN meta_description TEXT`,
			`ALTER TABLE posts ADD COLUMN hero_kicker TEXT`,
			`ALTER TABLE posts ADD COLUMN hero_style TEXT`,
			`ALTER TABLE posts ADD COLUMN highlight_quote TEXT`,
			`ALTER TABLE posts ADD COLUMN summary_points TEXT`,
			`ALTER TABLE posts ADD COLUMN cta_label TEXT`,
			`ALTER TABLE posts ADD COLUMN cta_url TEXT`,
			`ALTER TABLE posts ADD COLUMN featured INTEGER NOT NULL DEFAULT 0`,
		},
	},
	{
		version: 3,
		name:    "create settings",
		statements: []string{`
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    site_name TEXT NOT NULL,
    site_description TEXT NOT NULL,
    base_url TEXT NOT NULL
)`},
	},
	{
		version: 4,
		name:    "index posts by publish order",
		statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_posts_published_order ON posts(published, COALESCE(publish_date, created_at))`,
		},
	},
	{
		version: 5,
		name:    "create images",
		statements: []string{`
CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT NOT NULL UNIQUE,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
)`},
	},
	{
		version: 6,
		name:    "create page views",
		statements: []string{`
CREATE TABLE IF NOT EXISTS page_views (
    day TEXT NOT NULL,
    path TEXT NOT NULL,
    source TEXT NOT NULL,
    device TEXT NOT NULL,
    views INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (day, path, source, device)
)`},
	},
}

// migrate applies every pending migration in version order, each in its own
// transaction.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TEXT NOT NULL
)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

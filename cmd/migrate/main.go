package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techassets/backend/internal/config"
	"github.com/techassets/backend/internal/logging"
	"github.com/techassets/backend/internal/repository"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [command]

Commands:
  (default)   未適用のマイグレーションを順番に適用
  reset       全テーブルを DROP し、集約スキーマで再作成
  fresh       全テーブルを DROP し、全マイグレーションを順番に適用
  status      適用済み・未適用のマイグレーションを表示`)
	os.Exit(2)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("INFO")
		logging.Fatal("load config failed", "error", err)
	}
	logging.Setup(cfg.LogLevel)

	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	ctx := context.Background()
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("connect failed", "error", err)
	}
	defer pool.Close()

	m := &migrator{pool: pool, dir: findMigrationDir()}
	switch cmd {
	case "":
		err = m.up(ctx)
	case "reset":
		if err = m.exec(ctx, "000_drop_all.sql"); err == nil {
			err = m.consolidated(ctx)
		}
	case "fresh":
		if err = m.exec(ctx, "000_drop_all.sql"); err == nil {
			err = m.up(ctx)
		}
	case "status":
		err = m.status(ctx)
	default:
		usage()
	}
	if err != nil {
		logging.Fatal("migrate failed", "command", cmd, "error", err)
	}
}

func findMigrationDir() string {
	for _, dir := range []string{"migrations", "../migrations"} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "migrations"
}

// migrator は migrations/ の SQL を schema_migrations で管理しながら適用する
type migrator struct {
	pool *pgxpool.Pool
	dir  string
}

// pending returns the sorted *.up.sql names (without suffix) and which are applied.
func (m *migrator) pending(ctx context.Context) ([]string, map[string]bool, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", m.dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, strings.TrimSuffix(e.Name(), ".up.sql"))
		}
	}
	sort.Strings(names)

	if _, err := m.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := m.pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, nil, err
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}
	return names, done, nil
}

// up applies every unapplied migration, each in its own transaction together
// with its schema_migrations row.
func (m *migrator) up(ctx context.Context) error {
	names, done, err := m.pending(ctx)
	if err != nil {
		return err
	}
	count := 0
	for _, name := range names {
		if done[name] {
			continue
		}
		sql, err := os.ReadFile(filepath.Join(m.dir, name+".up.sql"))
		if err != nil {
			return err
		}
		err = pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		count++
		slog.Info("migration applied", "migration", name)
	}
	if count == 0 {
		slog.Info("all migrations already applied")
		return nil
	}
	slog.Info("migrations completed", "count", count)
	return nil
}

// exec runs one non-versioned SQL file such as 000_drop_all.sql.
func (m *migrator) exec(ctx context.Context, file string) error {
	sql, err := os.ReadFile(filepath.Join(m.dir, file))
	if err != nil {
		return err
	}
	if _, err := m.pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	slog.Info("sql file executed", "file", file)
	return nil
}

// consolidated は集約スキーマを適用し、全マイグレーションを適用済みとして記録する
func (m *migrator) consolidated(ctx context.Context) error {
	if err := m.exec(ctx, "000_consolidated.sql"); err != nil {
		return err
	}
	names, _, err := m.pending(ctx)
	if err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, name := range names {
		batch.Queue(`INSERT INTO schema_migrations (name) VALUES ($1) ON CONFLICT DO NOTHING`, name)
	}
	if err := m.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("mark migrations: %w", err)
	}
	slog.Info("consolidated schema applied", "migrations_marked", len(names))
	return nil
}

func (m *migrator) status(ctx context.Context) error {
	names, done, err := m.pending(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("no migrations found in " + m.dir)
	}
	waiting := 0
	for _, name := range names {
		if !done[name] {
			waiting++
		}
		slog.Info("migration", "migration", name, "applied", done[name])
	}
	slog.Info("migration status", "pending", waiting)
	return nil
}

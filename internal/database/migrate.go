// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DirtyError は前回のマイグレーションが途中で失敗し、スキーマがdirtyのまま残っていることを表す。
// 手動で修正した後に `migrate force <version>` で状態を確定させる必要がある。
type DirtyError struct {
	Version uint
}

func (e *DirtyError) Error() string {
	return fmt.Sprintf("database schema is dirty at version %d; fix it manually, then run `migrate force %d`", e.Version, e.Version)
}

// MigrationResult はUpの実行結果。
type MigrationResult struct {
	From    uint
	To      uint
	Applied bool
}

// Migrator は埋め込みマイグレーションをmatches/paymentsスキーマに適用する。
type Migrator struct {
	m      *migrate.Migrate
	logger *slog.Logger
}

// NewMigrator はマイグレーション実行用のMigratorを生成する。
// databaseURLはPostgreSQLの接続URLを指定する。
func NewMigrator(databaseURL string, logger *slog.Logger) (*Migrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = &migrateLogger{logger: logger}

	return &Migrator{m: m, logger: logger}, nil
}

// Up は未適用のマイグレーションをすべて適用する。
// dirty状態のスキーマには手を付けず*DirtyErrorを返す。
func (m *Migrator) Up() (MigrationResult, error) {
	from, dirty, err := m.Status()
	if err != nil {
		return MigrationResult{}, err
	}
	if dirty {
		return MigrationResult{From: from, To: from}, &DirtyError{Version: from}
	}

	if err := m.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return MigrationResult{From: from, To: from}, nil
		}
		return MigrationResult{From: from}, fmt.Errorf("failed to run migrations: %w", err)
	}

	to, _, err := m.Status()
	if err != nil {
		return MigrationResult{From: from}, err
	}
	return MigrationResult{From: from, To: to, Applied: to != from}, nil
}

// Status は現在のスキーマバージョンとdirtyフラグを返す。未適用なら0を返す。
func (m *Migrator) Status() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force はdirtyフラグを解除し、スキーマバージョンを指定値に設定する。
// マイグレーション自体は実行しない。
func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("failed to force schema version %d: %w", version, err)
	}
	m.logger.Warn("schema version forced", slog.Int("version", version))
	return nil
}

// Close はソースとデータベースの接続を閉じる。
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// RunMigrations はすべてのマイグレーションを適用し、適用前後のバージョンを返す。
// すでに最新の場合はApplied=falseでエラーなしに返る。
func RunMigrations(databaseURL string, logger *slog.Logger) (MigrationResult, error) {
	m, err := NewMigrator(databaseURL, logger)
	if err != nil {
		return MigrationResult{}, err
	}
	defer m.Close()

	return m.Up()
}

// LatestVersion は埋め込まれたマイグレーションの最新バージョンを返す。
func LatestVersion() (uint, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("failed to create migration source: %w", err)
	}
	defer source.Close()

	version, err := source.First()
	if err != nil {
		return 0, fmt.Errorf("failed to read first migration: %w", err)
	}
	for {
		next, err := source.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return version, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read migration after %d: %w", version, err)
		}
		version = next
	}
}

// migrateLogger はgolang-migrateのログをslogのDebugに流す。
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug)
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"job-tracker/internal/repository"
)

// MemoryPath opens a private in-memory database. It only lives as long as the
// single pooled connection, which Open keeps alive.
const MemoryPath = ":memory:"

// Open opens (or creates) a sqlite database at the given path and ensures directories exist.
func Open(path string) (*sql.DB, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// one connection serializes writers; refresh token rotation relies on it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}

// Repositories bundles every sqlite-backed repository over one *sql.DB.
type Repositories struct {
	Users        repository.UserRepository
	Roles        repository.RoleRepository
	Companies    repository.CompanyRepository
	Statuses     repository.StatusRepository
	Applications repository.JobApplicationRepository
}

func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:        NewUserRepository(db),
		Roles:        NewRoleRepository(db),
		Companies:    NewCompanyRepository(db),
		Statuses:     NewStatusRepository(db),
		Applications: NewJobApplicationRepository(db),
	}
}

// Init creates all tables. Order matters: referenced tables come first.
func (r *Repositories) Init(ctx context.Context) error {
	for _, initTable := range []func(context.Context) error{
		r.Users.Init,
		r.Roles.Init,
		r.Companies.Init,
		r.Statuses.Init,
		r.Applications.Init,
	} {
		if err := initTable(ctx); err != nil {
			return err
		}
	}
	return nil
}

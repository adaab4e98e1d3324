package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"job-tracker/internal/domain"
)

type seedStatus struct {
	id   int64
	name string
}

type seedCompany struct {
	id           int64
	name         string
	hr           string
	headquarters string
}

type seedApplication struct {
	id        int64
	companyID *int64
	role      string
	location  string
	date      string
	statusID  int64
}

var (
	seedStatuses = []seedStatus{
		{1, "To Apply"},
		{2, "Applied"},
		{3, "Scheduled Action"},
		{4, "Interview"},
		{5, "No Answer"},
		{6, "Rejected"},
		{7, "Discarded"},
		{8, "Offer"},
	}
	seedCompanies = []seedCompany{
		{1, "Dev School", "Some Teacher", "Stockholm"},
		{2, "Nice Small Company", "Cool Name", "Göteborg"},
	}
	seedApplications = []seedApplication{
		{1, ref(1), "C# Trainee", "Stockholm - On Site", "2025-08-12", 4},
		{2, ref(2), "C# Consultant", "Göteborg - Full Remote", "2025-09-12", 7},
		{3, nil, "C# Dev", "Full Remote", "2025-09-29", 2},
	}
)

func ref(v int64) *int64 { return &v }

// SeedRoles makes sure the built-in roles exist. It is idempotent.
func SeedRoles(ctx context.Context, db *sql.DB) error {
	for _, name := range []string{domain.RoleAdmin, domain.RoleUser} {
		if _, err := db.ExecContext(ctx, `INSERT INTO roles (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

// SeedTracker inserts the initial statuses, companies and job applications.
// Each table is only seeded while it is empty, so restarts do not duplicate rows.
func SeedTracker(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	empty, err := tableEmpty(ctx, tx, "job_application_statuses")
	if err != nil {
		return err
	}
	if empty {
		for _, s := range seedStatuses {
			if _, err := tx.ExecContext(ctx, `INSERT INTO job_application_statuses (id, name) VALUES (?, ?)`, s.id, s.name); err != nil {
				return fmt.Errorf("seed status %d: %w", s.id, err)
			}
		}
	}

	empty, err = tableEmpty(ctx, tx, "companies")
	if err != nil {
		return err
	}
	if empty {
		for _, c := range seedCompanies {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO companies (id, name, hr, headquarters)
VALUES (?, ?, ?, ?)`, c.id, c.name, c.hr, c.headquarters); err != nil {
				return fmt.Errorf("seed company %d: %w", c.id, err)
			}
		}
	}

	empty, err = tableEmpty(ctx, tx, "job_applications")
	if err != nil {
		return err
	}
	if empty {
		for _, a := range seedApplications {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO job_applications (id, role, location, application_date, status_id, company_id)
VALUES (?, ?, ?, ?, ?, ?)`, a.id, a.role, a.location, a.date, a.statusID, nullInt64(a.companyID)); err != nil {
				return fmt.Errorf("seed job application %d: %w", a.id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func tableEmpty(ctx context.Context, tx *sql.Tx, table string) (bool, error) {
	var n int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return false, fmt.Errorf("count %s: %w", table, err)
	}
	return n == 0, nil
}

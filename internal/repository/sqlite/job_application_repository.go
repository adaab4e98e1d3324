package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

const createJobApplicationsTable = `
CREATE TABLE IF NOT EXISTS job_applications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	role TEXT NOT NULL,
	location TEXT NULL,
	application_date TEXT NULL,
	status_id INTEGER NULL,
	company_id INTEGER NULL,
	FOREIGN KEY(status_id) REFERENCES job_application_statuses(id) ON DELETE SET NULL,
	FOREIGN KEY(company_id) REFERENCES companies(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_job_applications_company_id ON job_applications(company_id);
`

const selectJobApplications = `
SELECT id, role, location, application_date, status_id, company_id
FROM job_applications`

type JobApplicationRepository struct {
	db *sql.DB
}

func NewJobApplicationRepository(db *sql.DB) repository.JobApplicationRepository {
	return &JobApplicationRepository{db: db}
}

// Init must run after the companies and statuses tables exist.
func (r *JobApplicationRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createJobApplicationsTable); err != nil {
		return fmt.Errorf("create job_applications table: %w", err)
	}
	return nil
}

func (r *JobApplicationRepository) Create(ctx context.Context, app *domain.JobApplication) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO job_applications (role, location, application_date, status_id, company_id)
VALUES (?, ?, ?, ?, ?)`,
		app.Role,
		nullString(app.Location),
		nullDate(app.ApplicationDate),
		nullInt64(app.StatusID),
		nullInt64(app.CompanyID),
	)
	if err != nil {
		return 0, fmt.Errorf("insert job application: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("job application last insert id: %w", err)
	}
	app.ID = id
	return id, nil
}

func (r *JobApplicationRepository) Update(ctx context.Context, app *domain.JobApplication) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE job_applications
SET role = ?, location = ?, application_date = ?, status_id = ?, company_id = ?
WHERE id = ?`,
		app.Role,
		nullString(app.Location),
		nullDate(app.ApplicationDate),
		nullInt64(app.StatusID),
		nullInt64(app.CompanyID),
		app.ID,
	)
	if err != nil {
		return fmt.Errorf("update job application: %w", err)
	}
	return expectAffected(res, "job application")
}

func (r *JobApplicationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM job_applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete job application: %w", err)
	}
	return expectAffected(res, "job application")
}

func (r *JobApplicationRepository) Get(ctx context.Context, id int64) (*domain.JobApplication, error) {
	row := r.db.QueryRowContext(ctx, selectJobApplications+` WHERE id = ?`, id)
	app, err := scanJobApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job application %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan job application: %w", err)
	}
	return app, nil
}

func (r *JobApplicationRepository) List(ctx context.Context) ([]domain.JobApplication, error) {
	return r.query(ctx, selectJobApplications+` ORDER BY id ASC`)
}

func (r *JobApplicationRepository) ListByCompany(ctx context.Context, companyID int64) ([]domain.JobApplication, error) {
	return r.query(ctx, selectJobApplications+` WHERE company_id = ? ORDER BY id ASC`, companyID)
}

func (r *JobApplicationRepository) query(ctx context.Context, query string, args ...any) ([]domain.JobApplication, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query job applications: %w", err)
	}
	defer rows.Close()

	apps := []domain.JobApplication{}
	for rows.Next() {
		app, err := scanJobApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func scanJobApplication(row rowScanner) (*domain.JobApplication, error) {
	var (
		app       domain.JobApplication
		location  sql.NullString
		date      sql.NullString
		statusID  sql.NullInt64
		companyID sql.NullInt64
	)
	if err := row.Scan(&app.ID, &app.Role, &location, &date, &statusID, &companyID); err != nil {
		return nil, err
	}
	app.Location = stringPtr(location)
	app.StatusID = int64Ptr(statusID)
	app.CompanyID = int64Ptr(companyID)
	if date.Valid && date.String != "" {
		d, err := time.Parse(domain.DateLayout, date.String)
		if err != nil {
			return nil, fmt.Errorf("parse application date %q: %w", date.String, err)
		}
		app.ApplicationDate = &d
	}
	return &app, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(domain.DateLayout), Valid: true}
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

const createStatusesTable = `
CREATE TABLE IF NOT EXISTS job_application_statuses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);
`

type StatusRepository struct {
	db *sql.DB
}

func NewStatusRepository(db *sql.DB) repository.StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createStatusesTable); err != nil {
		return fmt.Errorf("create job_application_statuses table: %w", err)
	}
	return nil
}

func (r *StatusRepository) Create(ctx context.Context, status *domain.JobApplicationStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO job_application_statuses (name) VALUES (?)`, status.Name)
	if err != nil {
		return 0, fmt.Errorf("insert status: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("status last insert id: %w", err)
	}
	status.ID = id
	return id, nil
}

func (r *StatusRepository) Update(ctx context.Context, status *domain.JobApplicationStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE job_application_statuses SET name = ? WHERE id = ?`, status.Name, status.ID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return expectAffected(res, "status")
}

func (r *StatusRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM job_application_statuses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete status: %w", err)
	}
	return expectAffected(res, "status")
}

func (r *StatusRepository) Get(ctx context.Context, id int64) (*domain.JobApplicationStatus, error) {
	var status domain.JobApplicationStatus
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM job_application_statuses WHERE id = ?`, id).
		Scan(&status.ID, &status.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("status %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan status: %w", err)
	}
	return &status, nil
}

func (r *StatusRepository) List(ctx context.Context) ([]domain.JobApplicationStatus, error) {
	return r.query(ctx, `SELECT id, name FROM job_application_statuses ORDER BY id ASC`)
}

func (r *StatusRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.JobApplicationStatus, error) {
	if len(ids) == 0 {
		return []domain.JobApplicationStatus{}, nil
	}
	query, args := inClause(`SELECT id, name FROM job_application_statuses WHERE id IN (%s) ORDER BY id ASC`, ids)
	return r.query(ctx, query, args...)
}

func (r *StatusRepository) query(ctx context.Context, query string, args ...any) ([]domain.JobApplicationStatus, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query statuses: %w", err)
	}
	defer rows.Close()

	statuses := []domain.JobApplicationStatus{}
	for rows.Next() {
		var status domain.JobApplicationStatus
		if err := rows.Scan(&status.ID, &status.Name); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

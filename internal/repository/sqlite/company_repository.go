package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

const createCompaniesTable = `
CREATE TABLE IF NOT EXISTS companies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	hr TEXT NULL,
	headquarters TEXT NULL
);
`

type CompanyRepository struct {
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) repository.CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCompaniesTable); err != nil {
		return fmt.Errorf("create companies table: %w", err)
	}
	return nil
}

func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO companies (name, hr, headquarters)
VALUES (?, ?, ?)`,
		company.Name,
		nullString(company.HR),
		nullString(company.Headquarters),
	)
	if err != nil {
		return 0, fmt.Errorf("insert company: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("company last insert id: %w", err)
	}
	company.ID = id
	return id, nil
}

func (r *CompanyRepository) Update(ctx context.Context, company *domain.Company) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE companies
SET name = ?, hr = ?, headquarters = ?
WHERE id = ?`,
		company.Name,
		nullString(company.HR),
		nullString(company.Headquarters),
		company.ID,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return expectAffected(res, "company")
}

func (r *CompanyRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return expectAffected(res, "company")
}

func (r *CompanyRepository) Get(ctx context.Context, id int64) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, hr, headquarters
FROM companies
WHERE id = ?`, id)
	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("company %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan company: %w", err)
	}
	return company, nil
}

func (r *CompanyRepository) List(ctx context.Context) ([]domain.Company, error) {
	return r.query(ctx, `
SELECT id, name, hr, headquarters
FROM companies
ORDER BY id ASC`)
}

func (r *CompanyRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Company, error) {
	if len(ids) == 0 {
		return []domain.Company{}, nil
	}
	query, args := inClause(`
SELECT id, name, hr, headquarters
FROM companies
WHERE id IN (%s)
ORDER BY id ASC`, ids)
	return r.query(ctx, query, args...)
}

func (r *CompanyRepository) query(ctx context.Context, query string, args ...any) ([]domain.Company, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	companies := []domain.Company{}
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, *company)
	}
	return companies, rows.Err()
}

func scanCompany(row rowScanner) (*domain.Company, error) {
	var (
		company domain.Company
		hr, hq  sql.NullString
	)
	if err := row.Scan(&company.ID, &company.Name, &hr, &hq); err != nil {
		return nil, err
	}
	company.HR = stringPtr(hr)
	company.Headquarters = stringPtr(hq)
	return &company, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// inClause expands a single %s in query into one placeholder per id.
func inClause(query string, ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return fmt.Sprintf(query, strings.Join(placeholders, ", ")), args
}

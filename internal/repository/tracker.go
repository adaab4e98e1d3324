package repository

import (
	"context"

	"job-tracker/internal/domain"
)

// CompanyRepository exposes persistence operations for companies.
type CompanyRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, company *domain.Company) (int64, error)
	Update(ctx context.Context, company *domain.Company) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Company, error)
	List(ctx context.Context) ([]domain.Company, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Company, error)
}

// JobApplicationRepository exposes persistence operations for job applications.
type JobApplicationRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, app *domain.JobApplication) (int64, error)
	Update(ctx context.Context, app *domain.JobApplication) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.JobApplication, error)
	List(ctx context.Context) ([]domain.JobApplication, error)
	ListByCompany(ctx context.Context, companyID int64) ([]domain.JobApplication, error)
}

// StatusRepository manages the job application status lookup table.
type StatusRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, status *domain.JobApplicationStatus) (int64, error)
	Update(ctx context.Context, status *domain.JobApplicationStatus) error
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.JobApplicationStatus, error)
	List(ctx context.Context) ([]domain.JobApplicationStatus, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.JobApplicationStatus, error)
}

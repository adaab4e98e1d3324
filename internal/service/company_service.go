package service

import (
	"context"
	"fmt"
	"strings"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

// CompanyService manages companies and their job application projection.
type CompanyService interface {
	List(ctx context.Context) ([]domain.Company, error)
	ListWithApplications(ctx context.Context) ([]domain.Company, error)
	Get(ctx context.Context, id int64) (*domain.Company, error)
	GetWithApplications(ctx context.Context, id int64) (*domain.Company, error)
	Create(ctx context.Context, company *domain.Company) (*domain.Company, error)
	Update(ctx context.Context, company *domain.Company) error
	Delete(ctx context.Context, id int64) error
}

type companyService struct {
	companies    repository.CompanyRepository
	applications repository.JobApplicationRepository
}

func NewCompanyService(companies repository.CompanyRepository, applications repository.JobApplicationRepository) CompanyService {
	return &companyService{
		companies:    companies,
		applications: applications,
	}
}

func (s *companyService) List(ctx context.Context) ([]domain.Company, error) {
	return s.companies.List(ctx)
}

func (s *companyService) ListWithApplications(ctx context.Context) ([]domain.Company, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, err
	}
	apps, err := s.applications.List(ctx)
	if err != nil {
		return nil, err
	}

	byCompany := make(map[int64][]domain.JobApplication)
	for _, app := range apps {
		if app.CompanyID != nil {
			byCompany[*app.CompanyID] = append(byCompany[*app.CompanyID], app)
		}
	}
	for i := range companies {
		companies[i].JobApplications = byCompany[companies[i].ID]
		if companies[i].JobApplications == nil {
			companies[i].JobApplications = []domain.JobApplication{}
		}
	}
	return companies, nil
}

func (s *companyService) Get(ctx context.Context, id int64) (*domain.Company, error) {
	return s.companies.Get(ctx, id)
}

func (s *companyService) GetWithApplications(ctx context.Context, id int64) (*domain.Company, error) {
	company, err := s.companies.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apps, err := s.applications.ListByCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	company.JobApplications = apps
	return company, nil
}

func (s *companyService) Create(ctx context.Context, company *domain.Company) (*domain.Company, error) {
	if err := normalizeCompany(company); err != nil {
		return nil, err
	}
	if _, err := s.companies.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	return company, nil
}

func (s *companyService) Update(ctx context.Context, company *domain.Company) error {
	if err := normalizeCompany(company); err != nil {
		return err
	}
	return s.companies.Update(ctx, company)
}

// Delete removes the company. Its job applications are kept with no company.
func (s *companyService) Delete(ctx context.Context, id int64) error {
	return s.companies.Delete(ctx, id)
}

func normalizeCompany(company *domain.Company) error {
	company.Name = strings.TrimSpace(company.Name)
	if company.Name == "" {
		return validationError("company name is required")
	}
	return nil
}

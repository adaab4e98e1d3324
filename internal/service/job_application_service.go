package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

// JobApplicationService manages job applications. Related status and company
// rows are joined in explicitly after the applications are loaded.
type JobApplicationService interface {
	List(ctx context.Context) ([]domain.JobApplication, error)
	ListWithCompany(ctx context.Context) ([]domain.JobApplication, error)
	Get(ctx context.Context, id int64) (*domain.JobApplication, error)
	GetWithCompany(ctx context.Context, id int64) (*domain.JobApplication, error)
	Create(ctx context.Context, app *domain.JobApplication) (*domain.JobApplication, error)
	Update(ctx context.Context, app *domain.JobApplication) error
	// Delete removes the application and its attachments. Attachment cleanup
	// failures do not fail the call; they come back as warnings.
	Delete(ctx context.Context, id int64) ([]string, error)
}

type jobApplicationService struct {
	applications repository.JobApplicationRepository
	companies    repository.CompanyRepository
	statuses     repository.StatusRepository
	attachments  AttachmentService
	logger       logrus.FieldLogger
}

// NewJobApplicationService builds the service. attachments may be nil.
func NewJobApplicationService(
	applications repository.JobApplicationRepository,
	companies repository.CompanyRepository,
	statuses repository.StatusRepository,
	attachments AttachmentService,
	logger logrus.FieldLogger,
) JobApplicationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &jobApplicationService{
		applications: applications,
		companies:    companies,
		statuses:     statuses,
		attachments:  attachments,
		logger:       logger,
	}
}

func (s *jobApplicationService) List(ctx context.Context) ([]domain.JobApplication, error) {
	apps, err := s.applications.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.joinStatuses(ctx, apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *jobApplicationService) ListWithCompany(ctx context.Context) ([]domain.JobApplication, error) {
	apps, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.joinCompanies(ctx, apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *jobApplicationService) Get(ctx context.Context, id int64) (*domain.JobApplication, error) {
	app, err := s.applications.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apps := []domain.JobApplication{*app}
	if err := s.joinStatuses(ctx, apps); err != nil {
		return nil, err
	}
	return &apps[0], nil
}

func (s *jobApplicationService) GetWithCompany(ctx context.Context, id int64) (*domain.JobApplication, error) {
	app, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apps := []domain.JobApplication{*app}
	if err := s.joinCompanies(ctx, apps); err != nil {
		return nil, err
	}
	return &apps[0], nil
}

func (s *jobApplicationService) Create(ctx context.Context, app *domain.JobApplication) (*domain.JobApplication, error) {
	if err := s.validate(ctx, app); err != nil {
		return nil, err
	}
	if _, err := s.applications.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create job application: %w", err)
	}
	return s.Get(ctx, app.ID)
}

func (s *jobApplicationService) Update(ctx context.Context, app *domain.JobApplication) error {
	if _, err := s.applications.Get(ctx, app.ID); err != nil {
		return err
	}
	if err := s.validate(ctx, app); err != nil {
		return err
	}
	return s.applications.Update(ctx, app)
}

func (s *jobApplicationService) Delete(ctx context.Context, id int64) ([]string, error) {
	if _, err := s.applications.Get(ctx, id); err != nil {
		return nil, err
	}

	var warnings []string
	if s.attachments != nil && s.attachments.Enabled() {
		if err := s.attachments.DeleteAll(ctx, id); err != nil {
			s.logger.WithError(err).WithField("job_application_id", id).Warn("delete attachments")
			warnings = append(warnings, fmt.Sprintf("delete attachments: %v", err))
		}
	}

	if err := s.applications.Delete(ctx, id); err != nil {
		return warnings, err
	}
	return warnings, nil
}

func (s *jobApplicationService) validate(ctx context.Context, app *domain.JobApplication) error {
	app.Role = strings.TrimSpace(app.Role)
	if app.Role == "" {
		return validationError("role is required")
	}
	if app.CompanyID != nil {
		if _, err := s.companies.Get(ctx, *app.CompanyID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("company %d: %w", *app.CompanyID, ErrInvalidReference)
			}
			return err
		}
	}
	if app.StatusID != nil {
		if _, err := s.statuses.Get(ctx, *app.StatusID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("status %d: %w", *app.StatusID, ErrInvalidReference)
			}
			return err
		}
	}
	return nil
}

func (s *jobApplicationService) joinStatuses(ctx context.Context, apps []domain.JobApplication) error {
	ids := referencedIDs(apps, func(a domain.JobApplication) *int64 { return a.StatusID })
	if len(ids) == 0 {
		return nil
	}
	statuses, err := s.statuses.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]domain.JobApplicationStatus, len(statuses))
	for _, st := range statuses {
		byID[st.ID] = st
	}
	for i := range apps {
		if apps[i].StatusID == nil {
			continue
		}
		if st, ok := byID[*apps[i].StatusID]; ok {
			apps[i].Status = &st
		}
	}
	return nil
}

func (s *jobApplicationService) joinCompanies(ctx context.Context, apps []domain.JobApplication) error {
	ids := referencedIDs(apps, func(a domain.JobApplication) *int64 { return a.CompanyID })
	if len(ids) == 0 {
		return nil
	}
	companies, err := s.companies.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[int64]domain.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}
	for i := range apps {
		if apps[i].CompanyID == nil {
			continue
		}
		if c, ok := byID[*apps[i].CompanyID]; ok {
			apps[i].Company = &c
		}
	}
	return nil
}

func referencedIDs(apps []domain.JobApplication, ref func(domain.JobApplication) *int64) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, app := range apps {
		id := ref(app)
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	return ids
}

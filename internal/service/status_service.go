package service

import (
	"context"
	"fmt"
	"strings"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
)

// StatusService manages the job application status lookup table.
type StatusService interface {
	List(ctx context.Context) ([]domain.JobApplicationStatus, error)
	Get(ctx context.Context, id int64) (*domain.JobApplicationStatus, error)
	Create(ctx context.Context, name string) (*domain.JobApplicationStatus, error)
	Update(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

type statusService struct {
	statuses repository.StatusRepository
}

func NewStatusService(statuses repository.StatusRepository) StatusService {
	return &statusService{statuses: statuses}
}

func (s *statusService) List(ctx context.Context) ([]domain.JobApplicationStatus, error) {
	return s.statuses.List(ctx)
}

func (s *statusService) Get(ctx context.Context, id int64) (*domain.JobApplicationStatus, error) {
	return s.statuses.Get(ctx, id)
}

func (s *statusService) Create(ctx context.Context, name string) (*domain.JobApplicationStatus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("status name is required")
	}
	status := &domain.JobApplicationStatus{Name: name}
	if _, err := s.statuses.Create(ctx, status); err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	return status, nil
}

func (s *statusService) Update(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationError("status name is required")
	}
	return s.statuses.Update(ctx, &domain.JobApplicationStatus{ID: id, Name: name})
}

// Delete removes the status. Applications in that status keep no status.
func (s *statusService) Delete(ctx context.Context, id int64) error {
	return s.statuses.Delete(ctx, id)
}

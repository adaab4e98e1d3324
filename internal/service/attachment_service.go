package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"job-tracker/internal/domain"
	"job-tracker/internal/repository"
	"job-tracker/internal/storage"
)

// AttachmentService stores job application files in object storage under
// <key prefix>/applications/<id>/.
type AttachmentService interface {
	Enabled() bool
	List(ctx context.Context, applicationID int64) ([]domain.Attachment, error)
	Upload(ctx context.Context, applicationID int64, filename string, body io.Reader, size int64, contentType string) (*domain.Attachment, error)
	URL(ctx context.Context, applicationID int64, key string) (string, error)
	Delete(ctx context.Context, applicationID int64, key string) error
	DeleteAll(ctx context.Context, applicationID int64) error
}

// AttachmentConfig locates attachments in the bucket.
type AttachmentConfig struct {
	Bucket    string
	KeyPrefix string
	URLTTL    time.Duration
}

type attachmentService struct {
	applications repository.JobApplicationRepository
	store        storage.Service
	cfg          AttachmentConfig
	logger       logrus.FieldLogger
}

// NewAttachmentService returns a service that is disabled when store is nil
// or no bucket is configured.
func NewAttachmentService(applications repository.JobApplicationRepository, store storage.Service, cfg AttachmentConfig, logger logrus.FieldLogger) AttachmentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.URLTTL <= 0 {
		cfg.URLTTL = 15 * time.Minute
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &attachmentService{
		applications: applications,
		store:        store,
		cfg:          cfg,
		logger:       logger,
	}
}

func (s *attachmentService) Enabled() bool {
	return s.store != nil && s.cfg.Bucket != ""
}

func (s *attachmentService) List(ctx context.Context, applicationID int64) ([]domain.Attachment, error) {
	if err := s.check(ctx, applicationID); err != nil {
		return nil, err
	}
	prefix := s.prefix(applicationID)
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, prefix)
	if err != nil {
		return nil, err
	}
	attachments := make([]domain.Attachment, 0, len(objects))
	for _, obj := range objects {
		attachments = append(attachments, domain.Attachment{
			Key:          obj.Key,
			Name:         strings.TrimPrefix(obj.Key, prefix),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return attachments, nil
}

func (s *attachmentService) Upload(ctx context.Context, applicationID int64, filename string, body io.Reader, size int64, contentType string) (*domain.Attachment, error) {
	if err := s.check(ctx, applicationID); err != nil {
		return nil, err
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return nil, validationError("file name is required")
	}

	key := s.prefix(applicationID) + name
	log := s.logger.WithFields(logrus.Fields{"job_application_id": applicationID, "key": key})
	_, err := s.store.Upload(ctx, s.cfg.Bucket, key, body, storage.UploadOptions{
		ContentType: contentType,
		Size:        size,
		ProgressCallback: func(done, total int64) {
			log.WithFields(logrus.Fields{"done": done, "total": total}).Debug("attachment upload progress")
		},
	})
	if err != nil {
		return nil, err
	}
	log.Info("attachment uploaded")

	now := time.Now().UTC()
	return &domain.Attachment{Key: key, Name: name, Size: size, LastModified: &now}, nil
}

func (s *attachmentService) URL(ctx context.Context, applicationID int64, key string) (string, error) {
	if err := s.checkKey(ctx, applicationID, key); err != nil {
		return "", err
	}
	return s.store.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLTTL)
}

func (s *attachmentService) Delete(ctx context.Context, applicationID int64, key string) error {
	if err := s.checkKey(ctx, applicationID, key); err != nil {
		return err
	}
	return s.store.DeleteObject(ctx, s.cfg.Bucket, key)
}

func (s *attachmentService) DeleteAll(ctx context.Context, applicationID int64) error {
	if !s.Enabled() {
		return ErrStorageUnavailable
	}
	return s.store.DeletePrefix(ctx, s.cfg.Bucket, s.prefix(applicationID))
}

func (s *attachmentService) prefix(applicationID int64) string {
	p := fmt.Sprintf("applications/%d/", applicationID)
	if s.cfg.KeyPrefix != "" {
		p = s.cfg.KeyPrefix + "/" + p
	}
	return p
}

func (s *attachmentService) check(ctx context.Context, applicationID int64) error {
	if !s.Enabled() {
		return ErrStorageUnavailable
	}
	_, err := s.applications.Get(ctx, applicationID)
	return err
}

// checkKey keeps callers inside the application's own prefix.
func (s *attachmentService) checkKey(ctx context.Context, applicationID int64, key string) error {
	if err := s.check(ctx, applicationID); err != nil {
		return err
	}
	prefix := s.prefix(applicationID)
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) || strings.Contains(key, "..") {
		return validationError("attachment key does not belong to job application %d", applicationID)
	}
	return nil
}

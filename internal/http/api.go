package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"job-tracker/internal/domain"
	"job-tracker/internal/service"
)

// Services are the domain services the HTTP layer dispatches to.
type Services struct {
	Auth         service.AuthService
	Companies    service.CompanyService
	Applications service.JobApplicationService
	Statuses     service.StatusService
	Attachments  service.AttachmentService
}

// Options tune the HTTP layer.
type Options struct {
	// AccessTokenTTL is reported to clients as expires_in.
	AccessTokenTTL time.Duration
	AuthRateLimit  RateLimitConfig
	// MaxAttachmentBytes caps multipart uploads. Zero means 10 MiB.
	MaxAttachmentBytes int64
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth         service.AuthService
	companies    service.CompanyService
	applications service.JobApplicationService
	statuses     service.StatusService
	attachments  service.AttachmentService
	opts         Options
	logger       logrus.FieldLogger
}

func NewHandler(services Services, opts Options, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.MaxAttachmentBytes <= 0 {
		opts.MaxAttachmentBytes = 10 << 20
	}
	return &Handler{
		auth:         services.Auth,
		companies:    services.Companies,
		applications: services.Applications,
		statuses:     services.Statuses,
		attachments:  services.Attachments,
		opts:         opts,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := api.Group("/auth", rateLimitMiddleware(h.opts.AuthRateLimit, h.logger))
	{
		public.POST("/register", h.register)
		public.POST("/login", h.login)
		public.POST("/refresh-token", h.refreshToken)
	}

	admin := h.requireRole(domain.RoleAdmin)
	protected := api.Group("", h.authenticate())
	{
		protected.GET("/auth/me", h.me)
		protected.GET("/roles", admin, h.listRoles)
		protected.POST("/users/:id/roles", admin, h.assignRole)

		protected.GET("/companies", h.listCompanies)
		protected.GET("/companies/with-job-applications", h.listCompaniesWithApplications)
		protected.POST("/companies", h.createCompany)
		protected.GET("/companies/:id", h.getCompany)
		protected.GET("/companies/:id/with-job-applications", h.getCompanyWithApplications)
		protected.PUT("/companies/:id", h.updateCompany)
		protected.DELETE("/companies/:id", admin, h.deleteCompany)

		protected.GET("/jobapplications", h.listApplications)
		protected.GET("/jobapplications/with-company", h.listApplicationsWithCompany)
		protected.POST("/jobapplications", h.createApplication)
		protected.GET("/jobapplications/:id", h.getApplication)
		protected.GET("/jobapplications/:id/with-company", h.getApplicationWithCompany)
		protected.PUT("/jobapplications/:id", h.updateApplication)
		protected.DELETE("/jobapplications/:id", h.deleteApplication)

		protected.GET("/jobapplications/:id/attachments", h.listAttachments)
		protected.POST("/jobapplications/:id/attachments", h.uploadAttachment)
		protected.GET("/jobapplications/:id/attachments/url", h.attachmentURL)
		protected.DELETE("/jobapplications/:id/attachments", h.deleteAttachment)

		protected.GET("/jobapplicationstatuses", h.listStatuses)
		protected.GET("/jobapplicationstatuses/:id", h.getStatus)
		protected.POST("/jobapplicationstatuses", admin, h.createStatus)
		protected.PUT("/jobapplicationstatuses/:id", admin, h.updateStatus)
		protected.DELETE("/jobapplicationstatuses/:id", admin, h.deleteStatus)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"job-tracker/internal/domain"
)

type companyRequest struct {
	Name         string  `json:"name" binding:"required"`
	HR           *string `json:"hr"`
	Headquarters *string `json:"headquarters"`
}

type statusRequest struct {
	Name string `json:"name" binding:"required"`
}

type jobApplicationRequest struct {
	Role            string  `json:"role" binding:"required"`
	Location        *string `json:"location"`
	ApplicationDate *string `json:"application_date"`
	StatusID        *int64  `json:"status_id"`
	CompanyID       *int64  `json:"company_id"`
}

func (r jobApplicationRequest) toDomain(id int64) (*domain.JobApplication, error) {
	app := &domain.JobApplication{
		ID:        id,
		Role:      r.Role,
		Location:  r.Location,
		StatusID:  r.StatusID,
		CompanyID: r.CompanyID,
	}
	if r.ApplicationDate != nil && strings.TrimSpace(*r.ApplicationDate) != "" {
		d, err := time.Parse(domain.DateLayout, strings.TrimSpace(*r.ApplicationDate))
		if err != nil {
			return nil, err
		}
		app.ApplicationDate = &d
	}
	return app, nil
}

// companies

func (h *Handler) listCompanies(c *gin.Context) {
	companies, err := h.companies.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]CompanyResponse, len(companies))
	for i := range companies {
		resp[i] = companyToResponse(companies[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listCompaniesWithApplications(c *gin.Context) {
	companies, err := h.companies.ListWithApplications(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]CompanyWithApplicationsResponse, len(companies))
	for i := range companies {
		resp[i] = companyWithApplicationsToResponse(companies[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getCompany(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	company, err := h.companies.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, companyToResponse(*company))
}

func (h *Handler) getCompanyWithApplications(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	company, err := h.companies.GetWithApplications(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, companyWithApplicationsToResponse(*company))
}

func (h *Handler) createCompany(c *gin.Context) {
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "company name is required")
		return
	}
	company, err := h.companies.Create(c.Request.Context(), &domain.Company{
		Name:         req.Name,
		HR:           req.HR,
		Headquarters: req.Headquarters,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, companyToResponse(*company))
}

func (h *Handler) updateCompany(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "company name is required")
		return
	}
	err := h.companies.Update(c.Request.Context(), &domain.Company{
		ID:           id,
		Name:         req.Name,
		HR:           req.HR,
		Headquarters: req.Headquarters,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteCompany(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.companies.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// job applications

func (h *Handler) listApplications(c *gin.Context) {
	apps, err := h.applications.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, applicationsToResponse(apps))
}

func (h *Handler) listApplicationsWithCompany(c *gin.Context) {
	apps, err := h.applications.ListWithCompany(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, applicationsToResponse(apps))
}

func (h *Handler) getApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	app, err := h.applications.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, applicationToResponse(*app))
}

func (h *Handler) getApplicationWithCompany(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	app, err := h.applications.GetWithCompany(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, applicationToResponse(*app))
}

func (h *Handler) createApplication(c *gin.Context) {
	var req jobApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role is required")
		return
	}
	app, err := req.toDomain(0)
	if err != nil {
		badRequest(c, "application_date must be YYYY-MM-DD")
		return
	}
	created, err := h.applications.Create(c.Request.Context(), app)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, applicationToResponse(*created))
}

func (h *Handler) updateApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req jobApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role is required")
		return
	}
	app, err := req.toDomain(id)
	if err != nil {
		badRequest(c, "application_date must be YYYY-MM-DD")
		return
	}
	if err := h.applications.Update(c.Request.Context(), app); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	warnings, err := h.applications.Delete(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := gin.H{"deleted": id}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

func applicationsToResponse(apps []domain.JobApplication) []JobApplicationResponse {
	resp := make([]JobApplicationResponse, len(apps))
	for i := range apps {
		resp[i] = applicationToResponse(apps[i])
	}
	return resp
}

// statuses

func (h *Handler) listStatuses(c *gin.Context) {
	statuses, err := h.statuses.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := make([]StatusResponse, len(statuses))
	for i := range statuses {
		resp[i] = statusToResponse(statuses[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	status, err := h.statuses.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusToResponse(*status))
}

func (h *Handler) createStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status name is required")
		return
	}
	status, err := h.statuses.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, statusToResponse(*status))
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status name is required")
		return
	}
	if err := h.statuses.Update(c.Request.Context(), id, req.Name); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.statuses.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package http

import (
	"time"

	"job-tracker/internal/domain"
)

type UserResponse struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type RoleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    string `json:"expires_at"`
}

type CompanyResponse struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	HR           *string `json:"hr"`
	Headquarters *string `json:"headquarters"`
}

type CompanyWithApplicationsResponse struct {
	CompanyResponse
	JobApplications []JobApplicationResponse `json:"job_applications"`
}

type StatusResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type JobApplicationResponse struct {
	ID              int64            `json:"id"`
	Role            string           `json:"role"`
	Location        *string          `json:"location"`
	ApplicationDate *string          `json:"application_date"`
	StatusID        *int64           `json:"status_id"`
	CompanyID       *int64           `json:"company_id"`
	Status          *StatusResponse  `json:"status,omitempty"`
	Company         *CompanyResponse `json:"company,omitempty"`
}

type AttachmentResponse struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Roles:    user.RoleNames(),
	}
}

func (h *Handler) tokenResponse(pair *domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.opts.AccessTokenTTL.Seconds()),
		ExpiresAt:    pair.AccessExpiresAt.UTC().Format(time.RFC3339),
	}
}

func companyToResponse(company domain.Company) CompanyResponse {
	return CompanyResponse{
		ID:           company.ID,
		Name:         company.Name,
		HR:           company.HR,
		Headquarters: company.Headquarters,
	}
}

func companyWithApplicationsToResponse(company domain.Company) CompanyWithApplicationsResponse {
	resp := CompanyWithApplicationsResponse{
		CompanyResponse: companyToResponse(company),
		JobApplications: make([]JobApplicationResponse, len(company.JobApplications)),
	}
	for i := range company.JobApplications {
		resp.JobApplications[i] = applicationToResponse(company.JobApplications[i])
	}
	return resp
}

func statusToResponse(status domain.JobApplicationStatus) StatusResponse {
	return StatusResponse{ID: status.ID, Name: status.Name}
}

func applicationToResponse(app domain.JobApplication) JobApplicationResponse {
	resp := JobApplicationResponse{
		ID:        app.ID,
		Role:      app.Role,
		Location:  app.Location,
		StatusID:  app.StatusID,
		CompanyID: app.CompanyID,
	}
	if app.ApplicationDate != nil {
		v := app.ApplicationDate.Format(domain.DateLayout)
		resp.ApplicationDate = &v
	}
	if app.Status != nil {
		st := statusToResponse(*app.Status)
		resp.Status = &st
	}
	if app.Company != nil {
		c := companyToResponse(*app.Company)
		resp.Company = &c
	}
	return resp
}

func attachmentToResponse(att domain.Attachment) AttachmentResponse {
	resp := AttachmentResponse{
		Key:  att.Key,
		Name: att.Name,
		Size: att.Size,
	}
	if att.LastModified != nil && !att.LastModified.IsZero() {
		v := att.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

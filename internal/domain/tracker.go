package domain

import "time"

// Company is an employer that job applications can be filed against.
type Company struct {
	ID           int64
	Name         string
	HR           *string
	Headquarters *string

	// JobApplications is only populated by the explicit "with job applications" projection.
	JobApplications []JobApplication
}

// JobApplicationStatus is a step in the application pipeline ("Applied", "Interview", ...).
type JobApplicationStatus struct {
	ID   int64
	Name string
}

// JobApplication tracks a single application. Related rows are referenced by
// foreign key; Status and Company are filled in by the service when requested.
type JobApplication struct {
	ID              int64
	Role            string
	Location        *string
	ApplicationDate *time.Time
	StatusID        *int64
	CompanyID       *int64

	Status  *JobApplicationStatus
	Company *Company
}

// DateLayout is the wire and storage format of JobApplication.ApplicationDate.
const DateLayout = "2006-01-02"

// Attachment is a file (CV, cover letter) stored in object storage for a job application.
type Attachment struct {
	Key          string
	Name         string
	Size         int64
	LastModified *time.Time
}

package domain

import (
	"context"
	"io"
	"time"
)

type ApplicationStatus string

const (
	StatusApplied  ApplicationStatus = "APPLIED"
	StatusReviewed ApplicationStatus = "REVIEWED"
	StatusRejected ApplicationStatus = "REJECTED"
	StatusHired    ApplicationStatus = "HIRED"
)

// applicationTransitions is the status graph. HIRED and REJECTED have no
// outgoing edges.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusApplied:  {StatusReviewed, StatusRejected, StatusHired},
	StatusReviewed: {StatusRejected, StatusHired},
	StatusRejected: nil,
	StatusHired:    nil,
}

// ParseApplicationStatus returns the status named by s, if any.
func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	st := ApplicationStatus(s)
	_, ok := applicationTransitions[st]
	return st, ok
}

func (s ApplicationStatus) Valid() bool {
	_, ok := applicationTransitions[s]
	return ok
}

func (s ApplicationStatus) IsTerminal() bool {
	return s.Valid() && len(applicationTransitions[s]) == 0
}

// AllowedTransitions returns a copy of the statuses reachable from s in one step.
func (s ApplicationStatus) AllowedTransitions() []ApplicationStatus {
	next := applicationTransitions[s]
	out := make([]ApplicationStatus, len(next))
	copy(out, next)
	return out
}

func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, candidate := range applicationTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ApplicantDetails is the applicant's profile snapshot shown to recruiters.
type ApplicantDetails struct {
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Skills         []string        `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Certifications []Certification `json:"certifications"`
	ProfilePicture *string         `json:"profile_picture"`
}

type Application struct {
	ID               int64             `json:"id"`
	Job              int64             `json:"job"`
	JobTitle         string            `json:"job_title"`
	Applicant        int64             `json:"applicant"`
	ApplicantEmail   string            `json:"applicant_email"`
	Responses        map[string]string `json:"responses"`
	Status           ApplicationStatus `json:"status"`
	ResumeURL        *string           `json:"resume_url"`
	ApplicantDetails *ApplicantDetails `json:"applicant_details"`
	CreatedAt        time.Time         `json:"applied_at"`
}

type ApplyInput struct {
	Job       int64             `json:"job" validate:"required,gt=0"`
	Responses map[string]string `json:"responses"`
}

type StatusInput struct {
	Status string `json:"status"`
}

type ApplicationFilter struct {
	// Exactly one of RecruiterID or ApplicantID scopes the listing.
	RecruiterID int64
	ApplicantID int64
	JobID       int64
}

// ResumeFile is an open resume ready to be streamed to the client.
type ResumeFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id int64) (*Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]Application, error)
	// UpdateStatus moves the application from one status to another. It
	// returns ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int64, from, to ApplicationStatus) error
}

type ApplicationUsecase interface {
	Apply(ctx context.Context, actor Actor, in *ApplyInput) (*Application, error)
	List(ctx context.Context, actor Actor, jobID int64) ([]Application, error)
	UpdateStatus(ctx context.Context, actor Actor, id int64, status string) (*Application, error)
	OpenResume(ctx context.Context, actor Actor, id int64) (*ResumeFile, error)
	ExportApplications(ctx context.Context, actor Actor, jobID int64, w io.Writer) (string, error)
}

// StatusNotice is sent to the applicant after a status change.
type StatusNotice struct {
	ApplicationID  int64
	ApplicantEmail string
	ApplicantName  string
	JobTitle       string
	Status         ApplicationStatus
}

type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, n StatusNotice) error
}

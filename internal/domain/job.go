package domain

import (
	"context"
	"time"
)

// DateLayout is the wire format of job deadlines.
const DateLayout = "2006-01-02"

type Question struct {
	ID       string `json:"id"`
	Text     string `json:"text" validate:"required,no_blank"`
	Required bool   `json:"required"`
	Type     string `json:"type"`
}

type RequirementsSchema struct {
	Questions          []Question `json:"questions" validate:"dive"`
	AttachmentRequired bool       `json:"attachment_required"`
}

// RequiredQuestions returns the questions an applicant must answer.
func (s RequirementsSchema) RequiredQuestions() []Question {
	var out []Question
	for _, q := range s.Questions {
		if q.Required {
			out = append(out, q)
		}
	}
	return out
}

type Job struct {
	ID                 int64              `json:"id"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Location           string             `json:"location"`
	SalaryRange        string             `json:"salary_range"`
	Deadline           string             `json:"deadline"`
	Recruiter          int64              `json:"recruiter"`
	RecruiterEmail     string             `json:"recruiter_email"`
	RequirementsSchema RequirementsSchema `json:"requirements_schema"`
	CreatedAt          time.Time          `json:"created_at"`
}

type JobInput struct {
	Title              string             `json:"title" validate:"required,no_blank,max=255"`
	Description        string             `json:"description" validate:"required,no_blank"`
	Location           string             `json:"location" validate:"required,no_blank,max=255"`
	SalaryRange        string             `json:"salary_range" validate:"max=100"`
	Deadline           string             `json:"deadline" validate:"required,datetime=2006-01-02"`
	RequirementsSchema RequirementsSchema `json:"requirements_schema"`
}

// JobPatch carries the fields of a partial update; nil means untouched.
type JobPatch struct {
	Title              *string             `json:"title" validate:"omitempty,no_blank,max=255"`
	Description        *string             `json:"description" validate:"omitempty,no_blank"`
	Location           *string             `json:"location" validate:"omitempty,no_blank,max=255"`
	SalaryRange        *string             `json:"salary_range" validate:"omitempty,max=100"`
	Deadline           *string             `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	RequirementsSchema *RequirementsSchema `json:"requirements_schema"`
}

type JobFilter struct {
	Search      string
	RecruiterID int64
}

type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id int64) (*Job, error)
	List(ctx context.Context, filter JobFilter) ([]Job, error)
	Update(ctx context.Context, job *Job) error
	Delete(ctx context.Context, id int64) error
}

type JobUsecase interface {
	CreateJob(ctx context.Context, actor Actor, in *JobInput) (*Job, error)
	GetJob(ctx context.Context, id int64) (*Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]Job, error)
	UpdateJob(ctx context.Context, actor Actor, id int64, patch *JobPatch) (*Job, error)
	DeleteJob(ctx context.Context, actor Actor, id int64) error
}

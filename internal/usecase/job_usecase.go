package usecase

import (
	"context"
	"errors"
	"strings"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type jobUsecase struct {
	jobRepo  domain.JobRepository
	validate *validator.Validate
}

func NewJobUsecase(jobRepo domain.JobRepository, validate *validator.Validate) domain.JobUsecase {
	return &jobUsecase{jobRepo: jobRepo, validate: validate}
}

func (u *jobUsecase) CreateJob(ctx context.Context, actor domain.Actor, in *domain.JobInput) (*domain.Job, error) {
	if actor.Role != domain.RoleHR {
		return nil, apperror.Forbidden("Only recruiters can post jobs")
	}
	if err := u.validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}
	schema, err := normalizeSchema(in.RequirementsSchema)
	if err != nil {
		return nil, err
	}

	job := &domain.Job{
		Title:              strings.TrimSpace(in.Title),
		Description:        in.Description,
		Location:           strings.TrimSpace(in.Location),
		SalaryRange:        strings.TrimSpace(in.SalaryRange),
		Deadline:           in.Deadline,
		Recruiter:          actor.ID,
		RequirementsSchema: schema,
	}
	if err := u.jobRepo.Create(ctx, job); err != nil {
		return nil, apperror.Internal(err)
	}
	logger.Log.Info("job created", "job_id", job.ID, "recruiter_id", actor.ID)
	return job, nil
}

// normalizeSchema assigns ids to questions that lack one and rejects
// duplicate ids, since answers are keyed by question id.
func normalizeSchema(schema domain.RequirementsSchema) (domain.RequirementsSchema, error) {
	questions := make([]domain.Question, 0, len(schema.Questions))
	seen := make(map[string]bool, len(schema.Questions))
	for _, q := range schema.Questions {
		q.ID = strings.TrimSpace(q.ID)
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if seen[q.ID] {
			return schema, apperror.BadRequest("Duplicate question id: " + q.ID)
		}
		seen[q.ID] = true
		if q.Type == "" {
			q.Type = "text"
		}
		questions = append(questions, q)
	}
	schema.Questions = questions
	return schema, nil
}

func (u *jobUsecase) GetJob(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := u.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Job not found")
	}
	return job, nil
}

func (u *jobUsecase) ListJobs(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	jobs, err := u.jobRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return jobs, nil
}

func (u *jobUsecase) UpdateJob(ctx context.Context, actor domain.Actor, id int64, patch *domain.JobPatch) (*domain.Job, error) {
	job, err := u.ownedJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := u.validate.Struct(patch); err != nil {
		return nil, invalidInput(err)
	}

	if patch.Title != nil {
		job.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		job.Description = *patch.Description
	}
	if patch.Location != nil {
		job.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.SalaryRange != nil {
		job.SalaryRange = strings.TrimSpace(*patch.SalaryRange)
	}
	if patch.Deadline != nil {
		job.Deadline = *patch.Deadline
	}
	if patch.RequirementsSchema != nil {
		if err := u.validate.Struct(patch.RequirementsSchema); err != nil {
			return nil, invalidInput(err)
		}
		schema, err := normalizeSchema(*patch.RequirementsSchema)
		if err != nil {
			return nil, err
		}
		job.RequirementsSchema = schema
	}

	if err := u.jobRepo.Update(ctx, job); err != nil {
		return nil, notFoundOr(err, "Job not found")
	}
	return job, nil
}

func (u *jobUsecase) DeleteJob(ctx context.Context, actor domain.Actor, id int64) error {
	if _, err := u.ownedJob(ctx, actor, id); err != nil {
		return err
	}
	if err := u.jobRepo.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Job not found")
	}
	logger.Log.Info("job deleted", "job_id", id, "recruiter_id", actor.ID)
	return nil
}

// ownedJob loads job id and checks the actor posted it.
func (u *jobUsecase) ownedJob(ctx context.Context, actor domain.Actor, id int64) (*domain.Job, error) {
	job, err := u.jobRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Job not found")
		}
		return nil, apperror.Internal(err)
	}
	if actor.Role != domain.RoleHR || job.Recruiter != actor.ID {
		return nil, apperror.Forbidden("You do not have permission to perform this action.")
	}
	return job, nil
}

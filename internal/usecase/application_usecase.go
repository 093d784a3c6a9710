package usecase

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/logger"
	"go-jobboard-backend/pkg/security"
	"go-jobboard-backend/pkg/storage"

	"github.com/go-playground/validator/v10"
)

type applicationUsecase struct {
	applicationRepo domain.ApplicationRepository
	jobRepo         domain.JobRepository
	profileRepo     domain.ProfileRepository
	store           storage.ObjectStore
	notifier        domain.StatusNotifier
	validate        *validator.Validate
}

// NewApplicationUsecase creates a new application usecase. notifier may be nil.
func NewApplicationUsecase(
	appRepo domain.ApplicationRepository,
	jobRepo domain.JobRepository,
	profileRepo domain.ProfileRepository,
	store storage.ObjectStore,
	notifier domain.StatusNotifier,
	validate *validator.Validate,
) domain.ApplicationUsecase {
	return &applicationUsecase{
		applicationRepo: appRepo,
		jobRepo:         jobRepo,
		profileRepo:     profileRepo,
		store:           store,
		notifier:        notifier,
		validate:        validate,
	}
}

// Apply submits the seeker's answers to a job. Every required question
// needs a non-blank answer and a seeker may apply once per job.
func (uc *applicationUsecase) Apply(ctx context.Context, actor domain.Actor, in *domain.ApplyInput) (*domain.Application, error) {
	if actor.Role != domain.RoleSeeker {
		return nil, apperror.Forbidden("Only job seekers can apply to jobs")
	}
	if err := uc.validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}

	job, err := uc.jobRepo.GetByID(ctx, in.Job)
	if err != nil {
		return nil, notFoundOr(err, "Job not found")
	}

	responses := make(map[string]string, len(job.RequirementsSchema.Questions))
	for _, q := range job.RequirementsSchema.Questions {
		answer := strings.TrimSpace(in.Responses[q.ID])
		if q.Required && answer == "" {
			return nil, apperror.BadRequest("Missing answer for required question: " + q.Text)
		}
		if answer != "" {
			responses[q.ID] = answer
		}
	}

	if job.RequirementsSchema.AttachmentRequired {
		profile, err := uc.profileRepo.GetOrCreate(ctx, actor.ID)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if profile.Resume == nil || *profile.Resume == "" {
			return nil, apperror.BadRequest("This job requires a resume. Upload one to your profile before applying.")
		}
	}

	app := &domain.Application{
		Job:       job.ID,
		Applicant: actor.ID,
		Responses: responses,
		Status:    domain.StatusApplied,
	}
	if err := uc.applicationRepo.Create(ctx, app); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			return nil, apperror.New(http.StatusConflict, "You have already applied for this job.", err)
		case errors.Is(err, domain.ErrNotFound):
			return nil, apperror.New(http.StatusNotFound, "Job not found", err)
		}
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("application submitted", "application_id", app.ID, "job_id", job.ID, "applicant_id", actor.ID)
	return app, nil
}

// List returns the applications visible to the actor: recruiters see those
// on their own jobs, seekers their own. jobID narrows the set when non-zero.
func (uc *applicationUsecase) List(ctx context.Context, actor domain.Actor, jobID int64) ([]domain.Application, error) {
	filter := domain.ApplicationFilter{JobID: jobID}
	switch actor.Role {
	case domain.RoleHR:
		filter.RecruiterID = actor.ID
	case domain.RoleSeeker:
		filter.ApplicantID = actor.ID
	default:
		return nil, apperror.Forbidden("You do not have permission to perform this action.")
	}

	apps, err := uc.applicationRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return apps, nil
}

func (uc *applicationUsecase) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, status string) (*domain.Application, error) {
	app, job, err := uc.recruiterApplication(ctx, actor, id, "update_status")
	if err != nil {
		return nil, err
	}

	next, ok := domain.ParseApplicationStatus(strings.TrimSpace(status))
	if !ok {
		return nil, apperror.BadRequest("Invalid status")
	}
	if !app.Status.CanTransitionTo(next) {
		return nil, apperror.New(http.StatusConflict,
			fmt.Sprintf("Cannot change status from %s to %s", app.Status, next),
			domain.ErrInvalidTransition)
	}

	if err := uc.applicationRepo.UpdateStatus(ctx, app.ID, app.Status, next); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, apperror.New(http.StatusConflict,
				"Application status was changed by another request. Reload and try again.", err)
		}
		return nil, notFoundOr(err, "Application not found")
	}
	security.DefaultLogger().LogStatusChanged(ctx, strconv.FormatInt(actor.ID, 10), app.ID, string(app.Status), string(next))

	updated, err := uc.applicationRepo.GetByID(ctx, app.ID)
	if err != nil {
		return nil, notFoundOr(err, "Application not found")
	}
	uc.notify(ctx, updated, job)
	return updated, nil
}

func (uc *applicationUsecase) notify(ctx context.Context, app *domain.Application, job *domain.Job) {
	if uc.notifier == nil {
		return
	}
	notice := domain.StatusNotice{
		ApplicationID:  app.ID,
		ApplicantEmail: app.ApplicantEmail,
		JobTitle:       job.Title,
		Status:         app.Status,
	}
	if d := app.ApplicantDetails; d != nil {
		notice.ApplicantName = strings.TrimSpace(d.FirstName + " " + d.LastName)
	}
	if err := uc.notifier.NotifyStatusChange(ctx, notice); err != nil {
		logger.Log.Warn("status notification failed", "application_id", app.ID, "error", err)
	}
}

var resumeContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func resumeContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := resumeContentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// OpenResume opens the applicant's resume for the recruiter who owns the job.
// The caller closes Body.
func (uc *applicationUsecase) OpenResume(ctx context.Context, actor domain.Actor, id int64) (*domain.ResumeFile, error) {
	app, _, err := uc.recruiterApplication(ctx, actor, id, "resume")
	if err != nil {
		return nil, err
	}
	if app.ResumeURL == nil || *app.ResumeURL == "" {
		return nil, apperror.NotFound("No resume found for this applicant.")
	}

	key := *app.ResumeURL
	body, err := uc.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperror.NotFound("Resume file not found.")
		}
		return nil, apperror.Internal(err)
	}

	name := storage.DisplayName(key)
	return &domain.ResumeFile{
		Name:        name,
		ContentType: resumeContentType(name),
		Body:        body,
	}, nil
}

// recruiterApplication loads an application and its job and checks that the
// actor is the recruiter who posted the job.
func (uc *applicationUsecase) recruiterApplication(ctx context.Context, actor domain.Actor, id int64, action string) (*domain.Application, *domain.Job, error) {
	app, err := uc.applicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, notFoundOr(err, "Application not found")
	}
	job, err := uc.jobRepo.GetByID(ctx, app.Job)
	if err != nil {
		return nil, nil, notFoundOr(err, "Job not found")
	}
	if actor.Role != domain.RoleHR || job.Recruiter != actor.ID {
		requestID, _ := ctx.Value(domain.KeyRequestID).(string)
		security.DefaultLogger().LogAccessDenied(ctx, strconv.FormatInt(actor.ID, 10), "", requestID,
			"applications/"+strconv.FormatInt(id, 10)+"/"+action, "not_job_owner")
		return nil, nil, apperror.Forbidden("You do not have permission to perform this action.")
	}
	return app, job, nil
}

package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type JobService struct {
	client   *Client
	session  *Session
	validate *validator.Validate
}

func NewJobService(c *Client, s *Session) *JobService {
	return &JobService{client: c, session: s, validate: validation.New()}
}

func jobPath(id int64) string {
	return "jobs/" + strconv.FormatInt(id, 10) + "/"
}

// List returns the open jobs, newest first, optionally narrowed by search.
func (s *JobService) List(ctx context.Context, search string) ([]domain.Job, error) {
	query := url.Values{}
	if search = strings.TrimSpace(search); search != "" {
		query.Set("search", search)
	}
	var jobs []domain.Job
	if err := s.client.doJSON(ctx, http.MethodGet, "jobs/", query, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// MyJobs returns the jobs posted by the signed-in recruiter.
func (s *JobService) MyJobs(ctx context.Context) ([]domain.Job, error) {
	me := s.session.Identity()
	if me == nil {
		return nil, unauthenticated()
	}

	query := url.Values{"recruiter": {strconv.FormatInt(me.ID, 10)}}
	var jobs []domain.Job
	if err := s.client.doJSON(ctx, http.MethodGet, "jobs/", query, nil, &jobs); err != nil {
		return nil, err
	}

	mine := jobs[:0]
	for _, j := range jobs {
		if j.Recruiter == me.ID {
			mine = append(mine, j)
		}
	}
	return mine, nil
}

func (s *JobService) Get(ctx context.Context, id int64) (*domain.Job, error) {
	var job domain.Job
	if err := s.client.doJSON(ctx, http.MethodGet, jobPath(id), nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Create posts a job. Required fields are checked before any request is made.
func (s *JobService) Create(ctx context.Context, in domain.JobInput) (*domain.Job, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, invalid(validation.Message(err))
	}
	if in.RequirementsSchema.Questions == nil {
		in.RequirementsSchema.Questions = []domain.Question{}
	}

	var job domain.Job
	if err := s.client.doJSON(ctx, http.MethodPost, "jobs/", nil, in, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *JobService) Update(ctx context.Context, id int64, patch domain.JobPatch) (*domain.Job, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, invalid(validation.Message(err))
	}
	var job domain.Job
	if err := s.client.doJSON(ctx, http.MethodPatch, jobPath(id), nil, patch, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Delete removes a job once confirm returns true. It reports whether a
// delete request was sent and succeeded.
func (s *JobService) Delete(ctx context.Context, id int64, confirm func() bool) (bool, error) {
	if confirm == nil || !confirm() {
		return false, nil
	}
	if err := s.client.doJSON(ctx, http.MethodDelete, jobPath(id), nil, nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"
)

const defaultResumeName = "resume.pdf"

var errViewClosed = errors.New("resume view closed")

type ApplicationService struct {
	client *Client
}

func NewApplicationService(c *Client) *ApplicationService {
	return &ApplicationService{client: c}
}

func applicationPath(id int64, action string) string {
	return "applications/" + strconv.FormatInt(id, 10) + "/" + action + "/"
}

// Apply submits answers to job's questions. Every required question must
// have a non-blank answer; otherwise nothing is sent.
func (s *ApplicationService) Apply(ctx context.Context, job *domain.Job, responses map[string]string) (*domain.Application, error) {
	if job == nil || job.ID <= 0 {
		return nil, invalid("Job is required")
	}
	for _, q := range job.RequirementsSchema.RequiredQuestions() {
		if strings.TrimSpace(responses[q.ID]) == "" {
			return nil, invalid("Missing answer for required question: " + q.Text)
		}
	}
	if responses == nil {
		responses = map[string]string{}
	}

	var app domain.Application
	in := domain.ApplyInput{Job: job.ID, Responses: responses}
	if err := s.client.doJSON(ctx, http.MethodPost, "applications/", nil, in, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// List returns the caller's applications: their own as a seeker, those on
// their jobs as a recruiter.
func (s *ApplicationService) List(ctx context.Context) ([]domain.Application, error) {
	return s.list(ctx, nil)
}

func (s *ApplicationService) ListByJob(ctx context.Context, jobID int64) ([]domain.Application, error) {
	return s.list(ctx, url.Values{"job": {strconv.FormatInt(jobID, 10)}})
}

func (s *ApplicationService) list(ctx context.Context, query url.Values) ([]domain.Application, error) {
	var apps []domain.Application
	if err := s.client.doJSON(ctx, http.MethodGet, "applications/", query, nil, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateStatus asks the server to move the application to status. The server
// owns the status graph; AllowedTransitions is only a hint for what to offer.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id int64, status domain.ApplicationStatus) (*domain.Application, error) {
	if status == "" {
		return nil, invalid("Status is required")
	}
	var app domain.Application
	in := domain.StatusInput{Status: string(status)}
	if err := s.client.doJSON(ctx, http.MethodPost, applicationPath(id, "update_status"), nil, in, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// AllowedTransitions lists the statuses a recruiter may move from.
func AllowedTransitions(from domain.ApplicationStatus) []domain.ApplicationStatus {
	return from.AllowedTransitions()
}

// ResumeView is an in-memory copy of a resume for previewing. Close releases
// it; reads after Close fail.
type ResumeView struct {
	ContentType string
	Size        int

	mu     sync.Mutex
	reader *bytes.Reader
}

func (v *ResumeView) Read(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reader == nil {
		return 0, errViewClosed
	}
	return v.reader.Read(p)
}

func (v *ResumeView) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reader = nil
	return nil
}

// MaxResumeViewBytes caps how much of a resume ViewResume buffers in memory.
const MaxResumeViewBytes = 16 << 20

// ViewResume fetches the applicant's resume for inline display. Bodies over
// MaxResumeViewBytes fail with ErrTransport.
func (s *ApplicationService) ViewResume(ctx context.Context, id int64) (*ResumeView, error) {
	resp, err := s.client.send(ctx, http.MethodGet, applicationPath(id, "view_resume"), nil, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResumeViewBytes+1))
	if err != nil {
		return nil, fromTransport(err)
	}
	if len(data) > MaxResumeViewBytes {
		return nil, apperror.New(http.StatusBadGateway, "Resume is too large to preview.",
			fmt.Errorf("%w: resume exceeds %d bytes", ErrTransport, MaxResumeViewBytes))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &ResumeView{ContentType: contentType, Size: len(data), reader: bytes.NewReader(data)}, nil
}

// DownloadResume streams the resume of app into save and returns the file
// name it was saved under.
func (s *ApplicationService) DownloadResume(ctx context.Context, app *domain.Application, save func(filename string, r io.Reader) error) (string, error) {
	if app == nil || save == nil {
		return "", invalid("Application and saver are required")
	}
	resp, err := s.client.send(ctx, http.MethodGet, applicationPath(app.ID, "download_resume"), nil, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	resumeURL := ""
	if app.ResumeURL != nil {
		resumeURL = *app.ResumeURL
	}
	name := resumeFilename(resp.Header.Get("Content-Disposition"), resumeURL)
	if err := save(name, resp.Body); err != nil {
		if isTimeout(err) {
			return "", fromTransport(err)
		}
		return "", apperror.New(http.StatusInternalServerError, "Failed to save resume", fmt.Errorf("%w: %w", ErrTransport, err))
	}
	return name, nil
}

// resumeFilename prefers the server's Content-Disposition, then the last
// segment of the resume URL.
func resumeFilename(disposition, resumeURL string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			if name := safeName(params["filename"]); name != "" {
				return name
			}
		}
		return defaultResumeName
	}
	if resumeURL != "" {
		p := resumeURL
		if u, err := url.Parse(resumeURL); err == nil {
			p = u.Path
		}
		if name := safeName(path.Base(p)); name != "" {
			return name
		}
	}
	return defaultResumeName
}

func safeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// Export writes the XLSX export of jobID's applications to w and returns
// the server's file name for it.
func (s *ApplicationService) Export(ctx context.Context, jobID int64, w io.Writer) (string, error) {
	query := url.Values{"job": {strconv.FormatInt(jobID, 10)}}
	resp, err := s.client.send(ctx, http.MethodGet, "applications/export/", query, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fromTransport(err)
	}
	name := fmt.Sprintf("applications_job_%d.xlsx", jobID)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if n := safeName(params["filename"]); n != "" {
			name = n
		}
	}
	return name, nil
}

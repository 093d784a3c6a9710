package client_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go-jobboard-backend/internal/client"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/security/securitytest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleJob() domain.JobInput {
	return domain.JobInput{
		Title:       "Go Engineer",
		Description: "Build APIs",
		Location:    "Remote",
		Deadline:    "2030-01-31",
		RequirementsSchema: domain.RequirementsSchema{Questions: []domain.Question{
			{Text: "Years of Go?", Required: true},
			{Text: "Portfolio link"},
		}},
	}
}

// countingServer fails the test's expectations if any request reaches it.
func countingServer(t *testing.T) (string, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)
	return srv.URL, &hits
}

func TestLocalValidationSendsNothing(t *testing.T) {
	baseURL, hits := countingServer(t)
	a := newActor(baseURL)

	job := &domain.Job{ID: 7, RequirementsSchema: domain.RequirementsSchema{Questions: []domain.Question{
		{ID: "q1", Text: "Years of Go?", Required: true},
	}}}

	_, err := a.applications.Apply(t.Context(), job, map[string]string{"q1": "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrValidation))
	assert.Contains(t, err.Error(), "Years of Go?")

	_, err = a.jobs.Create(t.Context(), domain.JobInput{Title: "Go"})
	assert.True(t, errors.Is(err, client.ErrValidation))

	_, err = a.profile.AddSkill(t.Context(), "  ")
	assert.True(t, errors.Is(err, client.ErrValidation))

	_, err = a.profile.AddExperience(t.Context(), domain.Experience{Title: "Dev", Company: "Acme", Dates: "2020"})
	assert.EqualError(t, err, "Please fill in all experience fields")

	_, err = a.profile.AddEducation(t.Context(), domain.Education{Degree: "BSc"})
	assert.True(t, errors.Is(err, client.ErrValidation))

	_, err = a.profile.AddCertification(t.Context(), domain.Certification{Name: "CKA", Issuer: " ", Year: "2024"})
	assert.True(t, errors.Is(err, client.ErrValidation))

	deleted, err := a.jobs.Delete(t.Context(), 7, func() bool { return false })
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.Equal(t, int32(0), hits.Load())
}

func TestJobs(t *testing.T) {
	baseURL := newBackend(t)
	hr := signUp(t, baseURL, "hr@acme.io", domain.RoleHR)
	otherHR := signUp(t, baseURL, "hr2@acme.io", domain.RoleHR)
	seeker := signUp(t, baseURL, "dev@mail.io", domain.RoleSeeker)

	job, err := hr.jobs.Create(t.Context(), sampleJob())
	require.NoError(t, err)
	require.Len(t, job.RequirementsSchema.Questions, 2)
	for _, q := range job.RequirementsSchema.Questions {
		assert.NotEmpty(t, q.ID)
	}

	_, err = otherHR.jobs.Create(t.Context(), domain.JobInput{
		Title: "Rust Engineer", Description: "Systems", Location: "Berlin", Deadline: "2030-02-01",
	})
	require.NoError(t, err)

	_, err = seeker.jobs.Create(t.Context(), sampleJob())
	assert.True(t, errors.Is(err, client.ErrAuthorization))

	all, err := seeker.jobs.List(t.Context(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := seeker.jobs.List(t.Context(), "berlin")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Rust Engineer", found[0].Title)

	mine, err := hr.jobs.MyJobs(t.Context())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, job.ID, mine[0].ID)

	title := "Senior Go Engineer"
	updated, err := hr.jobs.Update(t.Context(), job.ID, domain.JobPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	confirm := func() bool { return true }
	_, err = otherHR.jobs.Delete(t.Context(), job.ID, confirm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrAuthorization))

	deleted, err := hr.jobs.Delete(t.Context(), job.ID, confirm)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = hr.jobs.Delete(t.Context(), job.ID, confirm)
	assert.True(t, errors.Is(err, client.ErrNotFound))

	_, err = seeker.jobs.Get(t.Context(), job.ID)
	assert.True(t, errors.Is(err, client.ErrNotFound))
}

func TestProfile(t *testing.T) {
	baseURL := newBackend(t)
	seeker := signUp(t, baseURL, "dev@mail.io", domain.RoleSeeker)
	hr := signUp(t, baseURL, "hr@acme.io", domain.RoleHR)

	p, err := seeker.profile.Get(t.Context())
	require.NoError(t, err)
	assert.Empty(t, p.Skills)
	assert.NotNil(t, p.Experience)

	_, err = hr.profile.Get(t.Context())
	assert.True(t, errors.Is(err, client.ErrAuthorization))

	skills := []string{"Go", "PostgreSQL", "Redis", "Kubernetes"}
	for _, s := range skills {
		_, err := seeker.profile.AddSkill(t.Context(), s)
		require.NoError(t, err)
	}
	p, err = seeker.profile.Get(t.Context())
	require.NoError(t, err)
	assert.Equal(t, skills, p.Skills)

	p, err = seeker.profile.RemoveSkill(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Redis", "Kubernetes"}, p.Skills)

	_, err = seeker.profile.RemoveSkill(t.Context(), 10)
	assert.True(t, errors.Is(err, client.ErrValidation))

	exp := domain.Experience{Title: "Backend Dev", Company: "Acme", Dates: "2020-2024", Description: "APIs"}
	p, err = seeker.profile.AddExperience(t.Context(), exp)
	require.NoError(t, err)
	assert.Equal(t, []domain.Experience{exp}, p.Experience)

	edu := domain.Education{Degree: "BSc", Institution: "MIT", Year: "2019"}
	_, err = seeker.profile.AddEducation(t.Context(), edu)
	require.NoError(t, err)
	cert := domain.Certification{Name: "CKA", Issuer: "CNCF", Year: "2023"}
	p, err = seeker.profile.AddCertification(t.Context(), cert)
	require.NoError(t, err)
	assert.Equal(t, []domain.Education{edu}, p.Education)
	assert.Equal(t, []domain.Certification{cert}, p.Certifications)
	assert.Equal(t, []domain.Experience{exp}, p.Experience, "other lists untouched")

	p, err = seeker.profile.RemoveExperience(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, p.Experience)
	p, err = seeker.profile.RemoveEducation(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, p.Education)
	p, err = seeker.profile.RemoveCertification(t.Context(), 0)
	require.NoError(t, err)
	assert.Empty(t, p.Certifications)
	assert.Equal(t, []string{"Go", "Redis", "Kubernetes"}, p.Skills)
}

func TestProfileUploadsAndResumeAccess(t *testing.T) {
	baseURL := newBackend(t)
	hr := signUp(t, baseURL, "hr@acme.io", domain.RoleHR)
	otherHR := signUp(t, baseURL, "hr2@acme.io", domain.RoleHR)
	seeker := signUp(t, baseURL, "dev@mail.io", domain.RoleSeeker)

	pdf := securitytest.MinimalPDF()
	p, err := seeker.profile.UploadResume(t.Context(), "my cv.pdf", bytes.NewReader(pdf))
	require.NoError(t, err)
	require.NotNil(t, p.Resume)
	assert.Nil(t, p.ProfilePicture)

	_, err = seeker.profile.UploadResume(t.Context(), "cv.txt", bytes.NewReader([]byte("plain text")))
	assert.True(t, errors.Is(err, client.ErrValidation))

	p, err = seeker.profile.UploadProfilePicture(t.Context(), "me.png", bytes.NewReader(securitytest.PNG(32, 32)))
	require.NoError(t, err)
	require.NotNil(t, p.ProfilePicture)
	require.NotNil(t, p.Resume, "resume slot untouched")

	assert.Nil(t, seeker.session.Identity().ProfilePicture)
	me, err := seeker.session.RefreshIdentity(t.Context())
	require.NoError(t, err)
	require.NotNil(t, me.ProfilePicture)
	assert.Equal(t, *p.ProfilePicture, *me.ProfilePicture)

	job, err := hr.jobs.Create(t.Context(), domain.JobInput{
		Title: "Go Engineer", Description: "APIs", Location: "Remote", Deadline: "2030-01-31",
	})
	require.NoError(t, err)
	app, err := seeker.applications.Apply(t.Context(), job, nil)
	require.NoError(t, err)

	apps, err := hr.applications.ListByJob(t.Context(), job.ID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.NotNil(t, apps[0].ResumeURL)
	require.NotNil(t, apps[0].ApplicantDetails)

	view, err := hr.applications.ViewResume(t.Context(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", view.ContentType)
	data, err := io.ReadAll(view)
	require.NoError(t, err)
	assert.Equal(t, pdf, data)
	require.NoError(t, view.Close())
	_, err = view.Read(make([]byte, 1))
	assert.Error(t, err)

	var saved bytes.Buffer
	name, err := hr.applications.DownloadResume(t.Context(), &apps[0], func(filename string, r io.Reader) error {
		_, err := io.Copy(&saved, r)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "my_cv.pdf", name)
	assert.Equal(t, pdf, saved.Bytes())

	_, err = otherHR.applications.ViewResume(t.Context(), app.ID)
	assert.True(t, errors.Is(err, client.ErrAuthorization))
	_, err = seeker.applications.ViewResume(t.Context(), app.ID)
	assert.True(t, errors.Is(err, client.ErrAuthorization))

	var xlsx bytes.Buffer
	name, err = hr.applications.Export(t.Context(), job.ID, &xlsx)
	require.NoError(t, err)
	assert.Contains(t, name, ".xlsx")
	assert.True(t, bytes.HasPrefix(xlsx.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

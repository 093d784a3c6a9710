package client_test

import (
	"errors"
	"net/http"
	"testing"

	"go-jobboard-backend/internal/client"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHiringScenario walks a job from posting to a hire across three users.
func TestHiringScenario(t *testing.T) {
	baseURL := newBackend(t)
	recruiter := signUp(t, baseURL, "r@acme.io", domain.RoleHR)
	seeker := signUp(t, baseURL, "s@mail.io", domain.RoleSeeker)
	seeker2 := signUp(t, baseURL, "s2@mail.io", domain.RoleSeeker)

	job, err := recruiter.jobs.Create(t.Context(), domain.JobInput{
		Title: "Go Engineer", Description: "APIs", Location: "Remote", Deadline: "2030-01-31",
		RequirementsSchema: domain.RequirementsSchema{Questions: []domain.Question{
			{Text: "Years of Go?", Required: true},
		}},
	})
	require.NoError(t, err)
	q1 := job.RequirementsSchema.Questions[0].ID

	fetched, err := seeker.jobs.Get(t.Context(), job.ID)
	require.NoError(t, err)

	_, err = seeker.applications.Apply(t.Context(), fetched, map[string]string{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrValidation))
	mine, err := seeker.applications.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, mine, "rejected locally, nothing stored")

	app, err := seeker.applications.Apply(t.Context(), fetched, map[string]string{q1: "5 years"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, app.Status)
	assert.Equal(t, "5 years", app.Responses[q1])

	_, err = seeker.applications.Apply(t.Context(), fetched, map[string]string{q1: "6 years"})
	assert.True(t, errors.Is(err, client.ErrConflict))

	assert.ElementsMatch(t,
		[]domain.ApplicationStatus{domain.StatusReviewed, domain.StatusRejected, domain.StatusHired},
		client.AllowedTransitions(app.Status))

	app, err = recruiter.applications.UpdateStatus(t.Context(), app.ID, domain.StatusReviewed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReviewed, app.Status)

	app, err = recruiter.applications.UpdateStatus(t.Context(), app.ID, domain.StatusHired)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHired, app.Status)
	assert.Empty(t, client.AllowedTransitions(app.Status))

	_, err = seeker2.applications.UpdateStatus(t.Context(), app.ID, domain.StatusRejected)
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrAuthorization))
	assert.Equal(t, http.StatusForbidden, apperror.CodeOf(err))

	for _, next := range []domain.ApplicationStatus{domain.StatusApplied, domain.StatusReviewed, domain.StatusRejected} {
		_, err = recruiter.applications.UpdateStatus(t.Context(), app.ID, next)
		require.Error(t, err, next)
		assert.True(t, errors.Is(err, client.ErrConflict), next)
	}

	_, err = recruiter.applications.UpdateStatus(t.Context(), app.ID, "PROMOTED")
	assert.True(t, errors.Is(err, client.ErrValidation))

	mine, err = seeker.applications.List(t.Context())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, domain.StatusHired, mine[0].Status)
	assert.Equal(t, "Go Engineer", mine[0].JobTitle)

	others, err := seeker2.applications.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, others)
}

package v1_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go-jobboard-backend/config"
	v1 "go-jobboard-backend/internal/delivery/http/v1"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/internal/repository/memory"
	"go-jobboard-backend/internal/usecase"
	"go-jobboard-backend/pkg/auth"
	"go-jobboard-backend/pkg/security"
	"go-jobboard-backend/pkg/security/securitytest"
	"go-jobboard-backend/pkg/storage"
	"go-jobboard-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func newTestServer(t *testing.T, counters security.CounterStore) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memory.NewStore()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	validate := validation.New()
	issuer := auth.NewIssuer("test-secret", time.Minute, time.Hour)
	cfg := &config.Config{
		FrontendURL:              "http://localhost:5173",
		MaxUploadMB:              1,
		RateLimitWindowSeconds:   60,
		RateLimitGlobalThreshold: 1000,
		RateLimitLoginThreshold:  3,
	}

	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:        usecase.NewAuthUsecase(db.Users(), issuer, nil, validate),
		JobUC:         usecase.NewJobUsecase(db.Jobs(), validate),
		ApplicationUC: usecase.NewApplicationUsecase(db.Applications(), db.Jobs(), db.Profiles(), store, nil, validate),
		ProfileUC:     usecase.NewProfileUsecase(db.Profiles(), store, nil, 1<<20, validate),
		HealthUC:      usecase.NewHealthUsecase(nil),
		Issuer:        issuer,
		Store:         store,
		Counters:      counters,
		Config:        cfg,
	})
	return &testServer{t: t, router: router}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// signup registers a user and returns their access token.
func (s *testServer) signup(email string, role domain.Role) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register/", "", map[string]string{
		"email": email, "password": "password123", "role": string(role), "first_name": "Test",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/login/", "", map[string]string{"email": email, "password": "password123"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[domain.TokenPair](s.t, rec).Access
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)

	token := s.signup("hr@acme.io", domain.RoleHR)
	rec := s.do(http.MethodGet, "/api/auth/me/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "hr@acme.io", me["email"])
	assert.Equal(t, "HR", me["role"])
	assert.NotContains(t, me, "password_hash")

	t.Run("duplicate registration", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/auth/register/", "", map[string]string{"email": "HR@acme.io", "password": "password123"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		env := decode[map[string]interface{}](t, rec)
		assert.Equal(t, false, env["success"])
		assert.Equal(t, "user with this email already exists", env["detail"])
		assert.NotEmpty(t, env["request_id"])
	})

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me/", "", nil).Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me/", "not.a.jwt", nil).Code)
	})

	t.Run("refresh", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/auth/login/", "", map[string]string{"email": "hr@acme.io", "password": "password123"})
		pair := decode[domain.TokenPair](t, rec)

		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me/", pair.Refresh, nil).Code,
			"refresh token is not an access token")

		rec = s.do(http.MethodPost, "/api/auth/refresh/", "", map[string]string{"refresh": pair.Refresh})
		require.Equal(t, http.StatusOK, rec.Code)
		access := decode[map[string]string](t, rec)["access"]
		assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/auth/me/", access, nil).Code)
	})
}

func TestJobAndApplicationFlow(t *testing.T) {
	s := newTestServer(t, nil)
	hr := s.signup("hr@acme.io", domain.RoleHR)
	otherHR := s.signup("hr2@acme.io", domain.RoleHR)
	seeker := s.signup("dev@mail.io", domain.RoleSeeker)

	jobBody := map[string]interface{}{
		"title": "Go Engineer", "description": "APIs", "location": "Remote", "deadline": "2030-01-31",
		"requirements_schema": map[string]interface{}{
			"questions": []map[string]interface{}{{"text": "Years of Go?", "required": true}},
		},
	}
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/jobs/", seeker, jobBody).Code)

	rec := s.do(http.MethodPost, "/api/jobs/", hr, jobBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	job := decode[domain.Job](t, rec)
	require.Len(t, job.RequirementsSchema.Questions, 1)
	qid := job.RequirementsSchema.Questions[0].ID
	jobPath := "/api/jobs/" + strconv.FormatInt(job.ID, 10) + "/"

	rec = s.do(http.MethodGet, "/api/jobs/?search=go", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Job](t, rec), 1)

	rec = s.do(http.MethodPost, "/api/applications/", seeker, map[string]interface{}{"job": job.ID, "responses": map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/applications/", seeker, map[string]interface{}{"job": job.ID, "responses": map[string]string{qid: "5 years"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	app := decode[domain.Application](t, rec)
	assert.Equal(t, domain.StatusApplied, app.Status)
	appPath := "/api/applications/" + strconv.FormatInt(app.ID, 10)

	rec = s.do(http.MethodPost, "/api/applications/", seeker, map[string]interface{}{"job": job.ID, "responses": map[string]string{qid: "5 years"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/applications/?job="+strconv.FormatInt(job.ID, 10), hr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Application](t, rec), 1)

	rec = s.do(http.MethodGet, "/api/applications/", otherHR, nil)
	assert.Empty(t, decode[[]domain.Application](t, rec))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, appPath+"/update_status/", seeker, map[string]string{"status": "HIRED"}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, appPath+"/update_status/", otherHR, map[string]string{"status": "HIRED"}).Code)

	for _, status := range []string{"REVIEWED", "HIRED"} {
		rec = s.do(http.MethodPost, appPath+"/update_status/", hr, map[string]string{"status": status})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, domain.ApplicationStatus(status), decode[domain.Application](t, rec).Status)
	}
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, appPath+"/update_status/", hr, map[string]string{"status": "APPLIED"}).Code)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, appPath+"/view_resume/", hr, nil).Code)

	rec = s.do(http.MethodGet, "/api/applications/export/?job="+strconv.FormatInt(job.ID, 10), hr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, jobPath, otherHR, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, jobPath, hr, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, jobPath, hr, nil).Code)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestProfileUploadsAndResumeAccess(t *testing.T) {
	s := newTestServer(t, nil)
	hr := s.signup("hr@acme.io", domain.RoleHR)
	seeker := s.signup("dev@mail.io", domain.RoleSeeker)

	rec := s.do(http.MethodGet, "/api/profiles/me/profile/", seeker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"profile_picture":null,"resume":null,"skills":[],"experience":[],"education":[],"certifications":[]}`, rec.Body.String())
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/profiles/me/profile/", hr, nil).Code)

	upload := func(field, name string, data []byte) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, field, name, data)
		req := httptest.NewRequest(http.MethodPatch, "/api/profiles/me/profile/", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+seeker)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		return rec
	}

	rec = upload("resume", "cv.pdf", securitytest.MinimalPDF())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = upload("profile_picture", "me.png", securitytest.PNG(64, 64))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile := decode[domain.Profile](t, rec)
	require.NotNil(t, profile.ProfilePicture)
	require.NotNil(t, profile.Resume)

	rec = s.do(http.MethodGet, *profile.ProfilePicture, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, storage.PublicURL(*profile.Resume), "", nil).Code,
		"resumes are never public")

	rec = s.do(http.MethodPost, "/api/jobs/", hr, map[string]interface{}{
		"title": "Go Engineer", "description": "APIs", "location": "Remote", "deadline": "2030-01-31",
	})
	job := decode[domain.Job](t, rec)
	rec = s.do(http.MethodPost, "/api/applications/", seeker, map[string]interface{}{"job": job.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	app := decode[domain.Application](t, rec)
	appPath := "/api/applications/" + strconv.FormatInt(app.ID, 10)

	rec = s.do(http.MethodGet, appPath+"/download_resume/", hr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=cv.pdf`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, securitytest.MinimalPDF(), rec.Body.Bytes())

	rec = s.do(http.MethodGet, appPath+"/view_resume/", hr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `inline; filename=cv.pdf`, rec.Header().Get("Content-Disposition"))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, appPath+"/view_resume/", seeker, nil).Code)

	rec = upload("resume", "cv.exe", []byte("MZ not a resume"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	s := newTestServer(t, security.NewMemoryCounterStore())
	body := map[string]string{"email": "nobody@mail.io", "password": "whatever1"}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/auth/login/", "", body).Code)
	}
	rec := s.do(http.MethodPost, "/api/auth/login/", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodGet, "/api/health/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

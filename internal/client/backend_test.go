package client_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"go-jobboard-backend/config"
	"go-jobboard-backend/internal/client"
	v1 "go-jobboard-backend/internal/delivery/http/v1"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/internal/repository/memory"
	"go-jobboard-backend/internal/usecase"
	"go-jobboard-backend/pkg/auth"
	"go-jobboard-backend/pkg/storage"
	"go-jobboard-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

// newBackend starts the real API over in-memory repositories and returns
// its base URL.
func newBackend(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := memory.NewStore()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	validate := validation.New()
	issuer := auth.NewIssuer("client-test-secret", time.Hour, 24*time.Hour)

	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:        usecase.NewAuthUsecase(db.Users(), issuer, nil, validate),
		JobUC:         usecase.NewJobUsecase(db.Jobs(), validate),
		ApplicationUC: usecase.NewApplicationUsecase(db.Applications(), db.Jobs(), db.Profiles(), store, nil, validate),
		ProfileUC:     usecase.NewProfileUsecase(db.Profiles(), store, nil, 1<<20, validate),
		Issuer:        issuer,
		Store:         store,
		Config: &config.Config{
			FrontendURL:            "http://localhost:5173",
			MaxUploadMB:            1,
			RateLimitWindowSeconds: 60,
		},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

// actor bundles one signed-in user's client-side objects.
type actor struct {
	tokens       *client.MemoryTokenStore
	session      *client.Session
	jobs         *client.JobService
	applications *client.ApplicationService
	profile      *client.ProfileService
}

func newActor(baseURL string) *actor {
	tokens := client.NewMemoryTokenStore()
	c := client.New(client.Config{BaseURL: baseURL}, tokens)
	session := client.NewSession(c)
	return &actor{
		tokens:       tokens,
		session:      session,
		jobs:         client.NewJobService(c, session),
		applications: client.NewApplicationService(c),
		profile:      client.NewProfileService(c),
	}
}

func signUp(t *testing.T, baseURL, email string, role domain.Role) *actor {
	t.Helper()
	a := newActor(baseURL)
	me, err := a.session.Register(t.Context(), domain.RegisterInput{
		Email: email, Password: testPassword, Role: role, FirstName: "Test", LastName: "User",
	})
	require.NoError(t, err)
	require.Equal(t, role, me.Role)
	return a
}

func storedTokens(t *testing.T, s client.TokenStore) (string, string) {
	t.Helper()
	access, err := s.Get(client.KeyAccessToken)
	require.NoError(t, err)
	refresh, err := s.Get(client.KeyRefreshToken)
	require.NoError(t, err)
	return access, refresh
}

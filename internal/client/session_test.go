package client_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-jobboard-backend/internal/client"
	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanAccess(t *testing.T) {
	seeker := &domain.User{ID: 1, Role: domain.RoleSeeker}
	hr := &domain.User{ID: 2, Role: domain.RoleHR}

	assert.False(t, client.CanAccess("", nil))
	assert.False(t, client.CanAccess(domain.RoleSeeker, nil))
	assert.True(t, client.CanAccess("", hr))
	assert.True(t, client.CanAccess(domain.RoleHR, hr))
	assert.False(t, client.CanAccess(domain.RoleHR, seeker))
}

func TestSession_Authenticate(t *testing.T) {
	baseURL := newBackend(t)
	signUp(t, baseURL, "hr@acme.io", domain.RoleHR).session.EndSession()

	t.Run("matching declared role", func(t *testing.T) {
		a := newActor(baseURL)
		me, err := a.session.Authenticate(t.Context(), "hr@acme.io", testPassword, domain.RoleHR)
		require.NoError(t, err)
		assert.Equal(t, "hr@acme.io", me.Email)
		assert.Equal(t, client.Allow, a.session.Guard(domain.RoleHR))
		assert.Equal(t, client.RedirectHome, a.session.Guard(domain.RoleSeeker))

		access, refresh := storedTokens(t, a.tokens)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
	})

	t.Run("mismatching declared role tears the session down", func(t *testing.T) {
		a := newActor(baseURL)
		me, err := a.session.Authenticate(t.Context(), "hr@acme.io", testPassword, domain.RoleSeeker)
		require.Error(t, err)
		assert.Nil(t, me)
		assert.True(t, errors.Is(err, client.ErrAuthorization))
		assert.Equal(t, "Access denied: You are not a Job Seeker", err.Error())

		access, refresh := storedTokens(t, a.tokens)
		assert.Empty(t, access)
		assert.Empty(t, refresh)
		assert.Nil(t, a.session.Identity())
		assert.Equal(t, client.RedirectLogin, a.session.Guard(""))
	})

	t.Run("wrong password", func(t *testing.T) {
		a := newActor(baseURL)
		_, err := a.session.Authenticate(t.Context(), "hr@acme.io", "nope-nope", "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, client.ErrAuthentication))
		assert.Equal(t, http.StatusUnauthorized, apperror.CodeOf(err))
		assert.Nil(t, a.session.Identity())
	})

	t.Run("blank credentials never reach the server", func(t *testing.T) {
		a := newActor("http://127.0.0.1:1")
		_, err := a.session.Authenticate(t.Context(), " ", "", "")
		assert.True(t, errors.Is(err, client.ErrValidation))
	})
}

func TestSession_RegisterDuplicate(t *testing.T) {
	baseURL := newBackend(t)
	signUp(t, baseURL, "dev@mail.io", domain.RoleSeeker)

	a := newActor(baseURL)
	_, err := a.session.Register(t.Context(), domain.RegisterInput{Email: "dev@mail.io", Password: testPassword})
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrConflict))
	assert.Nil(t, a.session.Identity())
}

func TestSession_EndSession(t *testing.T) {
	baseURL := newBackend(t)
	a := signUp(t, baseURL, "dev@mail.io", domain.RoleSeeker)
	require.NotNil(t, a.session.Identity())

	a.session.EndSession()

	access, refresh := storedTokens(t, a.tokens)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
	assert.Nil(t, a.session.Identity())
}

func TestSession_Resolve(t *testing.T) {
	baseURL := newBackend(t)
	a := signUp(t, baseURL, "dev@mail.io", domain.RoleSeeker)

	t.Run("stored token restores identity", func(t *testing.T) {
		s := client.NewSession(client.New(client.Config{BaseURL: baseURL}, a.tokens))
		me := s.Resolve(t.Context())
		require.NotNil(t, me)
		assert.Equal(t, "dev@mail.io", me.Email)
	})

	t.Run("corrupted token clears credentials", func(t *testing.T) {
		tokens := client.NewMemoryTokenStore()
		require.NoError(t, tokens.Set(client.KeyAccessToken, "not-a-jwt"))
		require.NoError(t, tokens.Set(client.KeyRefreshToken, "whatever"))

		s := client.NewSession(client.New(client.Config{BaseURL: baseURL}, tokens))
		assert.Nil(t, s.Resolve(t.Context()))

		access, refresh := storedTokens(t, tokens)
		assert.Empty(t, access)
		assert.Empty(t, refresh)
	})

	t.Run("decodable token rejected by server", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1", "token_type": "access", "exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("someone-else"))
		require.NoError(t, err)

		tokens := client.NewMemoryTokenStore()
		require.NoError(t, tokens.Set(client.KeyAccessToken, forged))
		require.NoError(t, tokens.Set(client.KeyRefreshToken, "whatever"))

		s := client.NewSession(client.New(client.Config{BaseURL: baseURL}, tokens))
		assert.Nil(t, s.Resolve(t.Context()))
		access, refresh := storedTokens(t, tokens)
		assert.Empty(t, access)
		assert.Empty(t, refresh)
	})

	t.Run("no token", func(t *testing.T) {
		s := client.NewSession(client.New(client.Config{BaseURL: baseURL}, nil))
		assert.Nil(t, s.Resolve(t.Context()))
	})
}

func TestSession_RefreshAccess(t *testing.T) {
	baseURL := newBackend(t)
	a := signUp(t, baseURL, "dev@mail.io", domain.RoleSeeker)

	require.NoError(t, a.tokens.Set(client.KeyAccessToken, "stale"))
	require.NoError(t, a.session.RefreshAccess(t.Context()))

	access, _ := storedTokens(t, a.tokens)
	assert.NotEqual(t, "stale", access)

	me, err := a.session.RefreshIdentity(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "dev@mail.io", me.Email)
}

func TestSession_RefreshIdentityFailureKeepsIdentity(t *testing.T) {
	baseURL := newBackend(t)
	a := signUp(t, baseURL, "dev@mail.io", domain.RoleSeeker)

	require.NoError(t, a.tokens.Set(client.KeyAccessToken, "broken"))
	_, err := a.session.RefreshIdentity(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrAuthentication))

	require.NotNil(t, a.session.Identity())
	assert.Equal(t, "dev@mail.io", a.session.Identity().Email)
}

func TestClient_Timeout(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := client.New(client.Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := client.NewJobService(c, client.NewSession(c)).List(t.Context(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrTimeout))
	assert.True(t, client.IsRetryable(err))
	assert.Equal(t, int32(1), hits.Load(), "no retries")
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := client.New(client.Config{BaseURL: url}, nil)
	_, err := client.NewJobService(c, client.NewSession(c)).List(t.Context(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrTransport))
	assert.False(t, errors.Is(err, client.ErrTimeout))
}

func TestViewResume_RefusesOversizedBody(t *testing.T) {
	chunk := bytes.Repeat([]byte{'a'}, 64<<10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		for sent := 0; sent <= client.MaxResumeViewBytes; sent += len(chunk) {
			if _, err := w.Write(chunk); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	c := client.New(client.Config{BaseURL: srv.URL}, nil)
	view, err := client.NewApplicationService(c).ViewResume(t.Context(), 1)
	require.Error(t, err)
	assert.Nil(t, view)
	assert.True(t, errors.Is(err, client.ErrTransport))
}

func TestFileTokenStore(t *testing.T) {
	store := client.NewFileTokenStore(t.TempDir() + "/session/tokens.json")

	v, err := store.Get(client.KeyAccessToken)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, store.Set(client.KeyAccessToken, "a"))
	require.NoError(t, store.Set(client.KeyRefreshToken, "r"))
	access, refresh := storedTokens(t, store)
	assert.Equal(t, "a", access)
	assert.Equal(t, "r", refresh)

	require.NoError(t, store.Delete(client.KeyAccessToken, client.KeyRefreshToken))
	access, refresh = storedTokens(t, store)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

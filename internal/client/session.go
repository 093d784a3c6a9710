package client

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// Decision is the outcome of guarding a role-restricted area.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "unknown"
	}
}

// CanAccess reports whether identity may enter an area restricted to
// required. An empty required role only demands a signed-in user.
func CanAccess(required domain.Role, identity *domain.User) bool {
	return domain.CanAccess(required, identity)
}

// Session owns the credential pair and the identity resolved from it. It is
// created by the caller and passed to whatever needs it. Methods that change
// the session are serialized.
type Session struct {
	mu       sync.RWMutex
	client   *Client
	identity *domain.User
}

func NewSession(c *Client) *Session {
	return &Session{client: c}
}

// Identity returns a copy of the cached identity, or nil when signed out.
func (s *Session) Identity() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.identity)
}

// Guard decides whether the current identity may see content restricted to
// required.
func (s *Session) Guard(required domain.Role) Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.identity == nil:
		return RedirectLogin
	case !CanAccess(required, s.identity):
		return RedirectHome
	default:
		return Allow
	}
}

// Authenticate logs in and resolves the identity. declared is checked
// locally only: when set and different from the account's role, the session
// is torn down and an authorization error is returned.
func (s *Session) Authenticate(ctx context.Context, email, password string, declared domain.Role) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticate(ctx, email, password, declared)
}

func (s *Session) authenticate(ctx context.Context, email, password string, declared domain.Role) (*domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid("Email and password are required")
	}

	var pair domain.TokenPair
	err := s.client.doJSON(ctx, http.MethodPost, "auth/login/", nil, domain.LoginInput{Email: email, Password: password}, &pair)
	if err != nil {
		return nil, err
	}
	if err := s.storeTokens(pair.Access, pair.Refresh); err != nil {
		s.teardown()
		return nil, err
	}

	var me domain.User
	if err := s.client.doJSON(ctx, http.MethodGet, "auth/me/", nil, nil, &me); err != nil {
		s.teardown()
		return nil, err
	}

	if declared != "" && declared != me.Role {
		s.teardown()
		return nil, denied("Access denied: You are not a " + declared.Label())
	}

	s.identity = &me
	logger.Log.Info("session started", "user_id", me.ID, "role", me.Role)
	return copyUser(&me), nil
}

// Register creates an account and signs in with the same credentials.
func (s *Session) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, invalid("Email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.doJSON(ctx, http.MethodPost, "auth/register/", nil, in, nil); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, in.Email, in.Password, "")
}

// EndSession drops the credentials and identity. It never talks to the server.
func (s *Session) EndSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
}

// Resolve restores the identity from a stored access token. Any failure
// clears the stored credentials and yields nil.
func (s *Session) Resolve(ctx context.Context) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.client.tokens.Get(KeyAccessToken)
	if err != nil || token == "" {
		s.teardown()
		return nil
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{}); err != nil {
		logger.Log.Warn("stored access token is not decodable", "error", err)
		s.teardown()
		return nil
	}

	var me domain.User
	if err := s.client.doJSON(ctx, http.MethodGet, "auth/me/", nil, nil, &me); err != nil {
		logger.Log.Warn("auth check failed", "error", err)
		s.teardown()
		return nil
	}
	s.identity = &me
	return copyUser(&me)
}

// RefreshIdentity re-reads the identity, for example after a new profile
// picture. On failure the cached identity is kept and the error returned.
func (s *Session) RefreshIdentity(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var me domain.User
	if err := s.client.doJSON(ctx, http.MethodGet, "auth/me/", nil, nil, &me); err != nil {
		logger.Log.Warn("failed to refresh user", "error", err)
		return nil, err
	}
	s.identity = &me
	return copyUser(&me), nil
}

// RefreshAccess swaps the stored refresh token for a new access token.
func (s *Session) RefreshAccess(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	refresh, err := s.client.tokens.Get(KeyRefreshToken)
	if err != nil || refresh == "" {
		return unauthenticated()
	}

	var out struct {
		Access string `json:"access"`
	}
	if err := s.client.doJSON(ctx, http.MethodPost, "auth/refresh/", nil, map[string]string{"refresh": refresh}, &out); err != nil {
		return err
	}
	if err := s.client.tokens.Set(KeyAccessToken, out.Access); err != nil {
		return storeFailure(err)
	}
	return nil
}

func (s *Session) storeTokens(access, refresh string) error {
	if err := s.client.tokens.Set(KeyAccessToken, access); err != nil {
		return storeFailure(err)
	}
	if err := s.client.tokens.Set(KeyRefreshToken, refresh); err != nil {
		return storeFailure(err)
	}
	return nil
}

// teardown must be called with mu held.
func (s *Session) teardown() {
	if err := s.client.tokens.Delete(KeyAccessToken, KeyRefreshToken); err != nil {
		logger.Log.Warn("failed to clear stored tokens", "error", err)
	}
	s.identity = nil
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.ProfilePicture != nil {
		pic := *u.ProfilePicture
		cp.ProfilePicture = &pic
	}
	return &cp
}

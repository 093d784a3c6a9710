package usecase_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/internal/usecase"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/auth"
	"go-jobboard-backend/pkg/security"
	"go-jobboard-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Mock Repositories
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockJobRepo struct {
	mock.Mock
}

func (m *MockJobRepo) Create(ctx context.Context, job *domain.Job) error {
	return m.Called(ctx, job).Error(0)
}
func (m *MockJobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}
func (m *MockJobRepo) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Job), args.Error(1)
}
func (m *MockJobRepo) Update(ctx context.Context, job *domain.Job) error {
	return m.Called(ctx, job).Error(0)
}
func (m *MockJobRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockApplicationRepo struct {
	mock.Mock
}

func (m *MockApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	return m.Called(ctx, app).Error(0)
}
func (m *MockApplicationRepo) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}
func (m *MockApplicationRepo) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Application), args.Error(1)
}
func (m *MockApplicationRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.ApplicationStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

type MockProfileRepo struct {
	mock.Mock
}

func (m *MockProfileRepo) GetOrCreate(ctx context.Context, userID int64) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}
func (m *MockProfileRepo) UpdateLists(ctx context.Context, profile *domain.Profile) error {
	return m.Called(ctx, profile).Error(0)
}
func (m *MockProfileRepo) SetFile(ctx context.Context, userID int64, slot domain.FileSlot, value string) (*string, error) {
	args := m.Called(ctx, userID, slot, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*string), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyStatusChange(ctx context.Context, n domain.StatusNotice) error {
	return m.Called(ctx, n).Error(0)
}

func assertCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperror.CodeOf(err), err.Error())
}

func newIssuer() *auth.Issuer {
	return auth.NewIssuer("test-secret", time.Minute, time.Hour)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Should default role to SEEKER and hash the password", func(t *testing.T) {
		repo := new(MockUserRepo)
		uc := usecase.NewAuthUsecase(repo, newIssuer(), nil, validation.New())
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.User).ID = 7
		})

		user, err := uc.Register(ctx, &domain.RegisterInput{Email: " Ada@Mail.io ", Password: "longenough"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, "ada@mail.io", user.Email)
		assert.Equal(t, domain.RoleSeeker, user.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("longenough")))
	})

	t.Run("Should return 409 on duplicate email", func(t *testing.T) {
		repo := new(MockUserRepo)
		uc := usecase.NewAuthUsecase(repo, newIssuer(), nil, validation.New())
		repo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicate)

		_, err := uc.Register(ctx, &domain.RegisterInput{Email: "a@b.io", Password: "longenough", Role: domain.RoleHR})
		assertCode(t, err, http.StatusConflict)
	})

	t.Run("Should reject short password before touching the repo", func(t *testing.T) {
		repo := new(MockUserRepo)
		uc := usecase.NewAuthUsecase(repo, newIssuer(), nil, validation.New())

		_, err := uc.Register(ctx, &domain.RegisterInput{Email: "a@b.io", Password: "short"})
		assertCode(t, err, http.StatusBadRequest)
		assert.Contains(t, err.Error(), "Password: Must be at least 8 characters")
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAuthLogin(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: 3, Email: "hr@acme.io", Role: domain.RoleHR, PasswordHash: hashed(t, "correct-horse")}

	t.Run("Should issue a verifiable token pair", func(t *testing.T) {
		repo := new(MockUserRepo)
		issuer := newIssuer()
		uc := usecase.NewAuthUsecase(repo, issuer, nil, validation.New())
		repo.On("GetByEmail", mock.Anything, "hr@acme.io").Return(user, nil)

		pair, err := uc.Login(ctx, &domain.LoginInput{Email: "hr@acme.io", Password: "correct-horse"}, "10.0.0.1")
		require.NoError(t, err)

		claims, err := issuer.Verify(pair.Access, auth.TokenTypeAccess)
		require.NoError(t, err)
		id, _ := claims.UserID()
		assert.Equal(t, int64(3), id)
		_, err = issuer.Verify(pair.Refresh, auth.TokenTypeAccess)
		assert.Error(t, err, "refresh token must not pass as access")
	})

	t.Run("Should block after repeated failures", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByEmail", mock.Anything, "hr@acme.io").Return(user, nil)
		tracker := security.NewLoginTracker(security.LoginTrackerConfig{
			MaxAttempts:   2,
			AttemptWindow: time.Minute,
			BlockDuration: time.Minute,
			UseIPTracking: true,
		}, security.NewMemoryCounterStore(), security.NewSecurityLogger(zap.NewNop(), "test", "test"))
		uc := usecase.NewAuthUsecase(repo, newIssuer(), tracker, validation.New())

		bad := &domain.LoginInput{Email: "hr@acme.io", Password: "wrong-password"}
		for i := 0; i < 2; i++ {
			_, err := uc.Login(ctx, bad, "10.0.0.2")
			assertCode(t, err, http.StatusUnauthorized)
			assert.Equal(t, "No active account found with the given credentials", err.Error())
		}

		_, err := uc.Login(ctx, &domain.LoginInput{Email: "hr@acme.io", Password: "correct-horse"}, "10.0.0.2")
		assertCode(t, err, http.StatusTooManyRequests)
	})

	t.Run("Unknown email gets the same message as a bad password", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByEmail", mock.Anything, "ghost@acme.io").Return(nil, domain.ErrNotFound)
		uc := usecase.NewAuthUsecase(repo, newIssuer(), nil, validation.New())

		_, err := uc.Login(ctx, &domain.LoginInput{Email: "ghost@acme.io", Password: "whatever"}, "")
		assertCode(t, err, http.StatusUnauthorized)
		assert.Equal(t, "No active account found with the given credentials", err.Error())
	})
}

func TestAuthRefresh(t *testing.T) {
	ctx := context.Background()
	issuer := newIssuer()
	repo := new(MockUserRepo)
	repo.On("GetByID", mock.Anything, int64(5)).Return(&domain.User{ID: 5}, nil)
	uc := usecase.NewAuthUsecase(repo, issuer, nil, validation.New())

	refresh, err := issuer.IssueRefresh(5)
	require.NoError(t, err)
	access, err := uc.Refresh(ctx, refresh)
	require.NoError(t, err)
	_, err = issuer.Verify(access, auth.TokenTypeAccess)
	assert.NoError(t, err)

	t.Run("Should reject an access token", func(t *testing.T) {
		tok, _ := issuer.IssueAccess(5)
		_, err := uc.Refresh(ctx, tok)
		assertCode(t, err, http.StatusUnauthorized)
	})

	t.Run("Should reject blank", func(t *testing.T) {
		_, err := uc.Refresh(ctx, "  ")
		assertCode(t, err, http.StatusBadRequest)
	})

	t.Run("Should reject garbage", func(t *testing.T) {
		_, err := uc.Refresh(ctx, strings.Repeat("x", 20))
		assertCode(t, err, http.StatusUnauthorized)
	})
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("GetByID", mock.Anything, int64(9)).Return(nil, domain.ErrNotFound)
	uc := usecase.NewAuthUsecase(repo, newIssuer(), nil, validation.New())

	_, err := uc.GetCurrentUser(context.Background(), 9)
	assertCode(t, err, http.StatusNotFound)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/auth"
	"go-jobboard-backend/pkg/logger"
	"go-jobboard-backend/pkg/security"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const msgBadCredentials = "No active account found with the given credentials"

type authUsecase struct {
	userRepo domain.UserRepository
	issuer   *auth.Issuer
	tracker  *security.LoginTracker
	validate *validator.Validate
}

// NewAuthUsecase wires registration and login. tracker may be nil, in which
// case failed logins are not counted.
func NewAuthUsecase(userRepo domain.UserRepository, issuer *auth.Issuer, tracker *security.LoginTracker, validate *validator.Validate) domain.AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		issuer:   issuer,
		tracker:  tracker,
		validate: validate,
	}
}

func (u *authUsecase) Register(ctx context.Context, in *domain.RegisterInput) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}
	if in.Role == "" {
		in.Role = domain.RoleSeeker
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("hash password: %w", err))
	}

	user := &domain.User{
		Email:        in.Email,
		Role:         in.Role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperror.New(http.StatusConflict, "user with this email already exists", err)
		}
		return nil, apperror.Internal(err)
	}

	logger.Log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (u *authUsecase) Login(ctx context.Context, in *domain.LoginInput, clientIP string) (*domain.TokenPair, error) {
	if err := u.validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}
	requestID, _ := ctx.Value(domain.KeyRequestID).(string)

	if u.tracker != nil {
		blocked, err := u.tracker.IsBlocked(ctx, in.Email, clientIP)
		if err != nil {
			// Fail open so an unavailable counter store cannot lock everyone out.
			logger.Log.Warn("login tracker unavailable", "error", err)
		}
		if blocked {
			security.DefaultLogger().LogLoginBlocked(ctx, in.Email, clientIP, requestID)
			return nil, apperror.New(http.StatusTooManyRequests, "Too many failed login attempts. Please try again later.", nil)
		}
	}

	user, err := u.userRepo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		u.recordFailure(ctx, in.Email, clientIP, requestID)
		return nil, apperror.Unauthorized(msgBadCredentials)
	}

	if u.tracker != nil {
		if err := u.tracker.ClearAttempts(ctx, in.Email, clientIP); err != nil {
			logger.Log.Warn("failed to clear login attempts", "error", err)
		}
	}

	access, err := u.issuer.IssueAccess(user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	refresh, err := u.issuer.IssueRefresh(user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	security.DefaultLogger().LogLoginSuccess(ctx, user.ID, clientIP, requestID)
	return &domain.TokenPair{Access: access, Refresh: refresh}, nil
}

func (u *authUsecase) recordFailure(ctx context.Context, email, ip, requestID string) {
	if u.tracker == nil {
		security.DefaultLogger().LogLoginFailed(ctx, email, ip, "", requestID, "invalid_credentials")
		return
	}
	if _, err := u.tracker.RecordFailedAttempt(ctx, email, ip, "", requestID); err != nil {
		logger.Log.Warn("failed to record login attempt", "error", err)
	}
}

func (u *authUsecase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", apperror.BadRequest("Refresh: This field may not be blank")
	}
	claims, err := u.issuer.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return "", apperror.New(http.StatusUnauthorized, "Token is invalid or expired", err)
	}
	id, err := claims.UserID()
	if err != nil {
		return "", apperror.New(http.StatusUnauthorized, "Token is invalid or expired", err)
	}
	if _, err := u.userRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", apperror.Unauthorized("User not found")
		}
		return "", apperror.Internal(err)
	}
	return u.issuer.IssueAccess(id)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := u.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return user, nil
}

package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleSeeker Role = "SEEKER"
	RoleHR     Role = "HR"
)

func (r Role) Valid() bool {
	return r == RoleSeeker || r == RoleHR
}

// Label is the human name used in access-denied messages.
func (r Role) Label() string {
	switch r {
	case RoleHR:
		return "Recruiter"
	case RoleSeeker:
		return "Job Seeker"
	default:
		return string(r)
	}
}

type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	ProfilePicture *string   `json:"profile_picture"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// CanAccess reports whether u may enter an area restricted to required.
// An empty required role only demands an authenticated user.
func CanAccess(required Role, u *User) bool {
	if u == nil {
		return false
	}
	return required == "" || required == u.Role
}

// Actor is the authenticated caller as resolved by the auth middleware.
type Actor struct {
	ID   int64
	Role Role
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Role      Role   `json:"role" validate:"omitempty,role"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type AuthUsecase interface {
	Register(ctx context.Context, in *RegisterInput) (*User, error)
	Login(ctx context.Context, in *LoginInput, clientIP string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	GetCurrentUser(ctx context.Context, id int64) (*User, error)
}

package postgres

import (
	"context"

	"go-jobboard-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepo struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) domain.UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, email, password_hash, role, first_name, last_name, profile_picture, created_at`

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (email, password_hash, role, first_name, last_name)
              VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		user.Email, user.PasswordHash, string(user.Role), user.FirstName, user.LastName,
	).Scan(&user.ID, &user.CreatedAt)
	return mapError(err, "create user")
}

func (r *userRepo) scanOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	var role string
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &role,
		&user.FirstName, &user.LastName, &user.ProfilePicture, &user.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "get user")
	}
	user.Role = domain.Role(role)
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

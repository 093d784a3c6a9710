package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"go-jobboard-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type profileRepo struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) domain.ProfileRepository {
	return &profileRepo{db: db}
}

// GetOrCreate inserts an empty profile on first access and returns the stored row.
func (r *profileRepo) GetOrCreate(ctx context.Context, userID int64) (*domain.Profile, error) {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO seeker_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID,
	); err != nil {
		return nil, mapError(err, "create profile")
	}

	query := `SELECT profile_picture, resume, skills, experience, education, certifications
	          FROM seeker_profiles WHERE user_id = $1`

	p := domain.Profile{UserID: userID}
	var experience, education, certifications []byte
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ProfilePicture, &p.Resume, pq.Array(&p.Skills), &experience, &education, &certifications,
	)
	if err != nil {
		return nil, mapError(err, "get profile")
	}
	for _, part := range []struct {
		raw  []byte
		dest interface{}
	}{
		{experience, &p.Experience},
		{education, &p.Education},
		{certifications, &p.Certifications},
	} {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dest); err != nil {
			return nil, fmt.Errorf("decode profile of user %d: %w", userID, err)
		}
	}
	p.Normalize()
	return &p, nil
}

// UpdateLists writes the list columns only. Resume and picture are owned by
// SetFile so a concurrent upload is never reverted.
func (r *profileRepo) UpdateLists(ctx context.Context, p *domain.Profile) error {
	p.Normalize()
	encoded := make([]string, 0, 3)
	for _, v := range []interface{}{p.Experience, p.Education, p.Certifications} {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		encoded = append(encoded, string(raw))
	}

	query := `
		INSERT INTO seeker_profiles (user_id, skills, experience, education, certifications)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb)
		ON CONFLICT (user_id) DO UPDATE SET
			skills = EXCLUDED.skills,
			experience = EXCLUDED.experience,
			education = EXCLUDED.education,
			certifications = EXCLUDED.certifications`
	_, err := r.db.Exec(ctx, query,
		p.UserID, pq.Array(p.Skills), encoded[0], encoded[1], encoded[2],
	)
	return mapError(err, "update profile")
}

var fileColumns = map[domain.FileSlot]string{
	domain.SlotResume:         "resume",
	domain.SlotProfilePicture: "profile_picture",
}

func (r *profileRepo) SetFile(ctx context.Context, userID int64, slot domain.FileSlot, value string) (*string, error) {
	column, ok := fileColumns[slot]
	if !ok {
		return nil, fmt.Errorf("set profile file: unknown slot %q", slot)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, mapError(err, "begin set profile file")
	}
	defer tx.Rollback(ctx)

	var previous *string
	err = tx.QueryRow(ctx,
		`SELECT `+column+` FROM seeker_profiles WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&previous)
	if err != nil {
		return nil, mapError(err, "lock profile")
	}
	if _, err := tx.Exec(ctx,
		`UPDATE seeker_profiles SET `+column+` = $2 WHERE user_id = $1`, userID, value,
	); err != nil {
		return nil, mapError(err, "set profile "+column)
	}
	if slot == domain.SlotProfilePicture {
		tag, err := tx.Exec(ctx, `UPDATE users SET profile_picture = $2 WHERE id = $1`, userID, value)
		if err != nil {
			return nil, mapError(err, "sync user profile picture")
		}
		if tag.RowsAffected() == 0 {
			return nil, domain.ErrNotFound
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapError(err, "commit profile file")
	}
	return previous, nil
}

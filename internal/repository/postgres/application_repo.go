package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go-jobboard-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type applicationRepo struct {
	db *pgxpool.Pool
}

func NewApplicationRepository(db *pgxpool.Pool) domain.ApplicationRepository {
	return &applicationRepo{db: db}
}

// applicationSelect joins the job title, the applicant and, when present,
// the applicant's profile snapshot.
const applicationSelect = `
	SELECT a.id, a.job_id, j.title, a.applicant_id, u.email, a.responses, a.status, a.applied_at,
	       u.first_name, u.last_name,
	       p.user_id IS NOT NULL, p.resume, p.profile_picture,
	       COALESCE(p.skills, '{}'), COALESCE(p.experience, '[]'::jsonb),
	       COALESCE(p.education, '[]'::jsonb), COALESCE(p.certifications, '[]'::jsonb)
	FROM applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN users u ON u.id = a.applicant_id
	LEFT JOIN seeker_profiles p ON p.user_id = a.applicant_id`

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var (
		app                   domain.Application
		responses             []byte
		status                string
		firstName, lastName   string
		hasProfile            bool
		resume, picture       *string
		skills                []string
		experience, education []byte
		certifications        []byte
	)
	err := row.Scan(
		&app.ID, &app.Job, &app.JobTitle, &app.Applicant, &app.ApplicantEmail, &responses, &status, &app.CreatedAt,
		&firstName, &lastName,
		&hasProfile, &resume, &picture,
		pq.Array(&skills), &experience, &education, &certifications,
	)
	if err != nil {
		return nil, err
	}
	app.Status = domain.ApplicationStatus(status)
	app.Responses = map[string]string{}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &app.Responses); err != nil {
			return nil, fmt.Errorf("decode responses of application %d: %w", app.ID, err)
		}
	}
	if !hasProfile {
		return &app, nil
	}

	app.ResumeURL = resume
	details := &domain.ApplicantDetails{
		FirstName:      firstName,
		LastName:       lastName,
		Skills:         skills,
		ProfilePicture: picture,
	}
	for _, part := range []struct {
		raw  []byte
		dest interface{}
	}{
		{experience, &details.Experience},
		{education, &details.Education},
		{certifications, &details.Certifications},
	} {
		if err := json.Unmarshal(part.raw, part.dest); err != nil {
			return nil, fmt.Errorf("decode applicant profile of application %d: %w", app.ID, err)
		}
	}
	normalizeDetails(details)
	app.ApplicantDetails = details
	return &app, nil
}

func normalizeDetails(d *domain.ApplicantDetails) {
	p := domain.Profile{
		Skills:         d.Skills,
		Experience:     d.Experience,
		Education:      d.Education,
		Certifications: d.Certifications,
	}
	p.Normalize()
	d.Skills, d.Experience, d.Education, d.Certifications = p.Skills, p.Experience, p.Education, p.Certifications
}

func (r *applicationRepo) Create(ctx context.Context, app *domain.Application) error {
	responses := app.Responses
	if responses == nil {
		responses = map[string]string{}
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}
	query := `INSERT INTO applications (job_id, applicant_id, status, responses)
              VALUES ($1, $2, $3, $4::jsonb) RETURNING id, applied_at`
	err = r.db.QueryRow(ctx, query, app.Job, app.Applicant, string(app.Status), string(raw)).
		Scan(&app.ID, &app.CreatedAt)
	return mapError(err, "create application")
}

func (r *applicationRepo) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	app, err := scanApplication(r.db.QueryRow(ctx, applicationSelect+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "get application")
	}
	return app, nil
}

func (r *applicationRepo) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	var where []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.RecruiterID != 0 {
		add("j.recruiter_id = $%d", filter.RecruiterID)
	}
	if filter.ApplicantID != 0 {
		add("a.applicant_id = $%d", filter.ApplicantID)
	}
	if filter.JobID != 0 {
		add("a.job_id = $%d", filter.JobID)
	}

	query := applicationSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.applied_at DESC, a.id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list applications")
	}
	defer rows.Close()

	apps := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, mapError(err, "scan application")
		}
		apps = append(apps, *app)
	}
	return apps, mapError(rows.Err(), "list applications")
}

// UpdateStatus only writes when the row still holds from, so two recruiters
// racing from the same status cannot both win.
func (r *applicationRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.ApplicationStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return mapError(err, "update application status")
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return mapError(err, "check application")
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInvalidTransition
}

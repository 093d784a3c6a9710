package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go-jobboard-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type jobRepo struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) domain.JobRepository {
	return &jobRepo{db: db}
}

const jobSelect = `
	SELECT j.id, j.title, j.description, j.location, j.salary_range, j.deadline::text,
	       j.recruiter_id, u.email, j.requirements_schema, j.created_at
	FROM jobs j
	JOIN users u ON u.id = j.recruiter_id`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var schema []byte
	err := row.Scan(
		&job.ID, &job.Title, &job.Description, &job.Location, &job.SalaryRange, &job.Deadline,
		&job.Recruiter, &job.RecruiterEmail, &schema, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(schema) > 0 {
		if err := json.Unmarshal(schema, &job.RequirementsSchema); err != nil {
			return nil, fmt.Errorf("decode requirements_schema of job %d: %w", job.ID, err)
		}
	}
	if job.RequirementsSchema.Questions == nil {
		job.RequirementsSchema.Questions = []domain.Question{}
	}
	return &job, nil
}

func encodeSchema(s domain.RequirementsSchema) (string, error) {
	if s.Questions == nil {
		s.Questions = []domain.Question{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode requirements_schema: %w", err)
	}
	return string(raw), nil
}

func (r *jobRepo) Create(ctx context.Context, job *domain.Job) error {
	schema, err := encodeSchema(job.RequirementsSchema)
	if err != nil {
		return err
	}
	query := `INSERT INTO jobs (recruiter_id, title, description, location, salary_range, deadline, requirements_schema)
              VALUES ($1, $2, $3, $4, $5, $6::date, $7::jsonb) RETURNING id, created_at`
	err = r.db.QueryRow(ctx, query,
		job.Recruiter, job.Title, job.Description, job.Location, job.SalaryRange, job.Deadline, schema,
	).Scan(&job.ID, &job.CreatedAt)
	return mapError(err, "create job")
}

func (r *jobRepo) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := scanJob(r.db.QueryRow(ctx, jobSelect+` WHERE j.id = $1`, id))
	if err != nil {
		return nil, mapError(err, "get job")
	}
	return job, nil
}

func (r *jobRepo) List(ctx context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	var where []string
	var args []interface{}
	if filter.RecruiterID != 0 {
		args = append(args, filter.RecruiterID)
		where = append(where, fmt.Sprintf("j.recruiter_id = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(j.title ILIKE $%d OR j.description ILIKE $%d OR j.location ILIKE $%d)", n, n, n))
	}

	query := jobSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY j.created_at DESC, j.id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list jobs")
	}
	defer rows.Close()

	jobs := []domain.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, mapError(err, "scan job")
		}
		jobs = append(jobs, *job)
	}
	return jobs, mapError(rows.Err(), "list jobs")
}

func (r *jobRepo) Update(ctx context.Context, job *domain.Job) error {
	schema, err := encodeSchema(job.RequirementsSchema)
	if err != nil {
		return err
	}
	query := `UPDATE jobs SET title = $1, description = $2, location = $3, salary_range = $4,
	              deadline = $5::date, requirements_schema = $6::jsonb
	          WHERE id = $7`
	tag, err := r.db.Exec(ctx, query,
		job.Title, job.Description, job.Location, job.SalaryRange, job.Deadline, schema, job.ID,
	)
	if err != nil {
		return mapError(err, "update job")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete job")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

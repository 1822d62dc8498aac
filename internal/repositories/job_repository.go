package repositories

import (
	"context"
	"errors"

	"rulemark/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrJobNotFound = errors.New("job not found")

type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, j *models.Job) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO jobs (id, kind, status, params_json)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, j.ID, j.Kind, j.Status, j.Params).Scan(&j.CreatedAt)
}

func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	err := r.db.QueryRow(ctx, `
		SELECT id, kind, status, params_json, COALESCE(report_key,''), entries, errors,
		       COALESCE(error_text,''), created_at, started_at, finished_at
		FROM jobs
		WHERE id=$1
	`, id).Scan(
		&j.ID,
		&j.Kind,
		&j.Status,
		&j.Params,
		&j.ReportKey,
		&j.Entries,
		&j.Errors,
		&j.ErrorText,
		&j.CreatedAt,
		&j.StartedAt,
		&j.FinishedAt,
	)
	if err != nil {
		return nil, ErrJobNotFound
	}
	return &j, nil
}

func (r *JobRepository) List(ctx context.Context, limit int) ([]models.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, status, params_json, COALESCE(report_key,''), entries, errors,
		       COALESCE(error_text,''), created_at, started_at, finished_at
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Job
	for rows.Next() {
		var j models.Job
		if err := rows.Scan(
			&j.ID,
			&j.Kind,
			&j.Status,
			&j.Params,
			&j.ReportKey,
			&j.Entries,
			&j.Errors,
			&j.ErrorText,
			&j.CreatedAt,
			&j.StartedAt,
			&j.FinishedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

func (r *JobRepository) MarkRunning(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET status=$2, started_at=now()
		WHERE id=$1
	`, id, models.JobRunning)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) MarkDone(ctx context.Context, id, reportKey string, entries, errCount int) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET status=$2, report_key=$3, entries=$4, errors=$5, finished_at=now()
		WHERE id=$1
	`, id, models.JobDone, reportKey, entries, errCount)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) MarkFailed(ctx context.Context, id, errorText string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET status=$2, error_text=$3, finished_at=now()
		WHERE id=$1
	`, id, models.JobFailed, errorText)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"hirely/internal/platform/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStateConflict is returned when a job is no longer in a state that
	// accepts the requested transition.
	ErrStateConflict = errors.New("parse job state conflict")
)

const parseJobColumns = `id, resume_id, user_id, resume_url, status, attempts, last_error, result, created_at, updated_at`

type ParseJobRepository struct {
	db *sql.DB
}

func NewParseJobRepository(db *sql.DB) *ParseJobRepository {
	return &ParseJobRepository{db: db}
}

func (r *ParseJobRepository) Create(ctx context.Context, job *models.ParseJob) error {
	if job.ID == "" {
		job.ID = "pjob_" + uuid.New().String()
	}
	now := time.Now().Unix()
	job.CreatedAt = now
	job.UpdatedAt = now
	job.Status = models.ParseStatusPending
	job.Attempts = 0

	query := `
		INSERT INTO parse_jobs (id, resume_id, user_id, resume_url, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, job.ID, job.ResumeID, job.UserID, job.ResumeURL, job.Status, job.Attempts, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *ParseJobRepository) GetByID(ctx context.Context, id string) (*models.ParseJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+parseJobColumns+` FROM parse_jobs WHERE id = ?`, id)

	job, err := scanParseJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// MarkDispatched records a successful hand-off. Only pending jobs move, so a
// callback that raced ahead of the dispatch response is never overwritten.
func (r *ParseJobRepository) MarkDispatched(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE parse_jobs
		SET status = ?, attempts = attempts + 1, last_error = NULL, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.ParseStatusDispatched, time.Now().Unix(), id, models.ParseStatusPending)
	return expectOneRow(res, err)
}

// MarkDispatchFailed records a failed hand-off. The job stays pending for the
// retry worker until maxAttempts is reached, then it fails for good.
func (r *ParseJobRepository) MarkDispatchFailed(ctx context.Context, id, lastError string, maxAttempts int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE parse_jobs
		SET attempts = attempts + 1,
			last_error = ?,
			status = CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END,
			updated_at = ?
		WHERE id = ? AND status = ?
	`, lastError, maxAttempts, models.ParseStatusFailed, models.ParseStatusPending, time.Now().Unix(), id, models.ParseStatusPending)
	return expectOneRow(res, err)
}

// Complete stores the parser's result for a job that has not finished yet.
func (r *ParseJobRepository) Complete(ctx context.Context, id string, result []byte) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE parse_jobs
		SET status = ?, result = ?, last_error = NULL, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, models.ParseStatusCompleted, string(result), time.Now().Unix(), id, models.ParseStatusPending, models.ParseStatusDispatched)
	return expectOneRow(res, err)
}

// Fail stores the parser's error for a job that has not finished yet.
func (r *ParseJobRepository) Fail(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE parse_jobs
		SET status = ?, last_error = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, models.ParseStatusFailed, reason, time.Now().Unix(), id, models.ParseStatusPending, models.ParseStatusDispatched)
	return expectOneRow(res, err)
}

// ListRetryable returns pending jobs last touched before olderThan (unix seconds).
func (r *ParseJobRepository) ListRetryable(ctx context.Context, olderThan int64, limit int) ([]*models.ParseJob, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+parseJobColumns+`
		FROM parse_jobs
		WHERE status = ? AND updated_at < ?
		ORDER BY updated_at ASC
		LIMIT ?
	`, models.ParseStatusPending, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.ParseJob
	for rows.Next() {
		job, err := scanParseJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanParseJob(s scanner) (*models.ParseJob, error) {
	var job models.ParseJob
	var lastError, result sql.NullString

	err := s.Scan(&job.ID, &job.ResumeID, &job.UserID, &job.ResumeURL, &job.Status, &job.Attempts, &lastError, &result, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if lastError.Valid {
		job.LastError = lastError.String
	}
	if result.Valid && result.String != "" {
		job.Result = []byte(result.String)
	}
	return &job, nil
}

func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStateConflict
	}
	return nil
}

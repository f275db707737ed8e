package parsing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"hirely/internal/pkg/validator"
	"hirely/internal/platform/models"
	"hirely/internal/platform/repositories"
	"hirely/internal/resumeparser"
)

var ErrForbidden = errors.New("not allowed to view this parse job")

// ValidationError is returned for caller input the service refuses.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Dispatcher sends a parse request to the resume-processing service.
type Dispatcher interface {
	Parse(ctx context.Context, req resumeparser.ParseRequest) error
}

// Callback is what the resume-processing service reports back.
type Callback struct {
	JobID  string          `json:"job_id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type Service struct {
	repo        *repositories.ParseJobRepository
	dispatcher  Dispatcher
	callbackURL string
	maxAttempts int
}

func NewService(repo *repositories.ParseJobRepository, dispatcher Dispatcher, callbackURL string, maxAttempts int) *Service {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Service{
		repo:        repo,
		dispatcher:  dispatcher,
		callbackURL: callbackURL,
		maxAttempts: maxAttempts,
	}
}

// Submit records a parse job for the user's resume and tries to dispatch it
// right away. A failed dispatch is not an error for the caller: the job stays
// pending and the retry worker picks it up.
func (s *Service) Submit(ctx context.Context, userID, resumeID, resumeURL string) (*models.ParseJob, error) {
	if err := validateSubmission(resumeID, resumeURL); err != nil {
		return nil, err
	}

	job := &models.ParseJob{
		ResumeID:  strings.TrimSpace(resumeID),
		UserID:    userID,
		ResumeURL: resumeURL,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create parse job: %w", err)
	}

	if err := s.Dispatch(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("initial dispatch failed")
	}

	return s.repo.GetByID(ctx, job.ID)
}

// Dispatch sends one pending job and records the attempt.
func (s *Service) Dispatch(ctx context.Context, job *models.ParseJob) error {
	err := s.dispatcher.Parse(ctx, resumeparser.ParseRequest{
		JobID:       job.ID,
		ResumeID:    job.ResumeID,
		ResumeURL:   job.ResumeURL,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		if markErr := s.repo.MarkDispatchFailed(ctx, job.ID, err.Error(), s.maxAttempts); markErr != nil && !errors.Is(markErr, repositories.ErrStateConflict) {
			return fmt.Errorf("record dispatch failure: %w", markErr)
		}
		return err
	}

	// The callback may already have finished the job; that is fine.
	if err := s.repo.MarkDispatched(ctx, job.ID); err != nil && !errors.Is(err, repositories.ErrStateConflict) {
		return fmt.Errorf("record dispatch: %w", err)
	}
	return nil
}

// RetryPending re-dispatches pending jobs untouched since before cutoff and
// returns how many were sent successfully.
func (s *Service) RetryPending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	jobs, err := s.repo.ListRetryable(ctx, cutoff.Unix(), limit)
	if err != nil {
		return 0, fmt.Errorf("list retryable jobs: %w", err)
	}

	sent := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := s.Dispatch(ctx, job); err != nil {
			log.Warn().Err(err).Str("job_id", job.ID).Int("attempts", job.Attempts+1).Msg("retry dispatch failed")
			continue
		}
		sent++
	}
	return sent, nil
}

// Get returns a job to its owner or to any recruiter.
func (s *Service) Get(ctx context.Context, id string, viewerID string, viewerIsRecruiter bool) (*models.ParseJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != viewerID && !viewerIsRecruiter {
		return nil, ErrForbidden
	}
	return job, nil
}

// HandleCallback applies a verified callback. Repeating a callback that was
// already applied is a no-op.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) error {
	if cb.JobID == "" {
		return &ValidationError{Field: "job_id", Message: "is required"}
	}

	var err error
	switch cb.Status {
	case models.ParseStatusCompleted:
		if len(cb.Result) == 0 || !json.Valid(cb.Result) {
			return &ValidationError{Field: "result", Message: "must be a JSON document"}
		}
		err = s.repo.Complete(ctx, cb.JobID, cb.Result)
	case models.ParseStatusFailed:
		reason := strings.TrimSpace(cb.Error)
		if reason == "" {
			reason = "parser reported failure"
		}
		err = s.repo.Fail(ctx, cb.JobID, reason)
	default:
		return &ValidationError{Field: "status", Message: "must be completed or failed"}
	}

	if !errors.Is(err, repositories.ErrStateConflict) {
		return err
	}

	job, getErr := s.repo.GetByID(ctx, cb.JobID)
	if getErr != nil {
		return getErr
	}
	if job.Status == cb.Status {
		return nil
	}
	return err
}

func validateSubmission(resumeID, resumeURL string) error {
	if strings.TrimSpace(resumeID) == "" {
		return &ValidationError{Field: "resume_id", Message: "is required"}
	}
	if err := validator.DocumentURL(resumeURL); err != nil {
		return &ValidationError{Field: "resume_url", Message: err.Error()}
	}
	return nil
}

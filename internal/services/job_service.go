package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/jobs"
	types "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// JobService persists queued job runs. The worker pool picks them up
// with ClaimNextRunnable, so enqueueing inside a transaction is safe:
// the row only becomes visible once the transaction commits.
type JobService interface {
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error)
	EnqueueIfNeeded(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID, payload map[string]any) (*types.JobRun, bool, error)
	GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
	GetLatestForEntity(dbc dbctx.Context, ownerUserID uuid.UUID, entityType string, entityID uuid.UUID, jobType string) (*types.JobRun, error)
	CancelForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   jobrepo.JobRunRepo
	notify JobNotifier
}

func NewJobService(db *gorm.DB, baseLog *logger.Logger, repo jobrepo.JobRunRepo, notify JobNotifier) JobService {
	return &jobService{
		db:     db,
		log:    baseLog.With("service", "JobService"),
		repo:   repo,
		notify: notify,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID *uuid.UUID, payload map[string]any) (*types.JobRun, error) {
	if ownerUserID == uuid.Nil {
		return nil, fmt.Errorf("missing owner_user_id")
	}
	if jobType == "" {
		return nil, fmt.Errorf("missing job_type")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if td, ok := ctxutil.GetTraceData(dbc.Ctx); ok {
		if td.TraceID != "" {
			if _, exists := payload["trace_id"]; !exists {
				payload["trace_id"] = td.TraceID
			}
		}
		if td.RequestID != "" {
			if _, exists := payload["request_id"]; !exists {
				payload["request_id"] = td.RequestID
			}
		}
	}

	b, _ := json.Marshal(payload)
	now := time.Now()
	job := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     jobType,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      types.StatusQueued,
		Stage:       "queued",
		Progress:    0,
		Attempts:    0,
		Message:     "Queued",
		Payload:     datatypes.JSON(b),
		Result:      datatypes.JSON([]byte(`{}`)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if s.notify != nil {
		s.notify.JobCreated(ownerUserID, job)
	}
	return job, nil
}

// EnqueueIfNeeded skips the enqueue when the same entity already has a
// runnable job of this type, so double submissions collapse to one run.
func (s *jobService) EnqueueIfNeeded(dbc dbctx.Context, ownerUserID uuid.UUID, jobType string, entityType string, entityID uuid.UUID, payload map[string]any) (*types.JobRun, bool, error) {
	has, err := s.repo.HasRunnableForEntity(dbc, ownerUserID, entityType, entityID, jobType)
	if err != nil {
		return nil, false, err
	}
	if has {
		return nil, false, nil
	}
	id := entityID
	job, err := s.Enqueue(dbc, ownerUserID, jobType, entityType, &id, payload)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *jobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	rd, ok := ctxutil.GetRequestData(dbc.Ctx)
	if !ok {
		return nil, errors.ErrUnauthorized
	}
	rows, err := s.repo.GetByIDs(dbc, []uuid.UUID{jobID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.ErrNotFound
	}
	job := rows[0]
	if job.OwnerUserID.String() != rd.UserID {
		return nil, errors.ErrForbidden
	}
	return job, nil
}

func (s *jobService) GetLatestForEntity(dbc dbctx.Context, ownerUserID uuid.UUID, entityType string, entityID uuid.UUID, jobType string) (*types.JobRun, error) {
	return s.repo.GetLatestByEntity(dbc, ownerUserID, entityType, entityID, jobType)
}

// CancelForRequestUser flips a non-terminal run to canceled. The
// UnlessStatus guard means a run that finished in the meantime stays
// finished.
func (s *jobService) CancelForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	job, err := s.GetByIDForRequestUser(dbc, jobID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	ok, err := s.repo.UpdateFieldsUnlessStatus(dbc, job.ID,
		[]string{types.StatusSucceeded, types.StatusFailed, types.StatusCanceled},
		map[string]interface{}{
			"status":     types.StatusCanceled,
			"message":    "Canceled by user",
			"locked_at":  nil,
			"updated_at": now,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrConflict
	}
	job.Status = types.StatusCanceled
	job.UpdatedAt = now
	return job, nil
}

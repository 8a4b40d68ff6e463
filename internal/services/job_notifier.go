package services

import (
	"github.com/google/uuid"

	types "github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

// JobNotifier mirrors runtime.Notifier so the worker and the services
// layer share one event surface. The log notifier is the default;
// user-facing messaging happens through NotificationService when a
// pipeline decides the outcome is worth telling the customer about.
type JobNotifier interface {
	JobCreated(userID uuid.UUID, job *types.JobRun)
	JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string)
	JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string)
	JobDone(userID uuid.UUID, job *types.JobRun)
}

type logJobNotifier struct {
	log *logger.Logger
}

func NewLogJobNotifier(baseLog *logger.Logger) JobNotifier {
	return &logJobNotifier{log: baseLog.With("component", "JobNotifier")}
}

func (n *logJobNotifier) JobCreated(userID uuid.UUID, job *types.JobRun) {
	n.log.Info("job created", "user_id", userID, "job_id", job.ID, "job_type", job.JobType)
}

func (n *logJobNotifier) JobProgress(userID uuid.UUID, job *types.JobRun, stage string, progress int, message string) {
	n.log.Debug("job progress",
		"user_id", userID,
		"job_id", job.ID,
		"job_type", job.JobType,
		"stage", stage,
		"progress", progress,
		"message", message,
	)
}

func (n *logJobNotifier) JobFailed(userID uuid.UUID, job *types.JobRun, stage string, errorMessage string) {
	n.log.Warn("job failed",
		"user_id", userID,
		"job_id", job.ID,
		"job_type", job.JobType,
		"stage", stage,
		"error", errorMessage,
	)
}

func (n *logJobNotifier) JobDone(userID uuid.UUID, job *types.JobRun) {
	n.log.Info("job done", "user_id", userID, "job_id", job.ID, "job_type", job.JobType)
}

package models

import "time"

// WorkerStats représente les statistiques du pool d'exécution des générations
type WorkerStats struct {
	Running       bool     `json:"running"`
	ActiveJobs    int64    `json:"active_jobs"`
	JobsTotal     int64    `json:"jobs_total"`
	JobsSuccess   int64    `json:"jobs_success"`
	JobsFailed    int64    `json:"jobs_failed"`
	JobsAborted   int64    `json:"jobs_aborted"`
	RunningJobIDs []string `json:"running_job_ids,omitempty"`
}

// WorkerStatsResponse est la réponse de GET /api/v1/worker/stats
type WorkerStatsResponse struct {
	WorkerPool WorkerStats `json:"worker_pool"`
	StoredJobs int         `json:"stored_jobs"`
	Timestamp  time.Time   `json:"timestamp"`
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/repository"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobRepo *repository.JobRepository
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobRepo *repository.JobRepository) *JobHandler {
	return &JobHandler{jobRepo: jobRepo}
}

// JobResponse is the JSON view of a scheduler job record. The submission
// script is included for audit and replay.
type JobResponse struct {
	ID               string     `json:"id"`
	ExternalID       *string    `json:"external_id,omitempty"`
	JobType          string     `json:"job_type"`
	Status           string     `json:"status"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	SubmissionScript string     `json:"submission_script"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func jobResponse(job *models.Job) JobResponse {
	return JobResponse{
		ID:               job.ID,
		ExternalID:       job.ExternalID,
		JobType:          string(job.JobType),
		Status:           string(job.Status),
		StartTime:        job.StartTime,
		EndTime:          job.EndTime,
		ErrorMessage:     job.ErrorMessage,
		SubmissionScript: job.SubmissionScript,
		CreatedAt:        job.CreatedAt,
		UpdatedAt:        job.UpdatedAt,
	}
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobRepo.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, jobResponse(job))
}

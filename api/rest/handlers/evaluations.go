package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/submission"
)

// EvaluationHandler handles evaluation-related HTTP requests
type EvaluationHandler struct {
	service *submission.EvaluationService
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(service *submission.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{service: service}
}

// EvaluationResponse is the JSON view of an evaluation record. Results
// carries the structured metrics payload once the job completed.
type EvaluationResponse struct {
	ID             string          `json:"id"`
	ModelID        string          `json:"model_id"`
	JobID          string          `json:"job_id"`
	EvaluationPath string          `json:"evaluation_path"`
	Configurations []string        `json:"configurations"`
	OutputPath     string          `json:"output_path"`
	Results        json.RawMessage `json:"results,omitempty"`
	Status         string          `json:"status"`
	ErrorMessage   *string         `json:"error_message,omitempty"`
	StartTime      *time.Time      `json:"start_time,omitempty"`
	EndTime        *time.Time      `json:"end_time,omitempty"`
}

func evaluationResponse(evaluation *models.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:             evaluation.ID,
		ModelID:        evaluation.ModelID,
		JobID:          evaluation.JobID,
		EvaluationPath: evaluation.EvaluationPath,
		Configurations: evaluation.Configurations,
		OutputPath:     evaluation.OutputPath,
		Results:        json.RawMessage(evaluation.Results),
		Status:         string(evaluation.Status),
		ErrorMessage:   evaluation.ErrorMessage,
		StartTime:      evaluation.StartTime,
		EndTime:        evaluation.EndTime,
	}
}

// SubmitEvaluation handles POST /v1/evaluations
func (h *EvaluationHandler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	var req submission.EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	evaluation, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, evaluationResponse(evaluation))
}

// GetEvaluation handles GET /v1/evaluations/{id}
func (h *EvaluationHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	evaluation, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluationResponse(evaluation))
}

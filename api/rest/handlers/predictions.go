package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/submission"
)

// PredictionHandler handles inference-related HTTP requests
type PredictionHandler struct {
	service *submission.InferenceService
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(service *submission.InferenceService) *PredictionHandler {
	return &PredictionHandler{service: service}
}

// PredictionResponse is the JSON view of an inference record. Prediction
// carries the raw result payload once the job completed.
type PredictionResponse struct {
	ID           string          `json:"id"`
	ModelID      string          `json:"model_id"`
	JobID        string          `json:"job_id"`
	InputPath    string          `json:"input_path"`
	OutputPath   string          `json:"output_path"`
	Prediction   json.RawMessage `json:"prediction,omitempty"`
	Status       string          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	StartTime    *time.Time      `json:"start_time,omitempty"`
	EndTime      *time.Time      `json:"end_time,omitempty"`
}

func predictionResponse(inference *models.Inference) PredictionResponse {
	return PredictionResponse{
		ID:           inference.ID,
		ModelID:      inference.ModelID,
		JobID:        inference.JobID,
		InputPath:    inference.InputPath,
		OutputPath:   inference.OutputPath,
		Prediction:   json.RawMessage(inference.Prediction),
		Status:       string(inference.Status),
		ErrorMessage: inference.ErrorMessage,
		StartTime:    inference.StartTime,
		EndTime:      inference.EndTime,
	}
}

// SubmitPrediction handles POST /v1/predictions
func (h *PredictionHandler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	var req submission.InferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	inference, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, predictionResponse(inference))
}

// GetPrediction handles GET /v1/predictions/{id}
func (h *PredictionHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	inference, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, predictionResponse(inference))
}

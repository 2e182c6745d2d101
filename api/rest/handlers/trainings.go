package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/submission"
)

const defaultListLimit = 50

// TrainingHandler handles training-related HTTP requests
type TrainingHandler struct {
	service *submission.TrainingService
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(service *submission.TrainingService) *TrainingHandler {
	return &TrainingHandler{service: service}
}

// TrainingResponse is the JSON view of a training workflow record.
type TrainingResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ImagesPath    string     `json:"images_path,omitempty"`
	LabelsPath    string     `json:"labels_path,omitempty"`
	ModelPath     string     `json:"model_path"`
	Configuration string     `json:"configuration"`
	FoldIndex     int        `json:"fold_index"`
	JobID         string     `json:"job_id"`
	Status        string     `json:"status"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

func trainingResponse(training *models.Training) TrainingResponse {
	return TrainingResponse{
		ID:            training.ID,
		Name:          training.Name,
		ImagesPath:    training.ImagesPath,
		LabelsPath:    training.LabelsPath,
		ModelPath:     training.ModelPath,
		Configuration: training.Configuration,
		FoldIndex:     training.FoldIndex,
		JobID:         training.JobID,
		Status:        string(training.Status),
		ErrorMessage:  training.ErrorMessage,
		StartTime:     training.StartTime,
		EndTime:       training.EndTime,
	}
}

// SubmitTraining handles POST /v1/trainings
func (h *TrainingHandler) SubmitTraining(w http.ResponseWriter, r *http.Request) {
	var req submission.TrainingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	training, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trainingResponse(training))
}

// GetTraining handles GET /v1/trainings/{id}
func (h *TrainingHandler) GetTraining(w http.ResponseWriter, r *http.Request) {
	training, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trainingResponse(training))
}

// ListTrainings handles GET /v1/trainings
func (h *TrainingHandler) ListTrainings(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	trainings, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]TrainingResponse, 0, len(trainings))
	for _, training := range trainings {
		responses = append(responses, trainingResponse(training))
	}
	writeJSON(w, http.StatusOK, responses)
}

func listParams(r *http.Request) (limit, offset int) {
	limit = defaultListLimit
	if parsed, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && parsed > 0 {
		limit = parsed
	}
	if parsed, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && parsed > 0 {
		offset = parsed
	}
	return limit, offset
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"seg-orchestrator/core/models"
	"seg-orchestrator/core/repository"
)

// ModelHandler handles model catalogue HTTP requests
type ModelHandler struct {
	modelRepo *repository.ModelRepository
}

// NewModelHandler creates a new model handler
func NewModelHandler(modelRepo *repository.ModelRepository) *ModelHandler {
	return &ModelHandler{modelRepo: modelRepo}
}

// ModelResponse is the JSON view of a trained model record.
type ModelResponse struct {
	ID         string    `json:"id"`
	TrainingID string    `json:"training_id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
}

func modelResponse(model *models.Model) ModelResponse {
	return ModelResponse{
		ID:         model.ID,
		TrainingID: model.TrainingID,
		Name:       model.Name,
		Path:       model.Path,
		CreatedAt:  model.CreatedAt,
	}
}

// GetModel handles GET /v1/models/{id}
func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	model, err := h.modelRepo.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if model == nil {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, modelResponse(model))
}

// ListModels handles GET /v1/models
func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	records, err := h.modelRepo.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	responses := make([]ModelResponse, 0, len(records))
	for _, model := range records {
		responses = append(responses, modelResponse(model))
	}
	writeJSON(w, http.StatusOK, responses)
}

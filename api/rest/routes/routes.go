package routes

import (
	"seg-orchestrator/api/rest/handlers"
	"seg-orchestrator/core/poller"
	"seg-orchestrator/core/repository"
	"seg-orchestrator/core/submission"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	r *mux.Router,
	db *repository.DB,
	trainings *submission.TrainingService,
	inferences *submission.InferenceService,
	evaluations *submission.EvaluationService,
	manager *poller.Manager,
) {
	trainingHandler := handlers.NewTrainingHandler(trainings)
	predictionHandler := handlers.NewPredictionHandler(inferences)
	evaluationHandler := handlers.NewEvaluationHandler(evaluations)
	modelHandler := handlers.NewModelHandler(repository.NewModelRepository(db))
	jobHandler := handlers.NewJobHandler(repository.NewJobRepository(db))
	healthHandler := handlers.NewHealthHandler(manager)

	api := r.PathPrefix("/v1").Subrouter()

	// Training endpoints
	api.HandleFunc("/trainings", trainingHandler.SubmitTraining).Methods("POST")
	api.HandleFunc("/trainings", trainingHandler.ListTrainings).Methods("GET")
	api.HandleFunc("/trainings/{id}", trainingHandler.GetTraining).Methods("GET")

	// Prediction endpoints
	api.HandleFunc("/predictions", predictionHandler.SubmitPrediction).Methods("POST")
	api.HandleFunc("/predictions/{id}", predictionHandler.GetPrediction).Methods("GET")

	// Evaluation endpoints
	api.HandleFunc("/evaluations", evaluationHandler.SubmitEvaluation).Methods("POST")
	api.HandleFunc("/evaluations/{id}", evaluationHandler.GetEvaluation).Methods("GET")

	// Model catalogue
	api.HandleFunc("/models", modelHandler.ListModels).Methods("GET")
	api.HandleFunc("/models/{id}", modelHandler.GetModel).Methods("GET")

	// Job records
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods("GET")

	r.HandleFunc("/health", healthHandler.GetHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

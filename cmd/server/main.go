package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"seg-orchestrator/api/rest/routes"
	"seg-orchestrator/config"
	"seg-orchestrator/core/poller"
	"seg-orchestrator/core/repository"
	"seg-orchestrator/core/results"
	"seg-orchestrator/core/slurm"
	"seg-orchestrator/core/submission"
	"seg-orchestrator/core/template"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.WithError(err).Fatal("Failed to apply database schema")
	}
	log.Info("Database connected successfully")

	// Initialize scheduler access
	renderer, err := template.NewRenderer(cfg.TemplateDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to load submission templates")
	}
	scheduler := slurm.NewClient(slurm.NewCommandRunner(), cfg.SchedulerTimeout)

	mapping := slurm.DefaultStateMapping()
	if cfg.StateMappingPath != "" {
		if mapping, err = slurm.LoadStateMapping(cfg.StateMappingPath); err != nil {
			log.WithError(err).Fatal("Failed to load scheduler state mapping")
		}
	}

	// Initialize result store; without AWS credentials only filesystem
	// output locations are served.
	resultStore, err := results.NewStore(ctx, cfg.AWSRegion)
	if err != nil {
		log.WithError(err).Warn("S3 results backend unavailable, using filesystem only")
		resultStore = results.NewFilesystemStore()
	}

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	trainingRepo := repository.NewTrainingRepository(db)
	inferenceRepo := repository.NewInferenceRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	modelRepo := repository.NewModelRepository(db)

	// Initialize submission facades
	trainings := submission.NewTrainingService(trainingRepo, jobRepo, renderer, scheduler, cfg.ModelsBasePath)
	inferences := submission.NewInferenceService(inferenceRepo, modelRepo, jobRepo, renderer, scheduler)
	evaluations := submission.NewEvaluationService(evaluationRepo, modelRepo, jobRepo, renderer, scheduler, cfg.ModelsBasePath)

	// Initialize the polling loop, one monitor per job type
	monitors := []*poller.Monitor{
		poller.NewMonitor(jobRepo, scheduler, mapping, poller.NewTrainingHandler(trainingRepo), cfg.UnknownStateThreshold),
		poller.NewMonitor(jobRepo, scheduler, mapping, poller.NewInferenceHandler(inferenceRepo, resultStore), cfg.UnknownStateThreshold),
		poller.NewMonitor(jobRepo, scheduler, mapping, poller.NewEvaluationHandler(evaluationRepo, resultStore), cfg.UnknownStateThreshold),
	}
	manager := poller.NewManager(monitors, cfg.PollInterval)
	if err := manager.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start job poller")
	}
	defer manager.Stop()

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, db, trainings, inferences, evaluations, manager)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.WithField("port", cfg.ServerPort).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}
	log.Info("Server exited")
}

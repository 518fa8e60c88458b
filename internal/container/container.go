package container

import (
	"context"
	"fmt"

	"datalens/app"
	"datalens/internal"
	"datalens/internal/api"
	"datalens/internal/config"
	"datalens/internal/dataset"
	"datalens/internal/session"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Pipeline
	Processor *dataset.Processor
	Sessions  *session.Manager

	// Notifications
	SSEHub *api.SSEHub

	// Services
	Datasets *app.DatasetService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger()
	processor := dataset.NewProcessor(cfg.PipelineOptions(), logger)
	sessions := session.NewManager(processor.Discovery(), logger)
	hub := api.NewSSEHub(logger)
	notifier := api.FanoutNotifier{hub, api.NewLogNotifier(logger)}

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Processor: processor,
		Sessions:  sessions,
		SSEHub:    hub,
		Datasets:  app.NewDatasetService(processor, sessions, notifier, logger),
	}

	logger.Info("Container initialized: formats=%v templates=%s palette=%s max_rows=%d",
		cfg.Pipeline.SupportedFormats, cfg.Pipeline.MetricTemplates, cfg.Pipeline.ColorPalette, cfg.Pipeline.MaxRows)
	return c, nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}
	if c.Logger != nil {
		// zap reports an error syncing stderr on some platforms
		_ = c.Logger.Sync()
	}
	return ctx.Err()
}

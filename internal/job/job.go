// Package job carries the collaborators of one pipeline run.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/ade-events/internal/logger"
	"github.com/pfrederiksen/ade-events/internal/metrics"
	"github.com/pfrederiksen/ade-events/internal/storage"
)

// Context is built once per run and handed to each stage entry point.
type Context struct {
	Store   storage.Store
	Keys    storage.Keys
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	RunID   string
	// Now returns the current time; tests pin it
	Now func() time.Time
}

// New creates a run context with a fresh run id. The logger is tagged with
// the run id and job name.
func New(name string, store storage.Store, keys storage.Keys, log *logger.Logger) *Context {
	runID := uuid.NewString()
	if log == nil {
		log = logger.NewNop()
	}

	return &Context{
		Store:   store,
		Keys:    keys,
		Logger:  log.With(logger.Fields{"run_id": runID, "job": name}),
		Metrics: metrics.New(),
		RunID:   runID,
		Now:     time.Now,
	}
}

// Package registry maps step kinds to their executors and validates step
// configuration against executor-declared schemas.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/protocol"
)

type Registry struct {
	logger    *slog.Logger
	factories map[models.StepKind]protocol.StepExecutorFactory
	executors map[models.StepKind]protocol.StepExecutor
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[models.StepKind]protocol.StepExecutorFactory),
		executors: make(map[models.StepKind]protocol.StepExecutor),
	}
}

// Register adds a step executor factory. Executors are created eagerly:
// step dispatch happens on every advance and must not pay factory costs.
func (r *Registry) Register(factory protocol.StepExecutorFactory) error {
	executor, err := factory.Create()
	if err != nil {
		return fmt.Errorf("failed to create %s executor: %w", factory.ID(), err)
	}

	r.factories[factory.ID()] = factory
	r.executors[factory.ID()] = executor

	r.logger.Info("Registered step executor", "kind", factory.ID())

	return nil
}

// ExecutorFor returns the executor for a step kind.
func (r *Registry) ExecutorFor(kind models.StepKind) (protocol.StepExecutor, error) {
	executor, ok := r.executors[kind]
	if !ok {
		return nil, fmt.Errorf("step kind '%s' not registered", kind)
	}

	return executor, nil
}

// Kinds returns the registered step kinds.
func (r *Registry) Kinds() []models.StepKind {
	kinds := make([]models.StepKind, 0, len(r.executors))
	for kind := range r.executors {
		kinds = append(kinds, kind)
	}

	return kinds
}

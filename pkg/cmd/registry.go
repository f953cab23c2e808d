// Package cmd provides shared initialization for the windward binaries.
package cmd

import (
	"log/slog"

	"github.com/windward-io/windward/pkg/protocol"
	"github.com/windward-io/windward/pkg/registry"
	"github.com/windward-io/windward/pkg/steps/condition"
	"github.com/windward-io/windward/pkg/steps/email"
	"github.com/windward-io/windward/pkg/steps/tagupdate"
	"github.com/windward-io/windward/pkg/steps/wait"
	"github.com/windward-io/windward/pkg/steps/webhook"
)

// NewRegistry builds the step registry with every native step kind wired to
// its collaborators.
func NewRegistry(logger *slog.Logger, mailer protocol.Mailer, profiles protocol.ProfileStore) *registry.Registry {
	reg := registry.NewRegistry(logger)

	factories := []protocol.StepExecutorFactory{
		email.NewFactory(mailer, profiles),
		wait.NewFactory(),
		condition.NewFactory(profiles),
		tagupdate.NewFactory(profiles),
		webhook.NewFactory(),
	}

	for _, factory := range factories {
		if err := reg.Register(factory); err != nil {
			panic(err)
		}
	}

	return reg
}

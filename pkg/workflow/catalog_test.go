package workflow

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windward-io/windward/pkg/mocks"
	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
	"github.com/windward-io/windward/pkg/persistence/file"
	"github.com/windward-io/windward/pkg/registry"
	"github.com/windward-io/windward/pkg/steps/condition"
	"github.com/windward-io/windward/pkg/steps/email"
	"github.com/windward-io/windward/pkg/steps/tagupdate"
	"github.com/windward-io/windward/pkg/steps/wait"
	"github.com/windward-io/windward/pkg/steps/webhook"
)

func testCatalog(t *testing.T) (*Catalog, persistence.WorkflowRepository) {
	t.Helper()

	logger := slog.Default()
	store := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	require.NoError(t, reg.Register(email.NewFactory(new(mocks.MockMailer), new(mocks.MockProfileStore))))
	require.NoError(t, reg.Register(wait.NewFactory()))
	require.NoError(t, reg.Register(condition.NewFactory(new(mocks.MockProfileStore))))
	require.NoError(t, reg.Register(tagupdate.NewFactory(new(mocks.MockProfileStore))))
	require.NoError(t, reg.Register(webhook.NewFactory()))

	return NewCatalog(logger, store.WorkflowRepository(), reg), store.WorkflowRepository()
}

func catalogWorkflow(id, event string) *models.Workflow {
	return &models.Workflow{
		ID:     id,
		Name:   "Catalog Workflow",
		Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{
			ID:        id + "-trigger",
			Name:      "Catalog Trigger",
			Event:     event,
			Workflows: []string{id},
		},
		Steps: []*models.WorkflowStep{
			{
				ID:    "send-email",
				Kind:  models.StepKindEmail,
				Name:  "Send Email",
				Email: &models.EmailStepConfig{TemplateID: "welcome-lead"},
			},
		},
	}
}

func TestCatalog_RegisterAndGet(t *testing.T) {
	catalog, repository := testCatalog(t)
	ctx := context.Background()

	workflow := catalogWorkflow("welcome-series-v1", "user.created")
	require.NoError(t, catalog.Register(ctx, workflow))

	got, err := catalog.Get("welcome-series-v1")
	require.NoError(t, err)
	assert.Equal(t, "welcome-series-v1", got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())

	persisted, err := repository.GetByID(ctx, "welcome-series-v1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, persisted.Name)
}

func TestCatalog_GetUnknown(t *testing.T) {
	catalog, _ := testCatalog(t)

	_, err := catalog.Get("ghost")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestCatalog_RegisterRejectsInvalidDefinitions(t *testing.T) {
	stray := catalogWorkflow("stray-config-v1", "user.created")
	stray.Steps[0].Wait = &models.WaitStepConfig{DelayMinutes: 10}

	dangling := catalogWorkflow("dangling-v1", "user.created")
	unknown := "missing-step"
	dangling.Steps[0].NextStepID = &unknown

	cyclic := catalogWorkflow("cyclic-v1", "user.created")
	self := "send-email"
	cyclic.Steps[0].NextStepID = &self

	noName := catalogWorkflow("no-name-v1", "user.created")
	noName.Name = ""

	noSchema := catalogWorkflow("no-template-v1", "user.created")
	noSchema.Steps[0].Email = &models.EmailStepConfig{}

	tests := []struct {
		name     string
		workflow *models.Workflow
		wantErr  string
	}{
		{name: "no steps", workflow: &models.Workflow{ID: "empty-v1", Name: "Empty", Status: models.WorkflowStatusActive, Trigger: catalogWorkflow("empty-v1", "user.created").Trigger}, wantErr: "invalid definition"},
		{name: "stray config variant", workflow: stray, wantErr: "stray wait configuration"},
		{name: "dangling successor", workflow: dangling, wantErr: "unknown step"},
		{name: "self cycle", workflow: cyclic, wantErr: "cycle"},
		{name: "missing name", workflow: noName, wantErr: "invalid definition"},
		{name: "schema violation", workflow: noSchema, wantErr: "configuration invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, _ := testCatalog(t)

			err := catalog.Register(context.Background(), tt.workflow)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)

			if tt.workflow.ID != "" {
				_, err = catalog.Get(tt.workflow.ID)
				assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
			}
		})
	}
}

func TestCatalog_ActiveByEvent(t *testing.T) {
	catalog, _ := testCatalog(t)
	ctx := context.Background()

	require.NoError(t, catalog.Register(ctx, catalogWorkflow("on-signup-v1", "user.created")))
	require.NoError(t, catalog.Register(ctx, catalogWorkflow("on-signup-v2", "user.created")))
	require.NoError(t, catalog.Register(ctx, catalogWorkflow("on-booking-v1", "booking.confirmed")))

	dormant := catalogWorkflow("dormant-v1", "user.created")
	dormant.Status = models.WorkflowStatusInactive
	require.NoError(t, catalog.Register(ctx, dormant))

	matched := catalog.ActiveByEvent("user.created")
	require.Len(t, matched, 2)

	ids := []string{matched[0].ID, matched[1].ID}
	assert.ElementsMatch(t, []string{"on-signup-v1", "on-signup-v2"}, ids)

	assert.Empty(t, catalog.ActiveByEvent("price.dropped"))
}

func TestCatalog_Restore(t *testing.T) {
	logger := slog.Default()
	store := file.NewPersistence(t.TempDir())
	ctx := context.Background()

	original := NewCatalog(logger, store.WorkflowRepository(), nil)
	require.NoError(t, original.Register(ctx, catalogWorkflow("survivor-v1", "user.created")))

	restarted := NewCatalog(logger, store.WorkflowRepository(), nil)
	require.NoError(t, restarted.Restore(ctx))

	got, err := restarted.Get("survivor-v1")
	require.NoError(t, err)
	assert.Equal(t, "survivor-v1", got.ID)
	assert.Len(t, restarted.All(), 1)
}

func TestCatalog_StatCounters(t *testing.T) {
	catalog, repository := testCatalog(t)
	ctx := context.Background()

	require.NoError(t, catalog.Register(ctx, catalogWorkflow("counted-v1", "user.created")))

	catalog.RecordTriggered(ctx, "counted-v1")
	catalog.RecordTriggered(ctx, "counted-v1")
	catalog.RecordCompleted(ctx, "counted-v1")
	catalog.RecordFailed(ctx, "counted-v1")

	got, err := catalog.Get("counted-v1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Stats.Triggered)
	assert.Equal(t, int64(1), got.Stats.Completed)
	assert.Equal(t, int64(1), got.Stats.Failed)

	persisted, err := repository.GetByID(ctx, "counted-v1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), persisted.Stats.Triggered)

	// unknown ids are ignored
	catalog.RecordTriggered(ctx, "ghost")
}

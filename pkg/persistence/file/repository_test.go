package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windward-io/windward/pkg/models"
	"github.com/windward-io/windward/pkg/persistence"
)

func testWorkflow(id string) *models.Workflow {
	return &models.Workflow{
		ID:     id,
		Name:   "Stored Workflow",
		Status: models.WorkflowStatusActive,
		Trigger: models.Trigger{
			ID:        id + "-trigger",
			Name:      "Stored Trigger",
			Event:     "user.created",
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

func testExecution(workflowID, subjectID string) *models.WorkflowExecution {
	return models.NewWorkflowExecution(testWorkflow(workflowID), subjectID, map[string]any{"source": "landing-page"})
}

func TestWorkflowRepository_RoundTrip(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()
	ctx := context.Background()

	workflow := testWorkflow("welcome-series-v1")
	require.NoError(t, repo.Save(ctx, workflow))

	got, err := repo.GetByID(ctx, "welcome-series-v1")
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, got.Name)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "welcome-lead", got.Steps[0].Email.TemplateID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, "welcome-series-v1"))

	_, err = repo.GetByID(ctx, "welcome-series-v1")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestWorkflowRepository_GetByIDNotFound(t *testing.T) {
	repo := NewPersistence(t.TempDir()).WorkflowRepository()

	_, err := repo.GetByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestExecutionRepository_RoundTrip(t *testing.T) {
	repo := NewPersistence(t.TempDir()).ExecutionRepository()
	ctx := context.Background()

	execution := testExecution("welcome-series-v1", "user-42")
	require.NoError(t, repo.Save(ctx, execution))

	got, err := repo.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.SubjectID, got.SubjectID)
	assert.Equal(t, models.ExecutionStatusRunning, got.Status)
	require.Len(t, got.Log, 1)
	assert.Equal(t, "trigger", got.Log[0].StepID)

	_, err = repo.GetByID(ctx, "exec-ghost")
	assert.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestExecutionRepository_ByWorkflow(t *testing.T) {
	repo := NewPersistence(t.TempDir()).ExecutionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, testExecution("welcome-series-v1", "user-1")))
	require.NoError(t, repo.Save(ctx, testExecution("welcome-series-v1", "user-2")))
	require.NoError(t, repo.Save(ctx, testExecution("booking-followup-v1", "user-3")))

	matching, err := repo.ByWorkflow(ctx, "welcome-series-v1")
	require.NoError(t, err)
	assert.Len(t, matching, 2)

	none, err := repo.ByWorkflow(ctx, "re-engagement-v1")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExecutionRepository_DueResumptions(t *testing.T) {
	repo := NewPersistence(t.TempDir()).ExecutionRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	due := testExecution("welcome-series-v1", "user-due")
	due.WaitUntil = &past
	require.NoError(t, repo.Save(ctx, due))

	future := now.Add(time.Hour)
	waiting := testExecution("welcome-series-v1", "user-waiting")
	waiting.WaitUntil = &future
	require.NoError(t, repo.Save(ctx, waiting))

	pausedDeadline := now.Add(-time.Minute)
	paused := testExecution("welcome-series-v1", "user-paused")
	paused.Status = models.ExecutionStatusPaused
	paused.WaitUntil = &pausedDeadline
	require.NoError(t, repo.Save(ctx, paused))

	running := testExecution("welcome-series-v1", "user-running")
	require.NoError(t, repo.Save(ctx, running))

	resumable, err := repo.DueResumptions(ctx, now)
	require.NoError(t, err)
	require.Len(t, resumable, 1)
	assert.Equal(t, due.ID, resumable[0].ID)
}

func TestProfileRepository_RoundTripAndTags(t *testing.T) {
	repo := NewPersistence(t.TempDir()).ProfileRepository()
	ctx := context.Background()

	profile := &models.Profile{
		ID:        "user-42",
		Email:     "ana@example.com",
		FirstName: "Ana",
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Save(ctx, profile))

	require.NoError(t, repo.ApplyTags(ctx, "user-42", []string{"vip", "lastAlertSent:1760000000000"}))

	got, err := repo.GetByID(ctx, "user-42")
	require.NoError(t, err)
	assert.Contains(t, got.Tags, "vip")
	assert.Equal(t, "1760000000000", got.Attributes["lastAlertSent"])

	err = repo.ApplyTags(ctx, "ghost", []string{"vip"})
	assert.ErrorIs(t, err, persistence.ErrProfileNotFound)
}

func TestProfileRepository_InactiveSince(t *testing.T) {
	repo := NewPersistence(t.TempDir()).ProfileRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	stale := &models.Profile{
		ID:        "user-stale",
		Email:     "stale@example.com",
		UpdatedAt: now.Add(-40 * 24 * time.Hour),
	}
	require.NoError(t, repo.Save(ctx, stale))

	fresh := &models.Profile{
		ID:        "user-fresh",
		Email:     "fresh@example.com",
		UpdatedAt: now,
	}
	require.NoError(t, repo.Save(ctx, fresh))

	inactive, err := repo.InactiveSince(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"user-stale"}, inactive)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/windward-data")
	assert.Error(t, missing.HealthCheck(context.Background()))
}

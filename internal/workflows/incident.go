package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// Activity names registered by the worker.
const (
	ActivityStoreIncident   = "StoreIncident"
	ActivityPublishIncident = "PublishIncident"
)

// IncidentInput is the input for the incident workflow. The incident is
// already stamped with its ID and timestamp so retries write the same row.
type IncidentInput struct {
	Incident domain.Incident
}

// IncidentWorkflow stores a reported incident and then announces it.
// Storing must succeed; a publish failure is logged and does not fail the
// workflow.
func IncidentWorkflow(ctx workflow.Context, input IncidentInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Recording incident", "incidentID", input.Incident.ID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 5,
		},
	})

	if err := workflow.ExecuteActivity(ctx, ActivityStoreIncident, input.Incident).Get(ctx, nil); err != nil {
		return err
	}

	pubCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
	if err := workflow.ExecuteActivity(pubCtx, ActivityPublishIncident, input.Incident).Get(ctx, nil); err != nil {
		logger.Warn("incident publish failed", "incidentID", input.Incident.ID, "error", err)
	}

	logger.Info("Incident recorded", "incidentID", input.Incident.ID)
	return nil
}

package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

// Dispatcher implements ports.IncidentRecorder by running IncidentWorkflow
// and waiting for it to finish.
type Dispatcher struct {
	client    client.Client
	incidents *usecases.IncidentService
	taskQueue string
}

// NewDispatcher creates a Dispatcher. incidents is used only to validate and
// stamp reports before they are handed to the workflow.
func NewDispatcher(c client.Client, incidents *usecases.IncidentService, taskQueue string) *Dispatcher {
	return &Dispatcher{client: c, incidents: incidents, taskQueue: taskQueue}
}

// Record starts the workflow and blocks until the incident is stored.
func (d *Dispatcher) Record(ctx context.Context, location domain.GeoPoint) (*domain.Incident, error) {
	inc, err := d.incidents.NewIncident(location)
	if err != nil {
		return nil, err
	}

	run, err := d.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "incident-" + inc.ID,
		TaskQueue: d.taskQueue,
	}, IncidentWorkflow, IncidentInput{Incident: *inc})
	if err != nil {
		return nil, fmt.Errorf("start incident workflow: %w", err)
	}
	if err := run.Get(ctx, nil); err != nil {
		return nil, fmt.Errorf("incident workflow %s: %w", run.GetID(), err)
	}
	return inc, nil
}

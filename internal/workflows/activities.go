package workflows

import (
	"context"
	"fmt"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/usecases"
)

// IncidentActivities holds the activity implementations for IncidentWorkflow.
type IncidentActivities struct {
	Incidents *usecases.IncidentService
}

// StoreIncident persists the incident. Stores ignore duplicate IDs, so a
// retried activity is safe.
func (a *IncidentActivities) StoreIncident(ctx context.Context, inc domain.Incident) error {
	if err := a.Incidents.Store(ctx, &inc); err != nil {
		return fmt.Errorf("store incident %s: %w", inc.ID, err)
	}
	return nil
}

// PublishIncident emits the incident event.
func (a *IncidentActivities) PublishIncident(ctx context.Context, inc domain.Incident) error {
	return a.Incidents.Publish(ctx, &inc)
}

package inventory

import "context"

// IntegrationHandler receives inventory events for financial integration.
type IntegrationHandler interface {
	HandleMovementApplied(ctx context.Context, evt MovementAppliedEvent) error
}

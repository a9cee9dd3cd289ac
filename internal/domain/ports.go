package domain

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Event names the notification kinds emitted on lifecycle transitions.
type Event string

const (
	EventNewRequest           Event = "new_request"
	EventRequestAccepted      Event = "request_accepted"
	EventStatusUpdate         Event = "status_update"
	EventPaymentReceived      Event = "payment_received"
	EventRequestReadyToPickup Event = "request_ready_to_pickup"
)

// Notification channels address either one user or the supplier broadcast pool.

// CustomerChannel addresses a single customer.
func CustomerChannel(id uuid.UUID) string {
	return fmt.Sprintf("customer_%s", id)
}

// SupplierChannel addresses a single supplier.
func SupplierChannel(id uuid.UUID) string {
	return fmt.Sprintf("supplier_%s", id)
}

// SuppliersBroadcast addresses every connected supplier.
const SuppliersBroadcast = "suppliers"

// Notifier delivers lifecycle events with the updated aggregate snapshot.
// Delivery is best-effort: publish failures must never roll back the state
// transition that produced them.
type Notifier interface {
	Publish(ctx context.Context, event Event, channel string, payload interface{}) error
}

// PushSender delivers push notifications to device tokens. Failures are logged
// by implementations, never propagated to the caller's business flow.
type PushSender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

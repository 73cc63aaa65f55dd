package order

import "fmt"

// Status is the closed set of order lifecycle states. The string values are
// the exact labels the clients display and the store persists.
type Status string

const (
	StatusNewPickUp      Status = "New Pick up"
	StatusNewDelivery    Status = "New Delivery"
	StatusNewReservation Status = "New Reservation"
	StatusPreparing      Status = "Preparing"
	StatusReadyForPickUp Status = "Ready for Pick up"
	StatusOutForDelivery Status = "Out for Delivery"
	StatusConfirmed      Status = "Confirmed"
	StatusPickedUp       Status = "Picked up"
	StatusDelivered      Status = "Delivered"
	StatusCompleted      Status = "Completed"
	StatusCancelled      Status = "Cancelled"

	// StatusPending marks an order left unresolved after the customer declined
	// the time-up prompt. The admin console resolves it from the New tab.
	StatusPending Status = "Pending"
)

// chains holds the forward progression of statuses per service type.
var chains = map[ServiceType][]Status{
	ServicePickUp:      {StatusNewPickUp, StatusPreparing, StatusReadyForPickUp, StatusPickedUp},
	ServiceDelivery:    {StatusNewDelivery, StatusPreparing, StatusOutForDelivery, StatusDelivered},
	ServiceReservation: {StatusNewReservation, StatusConfirmed, StatusCompleted},
}

// NewStatus returns the initial status for an order of the given service
// type.
func NewStatus(s ServiceType) Status {
	return chains[s][0]
}

// TerminalSuccess returns the successful terminal status for the service
// type: Picked up, Delivered, or Completed.
func TerminalSuccess(s ServiceType) Status {
	c := chains[s]
	return c[len(c)-1]
}

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	switch s {
	case StatusPickedUp, StatusDelivered, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Allowed returns every status reachable over the lifetime of an order with
// the given service type.
func Allowed(s ServiceType) []Status {
	out := make([]Status, 0, len(chains[s])+2)
	out = append(out, chains[s]...)
	return append(out, StatusCancelled, StatusPending)
}

// CanTransition reports whether an admin-initiated move from one status to
// another is legal for the given service type. Legal moves are the next step
// of the service chain, Cancelled from any non-terminal state, and any
// forward chain step out of Pending.
func CanTransition(s ServiceType, from, to Status) bool {
	if from.Terminal() || from == to {
		return false
	}
	if to == StatusCancelled {
		return true
	}

	chain := chains[s]
	if from == StatusPending {
		for _, st := range chain[1:] {
			if st == to {
				return true
			}
		}
		return false
	}
	for i, st := range chain {
		if st == from {
			return i+1 < len(chain) && chain[i+1] == to
		}
	}
	return false
}

// InvalidTransitionError reports a rejected status transition.
type InvalidTransitionError struct {
	ServiceType ServiceType
	From        Status
	To          Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %q -> %q", e.ServiceType, e.From, e.To)
}

// Tab is the admin console category of an order.
type Tab int

const (
	TabNew Tab = iota
	TabActive
	TabHistory
)

// TabFor derives the admin console tab from the status enum. Fresh and
// unresolved orders land in New, terminal orders in History, everything in
// flight in Active.
func TabFor(s Status) Tab {
	switch s {
	case StatusNewPickUp, StatusNewDelivery, StatusNewReservation, StatusPending:
		return TabNew
	}
	if s.Terminal() {
		return TabHistory
	}
	return TabActive
}

package services

// Seating events published after a mutation has been committed.
const (
	EventTableAssigned     = "table.assigned"
	EventTableReleased     = "table.released"
	EventTableVacated      = "table.vacated"
	EventTableCleaned      = "table.cleaned"
	EventReservationSaved  = "reservation.saved"
	EventReservationStatus = "reservation.status_changed"
	EventWaitlistSaved     = "waitlist.saved"
	EventWaitlistStatus    = "waitlist.status_changed"
)

// EventPublisher fans seating events out to terminals and other services.
// Implementations must not block for long and must not fail the caller.
type EventPublisher interface {
	Publish(event string, data interface{})
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

// MultiPublisher sends every event to each publisher in order.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(event string, data interface{}) {
	for _, p := range m {
		if p != nil {
			p.Publish(event, data)
		}
	}
}

// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Commands publish them after a successful commit;
// notification handlers and metrics subscribe to them.
const (
	// Progression events
	EventProgressionCreated EventType = "progression.created"
	EventMilestoneCompleted EventType = "progression.milestone_completed"
	EventMilestoneReopened  EventType = "progression.milestone_reopened"
	EventPhaseAdvanced      EventType = "progression.phase_advanced"
	EventPhaseFlagged       EventType = "progression.phase_flagged"

	// Lead events
	EventLeadCreated       EventType = "lead.created"
	EventLeadStatusChanged EventType = "lead.status_changed"
	EventLeadDeleted       EventType = "lead.deleted"

	// Placement events
	EventPlacementRegistered    EventType = "placement.registered"
	EventPlacementStatusChanged EventType = "placement.status_changed"
	EventPlacementDeleted       EventType = "placement.deleted"

	// Schedule events
	EventDeadlineApproaching EventType = "schedule.deadline_approaching"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Progression Events
// ═══════════════════════════════════════════════════════════════════════════

// MilestoneCompletedEvent is emitted on a not-completed → completed transition.
type MilestoneCompletedEvent struct {
	BaseEvent
	StudentID     string `json:"student_id"`
	MilestoneID   string `json:"milestone_id"`
	MilestoneName string `json:"milestone_name"`
	Phase         string `json:"phase"`
}

// Payload implements Event interface.
func (e MilestoneCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":     e.StudentID,
		"milestone_id":   e.MilestoneID,
		"milestone_name": e.MilestoneName,
		"phase":          e.Phase,
	}
}

// NewMilestoneCompletedEvent creates a new MilestoneCompletedEvent.
func NewMilestoneCompletedEvent(studentID, milestoneID, name, phase string, at time.Time) MilestoneCompletedEvent {
	return MilestoneCompletedEvent{
		BaseEvent:     NewBaseEvent(EventMilestoneCompleted, studentID, at),
		StudentID:     studentID,
		MilestoneID:   milestoneID,
		MilestoneName: name,
		Phase:         phase,
	}
}

// PhaseAdvancedEvent is emitted when a student's current phase changes.
// Flagged is set when the guard honored the change but marked it as suspicious
// (backward move, window not open yet under an admin override).
type PhaseAdvancedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	ActorID   string `json:"actor_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Flagged   bool   `json:"flagged"`
	Reason    string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e PhaseAdvancedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"actor_id":   e.ActorID,
		"from":       e.From,
		"to":         e.To,
		"flagged":    e.Flagged,
		"reason":     e.Reason,
	}
}

// NewPhaseAdvancedEvent creates a new PhaseAdvancedEvent.
func NewPhaseAdvancedEvent(studentID, actorID, from, to string, flagged bool, reason string, at time.Time) PhaseAdvancedEvent {
	eventType := EventPhaseAdvanced
	if flagged {
		eventType = EventPhaseFlagged
	}
	return PhaseAdvancedEvent{
		BaseEvent: NewBaseEvent(eventType, studentID, at),
		StudentID: studentID,
		ActorID:   actorID,
		From:      from,
		To:        to,
		Flagged:   flagged,
		Reason:    reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Lead Events
// ═══════════════════════════════════════════════════════════════════════════

// LeadStatusChangedEvent is emitted when an update changes a lead's status.
type LeadStatusChangedEvent struct {
	BaseEvent
	StudentID       string `json:"student_id"`
	CompanyID       string `json:"company_id"`
	From            string `json:"from"`
	To              string `json:"to"`
	ContactAttempts int    `json:"contact_attempts"`
}

// Payload implements Event interface.
func (e LeadStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":       e.StudentID,
		"company_id":       e.CompanyID,
		"from":             e.From,
		"to":               e.To,
		"contact_attempts": e.ContactAttempts,
	}
}

// NewLeadStatusChangedEvent creates a new LeadStatusChangedEvent.
func NewLeadStatusChangedEvent(leadID, studentID, companyID, from, to string, attempts int, at time.Time) LeadStatusChangedEvent {
	return LeadStatusChangedEvent{
		BaseEvent:       NewBaseEvent(EventLeadStatusChanged, leadID, at),
		StudentID:       studentID,
		CompanyID:       companyID,
		From:            from,
		To:              to,
		ContactAttempts: attempts,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Placement Events
// ═══════════════════════════════════════════════════════════════════════════

// PlacementStatusChangedEvent is emitted when staff change a placement's status.
type PlacementStatusChangedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	CompanyID string `json:"company_id"`
	ActorID   string `json:"actor_id"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// Payload implements Event interface.
func (e PlacementStatusChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"company_id": e.CompanyID,
		"actor_id":   e.ActorID,
		"from":       e.From,
		"to":         e.To,
	}
}

// NewPlacementStatusChangedEvent creates a new PlacementStatusChangedEvent.
func NewPlacementStatusChangedEvent(placementID, studentID, companyID, actorID, from, to string, at time.Time) PlacementStatusChangedEvent {
	return PlacementStatusChangedEvent{
		BaseEvent: NewBaseEvent(EventPlacementStatusChanged, placementID, at),
		StudentID: studentID,
		CompanyID: companyID,
		ActorID:   actorID,
		From:      from,
		To:        to,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Generic Events
// ═══════════════════════════════════════════════════════════════════════════

// SimpleEvent carries create/delete notifications that need no typed payload.
type SimpleEvent struct {
	BaseEvent
	Data map[string]interface{} `json:"data,omitempty"`
}

// Payload implements Event interface.
func (e SimpleEvent) Payload() map[string]interface{} {
	return e.Data
}

// NewSimpleEvent creates a new SimpleEvent.
func NewSimpleEvent(eventType EventType, aggregateID string, data map[string]interface{}, at time.Time) SimpleEvent {
	return SimpleEvent{
		BaseEvent: NewBaseEvent(eventType, aggregateID, at),
		Data:      data,
	}
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher drops every event. Used when no bus is wired.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }

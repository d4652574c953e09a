package model

import "time"

// EventKind classifies an entry in the check-in history.
type EventKind string

const (
	EventShown     EventKind = "shown"
	EventAttended  EventKind = "attended"
	EventSnoozed   EventKind = "snoozed"
	EventDismissed EventKind = "dismissed"
	EventResolved  EventKind = "resolved"
	EventBlocked   EventKind = "blocked"
	EventNote      EventKind = "note"
)

// CheckinEvent records a check-in surfaced to the user or the user's
// response to it.
type CheckinEvent struct {
	// ID is the unique identifier for this event.
	ID string `json:"id" db:"id"`

	Kind     EventKind   `json:"kind" db:"kind"`
	Stage    Stage       `json:"stage" db:"stage"`
	Category CategoryKey `json:"category" db:"category"`

	// Count is the category count at the time of the event.
	Count int `json:"count" db:"count"`

	// Message is the text that was shown, if any.
	Message string `json:"message" db:"message"`

	// Note is free text captured from the user.
	Note string `json:"note" db:"note"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

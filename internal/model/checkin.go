package model

import "time"

// CategoryRecord is the latest acknowledgement or dismissal for a
// category, paired with the count at that moment. One record is kept per
// category; writing a new one overwrites the previous.
type CategoryRecord struct {
	Category  CategoryKey `json:"category"`
	Timestamp time.Time   `json:"timestamp"`
	Count     int         `json:"count"`
}

// Stage is the sub-state of a visible check-in.
type Stage string

const (
	StageIdle         Stage = ""
	StageInitial      Stage = "initial"
	StageFollowUp     Stage = "followup"
	StageProgress     Stage = "progress"
	StageAcknowledged Stage = "acknowledged"
	StageQuestion     Stage = "question"
)

// Action is a user response offered by a visible check-in.
type Action string

const (
	ActionAttend    Action = "attend"
	ActionSnooze    Action = "snooze"
	ActionDismiss   Action = "dismiss"
	ActionAnswerYes Action = "answer_yes"
	ActionAnswerNo  Action = "answer_no"
	ActionSubmit    Action = "submit"
)

// View is what the UI renders for the check-in surface.
type View struct {
	Visible  bool
	Stage    Stage
	Category CategoryKey
	Icon     string
	Message  string

	// Count is the category count when the view was produced.
	Count int

	// Reduced is how many items were cleared since the last record.
	// Only set for StageProgress.
	Reduced int

	Actions []Action
}

// Offers reports whether a is available in the view.
func (v View) Offers(a Action) bool {
	for _, x := range v.Actions {
		if x == a {
			return true
		}
	}
	return false
}

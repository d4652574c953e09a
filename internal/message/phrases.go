package message

import (
	"fmt"

	"github.com/nhle/pulse/internal/model"
)

// Fixed replies for stages that carry no category data.
const (
	AttendedText    = "Thanks! I'll check back on this in a while."
	AffirmedText    = "Glad to hear it. I'll stop asking about these for now."
	QuestionText    = "Sorry to hear that. What's getting in the way?"
	NoteSavedText   = "Thanks, noted."
	FollowUpClosing = "Everything okay?"
)

// Picker chooses an index in [0, n). It stands in for a random choice so
// callers can make variant selection deterministic.
type Picker func(n int) int

// First always picks the first variant.
func First(int) int { return 0 }

var progressVariants = []string{
	"Nice work! %d %s cleared, %d to go.",
	"Progress! %d fewer %s since you last checked, %d left.",
	"Great job, that's %d %s down and %d remaining.",
}

// ProgressVariants is the number of progress phrasings available.
func ProgressVariants() int { return len(progressVariants) }

// Progress phrases a drop in a category count. pick selects the variant;
// nil means the first.
func Progress(key model.CategoryKey, reduced, remaining int, pick Picker) string {
	c, _ := model.LookupCategory(key)
	if pick == nil {
		pick = First
	}
	i := pick(len(progressVariants))
	if i < 0 || i >= len(progressVariants) {
		i = 0
	}
	return fmt.Sprintf(progressVariants[i], reduced, c.Noun(reduced), remaining)
}

// FollowUp phrases a check-in on a category the user engaged with a while
// ago. The text differs depending on whether the count changed since then.
func FollowUp(key model.CategoryKey, previous, current int) string {
	c, _ := model.LookupCategory(key)
	status := templates[key].status
	if previous == current {
		return fmt.Sprintf("There are still %d %s %s. %s",
			current, c.Noun(current), status, FollowUpClosing)
	}
	return fmt.Sprintf("%s %s went from %d to %d since you last checked in. %s",
		capitalize(c.Plural), status, previous, current, FollowUpClosing)
}

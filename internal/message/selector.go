// Package message turns category counts into ranked, human-readable
// check-in candidates.
package message

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nhle/pulse/internal/model"
)

// AllClearIcon tags the canned all-clear candidate.
const AllClearIcon = "✅"

// Candidate is one possible check-in message.
type Candidate struct {
	Category model.CategoryKey
	Icon     string
	Text     string

	// Priority orders candidates; lower is more urgent.
	Priority int
	Count    int

	// AllClear marks the canned message produced when nothing is pending.
	AllClear bool
}

type template struct {
	icon   string
	status string
}

var templates = map[model.CategoryKey]template{
	model.PendingMaintenance:    {icon: "🔧", status: "waiting to be started"},
	model.PendingInspections:    {icon: "🔍", status: "yet to be started"},
	model.InProgressMaintenance: {icon: "🛠", status: "in progress"},
	model.BookedCleanings:       {icon: "🧹", status: "booked"},
	model.DraftInvoices:         {icon: "📝", status: "still in draft"},
	model.SentInvoices:          {icon: "💸", status: "awaiting payment"},
	model.InProgressInspections: {icon: "📋", status: "underway"},
	model.CompletedMaintenance:  {icon: "🏁", status: "completed"},
	model.CompletedCleanings:    {icon: "✨", status: "completed"},
}

// Icon returns the icon tag for key.
func Icon(key model.CategoryKey) string {
	return templates[key].icon
}

// Candidates builds one candidate per actionable category with a positive
// count, ranked by priority. Ties keep declaration order.
func Candidates(stats model.Stats, details model.Details) []Candidate {
	var out []Candidate
	for _, c := range model.Categories {
		n := stats[c.Key]
		if !c.Actionable || n <= 0 {
			continue
		}
		out = append(out, Candidate{
			Category: c.Key,
			Icon:     templates[c.Key].icon,
			Text:     initialText(c, n, details[c.Key]),
			Priority: c.Priority,
			Count:    n,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Select returns the most urgent candidate, or the all-clear candidate
// when every actionable count is zero.
func Select(stats model.Stats, details model.Details) Candidate {
	if cs := Candidates(stats, details); len(cs) > 0 {
		return cs[0]
	}
	return AllClear(stats)
}

// AllClear builds the canned message for an empty workload. Informational
// counters are quoted when non-zero.
func AllClear(stats model.Stats) Candidate {
	var done []string
	for _, c := range model.Categories {
		if c.Actionable {
			continue
		}
		if n := stats[c.Key]; n > 0 {
			done = append(done, fmt.Sprintf("%d %s", n, c.Noun(n)))
		}
	}

	text := "All caught up. Nothing needs your attention right now."
	if len(done) > 0 {
		text += fmt.Sprintf(" %s completed so far.", capitalize(joinList(done)))
	}
	return Candidate{Icon: AllClearIcon, Text: text, AllClear: true}
}

func initialText(c model.Category, n int, details []model.Detail) string {
	text := fmt.Sprintf("You have %d %s %s", n, c.Noun(n), templates[c.Key].status)

	var labels []string
	for _, d := range details {
		if d.Label != "" {
			labels = append(labels, d.Label)
		}
	}
	if len(labels) == 0 {
		return text + "."
	}
	text += ": " + strings.Join(labels, ", ")
	if more := n - len(labels); more > 0 {
		text += fmt.Sprintf(" and %d more", more)
	}
	return text + "."
}

// Greet prefixes text with the user's name when one is known.
func Greet(name, text string) string {
	if name == "" || text == "" {
		return text
	}
	r, size := utf8.DecodeRuneInString(text)
	return fmt.Sprintf("Hi %s, %c%s", name, unicode.ToLower(r), text[size:])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// joinList renders "a", "a and b" or "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

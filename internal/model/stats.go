package model

import "time"

// Stats maps each category to its count for one poll cycle.
type Stats map[CategoryKey]int

// Total returns the sum of all actionable counts.
func (s Stats) Total() int {
	total := 0
	for _, c := range Categories {
		if c.Actionable {
			total += s[c.Key]
		}
	}
	return total
}

// Detail is a representative record used to enrich message text.
type Detail struct {
	ID    string
	Label string
	When  *time.Time
}

// Details maps each category to a handful of representative records.
type Details map[CategoryKey][]Detail

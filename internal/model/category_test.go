package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories_UniqueKeysAndPriorities(t *testing.T) {
	keys := map[CategoryKey]bool{}
	priorities := map[int]bool{}
	for _, c := range Categories {
		assert.False(t, keys[c.Key], "duplicate key %s", c.Key)
		assert.False(t, priorities[c.Priority], "duplicate priority %d", c.Priority)
		keys[c.Key] = true
		priorities[c.Priority] = true
		assert.Contains(t, Collections, c.Collection)
	}
	assert.Len(t, Categories, 9)
}

func TestLookupCategory(t *testing.T) {
	c, ok := LookupCategory(SentInvoices)
	assert.True(t, ok)
	assert.Equal(t, "unpaid invoice", c.Noun(1))
	assert.Equal(t, "unpaid invoices", c.Noun(0))

	_, ok = LookupCategory("tenants")
	assert.False(t, ok)
}

func TestStats_TotalIgnoresInformational(t *testing.T) {
	s := Stats{PendingMaintenance: 2, SentInvoices: 1, CompletedCleanings: 40}

	assert.Equal(t, 3, s.Total())
}

func TestView_Offers(t *testing.T) {
	v := View{Actions: []Action{ActionAttend, ActionDismiss}}

	assert.True(t, v.Offers(ActionAttend))
	assert.False(t, v.Offers(ActionAnswerYes))
}

package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/pulse/internal/model"
)

func TestRows(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 5, 0, 0, time.Local)
	events := []model.CheckinEvent{
		{Kind: model.EventShown, Category: model.SentInvoices, Count: 2, Message: "You have 2 unpaid invoices awaiting payment.", CreatedAt: at},
		{Kind: model.EventNote, Category: model.PendingMaintenance, Note: "waiting on parts", Message: "ignored", CreatedAt: at},
		{Kind: model.EventShown, Category: "legacy", CreatedAt: at},
	}

	rows := Rows(events)

	require.Len(t, rows, 3)
	assert.Equal(t, "Mar 10 09:05", rows[0][0])
	assert.Equal(t, "shown", rows[0][1])
	assert.Equal(t, "unpaid invoices", rows[0][2])
	assert.Equal(t, "2", rows[0][3])
	assert.Equal(t, "“waiting on parts”", rows[1][4])
	assert.Equal(t, "legacy", rows[2][2])
}

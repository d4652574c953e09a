// Package aggregate reduces a record snapshot to per-category counts and
// a few representative records per category.
package aggregate

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/pulse/internal/model"
)

// dateLayout formats dates inside detail labels.
const dateLayout = "Jan 2"

// Aggregate counts the records matching each category predicate and keeps
// at most maxDetails representative records per category. Every category
// in model.Categories is present in the returned Stats, zero included.
// Records with an empty status match nothing.
func Aggregate(snap *model.Snapshot, maxDetails int) (model.Stats, model.Details) {
	stats := make(model.Stats, len(model.Categories))
	details := make(model.Details)
	for _, c := range model.Categories {
		stats[c.Key] = 0
	}
	if snap == nil {
		return stats, details
	}

	buildings := make(map[string]string, len(snap.Buildings))
	for _, b := range snap.Buildings {
		buildings[b.ID] = b.Name
	}

	add := func(c model.Category, d model.Detail) {
		stats[c.Key]++
		if len(details[c.Key]) < maxDetails {
			details[c.Key] = append(details[c.Key], d)
		}
	}

	for _, c := range model.Categories {
		switch c.Collection {
		case model.CollectionMaintenance:
			for _, r := range snap.Maintenance {
				if r.Status != "" && r.Status == c.Status {
					add(c, maintenanceDetail(r, buildings))
				}
			}
		case model.CollectionCleanings:
			for _, r := range snap.Cleanings {
				if r.Status != "" && r.Status == c.Status {
					add(c, unitDetail(r.ID, r.Unit, buildings[r.BuildingID], r.Date))
				}
			}
		case model.CollectionInspections:
			for _, r := range snap.Inspections {
				if r.Status != "" && r.Status == c.Status {
					add(c, unitDetail(r.ID, r.Unit, buildings[r.BuildingID], r.Date))
				}
			}
		case model.CollectionInvoices:
			for _, r := range snap.Invoices {
				if r.Status != "" && r.Status == c.Status {
					add(c, invoiceDetail(r))
				}
			}
		}
	}

	return stats, details
}

func maintenanceDetail(r model.MaintenanceRequest, buildings map[string]string) model.Detail {
	label := place(r.Unit, buildings[r.BuildingID])
	if r.Title != "" {
		if label != "" {
			label = fmt.Sprintf("%s (%s)", r.Title, label)
		} else {
			label = r.Title
		}
	}
	return model.Detail{ID: r.ID, Label: label, When: r.CreatedAt}
}

func unitDetail(id, unit, building string, when *time.Time) model.Detail {
	label := place(unit, building)
	if when != nil {
		label = strings.TrimSpace(label + " on " + when.Format(dateLayout))
	}
	return model.Detail{ID: id, Label: label, When: when}
}

func invoiceDetail(r model.Invoice) model.Detail {
	var label string
	if r.Number != "" {
		label = "#" + r.Number
	}
	if r.DueDate != nil {
		label = strings.TrimSpace(label + " due " + r.DueDate.Format(dateLayout))
	}
	return model.Detail{ID: r.ID, Label: label, When: r.DueDate}
}

// place renders "unit 4B at Harbour View" from whichever parts are known.
func place(unit, building string) string {
	switch {
	case unit != "" && building != "":
		return fmt.Sprintf("unit %s at %s", unit, building)
	case unit != "":
		return "unit " + unit
	default:
		return building
	}
}

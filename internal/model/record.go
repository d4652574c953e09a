package model

import "time"

// Collection names a record collection on the managed backend.
type Collection string

const (
	CollectionMaintenance Collection = "maintenance"
	CollectionCleanings   Collection = "cleanings"
	CollectionInspections Collection = "inspections"
	CollectionInvoices    Collection = "invoices"
	CollectionBuildings   Collection = "buildings"
)

// Collections is the fixed set of collections read on every poll.
var Collections = []Collection{
	CollectionMaintenance,
	CollectionCleanings,
	CollectionInspections,
	CollectionInvoices,
	CollectionBuildings,
}

// Record status values as written by the portal. The casing differs
// between collections and is matched exactly.
const (
	StatusNotStarted = "not-started"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusBooked     = "Booked"
	StatusDraft      = "Draft"
	StatusSent       = "Sent"
	StatusPaid       = "Paid"
)

// Document is a raw record as returned by a collection reader.
// The "id" key carries the document identifier.
type Document map[string]any

// ID returns the document identifier, or "" when absent.
func (d Document) ID() string {
	if id, ok := d["id"].(string); ok {
		return id
	}
	return ""
}

// MaintenanceRequest is a tenant-reported maintenance job.
type MaintenanceRequest struct {
	ID         string     `mapstructure:"id" json:"id"`
	Status     string     `mapstructure:"status" json:"status"`
	Title      string     `mapstructure:"title" json:"title,omitempty"`
	Unit       string     `mapstructure:"unit" json:"unit,omitempty"`
	BuildingID string     `mapstructure:"buildingId" json:"buildingId,omitempty"`
	CreatedAt  *time.Time `mapstructure:"createdAt" json:"createdAt,omitempty"`
}

// Cleaning is a booked or completed unit cleaning.
type Cleaning struct {
	ID         string     `mapstructure:"id" json:"id"`
	Status     string     `mapstructure:"status" json:"status"`
	Unit       string     `mapstructure:"unit" json:"unit,omitempty"`
	BuildingID string     `mapstructure:"buildingId" json:"buildingId,omitempty"`
	Date       *time.Time `mapstructure:"date" json:"date,omitempty"`
}

// Inspection is a scheduled property inspection.
type Inspection struct {
	ID         string     `mapstructure:"id" json:"id"`
	Status     string     `mapstructure:"status" json:"status"`
	Unit       string     `mapstructure:"unit" json:"unit,omitempty"`
	BuildingID string     `mapstructure:"buildingId" json:"buildingId,omitempty"`
	Date       *time.Time `mapstructure:"date" json:"date,omitempty"`
}

// Invoice is a bill raised against a tenant or owner.
type Invoice struct {
	ID      string     `mapstructure:"id" json:"id"`
	Status  string     `mapstructure:"status" json:"status"`
	Number  string     `mapstructure:"number" json:"number,omitempty"`
	Amount  float64    `mapstructure:"amount" json:"amount,omitempty"`
	DueDate *time.Time `mapstructure:"dueDate" json:"dueDate,omitempty"`
}

// Building is a managed property. It carries no status and is used to
// resolve building names for message text.
type Building struct {
	ID      string `mapstructure:"id" json:"id"`
	Name    string `mapstructure:"name" json:"name"`
	Address string `mapstructure:"address" json:"address,omitempty"`
}

// Snapshot holds the decoded contents of every collection for one poll.
type Snapshot struct {
	Maintenance []MaintenanceRequest
	Cleanings   []Cleaning
	Inspections []Inspection
	Invoices    []Invoice
	Buildings   []Building

	// Malformed counts documents that failed to decode or lacked a
	// status. They are excluded from every predicate.
	Malformed int

	FetchedAt time.Time
}

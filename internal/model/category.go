package model

// CategoryKey identifies one countable unit of pending work.
type CategoryKey string

const (
	PendingMaintenance    CategoryKey = "pendingMaintenance"
	PendingInspections    CategoryKey = "pendingInspections"
	InProgressMaintenance CategoryKey = "inProgressMaintenance"
	BookedCleanings       CategoryKey = "bookedCleanings"
	DraftInvoices         CategoryKey = "draftInvoices"
	SentInvoices          CategoryKey = "sentInvoices"
	InProgressInspections CategoryKey = "inProgressInspections"
	CompletedMaintenance  CategoryKey = "completedMaintenance"
	CompletedCleanings    CategoryKey = "completedCleanings"
)

// Category binds a key to the single collection predicate it counts.
type Category struct {
	Key        CategoryKey
	Collection Collection

	// Status is the exact status value a record must carry to match.
	Status string

	// Priority orders candidates; lower is more urgent.
	Priority int

	// Actionable categories produce check-in messages. The others are
	// informational counters quoted in the all-clear message.
	Actionable bool

	Singular string
	Plural   string
}

// Noun returns the singular or plural noun for n.
func (c Category) Noun(n int) string {
	if n == 1 {
		return c.Singular
	}
	return c.Plural
}

// Categories is the canonical category list in declaration order.
// Declaration order breaks priority ties.
var Categories = []Category{
	{
		Key: PendingMaintenance, Collection: CollectionMaintenance,
		Status: StatusNotStarted, Priority: 1, Actionable: true,
		Singular: "maintenance request", Plural: "maintenance requests",
	},
	{
		Key: PendingInspections, Collection: CollectionInspections,
		Status: StatusNotStarted, Priority: 2, Actionable: true,
		Singular: "inspection", Plural: "inspections",
	},
	{
		Key: InProgressMaintenance, Collection: CollectionMaintenance,
		Status: StatusInProgress, Priority: 3, Actionable: true,
		Singular: "maintenance job", Plural: "maintenance jobs",
	},
	{
		Key: BookedCleanings, Collection: CollectionCleanings,
		Status: StatusBooked, Priority: 4, Actionable: true,
		Singular: "cleaning", Plural: "cleanings",
	},
	{
		Key: DraftInvoices, Collection: CollectionInvoices,
		Status: StatusDraft, Priority: 5, Actionable: true,
		Singular: "draft invoice", Plural: "draft invoices",
	},
	{
		Key: SentInvoices, Collection: CollectionInvoices,
		Status: StatusSent, Priority: 6, Actionable: true,
		Singular: "unpaid invoice", Plural: "unpaid invoices",
	},
	{
		Key: InProgressInspections, Collection: CollectionInspections,
		Status: StatusInProgress, Priority: 7, Actionable: true,
		Singular: "inspection", Plural: "inspections",
	},
	{
		Key: CompletedMaintenance, Collection: CollectionMaintenance,
		Status: StatusCompleted, Priority: 8,
		Singular: "maintenance job", Plural: "maintenance jobs",
	},
	{
		Key: CompletedCleanings, Collection: CollectionCleanings,
		Status: StatusCompleted, Priority: 9,
		Singular: "cleaning", Plural: "cleanings",
	},
}

// LookupCategory returns the category for key.
func LookupCategory(key CategoryKey) (Category, bool) {
	for _, c := range Categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// LostItemKind distinguishes lost reports from found reports.
type LostItemKind string

const (
	ItemLost  LostItemKind = "lost"
	ItemFound LostItemKind = "found"
)

// LostItemStatus tracks the lifecycle of a listing.
type LostItemStatus string

const (
	ItemOpen     LostItemStatus = "open"
	ItemResolved LostItemStatus = "resolved"
)

// LostItem is a lost-and-found listing.
type LostItem struct {
	ID           string         `db:"id" json:"id"`
	Kind         LostItemKind   `db:"kind" json:"kind"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description"`
	Category     string         `db:"category" json:"category"`
	Location     string         `db:"location" json:"location"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	Status       LostItemStatus `db:"status" json:"status"`
	ReportedByID string         `db:"reported_by_id" json:"reported_by_id"`
	ReportedBy   string         `db:"reported_by_name" json:"reported_by_name"`
	ReportedAt   time.Time      `db:"reported_at" json:"reported_at"`
	ResolvedAt   *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
}

// LostItemFilter captures listing query parameters.
type LostItemFilter struct {
	Kind     LostItemKind
	Category string
	Search   string
	OpenOnly bool
}

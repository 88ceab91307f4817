package models

import "time"

// ClassroomStatus enumerates the two occupancy states of a room.
type ClassroomStatus string

const (
	ClassroomFree     ClassroomStatus = "free"
	ClassroomOccupied ClassroomStatus = "occupied"
)

// Classroom represents a physical room and its current occupancy state.
// The occupant fields and occupied_until are set as a group and only while
// status is occupied. Expired is derived at read time and never stored.
type Classroom struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Building       string          `db:"building" json:"building"`
	Floor          int             `db:"floor" json:"floor"`
	Capacity       int             `db:"capacity" json:"capacity"`
	Status         ClassroomStatus `db:"status" json:"status"`
	OccupiedByID   *string         `db:"occupied_by_id" json:"occupied_by_id,omitempty"`
	OccupiedByName *string         `db:"occupied_by_name" json:"occupied_by_name,omitempty"`
	OccupiedUntil  *time.Time      `db:"occupied_until" json:"occupied_until,omitempty"`
	Expired        bool            `db:"-" json:"expired"`
	Notes          *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ExpiredAt reports whether the occupancy window has lapsed at the given
// instant. Expiry is passive: the stored status stays occupied until an
// explicit vacate, so read paths surface staleness instead.
func (c *Classroom) ExpiredAt(now time.Time) bool {
	return c.Status == ClassroomOccupied && c.OccupiedUntil != nil && c.OccupiedUntil.Before(now)
}

// HistoryAction enumerates ledger entry kinds.
type HistoryAction string

const (
	HistoryOccupied HistoryAction = "occupied"
	HistoryVacated  HistoryAction = "vacated"
)

// ClassroomHistory is an immutable audit record of one occupancy transition.
// Entries are append-only; nothing in the API updates or deletes them.
type ClassroomHistory struct {
	ID          string        `db:"id" json:"id"`
	ClassroomID string        `db:"classroom_id" json:"classroom_id"`
	Action      HistoryAction `db:"action" json:"action"`
	ByUserID    string        `db:"by_user_id" json:"by_user_id"`
	ByUserName  string        `db:"by_user_name" json:"by_user_name"`
	At          time.Time     `db:"at" json:"at"`
	Until       *time.Time    `db:"until" json:"until,omitempty"`
	Reason      *string       `db:"reason" json:"reason,omitempty"`
}

// StatusFilter narrows classroom listings by occupancy state.
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterFree     StatusFilter = "free"
	FilterOccupied StatusFilter = "occupied"
)

// ClassroomFilter captures list query parameters.
type ClassroomFilter struct {
	Status StatusFilter
	Search string
}

// OccupyRequest claims a room for a bounded window. The duration is
// clamped into the legal range rather than validated, and the reason is
// trimmed and length-capped rather than rejected, so the payload has no
// failure modes beyond malformed JSON.
type OccupyRequest struct {
	DurationMinutes int     `json:"duration_minutes"`
	Reason          *string `json:"reason,omitempty"`
}

// ClassroomListResult bundles the filtered rooms with their availability
// summary so both come from the same snapshot.
type ClassroomListResult struct {
	Items   []Classroom      `json:"items"`
	Summary ClassroomSummary `json:"summary"`
}

// ClassroomSummary aggregates campus-wide availability.
type ClassroomSummary struct {
	Total               int `json:"total"`
	Free                int `json:"free"`
	Occupied            int `json:"occupied"`
	AvailabilityPercent int `json:"availability_percent"`
}

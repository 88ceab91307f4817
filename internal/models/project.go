package models

import (
	"time"

	"github.com/lib/pq"
)

// ProjectStatus tracks marketplace listing state.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// Project is a student project marketplace listing.
type Project struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	TechTags    pq.StringArray `db:"tech_tags" json:"tech_tags"`
	Contact     string         `db:"contact" json:"contact"`
	Status      ProjectStatus  `db:"status" json:"status"`
	OwnerID     string         `db:"owner_id" json:"owner_id"`
	OwnerName   string         `db:"owner_name" json:"owner_name"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// ProjectFilter captures marketplace query parameters.
type ProjectFilter struct {
	Search     string
	ActiveOnly bool
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// PushSubscription holds a browser web-push registration and the classrooms
// it watches.
type PushSubscription struct {
	Endpoint   string         `db:"endpoint" json:"endpoint"`
	P256DH     string         `db:"p256dh" json:"p256dh"`
	Auth       string         `db:"auth" json:"auth"`
	Classrooms pq.StringArray `db:"classroom_ids" json:"classroom_ids"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// internals/features/properties/notifications/model/entry.go
package model

import (
	"time"

	"propertytools_backend/internals/constants"
)

// Digest actions
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionReimport = "created (re-import)"
)

// Entry is one queued change, as stored in the notification queue slot.
type Entry struct {
	PostID         uint64    `json:"post_id"`
	Address        string    `json:"address"`
	BuilderRaw     string    `json:"builder_raw"`
	Builder        string    `json:"builder"`
	SubdivisionRaw string    `json:"subdivision_raw"`
	Subdivision    string    `json:"subdivision"`
	Status         string    `json:"status"`
	Match          bool      `json:"match"`
	Action         string    `json:"action"`
	QueuedAt       time.Time `json:"queued_at"`
}

func (e Entry) MatchLabel() string {
	if e.Match {
		return "Yes"
	}
	return "No"
}

// OrNA substitutes the N/A sentinel for blank values.
func OrNA(s string) string {
	if s == "" {
		return constants.NotAvailable
	}
	return s
}

// Listing is what a change entry is built from.
type Listing struct {
	ID             uint64
	Title          string
	PostType       string
	PostStatus     string
	BuilderRaw     string
	SubdivisionRaw string
	StatusLabel    string
}

// ChangedPost is a row seen by the change poller.
type ChangedPost struct {
	ID              uint64    `gorm:"column:ID"`
	PostType        string    `gorm:"column:post_type"`
	PostDate        time.Time `gorm:"column:post_date"`
	PostDateGMT     time.Time `gorm:"column:post_date_gmt"`
	PostModifiedGMT time.Time `gorm:"column:post_modified_gmt"`
}

package catalog

import (
	"strings"
	"time"

	"animesync/internal/textutil"
)

// Status is the lifecycle state reported by the metadata service.
type Status string

const (
	StatusOngoing  Status = "ongoing"
	StatusReleased Status = "released"
	StatusOther    Status = "other"
)

// ParseStatus maps a service status onto the three states the catalog keeps.
func ParseStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(StatusOngoing):
		return StatusOngoing
	case string(StatusReleased):
		return StatusReleased
	default:
		return StatusOther
	}
}

// Genre is a genre name with its localized form.
type Genre struct {
	Name          string `json:"name" bson:"name"`
	LocalizedName string `json:"localizedName" bson:"localizedName"`
}

// Link points at an external page for the record.
type Link struct {
	Kind string `json:"kind" bson:"kind"`
	URL  string `json:"url" bson:"url"`
}

// Record is one local catalog entry. Every field after Titles is absent until
// the first successful reconciliation.
type Record struct {
	Key    string
	Titles []string

	Score    *float64
	Episodes *int
	Status   Status
	URL      string
	Genres   []Genre
	Studios  []string
	Links    []Link
	SyncedAt *time.Time
}

// CandidateTitles returns the titles worth searching for, in preference order.
func (r Record) CandidateTitles() []string {
	return textutil.UniqueTitles(r.Titles)
}

// Synced reports whether the record has been reconciled at least once.
func (r Record) Synced() bool {
	return r.SyncedAt != nil
}

// Detail is the normalized attribute bundle written by ApplyDetail.
type Detail struct {
	Score    *float64
	Episodes *int
	Status   Status
	URL      string
	Genres   []Genre
	Studios  []string
	Links    []Link
}

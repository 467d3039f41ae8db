package api

import (
	"time"

	"animesync/internal/catalog"
	"animesync/internal/progress"
	"animesync/internal/reconcile"
)

// FromStats converts run counters.
func FromStats(stats reconcile.Stats) Stats {
	return Stats{
		Total:    stats.Total,
		Updated:  stats.Updated,
		Failed:   stats.Failed,
		NotFound: stats.NotFound,
	}
}

// FromReport converts a run report.
func FromReport(report reconcile.Report) Report {
	return Report{
		Message:    report.Message,
		Stats:      FromStats(report.Stats),
		Stopped:    report.Stopped,
		RunID:      report.RunID,
		DurationMS: report.Duration.Milliseconds(),
	}
}

// FromStatus converts the controller status.
func FromStatus(status reconcile.Status) SyncStatus {
	dto := SyncStatus{
		RunID:         status.RunID,
		Running:       status.Running,
		StopRequested: status.StopRequested,
		Stats:         FromStats(status.Stats),
		StartedAt:     formatTime(status.StartedAt),
		FinishedAt:    formatTime(status.FinishedAt),
		LastError:     status.LastError,
	}
	if status.LastReport != nil {
		report := FromReport(*status.LastReport)
		dto.LastReport = &report
	}
	return dto
}

// FromEntries converts progress entries, preserving order.
func FromEntries(entries []progress.Entry) []LogEntry {
	out := make([]LogEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, LogEntry{
			Seq:       entry.Seq,
			Timestamp: formatTime(entry.Time),
			Level:     string(entry.Level),
			Message:   entry.Message,
			RecordKey: entry.RecordKey,
		})
	}
	return out
}

// FromRecord converts a catalog record.
func FromRecord(record catalog.Record) Record {
	dto := Record{
		Key:      record.Key,
		Titles:   record.Titles,
		Score:    record.Score,
		Episodes: record.Episodes,
		Status:   string(record.Status),
		URL:      record.URL,
		Studios:  record.Studios,
	}
	if dto.Titles == nil {
		dto.Titles = []string{}
	}
	for _, genre := range record.Genres {
		dto.Genres = append(dto.Genres, Genre{Name: genre.Name, LocalizedName: genre.LocalizedName})
	}
	for _, link := range record.Links {
		dto.Links = append(dto.Links, Link{Kind: link.Kind, URL: link.URL})
	}
	if record.SyncedAt != nil {
		dto.SyncedAt = formatTime(*record.SyncedAt)
	}
	return dto
}

// FromRecords converts a listing.
func FromRecords(records []catalog.Record) []Record {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		out = append(out, FromRecord(record))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

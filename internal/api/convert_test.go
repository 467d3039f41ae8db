package api_test

import (
	"testing"
	"time"

	"animesync/internal/api"
	"animesync/internal/catalog"
	"animesync/internal/progress"
	"animesync/internal/reconcile"
)

func TestFromStatusFormatsTimesAndReport(t *testing.T) {
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	status := reconcile.Status{
		RunID:     "run-1",
		Running:   false,
		Stats:     reconcile.Stats{Total: 3, Updated: 1, Failed: 1, NotFound: 1},
		StartedAt: started,
		LastReport: &reconcile.Report{
			RunID:    "run-1",
			Message:  "finished",
			Stats:    reconcile.Stats{Total: 3, Updated: 1, Failed: 1, NotFound: 1},
			Duration: 1500 * time.Millisecond,
		},
	}

	dto := api.FromStatus(status)
	if dto.StartedAt != "2024-05-01T07:00:00.000Z" {
		t.Fatalf("unexpected startedAt %q", dto.StartedAt)
	}
	if dto.FinishedAt != "" {
		t.Fatalf("expected empty finishedAt, got %q", dto.FinishedAt)
	}
	if dto.LastReport == nil || dto.LastReport.DurationMS != 1500 {
		t.Fatalf("unexpected report %+v", dto.LastReport)
	}
	if dto.Stats.NotFound != 1 || dto.Stats.Total != 3 {
		t.Fatalf("unexpected stats %+v", dto.Stats)
	}
}

func TestFromRecordKeepsAbsentFieldsEmpty(t *testing.T) {
	dto := api.FromRecord(catalog.Record{Key: "9"})
	if dto.Titles == nil {
		t.Fatal("expected titles to encode as an empty list")
	}
	if dto.Score != nil || dto.Episodes != nil || dto.SyncedAt != "" || dto.Genres != nil {
		t.Fatalf("expected absent fields, got %+v", dto)
	}
}

func TestFromRecordCopiesDetail(t *testing.T) {
	score := 8.75
	synced := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	dto := api.FromRecord(catalog.Record{
		Key:      "1",
		Titles:   []string{"Cowboy Bebop"},
		Score:    &score,
		Status:   catalog.StatusReleased,
		Genres:   []catalog.Genre{{Name: "Action", LocalizedName: "Экшен"}},
		Studios:  []string{"Sunrise"},
		Links:    []catalog.Link{{Kind: "myanimelist", URL: "https://myanimelist.net/anime/1"}},
		SyncedAt: &synced,
	})
	if dto.Status != "released" || *dto.Score != 8.75 {
		t.Fatalf("unexpected record %+v", dto)
	}
	if len(dto.Genres) != 1 || dto.Genres[0].LocalizedName != "Экшен" {
		t.Fatalf("unexpected genres %+v", dto.Genres)
	}
	if len(dto.Links) != 1 || dto.Links[0].Kind != "myanimelist" {
		t.Fatalf("unexpected links %+v", dto.Links)
	}
	if dto.SyncedAt != "2024-01-02T03:04:05.000Z" {
		t.Fatalf("unexpected syncedAt %q", dto.SyncedAt)
	}
}

func TestFromEntriesPreservesOrder(t *testing.T) {
	log := progress.New()
	log.Append(progress.LevelInfo, "first", "")
	log.Append(progress.LevelWarn, "second", "7")
	entries, _ := log.Snapshot()

	dto := api.FromEntries(entries)
	if len(dto) != 2 || dto[0].Message != "first" || dto[1].Level != "warning" || dto[1].RecordKey != "7" {
		t.Fatalf("unexpected entries %+v", dto)
	}
	if dto[0].Seq >= dto[1].Seq {
		t.Fatalf("expected increasing sequence numbers, got %d then %d", dto[0].Seq, dto[1].Seq)
	}
}

package progress

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAppendAssignsIncreasingSequence(t *testing.T) {
	log := New()
	first := log.Append(LevelInfo, "one", "")
	second := log.Append(LevelSuccess, "two", "7")

	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("unexpected sequence numbers %d, %d", first.Seq, second.Seq)
	}
	if second.RecordKey != "7" || second.Level != LevelSuccess {
		t.Fatalf("unexpected entry %+v", second)
	}
	if first.Time.IsZero() {
		t.Fatal("expected timestamp to be set")
	}
}

func TestSinceReturnsOnlyNewerEntries(t *testing.T) {
	log := New()
	log.Append(LevelInfo, "a", "")
	_, cursor := log.Snapshot()
	log.Append(LevelInfo, "b", "")
	log.Append(LevelInfo, "c", "")

	entries, next := log.Since(cursor)
	if len(entries) != 2 || entries[0].Message != "b" || entries[1].Message != "c" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if next != 3 {
		t.Fatalf("expected cursor 3, got %d", next)
	}
	if more, _ := log.Since(next); len(more) != 0 {
		t.Fatalf("expected no entries past cursor, got %+v", more)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	log := New()
	log.Append(LevelInfo, "original", "")
	entries, _ := log.Snapshot()
	entries[0].Message = "mutated"

	again, _ := log.Snapshot()
	if again[0].Message != "original" {
		t.Fatalf("snapshot shares backing storage: %q", again[0].Message)
	}
}

func TestResetKeepsSequenceMonotonic(t *testing.T) {
	log := New()
	log.Append(LevelInfo, "old", "")
	_, cursor := log.Snapshot()

	log.Reset()
	if log.Len() != 0 {
		t.Fatalf("expected empty log after reset, got %d", log.Len())
	}
	entry := log.Append(LevelInfo, "new", "")
	if entry.Seq <= cursor {
		t.Fatalf("sequence went backwards: %d <= %d", entry.Seq, cursor)
	}
	entries, _ := log.Since(cursor)
	if len(entries) != 1 || entries[0].Message != "new" {
		t.Fatalf("stale cursor should see new run entries, got %+v", entries)
	}
}

func TestWaitWakesOnAppend(t *testing.T) {
	log := New()
	done := make(chan []Entry, 1)
	go func() {
		entries, _, err := log.Wait(context.Background(), 0)
		if err != nil {
			t.Errorf("Wait returned error: %v", err)
		}
		done <- entries
	}()

	time.Sleep(10 * time.Millisecond)
	log.Append(LevelWarn, "wake", "")

	select {
	case entries := <-done:
		if len(entries) != 1 || entries[0].Message != "wake" {
			t.Fatalf("unexpected entries %+v", entries)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after append")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	log := New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, cursor, err := log.Wait(ctx, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if cursor != 0 {
		t.Fatalf("expected cursor unchanged, got %d", cursor)
	}
}

func TestNilLogIsSafe(t *testing.T) {
	var log *Log
	log.Append(LevelInfo, "ignored", "")
	log.Reset()
	if entries, _ := log.Snapshot(); entries != nil {
		t.Fatalf("expected nil entries, got %+v", entries)
	}
}

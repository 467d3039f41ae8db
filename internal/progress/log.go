package progress

import (
	"context"
	"sync"
	"time"
)

// Level classifies an entry for presentation.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warning"
	LevelError   Level = "error"
)

// Entry is one human-readable event in the log.
type Entry struct {
	Seq       uint64    `json:"seq"`
	Time      time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	RecordKey string    `json:"recordKey,omitempty"`
}

// Log is safe for one writer and any number of concurrent readers.
type Log struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries []Entry
	nextSeq uint64
	now     func() time.Time
}

// New constructs an empty log.
func New() *Log {
	l := &Log{now: time.Now}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Append records a new entry and wakes blocked readers.
func (l *Log) Append(level Level, message, recordKey string) Entry {
	if l == nil {
		return Entry{}
	}
	l.mu.Lock()
	l.nextSeq++
	entry := Entry{
		Seq:       l.nextSeq,
		Time:      l.now().UTC(),
		Level:     level,
		Message:   message,
		RecordKey: recordKey,
	}
	l.entries = append(l.entries, entry)
	l.cond.Broadcast()
	l.mu.Unlock()
	return entry
}

// Reset drops all entries. Sequence numbers keep increasing.
func (l *Log) Reset() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.entries = nil
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Snapshot returns a copy of every entry and the cursor to resume from.
func (l *Log) Snapshot() ([]Entry, uint64) {
	return l.Since(0)
}

// Since returns entries with a sequence greater than cursor.
func (l *Log) Since(cursor uint64) ([]Entry, uint64) {
	if l == nil {
		return nil, cursor
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sinceLocked(cursor)
}

// Len reports the number of buffered entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Wait blocks until entries past cursor exist or ctx ends.
func (l *Log) Wait(ctx context.Context, cursor uint64) ([]Entry, uint64, error) {
	if l == nil {
		return nil, cursor, nil
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.cond.Broadcast()
			l.mu.Unlock()
		case <-stop:
		}
	}()

	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		if entries, next := l.sinceLocked(cursor); len(entries) > 0 {
			return entries, next, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, cursor, err
		}
		l.cond.Wait()
	}
}

func (l *Log) sinceLocked(cursor uint64) ([]Entry, uint64) {
	next := cursor
	if l.nextSeq > next {
		next = l.nextSeq
	}
	start := len(l.entries)
	for i, entry := range l.entries {
		if entry.Seq > cursor {
			start = i
			break
		}
	}
	if start == len(l.entries) {
		return nil, next
	}
	out := make([]Entry, len(l.entries)-start)
	copy(out, l.entries[start:])
	return out, next
}

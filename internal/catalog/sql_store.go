package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"animesync/internal/textutil"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name      string
	numbered  bool
	busyRetry bool
}

var (
	sqliteDialect   = dialect{name: "sqlite", busyRetry: true}
	postgresDialect = dialect{name: "postgres", numbered: true}
)

// rebind rewrites ? placeholders to $n for dialects that need it.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SQLStore implements Store over database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

var _ Store = (*SQLStore)(nil)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const recordColumns = "id, titles, score, episodes, status, url, genres, studios, links, synced_at"

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func (s *SQLStore) retry(ctx context.Context, op func() error) error {
	if !s.dialect.busyRetry {
		return op()
	}
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ensureContext(ctx))
}

// List returns all records ordered by key.
func (s *SQLStore) List(ctx context.Context) ([]Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM records ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Get returns the record with key or nil when absent.
func (s *SQLStore) Get(ctx context.Context, key string) (*Record, error) {
	id, ok := parseSQLKey(key)
	if !ok {
		return nil, nil
	}
	row := s.db.QueryRowContext(ensureContext(ctx),
		s.dialect.rebind("SELECT "+recordColumns+" FROM records WHERE id = ?"), id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Add inserts a record with the given titles.
func (s *SQLStore) Add(ctx context.Context, titles ...string) (Record, error) {
	ctx = ensureContext(ctx)
	clean := textutil.UniqueTitles(titles)
	encoded, err := encodeJSON(nonNil(clean))
	if err != nil {
		return Record{}, err
	}
	created := s.now().UTC().Format(time.RFC3339Nano)

	var id int64
	err = s.retry(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			s.dialect.rebind("INSERT INTO records (titles, created_at) VALUES (?, ?) RETURNING id"),
			encoded, created)
		return row.Scan(&id)
	})
	if err != nil {
		return Record{}, fmt.Errorf("insert record: %w", err)
	}
	return Record{Key: strconv.FormatInt(id, 10), Titles: clean}, nil
}

// ApplyDetail overwrites the reconciled fields and stamps synced_at.
func (s *SQLStore) ApplyDetail(ctx context.Context, key string, detail Detail) error {
	ctx = ensureContext(ctx)
	id, ok := parseSQLKey(key)
	if !ok {
		return fmt.Errorf("apply detail to %q: %w", key, ErrRecordNotFound)
	}
	genres, err := encodeJSON(nonNil(detail.Genres))
	if err != nil {
		return err
	}
	studios, err := encodeJSON(nonNil(detail.Studios))
	if err != nil {
		return err
	}
	links, err := encodeJSON(nonNil(detail.Links))
	if err != nil {
		return err
	}

	var score sql.NullFloat64
	if detail.Score != nil {
		score = sql.NullFloat64{Float64: *detail.Score, Valid: true}
	}
	var episodes sql.NullInt64
	if detail.Episodes != nil {
		episodes = sql.NullInt64{Int64: int64(*detail.Episodes), Valid: true}
	}
	status := detail.Status
	if status == "" {
		status = StatusOther
	}
	synced := s.now().UTC().Format(time.RFC3339Nano)

	var affected int64
	err = s.retry(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx, s.dialect.rebind(`UPDATE records SET
			score = ?, episodes = ?, status = ?, url = ?, genres = ?, studios = ?, links = ?, synced_at = ?
			WHERE id = ?`),
			score, episodes, string(status), detail.URL, genres, studios, links, synced, id)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return fmt.Errorf("apply detail to %s: %w", key, err)
	}
	if affected == 0 {
		return fmt.Errorf("apply detail to %s: %w", key, ErrRecordNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(scanner rowScanner) (Record, error) {
	var (
		id       int64
		titles   string
		score    sql.NullFloat64
		episodes sql.NullInt64
		status   sql.NullString
		url      sql.NullString
		genres   sql.NullString
		studios  sql.NullString
		links    sql.NullString
		synced   sql.NullString
	)
	if err := scanner.Scan(&id, &titles, &score, &episodes, &status, &url, &genres, &studios, &links, &synced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan record: %w", err)
	}

	record := Record{Key: strconv.FormatInt(id, 10)}
	if err := decodeJSON(titles, &record.Titles); err != nil {
		return Record{}, fmt.Errorf("decode titles for %d: %w", id, err)
	}
	if score.Valid {
		value := score.Float64
		record.Score = &value
	}
	if episodes.Valid {
		value := int(episodes.Int64)
		record.Episodes = &value
	}
	record.Status = Status(status.String)
	record.URL = url.String
	if genres.Valid {
		if err := decodeJSON(genres.String, &record.Genres); err != nil {
			return Record{}, fmt.Errorf("decode genres for %d: %w", id, err)
		}
	}
	if studios.Valid {
		if err := decodeJSON(studios.String, &record.Studios); err != nil {
			return Record{}, fmt.Errorf("decode studios for %d: %w", id, err)
		}
	}
	if links.Valid {
		if err := decodeJSON(links.String, &record.Links); err != nil {
			return Record{}, fmt.Errorf("decode links for %d: %w", id, err)
		}
	}
	if synced.Valid && synced.String != "" {
		ts, err := time.Parse(time.RFC3339Nano, synced.String)
		if err != nil {
			return Record{}, fmt.Errorf("parse synced_at for %d: %w", id, err)
		}
		record.SyncedAt = &ts
	}
	return record, nil
}

func parseSQLKey(key string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}

func encodeJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(data), nil
}

func decodeJSON(raw string, target any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

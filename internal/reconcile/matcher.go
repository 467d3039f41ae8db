package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"animesync/internal/logging"
	"animesync/internal/progress"
	"animesync/internal/ratelimit"
	"animesync/internal/shikimori"
	"animesync/internal/textutil"
)

// Resolution is the outcome of matching one record's titles.
type Resolution struct {
	Found bool
	ID    string
	// Name is the matched result's primary name, falling back to the Russian one.
	Name string
	// Title is the candidate title whose search produced the match.
	Title string
	// Exact is false when the first result was accepted as a best guess.
	Exact bool
}

// Matcher resolves candidate titles to a Shikimori identifier.
//
// Titles are searched in order. The first title whose search returns any
// results decides the match: an exact name match within that result set wins,
// otherwise its first result is taken as a best guess. Later titles are not
// searched once a result set is non-empty, even if one of them would have
// matched exactly.
type Matcher struct {
	searcher shikimori.Searcher
	delay    *ratelimit.Delay
	progress *progress.Log
	logger   *slog.Logger
}

// NewMatcher constructs a Matcher. delay, log, and logger may be nil.
func NewMatcher(searcher shikimori.Searcher, delay *ratelimit.Delay, log *progress.Log, logger *slog.Logger) *Matcher {
	return &Matcher{
		searcher: searcher,
		delay:    delay,
		progress: log,
		logger:   logging.NewComponentLogger(logger, "matcher"),
	}
}

// Resolve searches titles in order. The returned error is non-nil only when
// ctx ends during a pause between titles or a search.
func (m *Matcher) Resolve(ctx context.Context, recordKey string, titles []string) (Resolution, error) {
	logger := logging.WithContext(ctx, m.logger).With(logging.String(logging.FieldRecordKey, recordKey))

	for i, title := range titles {
		more := i < len(titles)-1

		results, err := m.searcher.SearchAnimes(ctx, title)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Resolution{}, ctxErr
			}
			logging.WarnWithContext(logger, "title search failed",
				"search_failed",
				logging.String("title", title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check Shikimori availability and user agent"),
				logging.String(logging.FieldImpact, "next candidate title will be tried"),
			)
			m.progress.Append(progress.LevelWarn, fmt.Sprintf("Search for %q failed: %v", title, err), recordKey)
			if err := m.pause(ctx, more); err != nil {
				return Resolution{}, err
			}
			continue
		}

		if len(results) == 0 {
			logger.Debug("title search returned no results", logging.String("title", title))
			if err := m.pause(ctx, more); err != nil {
				return Resolution{}, err
			}
			continue
		}

		for _, result := range results {
			if textutil.EqualTitles(result.Name, title) || textutil.EqualTitles(result.Russian, title) {
				logger.Debug("exact title match",
					logging.String("title", title),
					logging.String(logging.FieldRemoteID, result.ID),
				)
				return resolved(result, title, true), nil
			}
		}

		best := results[0]
		logger.Debug("accepting best guess",
			logging.String("title", title),
			logging.String(logging.FieldRemoteID, best.ID),
			logging.Int("results", len(results)),
		)
		return resolved(best, title, false), nil
	}
	return Resolution{}, nil
}

func (m *Matcher) pause(ctx context.Context, more bool) error {
	if !more {
		return nil
	}
	return m.delay.Wait(ctx, ratelimit.PhaseTitle)
}

func resolved(result shikimori.SearchResult, title string, exact bool) Resolution {
	name := result.Name
	if name == "" {
		name = result.Russian
	}
	return Resolution{
		Found: true,
		ID:    result.ID,
		Name:  name,
		Title: title,
		Exact: exact,
	}
}

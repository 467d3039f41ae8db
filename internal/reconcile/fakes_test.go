package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"animesync/internal/catalog"
	"animesync/internal/ratelimit"
	"animesync/internal/shikimori"
)

var errTransport = errors.New("connection reset")

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]shikimori.SearchResult
	errs    map[string]error
	calls   []string
	gate    chan struct{}
	entered chan string
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		results: map[string][]shikimori.SearchResult{},
		errs:    map[string]error{},
	}
}

func (f *fakeSearcher) SearchAnimes(ctx context.Context, title string) ([]shikimori.SearchResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, title)
	gate, entered := f.gate, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- title
	}
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[title]; err != nil {
		return nil, err
	}
	return append([]shikimori.SearchResult{}, f.results[title]...), nil
}

func (f *fakeSearcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeDetails struct {
	mu     sync.Mutex
	animes map[string]*shikimori.Anime
	errs   map[string]error
	calls  []string
}

func newFakeDetails() *fakeDetails {
	return &fakeDetails{animes: map[string]*shikimori.Anime{}, errs: map[string]error{}}
}

func (f *fakeDetails) AnimeDetail(ctx context.Context, id string) (*shikimori.Anime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	anime, ok := f.animes[id]
	if !ok {
		return nil, shikimori.ErrNotFound
	}
	return anime, nil
}

func (f *fakeDetails) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// memoryStore is a minimal in-memory catalog.Store for controller tests.
type memoryStore struct {
	mu       sync.Mutex
	records  []catalog.Record
	listErr  error
	applyErr map[string]error
	applied  map[string]catalog.Detail
	panicKey string
}

func newMemoryStore(records ...catalog.Record) *memoryStore {
	return &memoryStore{records: records, applyErr: map[string]error{}, applied: map[string]catalog.Detail{}}
}

func (m *memoryStore) List(context.Context) ([]catalog.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]catalog.Record(nil), m.records...), nil
}

func (m *memoryStore) Get(_ context.Context, key string) (*catalog.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.Key == key {
			r := record
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memoryStore) Add(_ context.Context, titles ...string) (catalog.Record, error) {
	return catalog.Record{}, errors.New("not supported")
}

func (m *memoryStore) ApplyDetail(_ context.Context, key string, detail catalog.Detail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.panicKey {
		panic("boom")
	}
	if err := m.applyErr[key]; err != nil {
		return err
	}
	m.applied[key] = detail
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return nil }

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Applied(key string) (catalog.Detail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	detail, ok := m.applied[key]
	return detail, ok
}

type countingDelay struct {
	mu     sync.Mutex
	phases map[time.Duration]int
}

// newCountingDelay returns a Delay that never sleeps and counts waits per phase.
func newCountingDelay() (*ratelimit.Delay, func(ratelimit.Phase) int) {
	counter := &countingDelay{phases: map[time.Duration]int{}}
	delay := ratelimit.New(time.Millisecond, 2*time.Millisecond)
	delay.After = func(d time.Duration) <-chan time.Time {
		counter.mu.Lock()
		counter.phases[d]++
		counter.mu.Unlock()
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return delay, func(phase ratelimit.Phase) int {
		counter.mu.Lock()
		defer counter.mu.Unlock()
		return counter.phases[delay.Interval(phase)]
	}
}

type fakeRecorder struct {
	mu       sync.Mutex
	started  int
	outcomes map[Outcome]int
	finished []Report
	errs     []error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{outcomes: map[Outcome]int{}}
}

func (r *fakeRecorder) RunStarted() {
	r.mu.Lock()
	r.started++
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordProcessed(outcome Outcome, _ time.Duration) {
	r.mu.Lock()
	r.outcomes[outcome]++
	r.mu.Unlock()
}

func (r *fakeRecorder) RunFinished(report Report, err error) {
	r.mu.Lock()
	r.finished = append(r.finished, report)
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

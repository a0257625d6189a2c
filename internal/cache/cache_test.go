package cache

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/billcheck/internal/model"
)

var testVersions = model.Versions{Engine: "e1", Prompt: "p1", Model: "m1", Schema: "s1"}

type memStore struct {
	mu      sync.Mutex
	rows    map[string]*Entry
	lookErr error
}

func newMemStore() *memStore { return &memStore{rows: make(map[string]*Entry)} }

func (m *memStore) Lookup(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookErr != nil {
		return nil, m.lookErr
	}
	e, ok := m.rows[key]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

func (m *memStore) Save(_ context.Context, e *Entry, _ []model.LineSavings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, row := range m.rows {
		if row.ContentHash == e.ContentHash {
			delete(m.rows, k)
		}
	}
	m.rows[e.Key] = e
	return nil
}

func (m *memStore) PurgeContent(_ context.Context, contentHash string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, row := range m.rows {
		if row.ContentHash == contentHash {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

func TestKey_ChangesWithEachVersion(t *testing.T) {
	raw := []byte(`{"lines":[]}`)
	base := Key(raw, testVersions)

	variants := map[string]model.Versions{
		"engine": {Engine: "e2", Prompt: "p1", Model: "m1", Schema: "s1"},
		"prompt": {Engine: "e1", Prompt: "p2", Model: "m1", Schema: "s1"},
		"model":  {Engine: "e1", Prompt: "p1", Model: "m2", Schema: "s1"},
		"schema": {Engine: "e1", Prompt: "p1", Model: "m1", Schema: "s2"},
	}
	for name, v := range variants {
		if Key(raw, v) == base {
			t.Errorf("changing %s version did not change key", name)
		}
	}
	if Key(raw, testVersions) != base {
		t.Error("key is not stable for identical input")
	}
	if Key([]byte(`{"lines":[ ]}`), testVersions) == base {
		t.Error("different bytes produced the same key")
	}
}

func TestKey_FieldBoundaries(t *testing.T) {
	raw := []byte("x")
	a := Key(raw, model.Versions{Engine: "ab", Prompt: "c"})
	b := Key(raw, model.Versions{Engine: "a", Prompt: "bc"})
	if a == b {
		t.Error("shifting characters between versions produced the same key")
	}
}

func TestCheck(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	good := func() *Entry {
		return &Entry{
			Versions:     testVersions,
			CreatedAt:    now.Add(-time.Hour),
			TotalBilled:  100000,
			GrossSavings: 40000,
			Issues:       []float64{250, 150},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Entry)
		reason string
	}{
		{"valid", func(*Entry) {}, ""},
		{"version mismatch", func(e *Entry) { e.Versions.Prompt = "p0" }, ReasonVersion},
		{"expired", func(e *Entry) { e.CreatedAt = now.Add(-8 * 24 * time.Hour) }, ReasonExpired},
		{"from the future", func(e *Entry) { e.CreatedAt = now.Add(time.Hour) }, ReasonExpired},
		{"zero total", func(e *Entry) { e.TotalBilled = 0 }, ReasonBadTotal},
		{"savings over total", func(e *Entry) { e.GrossSavings = 100001 }, ReasonSavingsOver},
		{"negative issue", func(e *Entry) { e.Issues[1] = -1 }, ReasonBadIssue},
		{"nan issue", func(e *Entry) { e.Issues[0] = math.NaN() }, ReasonBadIssue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := good()
			tt.mutate(e)
			ok, reason := Check(e, testVersions, DefaultTTL, now)
			if ok != (tt.reason == "") {
				t.Fatalf("ok = %v, want %v (reason %q)", ok, tt.reason == "", reason)
			}
			if reason != tt.reason {
				t.Errorf("reason = %q, want %q", reason, tt.reason)
			}
		})
	}
}

func sampleTotals() *model.SavingsTotals {
	return &model.SavingsTotals{
		TotalBilled:   100000,
		GrossSavings:  30000,
		LikelySavings: 24000,
		LineCount:     2,
		IssueCount:    1,
		Color:         model.ColorOrange,
		Lines: []model.LineSavings{
			{LineID: "L1", BilledCents: 60000, OverchargeSavings: 30000, TotalLineSavings: 30000, Confidence: 0.8, WeightedContribution: 24000},
			{LineID: "L2", BilledCents: 40000, Confidence: 0.9},
		},
	}
}

func TestLayer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	layer := NewLayer(store, testVersions, 0, zerolog.Nop()).WithClock(func() time.Time { return now })
	raw := []byte(`{"total":1000}`)

	d, err := layer.Get(ctx, raw, false)
	if err != nil {
		t.Fatal(err)
	}
	if d.Hit || d.Reason != ReasonNotFound {
		t.Fatalf("empty store: got %+v", d)
	}

	totals := sampleTotals()
	e, err := layer.NewEntry(raw, totals)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Issues) != 1 || e.Issues[0] != 300 {
		t.Errorf("issues = %v, want [300]", e.Issues)
	}
	if err := layer.Save(ctx, e, totals.Lines); err != nil {
		t.Fatal(err)
	}

	d, err = layer.Get(ctx, raw, false)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Hit {
		t.Fatalf("expected hit, got reason %q", d.Reason)
	}
	want, _ := json.Marshal(totals)
	got, _ := json.Marshal(d.Totals)
	if string(got) != string(want) {
		t.Errorf("cached totals differ:\n got %s\nwant %s", got, want)
	}

	now = now.Add(8 * 24 * time.Hour)
	d, _ = layer.Get(ctx, raw, false)
	if d.Hit || d.Reason != ReasonExpired {
		t.Errorf("after ttl: got hit=%v reason=%q", d.Hit, d.Reason)
	}
}

func TestLayer_VersionBumpMisses(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	raw := []byte("bill")
	old := NewLayer(store, testVersions, 0, zerolog.Nop())
	e, _ := old.NewEntry(raw, sampleTotals())
	if err := old.Save(ctx, e, nil); err != nil {
		t.Fatal(err)
	}

	bumped := testVersions
	bumped.Engine = "e2"
	d, err := NewLayer(store, bumped, 0, zerolog.Nop()).Get(ctx, raw, false)
	if err != nil {
		t.Fatal(err)
	}
	if d.Hit {
		t.Error("engine bump served an old result")
	}
}

func TestLayer_BypassPurgesContent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	raw := []byte("bill")
	layer := NewLayer(store, testVersions, 0, zerolog.Nop())
	e, _ := layer.NewEntry(raw, sampleTotals())
	_ = layer.Save(ctx, e, nil)

	d, err := layer.Get(ctx, raw, true)
	if err != nil {
		t.Fatal(err)
	}
	if d.Hit || d.Reason != ReasonBypass {
		t.Fatalf("bypass: got %+v", d)
	}
	if len(store.rows) != 0 {
		t.Errorf("rows left after bypass: %d", len(store.rows))
	}
}

func TestLayer_SaveReplacesByContent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	raw := []byte("bill")
	for _, v := range []string{"e1", "e2"} {
		vs := testVersions
		vs.Engine = v
		layer := NewLayer(store, vs, 0, zerolog.Nop())
		e, _ := layer.NewEntry(raw, sampleTotals())
		_ = layer.Save(ctx, e, nil)
	}
	if len(store.rows) != 1 {
		t.Errorf("rows = %d, want 1", len(store.rows))
	}
}

func TestLayer_StoreErrorIsMiss(t *testing.T) {
	store := newMemStore()
	store.lookErr = errors.New("connection refused")
	d, err := NewLayer(store, testVersions, 0, zerolog.Nop()).Get(context.Background(), []byte("x"), false)
	if err != nil {
		t.Fatalf("lookup failure should not be fatal: %v", err)
	}
	if d.Hit || d.Reason != ReasonStoreError {
		t.Errorf("got %+v", d)
	}
}

func TestLayer_NilStore(t *testing.T) {
	layer := NewLayer(nil, testVersions, 0, zerolog.Nop())
	if layer.Enabled() {
		t.Error("nil store reported enabled")
	}
	d, err := layer.Get(context.Background(), []byte("x"), true)
	if err != nil || d.Hit {
		t.Errorf("got %+v, %v", d, err)
	}
	if err := layer.Save(context.Background(), &Entry{}, nil); err != nil {
		t.Error(err)
	}
}

func TestLayer_DoCoalesces(t *testing.T) {
	layer := NewLayer(nil, testVersions, 0, zerolog.Nop())
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]*Computed, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, _, err := layer.Do("k", func() (*Computed, error) {
				calls.Add(1)
				<-release
				return &Computed{Totals: sampleTotals(), AnalysisID: "a-1", Persisted: true}, nil
			})
			if err != nil {
				t.Error(err)
			}
			results[i] = r
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 4 {
		t.Fatalf("calls = %d", n)
	}
	for i, r := range results {
		if r == nil || r.Totals.GrossSavings != 30000 {
			t.Fatalf("result %d = %+v", i, r)
		}
		if r.AnalysisID != "a-1" || !r.Persisted {
			t.Errorf("result %d id=%q persisted=%v", i, r.AnalysisID, r.Persisted)
		}
	}
}

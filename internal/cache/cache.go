// Package cache decides whether a stored analysis can be served for an
// uploaded file, keyed by a versioned content hash.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gyeh/billcheck/internal/model"
	"github.com/gyeh/billcheck/internal/normalize"
)

// DefaultTTL is how long a stored analysis stays servable.
const DefaultTTL = 7 * 24 * time.Hour

// ErrNotFound is returned by a Store when no row matches the key.
var ErrNotFound = errors.New("cache entry not found")

// Miss reasons.
const (
	ReasonNotFound    = "not_found"
	ReasonBypass      = "bypass"
	ReasonVersion     = "version_mismatch"
	ReasonExpired     = "expired"
	ReasonBadTotal    = "non_positive_total"
	ReasonSavingsOver = "savings_exceed_total"
	ReasonBadIssue    = "invalid_issue_amount"
	ReasonUndecodable = "undecodable_result"
	ReasonStoreError  = "store_error"
)

// ContentHash identifies an uploaded file independent of engine versions.
func ContentHash(raw []byte) string {
	return normalize.ContentHash(raw)
}

// Key is the versioned cache key: a hash of the file bytes followed by the
// engine, prompt, model and schema versions.
func Key(raw []byte, v model.Versions) string {
	return normalize.JoinedHash(raw, v.Engine, v.Prompt, v.Model, v.Schema)
}

// Entry is one persisted analysis.
type Entry struct {
	AnalysisID    uuid.UUID
	Key           string
	ContentHash   string
	Versions      model.Versions
	CreatedAt     time.Time
	TotalBilled   model.Cents
	GrossSavings  model.Cents
	LikelySavings model.Cents
	IssueCount    int
	LineCount     int
	Color         model.Color
	// Issues holds the savings, in dollars, of every line with an issue.
	Issues []float64
	Result json.RawMessage
}

// Check applies every gate a stored entry must pass to be served. A failed
// gate is a miss, never an error.
func Check(e *Entry, want model.Versions, ttl time.Duration, now time.Time) (bool, string) {
	if e.Versions != want {
		return false, ReasonVersion
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now.Sub(e.CreatedAt) > ttl || e.CreatedAt.After(now.Add(time.Minute)) {
		return false, ReasonExpired
	}
	if e.TotalBilled <= 0 {
		return false, ReasonBadTotal
	}
	if e.GrossSavings < 0 || e.GrossSavings > e.TotalBilled {
		return false, ReasonSavingsOver
	}
	for _, amt := range e.Issues {
		if !isFiniteNonNegative(amt) {
			return false, ReasonBadIssue
		}
	}
	return true, ""
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Store persists analyses. Save must leave at most one row per content hash.
type Store interface {
	Lookup(ctx context.Context, key string) (*Entry, error)
	Save(ctx context.Context, e *Entry, lines []model.LineSavings) error
	PurgeContent(ctx context.Context, contentHash string) (int64, error)
}

// Decision is the outcome of Layer.Get.
type Decision struct {
	Hit    bool
	Reason string
	Entry  *Entry
	Totals *model.SavingsTotals
}

// Layer applies the hit/miss policy on top of a Store.
type Layer struct {
	store    Store
	versions model.Versions
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
	group    singleflight.Group
}

// NewLayer returns a Layer. A nil store disables caching: every Get is a miss.
func NewLayer(store Store, versions model.Versions, ttl time.Duration, log zerolog.Logger) *Layer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Layer{store: store, versions: versions, ttl: ttl, now: time.Now, log: log}
}

// WithClock overrides the time source; used in tests.
func (l *Layer) WithClock(now func() time.Time) *Layer {
	l.now = now
	return l
}

// Versions returns the version set the layer validates against.
func (l *Layer) Versions() model.Versions { return l.versions }

// Get looks up raw's versioned key. With bypass set it purges every stored
// row for the file's content hash and reports a miss.
func (l *Layer) Get(ctx context.Context, raw []byte, bypass bool) (*Decision, error) {
	if l.store == nil {
		return &Decision{Reason: ReasonNotFound}, nil
	}
	if bypass {
		n, err := l.store.PurgeContent(ctx, ContentHash(raw))
		if err != nil {
			return nil, fmt.Errorf("purge cached analyses: %w", err)
		}
		l.log.Info().Int64("purged", n).Msg("cache bypass requested")
		return &Decision{Reason: ReasonBypass}, nil
	}

	key := Key(raw, l.versions)
	e, err := l.store.Lookup(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return &Decision{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		l.log.Warn().Err(err).Str("cache_key", key).Msg("cache lookup failed, treating as miss")
		return &Decision{Reason: ReasonStoreError}, nil
	}

	if ok, reason := Check(e, l.versions, l.ttl, l.now()); !ok {
		l.log.Info().Str("cache_key", key).Str("reason", reason).Msg("cached analysis rejected")
		return &Decision{Reason: reason, Entry: e}, nil
	}

	var totals model.SavingsTotals
	if err := json.Unmarshal(e.Result, &totals); err != nil {
		l.log.Warn().Err(err).Str("cache_key", key).Msg("cached result undecodable")
		return &Decision{Reason: ReasonUndecodable, Entry: e}, nil
	}
	if totals.TotalBilled != e.TotalBilled || totals.GrossSavings != e.GrossSavings {
		return &Decision{Reason: ReasonUndecodable, Entry: e}, nil
	}
	return &Decision{Hit: true, Entry: e, Totals: &totals}, nil
}

// Computed is the outcome of one estimate-and-persist run, shared with
// every caller coalesced onto it.
type Computed struct {
	Totals     *model.SavingsTotals
	AnalysisID string
	Persisted  bool
}

// Do coalesces concurrent computations for the same key so one upload
// processed twice at once computes once. shared is true when the result
// was handed to more than one caller.
func (l *Layer) Do(key string, fn func() (*Computed, error)) (*Computed, bool, error) {
	v, err, shared := l.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, shared, err
	}
	return v.(*Computed), shared, nil
}

// NewEntry builds the row to persist for a validated result under a fresh
// analysis ID.
func (l *Layer) NewEntry(raw []byte, t *model.SavingsTotals) (*Entry, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	var issues []float64
	for i := range t.Lines {
		if t.Lines[i].HasIssue() {
			issues = append(issues, t.Lines[i].TotalLineSavings.Dollars())
		}
	}
	return &Entry{
		AnalysisID:    uuid.New(),
		Key:           Key(raw, l.versions),
		ContentHash:   ContentHash(raw),
		Versions:      l.versions,
		CreatedAt:     l.now().UTC(),
		TotalBilled:   t.TotalBilled,
		GrossSavings:  t.GrossSavings,
		LikelySavings: t.LikelySavings,
		IssueCount:    t.IssueCount,
		LineCount:     t.LineCount,
		Color:         t.Color,
		Issues:        issues,
		Result:        body,
	}, nil
}

// Save persists e through the store. A nil store is a no-op.
func (l *Layer) Save(ctx context.Context, e *Entry, lines []model.LineSavings) error {
	if l.store == nil {
		return nil
	}
	return l.store.Save(ctx, e, lines)
}

// Enabled reports whether a store is configured.
func (l *Layer) Enabled() bool { return l.store != nil }

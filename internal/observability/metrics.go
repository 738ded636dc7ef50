// Package observability carries a small hand-rolled counter registry
// for the ingestion pipeline. Counters are nil-safe so callers never
// guard metric calls.
package observability

import (
	"sync"
)

type Counter struct {
	name string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

// Metrics is the pipeline's counter set.
type Metrics struct {
	DocsProcessed      *Counter
	DocsSkippedSeen    *Counter
	MentionsResolved   *Counter
	MentionsUnlisted   *Counter
	EdgesStored        *Counter
	EdgesSuppressed    *Counter
	CompaniesHeld      *Counter
	ItemsFailed        *Counter
	SnapshotRefreshOK  *Counter
	SnapshotRefreshErr *Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		DocsProcessed:      NewCounter("docs_processed_total"),
		DocsSkippedSeen:    NewCounter("docs_skipped_seen_total"),
		MentionsResolved:   NewCounter("mentions_resolved_total"),
		MentionsUnlisted:   NewCounter("mentions_unlisted_total"),
		EdgesStored:        NewCounter("edges_stored_total"),
		EdgesSuppressed:    NewCounter("edges_suppressed_total"),
		CompaniesHeld:      NewCounter("companies_held_total"),
		ItemsFailed:        NewCounter("items_failed_total"),
		SnapshotRefreshOK:  NewCounter("snapshot_refresh_ok_total"),
		SnapshotRefreshErr: NewCounter("snapshot_refresh_err_total"),
	}
}

// Snapshot dumps current values for logging at batch end.
func (m *Metrics) Snapshot() map[string]float64 {
	if m == nil {
		return nil
	}
	return map[string]float64{
		"docs_processed":       m.DocsProcessed.Value(),
		"docs_skipped_seen":    m.DocsSkippedSeen.Value(),
		"mentions_resolved":    m.MentionsResolved.Value(),
		"mentions_unlisted":    m.MentionsUnlisted.Value(),
		"edges_stored":         m.EdgesStored.Value(),
		"edges_suppressed":     m.EdgesSuppressed.Value(),
		"companies_held":       m.CompaniesHeld.Value(),
		"items_failed":         m.ItemsFailed.Value(),
		"snapshot_refresh_ok":  m.SnapshotRefreshOK.Value(),
		"snapshot_refresh_err": m.SnapshotRefreshErr.Value(),
	}
}

package metrics

import "sync/atomic"

// CacheMetric tracks hit/miss counts for a named cache.
// All methods are thread-safe using atomic operations.
type CacheMetric struct {
	name   string
	hits   uint64
	misses uint64
}

// newCacheMetric creates a new cache metric with the given name.
func newCacheMetric(name string) *CacheMetric {
	return &CacheMetric{name: name}
}

// Hit records a cache hit.
func (m *CacheMetric) Hit() {
	if !enabled {
		return
	}
	atomic.AddUint64(&m.hits, 1)
}

// Miss records a cache miss.
func (m *CacheMetric) Miss() {
	if !enabled {
		return
	}
	atomic.AddUint64(&m.misses, 1)
}

// Name returns the metric name.
func (m *CacheMetric) Name() string {
	return m.name
}

// Hits returns the number of recorded hits.
func (m *CacheMetric) Hits() uint64 {
	return atomic.LoadUint64(&m.hits)
}

// Misses returns the number of recorded misses.
func (m *CacheMetric) Misses() uint64 {
	return atomic.LoadUint64(&m.misses)
}

// HitRate returns the fraction of lookups that hit, or 0 with no data.
func (m *CacheMetric) HitRate() float64 {
	hits := atomic.LoadUint64(&m.hits)
	misses := atomic.LoadUint64(&m.misses)
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Reset clears all recorded counts.
func (m *CacheMetric) Reset() {
	atomic.StoreUint64(&m.hits, 0)
	atomic.StoreUint64(&m.misses, 0)
}

// CacheStats holds a snapshot of cache statistics.
type CacheStats struct {
	Name    string  `json:"name"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns all cache statistics at once.
func (m *CacheMetric) Stats() CacheStats {
	return CacheStats{
		Name:    m.name,
		Hits:    m.Hits(),
		Misses:  m.Misses(),
		HitRate: m.HitRate(),
	}
}

// Global cache metrics.
var (
	RecordLookup    = newCacheMetric("record_lookup")
	MissingInfoRows = newCacheMetric("missing_info_rows")
	ScoreCache      = newCacheMetric("score_cache")
)

// AllCacheMetrics returns all registered cache metrics.
func AllCacheMetrics() []*CacheMetric {
	return []*CacheMetric{
		RecordLookup,
		MissingInfoRows,
		ScoreCache,
	}
}

// AllCacheStats returns stats for cache metrics that saw traffic.
func AllCacheStats() []CacheStats {
	all := AllCacheMetrics()
	stats := make([]CacheStats, 0, len(all))
	for _, m := range all {
		if m.Hits()+m.Misses() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

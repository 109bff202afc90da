package catalog

import "sync/atomic"

// Stats counts query-time activity. All counters are cumulative over the
// catalog's lifetime and safe for concurrent queries.
type Stats struct {
	TilesConsidered atomic.Int64
	FilterRejected  atomic.Int64
	TilesRead       atomic.Int64
	BytesRead       atomic.Int64
	TileErrors      atomic.Int64
	StarsReturned   atomic.Int64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	TilesConsidered int64
	FilterRejected  int64
	TilesRead       int64
	BytesRead       int64
	TileErrors      int64
	StarsReturned   int64
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TilesConsidered: s.TilesConsidered.Load(),
		FilterRejected:  s.FilterRejected.Load(),
		TilesRead:       s.TilesRead.Load(),
		BytesRead:       s.BytesRead.Load(),
		TileErrors:      s.TileErrors.Load(),
		StarsReturned:   s.StarsReturned.Load(),
	}
}

package paracord

// Stats holds interner counters and memory footprint.
type Stats struct {
	Entries    int
	Shards     int
	IndexBytes int // Shard probe tables.
	ArenaBytes int // Copies of interned values.
	StoreBytes int // Key-to-value store buckets.
	Hits       int64
	Misses     int64
}

// MemoryBytes returns the total footprint in bytes.
func (s Stats) MemoryBytes() int {
	return s.IndexBytes + s.ArenaBytes + s.StoreBytes
}

// HitRate returns the fraction of lookups that found an existing value.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

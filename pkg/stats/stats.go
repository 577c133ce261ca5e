package stats

import (
	"slices"
	"sync"
	"unicode/utf8"
)

// aggregator implements the Aggregator interface.
type aggregator struct {
	config Config

	mu          sync.RWMutex
	stats       Statistics
	lengths     []int         // All record lengths for percentile calculation
	fieldCounts map[int]int64 // Field count -> records
	columns     []ColumnStats
	headerSeen  bool
}

// New creates a new aggregator.
//
// Parameters:
//   - cfg: Aggregator configuration
//
// Returns a configured Aggregator.
func New(cfg Config) Aggregator {
	if cfg.MaxColumns <= 0 {
		cfg.MaxColumns = 256
	}

	return &aggregator{
		config:      cfg,
		fieldCounts: make(map[int]int64),
	}
}

// Add implements Aggregator.Add.
func (a *aggregator) Add(length int, fields [][]byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.config.Header && !a.headerSeen {
		a.headerSeen = true
		for i, f := range fields {
			if i >= a.config.MaxColumns {
				break
			}
			a.column(i).Name = string(f)
		}
		return
	}

	s := &a.stats
	n := len(fields)

	s.Records++
	s.Bytes += int64(length)
	s.AvgLength = float64(s.Bytes) / float64(s.Records)

	if s.Records == 1 {
		s.ExpectedFields = n
		s.MinFields, s.MaxFields = n, n
		s.MinLength, s.MaxLength = length, length
	} else {
		s.MinFields = min(s.MinFields, n)
		s.MaxFields = max(s.MaxFields, n)
		s.MinLength = min(s.MinLength, length)
		s.MaxLength = max(s.MaxLength, length)
	}
	a.fieldCounts[n]++

	if a.config.TrackPercentiles {
		a.lengths = append(a.lengths, length)
	}

	for i, f := range fields {
		if i >= a.config.MaxColumns {
			break
		}
		col := a.column(i)
		if len(f) == 0 {
			continue
		}
		col.NonEmpty++
		if isNumeric(f) {
			col.Numeric++
		}
		col.MaxWidth = max(col.MaxWidth, utf8.RuneCount(f))
	}
}

// column returns the stats for column i, growing the slice as needed.
func (a *aggregator) column(i int) *ColumnStats {
	for len(a.columns) <= i {
		a.columns = append(a.columns, ColumnStats{Index: len(a.columns)})
	}
	return &a.columns[i]
}

// CountFile implements Aggregator.CountFile.
func (a *aggregator) CountFile() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Files++
	// Each file has its own header.
	a.headerSeen = false
}

// Merge implements Aggregator.Merge.
func (a *aggregator) Merge(other Aggregator) {
	o, ok := other.(*aggregator)
	if !ok || o == a {
		return
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	a.mu.Lock()
	defer a.mu.Unlock()

	s, src := &a.stats, &o.stats
	s.Files += src.Files

	if src.Records > 0 {
		if s.Records == 0 {
			s.ExpectedFields = src.ExpectedFields
			s.MinFields, s.MaxFields = src.MinFields, src.MaxFields
			s.MinLength, s.MaxLength = src.MinLength, src.MaxLength
		} else {
			s.MinFields = min(s.MinFields, src.MinFields)
			s.MaxFields = max(s.MaxFields, src.MaxFields)
			s.MinLength = min(s.MinLength, src.MinLength)
			s.MaxLength = max(s.MaxLength, src.MaxLength)
		}
		s.Records += src.Records
		s.Bytes += src.Bytes
		s.AvgLength = float64(s.Bytes) / float64(s.Records)
	}

	for n, c := range o.fieldCounts {
		a.fieldCounts[n] += c
	}
	a.lengths = append(a.lengths, o.lengths...)

	for _, oc := range o.columns {
		col := a.column(oc.Index)
		if col.Name == "" {
			col.Name = oc.Name
		}
		col.NonEmpty += oc.NonEmpty
		col.Numeric += oc.Numeric
		col.MaxWidth = max(col.MaxWidth, oc.MaxWidth)
	}
}

// Stats implements Aggregator.Stats.
func (a *aggregator) Stats() Statistics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := a.stats
	stats.Inconsistent = stats.Records - a.fieldCounts[stats.ExpectedFields]
	stats.Columns = slices.Clone(a.columns)

	if a.config.TrackPercentiles && len(a.lengths) > 0 {
		sorted := slices.Clone(a.lengths)
		slices.Sort(sorted)

		stats.P50Length = percentile(sorted, 50)
		stats.P95Length = percentile(sorted, 95)
		stats.P99Length = percentile(sorted, 99)
	}

	return stats
}

// Reset implements Aggregator.Reset.
func (a *aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats = Statistics{}
	a.lengths = nil
	a.fieldCounts = make(map[int]int64)
	a.columns = nil
	a.headerSeen = false
}

// isNumeric reports whether b is a decimal number: an optional sign, digits
// with at most one point, and an optional exponent.
func isNumeric(b []byte) bool {
	i := 0
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		i++
	}

	digits, point := 0, false
	for ; i < len(b); i++ {
		c := b[i]
		if c >= '0' && c <= '9' {
			digits++
		} else if c == '.' && !point {
			point = true
		} else {
			break
		}
	}
	if digits == 0 {
		return false
	}
	if i == len(b) {
		return true
	}

	if b[i] != 'e' && b[i] != 'E' {
		return false
	}
	i++
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		i++
	}
	if i == len(b) {
		return false
	}
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return false
		}
	}
	return true
}

// percentile calculates the nth percentile of a sorted slice.
func percentile(sorted []int, p int) int {
	if len(sorted) == 0 {
		return 0
	}

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation between closest ranks.
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[lower]
	}

	fraction := rank - float64(lower)
	return int(float64(sorted[lower])*(1-fraction) + float64(sorted[upper])*fraction)
}

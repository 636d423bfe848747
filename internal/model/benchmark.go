package model

// Segment groups tickers under a caller-defined label such as an asset class.
type Segment struct {
	Name    string
	Tickers []string
}

// Benchmark is the ordered segment -> tickers mapping a dataset is built from.
// Segment order and ticker order within a segment are significant.
type Benchmark []Segment

// Tickers flattens all segments in order. Duplicates are preserved.
func (b Benchmark) Tickers() []string {
	var out []string
	for _, seg := range b {
		out = append(out, seg.Tickers...)
	}
	return out
}

// UniqueTickers flattens all segments, keeping only the first occurrence of each ticker.
func (b Benchmark) UniqueTickers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range b {
		for _, t := range seg.Tickers {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Len returns the total ticker count across segments, duplicates included.
func (b Benchmark) Len() int {
	n := 0
	for _, seg := range b {
		n += len(seg.Tickers)
	}
	return n
}

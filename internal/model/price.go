package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/guregu/null/v6"
)

// DateLayout is the ISO calendar-date layout used in every output file.
const DateLayout = "2006-01-02"

// DateRange is a half-open [Start, End) window of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYY-MM-DD strings into a UTC DateRange.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	if !e.After(s) {
		return DateRange{}, fmt.Errorf("end date %s must be after start date %s", end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// Bar is a single daily observation of one series.
type Bar struct {
	Date  time.Time
	Close null.Float
}

// Series is the daily close series of one ticker. Ticker is empty when the
// provider returned a single series without labelling it.
type Series struct {
	Ticker string
	Bars   []Bar
}

// History is the raw result of a batch price download.
type History struct {
	Series []Series
}

// PriceTable is a date-indexed table with one column per instrument.
// Values is row-major: Values[row][col].
type PriceTable struct {
	Dates   []time.Time
	Columns []string
	Values  [][]null.Float
}

func (p *PriceTable) NumRows() int { return len(p.Dates) }
func (p *PriceTable) NumCols() int { return len(p.Columns) }

// FirstDate returns the earliest date in the index, or the zero time when empty.
func (p *PriceTable) FirstDate() time.Time {
	if len(p.Dates) == 0 {
		return time.Time{}
	}
	first := p.Dates[0]
	for _, d := range p.Dates[1:] {
		if d.Before(first) {
			first = d
		}
	}
	return first
}

// LastDate returns the latest date in the index, or the zero time when empty.
func (p *PriceTable) LastDate() time.Time {
	if len(p.Dates) == 0 {
		return time.Time{}
	}
	last := p.Dates[0]
	for _, d := range p.Dates[1:] {
		if d.After(last) {
			last = d
		}
	}
	return last
}

// RenameColumns relabels columns through names. Columns missing from names keep their label.
func (p *PriceTable) RenameColumns(names map[string]string) {
	for i, c := range p.Columns {
		if n, ok := names[c]; ok && n != "" {
			p.Columns[i] = n
		}
	}
}

// DropEmptyRows removes rows in which every cell is null.
func (p *PriceTable) DropEmptyRows() {
	dates := p.Dates[:0]
	values := p.Values[:0]
	for i, row := range p.Values {
		empty := true
		for _, v := range row {
			if v.Valid {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		dates = append(dates, p.Dates[i])
		values = append(values, row)
	}
	p.Dates = dates
	p.Values = values
}

// SortByDate orders rows ascending by date.
func (p *PriceTable) SortByDate() {
	sort.Stable(byDate{p})
}

type byDate struct{ p *PriceTable }

func (b byDate) Len() int           { return len(b.p.Dates) }
func (b byDate) Less(i, j int) bool { return b.p.Dates[i].Before(b.p.Dates[j]) }
func (b byDate) Swap(i, j int) {
	b.p.Dates[i], b.p.Dates[j] = b.p.Dates[j], b.p.Dates[i]
	b.p.Values[i], b.p.Values[j] = b.p.Values[j], b.p.Values[i]
}

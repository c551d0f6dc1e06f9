package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"market-forecast-lab/internal/domain"
)

// dateLayouts are tried in order when normalizing a date cell. The first
// match wins, so unambiguous layouts come first and US month-first slash
// dates are assumed over day-first.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// volume suffix multipliers (case-insensitive).
var suffixMultipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// inferColumns types each column from its cells: all non-empty cells
// parse as dates → date; all parse as numbers → numeric; anything else →
// text. A column with no non-empty cells is text. Blank header names get
// positional fallbacks.
func inferColumns(header []string, records [][]string) []domain.Column {
	columns := make([]domain.Column, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}

		allDates, allNumbers := true, true
		nonEmpty := 0
		for _, rec := range records {
			cell := strings.TrimSpace(rec[i])
			if cell == "" {
				continue
			}
			nonEmpty++
			if _, ok := normalizeDate(cell); !ok {
				allDates = false
			}
			if _, ok := parseNumeric(cell); !ok {
				allNumbers = false
			}
			if !allDates && !allNumbers {
				break
			}
		}

		colType := domain.ColumnText
		switch {
		case nonEmpty == 0:
		case allDates:
			colType = domain.ColumnDate
		case allNumbers:
			colType = domain.ColumnNumeric
		}
		columns[i] = domain.Column{Name: name, Type: colType}
	}
	return columns
}

// normalizeDate parses a date cell against the known layouts and renders
// it in the canonical ISO form.
func normalizeDate(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.Format(domain.DateLayout), true
		}
	}
	return "", false
}

// parseNumeric parses a numeric cell, normalizing the decorations seen in
// exported financial tables: currency prefix, thousands separators, a
// trailing percent sign, and K/M/B volume suffixes. A bare number passes
// through strconv unchanged.
func parseNumeric(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	percent := false
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSuffix(s, "%")
	}

	multiplier := 1.0
	if len(s) > 0 {
		if m, ok := suffixMultipliers[upperByte(s[len(s)-1])]; ok {
			multiplier = m
			s = s[:len(s)-1]
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	v *= multiplier
	if percent {
		v /= 100
	}
	if negative {
		v = -v
	}
	return v, true
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// Package bulk runs comparisons for a list of search keywords read from CSV.
package bulk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names recognised in the keyword file.
const (
	KeywordColumn    = "search_keywords"
	SearchesColumn   = "nb_searches"
	SearchToPIColumn = "search_to_pi_by_search"
)

var (
	// ErrMissingKeywordColumn is returned when the header has no search_keywords column.
	ErrMissingKeywordColumn = errors.New("missing " + KeywordColumn + " column")

	// ErrInvalidDelimiter is returned for an unsupported delimiter.
	ErrInvalidDelimiter = errors.New("invalid delimiter")
)

// Row is one keyword with its optional traffic statistics.
type Row struct {
	Keyword    string
	Searches   *float64
	SearchToPI *float64
}

// ParseDelimiter accepts ",", ";", "|" and a tab (as "\t", "tab" or a literal tab).
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case ",", "":
		return ',', nil
	case ";":
		return ';', nil
	case "|":
		return '|', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
}

// ReadRows parses a keyword file. The first record is the header. Rows with
// an empty keyword are skipped; unparsable statistics are treated as absent.
func ReadRows(r io.Reader, delimiter rune) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingKeywordColumn
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	kwCol, ok := cols[KeywordColumn]
	if !ok {
		return nil, ErrMissingKeywordColumn
	}

	var rows []Row
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		keyword := strings.TrimSpace(field(record, kwCol))
		if keyword == "" {
			continue
		}
		row := Row{Keyword: keyword}
		if i, ok := cols[SearchesColumn]; ok {
			row.Searches = parseNumber(field(record, i))
		}
		if i, ok := cols[SearchToPIColumn]; ok {
			row.SearchToPI = parseNumber(field(record, i))
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func field(record []string, i int) string {
	if i < len(record) {
		return record[i]
	}
	return ""
}

func parseNumber(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// Filter selects rows by traffic statistics. Nil bounds are not applied; a
// row missing a statistic that a bound applies to is excluded.
type Filter struct {
	MinSearches *float64
	MinPI       *float64
	MaxPI       *float64
}

// Apply returns the rows that pass every configured bound.
func (f Filter) Apply(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.MinSearches != nil && (r.Searches == nil || *r.Searches < *f.MinSearches) {
			continue
		}
		if f.MinPI != nil && (r.SearchToPI == nil || *r.SearchToPI < *f.MinPI) {
			continue
		}
		if f.MaxPI != nil && (r.SearchToPI == nil || *r.SearchToPI > *f.MaxPI) {
			continue
		}
		out = append(out, r)
	}
	return out
}

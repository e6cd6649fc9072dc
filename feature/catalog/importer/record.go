package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidRecord is returned for a raw record with an unparseable numeric field.
var ErrInvalidRecord = errors.New("invalid record")

// Column positions of a raw record.
const (
	colArtist = iota
	colYear
	colTitle
	colPack
	colLabel
	colLocator
	colOffset
	columnCount
)

// Record is one row of the raw import file.
type Record struct {
	Line    int
	Artist  string
	Year    int
	Title   string
	Pack    string
	Label   string
	Locator string
	Offset  int
}

// Placeholder reports whether the record is an intentionally incomplete row.
func (r Record) Placeholder() bool {
	return r.Artist == "" || r.Title == "" || r.Year == 0
}

// Reader reads semicolon-delimited raw records.
type Reader struct {
	csv     *csv.Reader
	started bool
}

// NewReader returns a Reader over src.
func NewReader(src io.Reader) *Reader {
	r := csv.NewReader(src)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true
	return &Reader{csv: r}
}

// Read returns the next record, or io.EOF. A leading header row is skipped.
// Blank lines are ignored.
func (r *Reader) Read() (Record, error) {
	for {
		fields, err := r.csv.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Record{}, io.EOF
			}
			return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		line, _ := r.csv.FieldPos(0)

		var cols [columnCount]string
		for i := 0; i < len(fields) && i < columnCount; i++ {
			cols[i] = strings.TrimSpace(fields[i])
		}

		first := !r.started
		r.started = true
		if first && strings.EqualFold(cols[colYear], "year") {
			continue
		}

		rec := Record{
			Line:    line,
			Artist:  cols[colArtist],
			Title:   cols[colTitle],
			Pack:    cols[colPack],
			Label:   cols[colLabel],
			Locator: cols[colLocator],
		}
		// Rows without a locator are skipped by the merger; numbers stay unparsed.
		if rec.Locator == "" {
			return rec, nil
		}
		if rec.Year, err = parseNumber(cols[colYear]); err != nil {
			return Record{}, fmt.Errorf("line %d: %w: year %q", line, ErrInvalidRecord, cols[colYear])
		}
		if rec.Offset, err = parseNumber(cols[colOffset]); err != nil {
			return Record{}, fmt.Errorf("line %d: %w: offset %q", line, ErrInvalidRecord, cols[colOffset])
		}
		return rec, nil
	}
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]Record, error) {
	var out []Record
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// parseNumber treats an empty field as zero.
func parseNumber(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

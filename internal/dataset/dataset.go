// Package dataset turns an uploaded spreadsheet into row objects keyed by
// the header row.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"
)

var (
	ErrEmptyDataset = errors.New("the uploaded Excel file is empty")
	ErrUnreadable   = errors.New("unable to read the uploaded spreadsheet")
)

// Row is one data row. Keys keep the column order of the sheet; empty cells
// are absent.
type Row struct {
	keys   []string
	values map[string]any
}

func NewRow() Row {
	return Row{values: make(map[string]any)}
}

// Set adds or replaces a column value, preserving first insertion order.
func (r *Row) Set(key string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r Row) Keys() []string {
	return r.keys
}

func (r Row) Len() int {
	return len(r.keys)
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Rows []Row

// Head returns at most the first n rows.
func (rs Rows) Head(n int) Rows {
	if n >= 0 && len(rs) > n {
		return rs[:n]
	}
	return rs
}

// Parse reads the first sheet of an xlsx workbook. The first non-blank row
// names the columns; every following non-blank row becomes a Row.
// ErrEmptyDataset is returned when there are no data rows.
func Parse(r io.Reader) (Rows, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyDataset
	}

	grid, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	return fromGrid(grid)
}

func fromGrid(grid [][]string) (Rows, error) {
	start := -1
	width := 0
	for i, cells := range grid {
		if start < 0 && !isBlank(cells) {
			start = i
		}
		if len(cells) > width {
			width = len(cells)
		}
	}
	if start < 0 {
		return nil, ErrEmptyDataset
	}

	headers := headerNames(grid[start], width)

	var rows Rows
	for _, cells := range grid[start+1:] {
		if isBlank(cells) {
			continue
		}
		row := NewRow()
		for c, raw := range cells {
			if raw == "" {
				continue
			}
			row.Set(headers[c], cellValue(raw))
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return rows, nil
}

// headerNames fills blank header cells with __EMPTY and suffixes repeated
// names with _1, _2, ...
func headerNames(cells []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool)
	for i := 0; i < width; i++ {
		base := ""
		if i < len(cells) {
			base = cells[i]
		}
		if base == "" {
			base = "__EMPTY"
		}
		name := base
		for n := 1; used[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// cellValue keeps canonical numbers numeric and everything else as text,
// so "00123" stays a string.
func cellValue(raw string) any {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw
	}
	if strconv.FormatFloat(f, 'f', -1, 64) == raw || strconv.FormatFloat(f, 'g', -1, 64) == raw {
		return f
	}
	return raw
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

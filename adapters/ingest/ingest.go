// Package ingest loads dataset tables from supported file formats. Formats
// register loaders by name; a data config's format field resolves against
// this registry.
package ingest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"mlstudy/domain/core"
	"mlstudy/domain/dataset"
)

// Source describes where and how to read a dataset.
type Source struct {
	Path      string
	Sheet     string // xlsx only; defaults to the first sheet
	HasHeader bool
}

// Loader reads a source into a table.
type Loader func(src Source) (*dataset.Table, error)

var registry = map[string]Loader{}

// Register installs a loader under a format name.
func Register(format string, loader Loader) {
	if _, dup := registry[format]; dup {
		panic(fmt.Sprintf("ingest: duplicate registration for %q", format))
	}
	registry[format] = loader
}

// Load resolves the format and reads the source.
func Load(format string, src Source) (*dataset.Table, error) {
	loader, ok := registry[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownFormat, format)
	}
	return loader(src)
}

// Registered returns the sorted names of all registered formats.
func Registered() []string {
	formats := make([]string, 0, len(registry))
	for f := range registry {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// tableFromCells converts string cells to a table. Blank or non-numeric
// cells become NaN; short rows are right-padded with NaN.
func tableFromCells(cells [][]string, hasHeader bool) (*dataset.Table, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	var features []string
	var body [][]string
	if hasHeader {
		for i, name := range cells[0] {
			name = strings.TrimSpace(name)
			if name == "" {
				name = fmt.Sprintf("f%d", i)
			}
			features = append(features, name)
		}
		body = cells[1:]
	} else {
		for i := range cells[0] {
			features = append(features, fmt.Sprintf("f%d", i))
		}
		body = cells
	}

	rows := make([][]float64, len(body))
	for r, record := range body {
		row := make([]float64, len(features))
		for c := range features {
			row[c] = math.NaN()
			if c < len(record) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(record[c]), 64); err == nil {
					row[c] = v
				}
			}
		}
		rows[r] = row
	}
	return dataset.NewTable(features, rows)
}

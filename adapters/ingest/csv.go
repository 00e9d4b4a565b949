package ingest

import (
	"encoding/csv"
	"fmt"
	"os"

	"mlstudy/domain/dataset"
)

func init() {
	Register("csv", loadCSV)
}

func loadCSV(src Source) (*dataset.Table, error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows pad to NaN downstream
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.Path, err)
	}
	return tableFromCells(records, src.HasHeader)
}

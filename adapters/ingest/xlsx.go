package ingest

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"mlstudy/domain/dataset"
)

func init() {
	Register("xlsx", loadXLSX)
}

func loadXLSX(src Source) (*dataset.Table, error) {
	f, err := excelize.OpenFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src.Path, err)
	}
	defer f.Close()

	sheet := src.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheet, src.Path, err)
	}
	return tableFromCells(rows, src.HasHeader)
}

// Package sheets reads the operator spreadsheets (an .xlsx workbook or a
// Google Sheet) and turns their rows into directory clients.
package sheets

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Source yields the raw cell values of a named sheet, header row first.
type Source interface {
	Rows(ctx context.Context, sheet string) ([][]string, error)
}

// XLSXSource reads sheets from a workbook on disk.
type XLSXSource struct {
	Path string
}

func (s XLSXSource) Rows(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.Path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found in %s", sheet, s.Path)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (s XLSXSource) String() string {
	return "xlsx:" + s.Path
}

package usage

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"audio-insights-go/internal/types"
)

const (
	RecordsSheet = "Registros"
	SummarySheet = "Resumo"
)

// ExportXLSX writes the raw records and their summary to a workbook.
func ExportXLSX(path string, records []types.UsageRecord) (Summary, error) {
	sum := Summarize(records)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return sum, fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, RecordsSheet, 1, Header); err != nil {
		return sum, err
	}
	for i, r := range records {
		if err := setRow(f, RecordsSheet, i+2, r.Row()); err != nil {
			return sum, err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return sum, fmt.Errorf("new sheet: %w", err)
	}
	rows := [][]string{{"total", fmt.Sprint(sum.Total)}}
	if sum.Total > 0 {
		rows = append(rows,
			[]string{"primeiro", sum.First.Format(types.DateLayout + " " + types.TimeLayout)},
			[]string{"ultimo", sum.Last.Format(types.DateLayout + " " + types.TimeLayout)},
		)
	}
	rows = append(rows, []string{}, []string{"nome", "execucoes"})
	for _, c := range sum.BySubmitter {
		rows = append(rows, []string{c.Key, fmt.Sprint(c.Count)})
	}
	rows = append(rows, []string{}, []string{"data", "execucoes"})
	for _, c := range sum.ByDay {
		rows = append(rows, []string{c.Key, fmt.Sprint(c.Count)})
	}
	for i, row := range rows {
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return sum, err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return sum, fmt.Errorf("save %s: %w", path, err)
	}
	return sum, nil
}

func setRow(f *excelize.File, sheet string, n int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
	return nil
}

// ReadXLSX loads records from the first sheet of a workbook laid out like the usage log.
// Columns are located by header name so reordered exports still load.
func ReadXLSX(path string) ([]types.UsageRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := make([]int, len(Header))
	for i := range idx {
		idx[i] = -1
	}
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		for j, want := range Header {
			if name == want && idx[j] == -1 {
				idx[j] = i
			}
		}
	}
	for j, i := range idx {
		if i == -1 {
			return nil, fmt.Errorf("missing column %q", Header[j])
		}
	}

	var out []types.UsageRecord
	for n, r := range rows[1:] {
		if len(r) == 0 {
			continue
		}
		row := make([]string, len(Header))
		for j, i := range idx {
			if i < len(r) {
				row[j] = r[i]
			}
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

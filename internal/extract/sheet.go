package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/model"
	"github.com/xuri/excelize/v2"
)

// SheetExtractor reads template spreadsheets: the first row holds payload
// keys and every following row is one record. The record type comes from a
// record_type column, else from the sheet name, else from the extractor default.
type SheetExtractor struct {
	defaultType model.RecordType
}

// NewSheetExtractor creates a spreadsheet extractor. defaultType may be empty.
func NewSheetExtractor(defaultType model.RecordType) *SheetExtractor {
	return &SheetExtractor{defaultType: defaultType}
}

// Name implements Extractor.
func (e *SheetExtractor) Name() string {
	return "sheet"
}

// Extract reads every .xlsx, .xlsm and .csv file in the input.
func (e *SheetExtractor) Extract(ctx context.Context, in Input) ([]model.CandidateRecord, error) {
	var records []model.CandidateRecord
	var seen int
	for _, f := range in.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var tables []table
		var err error
		switch f.Ext() {
		case "xlsx", "xlsm":
			tables, err = readWorkbook(f.Data)
		case "csv":
			tables, err = readCSV(f.Data)
		default:
			continue
		}
		seen++
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("%s: %w", f.Name, err), Raw: f.Name}
		}

		for _, t := range tables {
			parsed, err := e.rowsToRecords(t.name, t.rows)
			if err != nil {
				return nil, &ParseError{Err: fmt.Errorf("%s/%s: %w", f.Name, t.name, err), Raw: f.Name}
			}
			records = append(records, parsed...)
		}
	}

	if seen == 0 {
		return nil, &ParseError{Err: fmt.Errorf("no spreadsheet in input")}
	}
	slog.Info("parsed spreadsheets", "files", seen, "records", len(records))
	return records, nil
}

func (e *SheetExtractor) rowsToRecords(sheet string, rows [][]string) ([]model.CandidateRecord, error) {
	if len(rows) < 2 {
		return nil, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	sheetType := e.defaultType
	if t := model.RecordType(strings.ToLower(strings.TrimSpace(sheet))); t.Valid() {
		sheetType = t
	}

	var records []model.CandidateRecord
	for n, row := range rows[1:] {
		payload := make(map[string]any, len(header))
		recordType := sheetType
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			switch header[i] {
			case "record_type", "recordType":
				recordType = model.RecordType(strings.ToLower(cell))
			default:
				payload[header[i]] = cell
			}
		}
		if len(payload) == 0 {
			continue
		}
		if !recordType.Valid() {
			return nil, fmt.Errorf("row %d: unknown record type %q", n+2, recordType)
		}
		records = append(records, model.CandidateRecord{
			RecordType: recordType,
			Payload:    payload,
		})
	}
	return records, nil
}

type table struct {
	name string
	rows [][]string
}

func readWorkbook(data []byte) ([]table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var tables []table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		tables = append(tables, table{name: sheet, rows: rows})
	}
	return tables, nil
}

func readCSV(data []byte) ([]table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return []table{{rows: rows}}, nil
}

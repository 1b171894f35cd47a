package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyFile is returned when an upload has no header row.
var ErrEmptyFile = errors.New("file has no header row")

// ParsedFile is an uploaded sheet: headers in column order and one map per
// non-blank data row, keyed by every header. Lines holds the 1-indexed
// source line each row started on.
type ParsedFile struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"-"`
	Lines   []int               `json:"-"`
}

// LineOf returns the source line of row i. Files built without line
// information assume one line per row after the header.
func (p *ParsedFile) LineOf(i int) int {
	if i < len(p.Lines) {
		return p.Lines[i]
	}
	return i + 2
}

// Samples returns up to n non-empty values of a column.
func (p *ParsedFile) Samples(column string, n int) []string {
	out := make([]string, 0, n)
	for _, row := range p.Rows {
		if len(out) == n {
			break
		}
		if v := strings.TrimSpace(row[column]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseImportFile reads a .csv or .xlsx upload, chosen by file extension.
func ParseImportFile(name string, r io.Reader) (*ParsedFile, error) {
	var (
		records [][]string
		lines   []int
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		records, lines, err = readExcelRecords(r)
	case ".csv", ".txt", "":
		records, lines, err = readCSVRecords(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q (use .csv or .xlsx)", filepath.Ext(name))
	}
	if err != nil {
		return nil, err
	}
	return buildParsedFile(records, lines)
}

// ParseCSV parses CSV text with a header row.
func ParseCSV(r io.Reader) (*ParsedFile, error) {
	records, lines, err := readCSVRecords(r)
	if err != nil {
		return nil, err
	}
	return buildParsedFile(records, lines)
}

// readCSVRecords returns the records and the line each one starts on.
// Quoted cells may span lines, and the reader drops empty lines.
func readCSVRecords(r io.Reader) ([][]string, []int, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var (
		records [][]string
		lines   []int
	)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return records, lines, nil
}

func readExcelRecords(r io.Reader) ([][]string, []int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}
	return rows, lines, nil
}

func buildParsedFile(records [][]string, lines []int) (*ParsedFile, error) {
	// Leading blank lines before the header are ignored.
	for len(records) > 0 && blankRecord(records[0]) {
		records = records[1:]
		lines = lines[1:]
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := uniqueHeaders(records[0])
	parsed := &ParsedFile{Headers: headers}

	for i, rec := range records[1:] {
		if blankRecord(rec) {
			continue
		}
		parsed.Lines = append(parsed.Lines, lines[i+1])
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		parsed.Rows = append(parsed.Rows, row)
	}
	return parsed, nil
}

// uniqueHeaders trims headers and gives blank or repeated ones a positional
// name such as column_3.
func uniqueHeaders(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || seen[h] {
			h = fmt.Sprintf("column_%d", i+1)
		}
		seen[h] = true
		headers[i] = h
	}
	return headers
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

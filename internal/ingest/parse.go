package ingest

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data record keyed by column name.
type Row map[string]string

// Table is a parsed tabular file: ordered headers plus data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// NamedFile is one extracted archive member.
type NamedFile struct {
	Name string
	Data []byte
}

// ErrNoRows marks a file that parsed but carried no data rows.
var ErrNoRows = errors.New("ingest: no data rows found")

// ParseCSV reads a CSV stream into a table. The first record is the
// header row; short data rows leave trailing columns empty.
func ParseCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("ingest: parse csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, ErrNoRows
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	t := Table{Headers: headers}
	for _, rec := range records[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return t, ErrNoRows
	}
	return t, nil
}

// ParseXLSX reads the first sheet of a workbook into a table.
func ParseXLSX(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("ingest: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrNoRows
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("ingest: read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return Table{}, ErrNoRows
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	t := Table{Headers: headers}
	for _, rec := range records[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return t, ErrNoRows
	}
	return t, nil
}

// ExtractZIP returns the CSV members of a ZIP archive, skipping macOS
// resource entries and directories.
func ExtractZIP(data []byte) ([]NamedFile, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("ingest: open archive: %w", err)
	}

	var files []NamedFile
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(member.Name, "__MACOSX") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("ingest: open archive member %s: %w", member.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("ingest: read archive member %s: %w", member.Name, err)
		}
		files = append(files, NamedFile{Name: path.Base(member.Name), Data: content})
	}
	return files, nil
}

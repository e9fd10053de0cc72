package ingest

import (
	"bytes"
	"errors"
	"path"
	"strings"
)

// ProcessResult is the outcome of running one uploaded file through
// parsing, type detection, normalization and validation.
type ProcessResult struct {
	Filename           string              `json:"filename"`
	DetectedType       string              `json:"detected_type,omitempty"`
	Confidence         float64             `json:"confidence"`
	Rows               int                 `json:"rows"`
	OriginalHeaders    []string            `json:"original_headers,omitempty"`
	HeaderMappings     []HeaderMapping     `json:"header_mappings,omitempty"`
	EnumNormalizations []EnumNormalization `json:"enum_normalizations,omitempty"`
	Validation         *Report             `json:"validation,omitempty"`
	Error              string              `json:"error,omitempty"`

	// Data carries the normalized rows for storage; not serialized in
	// upload responses.
	Data []Row `json:"-"`
}

// ProcessFile parses one CSV or XLSX upload, detects its dataset type
// and normalizes headers and enums. Failures are reported in the result
// rather than returned: one bad file must not sink a multi-file upload.
func ProcessFile(name string, data []byte) ProcessResult {
	result := ProcessResult{Filename: name}

	var table Table
	var err error
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		table, err = ParseCSV(bytes.NewReader(data))
	case ".xlsx":
		table, err = ParseXLSX(data)
	default:
		result.Error = "Unsupported file format. Use .csv, .xlsx or .zip."
		return result
	}
	if errors.Is(err, ErrNoRows) {
		result.Error = "No data rows found."
		return result
	}
	if err != nil {
		result.Error = "Unreadable file. Re-save as UTF-8 CSV or XLSX."
		return result
	}

	result.OriginalHeaders = table.Headers
	fileType, confidence, _ := DetectFileType(table.Headers)
	result.DetectedType = fileType
	result.Confidence = confidence

	table, result.HeaderMappings = NormalizeHeaders(table)
	if fileType == "" {
		result.Validation = &Report{Errors: []Issue{{
			File: name, Message: "Could not auto-detect file type from headers.",
		}}}
		return result
	}

	table, result.EnumNormalizations = NormalizeEnums(fileType, table)
	report := Validate(fileType, table.Rows)
	result.Validation = &report
	result.Rows = len(table.Rows)
	result.Data = table.Rows
	return result
}

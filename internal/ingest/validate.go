package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	revenue "revstrux/internal/revenue/domain"
)

// errorCap bounds the number of issues reported for one file.
const errorCap = 500

// Issue is one validation finding, addressed by spreadsheet row (header
// is row 1, first data row is row 2).
type Issue struct {
	File    string `json:"file"`
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Report is the outcome of validating one dataset.
type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Validate checks a dataset's rows against its schema: required columns
// and fields, unique primary ids, enum membership, date and amount
// formats, currency codes and period ordering. An empty credit-notes
// file is a warning, any other empty file an error. Reporting stops at
// the error cap.
func Validate(fileType string, rows []Row) Report {
	var report Report
	if !KnownType(fileType) {
		report.Errors = append(report.Errors, Issue{File: fileType, Message: "Unknown file type: " + fileType})
		return report
	}

	required := requiredColumns[fileType]
	if len(rows) == 0 {
		if fileType == TypeCreditNotes {
			report.Valid = true
			report.Warnings = append(report.Warnings, Issue{
				File: fileType, Message: "No data rows. Credit note analysis will be skipped.",
			})
			return report
		}
		report.Errors = append(report.Errors, Issue{File: fileType, Message: "No data rows found."})
		return report
	}

	headers := make(map[string]bool, len(rows[0]))
	for h := range rows[0] {
		headers[h] = true
	}
	for _, col := range required {
		if !headers[col] {
			report.Errors = append(report.Errors, Issue{
				File: fileType, Field: col, Message: "Missing required column: " + col,
			})
		}
	}

	pk := idColumns[fileType]
	seenIDs := make(map[string]bool, len(rows))

	for i, row := range rows {
		rn := i + 2

		for _, col := range required {
			if headers[col] && strings.TrimSpace(row[col]) == "" {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: col, Message: "Missing required field: " + col,
				})
			}
		}

		if id := row[pk]; id != "" {
			if seenIDs[id] {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: pk,
					Message: fmt.Sprintf("Duplicate %s: %s", pk, id),
				})
			}
			seenIDs[id] = true
		}

		for field, allowed := range validEnums[fileType] {
			value := row[field]
			if value == "" || contains(allowed, value) {
				continue
			}
			report.Errors = append(report.Errors, Issue{
				File: fileType, Row: rn, Field: field,
				Message: fmt.Sprintf("Invalid value '%s'. Allowed: %s", value, strings.Join(allowed, ", ")),
			})
		}

		switch fileType {
		case TypeSubscriptions:
			sd, sdOK := checkDate(&report, fileType, rn, "start_date", row["start_date"])
			ed, edOK := checkDate(&report, fileType, rn, "end_date", row["end_date"])
			if sdOK && edOK && !ed.After(sd) {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: "end_date",
					Message: "end_date must be after start_date",
				})
			}
			if mrr, err := parseAmount(row["mrr"]); err != nil {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: "mrr", Message: "Invalid amount format",
				})
			} else if mrr < 0 {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: "mrr", Message: "MRR must be positive",
				})
			}

		case TypeInvoices:
			checkDate(&report, fileType, rn, "invoice_date", row["invoice_date"])
			ps, psOK := checkDate(&report, fileType, rn, "period_start", row["period_start"])
			pe, peOK := checkDate(&report, fileType, rn, "period_end", row["period_end"])
			if psOK && peOK && !pe.After(ps) {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: "period_end",
					Message: "period_end must be after period_start",
				})
			}

		case TypePayments:
			checkDate(&report, fileType, rn, "payment_date", row["payment_date"])

		case TypeCreditNotes:
			checkDate(&report, fileType, rn, "issue_date", row["issue_date"])
			if amt, err := parseAmount(row["amount"]); err != nil {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: "amount", Message: "Invalid amount format",
				})
			} else if amt <= 0 {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: "amount",
					Message: "Credit note amount must be a positive number",
				})
			}
		}

		if fileType == TypeInvoices || fileType == TypePayments {
			if _, err := parseAmount(row["amount"]); err != nil {
				report.Errors = append(report.Errors, Issue{
					File: fileType, Row: rn, Field: "amount", Message: "Invalid amount format",
				})
			}
		}

		if cur := row["currency"]; cur != "" && !validCurrencies[cur] {
			report.Errors = append(report.Errors, Issue{
				File: fileType, Row: rn, Field: "currency",
				Message: "Invalid currency code: " + cur,
			})
		}

		if len(report.Errors) >= errorCap {
			report.Errors = append(report.Errors, Issue{
				Message: fmt.Sprintf("Showing first %d errors. Fix these and re-validate.", errorCap),
			})
			break
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}

// checkDate validates an optional YYYY-MM-DD field. Empty values pass;
// the parsed date is returned only when present and well-formed.
func checkDate(report *Report, fileType string, rn int, field, value string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, false
	}
	d, ok := revenue.ParseDate(value)
	if !ok {
		report.Errors = append(report.Errors, Issue{
			File: fileType, Row: rn, Field: field,
			Message: "Invalid date format. Use YYYY-MM-DD",
		})
		return time.Time{}, false
	}
	return d, true
}

// parseAmount accepts a numeric string; an empty value parses as zero
// since presence is checked separately.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Package interfaces renders analysis outputs for download: CSV extracts
// of the account, lineage and exclusion views, and the integrity report
// as PDF or XLSX.
package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"revstrux/internal/analysis/application"
	"revstrux/internal/exclusion"
	reconcile "revstrux/internal/reconcile/domain"
	scoring "revstrux/internal/scoring/domain"
	session "revstrux/internal/session/domain"
)

// Report footer lines. Fixed wording; downstream consumers quote these.
const (
	footerDeferred      = "Deferred revenue modelling is not included in this analysis."
	footerDeterministic = "All calculations are deterministic and rule-based. No AI or machine learning is used."
	footerVersion       = "Generated by RevStrux v1.1"
)

// AccountsCSV renders the account summary export.
func AccountsCSV(accounts []application.AccountSummary) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"rsx_id", "account_name", "match_type", "subscriptions", "periods",
		"expected_total", "invoiced_total", "credit_notes_total",
		"total_variance", "primary_variance_type", "lineage_status", "currency",
	})
	for _, a := range accounts {
		_ = w.Write([]string{
			a.RSXID, a.AccountName, a.MatchType,
			strconv.Itoa(a.Subscriptions), strconv.Itoa(a.Periods),
			formatAmount(a.ExpectedTotal), formatAmount(a.InvoicedTotal),
			formatAmount(a.CreditNotesTotal), formatAmount(a.TotalVariance),
			a.PrimaryVarianceType, a.LineageStatus, a.Currency,
		})
	}
	w.Flush()
	return buf.Bytes()
}

// LineageCSV renders one entity's reconciliation segments ordered by
// period.
func LineageCSV(segments []reconcile.Result) []byte {
	ordered := make([]reconcile.Result, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Period < ordered[j].Period })

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Period", "Sub ID", "Expected", "Invoiced", "Credit Notes", "Collected", "Variance", "Status", "Prorated"})
	for _, s := range ordered {
		prorated := "No"
		if s.IsProrated {
			prorated = "Yes"
		}
		_ = w.Write([]string{
			s.Period, s.SubID,
			formatAmount(s.ExpectedAmount), formatAmount(s.InvoicedAmount),
			formatAmount(s.CreditNotesAmount), formatAmount(s.CollectedAmount),
			formatAmount(s.Variance), s.Status, prorated,
		})
	}
	w.Flush()
	return buf.Bytes()
}

// ExclusionsCSV renders the exclusion log export.
func ExclusionsCSV(exclusions []exclusion.Exclusion, sessionID string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"record_type", "record_id", "reason_code", "description", "excluded_at", "session_id"})
	for _, e := range exclusions {
		_ = w.Write([]string{
			e.RecordType, e.RecordID, e.ReasonCode, e.Description,
			e.ExcludedAt.Format(time.RFC3339), sessionID,
		})
	}
	w.Flush()
	return buf.Bytes()
}

// BuildIntegrityPDF renders the structural integrity report.
func BuildIntegrityPDF(score scoring.Score, settings session.Settings, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 16)
	pdf.AddPage()

	pdf.Cell(0, 10, "RevStrux - Structural Integrity Report")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Analysis Period: %s to %s", settings.PeriodStart, settings.PeriodEnd))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", now.Format("2006-01-02 15:04")))
	pdf.Ln(10)

	cov := score.Coverage
	pdf.Cell(0, 6, fmt.Sprintf("Coverage: %v%% of subscriptions (%d of %d)",
		cov.SubscriptionPct, cov.SubscriptionCount, cov.TotalSubscriptions))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("ARR Coverage: %v%% ($%.0f of $%.0f)",
		cov.ARRPct, cov.ARRCovered, cov.TotalARR))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Structural Integrity Score: %d - %s", score.Score, score.Band))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, score.Interpretation)
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 6, "Component", "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Weight", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, c := range componentRows(score.Components) {
		pdf.CellFormat(90, 6, c.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%v%%", c.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d%%", c.Weight), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(8)

	rar := score.RevenueAtRisk
	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Revenue at Risk: $%.2f", rar.Total))
	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Accounts", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range riskRows(rar) {
		pdf.CellFormat(70, 6, row.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("$%.2f", row.amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, strconv.Itoa(row.accounts), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(10)

	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 5, footerDeferred)
	pdf.Ln(4)
	pdf.Cell(0, 5, footerDeterministic)
	pdf.Ln(4)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, footerVersion)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildIntegrityXLSX renders the integrity report as a workbook with a
// summary sheet and an accounts sheet.
func BuildIntegrityXLSX(score scoring.Score, settings session.Settings, accounts []application.AccountSummary) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	accountsSheet := "accounts"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(accountsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "RevStrux - Structural Integrity Report")
	_ = f.SetCellValue(summarySheet, "A3", "Analysis Period")
	_ = f.SetCellValue(summarySheet, "B3", settings.PeriodStart+" to "+settings.PeriodEnd)
	_ = f.SetCellValue(summarySheet, "A4", "Score")
	_ = f.SetCellValue(summarySheet, "B4", score.Score)
	_ = f.SetCellValue(summarySheet, "A5", "Band")
	_ = f.SetCellValue(summarySheet, "B5", score.Band)
	_ = f.SetCellValue(summarySheet, "A6", "Interpretation")
	_ = f.SetCellValue(summarySheet, "B6", score.Interpretation)
	row := 8
	for _, c := range componentRows(score.Components) {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), c.Label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), c.Value)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), c.Weight)
		row++
	}
	row++
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Revenue at Risk")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), score.RevenueAtRisk.Total)
	row++
	for _, r := range riskRows(score.RevenueAtRisk) {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), r.label)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), r.amount)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), r.accounts)
		row++
	}

	headers := []string{"RSX ID", "Account", "Match Type", "Subscriptions", "Periods",
		"Expected", "Invoiced", "Credit Notes", "Variance", "Variance Type", "Lineage", "Currency"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(accountsSheet, cell, h)
	}
	for i, a := range accounts {
		values := []any{a.RSXID, a.AccountName, a.MatchType, a.Subscriptions, a.Periods,
			a.ExpectedTotal, a.InvoicedTotal, a.CreditNotesTotal, a.TotalVariance,
			a.PrimaryVarianceType, a.LineageStatus, a.Currency}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(accountsSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func componentRows(c scoring.Components) []scoring.Component {
	return []scoring.Component{
		c.EntityMatchRate, c.BillingCoverageRate, c.VarianceRate, c.LineageCompleteness,
	}
}

type riskRow struct {
	label    string
	amount   float64
	accounts int
}

func riskRows(rar scoring.RevenueAtRisk) []riskRow {
	return []riskRow{
		{"Missing Invoice", rar.MissingInvoice, rar.MissingInvoiceAccounts},
		{"Under-billed", rar.UnderBilled, rar.UnderBilledAccounts},
		{"Over-billed", rar.OverBilled, rar.OverBilledAccounts},
		{"Unpaid AR", rar.UnpaidAR, rar.UnpaidARAccounts},
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

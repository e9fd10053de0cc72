package interfaces

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"revstrux/internal/analysis/application"
	"revstrux/internal/exclusion"

	reconcile "revstrux/internal/reconcile/domain"
	scoring "revstrux/internal/scoring/domain"
	session "revstrux/internal/session/domain"
)

func sampleScore() scoring.Score {
	return scoring.Score{
		Score:          82,
		Band:           scoring.BandDrifting,
		Color:          "amber",
		Interpretation: "Minor structural drift. Investigate flagged accounts.",
		Components: scoring.Components{
			EntityMatchRate:     scoring.Component{Value: 95, Weight: 25, Label: "Entity Match Rate"},
			BillingCoverageRate: scoring.Component{Value: 80, Weight: 35, Label: "Billing Coverage Rate"},
			VarianceRate:        scoring.Component{Value: 75, Weight: 25, Label: "Variance Rate"},
			LineageCompleteness: scoring.Component{Value: 88, Weight: 15, Label: "Lineage Completeness"},
		},
		Coverage: scoring.Coverage{
			SubscriptionCount: 68, TotalSubscriptions: 70, SubscriptionPct: 97.1,
			ARRCovered: 900000, TotalARR: 950000, ARRPct: 94.7,
		},
		RevenueAtRisk: scoring.RevenueAtRisk{
			Total: 42000, MissingInvoice: 30000, UnderBilled: 8000, OverBilled: 1000, UnpaidAR: 3000,
			MissingInvoiceAccounts: 3, UnderBilledAccounts: 2, OverBilledAccounts: 1, UnpaidARAccounts: 1,
		},
	}
}

func TestAccountsCSV(t *testing.T) {
	accounts := []application.AccountSummary{
		{
			RSXID: "RSX-001", AccountName: "Globex Corp", MatchType: "exact",
			Subscriptions: 2, Periods: 12, ExpectedTotal: 24000, InvoicedTotal: 22000,
			CreditNotesTotal: 500, TotalVariance: -2000,
			PrimaryVarianceType: "UNDER_BILLED", LineageStatus: "Complete", Currency: "USD",
		},
	}

	records, err := csv.NewReader(bytes.NewReader(AccountsCSV(accounts))).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header plus 1 row", len(records))
	}
	wantHeader := []string{
		"rsx_id", "account_name", "match_type", "subscriptions", "periods",
		"expected_total", "invoiced_total", "credit_notes_total",
		"total_variance", "primary_variance_type", "lineage_status", "currency",
	}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	if records[1][0] != "RSX-001" || records[1][8] != "-2000" {
		t.Fatalf("unexpected row: %v", records[1])
	}
}

func TestLineageCSVSortsByPeriod(t *testing.T) {
	segments := []reconcile.Result{
		{SubID: "SUB-1", Period: "2024-03", ExpectedAmount: 1000, Status: reconcile.StatusMissingInvoice},
		{SubID: "SUB-1", Period: "2024-01", ExpectedAmount: 500, InvoicedAmount: 500, Status: reconcile.StatusClean, IsProrated: true},
	}

	records, err := csv.NewReader(bytes.NewReader(LineageCSV(segments))).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d", len(records))
	}
	if records[1][0] != "2024-01" || records[2][0] != "2024-03" {
		t.Fatalf("rows not sorted by period: %v %v", records[1], records[2])
	}
	if records[1][8] != "Yes" || records[2][8] != "No" {
		t.Fatalf("prorated flags wrong: %v %v", records[1], records[2])
	}
	if len(segments) == 2 && segments[0].Period != "2024-03" {
		t.Fatal("input slice was reordered")
	}
}

func TestExclusionsCSVCarriesSessionID(t *testing.T) {
	exclusions := []exclusion.Exclusion{
		exclusion.New(exclusion.RecordSubscription, "SUB-9",
			exclusion.ReasonUnsupportedStructure, "usage pricing model is not supported"),
	}

	records, err := csv.NewReader(bytes.NewReader(ExclusionsCSV(exclusions, "sess-1"))).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}
	row := records[1]
	if row[0] != exclusion.RecordSubscription || row[1] != "SUB-9" || row[5] != "sess-1" {
		t.Fatalf("unexpected row: %v", row)
	}
	if _, err := time.Parse(time.RFC3339, row[4]); err != nil {
		t.Fatalf("excluded_at not RFC3339: %q", row[4])
	}
}

func TestBuildIntegrityPDF(t *testing.T) {
	settings := session.Settings{Currency: "USD", PeriodStart: "2024-01", PeriodEnd: "2024-12"}
	data, err := BuildIntegrityPDF(sampleScore(), settings, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("BuildIntegrityPDF: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	if !bytes.Contains(data, []byte("%%EOF")) {
		t.Fatal("PDF is truncated")
	}
}

func TestBuildIntegrityXLSX(t *testing.T) {
	settings := session.Settings{Currency: "USD", PeriodStart: "2024-01", PeriodEnd: "2024-12"}
	accounts := []application.AccountSummary{
		{RSXID: "RSX-001", AccountName: "Globex Corp", MatchType: "exact", Currency: "USD"},
	}
	data, err := BuildIntegrityXLSX(sampleScore(), settings, accounts)
	if err != nil {
		t.Fatalf("BuildIntegrityXLSX: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatal("output is not an XLSX archive")
	}
}

func TestFooterTextIsStable(t *testing.T) {
	for _, footer := range []string{footerDeferred, footerDeterministic, footerVersion} {
		if strings.TrimSpace(footer) == "" {
			t.Fatal("empty footer line")
		}
	}
	if !strings.Contains(footerVersion, "RevStrux") {
		t.Fatalf("version footer = %q", footerVersion)
	}
}

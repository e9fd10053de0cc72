package revenue

import (
	"testing"

	"revstrux/internal/exclusion"
	identity "revstrux/internal/identity/domain"
)

func window(t *testing.T, start, end string) (Month, Month) {
	t.Helper()
	s, err := ParseMonth(start)
	if err != nil {
		t.Fatalf("ParseMonth(%q): %v", start, err)
	}
	e, err := ParseMonth(end)
	if err != nil {
		t.Fatalf("ParseMonth(%q): %v", end, err)
	}
	return s, e
}

func testEntities() []identity.Entity {
	return []identity.Entity{{RSXID: "RSX-00001", AccountID: "A-1", CustomerID: "C-1"}}
}

func TestModelFullMonthsMatchMRRExactly(t *testing.T) {
	start, end := window(t, "2025-06", "2025-08")
	subs := []Subscription{{
		SubID: "S-1", CustomerID: "C-1", StartDate: "2025-01-01",
		MRR: 1234.56, PricingModel: PricingFlat, SubStatus: SubStatusActive,
	}}
	result := ModelExpectations(subs, testEntities(), start, end)
	if len(result.Slices) != 3 {
		t.Fatalf("slices = %d, want 3", len(result.Slices))
	}
	for _, s := range result.Slices {
		if s.ExpectedAmount != 1234.56 {
			t.Errorf("%s: expected_amount = %v, want exactly the MRR", s.Period, s.ExpectedAmount)
		}
		if s.IsProrated {
			t.Errorf("%s: full month flagged prorated", s.Period)
		}
		if s.DaysActive != s.TotalDays {
			t.Errorf("%s: days_active = %d, total_days = %d", s.Period, s.DaysActive, s.TotalDays)
		}
	}
}

func TestModelProratesMidMonthStart(t *testing.T) {
	start, end := window(t, "2025-06", "2025-06")
	subs := []Subscription{{
		SubID: "S-1", CustomerID: "C-1", StartDate: "2025-06-16",
		MRR: 3000, PricingModel: PricingFlat, SubStatus: SubStatusActive,
	}}
	result := ModelExpectations(subs, testEntities(), start, end)
	if len(result.Slices) != 1 {
		t.Fatalf("slices = %d, want 1", len(result.Slices))
	}
	s := result.Slices[0]
	// 15 of 30 June days active.
	if s.DaysActive != 15 || s.TotalDays != 30 {
		t.Fatalf("days = %d/%d, want 15/30", s.DaysActive, s.TotalDays)
	}
	if !s.IsProrated {
		t.Error("mid-month start not flagged prorated")
	}
	if s.ExpectedAmount != 1500.00 {
		t.Errorf("expected_amount = %v, want 1500.00", s.ExpectedAmount)
	}
}

func TestModelProratesEndDate(t *testing.T) {
	start, end := window(t, "2025-07", "2025-08")
	subs := []Subscription{{
		SubID: "S-1", CustomerID: "C-1", StartDate: "2025-01-01", EndDate: "2025-07-10",
		MRR: 3100, PricingModel: PricingFlat, SubStatus: SubStatusCancelled,
	}}
	result := ModelExpectations(subs, testEntities(), start, end)
	if len(result.Slices) != 1 {
		t.Fatalf("slices = %d, want 1 (August is past the end date)", len(result.Slices))
	}
	s := result.Slices[0]
	if s.Period != "2025-07" || s.DaysActive != 10 {
		t.Fatalf("slice = %s days %d, want 2025-07 with 10 active days", s.Period, s.DaysActive)
	}
	if s.ExpectedAmount != 1000.00 {
		t.Errorf("expected_amount = %v, want 1000.00", s.ExpectedAmount)
	}
}

func TestModelUsageExcluded(t *testing.T) {
	start, end := window(t, "2025-06", "2025-06")
	subs := []Subscription{{
		SubID: "S-U", CustomerID: "C-1", StartDate: "2025-01-01",
		MRR: 500, PricingModel: PricingUsage, SubStatus: SubStatusActive,
	}}
	result := ModelExpectations(subs, testEntities(), start, end)
	if len(result.Slices) != 0 {
		t.Fatalf("usage subscription produced %d slices", len(result.Slices))
	}
	if len(result.Exclusions) != 1 {
		t.Fatalf("exclusions = %d, want 1", len(result.Exclusions))
	}
	excl := result.Exclusions[0]
	if excl.RecordType != exclusion.RecordSubscription || excl.RecordID != "S-U" {
		t.Errorf("exclusion = %s/%s", excl.RecordType, excl.RecordID)
	}
	if excl.ReasonCode != exclusion.ReasonUnsupportedStructure {
		t.Errorf("reason = %s, want %s", excl.ReasonCode, exclusion.ReasonUnsupportedStructure)
	}
}

func TestModelSkipsOutOfScopeRecords(t *testing.T) {
	start, end := window(t, "2025-06", "2025-06")
	subs := []Subscription{
		{SubID: "S-noentity", CustomerID: "C-unknown", StartDate: "2025-01-01", MRR: 900, PricingModel: PricingFlat},
		{SubID: "S-baddate", CustomerID: "C-1", StartDate: "not-a-date", MRR: 900, PricingModel: PricingFlat},
		{SubID: "S-future", CustomerID: "C-1", StartDate: "2025-09-01", MRR: 900, PricingModel: PricingFlat},
	}
	result := ModelExpectations(subs, testEntities(), start, end)
	if len(result.Slices) != 0 {
		t.Errorf("slices = %d, want 0", len(result.Slices))
	}
	if len(result.Exclusions) != 0 {
		t.Errorf("exclusions = %d, want 0: scope skips are silent", len(result.Exclusions))
	}
}

func TestModelRampStages(t *testing.T) {
	start, end := window(t, "2025-06", "2025-07")
	subs := []Subscription{{
		SubID: "S-R", CustomerID: "C-1", StartDate: "2025-06-01",
		MRR: 5000, PricingModel: PricingRamp, SubStatus: SubStatusActive,
		RampSchedule: `[{"stage_start":"2025-06-01","stage_end":"2025-06-30","mrr":5000},` +
			`{"stage_start":"2025-07-01","stage_end":"2026-05-31","mrr":8000}]`,
	}}
	result := ModelExpectations(subs, testEntities(), start, end)
	if len(result.Slices) != 2 {
		t.Fatalf("slices = %d, want 2", len(result.Slices))
	}
	if result.Slices[0].ExpectedAmount != 5000 || result.Slices[0].MRR != 5000 {
		t.Errorf("June slice = %v/%v, want 5000", result.Slices[0].ExpectedAmount, result.Slices[0].MRR)
	}
	if result.Slices[1].ExpectedAmount != 8000 || result.Slices[1].MRR != 8000 {
		t.Errorf("July slice = %v/%v, want 8000", result.Slices[1].ExpectedAmount, result.Slices[1].MRR)
	}
}

func TestModelMalformedRampFallsBack(t *testing.T) {
	start, end := window(t, "2025-06", "2025-06")
	subs := []Subscription{{
		SubID: "S-R", CustomerID: "C-1", StartDate: "2025-01-01",
		MRR: 4200, PricingModel: PricingRamp, SubStatus: SubStatusActive,
		RampSchedule: "{not json",
	}}
	result := ModelExpectations(subs, testEntities(), start, end)
	if len(result.Slices) != 1 || result.Slices[0].ExpectedAmount != 4200 {
		t.Fatalf("malformed ramp should fall back to base MRR, got %+v", result.Slices)
	}
}

func TestModelDefaults(t *testing.T) {
	start, end := window(t, "2025-06", "2025-06")
	subs := []Subscription{{
		SubID: "S-1", CustomerID: "C-1", StartDate: "2025-01-01",
		MRR: 100, PricingModel: PricingFlat,
	}}
	result := ModelExpectations(subs, testEntities(), start, end)
	s := result.Slices[0]
	if s.Currency != "USD" || s.BillingFrequency != "monthly" {
		t.Errorf("defaults = %s/%s, want USD/monthly", s.Currency, s.BillingFrequency)
	}
}

func TestStageMRRForGapMonth(t *testing.T) {
	stages, ok := ParseRampSchedule(`[{"stage_start":"2025-01-01","stage_end":"2025-03-31","mrr":2000}]`)
	if !ok {
		t.Fatal("schedule should parse")
	}
	m, _ := ParseMonth("2025-05")
	if got := StageMRRFor(stages, m, 999); got != 999 {
		t.Errorf("gap month MRR = %v, want fallback 999", got)
	}
	m, _ = ParseMonth("2025-02")
	if got := StageMRRFor(stages, m, 999); got != 2000 {
		t.Errorf("covered month MRR = %v, want 2000", got)
	}
}

package reconcile

import (
	"testing"

	billing "revstrux/internal/billing/domain"
	"revstrux/internal/exclusion"
	identity "revstrux/internal/identity/domain"
	revenue "revstrux/internal/revenue/domain"
)

func reconcileEntities() []identity.Entity {
	return []identity.Entity{{RSXID: "RSX-00001", AccountID: "A-1", CustomerID: "C-1"}}
}

func reconcileSlice(expected float64) revenue.ExpectationSlice {
	return revenue.ExpectationSlice{
		RSXID: "RSX-00001", SubID: "S-1", CustomerID: "C-1",
		Period: "2025-06", ExpectedAmount: expected, MRR: expected,
		DaysActive: 30, TotalDays: 30, Currency: "USD",
	}
}

func alloc(invoiceID string, amount, invoiceAmount float64, status string) billing.Allocation {
	return billing.Allocation{
		InvoiceID: invoiceID, RSXID: "RSX-00001", SubID: "S-1", Period: "2025-06",
		AllocatedAmount: amount, OverlapDays: 30, TotalInvDays: 30,
		InvoiceAmount: invoiceAmount, InvoiceDate: "2025-06-01", InvoiceStatus: status,
	}
}

func TestReconcileClean(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(2500)},
		[]billing.Allocation{alloc("INV-1", 2500, 2500, billing.InvoiceStatusPaid)},
		[]billing.Payment{{PaymentID: "P-1", InvoiceID: "INV-1", Amount: 2500}},
		nil, reconcileEntities(),
	)
	r := out.Results[0]
	if r.Status != StatusClean {
		t.Fatalf("status = %s, want %s", r.Status, StatusClean)
	}
	if r.Variance != 0 || r.HasUnpaidAR {
		t.Errorf("variance = %v, unpaid = %v", r.Variance, r.HasUnpaidAR)
	}
	if r.CollectedAmount != 2500 {
		t.Errorf("collected = %v, want 2500", r.CollectedAmount)
	}
}

func TestReconcileWithinTolerance(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(2500)},
		[]billing.Allocation{alloc("INV-1", 2499.13, 2499.13, billing.InvoiceStatusPaid)},
		[]billing.Payment{{PaymentID: "P-1", InvoiceID: "INV-1", Amount: 2499.13}},
		nil, reconcileEntities(),
	)
	r := out.Results[0]
	if r.Status != StatusClean {
		t.Errorf("variance -0.87 sits inside the tolerance band, got %s", r.Status)
	}
	if r.Variance != -0.87 {
		t.Errorf("variance = %v, want -0.87", r.Variance)
	}
}

func TestReconcileMissingInvoice(t *testing.T) {
	out := Reconcile([]revenue.ExpectationSlice{reconcileSlice(2500)}, nil, nil, nil, reconcileEntities())
	r := out.Results[0]
	if r.Status != StatusMissingInvoice {
		t.Fatalf("status = %s, want %s", r.Status, StatusMissingInvoice)
	}
	if r.Variance != -2500 || r.AbsVariance != 2500 {
		t.Errorf("variance = %v / %v", r.Variance, r.AbsVariance)
	}
}

func TestReconcileUnderAndOverBilled(t *testing.T) {
	cases := []struct {
		invoiced float64
		status   string
	}{
		{7500, StatusUnderBilled},
		{15000, StatusOverBilled},
	}
	for _, c := range cases {
		out := Reconcile(
			[]revenue.ExpectationSlice{reconcileSlice(12000)},
			[]billing.Allocation{alloc("INV-1", c.invoiced, c.invoiced, billing.InvoiceStatusPaid)},
			[]billing.Payment{{PaymentID: "P-1", InvoiceID: "INV-1", Amount: c.invoiced}},
			nil, reconcileEntities(),
		)
		if got := out.Results[0].Status; got != c.status {
			t.Errorf("invoiced %v: status = %s, want %s", c.invoiced, got, c.status)
		}
	}
}

func TestReconcileUnpaidAROverlay(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(2500)},
		[]billing.Allocation{alloc("INV-1", 2500, 2500, billing.InvoiceStatusUnpaid)},
		nil, nil, reconcileEntities(),
	)
	r := out.Results[0]
	if r.Status != StatusUnpaidAR {
		t.Fatalf("status = %s, want %s", r.Status, StatusUnpaidAR)
	}
	if !r.HasUnpaidAR || r.CollectedAmount != 0 {
		t.Errorf("unpaid = %v, collected = %v", r.HasUnpaidAR, r.CollectedAmount)
	}
}

func TestReconcileUnpaidDoesNotMaskVariance(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(12000)},
		[]billing.Allocation{alloc("INV-1", 7500, 7500, billing.InvoiceStatusUnpaid)},
		nil, nil, reconcileEntities(),
	)
	r := out.Results[0]
	if r.Status != StatusUnderBilled {
		t.Errorf("status = %s: billing variance outranks the unpaid overlay", r.Status)
	}
	if !r.HasUnpaidAR {
		t.Error("has_unpaid_ar flag should still be set")
	}
}

func TestReconcilePartialPaymentFlagsUnpaid(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(2500)},
		[]billing.Allocation{alloc("INV-1", 2500, 2500, billing.InvoiceStatusUnpaid)},
		[]billing.Payment{{PaymentID: "P-1", InvoiceID: "INV-1", Amount: 1000}},
		nil, reconcileEntities(),
	)
	r := out.Results[0]
	if !r.HasUnpaidAR || r.Status != StatusUnpaidAR {
		t.Errorf("partial collection: unpaid = %v, status = %s", r.HasUnpaidAR, r.Status)
	}
	if r.CollectedAmount != 1000 {
		t.Errorf("collected = %v, want 1000", r.CollectedAmount)
	}
}

func TestReconcileLinkedCreditSpreadsProportionally(t *testing.T) {
	slices := []revenue.ExpectationSlice{
		reconcileSlice(3000),
		{RSXID: "RSX-00001", SubID: "S-1", CustomerID: "C-1", Period: "2025-07",
			ExpectedAmount: 3000, MRR: 3000, DaysActive: 31, TotalDays: 31, Currency: "USD"},
	}
	allocations := []billing.Allocation{
		alloc("INV-1", 4000, 6000, billing.InvoiceStatusPaid),
		{InvoiceID: "INV-1", RSXID: "RSX-00001", SubID: "S-1", Period: "2025-07",
			AllocatedAmount: 2000, OverlapDays: 10, TotalInvDays: 30,
			InvoiceAmount: 6000, InvoiceDate: "2025-06-01", InvoiceStatus: billing.InvoiceStatusPaid},
	}
	notes := []billing.CreditNote{{
		CreditNoteID: "CN-1", CustomerID: "C-1", InvoiceID: "INV-1",
		Amount: 600, IssueDate: "2025-06-20", Reason: "service credit",
	}}
	out := Reconcile(slices, allocations,
		[]billing.Payment{{PaymentID: "P-1", InvoiceID: "INV-1", Amount: 6000}},
		notes, reconcileEntities())
	if len(out.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(out.Results))
	}
	june, july := out.Results[0], out.Results[1]
	if june.CreditNotesAmount != 400 {
		t.Errorf("June credit = %v, want 400 (2/3 of the note)", june.CreditNotesAmount)
	}
	if july.CreditNotesAmount != 200 {
		t.Errorf("July credit = %v, want 200 (1/3 of the note)", july.CreditNotesAmount)
	}
	if june.EffectiveInvoiced != 3600 {
		t.Errorf("June effective = %v, want 3600", june.EffectiveInvoiced)
	}
	if len(june.CreditNotes) != 1 || june.CreditNotes[0].LinkedInvoice != "INV-1" {
		t.Errorf("June applied credits = %+v", june.CreditNotes)
	}
}

func TestReconcileStandaloneCreditByIssueMonth(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(2500)},
		[]billing.Allocation{alloc("INV-1", 2500, 2500, billing.InvoiceStatusPaid)},
		[]billing.Payment{{PaymentID: "P-1", InvoiceID: "INV-1", Amount: 2500}},
		[]billing.CreditNote{{CreditNoteID: "CN-2", CustomerID: "C-1", Amount: 1500, IssueDate: "2025-06-15"}},
		reconcileEntities(),
	)
	r := out.Results[0]
	if r.CreditNotesAmount != 1500 {
		t.Fatalf("credit = %v, want 1500", r.CreditNotesAmount)
	}
	if r.EffectiveInvoiced != 1000 || r.Status != StatusUnderBilled {
		t.Errorf("effective = %v, status = %s", r.EffectiveInvoiced, r.Status)
	}
	if len(r.CreditNotes) != 1 || r.CreditNotes[0].LinkedInvoice != "" {
		t.Errorf("applied credits = %+v", r.CreditNotes)
	}
}

func TestReconcileStandaloneCreditNeedsInvoicedAmount(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(2500)},
		nil, nil,
		[]billing.CreditNote{{CreditNoteID: "CN-3", CustomerID: "C-1", Amount: 800, IssueDate: "2025-06-15"}},
		reconcileEntities(),
	)
	r := out.Results[0]
	if r.CreditNotesAmount != 0 || r.Status != StatusMissingInvoice {
		t.Errorf("credit = %v, status = %s: credits must not invent invoiced amounts", r.CreditNotesAmount, r.Status)
	}
	if len(out.Exclusions) != 1 || out.Exclusions[0].ReasonCode != exclusion.ReasonCreditNoteUnallocated {
		t.Fatalf("exclusions = %+v", out.Exclusions)
	}
}

func TestReconcileCreditForUnmatchedCustomerExcluded(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(2500)},
		[]billing.Allocation{alloc("INV-1", 2500, 2500, billing.InvoiceStatusPaid)},
		[]billing.Payment{{PaymentID: "P-1", InvoiceID: "INV-1", Amount: 2500}},
		[]billing.CreditNote{{CreditNoteID: "CN-4", CustomerID: "C-stranger", Amount: 300, IssueDate: "2025-06-15"}},
		reconcileEntities(),
	)
	if len(out.Exclusions) != 1 {
		t.Fatalf("exclusions = %d, want 1", len(out.Exclusions))
	}
	if out.Exclusions[0].RecordID != "CN-4" {
		t.Errorf("excluded record = %s", out.Exclusions[0].RecordID)
	}
	if out.Results[0].CreditNotesAmount != 0 {
		t.Errorf("credit leaked into the slice: %v", out.Results[0].CreditNotesAmount)
	}
}

func TestReconcileStandaloneCreditBadDateDropped(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(2500)},
		[]billing.Allocation{alloc("INV-1", 2500, 2500, billing.InvoiceStatusPaid)},
		[]billing.Payment{{PaymentID: "P-1", InvoiceID: "INV-1", Amount: 2500}},
		[]billing.CreditNote{{CreditNoteID: "CN-5", CustomerID: "C-1", Amount: 300, IssueDate: "mid June"}},
		reconcileEntities(),
	)
	if len(out.Exclusions) != 0 || out.Results[0].CreditNotesAmount != 0 {
		t.Errorf("unparseable issue date should drop the note silently: excl=%d credit=%v",
			len(out.Exclusions), out.Results[0].CreditNotesAmount)
	}
}

func TestReconcileZeroAmountInvoiceCreditInFull(t *testing.T) {
	out := Reconcile(
		[]revenue.ExpectationSlice{reconcileSlice(0)},
		[]billing.Allocation{alloc("INV-zero", 0, 0, billing.InvoiceStatusPaid)},
		nil,
		[]billing.CreditNote{{CreditNoteID: "CN-6", CustomerID: "C-1", InvoiceID: "INV-zero", Amount: 250, IssueDate: "2025-06-15"}},
		reconcileEntities(),
	)
	r := out.Results[0]
	if r.CreditNotesAmount != 250 {
		t.Errorf("zero-amount invoice should take the linked credit in full, got %v", r.CreditNotesAmount)
	}
}

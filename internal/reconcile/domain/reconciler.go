package reconcile

import (
	"fmt"
	"math"

	billing "revstrux/internal/billing/domain"
	"revstrux/internal/exclusion"
	identity "revstrux/internal/identity/domain"
	"revstrux/internal/money"
	revenue "revstrux/internal/revenue/domain"
)

// ReconcileResult carries one verdict per slice plus exclusions for
// credit notes that could not be attached anywhere.
type ReconcileResult struct {
	Results    []Result              `json:"results"`
	Exclusions []exclusion.Exclusion `json:"exclusions"`
}

// Reconcile combines allocations, payments and credit notes per slice
// into a single variance verdict.
//
// Invoice-linked credit notes are spread across that invoice's
// allocations in proportion to each allocation's share of the invoice
// total. Standalone notes attach to the slice matching the customer's
// entity and the issue month, but only when that slice already has
// invoiced amount > 0 — credits cannot create phantom invoiced amounts.
func Reconcile(
	slices []revenue.ExpectationSlice,
	allocations []billing.Allocation,
	payments []billing.Payment,
	creditNotes []billing.CreditNote,
	entities []identity.Entity,
) ReconcileResult {
	var out ReconcileResult

	paymentsByInvoice := make(map[string]float64)
	for _, p := range payments {
		paymentsByInvoice[p.InvoiceID] += p.Amount
	}

	byCustomer := identity.EntitiesByCustomer(entities)
	linkedNotes := make(map[string][]billing.CreditNote)
	standaloneNotes := make(map[string][]billing.CreditNote)
	for _, cn := range creditNotes {
		if cn.InvoiceID != "" {
			linkedNotes[cn.InvoiceID] = append(linkedNotes[cn.InvoiceID], cn)
			continue
		}
		issued, ok := revenue.ParseDate(cn.IssueDate)
		if !ok {
			continue
		}
		entity, ok := byCustomer[cn.CustomerID]
		if !ok {
			out.Exclusions = append(out.Exclusions, exclusion.New(
				exclusion.RecordCreditNote, cn.CreditNoteID,
				exclusion.ReasonCreditNoteUnallocated,
				fmt.Sprintf("Credit note for unmatched customer %s.", cn.CustomerID),
			))
			continue
		}
		key := entity.RSXID + "|" + revenue.MonthOf(issued).String()
		standaloneNotes[key] = append(standaloneNotes[key], cn)
	}

	allocsBySlice := make(map[string][]billing.Allocation)
	for _, a := range allocations {
		key := revenue.SliceKey(a.RSXID, a.SubID, a.Period)
		allocsBySlice[key] = append(allocsBySlice[key], a)
	}

	for _, slice := range slices {
		sliceAllocs := allocsBySlice[revenue.SliceKey(slice.RSXID, slice.SubID, slice.Period)]

		invoiced := 0.0
		for _, a := range sliceAllocs {
			invoiced += a.AllocatedAmount
		}
		invoiced = money.Round2(invoiced)

		creditTotal := 0.0
		var applied []AppliedCredit
		for _, a := range sliceAllocs {
			for _, cn := range linkedNotes[a.InvoiceID] {
				proportion := 1.0
				if a.InvoiceAmount > 0 {
					proportion = a.AllocatedAmount / a.InvoiceAmount
				}
				portion := money.Round2(cn.Amount * proportion)
				creditTotal += portion
				applied = append(applied, AppliedCredit{
					CreditNoteID:  cn.CreditNoteID,
					Amount:        portion,
					Reason:        cn.Reason,
					IssueDate:     cn.IssueDate,
					LinkedInvoice: a.InvoiceID,
				})
			}
		}

		for _, cn := range standaloneNotes[slice.RSXID+"|"+slice.Period] {
			if invoiced > 0 {
				creditTotal += cn.Amount
				applied = append(applied, AppliedCredit{
					CreditNoteID: cn.CreditNoteID,
					Amount:       cn.Amount,
					Reason:       cn.Reason,
					IssueDate:    cn.IssueDate,
				})
			} else {
				out.Exclusions = append(out.Exclusions, exclusion.New(
					exclusion.RecordCreditNote, cn.CreditNoteID,
					exclusion.ReasonCreditNoteUnallocated,
					fmt.Sprintf("No invoice for customer in %s.", slice.Period),
				))
			}
		}

		collected := 0.0
		for _, a := range sliceAllocs {
			if a.InvoiceAmount <= 0 {
				continue
			}
			paid := paymentsByInvoice[a.InvoiceID]
			collected += money.Round2(paid * a.AllocatedAmount / a.InvoiceAmount)
		}

		effective := money.Round2(invoiced - creditTotal)
		variance := money.Round2(effective - slice.ExpectedAmount)

		status := StatusClean
		switch {
		case invoiced == 0 && len(sliceAllocs) == 0:
			status = StatusMissingInvoice
		case math.Abs(variance) <= Tolerance:
			status = StatusClean
		case variance < -Tolerance:
			status = StatusUnderBilled
		case variance > Tolerance:
			status = StatusOverBilled
		}

		hasUnpaid := false
		if invoiced > 0 && collected < invoiced*0.99 {
			hasUnpaid = true
			if status == StatusClean && anyUnpaid(sliceAllocs) {
				status = StatusUnpaidAR
			}
		}

		refs := make([]InvoiceRef, 0, len(sliceAllocs))
		for _, a := range sliceAllocs {
			refs = append(refs, InvoiceRef{
				InvoiceID:       a.InvoiceID,
				AllocatedAmount: a.AllocatedAmount,
				InvoiceAmount:   a.InvoiceAmount,
				InvoiceDate:     a.InvoiceDate,
				InvoiceStatus:   a.InvoiceStatus,
				OverlapDays:     a.OverlapDays,
			})
		}

		out.Results = append(out.Results, Result{
			RSXID:             slice.RSXID,
			SubID:             slice.SubID,
			Period:            slice.Period,
			ExpectedAmount:    slice.ExpectedAmount,
			InvoicedAmount:    invoiced,
			CreditNotesAmount: money.Round2(creditTotal),
			EffectiveInvoiced: effective,
			CollectedAmount:   money.Round2(collected),
			Variance:          variance,
			AbsVariance:       math.Abs(variance),
			Status:            status,
			HasUnpaidAR:       hasUnpaid,
			IsProrated:        slice.IsProrated,
			MRR:               slice.MRR,
			DaysActive:        slice.DaysActive,
			TotalDays:         slice.TotalDays,
			Currency:          slice.Currency,
			Invoices:          refs,
			CreditNotes:       applied,
		})
	}
	return out
}

func anyUnpaid(allocs []billing.Allocation) bool {
	for _, a := range allocs {
		if a.InvoiceStatus == billing.InvoiceStatusUnpaid {
			return true
		}
	}
	return false
}

package billing

import (
	"fmt"
	"time"

	"revstrux/internal/exclusion"
	identity "revstrux/internal/identity/domain"
	"revstrux/internal/money"
	revenue "revstrux/internal/revenue/domain"
)

// Allocation is the portion of one invoice assigned to one expectation
// slice via day overlap. One invoice may produce several allocations and
// one slice may receive several.
type Allocation struct {
	InvoiceID       string  `json:"invoice_id"`
	RSXID           string  `json:"rsx_id"`
	SubID           string  `json:"sub_id"`
	Period          string  `json:"period"`
	AllocatedAmount float64 `json:"allocated_amount"`
	OverlapDays     int     `json:"overlap_days"`
	TotalInvDays    int     `json:"total_inv_days"`
	InvoiceAmount   float64 `json:"invoice_amount"`
	InvoiceDate     string  `json:"invoice_date"`
	InvoiceStatus   string  `json:"invoice_status"`
	Currency        string  `json:"currency"`
}

// AllocationResult carries allocations plus advisory exclusions.
type AllocationResult struct {
	Allocations []Allocation          `json:"allocations"`
	Exclusions  []exclusion.Exclusion `json:"exclusions"`
}

// AllocateInvoices apportions each invoice's amount across the slices it
// overlaps in time, day-weighted across all overlapping months. Void
// invoices and invoices for customers without a resolved entity are
// ignored. A sub-less invoice landing in a period where its entity has
// more than one slice gets an ALLOCATION_AMBIGUOUS exclusion; the
// allocation itself still proceeds.
func AllocateInvoices(invoices []Invoice, slices []revenue.ExpectationSlice, entities []identity.Entity) AllocationResult {
	byCustomer := identity.EntitiesByCustomer(entities)
	slicesByRSX := make(map[string][]revenue.ExpectationSlice)
	for _, s := range slices {
		slicesByRSX[s.RSXID] = append(slicesByRSX[s.RSXID], s)
	}

	var result AllocationResult
	for _, inv := range invoices {
		if inv.Status == InvoiceStatusVoid {
			continue
		}
		entity, ok := byCustomer[inv.CustomerID]
		if !ok {
			continue
		}
		invStart, okStart := revenue.ParseDate(inv.PeriodStart)
		invEnd, okEnd := revenue.ParseDate(inv.PeriodEnd)
		if !okStart || !okEnd {
			continue
		}
		totalInvDays := revenue.DaysInclusive(invStart, invEnd)
		if totalInvDays <= 0 {
			continue
		}

		entitySlices := slicesByRSX[entity.RSXID]
		targetSlices := entitySlices
		if subID := inv.SubID; subID != "" {
			var filtered []revenue.ExpectationSlice
			for _, s := range entitySlices {
				if s.SubID == subID {
					filtered = append(filtered, s)
				}
			}
			if len(filtered) > 0 {
				targetSlices = filtered
			}
		}

		var matchedPeriods []string
		for _, slice := range targetSlices {
			overlap := overlapDays(invStart, invEnd, slice.Period)
			if overlap < 1 {
				continue
			}
			result.Allocations = append(result.Allocations, Allocation{
				InvoiceID:       inv.InvoiceID,
				RSXID:           entity.RSXID,
				SubID:           slice.SubID,
				Period:          slice.Period,
				AllocatedAmount: money.Round2(inv.Amount * float64(overlap) / float64(totalInvDays)),
				OverlapDays:     overlap,
				TotalInvDays:    totalInvDays,
				InvoiceAmount:   inv.Amount,
				InvoiceDate:     inv.InvoiceDate,
				InvoiceStatus:   inv.Status,
				Currency:        inv.Currency,
			})
			matchedPeriods = append(matchedPeriods, slice.Period)
		}

		if inv.SubID == "" && len(matchedPeriods) > 0 {
			if period, ambiguous := ambiguousPeriod(matchedPeriods, entitySlices); ambiguous {
				result.Exclusions = append(result.Exclusions, exclusion.New(
					exclusion.RecordInvoice, inv.InvoiceID,
					exclusion.ReasonAllocationAmbiguous,
					fmt.Sprintf("Invoice %s has no sub_id and multiple slices exist for %s.", inv.InvoiceID, period),
				))
			}
		}
	}
	return result
}

// overlapDays returns the inclusive day overlap between the invoice
// period and the slice's calendar month, or 0 when disjoint.
func overlapDays(invStart, invEnd time.Time, period string) int {
	month, err := revenue.ParseMonth(period)
	if err != nil {
		return 0
	}
	start := maxDate(invStart, month.Start())
	end := minDate(invEnd, month.End())
	if start.After(end) {
		return 0
	}
	return revenue.DaysInclusive(start, end)
}

// ambiguousPeriod reports the first matched period in which the entity
// has more than one slice. One advisory exclusion per invoice is enough.
func ambiguousPeriod(matched []string, entitySlices []revenue.ExpectationSlice) (string, bool) {
	countByPeriod := make(map[string]int)
	for _, s := range entitySlices {
		countByPeriod[s.Period]++
	}
	seen := make(map[string]bool)
	for _, p := range matched {
		if seen[p] {
			continue
		}
		seen[p] = true
		if countByPeriod[p] > 1 {
			return p, true
		}
	}
	return "", false
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

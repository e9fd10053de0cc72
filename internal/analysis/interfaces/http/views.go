package http

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"revstrux/internal/analysis/application"
	"revstrux/internal/analysis/interfaces"
	"revstrux/internal/exclusion"
	identity "revstrux/internal/identity/domain"
	"revstrux/internal/money"
	"revstrux/internal/observability/metrics"
	reconcile "revstrux/internal/reconcile/domain"
	scoring "revstrux/internal/scoring/domain"
	session "revstrux/internal/session/domain"
)

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	var score scoring.Score
	if err := h.service.Dataset(ctx, sessionID, session.DataScore, &score); err != nil {
		respondSessionError(w, err)
		return
	}
	sess, err := h.service.Get(ctx, sessionID)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	var exclusions []exclusion.Exclusion
	if err := h.service.Dataset(ctx, sessionID, session.DataExclusions, &exclusions); err != nil {
		respondSessionError(w, err)
		return
	}
	var accounts []application.AccountSummary
	if err := h.service.Dataset(ctx, sessionID, session.DataAccountsSummary, &accounts); err != nil {
		respondSessionError(w, err)
		return
	}

	var findings []application.AccountSummary
	for _, a := range accounts {
		if a.PrimaryVarianceType != reconcile.StatusClean && a.PrimaryVarianceType != application.VarianceUnknown {
			findings = append(findings, a)
		}
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return absVariance(findings[i]) > absVariance(findings[j])
	})
	if len(findings) > 5 {
		findings = findings[:5]
	}

	ambiguous := 0
	for _, e := range exclusions {
		if e.ReasonCode == exclusion.ReasonAllocationAmbiguous {
			ambiguous++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"score":                 score,
		"top_findings":          findings,
		"total_exclusions":      len(exclusions),
		"ambiguous_allocations": ambiguous,
		"settings":              sess.Settings,
		"created_at":            sess.CreatedAt,
		"completed_at":          sess.CompletedAt,
	})
}

func (h *Handler) handleAccounts(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	accounts, err := h.filteredAccounts(r, sessionID)
	if err != nil {
		respondSessionError(w, err)
		return
	}

	q := r.URL.Query()
	if sortBy := q.Get("sort_by"); sortBy != "" {
		desc := q.Get("sort_dir") != "asc"
		sortAccounts(accounts, sortBy, desc)
	}

	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts, "total": len(accounts)})
}

func (h *Handler) filteredAccounts(r *http.Request, sessionID string) ([]application.AccountSummary, error) {
	var accounts []application.AccountSummary
	if err := h.service.Dataset(r.Context(), sessionID, session.DataAccountsSummary, &accounts); err != nil {
		return nil, err
	}
	q := r.URL.Query()

	if vt := q.Get("variance_type"); vt != "" {
		types := map[string]bool{}
		for _, t := range strings.Split(vt, ",") {
			types[t] = true
		}
		accounts = filterAccounts(accounts, func(a application.AccountSummary) bool {
			return types[a.PrimaryVarianceType]
		})
	}
	if mt := q.Get("match_type"); mt != "" {
		accounts = filterAccounts(accounts, func(a application.AccountSummary) bool {
			return a.MatchType == mt
		})
	}
	if search := strings.ToLower(q.Get("search")); search != "" {
		accounts = filterAccounts(accounts, func(a application.AccountSummary) bool {
			return strings.Contains(strings.ToLower(a.AccountName), search) ||
				strings.Contains(strings.ToLower(a.RSXID), search)
		})
	}

	switch q.Get("component_filter") {
	case "entity_match":
		accounts = filterAccounts(accounts, func(a application.AccountSummary) bool {
			return a.MatchType == identity.MatchTypeFuzzyConfirmed ||
				a.MatchType == identity.MatchTypeFuzzy || a.MatchType == "unmatched"
		})
	case "billing_coverage":
		accounts = filterAccounts(accounts, func(a application.AccountSummary) bool {
			return a.PrimaryVarianceType == reconcile.StatusMissingInvoice
		})
	case "variance":
		accounts = filterAccounts(accounts, func(a application.AccountSummary) bool {
			return a.PrimaryVarianceType != reconcile.StatusClean &&
				a.PrimaryVarianceType != application.VarianceUnknown
		})
	case "lineage":
		accounts = filterAccounts(accounts, func(a application.AccountSummary) bool {
			return a.LineageStatus != application.LineageComplete
		})
	}
	return accounts, nil
}

// subscriptionLineage groups one subscription's reconciled segments with
// rollup totals.
type subscriptionLineage struct {
	Segments         []reconcile.Result `json:"segments"`
	TotalExpected    float64            `json:"total_expected"`
	TotalInvoiced    float64            `json:"total_invoiced"`
	TotalCreditNotes float64            `json:"total_credit_notes"`
	TotalCollected   float64            `json:"total_collected"`
	TotalVariance    float64            `json:"total_variance"`
}

func (h *Handler) handleLineage(w http.ResponseWriter, r *http.Request, sessionID, rsxID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	var results []reconcile.Result
	if err := h.service.Dataset(ctx, sessionID, session.DataReconciliation, &results); err != nil {
		respondSessionError(w, err)
		return
	}
	var entities []identity.Entity
	if err := h.service.Dataset(ctx, sessionID, session.DataEntities, &entities); err != nil {
		respondSessionError(w, err)
		return
	}
	var entity *identity.Entity
	for i := range entities {
		if entities[i].RSXID == rsxID {
			entity = &entities[i]
			break
		}
	}
	if entity == nil {
		writeError(w, http.StatusNotFound, "Entity not found")
		return
	}

	var segments []reconcile.Result
	for _, res := range results {
		if res.RSXID == rsxID {
			segments = append(segments, res)
		}
	}

	subIDs := make([]string, 0)
	seen := make(map[string]bool)
	for _, seg := range segments {
		if !seen[seg.SubID] {
			seen[seg.SubID] = true
			subIDs = append(subIDs, seg.SubID)
		}
	}

	subData := make(map[string]subscriptionLineage, len(subIDs))
	for _, subID := range subIDs {
		var segs []reconcile.Result
		for _, seg := range segments {
			if seg.SubID == subID {
				segs = append(segs, seg)
			}
		}
		sort.SliceStable(segs, func(i, j int) bool { return segs[i].Period < segs[j].Period })
		lineage := subscriptionLineage{Segments: segs}
		for _, seg := range segs {
			lineage.TotalExpected += seg.ExpectedAmount
			lineage.TotalInvoiced += seg.InvoicedAmount
			lineage.TotalCreditNotes += seg.CreditNotesAmount
			lineage.TotalCollected += seg.CollectedAmount
			lineage.TotalVariance += seg.Variance
		}
		lineage.TotalExpected = money.Round2(lineage.TotalExpected)
		lineage.TotalInvoiced = money.Round2(lineage.TotalInvoiced)
		lineage.TotalCreditNotes = money.Round2(lineage.TotalCreditNotes)
		lineage.TotalCollected = money.Round2(lineage.TotalCollected)
		lineage.TotalVariance = money.Round2(lineage.TotalVariance)
		subData[subID] = lineage
	}

	var totalExpected, totalInvoiced, totalVariance float64
	for _, seg := range segments {
		totalExpected += seg.ExpectedAmount
		totalInvoiced += seg.InvoicedAmount
		totalVariance += seg.Variance
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity":            entity,
		"subscriptions":     subIDs,
		"subscription_data": subData,
		"total_expected":    money.Round2(totalExpected),
		"total_invoiced":    money.Round2(totalInvoiced),
		"total_variance":    money.Round2(totalVariance),
	})
}

func (h *Handler) handleExclusions(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var exclusions []exclusion.Exclusion
	if err := h.service.Dataset(r.Context(), sessionID, session.DataExclusions, &exclusions); err != nil {
		respondSessionError(w, err)
		return
	}

	summary := make(map[string]int)
	for _, e := range exclusions {
		summary[e.ReasonCode]++
	}

	filtered := exclusions
	if rc := r.URL.Query().Get("reason_code"); rc != "" {
		filtered = nil
		for _, e := range exclusions {
			if e.ReasonCode == rc {
				filtered = append(filtered, e)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"exclusions": filtered,
		"total":      len(filtered),
		"summary":    summary,
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, sessionID string, tail []string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	started := time.Now()
	date := time.Now().Format("2006-01-02")

	switch {
	case tail[0] == "accounts" && len(tail) == 1:
		accounts, err := h.filteredAccounts(r, sessionID)
		if err != nil {
			metrics.ObserveExport("csv", metrics.ResultError, time.Since(started))
			respondSessionError(w, err)
			return
		}
		metrics.ObserveExport("csv", metrics.ResultSuccess, time.Since(started))
		serveCSV(w, "RevStrux_Accounts_"+date+".csv", interfaces.AccountsCSV(accounts))

	case tail[0] == "lineage" && len(tail) == 2:
		rsxID := tail[1]
		var results []reconcile.Result
		if err := h.service.Dataset(ctx, sessionID, session.DataReconciliation, &results); err != nil {
			metrics.ObserveExport("csv", metrics.ResultError, time.Since(started))
			respondSessionError(w, err)
			return
		}
		var segments []reconcile.Result
		for _, res := range results {
			if res.RSXID == rsxID {
				segments = append(segments, res)
			}
		}
		metrics.ObserveExport("csv", metrics.ResultSuccess, time.Since(started))
		serveCSV(w, "RevStrux_Lineage_"+rsxID+"_"+date+".csv", interfaces.LineageCSV(segments))

	case tail[0] == "exclusions" && len(tail) == 1:
		var exclusions []exclusion.Exclusion
		if err := h.service.Dataset(ctx, sessionID, session.DataExclusions, &exclusions); err != nil {
			metrics.ObserveExport("csv", metrics.ResultError, time.Since(started))
			respondSessionError(w, err)
			return
		}
		metrics.ObserveExport("csv", metrics.ResultSuccess, time.Since(started))
		serveCSV(w, "RevStrux_Exclusions_"+sessionID+"_"+date+".csv", interfaces.ExclusionsCSV(exclusions, sessionID))

	case tail[0] == "report" && len(tail) == 1:
		score, sess, err := h.reportInputs(r, sessionID)
		if err != nil {
			metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
			respondSessionError(w, err)
			return
		}
		content, err := interfaces.BuildIntegrityPDF(score, sess.Settings, time.Now())
		if err != nil {
			metrics.ObserveExport("pdf", metrics.ResultError, time.Since(started))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		metrics.ObserveExport("pdf", metrics.ResultSuccess, time.Since(started))
		servePDF(w, "RevStrux_Report_"+date+".pdf", content)

	case tail[0] == "report.xlsx" && len(tail) == 1:
		score, sess, err := h.reportInputs(r, sessionID)
		if err != nil {
			metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
			respondSessionError(w, err)
			return
		}
		var accounts []application.AccountSummary
		if err := h.service.Dataset(ctx, sessionID, session.DataAccountsSummary, &accounts); err != nil {
			metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
			respondSessionError(w, err)
			return
		}
		content, err := interfaces.BuildIntegrityXLSX(score, sess.Settings, accounts)
		if err != nil {
			metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(started))
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(started))
		serveXLSX(w, "RevStrux_Report_"+date+".xlsx", content)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) reportInputs(r *http.Request, sessionID string) (scoring.Score, *session.Session, error) {
	var score scoring.Score
	if err := h.service.Dataset(r.Context(), sessionID, session.DataScore, &score); err != nil {
		return scoring.Score{}, nil, err
	}
	sess, err := h.service.Get(r.Context(), sessionID)
	if err != nil {
		return scoring.Score{}, nil, err
	}
	return score, sess, nil
}

func filterAccounts(accounts []application.AccountSummary, keep func(application.AccountSummary) bool) []application.AccountSummary {
	out := accounts[:0:0]
	for _, a := range accounts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func absVariance(a application.AccountSummary) float64 {
	if a.TotalVariance < 0 {
		return -a.TotalVariance
	}
	return a.TotalVariance
}

func sortAccounts(accounts []application.AccountSummary, field string, desc bool) {
	numeric := func(a application.AccountSummary) (float64, bool) {
		switch field {
		case "subscriptions":
			return float64(a.Subscriptions), true
		case "periods":
			return float64(a.Periods), true
		case "expected_total":
			return a.ExpectedTotal, true
		case "invoiced_total":
			return a.InvoicedTotal, true
		case "credit_notes_total":
			return a.CreditNotesTotal, true
		case "total_variance":
			return a.TotalVariance, true
		case "confidence":
			return a.Confidence, true
		}
		return 0, false
	}
	textual := func(a application.AccountSummary) string {
		switch field {
		case "rsx_id":
			return a.RSXID
		case "account_name":
			return a.AccountName
		case "match_type":
			return a.MatchType
		case "primary_variance_type":
			return a.PrimaryVarianceType
		case "lineage_status":
			return a.LineageStatus
		case "currency":
			return a.Currency
		}
		return ""
	}
	sort.SliceStable(accounts, func(i, j int) bool {
		vi, numOK := numeric(accounts[i])
		if numOK {
			vj, _ := numeric(accounts[j])
			if desc {
				return vi > vj
			}
			return vi < vj
		}
		si, sj := textual(accounts[i]), textual(accounts[j])
		if desc {
			return si > sj
		}
		return si < sj
	})
}

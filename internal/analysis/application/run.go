package application

import (
	"context"
	"errors"
	"fmt"

	billing "revstrux/internal/billing/domain"
	"revstrux/internal/exclusion"
	identity "revstrux/internal/identity/domain"
	"revstrux/internal/ingest"
	reconcile "revstrux/internal/reconcile/domain"
	revenue "revstrux/internal/revenue/domain"
	scoring "revstrux/internal/scoring/domain"
	session "revstrux/internal/session/domain"
)

// Pipeline step names, in execution order.
const (
	StepIngestion      = "ingestion"
	StepIdentity       = "identity"
	StepLifecycle      = "lifecycle"
	StepReconciliation = "reconciliation"
	StepScoring        = "scoring"
)

// ErrIdentityNotRun is returned when an analysis starts before identity
// matching has produced a result.
var ErrIdentityNotRun = errors.New("analysis: identity matching has not run")

// Start moves the session into the processing state. The caller is
// expected to invoke Run afterwards, typically on its own goroutine.
func (s *Service) Start(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.IdentityResult == nil {
		return ErrIdentityNotRun
	}
	sess.BeginProcessing(StepIngestion)
	return s.sessions.Update(ctx, sess)
}

// Run executes the full pipeline for one session. Failures mark the
// session errored; the step log records progress as each stage finishes.
func (s *Service) Run(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.run(ctx, sess); err != nil {
		s.logger.Printf("analysis failed: session=%s err=%v", sessionID, err)
		sess.Fail(err.Error())
		if uerr := s.sessions.Update(ctx, sess); uerr != nil {
			s.logger.Printf("failed to record analysis error: session=%s err=%v", sessionID, uerr)
		}
		return err
	}
	return nil
}

func (s *Service) run(ctx context.Context, sess *session.Session) error {
	step := func(name, state, message string) error {
		sess.LogStep(name, state, message)
		return s.sessions.Update(ctx, sess)
	}

	if err := step(StepIngestion, session.StepRunning, "Loading validated data..."); err != nil {
		return err
	}
	raws := make(map[string][]ingest.Row, len(ingest.FileTypes))
	for _, ft := range ingest.FileTypes {
		rows, err := s.loadRows(ctx, sess.SessionID, session.Raw(ft))
		if err != nil {
			return err
		}
		raws[ft] = rows
	}
	subs := ingest.DecodeSubscriptions(raws[ingest.TypeSubscriptions])
	invoices := ingest.DecodeInvoices(raws[ingest.TypeInvoices])
	payments := ingest.DecodePayments(raws[ingest.TypePayments])
	creditNotes := ingest.DecodeCreditNotes(raws[ingest.TypeCreditNotes])
	if err := step(StepIngestion, session.StepComplete, fmt.Sprintf(
		"Loaded %d accounts, %d subscriptions, %d invoices",
		len(raws[ingest.TypeAccounts]), len(subs), len(invoices))); err != nil {
		return err
	}

	if err := step(StepIdentity, session.StepRunning, "Building identity spine..."); err != nil {
		return err
	}
	if sess.IdentityResult == nil {
		return ErrIdentityNotRun
	}
	decisions := make([]identity.Decision, 0, len(sess.Decisions))
	for _, d := range sess.Decisions {
		decisions = append(decisions, identity.Decision{MatchID: d.MatchID, Decision: d.Decision})
	}
	entities := identity.BuildEntities(*sess.IdentityResult, decisions)
	if err := s.data.Set(ctx, sess.SessionID, session.DataEntities, entities); err != nil {
		return err
	}
	if err := step(StepIdentity, session.StepComplete, fmt.Sprintf("%d RSX entities created", len(entities))); err != nil {
		return err
	}

	if err := step(StepLifecycle, session.StepRunning, "Generating revenue segments..."); err != nil {
		return err
	}
	periodStart, err := revenue.ParseMonth(sess.Settings.PeriodStart)
	if err != nil {
		return fmt.Errorf("analysis: period_start: %w", err)
	}
	periodEnd, err := revenue.ParseMonth(sess.Settings.PeriodEnd)
	if err != nil {
		return fmt.Errorf("analysis: period_end: %w", err)
	}
	model := revenue.ModelExpectations(subs, entities, periodStart, periodEnd)
	allExclusions := model.Exclusions
	if err := s.data.Set(ctx, sess.SessionID, session.DataSlices, model.Slices); err != nil {
		return err
	}
	if err := step(StepLifecycle, session.StepComplete, fmt.Sprintf(
		"%d revenue segments generated, %d excluded", len(model.Slices), len(allExclusions))); err != nil {
		return err
	}

	if err := step(StepReconciliation, session.StepRunning, "Matching invoices and reconciling..."); err != nil {
		return err
	}
	allocated := billing.AllocateInvoices(invoices, model.Slices, entities)
	allExclusions = append(allExclusions, allocated.Exclusions...)
	reconciled := reconcile.Reconcile(model.Slices, allocated.Allocations, payments, creditNotes, entities)
	allExclusions = append(allExclusions, reconciled.Exclusions...)
	if err := s.data.Set(ctx, sess.SessionID, session.DataReconciliation, reconciled.Results); err != nil {
		return err
	}
	if err := s.data.Set(ctx, sess.SessionID, session.DataExclusions, allExclusions); err != nil {
		return err
	}
	if err := step(StepReconciliation, session.StepComplete, fmt.Sprintf(
		"%d segments reconciled, %d total exclusions", len(reconciled.Results), len(allExclusions))); err != nil {
		return err
	}

	if err := step(StepScoring, session.StepRunning, "Calculating structural integrity score..."); err != nil {
		return err
	}
	totalARR := 0.0
	for _, sub := range subs {
		totalARR += sub.MRR * 12
	}
	excludedIDs := make(map[string]bool)
	for _, ex := range allExclusions {
		if ex.RecordType == exclusion.RecordSubscription {
			excludedIDs[ex.RecordID] = true
		}
	}
	excludedARR := 0.0
	for _, sub := range subs {
		if excludedIDs[sub.SubID] {
			excludedARR += sub.MRR * 12
		}
	}
	score := scoring.Calculate(entities, *sess.IdentityResult, reconciled.Results,
		len(subs), totalARR, len(excludedIDs), excludedARR)
	if err := s.data.Set(ctx, sess.SessionID, session.DataScore, score); err != nil {
		return err
	}

	summaries := BuildAccountSummaries(entities, reconciled.Results,
		sess.IdentityResult.UnmatchedAccounts, sess.Settings.Currency)
	if err := s.data.Set(ctx, sess.SessionID, session.DataAccountsSummary, summaries); err != nil {
		return err
	}

	if err := step(StepScoring, session.StepComplete, fmt.Sprintf("Score: %d (%s)", score.Score, score.Band)); err != nil {
		return err
	}
	sess.Complete()
	return s.sessions.Update(ctx, sess)
}

package application

import (
	"context"

	identity "revstrux/internal/identity/domain"
	"revstrux/internal/ingest"
	session "revstrux/internal/session/domain"
)

// IdentitySummary is the headline count breakdown returned once
// validation passes and identity matching has run.
type IdentitySummary struct {
	AutoMatched        int `json:"auto_matched"`
	NeedsReview        int `json:"needs_review"`
	UnmatchedAccounts  int `json:"unmatched_accounts"`
	UnmatchedCustomers int `json:"unmatched_customers"`
}

// ValidationOutcome is the combined report across all uploaded datasets.
type ValidationOutcome struct {
	ingest.Report
	IdentitySummary *IdentitySummary `json:"identity_summary,omitempty"`
}

// Validate runs strict validation: every dataset except credit notes must
// be uploaded. On success identity matching runs immediately and the
// session moves to identity review.
func (s *Service) Validate(ctx context.Context, sessionID string) (ValidationOutcome, error) {
	return s.validate(ctx, sessionID, false)
}

// SmartValidate is the lenient variant used by the multi-file upload
// flow: credit notes and payments may be absent and only produce
// warnings.
func (s *Service) SmartValidate(ctx context.Context, sessionID string) (ValidationOutcome, error) {
	return s.validate(ctx, sessionID, true)
}

func (s *Service) validate(ctx context.Context, sessionID string, smart bool) (ValidationOutcome, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return ValidationOutcome{}, err
	}

	var report ingest.Report
	for _, ft := range ingest.FileTypes {
		if !sess.UploadStatus[ft].Uploaded {
			switch {
			case smart && (ft == ingest.TypeCreditNotes || ft == ingest.TypePayments):
				report.Warnings = append(report.Warnings, ingest.Issue{
					File:    ft,
					Message: ft + " not uploaded. Analysis will proceed without it.",
				})
			case smart:
				report.Errors = append(report.Errors, ingest.Issue{
					File:    ft,
					Message: ft + " is required but not uploaded.",
				})
			case ft == ingest.TypeCreditNotes:
				// Optional in the strict flow too, just silent.
			default:
				report.Errors = append(report.Errors, ingest.Issue{
					File:    ft,
					Message: ft + ".csv is required but not uploaded.",
				})
			}
			continue
		}
		rows, err := s.loadRows(ctx, sessionID, session.Raw(ft))
		if err != nil {
			return ValidationOutcome{}, err
		}
		r := ingest.Validate(ft, rows)
		report.Errors = append(report.Errors, r.Errors...)
		report.Warnings = append(report.Warnings, r.Warnings...)
	}
	report.Valid = len(report.Errors) == 0

	sess.ValidationResult = &report
	sess.Status = session.StatusCreated
	if report.Valid {
		sess.Status = session.StatusValidated
	}

	outcome := ValidationOutcome{Report: report}
	if report.Valid {
		accountRows, err := s.loadRows(ctx, sessionID, session.Raw(ingest.TypeAccounts))
		if err != nil {
			return ValidationOutcome{}, err
		}
		customerRows, err := s.loadRows(ctx, sessionID, session.Raw(ingest.TypeCustomers))
		if err != nil {
			return ValidationOutcome{}, err
		}
		resolved := identity.Resolve(ingest.DecodeAccounts(accountRows), ingest.DecodeCustomers(customerRows))
		sess.IdentityResult = &resolved
		sess.Status = session.StatusIdentityReview
		outcome.IdentitySummary = &IdentitySummary{
			AutoMatched:        len(resolved.AutoMatched),
			NeedsReview:        len(resolved.NeedsReview),
			UnmatchedAccounts:  len(resolved.UnmatchedAccounts),
			UnmatchedCustomers: len(resolved.UnmatchedCustomers),
		}
	}

	if err := s.sessions.Update(ctx, sess); err != nil {
		return ValidationOutcome{}, err
	}
	return outcome, nil
}

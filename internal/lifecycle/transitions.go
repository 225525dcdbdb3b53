package lifecycle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/callouthq/dispatch/internal/api/domain"
)

// apply performs one guarded transition: resolve the edge, write the
// new status conditioned on the status that was read, then record the
// timeline entry and emit the event. A lost conditional write returns
// ErrConcurrentModification and leaves the stored job untouched.
func (m *Machine) apply(ctx context.Context, job *domain.Job, action domain.Action, actor string, update JobUpdate, note string, loc *domain.LocationSample, eventType string) (*domain.Job, error) {
	next, err := domain.Next(job.Status, action)
	if err != nil {
		return nil, err
	}
	update.To = next

	applied, err := m.repo.ApplyTransition(ctx, job.ID, job.Status, update)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, domain.ErrConcurrentModification
	}

	now := m.now()
	entry := domain.TimelineEntry{
		JobID:     job.ID,
		Action:    action,
		From:      job.Status,
		To:        next,
		Actor:     actor,
		Note:      nullString(note),
		CreatedAt: now,
	}
	if loc != nil {
		entry.Latitude = sql.NullFloat64{Float64: loc.Latitude, Valid: true}
		entry.Longitude = sql.NullFloat64{Float64: loc.Longitude, Valid: true}
	}
	m.appendTimeline(ctx, entry)

	job.Status = next
	job.UpdatedAt = now
	m.publish(ctx, eventType, job, actor)

	m.logger.Info("Job transition applied",
		slog.Int64("job_id", job.ID),
		slog.String("action", string(action)),
		slog.String("from", string(entry.From)),
		slog.String("to", string(next)),
		slog.String("actor", actor),
	)

	return job, nil
}

// SupplierAccept locks the job to the accepting supplier. For routed
// jobs only the routed supplier may accept; for open jobs the first
// conditional write wins and every other supplier gets
// ErrAlreadyAccepted. Competitive accepts are never retried.
func (m *Machine) SupplierAccept(ctx context.Context, jobToken, supplierID string) (*domain.Job, error) {
	job, err := m.repo.JobByToken(ctx, jobToken)
	if err != nil {
		return nil, err
	}

	if job.SupplierID.Valid && job.SupplierID.String != supplierID {
		return nil, domain.ErrSupplierMismatch
	}

	acceptedAt := m.now()
	job, err = m.apply(ctx, job, domain.ActionSupplierAccept, "supplier:"+supplierID, JobUpdate{
		SupplierID: supplierID,
		AcceptedAt: &acceptedAt,
	}, "", nil, "job.supplier_accepted")

	if err == domain.ErrConcurrentModification {
		// Decide whether we lost an acceptance race or an unrelated
		// transition slipped in.
		current, readErr := m.repo.JobByToken(ctx, jobToken)
		if readErr == nil && current.SupplierID.Valid && current.SupplierID.String != supplierID {
			return nil, domain.ErrAlreadyAccepted
		}
		return nil, domain.ErrConcurrentModification
	}
	if err != nil {
		return nil, err
	}

	job.SupplierID = nullString(supplierID)
	job.AcceptedAt = sql.NullTime{Time: acceptedAt, Valid: true}
	return job, nil
}

// AssignEngineer records the engineer's contact details and hands the
// job to them. The engineer token minted at creation becomes their
// credential; it is reused across re-assignment, never regenerated.
func (m *Machine) AssignEngineer(ctx context.Context, jobToken, supplierID, name, email, phone string) (*domain.Job, error) {
	if name == "" || email == "" {
		return nil, fmt.Errorf("engineer name and email are required")
	}

	job, err := m.repo.JobByToken(ctx, jobToken)
	if err != nil {
		return nil, err
	}
	if !job.SupplierID.Valid || job.SupplierID.String != supplierID {
		return nil, domain.ErrSupplierMismatch
	}

	job, err = m.apply(ctx, job, domain.ActionAssignEngineer, "supplier:"+supplierID, JobUpdate{
		EngineerName:  name,
		EngineerEmail: email,
		EngineerPhone: phone,
	}, "engineer "+name+" assigned", nil, "job.sent_to_engineer")
	if err != nil {
		return nil, err
	}

	job.EngineerName = nullString(name)
	job.EngineerEmail = nullString(email)
	job.EngineerPhone = nullString(phone)
	return job, nil
}

// EngineerAccept is authorized purely by possession of the token.
func (m *Machine) EngineerAccept(ctx context.Context, engineerToken string) (*domain.Job, error) {
	job, err := m.JobByEngineerToken(ctx, engineerToken)
	if err != nil {
		return nil, err
	}

	actor := engineerActor(job)
	return m.apply(ctx, job, domain.ActionEngineerAccept, actor, JobUpdate{}, "", nil, "job.engineer_accepted")
}

// EngineerDecline returns the job to the supplier for re-assignment.
// An exhausted engineer pool is the supplier's problem to solve; the
// job is not auto-cancelled.
func (m *Machine) EngineerDecline(ctx context.Context, engineerToken, reason string) (*domain.Job, error) {
	job, err := m.JobByEngineerToken(ctx, engineerToken)
	if err != nil {
		return nil, err
	}

	actor := engineerActor(job)
	job, err = m.apply(ctx, job, domain.ActionEngineerDecline, actor, JobUpdate{
		ClearEngineer: true,
	}, reason, nil, "job.engineer_declined")
	if err != nil {
		return nil, err
	}

	job.EngineerName = sql.NullString{}
	job.EngineerEmail = sql.NullString{}
	job.EngineerPhone = sql.NullString{}
	return job, nil
}

// EngineerEnRoute marks the engineer as travelling. The optional
// location sample feeds live tracking only; it never touches pricing.
func (m *Machine) EngineerEnRoute(ctx context.Context, engineerToken string, loc *domain.LocationSample) (*domain.Job, error) {
	return m.engineerProgress(ctx, engineerToken, domain.ActionEnRoute, "job.en_route", loc)
}

// EngineerOnSite marks arrival at the site.
func (m *Machine) EngineerOnSite(ctx context.Context, engineerToken string, loc *domain.LocationSample) (*domain.Job, error) {
	return m.engineerProgress(ctx, engineerToken, domain.ActionOnSite, "job.on_site", loc)
}

func (m *Machine) engineerProgress(ctx context.Context, engineerToken string, action domain.Action, eventType string, loc *domain.LocationSample) (*domain.Job, error) {
	job, err := m.JobByEngineerToken(ctx, engineerToken)
	if err != nil {
		return nil, err
	}

	job, err = m.apply(ctx, job, action, engineerActor(job), JobUpdate{}, "", loc, eventType)
	if err != nil {
		return nil, err
	}

	if loc != nil {
		loc.JobID = job.ID
		if loc.RecordedAt.IsZero() {
			loc.RecordedAt = m.now()
		}
		// Location history is append-only advisory telemetry; racing
		// writers are last-writer-wins.
		if appendErr := m.repo.AppendLocation(ctx, *loc); appendErr != nil {
			m.logger.Warn("Failed to append location sample",
				slog.Int64("job_id", job.ID),
				slog.String("error", appendErr.Error()),
			)
		}
	}

	return job, nil
}

// Complete requires a valid site-visit report and permanently freezes
// the job's commercial facts.
func (m *Machine) Complete(ctx context.Context, engineerToken string, report domain.SiteReport) (*domain.Job, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}

	job, err := m.JobByEngineerToken(ctx, engineerToken)
	if err != nil {
		return nil, err
	}

	completedAt := m.now()
	job, err = m.apply(ctx, job, domain.ActionComplete, engineerActor(job), JobUpdate{
		CompletedAt: &completedAt,
	}, report.WorkSummary, nil, "job.completed")
	if err != nil {
		return nil, err
	}

	job.CompletedAt = sql.NullTime{Time: completedAt, Valid: true}
	return job, nil
}

// Cancel is an ordinary transition under the same conditional-write
// discipline; there is no side channel around the state machine. Lost
// writes are retried a bounded number of times against the fresh
// status before surfacing.
func (m *Machine) Cancel(ctx context.Context, jobToken, actor, reason string) (*domain.Job, error) {
	return m.terminate(ctx, jobToken, domain.ActionCancel, actor, reason, "job.cancelled")
}

// Decline is the supplier-side terminal rejection of a job.
func (m *Machine) Decline(ctx context.Context, jobToken, actor, reason string) (*domain.Job, error) {
	return m.terminate(ctx, jobToken, domain.ActionDecline, actor, reason, "job.declined")
}

func (m *Machine) terminate(ctx context.Context, jobToken string, action domain.Action, actor, reason string, eventType string) (*domain.Job, error) {
	if reason == "" {
		return nil, fmt.Errorf("a reason is required")
	}

	cancelledAt := m.now()
	update := JobUpdate{
		CancellationReason: reason,
		CancelledBy:        actor,
		CancelledAt:        &cancelledAt,
	}

	var lastErr error
	for attempt := 0; attempt < maxTransitionRetries; attempt++ {
		job, err := m.repo.JobByToken(ctx, jobToken)
		if err != nil {
			return nil, err
		}

		job, err = m.apply(ctx, job, action, actor, update, reason, nil, eventType)
		if err == domain.ErrConcurrentModification {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		job.CancellationReason = nullString(reason)
		job.CancelledBy = nullString(actor)
		job.CancelledAt = sql.NullTime{Time: cancelledAt, Valid: true}
		return job, nil
	}

	return nil, lastErr
}

func engineerActor(job *domain.Job) string {
	if job.EngineerName.Valid {
		return "engineer:" + job.EngineerName.String
	}
	return "engineer"
}

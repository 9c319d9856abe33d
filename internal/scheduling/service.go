package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/careslot/internal/config"
	redisclient "github.com/careslot/careslot/internal/redis"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentUpdated   = "APPOINTMENT_UPDATED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentNoShow    = "APPOINTMENT_NO_SHOW"
)

var (
	ErrPastAppointment     = errors.New("appointment must be scheduled for a future date and time")
	ErrNoAvailability      = errors.New("doctor is not available on this day of the week")
	ErrOutsideAvailability = errors.New("requested time is outside the doctor's available hours")
	ErrTimeSlotConflict    = errors.New("this time slot is already booked")
	ErrScheduleBusy        = errors.New("schedule is currently being updated, please retry")
	ErrNotAuthorized       = errors.New("not allowed to access this appointment")
	ErrNoUpdatableFields   = errors.New("no valid fields provided for update")
	ErrAppointmentFinal    = errors.New("appointment can no longer be modified")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrAlreadyCancelled    = errors.New("appointment is already cancelled")
)

// Caller is the authenticated identity on whose behalf an operation runs.
type Caller struct {
	UserID uuid.UUID
	Role   Role
}

type CreateInput struct {
	DoctorID uuid.UUID
	Date     time.Time
	Start    TimeOfDay
	Notes    *string
}

// Service orchestrates booking: it validates input, consults the doctor's
// weekly availability, runs the conflict check and mutates appointment
// state. All conflict-sensitive work for one (doctor, day) runs under the
// schedule lock so concurrent requests cannot double-book.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		log:    log,
	}
}

// Create books a new appointment for a patient. The availability lookup,
// conflict scan and insert happen inside the per-(doctor, day) lock; the
// partial unique index on occupying appointments is the backstop if two
// writers ever slip past it.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, in CreateInput) (*Appointment, error) {
	date := normalizeDate(in.Date)

	if !in.Start.At(date).After(time.Now()) {
		return nil, ErrPastAppointment
	}

	doctor, err := s.repo.GetBookableDoctor(ctx, in.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	start := in.Start
	end := start.Add(s.consultationLength(doctor.DurationMinutes))

	var created *Appointment

	err = s.locker.WithScheduleLock(ctx, doctor.ID, date, func(lockCtx context.Context) error {
		if err := s.checkSchedule(lockCtx, doctor.ID, date, start, end, uuid.Nil); err != nil {
			return err
		}

		appt, err := s.repo.CreateScheduled(lockCtx, Appointment{
			ID:        uuid.New(),
			PatientID: patientID,
			DoctorID:  doctor.ID,
			Date:      date,
			Start:     start,
			End:       end,
			Notes:     in.Notes,
		})
		if err != nil {
			if errors.Is(err, ErrDuplicateSlot) {
				return ErrTimeSlotConflict
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"doctor_id":  doctor.ID.String(),
			"patient_id": patientID.String(),
			"date":       date.Format("2006-01-02"),
			"start_time": start.String(),
			"end_time":   end.String(),
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	return created, nil
}

// Update applies a patch to an existing appointment. Patients may move or
// annotate their own bookings; the assigned doctor and admins may also
// change status. A status field from a patient, like an unrecognized
// status value, is dropped rather than rejected.
func (s *Service) Update(ctx context.Context, id uuid.UUID, caller Caller, patch UpdatePatch) (*Appointment, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := authorize(caller, detail); err != nil {
		return nil, err
	}

	if caller.Role == RolePatient {
		patch.Status = nil
	}
	if patch.Status != nil && !patch.Status.Known() {
		patch.Status = nil
	}

	if patch.Empty() {
		return nil, ErrNoUpdatableFields
	}

	if detail.Status.Terminal() && (patch.ChangesSchedule() || patch.Notes != nil) {
		return nil, ErrAppointmentFinal
	}

	rec := UpdateRecord{
		Date:   detail.Date,
		Start:  detail.Start,
		End:    detail.End,
		Status: detail.Status,
		Notes:  detail.Notes,
	}
	if patch.Date != nil {
		rec.Date = normalizeDate(*patch.Date)
	}
	if patch.Start != nil {
		rec.Start = *patch.Start
	}
	if patch.Notes != nil {
		rec.Notes = patch.Notes
	}
	if patch.Status != nil {
		if !CanTransition(detail.Status, *patch.Status) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, detail.Status, *patch.Status)
		}
		rec.Status = *patch.Status
	}

	if !patch.ChangesSchedule() {
		updated, err := s.repo.UpdateAppointment(ctx, id, rec)
		if err != nil {
			return nil, fmt.Errorf("update appointment: %w", err)
		}
		s.logUpdateEvent(ctx, updated, patch)
		return updated, nil
	}

	// The window moved: recompute the end from the specialty duration and
	// revalidate against availability and conflicts exactly as at creation.
	rec.End = rec.Start.Add(s.consultationLength(detail.DurationMinutes))

	var updated *Appointment

	err = s.locker.WithScheduleLock(ctx, detail.DoctorID, rec.Date, func(lockCtx context.Context) error {
		if err := s.checkSchedule(lockCtx, detail.DoctorID, rec.Date, rec.Start, rec.End, id); err != nil {
			return err
		}

		appt, err := s.repo.UpdateAppointment(lockCtx, id, rec)
		if err != nil {
			if errors.Is(err, ErrDuplicateSlot) {
				return ErrTimeSlotConflict
			}
			return fmt.Errorf("update appointment: %w", err)
		}

		updated = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	s.logUpdateEvent(ctx, updated, patch)
	return updated, nil
}

// Cancel moves an appointment to cancelled, preserving the row for
// history. Re-cancelling fails loudly rather than silently succeeding.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, caller Caller) (*Appointment, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := authorize(caller, detail); err != nil {
		return nil, err
	}

	if detail.Status == StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if detail.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, detail.Status, StatusCancelled)
	}

	cancelled, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusCancelled, StatusScheduled, StatusConfirmed)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The row changed under us between the read and the CAS.
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, detail.Status, StatusCancelled)
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, cancelled.ID, EventAppointmentCancelled, map[string]any{
		"cancelled_by": caller.UserID.String(),
		"role":         string(caller.Role),
	})

	return cancelled, nil
}

// Get returns a single appointment visible to the caller.
func (s *Service) Get(ctx context.Context, id uuid.UUID, caller Caller) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := authorize(caller, detail); err != nil {
		return nil, err
	}

	return detail, nil
}

// List returns the caller's slice of the calendar. Patients and admins
// see most recent first; doctors see their upcoming schedule first.
func (s *Service) List(ctx context.Context, caller Caller) ([]AppointmentSummary, error) {
	switch caller.Role {
	case RolePatient:
		return s.repo.ListByPatient(ctx, caller.UserID)
	case RoleDoctor:
		return s.repo.ListByDoctorUser(ctx, caller.UserID)
	case RoleAdmin:
		return s.repo.ListAll(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrNotAuthorized, caller.Role)
	}
}

// ListDoctors returns the bookable doctors directory.
func (s *Service) ListDoctors(ctx context.Context) ([]DoctorListing, error) {
	return s.repo.ListDoctors(ctx)
}

// MarkOverdueNoShows is called periodically by the worker. Appointments
// still sitting in scheduled past their end time (plus a grace period)
// are swept to no_show. Confirmed appointments are left for the doctor
// to resolve.
func (s *Service) MarkOverdueNoShows(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.NoShowGrace)

	overdue, err := s.repo.FindOverdueScheduled(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find overdue appointments: %w", err)
	}

	for _, appt := range overdue {
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusNoShow, StatusScheduled)
		if err != nil {
			if !errors.Is(err, ErrAppointmentNotFound) {
				s.log.Warn().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to mark no-show")
			}
			continue
		}
		s.logEvent(ctx, appt.ID, EventAppointmentNoShow, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// checkSchedule runs the availability and conflict checks for a window.
// Callers must hold the schedule lock for (doctorID, date).
func (s *Service) checkSchedule(ctx context.Context, doctorID uuid.UUID, date time.Time, start, end TimeOfDay, exclude uuid.UUID) error {
	slots, err := s.repo.ListTimeSlots(ctx, doctorID, int(date.Weekday()))
	if err != nil {
		return fmt.Errorf("load time slots: %w", err)
	}

	windows := MergeWindows(slots)
	if len(windows) == 0 {
		return ErrNoAvailability
	}
	if !Covers(windows, start, end) {
		return fmt.Errorf("%w: doctor is available %s on this day", ErrOutsideAvailability, formatWindows(windows))
	}

	existing, err := s.repo.ListActiveAppointments(ctx, doctorID, date)
	if err != nil {
		return fmt.Errorf("load existing appointments: %w", err)
	}
	if HasConflict(existing, start, end, exclude) {
		return ErrTimeSlotConflict
	}

	return nil
}

func (s *Service) consultationLength(minutes *int) time.Duration {
	if minutes != nil && *minutes > 0 {
		return time.Duration(*minutes) * time.Minute
	}
	return s.cfg.DefaultDuration
}

func authorize(caller Caller, detail *AppointmentDetail) error {
	switch caller.Role {
	case RolePatient:
		if detail.PatientID != caller.UserID {
			return fmt.Errorf("%w: patients may only access their own appointments", ErrNotAuthorized)
		}
	case RoleDoctor:
		if detail.DoctorUserID != caller.UserID {
			return fmt.Errorf("%w: doctors may only access appointments assigned to them", ErrNotAuthorized)
		}
	case RoleAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrNotAuthorized, caller.Role)
	}
	return nil
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func formatWindows(windows []Window) string {
	parts := make([]string, len(windows))
	for i, w := range windows {
		parts[i] = fmt.Sprintf("from %s to %s", w.Start, w.End)
	}
	return strings.Join(parts, ", ")
}

func (s *Service) logUpdateEvent(ctx context.Context, appt *Appointment, patch UpdatePatch) {
	payload := map[string]any{}
	if patch.Date != nil {
		payload["date"] = appt.Date.Format("2006-01-02")
	}
	if patch.Start != nil {
		payload["start_time"] = appt.Start.String()
		payload["end_time"] = appt.End.String()
	}
	if patch.Notes != nil {
		payload["notes_changed"] = true
	}
	if patch.Status != nil {
		payload["status"] = string(appt.Status)
	}
	s.logEvent(ctx, appt.ID, EventAppointmentUpdated, payload)
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}

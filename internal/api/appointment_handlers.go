package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/scheduling"
)

// SchedulingService is what the handlers need from the orchestrator.
type SchedulingService interface {
	Create(ctx context.Context, patientID uuid.UUID, in scheduling.CreateInput) (*scheduling.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, caller scheduling.Caller, patch scheduling.UpdatePatch) (*scheduling.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, caller scheduling.Caller) (*scheduling.Appointment, error)
	Get(ctx context.Context, id uuid.UUID, caller scheduling.Caller) (*scheduling.AppointmentDetail, error)
	List(ctx context.Context, caller scheduling.Caller) ([]scheduling.AppointmentSummary, error)
	ListDoctors(ctx context.Context) ([]scheduling.DoctorListing, error)
}

func listAppointmentsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		summaries, err := svc.List(r.Context(), caller)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		items := make([]AppointmentSummaryResponse, 0, len(summaries))
		for _, s := range summaries {
			items = append(items, toSummaryResponse(s))
		}

		writeSuccess(w, http.StatusOK, "Appointments retrieved successfully", map[string]any{
			"appointments": items,
			"count":        len(items),
		})
	}
}

func createAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.DoctorID == "" || req.AppointmentDate == "" || req.StartTime == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "doctor ID, appointment date, and start time are required")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		date, err := time.ParseInLocation(dateLayout, req.AppointmentDate, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "appointmentDate must be YYYY-MM-DD")
			return
		}

		start, err := scheduling.ParseTimeOfDay(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "startTime must be HH:MM")
			return
		}

		appt, err := svc.Create(r.Context(), caller.UserID, scheduling.CreateInput{
			DoctorID: doctorID,
			Date:     date,
			Start:    start,
			Notes:    req.Notes,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeSuccess(w, http.StatusCreated, "Appointment scheduled successfully", map[string]any{
			"appointment": toAppointmentResponse(appt),
		})
	}
}

func getAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := svc.Get(r.Context(), id, caller)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, "Appointment retrieved successfully", map[string]any{
			"appointment": toAppointmentResponse(&detail.Appointment),
		})
	}
}

func updateAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch, err := buildPatch(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_fields", err.Error())
			return
		}

		appt, err := svc.Update(r.Context(), id, caller, patch)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, "Appointment updated successfully", map[string]any{
			"appointment": toAppointmentResponse(appt),
		})
	}
}

func cancelAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := auth.CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Cancel(r.Context(), id, caller)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, "Appointment cancelled successfully", map[string]any{
			"appointment": map[string]any{
				"id":          appt.ID,
				"status":      string(appt.Status),
				"cancelledAt": appt.UpdatedAt,
			},
		})
	}
}

func listDoctorsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context())
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		items := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			items = append(items, DoctorResponse{
				ID:              d.ID,
				FirstName:       d.FirstName,
				LastName:        d.LastName,
				SpecialtyName:   d.SpecialtyName,
				DurationMinutes: d.DurationMinutes,
				ConsultationFee: d.ConsultationFee,
			})
		}

		writeSuccess(w, http.StatusOK, "Doctors retrieved successfully", map[string]any{
			"doctors": items,
			"count":   len(items),
		})
	}
}

// buildPatch parses the optional request fields into a typed patch.
// Malformed dates and times are errors; an unrecognized status value is
// dropped, mirroring longstanding behavior clients depend on.
func buildPatch(req UpdateAppointmentRequest) (scheduling.UpdatePatch, error) {
	var patch scheduling.UpdatePatch

	if req.AppointmentDate != nil {
		date, err := time.ParseInLocation(dateLayout, *req.AppointmentDate, time.Local)
		if err != nil {
			return patch, errors.New("appointmentDate must be YYYY-MM-DD")
		}
		patch.Date = &date
	}

	if req.StartTime != nil {
		start, err := scheduling.ParseTimeOfDay(*req.StartTime)
		if err != nil {
			return patch, errors.New("startTime must be HH:MM")
		}
		patch.Start = &start
	}

	if req.Notes != nil {
		patch.Notes = req.Notes
	}

	if req.Status != nil {
		status := scheduling.AppointmentStatus(*req.Status)
		if status.Known() {
			patch.Status = &status
		}
	}

	return patch, nil
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrPastAppointment):
		writeError(w, http.StatusBadRequest, "past_appointment", err.Error())
	case errors.Is(err, scheduling.ErrNoUpdatableFields):
		writeError(w, http.StatusBadRequest, "no_updatable_fields", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentFinal):
		writeError(w, http.StatusBadRequest, "appointment_final", err.Error())
	case errors.Is(err, scheduling.ErrNoAvailability):
		writeError(w, http.StatusBadRequest, "no_availability", err.Error())
	case errors.Is(err, scheduling.ErrOutsideAvailability):
		writeError(w, http.StatusBadRequest, "outside_availability", err.Error())
	case errors.Is(err, scheduling.ErrAlreadyCancelled):
		writeError(w, http.StatusBadRequest, "already_cancelled", err.Error())
	case errors.Is(err, scheduling.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrTimeSlotConflict):
		writeError(w, http.StatusConflict, "time_slot_conflict", "this time slot is already booked, please choose a different time")
	case errors.Is(err, scheduling.ErrScheduleBusy):
		writeError(w, http.StatusConflict, "schedule_busy", "schedule is currently being updated, please retry shortly")
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

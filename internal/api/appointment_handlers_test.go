package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/scheduling"
)

// stubService lets each test script the orchestrator's answers.
type stubService struct {
	createFn func(ctx context.Context, patientID uuid.UUID, in scheduling.CreateInput) (*scheduling.Appointment, error)
	updateFn func(ctx context.Context, id uuid.UUID, caller scheduling.Caller, patch scheduling.UpdatePatch) (*scheduling.Appointment, error)
	cancelFn func(ctx context.Context, id uuid.UUID, caller scheduling.Caller) (*scheduling.Appointment, error)
	getFn    func(ctx context.Context, id uuid.UUID, caller scheduling.Caller) (*scheduling.AppointmentDetail, error)
	listFn   func(ctx context.Context, caller scheduling.Caller) ([]scheduling.AppointmentSummary, error)
}

func (s *stubService) Create(ctx context.Context, patientID uuid.UUID, in scheduling.CreateInput) (*scheduling.Appointment, error) {
	return s.createFn(ctx, patientID, in)
}

func (s *stubService) Update(ctx context.Context, id uuid.UUID, caller scheduling.Caller, patch scheduling.UpdatePatch) (*scheduling.Appointment, error) {
	return s.updateFn(ctx, id, caller, patch)
}

func (s *stubService) Cancel(ctx context.Context, id uuid.UUID, caller scheduling.Caller) (*scheduling.Appointment, error) {
	return s.cancelFn(ctx, id, caller)
}

func (s *stubService) Get(ctx context.Context, id uuid.UUID, caller scheduling.Caller) (*scheduling.AppointmentDetail, error) {
	return s.getFn(ctx, id, caller)
}

func (s *stubService) List(ctx context.Context, caller scheduling.Caller) ([]scheduling.AppointmentSummary, error) {
	return s.listFn(ctx, caller)
}

func (s *stubService) ListDoctors(_ context.Context) ([]scheduling.DoctorListing, error) {
	return nil, nil
}

func testRouter(svc SchedulingService) http.Handler {
	r := chi.NewRouter()
	r.Get("/appointments", listAppointmentsHandler(svc))
	r.Post("/appointments", createAppointmentHandler(svc))
	r.Get("/appointments/{id}", getAppointmentHandler(svc))
	r.Put("/appointments/{id}", updateAppointmentHandler(svc))
	r.Delete("/appointments/{id}", cancelAppointmentHandler(svc))
	return r
}

func asPatient(req *http.Request, userID uuid.UUID) *http.Request {
	ctx := auth.ContextWithCaller(req.Context(), scheduling.Caller{UserID: userID, Role: scheduling.RolePatient})
	return req.WithContext(ctx)
}

func sampleAppointment(patientID uuid.UUID) *scheduling.Appointment {
	return &scheduling.Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  uuid.New(),
		Date:      time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local),
		Start:     9 * 60,
		End:       9*60 + 30,
		Status:    scheduling.StatusScheduled,
	}
}

func TestCreateAppointmentSuccess(t *testing.T) {
	patientID := uuid.New()
	doctorID := uuid.New()

	svc := &stubService{
		createFn: func(_ context.Context, gotPatient uuid.UUID, in scheduling.CreateInput) (*scheduling.Appointment, error) {
			assert.Equal(t, patientID, gotPatient)
			assert.Equal(t, doctorID, in.DoctorID)
			assert.Equal(t, scheduling.TimeOfDay(9*60), in.Start)
			appt := sampleAppointment(gotPatient)
			appt.DoctorID = in.DoctorID
			return appt, nil
		},
	}

	body := `{"doctorId":"` + doctorID.String() + `","appointmentDate":"2026-09-07","startTime":"09:00"}`
	req := asPatient(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)), patientID)
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			Appointment AppointmentResponse `json:"appointment"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "success", envelope.Status)
	assert.Equal(t, "09:00", envelope.Data.Appointment.StartTime)
	assert.Equal(t, "09:30", envelope.Data.Appointment.EndTime)
	assert.Equal(t, "scheduled", envelope.Data.Appointment.Status)
}

func TestCreateAppointmentValidation(t *testing.T) {
	svc := &stubService{
		createFn: func(context.Context, uuid.UUID, scheduling.CreateInput) (*scheduling.Appointment, error) {
			t.Fatal("service must not be called for invalid input")
			return nil, nil
		},
	}

	cases := []struct {
		name string
		body string
		code string
	}{
		{"missing fields", `{}`, "missing_fields"},
		{"bad doctor id", `{"doctorId":"nope","appointmentDate":"2026-09-07","startTime":"09:00"}`, "invalid_doctor_id"},
		{"bad date", `{"doctorId":"` + uuid.NewString() + `","appointmentDate":"07-09-2026","startTime":"09:00"}`, "invalid_date"},
		{"bad time", `{"doctorId":"` + uuid.NewString() + `","appointmentDate":"2026-09-07","startTime":"9am"}`, "invalid_start_time"},
		{"not json", `{{`, "invalid_request_body"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := asPatient(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(tc.body)), uuid.New())
			rec := httptest.NewRecorder()

			testRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}
}

func TestCreateAppointmentErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{scheduling.ErrPastAppointment, http.StatusBadRequest},
		{scheduling.ErrNoAvailability, http.StatusBadRequest},
		{scheduling.ErrOutsideAvailability, http.StatusBadRequest},
		{scheduling.ErrDoctorNotFound, http.StatusNotFound},
		{scheduling.ErrTimeSlotConflict, http.StatusConflict},
		{scheduling.ErrScheduleBusy, http.StatusConflict},
	}

	body := `{"doctorId":"` + uuid.NewString() + `","appointmentDate":"2026-09-07","startTime":"09:00"}`

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := &stubService{
				createFn: func(context.Context, uuid.UUID, scheduling.CreateInput) (*scheduling.Appointment, error) {
					return nil, tc.err
				},
			}

			req := asPatient(httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body)), uuid.New())
			rec := httptest.NewRecorder()

			testRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCreateAppointmentUnauthenticated(t *testing.T) {
	svc := &stubService{}

	req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateAppointmentBuildsTypedPatch(t *testing.T) {
	patientID := uuid.New()
	apptID := uuid.New()

	svc := &stubService{
		updateFn: func(_ context.Context, id uuid.UUID, caller scheduling.Caller, patch scheduling.UpdatePatch) (*scheduling.Appointment, error) {
			assert.Equal(t, apptID, id)
			assert.Equal(t, patientID, caller.UserID)
			require.NotNil(t, patch.Start)
			assert.Equal(t, scheduling.TimeOfDay(14*60), *patch.Start)
			require.NotNil(t, patch.Notes)
			assert.Equal(t, "running late", *patch.Notes)
			assert.Nil(t, patch.Date)
			assert.Nil(t, patch.Status, "unknown status values are dropped")
			appt := sampleAppointment(patientID)
			appt.ID = id
			return appt, nil
		},
	}

	body := `{"startTime":"14:00","notes":"running late","status":"pending"}`
	req := asPatient(httptest.NewRequest(http.MethodPut, "/appointments/"+apptID.String(), strings.NewReader(body)), patientID)
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateAppointmentRejectsMalformedFields(t *testing.T) {
	svc := &stubService{
		updateFn: func(context.Context, uuid.UUID, scheduling.Caller, scheduling.UpdatePatch) (*scheduling.Appointment, error) {
			t.Fatal("service must not be called for malformed input")
			return nil, nil
		},
	}

	body := `{"startTime":"25:00"}`
	req := asPatient(httptest.NewRequest(http.MethodPut, "/appointments/"+uuid.NewString(), strings.NewReader(body)), uuid.New())
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_fields")
}

func TestUpdateAppointmentErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{scheduling.ErrNoUpdatableFields, http.StatusBadRequest},
		{scheduling.ErrAppointmentFinal, http.StatusBadRequest},
		{scheduling.ErrNotAuthorized, http.StatusForbidden},
		{scheduling.ErrAppointmentNotFound, http.StatusNotFound},
		{scheduling.ErrInvalidTransition, http.StatusConflict},
		{scheduling.ErrTimeSlotConflict, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			svc := &stubService{
				updateFn: func(context.Context, uuid.UUID, scheduling.Caller, scheduling.UpdatePatch) (*scheduling.Appointment, error) {
					return nil, tc.err
				},
			}

			body := `{"notes":"x"}`
			req := asPatient(httptest.NewRequest(http.MethodPut, "/appointments/"+uuid.NewString(), strings.NewReader(body)), uuid.New())
			rec := httptest.NewRecorder()

			testRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestCancelAppointment(t *testing.T) {
	patientID := uuid.New()
	appt := sampleAppointment(patientID)
	appt.Status = scheduling.StatusCancelled

	svc := &stubService{
		cancelFn: func(_ context.Context, id uuid.UUID, caller scheduling.Caller) (*scheduling.Appointment, error) {
			assert.Equal(t, appt.ID, id)
			assert.Equal(t, patientID, caller.UserID)
			return appt, nil
		},
	}

	req := asPatient(httptest.NewRequest(http.MethodDelete, "/appointments/"+appt.ID.String(), nil), patientID)
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cancelled")
}

func TestCancelAlreadyCancelled(t *testing.T) {
	svc := &stubService{
		cancelFn: func(context.Context, uuid.UUID, scheduling.Caller) (*scheduling.Appointment, error) {
			return nil, scheduling.ErrAlreadyCancelled
		},
	}

	req := asPatient(httptest.NewRequest(http.MethodDelete, "/appointments/"+uuid.NewString(), nil), uuid.New())
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_cancelled")
}

func TestGetAppointmentInvalidID(t *testing.T) {
	svc := &stubService{}

	req := asPatient(httptest.NewRequest(http.MethodGet, "/appointments/not-a-uuid", nil), uuid.New())
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_appointment_id")
}

func TestListAppointments(t *testing.T) {
	patientID := uuid.New()

	svc := &stubService{
		listFn: func(_ context.Context, caller scheduling.Caller) ([]scheduling.AppointmentSummary, error) {
			assert.Equal(t, patientID, caller.UserID)
			return []scheduling.AppointmentSummary{
				{ID: uuid.New(), Date: time.Date(2026, 9, 7, 0, 0, 0, 0, time.Local), Start: 9 * 60, End: 9*60 + 30, Status: scheduling.StatusScheduled},
				{ID: uuid.New(), Date: time.Date(2026, 9, 8, 0, 0, 0, 0, time.Local), Start: 10 * 60, End: 10*60 + 30, Status: scheduling.StatusCancelled},
			}, nil
		},
	}

	req := asPatient(httptest.NewRequest(http.MethodGet, "/appointments", nil), patientID)
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Appointments []AppointmentSummaryResponse `json:"appointments"`
			Count        int                          `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.Count)
	assert.Equal(t, "2026-09-07", envelope.Data.Appointments[0].AppointmentDate)
}

func TestListAppointmentsEmpty(t *testing.T) {
	svc := &stubService{
		listFn: func(context.Context, scheduling.Caller) ([]scheduling.AppointmentSummary, error) {
			return nil, nil
		},
	}

	req := asPatient(httptest.NewRequest(http.MethodGet, "/appointments", nil), uuid.New())
	rec := httptest.NewRecorder()

	testRouter(svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
	assert.Contains(t, rec.Body.String(), `"appointments":[]`)
}

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/scheduling"
)

const dateLayout = "2006-01-02"

type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `json:"role"`
}

type CreateAppointmentRequest struct {
	DoctorID        string  `json:"doctorId"`
	AppointmentDate string  `json:"appointmentDate"`
	StartTime       string  `json:"startTime"`
	Notes           *string `json:"notes,omitempty"`
}

// UpdateAppointmentRequest carries optional fields only; absent fields
// keep their stored values.
type UpdateAppointmentRequest struct {
	AppointmentDate *string `json:"appointmentDate,omitempty"`
	StartTime       *string `json:"startTime,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	Status          *string `json:"status,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patientId"`
	DoctorID        uuid.UUID `json:"doctorId"`
	AppointmentDate string    `json:"appointmentDate"`
	StartTime       string    `json:"startTime"`
	EndTime         string    `json:"endTime"`
	Status          string    `json:"status"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type PersonResponse struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type AppointmentSummaryResponse struct {
	ID              uuid.UUID       `json:"id"`
	AppointmentDate string          `json:"appointmentDate"`
	StartTime       string          `json:"startTime"`
	EndTime         string          `json:"endTime"`
	Status          string          `json:"status"`
	Notes           *string         `json:"notes,omitempty"`
	SpecialtyName   *string         `json:"specialtyName,omitempty"`
	DurationMinutes *int            `json:"durationMinutes,omitempty"`
	ConsultationFee *float64        `json:"consultationFee,omitempty"`
	Patient         *PersonResponse `json:"patient,omitempty"`
	Doctor          *PersonResponse `json:"doctor,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type DoctorResponse struct {
	ID              uuid.UUID `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	SpecialtyName   *string   `json:"specialtyName,omitempty"`
	DurationMinutes *int      `json:"durationMinutes,omitempty"`
	ConsultationFee float64   `json:"consultationFee"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		AppointmentDate: a.Date.Format(dateLayout),
		StartTime:       a.Start.String(),
		EndTime:         a.End.String(),
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func toSummaryResponse(s scheduling.AppointmentSummary) AppointmentSummaryResponse {
	resp := AppointmentSummaryResponse{
		ID:              s.ID,
		AppointmentDate: s.Date.Format(dateLayout),
		StartTime:       s.Start.String(),
		EndTime:         s.End.String(),
		Status:          string(s.Status),
		Notes:           s.Notes,
		SpecialtyName:   s.SpecialtyName,
		DurationMinutes: s.DurationMinutes,
		ConsultationFee: s.ConsultationFee,
		CreatedAt:       s.CreatedAt,
	}
	if s.Patient != nil {
		resp.Patient = &PersonResponse{
			FirstName: s.Patient.FirstName,
			LastName:  s.Patient.LastName,
			Email:     s.Patient.Email,
			Phone:     s.Patient.Phone,
		}
	}
	if s.Doctor != nil {
		resp.Doctor = &PersonResponse{
			FirstName: s.Doctor.FirstName,
			LastName:  s.Doctor.LastName,
			Email:     s.Doctor.Email,
		}
	}
	return resp
}

package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// Known reports whether s is one of the recognized statuses. Unrecognized
// values in update payloads are dropped, not errored.
func (s AppointmentStatus) Known() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Occupies reports whether an appointment in this status blocks the
// doctor's calendar for conflict purposes.
func (s AppointmentStatus) Occupies() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Terminal statuses accept no further transitions.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type MedicalSpecialty struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
}

type Doctor struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	SpecialtyID     *uuid.UUID
	SpecialtyName   *string
	DurationMinutes *int // from the specialty; nil means use the configured default
	ConsultationFee float64
	IsAvailable     bool
}

// TimeSlot is a doctor's recurring weekly availability window.
// DayOfWeek follows time.Weekday: 0 = Sunday.
type TimeSlot struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	DayOfWeek int
	Start     TimeOfDay
	End       TimeOfDay
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time // calendar date, midnight
	Start     TimeOfDay
	End       TimeOfDay
	Status    AppointmentStatus
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentDetail carries the joined context the orchestrator needs to
// authorize and revalidate an update without extra round trips.
type AppointmentDetail struct {
	Appointment
	DoctorUserID    uuid.UUID
	DurationMinutes *int
}

// PersonInfo is the slice of a user shown to the opposite party of an
// appointment.
type PersonInfo struct {
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
}

// AppointmentSummary is a listing row enriched per the caller's role:
// patients see the doctor, doctors see the patient, admins see both.
type AppointmentSummary struct {
	ID              uuid.UUID
	Date            time.Time
	Start           TimeOfDay
	End             TimeOfDay
	Status          AppointmentStatus
	Notes           *string
	SpecialtyName   *string
	DurationMinutes *int
	ConsultationFee *float64
	Patient         *PersonInfo
	Doctor          *PersonInfo
	CreatedAt       time.Time
}

// DoctorListing is a row of the public doctors directory.
type DoctorListing struct {
	ID              uuid.UUID
	FirstName       string
	LastName        string
	SpecialtyName   *string
	DurationMinutes *int
	ConsultationFee float64
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

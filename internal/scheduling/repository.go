package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrDoctorNotFound      = errors.New("doctor not found or not available")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDuplicateSlot       = errors.New("time slot already booked")
)

// UpdateRecord carries the final values for every mutable appointment
// column. The orchestrator resolves the patch against the stored row
// before handing it here, so the repository issues one static UPDATE.
type UpdateRecord struct {
	Date   time.Time
	Start  TimeOfDay
	End    TimeOfDay
	Status AppointmentStatus
	Notes  *string
}

// Repository contains all DB interactions needed by the scheduling
// service and the auth layer.
type Repository interface {
	// Users
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u User) (*User, error)

	// Doctors and availability
	GetBookableDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctors(ctx context.Context) ([]DoctorListing, error)
	ListTimeSlots(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) ([]TimeSlot, error)

	// Conflict checks
	ListActiveAppointments(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)

	// Appointment reads
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentSummary, error)
	ListByDoctorUser(ctx context.Context, doctorUserID uuid.UUID) ([]AppointmentSummary, error)
	ListAll(ctx context.Context) ([]AppointmentSummary, error)

	// Mutations
	CreateScheduled(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, rec UpdateRecord) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus, from ...AppointmentStatus) (*Appointment, error)

	// No-show worker
	FindOverdueScheduled(ctx context.Context, cutoff time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}

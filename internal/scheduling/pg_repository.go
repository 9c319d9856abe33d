package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var phone *string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&phone,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Phone = phone
	return &u, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var start, end int
	var notes *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Date,
		&start,
		&end,
		&a.Status,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Start = TimeOfDay(start)
	a.End = TimeOfDay(end)
	a.Notes = notes
	return &a, nil
}

const appointmentColumns = `id, patient_id, doctor_id, appointment_date, start_time, end_time, status, notes, created_at, updated_at`

// Users

func (r *PgRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
	return scanUser(row)
}

func (r *PgRepository) CreateUser(ctx context.Context, u User) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true, now(), now())
		RETURNING id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.Role)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

// Doctors and availability

// GetBookableDoctor returns the doctor only when the underlying user is
// active and the doctor's global availability switch is on. Anything
// else reads as not found, which is what callers should see.
func (r *PgRepository) GetBookableDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT d.id, d.user_id, d.specialty_id, ms.name, ms.duration_minutes, d.consultation_fee, d.is_available
		FROM doctors d
		JOIN users u ON d.user_id = u.id
		LEFT JOIN medical_specialties ms ON d.specialty_id = ms.id
		WHERE d.id = $1 AND u.is_active = true AND d.is_available = true
	`, id)

	var d Doctor
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.SpecialtyID,
		&d.SpecialtyName,
		&d.DurationMinutes,
		&d.ConsultationFee,
		&d.IsAvailable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]DoctorListing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, u.first_name, u.last_name, ms.name, ms.duration_minutes, d.consultation_fee
		FROM doctors d
		JOIN users u ON d.user_id = u.id
		LEFT JOIN medical_specialties ms ON d.specialty_id = ms.id
		WHERE u.is_active = true AND d.is_available = true
		ORDER BY u.last_name, u.first_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DoctorListing
	for rows.Next() {
		var dl DoctorListing
		if err := rows.Scan(&dl.ID, &dl.FirstName, &dl.LastName, &dl.SpecialtyName, &dl.DurationMinutes, &dl.ConsultationFee); err != nil {
			return nil, err
		}
		result = append(result, dl)
	}

	return result, rows.Err()
}

func (r *PgRepository) ListTimeSlots(ctx context.Context, doctorID uuid.UUID, dayOfWeek int) ([]TimeSlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_time, end_time
		FROM time_slots
		WHERE doctor_id = $1 AND day_of_week = $2
		ORDER BY start_time
	`, doctorID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TimeSlot
	for rows.Next() {
		var ts TimeSlot
		var start, end int
		if err := rows.Scan(&ts.ID, &ts.DoctorID, &ts.DayOfWeek, &start, &end); err != nil {
			return nil, err
		}
		ts.Start = TimeOfDay(start)
		ts.End = TimeOfDay(end)
		result = append(result, ts)
	}

	return result, rows.Err()
}

// Conflict checks

func (r *PgRepository) ListActiveAppointments(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_date = $2
		  AND status IN ('scheduled', 'confirmed')
		ORDER BY start_time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

// Appointment reads

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT a.id, a.patient_id, a.doctor_id, a.appointment_date, a.start_time, a.end_time,
		       a.status, a.notes, a.created_at, a.updated_at,
		       d.user_id, ms.duration_minutes
		FROM appointments a
		JOIN doctors d ON a.doctor_id = d.id
		LEFT JOIN medical_specialties ms ON d.specialty_id = ms.id
		WHERE a.id = $1
	`, id)

	var detail AppointmentDetail
	var start, end int
	var notes *string

	err := row.Scan(
		&detail.ID,
		&detail.PatientID,
		&detail.DoctorID,
		&detail.Date,
		&start,
		&end,
		&detail.Status,
		&notes,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.DoctorUserID,
		&detail.DurationMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	detail.Start = TimeOfDay(start)
	detail.End = TimeOfDay(end)
	detail.Notes = notes
	return &detail, nil
}

func scanSummaries(rows pgx.Rows, withPatient, withDoctor, withFee bool) ([]AppointmentSummary, error) {
	defer rows.Close()

	var result []AppointmentSummary
	for rows.Next() {
		var s AppointmentSummary
		var start, end int

		dest := []any{&s.ID, &s.Date, &start, &end, &s.Status, &s.Notes, &s.CreatedAt, &s.SpecialtyName, &s.DurationMinutes}
		if withPatient {
			s.Patient = &PersonInfo{}
			dest = append(dest, &s.Patient.FirstName, &s.Patient.LastName, &s.Patient.Email, &s.Patient.Phone)
		}
		if withDoctor {
			s.Doctor = &PersonInfo{}
			dest = append(dest, &s.Doctor.FirstName, &s.Doctor.LastName, &s.Doctor.Email)
		}
		if withFee {
			dest = append(dest, &s.ConsultationFee)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		s.Start = TimeOfDay(start)
		s.End = TimeOfDay(end)
		result = append(result, s)
	}

	return result, rows.Err()
}

// ListByPatient returns the patient's bookings, most recent first, with
// doctor and fee context.
func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.appointment_date, a.start_time, a.end_time, a.status, a.notes, a.created_at,
		       ms.name, ms.duration_minutes,
		       u_doctor.first_name, u_doctor.last_name, u_doctor.email,
		       d.consultation_fee
		FROM appointments a
		JOIN doctors d ON a.doctor_id = d.id
		JOIN users u_doctor ON d.user_id = u_doctor.id
		LEFT JOIN medical_specialties ms ON d.specialty_id = ms.id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date DESC, a.start_time DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows, false, true, true)
}

// ListByDoctorUser returns the appointments assigned to the doctor whose
// user account is doctorUserID, upcoming first, with patient contact info.
func (r *PgRepository) ListByDoctorUser(ctx context.Context, doctorUserID uuid.UUID) ([]AppointmentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.appointment_date, a.start_time, a.end_time, a.status, a.notes, a.created_at,
		       ms.name, ms.duration_minutes,
		       u_patient.first_name, u_patient.last_name, u_patient.email, u_patient.phone
		FROM appointments a
		JOIN users u_patient ON a.patient_id = u_patient.id
		JOIN doctors d ON a.doctor_id = d.id
		LEFT JOIN medical_specialties ms ON d.specialty_id = ms.id
		WHERE d.user_id = $1
		ORDER BY a.appointment_date ASC, a.start_time ASC
	`, doctorUserID)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows, true, false, false)
}

func (r *PgRepository) ListAll(ctx context.Context) ([]AppointmentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.appointment_date, a.start_time, a.end_time, a.status, a.notes, a.created_at,
		       ms.name, ms.duration_minutes,
		       u_patient.first_name, u_patient.last_name, u_patient.email, u_patient.phone,
		       u_doctor.first_name, u_doctor.last_name, u_doctor.email,
		       d.consultation_fee
		FROM appointments a
		JOIN users u_patient ON a.patient_id = u_patient.id
		JOIN doctors d ON a.doctor_id = d.id
		JOIN users u_doctor ON d.user_id = u_doctor.id
		LEFT JOIN medical_specialties ms ON d.specialty_id = ms.id
		ORDER BY a.appointment_date DESC, a.start_time DESC
	`)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows, true, true, true)
}

// Mutations

func (r *PgRepository) CreateScheduled(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, appointment_date, start_time, end_time, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'scheduled', $7, now(), now())
		RETURNING `+appointmentColumns+`
	`, a.ID, a.PatientID, a.DoctorID, a.Date, int(a.Start), int(a.End), a.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateSlot
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id uuid.UUID, rec UpdateRecord) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET appointment_date = $2,
		    start_time = $3,
		    end_time = $4,
		    status = $5,
		    notes = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, rec.Date, int(rec.Start), int(rec.End), rec.Status, rec.Notes)

	updated, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateSlot
		}
		return nil, err
	}
	return updated, nil
}

// UpdateAppointmentStatus is a compare-and-swap: the row moves to the new
// status only if it is still in one of the expected ones.
func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus, from ...AppointmentStatus) (*Appointment, error) {
	fromValues := make([]string, len(from))
	for i, s := range from {
		fromValues[i] = string(s)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
		RETURNING `+appointmentColumns+`
	`, id, to, fromValues)

	return scanAppointment(row)
}

// No-show worker

func (r *PgRepository) FindOverdueScheduled(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'scheduled'
		  AND appointment_date + (end_time * interval '1 minute') < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

// Event logging

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

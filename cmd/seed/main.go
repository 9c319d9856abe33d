package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/db"
	"github.com/careslot/careslot/internal/scheduling"
)

// Every seeded account gets the same password so the simulator and manual
// testing can log in: "password123".
const seedPassword = "password123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	passwordHash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	specialtyIDs, err := seedSpecialties(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed specialties: %v", err)
	}
	if err := seedAdmin(context.Background(), pool, passwordHash); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedDoctors(context.Background(), pool, passwordHash, specialtyIDs, 50); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, passwordHash, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedSpecialties(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	specialties := []struct {
		name     string
		duration int
	}{
		{"Dermatology", 20},
		{"Cardiology", 45},
		{"General Practice", 30},
		{"Orthopedics", 30},
		{"Endocrinology", 45},
		{"Neurology", 60},
		{"Pediatrics", 30},
		{"Psychiatry", 60},
		{"Ophthalmology", 20},
		{"ENT", 20},
	}

	log.Printf("seeding %d specialties", len(specialties))

	ids := make([]uuid.UUID, 0, len(specialties))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, s := range specialties {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO medical_specialties (id, name, duration_minutes)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, id, s.name, s.duration)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("specialties seeded")
	return ids, nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, passwordHash string) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at)
		VALUES ($1, 'admin@careslot.local', $2, 'Admin', 'User', 'admin', true, now(), now())
		ON CONFLICT (email) DO NOTHING
	`, uuid.New(), passwordHash)
	if err != nil {
		return err
	}

	log.Println("admin seeded")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, passwordHash string, specialtyIDs []uuid.UUID, count int) error {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		userID := uuid.New()
		doctorID := uuid.New()
		specialtyID := specialtyIDs[gofakeit.Number(0, len(specialtyIDs)-1)]
		fee := float64(gofakeit.Number(50, 300))

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'doctor', true, now(), now())
		`, userID, gofakeit.Email(), passwordHash, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Phone())
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO doctors (id, user_id, specialty_id, consultation_fee, is_available, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, now(), now())
		`, doctorID, userID, specialtyID, fee)
		if err != nil {
			return err
		}

		// Weekday availability, 09:00-12:00 and 13:00-17:00.
		for day := 1; day <= 5; day++ {
			for _, w := range [][2]int{{9 * 60, 12 * 60}, {13 * 60, 17 * 60}} {
				_, err = tx.Exec(ctx, `
					INSERT INTO time_slots (id, doctor_id, day_of_week, start_time, end_time)
					VALUES ($1, $2, $3, $4, $5)
				`, uuid.New(), doctorID, day, w[0], w[1])
				if err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, passwordHash string, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, true, now(), now())
			`, uuid.New(), gofakeit.Email(), passwordHash, gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Phone(), scheduling.RolePatient)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	log.Println("patients seeded")
	return nil
}

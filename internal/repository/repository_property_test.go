package repository

import (
	"context"
	"testing"
	"time"

	"github.com/dawahealth/adherence-backend/pkg/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// setupTestDB creates a PostgreSQL testcontainer and returns the connection pool
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	// Start PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("adherence_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	// Get connection string
	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	// Run migrations
	runMigrations(t, pool)

	cleanup := func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return pool, cleanup
}

// runMigrations runs the database migrations
func runMigrations(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()

	// Create tables
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS medications (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			patient_id UUID NOT NULL,
			name VARCHAR(255) NOT NULL,
			dosage VARCHAR(255) NOT NULL,
			frequency VARCHAR(255) NOT NULL,
			schedule_times TEXT[],
			start_date DATE NOT NULL,
			end_date DATE,
			notes TEXT,
			active BOOLEAN NOT NULL DEFAULT true,
			take_with_food BOOLEAN NOT NULL DEFAULT false,
			avoid_during_fasting BOOLEAN NOT NULL DEFAULT false,
			traditional_alternatives TEXT[],
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS intake_records (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			medication_id UUID NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
			patient_id UUID NOT NULL,
			scheduled_time TIMESTAMP NOT NULL,
			taken_time TIMESTAMP,
			status VARCHAR(50) NOT NULL,
			score DOUBLE PRECISION NOT NULL DEFAULT 0,
			delay_minutes INTEGER,
			cultural_context JSONB,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			patient_id UUID NOT NULL,
			date_range_start DATE NOT NULL,
			date_range_end DATE NOT NULL,
			file_path VARCHAR(500) NOT NULL,
			generated_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
	}

	for _, migration := range migrations {
		_, err := pool.Exec(ctx, migration)
		require.NoError(t, err)
	}
}

// createTestMedication creates a medication row and returns it
func createTestMedication(t *testing.T, repo *MedicationRepository, patientID string) *model.Medication {
	ctx := context.Background()

	med := &model.Medication{
		ID:            uuid.New().String(),
		PatientID:     patientID,
		Name:          "Metformin",
		Dosage:        "500mg",
		Frequency:     "twice daily",
		ScheduleTimes: []string{"08:00", "20:00"},
		StartDate:     time.Now().AddDate(0, -1, 0).Truncate(24 * time.Hour),
		Active:        true,
	}

	err := repo.Create(ctx, med)
	require.NoError(t, err)

	return med
}

// Property: medication CRUD preserves the ID and all cultural fields
func TestProperty_MedicationCRUDPreservesFields(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zap.NewNop()
	repo := NewMedicationRepository(pool, logger)
	patientID := uuid.New().String()

	properties := gopter.NewProperties(nil)

	properties.Property("create then find returns the same medication", prop.ForAll(
		func(name, dosage string, takeWithFood, avoidFasting bool) bool {
			ctx := context.Background()

			med := &model.Medication{
				ID:                 uuid.New().String(),
				PatientID:          patientID,
				Name:               name,
				Dosage:             dosage,
				Frequency:          "once daily",
				ScheduleTimes:      []string{"09:00"},
				StartDate:          time.Now().Truncate(24 * time.Hour),
				Active:             true,
				TakeWithFood:       takeWithFood,
				AvoidDuringFasting: avoidFasting,
			}

			if err := repo.Create(ctx, med); err != nil {
				t.Logf("failed to create medication: %v", err)
				return false
			}

			found, err := repo.FindByID(ctx, med.ID)
			if err != nil {
				t.Logf("failed to find medication: %v", err)
				return false
			}

			return found.ID == med.ID &&
				found.Name == med.Name &&
				found.Dosage == med.Dosage &&
				found.TakeWithFood == med.TakeWithFood &&
				found.AvoidDuringFasting == med.AvoidDuringFasting
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 && len(s) < 100 }),
		gen.RegexMatch(`[1-9][0-9]{0,2}mg`),
		gen.Bool(),
		gen.Bool(),
	))

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 30
	properties.TestingRun(t, params)
}

// Property: cultural context round-trips through JSONB storage
func TestProperty_IntakeCulturalContextRoundTrips(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zap.NewNop()
	medRepo := NewMedicationRepository(pool, logger)
	intakeRepo := NewIntakeRepository(pool, logger)

	patientID := uuid.New().String()
	med := createTestMedication(t, medRepo, patientID)

	properties := gopter.NewProperties(nil)

	properties.Property("stored cultural context matches retrieved cultural context", prop.ForAll(
		func(fasting bool, prayerName string) bool {
			ctx := context.Background()

			var prayer *string
			if prayerName != "" {
				prayer = &prayerName
			}

			scheduled := time.Now().Truncate(time.Second)
			record := &model.IntakeRecord{
				ID:            uuid.New().String(),
				MedicationID:  med.ID,
				PatientID:     patientID,
				ScheduledTime: scheduled,
				Status:        model.IntakeStatusMissed,
				CulturalContext: &model.CulturalContext{
					IsFastingPeriod: fasting,
					PrayerName:      prayer,
				},
			}

			if err := intakeRepo.Create(ctx, record); err != nil {
				t.Logf("failed to create intake record: %v", err)
				return false
			}

			found, err := intakeRepo.FindByID(ctx, record.ID)
			if err != nil {
				t.Logf("failed to find intake record: %v", err)
				return false
			}

			if found.CulturalContext == nil {
				return false
			}
			if found.CulturalContext.IsFastingPeriod != fasting {
				return false
			}
			if prayer == nil {
				return found.CulturalContext.PrayerName == nil
			}

			return found.CulturalContext.PrayerName != nil && *found.CulturalContext.PrayerName == *prayer
		},
		gen.Bool(),
		gen.OneConstOf("", "fajr", "dhuhr", "asr", "maghrib", "isha"),
	))

	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 30
	properties.TestingRun(t, params)
}

func TestIntakeRepository_FindByPatientID_WindowAndOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zap.NewNop()
	medRepo := NewMedicationRepository(pool, logger)
	intakeRepo := NewIntakeRepository(pool, logger)

	ctx := context.Background()
	patientID := uuid.New().String()
	med := createTestMedication(t, medRepo, patientID)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	// Arrange: three records inside the query window, one before, one after
	offsets := []time.Duration{-72 * time.Hour, 0, 24 * time.Hour, 48 * time.Hour, 240 * time.Hour}
	for _, offset := range offsets {
		scheduled := base.Add(offset)
		taken := scheduled.Add(10 * time.Minute)
		record := &model.IntakeRecord{
			ID:            uuid.New().String(),
			MedicationID:  med.ID,
			PatientID:     patientID,
			ScheduledTime: scheduled,
			TakenTime:     &taken,
			Status:        model.IntakeStatusOnTime,
			Score:         100,
		}
		require.NoError(t, intakeRepo.Create(ctx, record))
	}

	// Act
	records, err := intakeRepo.FindByPatientID(ctx, patientID, base.Add(-time.Hour), base.Add(72*time.Hour))

	// Assert
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].ScheduledTime.After(records[i-1].ScheduledTime),
			"records should be ordered by scheduled time ascending")
	}
}

func TestIntakeRepository_UpdateMarksTaken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zap.NewNop()
	medRepo := NewMedicationRepository(pool, logger)
	intakeRepo := NewIntakeRepository(pool, logger)

	ctx := context.Background()
	patientID := uuid.New().String()
	med := createTestMedication(t, medRepo, patientID)

	scheduled := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	record := &model.IntakeRecord{
		ID:            uuid.New().String(),
		MedicationID:  med.ID,
		PatientID:     patientID,
		ScheduledTime: scheduled,
		Status:        model.IntakeStatusMissed,
		Score:         0,
	}
	require.NoError(t, intakeRepo.Create(ctx, record))

	// Act: mark the dose as taken 90 minutes late
	taken := scheduled.Add(90 * time.Minute)
	delay := 90
	record.TakenTime = &taken
	record.Status = model.IntakeStatusLate
	record.Score = 55
	record.DelayMinutes = &delay
	require.NoError(t, intakeRepo.Update(ctx, record))

	// Assert
	found, err := intakeRepo.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.IntakeStatusLate, found.Status)
	require.NotNil(t, found.TakenTime)
	assert.True(t, found.TakenTime.Equal(taken))
	require.NotNil(t, found.DelayMinutes)
	assert.Equal(t, 90, *found.DelayMinutes)
}

func TestIntakeRepository_UpdateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	intakeRepo := NewIntakeRepository(pool, zap.NewNop())

	record := &model.IntakeRecord{
		ID:            uuid.New().String(),
		ScheduledTime: time.Now(),
		Status:        model.IntakeStatusMissed,
	}

	err := intakeRepo.Update(context.Background(), record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMedicationRepository_DeleteRemovesRow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zap.NewNop()
	repo := NewMedicationRepository(pool, logger)

	ctx := context.Background()
	patientID := uuid.New().String()
	med := createTestMedication(t, repo, patientID)

	require.NoError(t, repo.Delete(ctx, med.ID))

	_, err := repo.FindByID(ctx, med.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	// Deleting again reports not found
	err = repo.Delete(ctx, med.ID)
	require.Error(t, err)
}

func TestReportRepository_FindByPatientIDOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewReportRepository(pool, zap.NewNop())

	ctx := context.Background()
	patientID := uuid.New().String()

	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		report := &model.Report{
			ID:             uuid.New().String(),
			PatientID:      patientID,
			DateRangeStart: base.AddDate(0, 0, -7),
			DateRangeEnd:   base,
			FilePath:       "reports/" + uuid.New().String(),
			GeneratedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, report))
	}

	reports, err := repo.FindByPatientID(ctx, patientID)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	for i := 1; i < len(reports); i++ {
		assert.False(t, reports[i].GeneratedAt.After(reports[i-1].GeneratedAt),
			"reports should be ordered newest first")
	}
}

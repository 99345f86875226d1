package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillbridge/marketplace-service/internal/config"
	"github.com/skillbridge/marketplace-service/internal/models"
)

// InitDatabase opens the PostgreSQL connection, runs schema migrations and
// installs the partial unique indexes the booking and enrollment flows rely on.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Environment != "production" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	// User records are owned by Casdoor and are not migrated here.
	err := db.AutoMigrate(
		&models.Category{},
		&models.Consultant{},
		&models.Service{},
		&models.Course{},
		&models.CourseLesson{},
		&models.Enrollment{},
		&models.LessonProgress{},
		&models.Booking{},
		&models.Partner{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Partial unique indexes back the double-booking and double-enrollment
	// guards. Terminal statuses (cancelled, no-show, dropped) fall outside the
	// predicate so the slot or seat frees up again.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
			ON bookings (consultant_id, scheduled_date, time_slot)
			WHERE status IN ('scheduled', 'confirmed', 'rescheduled')`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_active_seat
			ON enrollments (student_id, course_id)
			WHERE status IN ('active', 'completed', 'paused')`,
	}
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	activitydomain "github.com/smallbiznis/frontdesk/internal/activity/domain"
	businessdatedomain "github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	foliodomain "github.com/smallbiznis/frontdesk/internal/folio/domain"
	nightauditdomain "github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded postgres schema. Other dialects go
// through AutoMigrate instead.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table owned by the application.
func Models() []any {
	return []any{
		&roomdomain.RoomType{},
		&roomdomain.Room{},
		&reservationdomain.Reservation{},
		&businessdatedomain.BusinessDate{},
		&foliodomain.Posting{},
		&nightauditdomain.AuditRun{},
		&activitydomain.ActivityLog{},
	}
}

// AutoMigrate builds the schema from the gorm models. Used for sqlite and
// mysql deployments and by tests.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(Models()...)
}

// Migrate picks the strategy matching the connection's dialect.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if db.Dialector.Name() != "postgres" {
		return AutoMigrate(db)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

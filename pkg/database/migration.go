package database

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

var migrationFilePattern = regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)

// MigrationLogger adapts ectologger to migrate.Logger
type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(strings.TrimSuffix(format, "\n"), v...)
}

type MigrationConfig struct {
	MigrationFolderPath string
	Version             uint
	Force               int
	AutoRollback        bool // on failure, force a dirty database back to the version it started at
}

type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

// MigratePostgres applies the record store schema. Oracle schemas are managed outside fern.
func (ms *MigrationService) MigratePostgres(db DB) error {
	if db.DriverName() != DriverPostgres {
		return fmt.Errorf("migrations are only supported for %s, got %s", DriverPostgres, db.DriverName())
	}
	driver, err := postgres.WithInstance(db.SQL(), &postgres.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create postgres migration driver")
	}
	return ms.Migrate(DriverPostgres, driver)
}

func (ms *MigrationService) folder() string {
	folder := ms.config.MigrationFolderPath
	if _, err := os.Stat(folder); err == nil || filepath.IsAbs(folder) {
		return folder
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, folder)
	}
	return folder
}

func (ms *MigrationService) Migrate(databaseName string, instance migratedb.Driver) error {
	folder := ms.folder()
	if _, err := os.Stat(folder); err != nil {
		return errors.Wrap(err, fmt.Sprintf("migration folder %s does not exist", folder))
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+folder, databaseName, instance)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}
	m.Log = MigrationLogger{Logger: ms.logger}

	if ms.config.Force != 0 {
		if err := m.Force(ms.config.Force); err != nil {
			ms.logger.WithError(err).Errorf("Failed to force database to version %d", ms.config.Force)
			return err
		}
	}

	startVersion, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		ms.logger.WithError(err).Error("Failed to get current migration version")
	}

	start := time.Now()
	if ms.config.Version != 0 {
		err = m.Migrate(ms.config.Version)
	} else {
		err = m.Up()
	}
	ms.logger.WithField("elapsed", time.Since(start).String()).Info("Database migrations finished")

	return ms.handleResult(m, err, startVersion)
}

func (ms *MigrationService) handleResult(m *migrate.Migrate, err error, startVersion uint) error {
	switch {
	case err == nil:
		ms.logger.Info("Successfully applied migrations")
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		ms.logger.Info("No new migrations to apply")
		return nil
	case strings.Contains(err.Error(), "no migration found for version"):
		// the database is ahead of this binary, usually after a rollback
		latest, latestErr := latestVersion(ms.folder())
		if latestErr != nil {
			return errors.Wrap(latestErr, "failed to find latest migration")
		}
		ms.logger.Warnf("No migration found for version %d, forcing to latest available version %d", startVersion, latest)
		return m.Force(latest)
	}

	version, dirty, versionErr := m.Version()
	log := ms.logger.WithError(err).WithFields(map[string]any{"version": version, "dirty": dirty})
	if versionErr == nil && dirty && ms.config.AutoRollback {
		log.Warnf("Migration failed, reverting dirty database to version %d", startVersion)
		if forceErr := m.Force(int(startVersion)); forceErr != nil {
			return errors.Wrap(forceErr, fmt.Sprintf("failed to force database to version %d", startVersion))
		}
	} else {
		log.Error("Failed to apply migrations")
	}
	// a failed migration always stops startup, even after a rollback
	return err
}

func latestVersion(folder string) (int, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return 0, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if match := migrationFilePattern.FindStringSubmatch(entry.Name()); match != nil {
			v, err := strconv.Atoi(match[1])
			if err != nil {
				return 0, err
			}
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 {
		return 0, fmt.Errorf("no migration files found in %s", folder)
	}

	sort.Ints(versions)
	return versions[len(versions)-1], nil
}

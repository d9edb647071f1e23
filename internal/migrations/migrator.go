package migrations

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Migration represents a database migration
type Migration struct {
	ID        string // Unique identifier (e.g., "001_chat_participant_indexes")
	Name      string // Human-readable name
	Up        func(db *gorm.DB) error
	Down      func(db *gorm.DB) error
	DependsOn []string // IDs of migrations this depends on

	// Dialects restricts the migration to the named gorm dialects.
	// Empty means it runs everywhere.
	Dialects []string
}

func (m Migration) supports(dialect string) bool {
	if len(m.Dialects) == 0 {
		return true
	}
	for _, d := range m.Dialects {
		if d == dialect {
			return true
		}
	}
	return false
}

// MigrationRecord tracks which migrations have been applied
type MigrationRecord struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Name      string    `gorm:"type:text"`
	AppliedAt time.Time `gorm:"autoUpdateTime:nano"`
}

// TableName overrides the table name
func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// Migrator handles database migrations
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator creates a new migrator
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: GetMigrations(),
	}
}

// Applied returns the IDs of migrations already recorded.
func (m *Migrator) Applied() (map[string]bool, error) {
	if err := m.db.AutoMigrate(&MigrationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []MigrationRecord
	if err := m.db.Find(&applied).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch applied migrations: %w", err)
	}

	appliedMap := make(map[string]bool, len(applied))
	for _, r := range applied {
		appliedMap[r.ID] = true
	}
	return appliedMap, nil
}

// Run executes all pending migrations
func (m *Migrator) Run() error {
	appliedMap, err := m.Applied()
	if err != nil {
		return err
	}
	dialect := m.db.Dialector.Name()

	for _, migration := range m.migrations {
		if appliedMap[migration.ID] {
			continue
		}

		for _, dep := range migration.DependsOn {
			if !appliedMap[dep] {
				return fmt.Errorf("migration %s depends on %s which is not applied", migration.ID, dep)
			}
		}

		// Recorded as applied so a later switch of dialect does not replay it.
		if !migration.supports(dialect) {
			log.Info().Str("migration", migration.ID).Str("dialect", dialect).Msg("Skipping migration for dialect")
			if err := m.record(m.db, migration); err != nil {
				return err
			}
			appliedMap[migration.ID] = true
			continue
		}

		log.Info().Str("migration", migration.ID).Str("name", migration.Name).Msg("🔄 Running migration")

		if err := m.db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return m.record(tx, migration)
		}); err != nil {
			log.Error().Err(err).Str("migration", migration.ID).Msg("❌ Migration failed")
			return fmt.Errorf("migration %s failed: %w", migration.ID, err)
		}

		appliedMap[migration.ID] = true
		log.Info().Str("migration", migration.ID).Msg("✅ Migration completed")
	}

	return nil
}

// Rollback reverts a single applied migration.
func (m *Migrator) Rollback(id string) error {
	appliedMap, err := m.Applied()
	if err != nil {
		return err
	}
	if !appliedMap[id] {
		return fmt.Errorf("migration %s is not applied", id)
	}

	for _, migration := range m.migrations {
		if migration.ID != id {
			continue
		}
		for _, other := range m.migrations {
			for _, dep := range other.DependsOn {
				if dep == id && appliedMap[other.ID] {
					return fmt.Errorf("migration %s is required by %s", id, other.ID)
				}
			}
		}

		return m.db.Transaction(func(tx *gorm.DB) error {
			if migration.Down != nil && migration.supports(m.db.Dialector.Name()) {
				if err := migration.Down(tx); err != nil {
					return err
				}
			}
			return tx.Delete(&MigrationRecord{ID: id}).Error
		})
	}
	return fmt.Errorf("unknown migration %s", id)
}

func (m *Migrator) record(tx *gorm.DB, migration Migration) error {
	return tx.Create(&MigrationRecord{
		ID:   migration.ID,
		Name: migration.Name,
	}).Error
}

// GetMigrations returns all registered migrations in order
func GetMigrations() []Migration {
	return []Migration{
		Migration001ChatParticipantIndexes(),
		Migration002ChatListingFK(),
		Migration003NormalizeEmails(),
	}
}

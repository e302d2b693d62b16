package database

import (
	"errors"
	"time"

	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationBackfillAnonymousAuthors = "2026-07-18_backfill_anonymous_authors"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillAnonymousAuthors, apply: backfillAnonymousAuthors},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Rows written before author names became mandatory carry empty strings;
// normalize them to the default author.
func backfillAnonymousAuthors(db *gorm.DB) error {
	if err := db.Model(&annotations.Annotation{}).
		Where("author_name = ''").
		Update("author_name", annotations.DefaultAuthorName).Error; err != nil {
		return err
	}
	return db.Model(&annotations.Reply{}).
		Where("author_name = ''").
		Update("author_name", annotations.DefaultAuthorName).Error
}

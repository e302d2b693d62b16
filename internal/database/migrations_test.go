package database

import (
	"path/filepath"
	"testing"

	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsBackfillsAnonymousAuthors(t *testing.T) {
	tempDir := t.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&annotations.Annotation{}, &annotations.Reply{}, &migrationRecord{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	legacy := annotations.Annotation{
		DocumentID: "doc1",
		Kind:       annotations.KindComment,
		Quote:      "quick",
		AuthorName: "",
	}
	if err := db.Create(&legacy).Error; err != nil {
		t.Fatalf("failed to insert annotation: %v", err)
	}
	named := annotations.Annotation{
		DocumentID: "doc1",
		Kind:       annotations.KindComment,
		Quote:      "lazy",
		AuthorName: "Ada",
	}
	if err := db.Create(&named).Error; err != nil {
		t.Fatalf("failed to insert annotation: %v", err)
	}

	if err := applyMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	var stored annotations.Annotation
	if err := db.Where("id = ?", legacy.ID).Take(&stored).Error; err != nil {
		t.Fatalf("failed to reload annotation: %v", err)
	}
	if stored.AuthorName != annotations.DefaultAuthorName {
		t.Fatalf("expected backfilled author, got %q", stored.AuthorName)
	}
	var untouched annotations.Annotation
	if err := db.Where("id = ?", named.ID).Take(&untouched).Error; err != nil {
		t.Fatalf("failed to reload annotation: %v", err)
	}
	if untouched.AuthorName != "Ada" {
		t.Fatalf("expected named author preserved, got %q", untouched.AuthorName)
	}

	var record migrationRecord
	if err := db.Where("name = ?", migrationBackfillAnonymousAuthors).Take(&record).Error; err != nil {
		t.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		t.Fatal("expected migration timestamp to be set")
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	tempDir := t.TempDir()
	databasePath := filepath.Join(tempDir, "idempotent.db")

	db, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	if err := applyMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("failed to re-apply migrations: %v", err)
	}

	var count int64
	if err := db.Model(&migrationRecord{}).Where("name = ?", migrationBackfillAnonymousAuthors).Count(&count).Error; err != nil {
		t.Fatalf("failed to count migration records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one migration record, got %d", count)
	}
}

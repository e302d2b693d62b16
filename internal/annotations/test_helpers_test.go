package annotations

import (
	"fmt"
	"strings"
	"testing"
	"time"

	githubsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db, err := gorm.Open(githubsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.AutoMigrate(&Annotation{}, &Reply{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Database: openTestDatabase(t),
		Clock:    func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func mustDocumentID(t *testing.T, raw string) DocumentID {
	t.Helper()
	id, err := NewDocumentID(raw)
	if err != nil {
		t.Fatalf("unexpected document id error: %v", err)
	}
	return id
}

func stringPtr(value string) *string {
	return &value
}

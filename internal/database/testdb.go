package database

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
// Each test gets its own named database so tests do not see each other's rows.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	t.Cleanup(func() { Close(db) })

	return db
}

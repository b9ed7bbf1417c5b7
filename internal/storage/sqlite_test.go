package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/bunchhieng/uuidspace/internal/model"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	storage, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	return storage
}

const testUUID = "497dcba3-ecbf-4587-a2dd-5eb0665e6880"

func TestAdd(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	fav := &model.Favorite{
		Identifier: testUUID,
		Format:     "uuid",
		Index:      "0",
		Note:       "first",
	}

	created, err := s.Add(ctx, fav)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if created.Identifier != testUUID {
		t.Errorf("Expected identifier %s, got %s", testUUID, created.Identifier)
	}
	if created.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt")
	}
}

func TestAddNormalizesIdentifier(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Add(ctx, &model.Favorite{Identifier: "  497DCBA3-ECBF-4587-A2DD-5EB0665E6880 ", Format: "uuid"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	has, err := s.Has(ctx, testUUID)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("Expected lower-case identifier to be starred")
	}
}

func TestAddDuplicate(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	fav := &model.Favorite{Identifier: testUUID, Format: "uuid"}

	if _, err := s.Add(ctx, fav); err != nil {
		t.Fatalf("First Add failed: %v", err)
	}
	_, err := s.Add(ctx, fav)
	if !errors.Is(err, model.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestAddInvalid(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	for _, fav := range []*model.Favorite{
		{Format: "uuid"},
		{Identifier: testUUID},
		{Identifier: testUUID, Format: "uuid", Index: "-1"},
	} {
		if _, err := s.Add(ctx, fav); err == nil {
			t.Errorf("Expected validation error for %+v", fav)
		}
	}
}

func TestGet(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Add(ctx, &model.Favorite{Identifier: testUUID, Format: "uuid", Index: "0", Note: "origin"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	retrieved, err := s.Get(ctx, testUUID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.Format != "uuid" {
		t.Errorf("Expected format uuid, got %s", retrieved.Format)
	}
	if retrieved.Note != "origin" {
		t.Errorf("Expected note 'origin', got '%s'", retrieved.Note)
	}
	if retrieved.Ordinal() == nil || retrieved.Ordinal().Sign() != 0 {
		t.Errorf("Expected ordinal 0, got %v", retrieved.Ordinal())
	}
}

func TestGetNotFound(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	_, err := s.Get(context.Background(), testUUID)
	if err != model.ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		fav := &model.Favorite{
			Identifier: fmt.Sprintf("0000-0000-0000-000%d", i),
			Format:     "card",
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := s.Add(ctx, fav); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if _, err := s.Add(ctx, &model.Favorite{Identifier: testUUID, Format: "uuid", CreatedAt: base}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	favs, err := s.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(favs) != 4 {
		t.Errorf("Expected 4 favorites, got %d", len(favs))
	}

	cards, err := s.List(ctx, ListOptions{Format: "card", Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected 2 favorites, got %d", len(cards))
	}
	if cards[0].Identifier != "0000-0000-0000-0002" {
		t.Errorf("Expected newest first, got %s", cards[0].Identifier)
	}
}

func TestRemove(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Add(ctx, &model.Favorite{Identifier: testUUID, Format: "uuid"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Remove(ctx, testUUID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	has, _ := s.Has(ctx, testUUID)
	if has {
		t.Error("Expected favorite to be gone")
	}
	if err := s.Remove(ctx, testUUID); err != model.ErrNotFound {
		t.Errorf("Expected ErrNotFound on second remove, got %v", err)
	}
}

func TestExportImport(t *testing.T) {
	s := setupTestDB(t)
	defer s.Close()

	ctx := context.Background()
	favs := []*model.Favorite{
		{Identifier: testUUID, Format: "uuid", Index: "0"},
		{Identifier: "1869-6353-0224-5296", Format: "card", Index: "12345", Note: "card"},
	}
	for _, fav := range favs {
		if _, err := s.Add(ctx, fav); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	exported, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(exported) != 2 {
		t.Errorf("Expected 2 exported favorites, got %d", len(exported))
	}

	s2 := setupTestDB(t)
	defer s2.Close()

	added, err := s2.Import(ctx, exported)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if added != 2 {
		t.Errorf("Expected 2 imported favorites, got %d", added)
	}

	got, err := s2.Get(ctx, "1869-6353-0224-5296")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Index != "12345" || got.Note != "card" {
		t.Errorf("Expected index and note to survive, got %+v", got)
	}
}

func TestImportDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "favorites.db")
	s, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Add(ctx, &model.Favorite{Identifier: testUUID, Format: "uuid", Index: "0"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	added, err := s.Import(ctx, []*model.Favorite{
		{Identifier: testUUID, Format: "uuid", Note: "imported note"},
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected no new favorites, got %d", added)
	}

	got, _ := s.Get(ctx, testUUID)
	if got.Note != "imported note" {
		t.Errorf("Expected note 'imported note', got '%s'", got.Note)
	}
	if got.Index != "0" {
		t.Errorf("Expected index to be kept, got '%s'", got.Index)
	}
}

func TestReopenKeepsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "favorites.db")
	s, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("Failed to create test storage: %v", err)
	}
	if _, err := s.Add(context.Background(), &model.Favorite{Identifier: testUUID, Format: "uuid"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer s.Close()

	has, err := s.Has(context.Background(), testUUID)
	if err != nil || !has {
		t.Errorf("Expected favorite after reopen, got %v, %v", has, err)
	}
}

func TestListMigrationsOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/010_later.sql":  {Data: []byte("SELECT 1;")},
		"migrations/002_second.sql": {Data: []byte("SELECT 1;")},
		"migrations/notes.txt":      {Data: []byte("ignored")},
		"migrations/bad_name.sql":   {Data: []byte("ignored")},
	}

	got, err := listMigrations(fsys)
	if err != nil {
		t.Fatalf("listMigrations failed: %v", err)
	}
	if len(got) != 2 || got[0].version != 2 || got[1].version != 10 {
		t.Errorf("Expected versions [2 10], got %+v", got)
	}
}

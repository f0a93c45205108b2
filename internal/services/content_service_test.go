package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/sunriver-travel/nilecms/internal/logger"
	"github.com/sunriver-travel/nilecms/internal/models"
	"github.com/sunriver-travel/nilecms/internal/registry"
	"github.com/sunriver-travel/nilecms/internal/services"
	"github.com/sunriver-travel/nilecms/internal/storage"
	"github.com/sunriver-travel/nilecms/internal/types"
)

const testCatalog = `{
  "models": [
    {
      "id": "packages",
      "name": "Packages",
      "searchFields": ["title", "summary"],
      "fields": [
        {"id": "title", "label": "Title", "type": "string", "required": true},
        {"id": "summary", "label": "Summary", "type": "text"},
        {"id": "price", "label": "Price", "type": "number", "validation": {"min": 10}},
        {"id": "heroImage", "label": "Hero Image", "type": "image"}
      ]
    },
    {
      "id": "pages",
      "name": "Pages",
      "fields": [
        {"id": "title", "label": "Title", "type": "string", "required": true}
      ]
    }
  ]
}`

// memStore is an in-memory storage.Provider that records saves and deletes.
type memStore struct {
	saved   map[string][]byte
	deleted []string
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{saved: map[string][]byte{}}
}

func (m *memStore) Save(dirHint, filename string, content []byte) (storage.StoredFile, error) {
	m.nextID++
	rel := fmt.Sprintf("%s/%d-%s", dirHint, m.nextID, filename)
	m.saved[rel] = content
	return storage.StoredFile{URL: "/uploads/" + rel, Path: rel}, nil
}

func (m *memStore) Delete(location string) error {
	rel := location
	if len(rel) > len("/uploads/") && rel[:len("/uploads/")] == "/uploads/" {
		rel = rel[len("/uploads/"):]
	}
	if _, ok := m.saved[rel]; !ok {
		return fmt.Errorf("not stored: %s", location)
	}
	delete(m.saved, rel)
	m.deleted = append(m.deleted, rel)
	return nil
}

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	// One in-memory SQLite database per connection, so pin the pool to one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.ContentItem{},
		&models.ContentVersion{},
		&models.Dahabiya{},
		&models.AvailabilityDate{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func setupContentService(t *testing.T) (*services.ContentService, *gorm.DB, *memStore) {
	db := setupTestDB(t)
	reg, err := registry.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Failed to parse test catalog: %v", err)
	}
	store := newMemStore()
	svc := services.NewContentService(db, reg, store, logger.NewNop())
	return svc, db, store
}

func snapshotCount(t *testing.T, db *gorm.DB, itemID string) int64 {
	var n int64
	if err := db.Model(&models.ContentVersion{}).
		Where("content_item_id = ?", itemID).Count(&n).Error; err != nil {
		t.Fatalf("Failed to count snapshots: %v", err)
	}
	return n
}

func TestCreateDraft(t *testing.T) {
	svc, db, _ := setupContentService(t)
	ctx := context.Background()

	item, fieldErrs, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "Luxor to Aswan", "price": float64(1200)},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if fieldErrs != nil {
		t.Fatalf("Unexpected validation errors: %v", fieldErrs)
	}

	if item.Version != 1 {
		t.Errorf("Expected version 1, got %d", item.Version)
	}
	if item.Status != models.StatusDraft {
		t.Errorf("Expected draft status, got %q", item.Status)
	}
	if item.PublishedAt != nil {
		t.Error("Expected no publish timestamp on a draft")
	}
	if item.CreatedBy != "user-1" || item.UpdatedBy != "user-1" {
		t.Errorf("Expected actor attribution, got %q/%q", item.CreatedBy, item.UpdatedBy)
	}
	if n := snapshotCount(t, db, item.ID); n != 1 {
		t.Errorf("Expected 1 snapshot, got %d", n)
	}

	data, err := item.Data.FieldMap()
	if err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data["title"] != "Luxor to Aswan" {
		t.Errorf("Expected title in data, got %v", data["title"])
	}
	if _, ok := data["status"]; ok {
		t.Error("Reserved status key must not be stored in data")
	}
}

func TestCreatePublished(t *testing.T) {
	svc, _, _ := setupContentService(t)

	item, fieldErrs, err := svc.Create(context.Background(), "packages", services.Submission{
		Fields: types.FieldMap{"title": "Esna Lock", "status": "published"},
	}, "user-1")
	if err != nil || fieldErrs != nil {
		t.Fatalf("Create failed: %v %v", err, fieldErrs)
	}
	if item.Status != models.StatusPublished {
		t.Errorf("Expected published status, got %q", item.Status)
	}
	if item.PublishedAt == nil {
		t.Error("Expected a publish timestamp")
	}
}

func TestCreateValidationFailureRollsBackFiles(t *testing.T) {
	svc, db, store := setupContentService(t)

	item, fieldErrs, err := svc.Create(context.Background(), "packages", services.Submission{
		Fields: types.FieldMap{"price": float64(2)},
		Files:  map[string]services.Upload{"heroImage": {Name: "hero.jpg", Content: []byte("img")}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create errored: %v", err)
	}
	if item != nil {
		t.Error("Expected no item on validation failure")
	}
	if fieldErrs == nil {
		t.Fatal("Expected validation errors")
	}
	if fieldErrs["title"] != "Title is required" {
		t.Errorf("Expected title required, got %q", fieldErrs["title"])
	}
	if fieldErrs["price"] != "Price must be at least 10" {
		t.Errorf("Expected price range error, got %q", fieldErrs["price"])
	}

	var n int64
	db.Model(&models.ContentItem{}).Count(&n)
	if n != 0 {
		t.Errorf("Expected no rows, got %d", n)
	}
	if len(store.saved) != 0 {
		t.Errorf("Expected stored file to be rolled back, still have %v", store.saved)
	}
}

func TestCreateUnknownModel(t *testing.T) {
	svc, _, _ := setupContentService(t)
	_, _, err := svc.Create(context.Background(), "nope", services.Submission{
		Fields: types.FieldMap{"title": "x"},
	}, "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMergePreservesAbsentFields(t *testing.T) {
	svc, db, _ := setupContentService(t)
	ctx := context.Background()

	item, _, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "Original", "summary": "Keep me", "price": float64(100)},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, fieldErrs, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"title": "Renamed"},
	}, "user-2")
	if err != nil || fieldErrs != nil {
		t.Fatalf("Update failed: %v %v", err, fieldErrs)
	}

	if updated.Version != 2 {
		t.Errorf("Expected version 2, got %d", updated.Version)
	}
	if updated.UpdatedBy != "user-2" {
		t.Errorf("Expected updated_by user-2, got %q", updated.UpdatedBy)
	}

	data, _ := updated.Data.FieldMap()
	if data["title"] != "Renamed" {
		t.Errorf("Expected new title, got %v", data["title"])
	}
	if data["summary"] != "Keep me" {
		t.Errorf("Expected absent field preserved, got %v", data["summary"])
	}
	if data["price"] != float64(100) {
		t.Errorf("Expected absent field preserved, got %v", data["price"])
	}
	if n := snapshotCount(t, db, item.ID); n != 2 {
		t.Errorf("Expected 2 snapshots, got %d", n)
	}

	// An explicit empty string overwrites, unlike an absent key.
	updated, fieldErrs, err = svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"summary": ""},
	}, "user-2")
	if err != nil || fieldErrs != nil {
		t.Fatalf("Update failed: %v %v", err, fieldErrs)
	}
	data, _ = updated.Data.FieldMap()
	if data["summary"] != "" {
		t.Errorf("Expected explicit empty to overwrite, got %v", data["summary"])
	}
}

func TestUpdateValidationFailureChangesNothing(t *testing.T) {
	svc, db, _ := setupContentService(t)
	ctx := context.Background()

	item, _, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "Stable"},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, fieldErrs, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"title": ""},
	}, "user-1")
	if err != nil {
		t.Fatalf("Update errored: %v", err)
	}
	if fieldErrs == nil || fieldErrs["title"] != "Title is required" {
		t.Fatalf("Expected title required, got %v", fieldErrs)
	}

	var reloaded models.ContentItem
	if err := db.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if reloaded.Version != 1 {
		t.Errorf("Expected version unchanged at 1, got %d", reloaded.Version)
	}
	data, _ := reloaded.Data.FieldMap()
	if data["title"] != "Stable" {
		t.Errorf("Expected data unchanged, got %v", data["title"])
	}
	if n := snapshotCount(t, db, item.ID); n != 1 {
		t.Errorf("Expected 1 snapshot, got %d", n)
	}
}

func TestUpdateReplacesStoredFile(t *testing.T) {
	svc, _, store := setupContentService(t)
	ctx := context.Background()

	item, _, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "With image"},
		Files:  map[string]services.Upload{"heroImage": {Name: "old.jpg", Content: []byte("old")}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	data, _ := item.Data.FieldMap()
	oldURL := data.String("heroImage")
	if oldURL == "" {
		t.Fatal("Expected stored image URL in data")
	}

	updated, fieldErrs, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Files: map[string]services.Upload{"heroImage": {Name: "new.jpg", Content: []byte("new")}},
	}, "user-1")
	if err != nil || fieldErrs != nil {
		t.Fatalf("Update failed: %v %v", err, fieldErrs)
	}

	data, _ = updated.Data.FieldMap()
	newURL := data.String("heroImage")
	if newURL == "" || newURL == oldURL {
		t.Errorf("Expected a new image URL, got %q", newURL)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("Expected the replaced file deleted, got %v", store.deleted)
	}
	if len(store.saved) != 1 {
		t.Errorf("Expected exactly the new file stored, got %v", store.saved)
	}
}

func TestUpdateConflict(t *testing.T) {
	svc, db, _ := setupContentService(t)
	ctx := context.Background()

	item, _, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "Contested"},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Simulate a concurrent writer landing between the read and the
	// conditional write: the first read of the item bumps the row version
	// underneath the caller.
	raced := false
	err = db.Callback().Query().After("gorm:query").Register("race_writer", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "content_items" {
			return
		}
		raced = true
		_, _ = tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE content_items SET version = version + 1 WHERE id = ?", item.ID)
	})
	if err != nil {
		t.Fatalf("Failed to register callback: %v", err)
	}
	defer db.Callback().Query().Remove("race_writer")

	_, fieldErrs, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"title": "Stale write"},
	}, "user-2")
	if fieldErrs != nil {
		t.Fatalf("Unexpected validation errors: %v", fieldErrs)
	}
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
	if !raced {
		t.Fatal("Concurrent write was never simulated")
	}

	// The losing write changed nothing and appended no snapshot.
	db.Callback().Query().Remove("race_writer")
	var reloaded models.ContentItem
	if err := db.First(&reloaded, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	data, _ := reloaded.Data.FieldMap()
	if data["title"] != "Contested" {
		t.Errorf("Expected data unchanged, got %v", data["title"])
	}
	if n := snapshotCount(t, db, item.ID); n != 1 {
		t.Errorf("Expected 1 snapshot, got %d", n)
	}
}

func TestRestore(t *testing.T) {
	svc, db, _ := setupContentService(t)
	ctx := context.Background()

	item, _, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "A"},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, fieldErrs, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"title": "B"},
	}, "user-1"); err != nil || fieldErrs != nil {
		t.Fatalf("Update failed: %v %v", err, fieldErrs)
	}
	if _, fieldErrs, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"title": "C"},
	}, "user-1"); err != nil || fieldErrs != nil {
		t.Fatalf("Update failed: %v %v", err, fieldErrs)
	}

	restored, err := svc.Restore(ctx, "packages", item.ID, 1, "user-2")
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.Version != 1 {
		t.Errorf("Expected version rewound to 1, got %d", restored.Version)
	}
	data, _ := restored.Data.FieldMap()
	if data["title"] != "A" {
		t.Errorf("Expected snapshot data, got %v", data["title"])
	}
	// Restore appends nothing: all three snapshots survive.
	if n := snapshotCount(t, db, item.ID); n != 3 {
		t.Errorf("Expected 3 snapshots, got %d", n)
	}

	// The next update lands on version 2 and overwrites the shadowed
	// snapshot instead of violating the unique (item, version) index.
	updated, fieldErrs, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"title": "B2"},
	}, "user-2")
	if err != nil || fieldErrs != nil {
		t.Fatalf("Update after restore failed: %v %v", err, fieldErrs)
	}
	if updated.Version != 2 {
		t.Errorf("Expected version 2 after restore, got %d", updated.Version)
	}
	if n := snapshotCount(t, db, item.ID); n != 3 {
		t.Errorf("Expected 3 snapshots after overwrite, got %d", n)
	}
	var snap models.ContentVersion
	if err := db.Where("content_item_id = ? AND version = ?", item.ID, 2).
		First(&snap).Error; err != nil {
		t.Fatalf("Failed to load snapshot 2: %v", err)
	}
	snapData, _ := snap.Data.FieldMap()
	if snapData["title"] != "B2" {
		t.Errorf("Expected snapshot 2 overwritten, got %v", snapData["title"])
	}
}

func TestRestoreMissingVersion(t *testing.T) {
	svc, _, _ := setupContentService(t)
	ctx := context.Background()

	item, _, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "Only one"},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Restore(ctx, "packages", item.ID, 7, "user-1"); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesHistoryAndFiles(t *testing.T) {
	svc, db, store := setupContentService(t)
	ctx := context.Background()

	item, _, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "Doomed"},
		Files:  map[string]services.Upload{"heroImage": {Name: "hero.jpg", Content: []byte("img")}},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, fieldErrs, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"summary": "more"},
	}, "user-1"); err != nil || fieldErrs != nil {
		t.Fatalf("Update failed: %v %v", err, fieldErrs)
	}

	if err := svc.Delete(ctx, "packages", item.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var n int64
	db.Model(&models.ContentItem{}).Where("id = ?", item.ID).Count(&n)
	if n != 0 {
		t.Error("Expected item deleted")
	}
	if sn := snapshotCount(t, db, item.ID); sn != 0 {
		t.Errorf("Expected snapshots deleted, got %d", sn)
	}
	if len(store.saved) != 0 {
		t.Errorf("Expected stored files deleted, still have %v", store.saved)
	}

	if err := svc.Delete(ctx, "packages", item.ID); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestVersionsNewestFirst(t *testing.T) {
	svc, _, _ := setupContentService(t)
	ctx := context.Background()

	item, _, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "v1"},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, _, err := svc.Update(ctx, "packages", item.ID, services.Submission{
		Fields: types.FieldMap{"title": "v2"},
	}, "user-1"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	versions, err := svc.Versions(ctx, "packages", item.ID)
	if err != nil {
		t.Fatalf("Versions failed: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("Expected 2 versions, got %d", len(versions))
	}
	if versions[0].Version != 2 || versions[1].Version != 1 {
		t.Errorf("Expected newest first, got %d then %d", versions[0].Version, versions[1].Version)
	}
}

func TestList(t *testing.T) {
	svc, _, _ := setupContentService(t)
	ctx := context.Background()

	titles := []struct {
		title  string
		status string
	}{
		{"Cairo Highlights", "draft"},
		{"Luxor West Bank", "published"},
		{"Aswan and Philae", "published"},
	}
	for _, it := range titles {
		if _, fieldErrs, err := svc.Create(ctx, "packages", services.Submission{
			Fields: types.FieldMap{"title": it.title, "status": it.status},
		}, "user-1"); err != nil || fieldErrs != nil {
			t.Fatalf("Create failed: %v %v", err, fieldErrs)
		}
	}

	items, total, err := svc.List(ctx, "packages", services.ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Errorf("Expected 3 items, got %d (total %d)", len(items), total)
	}

	items, total, err = svc.List(ctx, "packages", services.ListOptions{Status: "published"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("Expected 2 published items, got %d (total %d)", len(items), total)
	}

	items, total, err = svc.List(ctx, "packages", services.ListOptions{Search: "luxor"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("Expected 1 search match, got %d (total %d)", len(items), total)
	}
	data, _ := items[0].Data.FieldMap()
	if data["title"] != "Luxor West Bank" {
		t.Errorf("Unexpected match: %v", data["title"])
	}

	items, total, err = svc.List(ctx, "packages", services.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(items) != 1 {
		t.Errorf("Expected page of 1 with total 3, got %d (total %d)", len(items), total)
	}

	if _, _, err := svc.List(ctx, "nope", services.ListOptions{}); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown model, got %v", err)
	}
}

func TestBulkActions(t *testing.T) {
	svc, db, _ := setupContentService(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"One", "Two", "Three"} {
		item, fieldErrs, err := svc.Create(ctx, "packages", services.Submission{
			Fields: types.FieldMap{"title": title},
		}, "user-1")
		if err != nil || fieldErrs != nil {
			t.Fatalf("Create failed: %v %v", err, fieldErrs)
		}
		ids = append(ids, item.ID)
	}

	affected, err := svc.Bulk(ctx, "packages", services.BulkInput{
		IDs: ids[:2], Action: services.BulkPublish,
	}, "user-2")
	if err != nil {
		t.Fatalf("Bulk publish failed: %v", err)
	}
	if affected != 2 {
		t.Errorf("Expected 2 affected, got %d", affected)
	}
	var published int64
	db.Model(&models.ContentItem{}).Where("status = ?", models.StatusPublished).Count(&published)
	if published != 2 {
		t.Errorf("Expected 2 published rows, got %d", published)
	}

	affected, err = svc.Bulk(ctx, "packages", services.BulkInput{
		IDs: ids[:1], Action: services.BulkUnpublish,
	}, "user-2")
	if err != nil || affected != 1 {
		t.Fatalf("Bulk unpublish failed: %v (affected %d)", err, affected)
	}
	var first models.ContentItem
	db.First(&first, "id = ?", ids[0])
	if first.Status != models.StatusDraft || first.PublishedAt != nil {
		t.Errorf("Expected unpublished draft, got %q %v", first.Status, first.PublishedAt)
	}

	affected, err = svc.Bulk(ctx, "packages", services.BulkInput{
		IDs: ids, Action: services.BulkUpdate, Data: types.FieldMap{"summary": "shared"},
	}, "user-2")
	if err != nil || affected != 3 {
		t.Fatalf("Bulk update failed: %v (affected %d)", err, affected)
	}
	db.First(&first, "id = ?", ids[0])
	data, _ := first.Data.FieldMap()
	if data["summary"] != "shared" {
		t.Errorf("Expected shared data merged, got %v", data["summary"])
	}
	if data["title"] != "One" {
		t.Errorf("Expected existing data preserved, got %v", data["title"])
	}

	if _, err := svc.Bulk(ctx, "packages", services.BulkInput{
		IDs: ids, Action: services.BulkUpdate,
	}, "user-2"); !errors.Is(err, services.ErrInvalidAction) {
		t.Errorf("Expected ErrInvalidAction for update without data, got %v", err)
	}

	affected, err = svc.Bulk(ctx, "packages", services.BulkInput{
		IDs: ids, Action: services.BulkDelete,
	}, "user-2")
	if err != nil || affected != 3 {
		t.Fatalf("Bulk delete failed: %v (affected %d)", err, affected)
	}
	var remaining int64
	db.Model(&models.ContentItem{}).Count(&remaining)
	if remaining != 0 {
		t.Errorf("Expected no rows, got %d", remaining)
	}
	var snaps int64
	db.Model(&models.ContentVersion{}).Count(&snaps)
	if snaps != 0 {
		t.Errorf("Expected no snapshots, got %d", snaps)
	}

	if _, err := svc.Bulk(ctx, "packages", services.BulkInput{
		IDs: []string{"x"}, Action: "archive",
	}, "user-2"); !errors.Is(err, services.ErrInvalidAction) {
		t.Errorf("Expected ErrInvalidAction, got %v", err)
	}
}

func TestBulkDeleteScopedToModel(t *testing.T) {
	svc, db, _ := setupContentService(t)
	ctx := context.Background()

	item, fieldErrs, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "Wrong-model target"},
	}, "user-1")
	if err != nil || fieldErrs != nil {
		t.Fatalf("Create failed: %v %v", err, fieldErrs)
	}

	// Ids belonging to another model must not be touched, items or history.
	affected, err := svc.Bulk(ctx, "pages", services.BulkInput{
		IDs: []string{item.ID}, Action: services.BulkDelete,
	}, "user-2")
	if err != nil {
		t.Fatalf("Bulk delete failed: %v", err)
	}
	if affected != 0 {
		t.Errorf("Expected 0 affected rows, got %d", affected)
	}

	var n int64
	db.Model(&models.ContentItem{}).Where("id = ?", item.ID).Count(&n)
	if n != 1 {
		t.Error("Expected item to survive a cross-model delete")
	}
	if sn := snapshotCount(t, db, item.ID); sn != 1 {
		t.Errorf("Expected version history intact, got %d snapshots", sn)
	}
}

func TestBulkUpdateReservedStatusKey(t *testing.T) {
	svc, db, _ := setupContentService(t)
	ctx := context.Background()

	item, fieldErrs, err := svc.Create(ctx, "packages", services.Submission{
		Fields: types.FieldMap{"title": "Draft item"},
	}, "user-1")
	if err != nil || fieldErrs != nil {
		t.Fatalf("Create failed: %v %v", err, fieldErrs)
	}

	affected, err := svc.Bulk(ctx, "packages", services.BulkInput{
		IDs:    []string{item.ID},
		Action: services.BulkUpdate,
		Data:   types.FieldMap{"status": "published", "summary": "now live"},
	}, "user-2")
	if err != nil || affected != 1 {
		t.Fatalf("Bulk update failed: %v (affected %d)", err, affected)
	}

	var updated models.ContentItem
	if err := db.First(&updated, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if updated.Status != models.StatusPublished {
		t.Errorf("Expected published status, got %q", updated.Status)
	}
	if updated.PublishedAt == nil {
		t.Error("Expected a publish timestamp")
	}
	data, _ := updated.Data.FieldMap()
	if _, ok := data["status"]; ok {
		t.Error("Reserved status key must not be stored in data")
	}
	if data["summary"] != "now live" {
		t.Errorf("Expected merged data, got %v", data["summary"])
	}

	// A status-only payload is a valid bulk update.
	affected, err = svc.Bulk(ctx, "packages", services.BulkInput{
		IDs:    []string{item.ID},
		Action: services.BulkUpdate,
		Data:   types.FieldMap{"status": "draft"},
	}, "user-2")
	if err != nil || affected != 1 {
		t.Fatalf("Status-only bulk update failed: %v (affected %d)", err, affected)
	}
	var reverted models.ContentItem
	if err := db.First(&reverted, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if reverted.Status != models.StatusDraft || reverted.PublishedAt != nil {
		t.Errorf("Expected unpublished draft, got %q %v", reverted.Status, reverted.PublishedAt)
	}
}

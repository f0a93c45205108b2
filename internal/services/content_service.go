package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sunriver-travel/nilecms/internal/logger"
	"github.com/sunriver-travel/nilecms/internal/models"
	"github.com/sunriver-travel/nilecms/internal/registry"
	"github.com/sunriver-travel/nilecms/internal/storage"
	"github.com/sunriver-travel/nilecms/internal/types"
	"github.com/sunriver-travel/nilecms/internal/validation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/hints"
)

// Upload is one raw file attached to a submission, keyed by field id.
type Upload struct {
	Name    string
	Content []byte
}

// Submission is a (partial) content item write: structured field values plus
// any file attachments. For updates, fields absent from Fields are preserved.
type Submission struct {
	Fields types.FieldMap
	Files  map[string]Upload
}

// ListOptions filters and pages the admin item list.
type ListOptions struct {
	Status   string
	Search   string
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// ContentService implements the content item lifecycle: create, update,
// delete, version restore, and bulk actions, coordinating the validator,
// the version history, and best-effort file cleanup.
//
// File handling order is fixed: new files are written before the database
// transaction, replaced files are deleted only after it commits, and no
// cleanup failure is ever fatal.
type ContentService struct {
	db    *gorm.DB
	reg   *registry.Registry
	files storage.Provider
	log   *logger.Logger
}

// NewContentService wires the service dependencies.
func NewContentService(db *gorm.DB, reg *registry.Registry, files storage.Provider, log *logger.Logger) *ContentService {
	return &ContentService{db: db, reg: reg, files: files, log: log.With("service", "content")}
}

// Create validates and persists a new item with version 1 and its first
// snapshot. A non-nil FieldErrors return means validation failed (any files
// stored during this call have been rolled back).
func (s *ContentService) Create(ctx context.Context, modelID string, sub Submission, actorID string) (*models.ContentItem, types.FieldErrors, error) {
	model, ok := s.reg.Get(modelID)
	if !ok {
		return nil, nil, fmt.Errorf("content model %q: %w", modelID, ErrNotFound)
	}

	fields := sub.Fields.Clone()
	stored, err := s.storeUploads(model, sub.Files, fields)
	if err != nil {
		return nil, nil, err
	}

	status := extractStatus(fields, models.StatusDraft)

	if errs := validation.Validate(fields, model); errs != nil {
		s.cleanupFiles(stored, "create validation rollback")
		return nil, errs, nil
	}

	data, err := models.JSONFrom(fields)
	if err != nil {
		s.cleanupFiles(stored, "create encode rollback")
		return nil, nil, err
	}

	now := time.Now().UTC()
	item := models.ContentItem{
		ID:        uuid.NewString(),
		ModelID:   model.ID,
		Data:      data,
		Status:    status,
		Version:   1,
		CreatedBy: actorID,
		UpdatedBy: actorID,
	}
	if status == models.StatusPublished {
		item.PublishedAt = &now
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		snap := models.ContentVersion{
			ContentItemID: item.ID,
			Version:       1,
			Data:          data,
			CreatedBy:     actorID,
		}
		return tx.Create(&snap).Error
	})
	if err != nil {
		s.cleanupFiles(stored, "create transaction rollback")
		return nil, nil, err
	}

	return &item, nil, nil
}

// Update applies a partial submission: new files are stored first, submitted
// fields are shallow-merged onto the current data (absent keys preserved,
// explicit empties overwrite), the merged record is validated, and the write
// is conditional on the version the merge was based on: a concurrent update
// surfaces as ErrConflict instead of silently losing the interleaved write.
// Replaced files are deleted only after the transaction commits.
func (s *ContentService) Update(ctx context.Context, modelID, itemID string, sub Submission, actorID string) (*models.ContentItem, types.FieldErrors, error) {
	model, ok := s.reg.Get(modelID)
	if !ok {
		return nil, nil, fmt.Errorf("content model %q: %w", modelID, ErrNotFound)
	}

	var item models.ContentItem
	if err := s.db.WithContext(ctx).
		Where("id = ? AND model_id = ?", itemID, modelID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("content item %q: %w", itemID, ErrNotFound)
		}
		return nil, nil, err
	}
	baseVersion := item.Version

	current, err := item.Data.FieldMap()
	if err != nil {
		return nil, nil, err
	}

	// Store new files before touching the database; remember what they
	// replace. A file field with no new upload keeps its old value through
	// the merge; old files are deleted only when replaced, never when the
	// field is simply omitted.
	fields := sub.Fields.Clone()
	var newFiles, replaced []string
	for _, f := range model.UploadFields() {
		up, ok := sub.Files[f.ID]
		if !ok {
			continue
		}
		if old := current.String(f.ID); old != "" {
			replaced = append(replaced, old)
		}
		sf, err := s.files.Save(model.ID, up.Name, up.Content)
		if err != nil {
			s.cleanupFiles(newFiles, "update upload rollback")
			return nil, nil, err
		}
		newFiles = append(newFiles, sf.Path)
		fields[f.ID] = sf.URL
	}

	status := extractStatus(fields, item.Status)
	merged := current.Merge(fields)

	if errs := validation.Validate(merged, model); errs != nil {
		s.cleanupFiles(newFiles, "update validation rollback")
		return nil, errs, nil
	}

	data, err := models.JSONFrom(merged)
	if err != nil {
		s.cleanupFiles(newFiles, "update encode rollback")
		return nil, nil, err
	}

	publishedAt := item.PublishedAt
	switch status {
	case models.StatusPublished:
		if publishedAt == nil {
			now := time.Now().UTC()
			publishedAt = &now
		}
	case models.StatusDraft:
		publishedAt = nil
	}

	newVersion := baseVersion + 1
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ContentItem{}).
			Where("id = ? AND version = ?", item.ID, baseVersion).
			Updates(map[string]interface{}{
				"data":         data,
				"status":       status,
				"published_at": publishedAt,
				"version":      newVersion,
				"updated_by":   actorID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		// Upsert rather than insert: after a restore the next version number
		// can collide with a snapshot shadowed by the restore, which this
		// overwrites.
		snap := models.ContentVersion{
			ContentItemID: item.ID,
			Version:       newVersion,
			Data:          data,
			CreatedBy:     actorID,
			CreatedAt:     time.Now().UTC(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "content_item_id"}, {Name: "version"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "created_by", "created_at"}),
		}).Create(&snap).Error
	})
	if err != nil {
		s.cleanupFiles(newFiles, "update transaction rollback")
		return nil, nil, err
	}

	// Committed: the replaced files are now unreferenced.
	s.cleanupFiles(replaced, "replaced file")

	if err := s.db.WithContext(ctx).First(&item, "id = ?", item.ID).Error; err != nil {
		return nil, nil, err
	}
	return &item, nil, nil
}

// Get loads one item scoped to its model.
func (s *ContentService) Get(ctx context.Context, modelID, itemID string) (*models.ContentItem, error) {
	if _, ok := s.reg.Get(modelID); !ok {
		return nil, fmt.Errorf("content model %q: %w", modelID, ErrNotFound)
	}
	var item models.ContentItem
	if err := s.db.WithContext(ctx).
		Where("id = ? AND model_id = ?", itemID, modelID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content item %q: %w", itemID, ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

// Versions returns an item's snapshot history, newest first.
func (s *ContentService) Versions(ctx context.Context, modelID, itemID string) ([]models.ContentVersion, error) {
	if _, err := s.Get(ctx, modelID, itemID); err != nil {
		return nil, err
	}
	var versions []models.ContentVersion
	if err := s.db.WithContext(ctx).
		Where("content_item_id = ?", itemID).
		Order("version DESC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// List returns items for a model with optional status filter, search over
// the model's searchFields, sorting, and paging. The second return is the
// total match count before paging.
func (s *ContentService) List(ctx context.Context, modelID string, opts ListOptions) ([]models.ContentItem, int64, error) {
	model, ok := s.reg.Get(modelID)
	if !ok {
		return nil, 0, fmt.Errorf("content model %q: %w", modelID, ErrNotFound)
	}

	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.ContentItem{}).
			Clauses(hints.CommentBefore("select", "admin-content-list")).
			Where("model_id = ?", modelID)
		if opts.Status != "" {
			q = q.Where("status = ?", opts.Status)
		}
		return q
	}

	order := sortColumn(opts.SortBy)
	if opts.SortDesc {
		order += " DESC"
	}

	if opts.Search == "" {
		var total int64
		if err := base().Count(&total).Error; err != nil {
			return nil, 0, err
		}
		var items []models.ContentItem
		q := base().Order(order)
		if opts.Limit > 0 {
			q = q.Limit(opts.Limit).Offset(opts.Offset)
		}
		if err := q.Find(&items).Error; err != nil {
			return nil, 0, err
		}
		return items, total, nil
	}

	// Search runs over the model's searchFields inside the JSON data, which
	// has no portable SQL shape across the supported dialects; admin lists
	// are small enough to filter here.
	var all []models.ContentItem
	if err := base().Order(order).Find(&all).Error; err != nil {
		return nil, 0, err
	}
	matched := all[:0]
	needle := strings.ToLower(opts.Search)
	for _, it := range all {
		data, err := it.Data.FieldMap()
		if err != nil {
			continue
		}
		for _, sf := range model.SearchFields {
			if strings.Contains(strings.ToLower(data.String(sf)), needle) {
				matched = append(matched, it)
				break
			}
		}
	}
	total := int64(len(matched))
	if opts.Limit > 0 {
		start := opts.Offset
		if start > len(matched) {
			start = len(matched)
		}
		end := start + opts.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

// Delete removes the item and its entire version history in one transaction,
// after best-effort deletion of every stored file the item references. File
// deletion failures are logged and never roll back the database delete.
func (s *ContentService) Delete(ctx context.Context, modelID, itemID string) error {
	model, ok := s.reg.Get(modelID)
	if !ok {
		return fmt.Errorf("content model %q: %w", modelID, ErrNotFound)
	}

	var item models.ContentItem
	if err := s.db.WithContext(ctx).
		Where("id = ? AND model_id = ?", itemID, modelID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("content item %q: %w", itemID, ErrNotFound)
		}
		return err
	}

	s.cleanupItemFiles(model, &item)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_item_id = ?", item.ID).
			Delete(&models.ContentVersion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
}

// Restore rewinds the item's data and version counter to a past snapshot.
// It appends no new snapshot and skips re-validation: a previously valid
// snapshot is trusted against the current model.
func (s *ContentService) Restore(ctx context.Context, modelID, itemID string, version uint64, actorID string) (*models.ContentItem, error) {
	item, err := s.Get(ctx, modelID, itemID)
	if err != nil {
		return nil, err
	}

	var snap models.ContentVersion
	if err := s.db.WithContext(ctx).
		Where("content_item_id = ? AND version = ?", itemID, version).
		First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("version %d of item %q: %w", version, itemID, ErrNotFound)
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"data":       snap.Data,
			"version":    snap.Version,
			"updated_by": actorID,
		}).Error; err != nil {
		return nil, err
	}

	var out models.ContentItem
	if err := s.db.WithContext(ctx).First(&out, "id = ?", item.ID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// storeUploads saves each submitted file for an upload-typed field and
// writes the stored URL into fields. On a mid-way failure, already stored
// files are removed.
func (s *ContentService) storeUploads(model *registry.ContentModel, files map[string]Upload, fields types.FieldMap) ([]string, error) {
	var stored []string
	for _, f := range model.UploadFields() {
		up, ok := files[f.ID]
		if !ok {
			continue
		}
		sf, err := s.files.Save(model.ID, up.Name, up.Content)
		if err != nil {
			s.cleanupFiles(stored, "upload rollback")
			return nil, err
		}
		stored = append(stored, sf.Path)
		fields[f.ID] = sf.URL
	}
	return stored, nil
}

// cleanupItemFiles best-effort deletes every stored file an item references.
func (s *ContentService) cleanupItemFiles(model *registry.ContentModel, item *models.ContentItem) {
	data, err := item.Data.FieldMap()
	if err != nil {
		s.log.Warn("decode item data for file cleanup", "item", item.ID, "error", err)
		return
	}
	var locations []string
	for _, f := range model.UploadFields() {
		if loc := data.String(f.ID); loc != "" {
			locations = append(locations, loc)
		}
	}
	s.cleanupFiles(locations, "item delete")
}

// cleanupFiles deletes stored files best-effort; failures are logged, never
// propagated.
func (s *ContentService) cleanupFiles(locations []string, reason string) {
	for _, loc := range locations {
		if err := s.files.Delete(loc); err != nil {
			s.log.Warn("file cleanup failed", "location", loc, "reason", reason, "error", err)
		}
	}
}

// extractStatus pulls the reserved "status" key out of a submission's
// fields, falling back to the given default for anything else.
func extractStatus(fields types.FieldMap, fallback string) string {
	st := fields.String("status")
	delete(fields, "status")
	if st == models.StatusPublished || st == models.StatusDraft {
		return st
	}
	return fallback
}

// sortColumn whitelists sortable columns; unknown keys fall back to the
// creation time.
func sortColumn(key string) string {
	switch key {
	case "updatedAt":
		return "updated_at"
	case "publishedAt":
		return "published_at"
	case "version":
		return "version"
	case "status":
		return "status"
	case "createdAt", "":
		return "created_at"
	default:
		return "created_at"
	}
}

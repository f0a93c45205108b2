package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sunriver-travel/nilecms/internal/models"
	"github.com/sunriver-travel/nilecms/internal/types"
	"gorm.io/gorm"
)

// Bulk action names.
const (
	BulkPublish   = "publish"
	BulkUnpublish = "unpublish"
	BulkDelete    = "delete"
	BulkUpdate    = "update"
)

// BulkInput selects the items and the mutation to apply to all of them.
// Data is only consulted for the update action.
type BulkInput struct {
	IDs    []string
	Action string
	Data   types.FieldMap
}

// Bulk applies one action to every matching item of the model and returns
// the affected row count. Database work happens in one batch (one statement
// for publish/unpublish, one transaction for delete/update); file cleanup
// for delete is per-item and best-effort; one item's cleanup failure never
// blocks the rest or the batch delete.
func (s *ContentService) Bulk(ctx context.Context, modelID string, input BulkInput, actorID string) (int64, error) {
	model, ok := s.reg.Get(modelID)
	if !ok {
		return 0, fmt.Errorf("content model %q: %w", modelID, ErrNotFound)
	}
	if len(input.IDs) == 0 {
		return 0, nil
	}

	scope := func(tx *gorm.DB) *gorm.DB {
		return tx.WithContext(ctx).Model(&models.ContentItem{}).
			Where("model_id = ? AND id IN ?", modelID, input.IDs)
	}

	switch input.Action {
	case BulkPublish:
		now := time.Now().UTC()
		res := scope(s.db).Updates(map[string]interface{}{
			"status":       models.StatusPublished,
			"published_at": now,
			"updated_by":   actorID,
		})
		return res.RowsAffected, res.Error

	case BulkUnpublish:
		res := scope(s.db).Updates(map[string]interface{}{
			"status":       models.StatusDraft,
			"published_at": nil,
			"updated_by":   actorID,
		})
		return res.RowsAffected, res.Error

	case BulkDelete:
		// Resolve the model-scoped ids up front so snapshot deletion cannot
		// touch items that belong to another model.
		var items []models.ContentItem
		if err := s.db.WithContext(ctx).
			Where("model_id = ? AND id IN ?", modelID, input.IDs).
			Find(&items).Error; err != nil {
			return 0, err
		}
		if len(items) == 0 {
			return 0, nil
		}
		ids := make([]string, len(items))
		for i := range items {
			s.cleanupItemFiles(model, &items[i])
			ids[i] = items[i].ID
		}
		var affected int64
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("content_item_id IN ?", ids).
				Delete(&models.ContentVersion{}).Error; err != nil {
				return err
			}
			res := tx.Where("id IN ?", ids).Delete(&models.ContentItem{})
			affected = res.RowsAffected
			return res.Error
		})
		return affected, err

	case BulkUpdate:
		// The reserved "status" key moves items between draft and published
		// and is never stored inside data, same as the single-item paths.
		shared := input.Data.Clone()
		status := shared.String("status")
		delete(shared, "status")
		if status != models.StatusPublished && status != models.StatusDraft {
			status = ""
		}
		if len(shared) == 0 && status == "" {
			return 0, fmt.Errorf("%w: update requires data", ErrInvalidAction)
		}
		// Shared data is shallow-merged onto each item inside one
		// transaction. Like the dashboard's original batch path this skips
		// the validator and the version history.
		var affected int64
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var items []models.ContentItem
			if err := tx.Where("model_id = ? AND id IN ?", modelID, input.IDs).
				Find(&items).Error; err != nil {
				return err
			}
			now := time.Now().UTC()
			for i := range items {
				updates := map[string]interface{}{"updated_by": actorID}
				if len(shared) > 0 {
					current, err := items[i].Data.FieldMap()
					if err != nil {
						return err
					}
					data, err := models.JSONFrom(current.Merge(shared))
					if err != nil {
						return err
					}
					updates["data"] = data
				}
				switch status {
				case models.StatusPublished:
					updates["status"] = status
					if items[i].PublishedAt == nil {
						updates["published_at"] = now
					}
				case models.StatusDraft:
					updates["status"] = status
					updates["published_at"] = nil
				}
				res := tx.Model(&models.ContentItem{}).
					Where("id = ?", items[i].ID).
					Updates(updates)
				if res.Error != nil {
					return res.Error
				}
				affected += res.RowsAffected
			}
			return nil
		})
		return affected, err

	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAction, input.Action)
	}
}

package repository

import (
	"time"

	"github.com/hendrik2009/hearo-backend/internal/app/model"
	"github.com/hendrik2009/hearo-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagBindingRepository persists the tag UID -> playlist binding rows
type TagBindingRepository interface {
	FindByUID(uid string) (*model.TagBinding, error)
	FindByPlaylistURI(playlistURI string) ([]model.TagBinding, error)
	FindAll() ([]model.TagBinding, error)
	Count() (int64, error)
	LatestUpdate() (int64, error)
	Upsert(binding *model.TagBinding) error
	BulkUpsert(bindings []model.TagBinding) error
}

type tagBindingRepository struct {
	db *gorm.DB
}

// NewTagBindingRepository creates a tag binding repository
func NewTagBindingRepository(db *gorm.DB) TagBindingRepository {
	return &tagBindingRepository{db: db}
}

// bindingColumns are the columns overwritten on conflict by uid. The
// conflict clause replaces the full field set, never a partial merge.
var bindingColumns = []string{"playlist_uri", "last_track_uri", "last_pos_ms", "updated_at"}

// FindByUID returns the binding for a tag, or nil when the tag is unbound
func (r *tagBindingRepository) FindByUID(uid string) (*model.TagBinding, error) {
	var binding model.TagBinding
	if err := r.db.Where("uid = ?", uid).First(&binding).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.Error("Failed to find binding by uid", err, map[string]interface{}{
			"uid": uid,
		})
		return nil, err
	}
	return &binding, nil
}

// FindByPlaylistURI returns every binding currently pointing at a playlist
func (r *tagBindingRepository) FindByPlaylistURI(playlistURI string) ([]model.TagBinding, error) {
	var bindings []model.TagBinding
	if err := r.db.Where("playlist_uri = ?", playlistURI).
		Order("uid ASC").
		Find(&bindings).Error; err != nil {
		logger.Error("Failed to find bindings by playlist", err, map[string]interface{}{
			"playlist_uri": playlistURI,
		})
		return nil, err
	}
	return bindings, nil
}

// FindAll returns all bindings ordered by uid
func (r *tagBindingRepository) FindAll() ([]model.TagBinding, error) {
	var bindings []model.TagBinding
	if err := r.db.Order("uid ASC").Find(&bindings).Error; err != nil {
		logger.Error("Failed to find all bindings", err)
		return nil, err
	}
	return bindings, nil
}

// Count returns the number of bound tags
func (r *tagBindingRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&model.TagBinding{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count bindings", err)
		return 0, err
	}
	return count, nil
}

// LatestUpdate returns the most recent updated_at across all rows,
// or 0 when the table is empty
func (r *tagBindingRepository) LatestUpdate() (int64, error) {
	var latest *int64
	if err := r.db.Model(&model.TagBinding{}).
		Select("MAX(updated_at)").
		Scan(&latest).Error; err != nil {
		logger.Error("Failed to read latest binding update", err)
		return 0, err
	}
	if latest == nil {
		return 0, nil
	}
	return *latest, nil
}

// Upsert inserts the binding or overwrites the existing row for its uid.
// The write is atomic: concurrent callers never observe a row mixing
// fields from two calls.
func (r *tagBindingRepository) Upsert(binding *model.TagBinding) error {
	binding.UpdatedAt = time.Now().Unix()

	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns(bindingColumns),
	}).Create(binding).Error; err != nil {
		logger.Error("Failed to upsert binding", err, map[string]interface{}{
			"uid": binding.UID,
		})
		return err
	}
	return nil
}

// BulkUpsert applies a whole batch as one transaction. Either every row
// is upserted with the same load timestamp or none of them is.
func (r *tagBindingRepository) BulkUpsert(bindings []model.TagBinding) error {
	loadTime := time.Now().Unix()

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for i := range bindings {
			bindings[i].UpdatedAt = loadTime
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "uid"}},
				DoUpdates: clause.AssignmentColumns(bindingColumns),
			}).Create(&bindings[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to bulk upsert bindings", err, map[string]interface{}{
			"count": len(bindings),
		})
		return err
	}
	return nil
}

package repository

import (
	"fmt"
	"sort"
	"time"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/camden-git/photovaultbackend/database"
	"github.com/camden-git/photovaultbackend/models"
)

// PhotoRepository handles database operations for Photo entities
type PhotoRepository struct {
	DB *gorm.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository
func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

// Create creates a new photo record in the database
func (r *PhotoRepository) Create(photo *models.Photo) error {
	if photo.UploadedAt == 0 {
		photo.UploadedAt = time.Now().Unix()
	}
	err := r.DB.Create(photo).Error
	if err != nil {
		return fmt.Errorf("failed to create photo %s: %w", photo.OriginalFileName, err)
	}
	return nil
}

// GetByID retrieves a photo by its ID
func (r *PhotoRepository) GetByID(id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.DB.First(&photo, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo by ID %d: %w", id, err)
	}
	return &photo, nil
}

// GetByIDs retrieves all photos matching the given IDs. missing IDs are
// silently absent from the result
func (r *PhotoRepository) GetByIDs(ids []uint) ([]models.Photo, error) {
	if len(ids) == 0 {
		return []models.Photo{}, nil
	}
	var photos []models.Photo
	err := r.DB.Where("id IN ?", ids).Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get photos by IDs: %w", err)
	}
	return photos, nil
}

// ListByAlbum retrieves all photos in an album, ordered per sortOrder
func (r *PhotoRepository) ListByAlbum(albumID uint, sortOrder string) ([]models.Photo, error) {
	if !database.IsValidSortOrder(sortOrder) {
		sortOrder = database.DefaultSortOrder
	}

	query := r.DB.Where("album_id = ?", albumID)
	switch sortOrder {
	case database.SortUploadedAsc:
		query = query.Order("uploaded_at ASC, id ASC")
	case database.SortFilenameAsc, database.SortFilenameNat:
		query = query.Order("original_file_name ASC")
	default:
		query = query.Order("uploaded_at DESC, id DESC")
	}

	var photos []models.Photo
	err := query.Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photos for album ID %d: %w", albumID, err)
	}

	// natural ordering is not expressible in SQL, so re-sort in process
	if sortOrder == database.SortFilenameNat {
		sort.SliceStable(photos, func(i, j int) bool {
			return natsort.Compare(photos[i].OriginalFileName, photos[j].OriginalFileName)
		})
	}
	return photos, nil
}

// UpdateFileName renames a photo's user-facing original file name
func (r *PhotoRepository) UpdateFileName(photoID uint, originalFileName string) error {
	result := r.DB.Model(&models.Photo{}).Where("id = ?", photoID).
		UpdateColumn("original_file_name", originalFileName)
	if result.Error != nil {
		return fmt.Errorf("failed to rename photo ID %d: %w", photoID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateAlbum re-points a single photo at another album. the caller is
// responsible for the matching counter adjustments
func (r *PhotoRepository) UpdateAlbum(photoID uint, albumID uint) error {
	result := r.DB.Model(&models.Photo{}).Where("id = ?", photoID).
		UpdateColumn("album_id", albumID)
	if result.Error != nil {
		return fmt.Errorf("failed to move photo ID %d to album ID %d: %w", photoID, albumID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// BulkReassign sets album_id on all matched photos in one statement,
// excluding photos already in the target album so the operation is an
// idempotent no-op for them. returns the number of rows actually changed
func (r *PhotoRepository) BulkReassign(photoIDs []uint, targetAlbumID uint) (int64, error) {
	if len(photoIDs) == 0 {
		return 0, nil
	}
	result := r.DB.Model(&models.Photo{}).
		Where("id IN ? AND album_id <> ?", photoIDs, targetAlbumID).
		UpdateColumn("album_id", targetAlbumID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to bulk reassign photos to album ID %d: %w", targetAlbumID, result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes a photo by its ID
func (r *PhotoRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Photo{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete photo ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

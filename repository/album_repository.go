package repository

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/photovaultbackend/models"
)

// AlbumRepository handles database operations for Album entities
type AlbumRepository struct {
	DB *gorm.DB
}

// NewAlbumRepository creates a new instance of AlbumRepository
func NewAlbumRepository(db *gorm.DB) *AlbumRepository {
	return &AlbumRepository{DB: db}
}

// Create creates a new album record in the database
func (r *AlbumRepository) Create(album *models.Album) error {
	album.Name = strings.TrimSpace(album.Name)
	if album.CreatedAt == 0 {
		album.CreatedAt = time.Now().Unix()
	}

	err := r.DB.Create(album).Error
	if err != nil {
		return fmt.Errorf("failed to create album %s: %w", album.Name, err)
	}
	return nil
}

// ListAll retrieves all albums, newest first
func (r *AlbumRepository) ListAll() ([]models.Album, error) {
	var albums []models.Album
	err := r.DB.Order("created_at DESC, id DESC").Find(&albums).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return albums, nil
}

// GetByID retrieves an album by its ID
func (r *AlbumRepository) GetByID(id uint) (*models.Album, error) {
	var album models.Album
	err := r.DB.First(&album, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get album by ID %d: %w", id, err)
	}
	return &album, nil
}

// GetByName retrieves an album by its unique name
func (r *AlbumRepository) GetByName(name string) (*models.Album, error) {
	var album models.Album
	err := r.DB.Where("name = ?", name).First(&album).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get album by name %s: %w", name, err)
	}
	return &album, nil
}

// EnsureDefaultAlbum returns the reserved default album, creating it lazily
// if it does not exist yet
func (r *AlbumRepository) EnsureDefaultAlbum() (*models.Album, error) {
	var album models.Album
	err := r.DB.Where(models.Album{Name: models.DefaultAlbumName}).
		Attrs(models.Album{CreatedAt: time.Now().Unix()}).
		FirstOrCreate(&album).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure default album: %w", err)
	}
	return &album, nil
}

// Update updates an existing album's name and/or cover URL
// photo_count is owned by IncrementPhotoCount and never touched here
func (r *AlbumRepository) Update(albumID uint, name *string, coverURL *string) error {
	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = strings.TrimSpace(*name)
	}
	if coverURL != nil {
		updates["cover_url"] = *coverURL
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.DB.Model(&models.Album{}).Where("id = ?", albumID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update album ID %d: %w", albumID, result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		r.DB.Model(&models.Album{}).Where("id = ?", albumID).Count(&count)
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// IncrementPhotoCount atomically adjusts the denormalized photo counter.
// the delta is applied in a single UPDATE so concurrent callers never lose
// an increment to a read-then-write race
func (r *AlbumRepository) IncrementPhotoCount(albumID uint, delta int64) error {
	if delta == 0 {
		return nil
	}
	result := r.DB.Model(&models.Album{}).Where("id = ?", albumID).
		UpdateColumn("photo_count", gorm.Expr("photo_count + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to adjust photo count for album ID %d by %d: %w", albumID, delta, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCoverIfEmpty sets the album cover only if no cover is set yet
func (r *AlbumRepository) SetCoverIfEmpty(albumID uint, coverURL string) error {
	result := r.DB.Model(&models.Album{}).
		Where("id = ? AND cover_url = ''", albumID).
		UpdateColumn("cover_url", coverURL)
	if result.Error != nil {
		return fmt.Errorf("failed to set cover for album ID %d: %w", albumID, result.Error)
	}
	return nil
}

// Delete removes an album by its ID
func (r *AlbumRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Album{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete album ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteWithReassignment re-points all member photos at the default album,
// credits the default album's counter, then deletes the album row. the steps
// run in exactly that order so a crash mid-way leaves photos pointing at a
// surviving album rather than orphaned
func (r *AlbumRepository) DeleteWithReassignment(albumID, defaultAlbumID uint) (int64, error) {
	result := r.DB.Model(&models.Photo{}).
		Where("album_id = ?", albumID).
		UpdateColumn("album_id", defaultAlbumID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reassign photos from album ID %d: %w", albumID, result.Error)
	}
	reassigned := result.RowsAffected

	if reassigned > 0 {
		if err := r.IncrementPhotoCount(defaultAlbumID, reassigned); err != nil {
			return reassigned, fmt.Errorf("failed to credit default album after reassignment: %w", err)
		}
	}

	if err := r.Delete(albumID); err != nil {
		return reassigned, err
	}
	return reassigned, nil
}

package repository

import (
	"github.com/camden-git/photovaultbackend/models"
)

// AlbumRepositoryInterface defines the methods for album data operations
type AlbumRepositoryInterface interface {
	Create(album *models.Album) error
	ListAll() ([]models.Album, error)
	GetByID(id uint) (*models.Album, error)
	GetByName(name string) (*models.Album, error)
	Update(albumID uint, name *string, coverURL *string) error
	Delete(id uint) error

	// EnsureDefaultAlbum returns the reserved default album, creating it if
	// it does not exist yet
	EnsureDefaultAlbum() (*models.Album, error)

	// IncrementPhotoCount applies an atomic delta to the denormalized
	// photo_count column; it must never be implemented as read-modify-write
	IncrementPhotoCount(albumID uint, delta int64) error

	// SetCoverIfEmpty sets the cover URL only when no cover is set yet
	SetCoverIfEmpty(albumID uint, coverURL string) error

	// DeleteWithReassignment re-points all member photos at the default
	// album, credits its counter, then deletes the album, in that order.
	// returns the number of photos reassigned
	DeleteWithReassignment(albumID, defaultAlbumID uint) (int64, error)
}

// PhotoRepositoryInterface defines the methods for photo data operations
type PhotoRepositoryInterface interface {
	Create(photo *models.Photo) error
	GetByID(id uint) (*models.Photo, error)
	GetByIDs(ids []uint) ([]models.Photo, error)
	ListByAlbum(albumID uint, sortOrder string) ([]models.Photo, error)
	UpdateFileName(photoID uint, originalFileName string) error
	UpdateAlbum(photoID uint, albumID uint) error

	// BulkReassign sets album_id on all matched photos not already in the
	// target album; returns the number of rows actually changed
	BulkReassign(photoIDs []uint, targetAlbumID uint) (int64, error)

	Delete(id uint) error
}

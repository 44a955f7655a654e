package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/camden-git/photovaultbackend/blobstore"
	"github.com/camden-git/photovaultbackend/models"
	"github.com/camden-git/photovaultbackend/repository"
)

type PhotoHandler struct {
	Photos repository.PhotoRepositoryInterface
	Albums repository.AlbumRepositoryInterface
	Blobs  blobstore.Store
}

// UpdatePhoto renames a photo's user-facing file name
func (ph *PhotoHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := parseIDParam(r, "photo_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid photo id")
		return
	}

	var req struct {
		OriginalFileName string `json:"original_file_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}
	name := strings.TrimSpace(req.OriginalFileName)
	if name == "" {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "original_file_name must not be blank")
		return
	}

	if err := ph.Photos.UpdateFileName(photoID, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Photo not found")
		} else {
			log.Printf("Error renaming photo %d: %v", photoID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to rename photo")
		}
		return
	}

	photo, err := ph.Photos.GetByID(photoID)
	if err != nil {
		log.Printf("Error fetching renamed photo %d: %v", photoID, err)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Photo renamed successfully"})
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

// MovePhoto re-points a single photo at another album, keeping both albums'
// counters consistent via atomic increments. moving a photo into the album
// it already lives in is a no-op
func (ph *PhotoHandler) MovePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := parseIDParam(r, "photo_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid photo id")
		return
	}

	var req struct {
		TargetAlbumID uint `json:"target_album_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}
	if req.TargetAlbumID == 0 {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "target_album_id is required")
		return
	}

	photo, err := ph.Photos.GetByID(photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Photo not found")
		} else {
			log.Printf("Error getting photo %d for move: %v", photoID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve photo")
		}
		return
	}

	if photo.AlbumID == req.TargetAlbumID {
		writeJSON(w, http.StatusOK, photo)
		return
	}

	if _, err := ph.Albums.GetByID(req.TargetAlbumID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Target album not found")
		} else {
			log.Printf("Error getting target album %d for move: %v", req.TargetAlbumID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve target album")
		}
		return
	}

	sourceAlbumID := photo.AlbumID
	if err := ph.Photos.UpdateAlbum(photoID, req.TargetAlbumID); err != nil {
		log.Printf("Error moving photo %d to album %d: %v", photoID, req.TargetAlbumID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to move photo")
		return
	}

	if err := ph.Albums.IncrementPhotoCount(sourceAlbumID, -1); err != nil {
		log.Printf("Error decrementing photo count for album %d: %v", sourceAlbumID, err)
	}
	if err := ph.Albums.IncrementPhotoCount(req.TargetAlbumID, 1); err != nil {
		log.Printf("Error incrementing photo count for album %d: %v", req.TargetAlbumID, err)
	}

	photo.AlbumID = req.TargetAlbumID
	writeJSON(w, http.StatusOK, photo)
}

// DeletePhoto deletes the backing blob first, then the catalog record, then
// decrements the album counter. the record survives a failed blob delete so
// the photo is never silently lost
func (ph *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	photoID, err := parseIDParam(r, "photo_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid photo id")
		return
	}

	photo, err := ph.Photos.GetByID(photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Photo not found")
		} else {
			log.Printf("Error getting photo %d for delete: %v", photoID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve photo")
		}
		return
	}

	if err := ph.deleteOne(r, photo); err != nil {
		log.Printf("Error deleting photo %d: %v", photoID, err)
		WriteAPIError(w, http.StatusInternalServerError, "upstream_failure", "Failed to delete photo")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

// deleteOne removes one photo's blob, record, and counter contribution, in
// that order
func (ph *PhotoHandler) deleteOne(r *http.Request, photo *models.Photo) error {
	if err := ph.Blobs.Delete(r.Context(), photo.StorageFileName); err != nil {
		return err
	}
	if err := ph.Photos.Delete(photo.ID); err != nil {
		return err
	}
	if err := ph.Albums.IncrementPhotoCount(photo.AlbumID, -1); err != nil {
		log.Printf("Error decrementing photo count for album %d: %v", photo.AlbumID, err)
	}
	return nil
}

type bulkItemFailure struct {
	PhotoID uint   `json:"photo_id"`
	Error   string `json:"error"`
}

// BulkDeletePhotos deletes many photos sequentially, collecting per-item
// results instead of aborting on first failure. sequential processing bounds
// load on the object store
func (ph *PhotoHandler) BulkDeletePhotos(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoIDs []uint `json:"photo_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}
	if len(req.PhotoIDs) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "photo_ids must not be empty")
		return
	}

	photos, err := ph.Photos.GetByIDs(req.PhotoIDs)
	if err != nil {
		log.Printf("Error fetching photos for bulk delete: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve photos")
		return
	}

	found := make(map[uint]*models.Photo, len(photos))
	for i := range photos {
		found[photos[i].ID] = &photos[i]
	}

	deleted := []uint{}
	failed := []bulkItemFailure{}
	for _, id := range req.PhotoIDs {
		photo, ok := found[id]
		if !ok {
			failed = append(failed, bulkItemFailure{PhotoID: id, Error: "photo not found"})
			continue
		}
		if err := ph.deleteOne(r, photo); err != nil {
			log.Printf("Bulk delete: failed for photo %d: %v", id, err)
			failed = append(failed, bulkItemFailure{PhotoID: id, Error: err.Error()})
			continue
		}
		deleted = append(deleted, id)
	}

	status := http.StatusOK
	if len(deleted) == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]interface{}{
		"deleted": deleted,
		"failed":  failed,
	})
}

// BulkMovePhotos re-points many photos at one target album in two phases:
// one bulk reassignment excluding photos already in the target, then one
// aggregate counter delta per distinct source album plus one credit on the
// target. this avoids a counter round-trip per photo
func (ph *PhotoHandler) BulkMovePhotos(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoIDs      []uint `json:"photo_ids"`
		TargetAlbumID uint   `json:"target_album_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}
	if len(req.PhotoIDs) == 0 || req.TargetAlbumID == 0 {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "photo_ids and target_album_id are required")
		return
	}

	if _, err := ph.Albums.GetByID(req.TargetAlbumID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Target album not found")
		} else {
			log.Printf("Error getting target album %d for bulk move: %v", req.TargetAlbumID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve target album")
		}
		return
	}

	photos, err := ph.Photos.GetByIDs(req.PhotoIDs)
	if err != nil {
		log.Printf("Error fetching photos for bulk move: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve photos")
		return
	}

	// partition the photos that will actually move by their source album
	sourceCounts := make(map[uint]int64)
	var moveIDs []uint
	for _, p := range photos {
		if p.AlbumID == req.TargetAlbumID {
			continue
		}
		sourceCounts[p.AlbumID]++
		moveIDs = append(moveIDs, p.ID)
	}

	if len(moveIDs) == 0 {
		writeJSON(w, http.StatusOK, map[string]int64{"moved": 0})
		return
	}

	moved, err := ph.Photos.BulkReassign(moveIDs, req.TargetAlbumID)
	if err != nil {
		log.Printf("Error bulk moving photos to album %d: %v", req.TargetAlbumID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to move photos")
		return
	}

	for sourceID, count := range sourceCounts {
		if err := ph.Albums.IncrementPhotoCount(sourceID, -count); err != nil {
			log.Printf("Error decrementing photo count for album %d: %v", sourceID, err)
		}
	}
	if err := ph.Albums.IncrementPhotoCount(req.TargetAlbumID, moved); err != nil {
		log.Printf("Error incrementing photo count for album %d: %v", req.TargetAlbumID, err)
	}

	writeJSON(w, http.StatusOK, map[string]int64{"moved": moved})
}

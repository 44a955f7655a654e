package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/camden-git/photovaultbackend/database"
	"github.com/camden-git/photovaultbackend/models"
	"github.com/camden-git/photovaultbackend/repository"
)

type AlbumHandler struct {
	Albums repository.AlbumRepositoryInterface
	Photos repository.PhotoRepositoryInterface
}

func parseIDParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// ListAlbums returns all albums, newest first, ensuring the default album
// exists so clients always have a valid upload target
func (ah *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	if _, err := ah.Albums.EnsureDefaultAlbum(); err != nil {
		log.Printf("Error ensuring default album: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to ensure default album")
		return
	}

	albums, err := ah.Albums.ListAll()
	if err != nil {
		log.Printf("Error listing albums: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve albums")
		return
	}
	if albums == nil {
		albums = []models.Album{}
	}
	writeJSON(w, http.StatusOK, albums)
}

func (ah *AlbumHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "Album name must not be blank")
		return
	}

	album := &models.Album{Name: name}
	if err := ah.Albums.Create(album); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			WriteAPIError(w, http.StatusConflict, "duplicate_name", "Album name already exists")
		} else {
			log.Printf("Error creating album '%s': %v", name, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to create album")
		}
		return
	}

	writeJSON(w, http.StatusCreated, album)
}

func (ah *AlbumHandler) GetAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, err := parseIDParam(r, "album_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid album id")
		return
	}

	album, err := ah.Albums.GetByID(albumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Album not found")
		} else {
			log.Printf("Error getting album %d: %v", albumID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve album")
		}
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// UpdateAlbum renames an album and/or updates its cover URL. the reserved
// default album can never be renamed, and no album may take its name
func (ah *AlbumHandler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, err := parseIDParam(r, "album_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid album id")
		return
	}

	album, err := ah.Albums.GetByID(albumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Album not found")
		} else {
			log.Printf("Error finding album %d for update: %v", albumID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to find album for update")
		}
		return
	}

	var req struct {
		Name     *string `json:"name"`
		CoverURL *string `json:"cover_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}
	if req.Name == nil && req.CoverURL == nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "No fields provided for update")
		return
	}

	if req.Name != nil {
		newName := strings.TrimSpace(*req.Name)
		if newName == "" {
			WriteAPIError(w, http.StatusBadRequest, "validation_error", "Album name must not be blank")
			return
		}
		if album.IsDefault() && newName != album.Name {
			WriteAPIError(w, http.StatusForbidden, "default_album", "The default album cannot be renamed")
			return
		}
		if !album.IsDefault() && newName == models.DefaultAlbumName {
			WriteAPIError(w, http.StatusForbidden, "reserved_name", "Album name is reserved")
			return
		}
		req.Name = &newName
	}

	if err := ah.Albums.Update(albumID, req.Name, req.CoverURL); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			WriteAPIError(w, http.StatusConflict, "duplicate_name", "Album name already exists")
		} else {
			log.Printf("Error updating album %d: %v", albumID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to update album")
		}
		return
	}

	updated, err := ah.Albums.GetByID(albumID)
	if err != nil {
		log.Printf("Error fetching updated album %d: %v", albumID, err)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Album updated successfully"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAlbum removes an album after re-pointing its photos at the default
// album and crediting its counter. the default album itself is undeletable
func (ah *AlbumHandler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	albumID, err := parseIDParam(r, "album_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid album id")
		return
	}

	album, err := ah.Albums.GetByID(albumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Album not found")
		} else {
			log.Printf("Error finding album %d for delete: %v", albumID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to find album for delete")
		}
		return
	}

	if album.IsDefault() {
		WriteAPIError(w, http.StatusForbidden, "default_album", "The default album cannot be deleted")
		return
	}

	defaultAlbum, err := ah.Albums.EnsureDefaultAlbum()
	if err != nil {
		log.Printf("Error ensuring default album before delete: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to resolve default album")
		return
	}

	reassigned, err := ah.Albums.DeleteWithReassignment(albumID, defaultAlbum.ID)
	if err != nil {
		log.Printf("Error deleting album %d: %v", albumID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to delete album")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"reassigned": reassigned})
}

// GetAlbumPhotos lists the photos of an album, optionally sorted via ?sort=
func (ah *AlbumHandler) GetAlbumPhotos(w http.ResponseWriter, r *http.Request) {
	albumID, err := parseIDParam(r, "album_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid album id")
		return
	}

	if _, err := ah.Albums.GetByID(albumID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Album not found")
		} else {
			log.Printf("Error getting album %d for photo listing: %v", albumID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve album")
		}
		return
	}

	sortOrder := r.URL.Query().Get("sort")
	if sortOrder == "" {
		sortOrder = database.DefaultSortOrder
	}

	photos, err := ah.Photos.ListByAlbum(albumID, sortOrder)
	if err != nil {
		log.Printf("Error listing photos for album %d: %v", albumID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to list album photos")
		return
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	writeJSON(w, http.StatusOK, photos)
}

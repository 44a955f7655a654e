package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/camden-git/photovaultbackend/models"
	"github.com/camden-git/photovaultbackend/repository"
	"github.com/camden-git/photovaultbackend/tasks"
	"github.com/camden-git/photovaultbackend/workers"
)

const maxMultipartMemory = 32 << 20 // 32 MB before spilling to disk

type UploadHandler struct {
	Registry       *tasks.Registry
	Ingestor       *workers.Ingestor
	Albums         repository.AlbumRepositoryInterface
	TempUploadPath string
}

// SubmitUpload accepts one or more files, registers an ingestion task per
// file, and returns the task ids immediately; all processing happens on the
// worker pool. an unknown or absent target album falls back to the default
func (uh *UploadHandler) SubmitUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid multipart form: "+err.Error())
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "validation_error", "No files provided")
		return
	}

	album, err := uh.resolveTargetAlbum(r.FormValue("album_id"))
	if err != nil {
		log.Printf("Error resolving target album for upload: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to resolve target album")
		return
	}

	taskIDs := make([]string, 0, len(files))
	for _, fileHeader := range files {
		task := uh.Registry.Create(fileHeader.Filename, album.ID)
		taskIDs = append(taskIDs, task.ID)

		stagedPath, err := uh.stageUpload(fileHeader)
		if err != nil {
			log.Printf("Error staging upload %s: %v", fileHeader.Filename, err)
			uh.Registry.Fail(task.ID, fmt.Sprintf("failed to stage upload: %v", err))
			continue
		}

		job := workers.UploadJob{
			TaskID:           task.ID,
			StagedPath:       stagedPath,
			OriginalFileName: fileHeader.Filename,
			DeclaredMime:     fileHeader.Header.Get("Content-Type"),
			AlbumID:          album.ID,
		}
		if !uh.Ingestor.QueueJob(job) {
			if err := os.Remove(stagedPath); err != nil && !os.IsNotExist(err) {
				log.Printf("Error removing staged upload %s: %v", stagedPath, err)
			}
			uh.Registry.Fail(task.ID, "server busy: upload queue is full")
		}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"task_ids": taskIDs})
}

// resolveTargetAlbum returns the requested album when it exists, otherwise
// the lazily-created default album
func (uh *UploadHandler) resolveTargetAlbum(rawAlbumID string) (*models.Album, error) {
	if rawAlbumID != "" {
		albumID, err := strconv.ParseUint(rawAlbumID, 10, 32)
		if err == nil {
			album, err := uh.Albums.GetByID(uint(albumID))
			if err == nil {
				return album, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}
	}
	return uh.Albums.EnsureDefaultAlbum()
}

// stageUpload copies the multipart file into the temp upload dir under a
// unique name. the staged copy belongs to the ingestion task from here on
func (uh *UploadHandler) stageUpload(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	stagedPath := filepath.Join(uh.TempUploadPath, uuid.NewString()+filepath.Ext(fileHeader.Filename))
	dst, err := os.Create(stagedPath)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(stagedPath)
		return "", fmt.Errorf("failed to finalize staged file: %w", err)
	}
	return stagedPath, nil
}

// GetTaskStatus returns the current state of an ingestion task. purged and
// unknown tasks both yield 404
func (uh *UploadHandler) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")

	task, err := uh.Registry.Get(taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Task not found")
		} else {
			log.Printf("Error getting task %s: %v", taskID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve task")
		}
		return
	}
	writeJSON(w, http.StatusOK, task)
}

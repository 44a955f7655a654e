package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/camden-git/photovaultbackend/models"
)

func TestUpdatePhotoRename(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Renames")
	photo := env.createPhoto(t, album.ID, "old.jpg", "images/1-old.jpg")

	rec := env.do(t, http.MethodPut, "/api/photos/"+itoa(photo.ID), map[string]string{"original_file_name": "new.jpg"})
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeJSON[models.Photo](t, rec)
	assert.Equal(t, "new.jpg", updated.OriginalFileName)
	assert.Equal(t, photo.StorageFileName, updated.StorageFileName, "storage key is immutable")
}

func TestUpdatePhotoBlankName(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Renames")
	photo := env.createPhoto(t, album.ID, "a.jpg", "images/1-a.jpg")

	rec := env.do(t, http.MethodPut, "/api/photos/"+itoa(photo.ID), map[string]string{"original_file_name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePhotoNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/photos/999", map[string]string{"original_file_name": "x.jpg"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMovePhoto(t *testing.T) {
	env := newTestEnv(t)
	source := env.createAlbum(t, "Source")
	target := env.createAlbum(t, "Target")
	photo := env.createPhoto(t, source.ID, "a.jpg", "images/1-a.jpg")

	rec := env.do(t, http.MethodPatch, "/api/photos/"+itoa(photo.ID)+"/move", map[string]uint{"target_album_id": target.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	moved := decodeJSON[models.Photo](t, rec)
	assert.Equal(t, target.ID, moved.AlbumID)

	assert.Equal(t, int64(0), env.photoCount(t, source.ID))
	assert.Equal(t, int64(1), env.photoCount(t, target.ID))
}

func TestMovePhotoSameAlbumNoOp(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Home")
	photo := env.createPhoto(t, album.ID, "a.jpg", "images/1-a.jpg")

	rec := env.do(t, http.MethodPatch, "/api/photos/"+itoa(photo.ID)+"/move", map[string]uint{"target_album_id": album.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	// a no-op move must not disturb the counter
	assert.Equal(t, int64(1), env.photoCount(t, album.ID))
}

func TestMovePhotoUnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Home")
	photo := env.createPhoto(t, album.ID, "a.jpg", "images/1-a.jpg")

	rec := env.do(t, http.MethodPatch, "/api/photos/"+itoa(photo.ID)+"/move", map[string]uint{"target_album_id": 999})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int64(1), env.photoCount(t, album.ID))
}

func TestDeletePhoto(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Deletes")
	photo := env.createPhoto(t, album.ID, "a.jpg", "images/1-a.jpg")

	rec := env.do(t, http.MethodDelete, "/api/photos/"+itoa(photo.ID), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.False(t, env.blobs.has(photo.StorageFileName))
	_, err := env.photos.GetByID(photo.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, int64(0), env.photoCount(t, album.ID))
}

func TestDeletePhotoBlobFailureKeepsRecord(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Deletes")
	photo := env.createPhoto(t, album.ID, "a.jpg", "images/1-a.jpg")
	env.blobs.failDelete[photo.StorageFileName] = errBlobDeleteFailed

	rec := env.do(t, http.MethodDelete, "/api/photos/"+itoa(photo.ID), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// the record survives so the photo is never silently lost
	_, err := env.photos.GetByID(photo.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), env.photoCount(t, album.ID))
}

func TestBulkDeletePartialFailure(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Bulk")
	ok := env.createPhoto(t, album.ID, "ok.jpg", "images/1-ok.jpg")
	bad := env.createPhoto(t, album.ID, "bad.jpg", "images/2-bad.jpg")
	env.blobs.failDelete[bad.StorageFileName] = errBlobDeleteFailed

	rec := env.do(t, http.MethodPost, "/api/photos/bulkDelete", map[string][]uint{"photo_ids": {ok.ID, bad.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON[struct {
		Deleted []uint            `json:"deleted"`
		Failed  []bulkItemFailure `json:"failed"`
	}](t, rec)

	assert.Equal(t, []uint{ok.ID}, body.Deleted)
	require.Len(t, body.Failed, 1)
	assert.Equal(t, bad.ID, body.Failed[0].PhotoID)

	// the failed photo keeps its record and its counter contribution
	_, err := env.photos.GetByID(bad.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), env.photoCount(t, album.ID))
}

func TestBulkDeleteAllFailed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/photos/bulkDelete", map[string][]uint{"photo_ids": {998, 999}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBulkDeleteEmptyIDs(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/photos/bulkDelete", map[string][]uint{"photo_ids": {}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkMovePhotos(t *testing.T) {
	env := newTestEnv(t)
	source1 := env.createAlbum(t, "SourceOne")
	source2 := env.createAlbum(t, "SourceTwo")
	target := env.createAlbum(t, "Target")

	p1 := env.createPhoto(t, source1.ID, "a.jpg", "images/1-a.jpg")
	p2 := env.createPhoto(t, source1.ID, "b.jpg", "images/2-b.jpg")
	p3 := env.createPhoto(t, source2.ID, "c.jpg", "images/3-c.jpg")
	already := env.createPhoto(t, target.ID, "d.jpg", "images/4-d.jpg")

	rec := env.do(t, http.MethodPost, "/api/photos/bulkMove", map[string]interface{}{
		"photo_ids":       []uint{p1.ID, p2.ID, p3.ID, already.ID},
		"target_album_id": target.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON[map[string]int64](t, rec)
	assert.Equal(t, int64(3), body["moved"], "a photo already in the target must not count")

	assert.Equal(t, int64(0), env.photoCount(t, source1.ID))
	assert.Equal(t, int64(0), env.photoCount(t, source2.ID))
	assert.Equal(t, int64(4), env.photoCount(t, target.ID))

	photos, err := env.photos.ListByAlbum(target.ID, "")
	require.NoError(t, err)
	assert.Len(t, photos, 4)
}

func TestBulkMoveUnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Home")
	photo := env.createPhoto(t, album.ID, "a.jpg", "images/1-a.jpg")

	rec := env.do(t, http.MethodPost, "/api/photos/bulkMove", map[string]interface{}{
		"photo_ids":       []uint{photo.ID},
		"target_album_id": 999,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkMoveNothingToMove(t *testing.T) {
	env := newTestEnv(t)
	target := env.createAlbum(t, "Target")
	photo := env.createPhoto(t, target.ID, "a.jpg", "images/1-a.jpg")

	rec := env.do(t, http.MethodPost, "/api/photos/bulkMove", map[string]interface{}{
		"photo_ids":       []uint{photo.ID},
		"target_album_id": target.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON[map[string]int64](t, rec)
	assert.Equal(t, int64(0), body["moved"])
	assert.Equal(t, int64(1), env.photoCount(t, target.ID))
}

package handlers

import (
	"bytes"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/photovaultbackend/models"
	"github.com/camden-git/photovaultbackend/tasks"
)

func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 40, G: 80, B: 160, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

// multipartUpload builds a submit-upload request with the given files and
// optional album id
func multipartUpload(t *testing.T, albumID string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for name, content := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		header.Set("Content-Type", "image/jpeg")
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if albumID != "" {
		require.NoError(t, mw.WriteField("album_id", albumID))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/submit-upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func waitForTask(t *testing.T, env *testEnv, id string) tasks.Task {
	t.Helper()
	var task tasks.Task
	require.Eventually(t, func() bool {
		got, err := env.registry.Get(id)
		if err != nil {
			return false
		}
		task = got
		return got.Status == tasks.StatusCompleted || got.Status == tasks.StatusFailed
	}, 5*time.Second, 10*time.Millisecond, "task should reach a terminal state")
	return task
}

func TestSubmitUploadEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Uploads")

	req := multipartUpload(t, itoa(album.ID), map[string][]byte{
		"holiday.jpg": encodeTestJPEG(t, 32, 32),
	})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON[map[string][]string](t, rec)
	require.Len(t, body["task_ids"], 1)

	done := waitForTask(t, env, body["task_ids"][0])
	assert.Equal(t, tasks.StatusCompleted, done.Status)
	assert.Contains(t, done.ResultURL, "https://cdn.example.com/images/")

	photos, err := env.photos.ListByAlbum(album.ID, "")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "holiday.jpg", photos[0].OriginalFileName)
	assert.True(t, env.blobs.has(photos[0].StorageFileName))
	assert.Equal(t, int64(1), env.photoCount(t, album.ID))
}

func TestSubmitUploadMultipleFiles(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Batch")

	req := multipartUpload(t, itoa(album.ID), map[string][]byte{
		"a.jpg": encodeTestJPEG(t, 16, 16),
		"b.jpg": encodeTestJPEG(t, 16, 16),
	})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON[map[string][]string](t, rec)
	require.Len(t, body["task_ids"], 2)

	for _, id := range body["task_ids"] {
		done := waitForTask(t, env, id)
		assert.Equal(t, tasks.StatusCompleted, done.Status)
	}
	assert.Equal(t, int64(2), env.photoCount(t, album.ID))
}

func TestSubmitUploadUnknownAlbumFallsBackToDefault(t *testing.T) {
	env := newTestEnv(t)

	req := multipartUpload(t, "999", map[string][]byte{
		"stray.jpg": encodeTestJPEG(t, 16, 16),
	})
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON[map[string][]string](t, rec)
	require.Len(t, body["task_ids"], 1)
	done := waitForTask(t, env, body["task_ids"][0])
	require.Equal(t, tasks.StatusCompleted, done.Status)

	defaultAlbum, err := env.albums.GetByName(models.DefaultAlbumName)
	require.NoError(t, err)
	photos, err := env.photos.ListByAlbum(defaultAlbum.ID, "")
	require.NoError(t, err)
	assert.Len(t, photos, 1)
}

func TestSubmitUploadNoFiles(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("album_id", "1"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/submit-upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitUploadUnsupportedFileFailsTask(t *testing.T) {
	env := newTestEnv(t)
	album := env.createAlbum(t, "Mixed")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="files"; filename="notes.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("album_id", itoa(album.ID)))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/submit-upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, "submission succeeds even when processing will fail")

	resp := decodeJSON[map[string][]string](t, rec)
	require.Len(t, resp["task_ids"], 1)
	done := waitForTask(t, env, resp["task_ids"][0])
	assert.Equal(t, tasks.StatusFailed, done.Status)
	assert.Equal(t, int64(0), env.photoCount(t, album.ID))
}

func TestGetTaskStatus(t *testing.T) {
	env := newTestEnv(t)

	task := env.registry.Create("a.jpg", 1)
	rec := env.do(t, http.MethodGet, "/api/tasks/status/"+task.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeJSON[tasks.Task](t, rec)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, tasks.StatusPending, got.Status)
}

func TestGetTaskStatusUnknown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/tasks/status/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

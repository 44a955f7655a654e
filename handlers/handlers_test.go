package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/photovaultbackend/blobstore"
	"github.com/camden-git/photovaultbackend/media"
	"github.com/camden-git/photovaultbackend/models"
	"github.com/camden-git/photovaultbackend/repository"
	"github.com/camden-git/photovaultbackend/tasks"
	"github.com/camden-git/photovaultbackend/workers"
)

// fakeBlobStore is an in-memory blobstore.Store with per-key failure injection
type fakeBlobStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete map[string]error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:    make(map[string][]byte),
		failDelete: make(map[string]error),
	}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	f.objects[key] = content
	f.mu.Unlock()
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failDelete[key]; ok {
		return err
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type testEnv struct {
	db       *gorm.DB
	albums   *repository.AlbumRepository
	photos   *repository.PhotoRepository
	blobs    *fakeBlobStore
	registry *tasks.Registry
	ingestor *workers.Ingestor
	router   chi.Router
	tempDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Album{}, &models.Photo{}))

	env := &testEnv{
		db:       db,
		albums:   repository.NewAlbumRepository(db),
		photos:   repository.NewPhotoRepository(db),
		blobs:    newFakeBlobStore(),
		registry: tasks.NewRegistry(time.Minute),
		tempDir:  t.TempDir(),
	}

	transformer := &media.Transformer{
		FFmpegPath:   "/nonexistent/ffmpeg",
		TempDir:      env.tempDir,
		ImageMaxSize: 64,
	}
	env.ingestor = workers.NewIngestor(
		env.registry, transformer, env.blobs,
		blobstore.KeyGenerator{Prefix: "images/"},
		env.albums, env.photos,
		10, 1,
	)
	t.Cleanup(env.ingestor.Stop)

	albumHandler := &AlbumHandler{Albums: env.albums, Photos: env.photos}
	photoHandler := &PhotoHandler{Photos: env.photos, Albums: env.albums, Blobs: env.blobs}
	uploadHandler := &UploadHandler{
		Registry:       env.registry,
		Ingestor:       env.ingestor,
		Albums:         env.albums,
		TempUploadPath: env.tempDir,
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/albums", func(r chi.Router) {
			r.Post("/", albumHandler.CreateAlbum)
			r.Get("/", albumHandler.ListAlbums)
			r.Route("/{album_id}", func(r chi.Router) {
				r.Get("/", albumHandler.GetAlbum)
				r.Put("/", albumHandler.UpdateAlbum)
				r.Delete("/", albumHandler.DeleteAlbum)
				r.Get("/photos", albumHandler.GetAlbumPhotos)
			})
		})
		r.Route("/photos", func(r chi.Router) {
			r.Post("/bulkDelete", photoHandler.BulkDeletePhotos)
			r.Post("/bulkMove", photoHandler.BulkMovePhotos)
			r.Route("/{photo_id}", func(r chi.Router) {
				r.Put("/", photoHandler.UpdatePhoto)
				r.Patch("/move", photoHandler.MovePhoto)
				r.Delete("/", photoHandler.DeletePhoto)
			})
		})
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/submit-upload", uploadHandler.SubmitUpload)
			r.Get("/status/{task_id}", uploadHandler.GetTaskStatus)
		})
	})
	env.router = r
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func (env *testEnv) createAlbum(t *testing.T, name string) *models.Album {
	t.Helper()
	album := &models.Album{Name: name}
	require.NoError(t, env.albums.Create(album))
	return album
}

// createPhoto seeds a photo record, its blob, and the album counter together
func (env *testEnv) createPhoto(t *testing.T, albumID uint, name, key string) *models.Photo {
	t.Helper()
	photo := &models.Photo{
		OriginalFileName: name,
		StorageFileName:  key,
		RemoteURL:        "https://cdn.example.com/" + key,
		AlbumID:          albumID,
	}
	require.NoError(t, env.photos.Create(photo))
	require.NoError(t, env.albums.IncrementPhotoCount(albumID, 1))
	env.blobs.mu.Lock()
	env.blobs.objects[key] = []byte("blob")
	env.blobs.mu.Unlock()
	return photo
}

func (env *testEnv) photoCount(t *testing.T, albumID uint) int64 {
	t.Helper()
	album, err := env.albums.GetByID(albumID)
	require.NoError(t, err)
	return album.PhotoCount
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

var errBlobDeleteFailed = errors.New("simulated blob delete failure")

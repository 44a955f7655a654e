package workers

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/camden-git/photovaultbackend/blobstore"
	"github.com/camden-git/photovaultbackend/media"
	"github.com/camden-git/photovaultbackend/models"
	"github.com/camden-git/photovaultbackend/repository"
	"github.com/camden-git/photovaultbackend/tasks"
)

// UploadJob carries one staged upload through the ingestion pipeline
type UploadJob struct {
	TaskID           string
	StagedPath       string // local temp copy of the accepted upload
	OriginalFileName string
	DeclaredMime     string
	AlbumID          uint
}

// Ingestor runs the asynchronous ingestion pipeline: transform, upload to
// object storage, persist metadata, update the task registry. each job owns
// its temp files exclusively until cleanup
type Ingestor struct {
	JobQueue    chan UploadJob
	Registry    *tasks.Registry
	Transformer *media.Transformer
	Blobs       blobstore.Store
	KeyGen      blobstore.KeyGenerator
	Albums      repository.AlbumRepositoryInterface
	Photos      repository.PhotoRepositoryInterface
	Wg          sync.WaitGroup
	StopChan    chan struct{}
}

// NewIngestor starts the worker pool and returns the ingestor
func NewIngestor(
	registry *tasks.Registry,
	transformer *media.Transformer,
	blobs blobstore.Store,
	keyGen blobstore.KeyGenerator,
	albums repository.AlbumRepositoryInterface,
	photos repository.PhotoRepositoryInterface,
	queueSize, numWorkers int,
) *Ingestor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	ing := &Ingestor{
		JobQueue:    make(chan UploadJob, queueSize),
		Registry:    registry,
		Transformer: transformer,
		Blobs:       blobs,
		KeyGen:      keyGen,
		Albums:      albums,
		Photos:      photos,
		StopChan:    make(chan struct{}),
	}
	ing.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go ing.worker(i)
	}
	log.Printf("Started %d upload ingestion worker(s) with queue size %d", numWorkers, queueSize)
	return ing
}

func (ing *Ingestor) worker(id int) {
	defer ing.Wg.Done()

	log.Printf("Upload worker %d started", id)
	for {
		select {
		case job, ok := <-ing.JobQueue:
			if !ok {
				log.Printf("Upload worker %d stopping: Job queue closed", id)
				return
			}
			log.Printf("Worker %d: Received upload job for: %s (task %s)", id, job.OriginalFileName, job.TaskID)
			ing.processJob(job)

		case <-ing.StopChan:
			log.Printf("Upload worker %d stopping: Stop signal received", id)
			return
		}
	}
}

// QueueJob attempts a non-blocking enqueue. callers must fail the task
// themselves when the queue is full
func (ing *Ingestor) QueueJob(job UploadJob) bool {
	select {
	case ing.JobQueue <- job:
		log.Printf("Queued upload job for: %s (task %s)", job.OriginalFileName, job.TaskID)
		return true
	default:
		log.Printf("WARNING: Upload job queue full. Failed to queue: %s (task %s)", job.OriginalFileName, job.TaskID)
		return false
	}
}

// processJob drives one job through transform, upload, persist, and counter
// update. all failures end in task state, never in a panic or a partial
// Photo record; temp files are removed no matter how the job ends
func (ing *Ingestor) processJob(job UploadJob) {
	ctx := context.Background()
	tempFiles := []string{job.StagedPath}
	defer func() {
		cleanupTempFiles(tempFiles)
	}()

	ing.Registry.SetProcessing(job.TaskID, "transforming media")

	result, err := ing.Transformer.Transform(ctx, job.StagedPath, job.DeclaredMime, job.OriginalFileName)
	if err != nil {
		log.Printf("Worker: transform failed for %s: %v", job.OriginalFileName, err)
		ing.Registry.Fail(job.TaskID, fmt.Sprintf("transform failed: %v", err))
		return
	}
	if !result.PassThrough {
		tempFiles = append(tempFiles, result.OutputPath)
	}

	key := ing.KeyGen.NewKey(job.OriginalFileName, result.Ext)

	ing.Registry.SetProcessing(job.TaskID, "uploading to object storage")

	f, err := os.Open(result.OutputPath)
	if err != nil {
		log.Printf("Worker: failed to open transformed file %s: %v", result.OutputPath, err)
		ing.Registry.Fail(job.TaskID, fmt.Sprintf("upload failed: %v", err))
		return
	}
	publicURL, err := ing.Blobs.Put(ctx, key, f, result.Mime)
	f.Close()
	if err != nil {
		log.Printf("Worker: upload failed for %s (key %s): %v", job.OriginalFileName, key, err)
		ing.Registry.Fail(job.TaskID, fmt.Sprintf("upload failed: %v", err))
		return
	}

	photo := &models.Photo{
		OriginalFileName: job.OriginalFileName,
		StorageFileName:  key,
		RemoteURL:        publicURL,
		AlbumID:          job.AlbumID,
	}
	if strings.HasPrefix(result.Mime, "image/") {
		if meta := media.ExtractMetadata(result.OutputPath); meta != nil {
			photo.Width = meta.Width
			photo.Height = meta.Height
			photo.TakenAt = meta.TakenAt
			photo.CameraMake = meta.CameraMake
			photo.CameraModel = meta.CameraModel
		}
	}

	ing.Registry.SetProcessing(job.TaskID, "saving photo record")

	if err := ing.Photos.Create(photo); err != nil {
		log.Printf("Worker: failed to persist photo for %s: %v", job.OriginalFileName, err)
		// best-effort: don't leave an unreferenced blob behind
		if delErr := ing.Blobs.Delete(ctx, key); delErr != nil {
			log.Printf("Worker: failed to delete orphaned blob %s: %v", key, delErr)
		}
		ing.Registry.Fail(job.TaskID, fmt.Sprintf("persist failed: %v", err))
		return
	}

	if err := ing.Albums.IncrementPhotoCount(job.AlbumID, 1); err != nil {
		// the photo record exists; counter drift is logged, not fatal
		log.Printf("Worker: failed to increment photo count for album %d: %v", job.AlbumID, err)
	}
	if err := ing.Albums.SetCoverIfEmpty(job.AlbumID, publicURL); err != nil {
		log.Printf("Worker: failed to set album cover for album %d: %v", job.AlbumID, err)
	}

	ing.Registry.Complete(job.TaskID, publicURL)
	log.Printf("Worker: completed ingestion of %s as %s", job.OriginalFileName, key)
}

// cleanupTempFiles removes every temp file a job created, tolerating files
// that are already gone. failures are logged and never surfaced
func cleanupTempFiles(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("Worker: failed to remove temp file %s: %v", p, err)
		}
	}
}

// Stop shuts down the worker pool and waits for in-flight jobs to finish
func (ing *Ingestor) Stop() {
	log.Println("Stopping upload ingestion workers...")
	close(ing.StopChan)
	ing.Wg.Wait()
	log.Println("All upload ingestion workers stopped")
}

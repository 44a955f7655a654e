package media

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	_ "golang.org/x/image/webp" // register webp decoding for image.Decode
)

const (
	reencodeJpegQuality = 85
)

// ErrUnsupportedMediaType is returned when a file is neither a recognized
// image nor a recognized video type.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

var standardImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

var legacyImageExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
}

// Result describes the output of a transform: a local file ready for upload
// plus its content type and extension. OutputPath equals the input path when
// the file passed through untouched
type Result struct {
	OutputPath  string
	Mime        string
	Ext         string
	PassThrough bool
}

// Transformer classifies uploaded files and normalizes them for storage. it
// holds only configuration, so one instance is safe for concurrent use
// across unrelated files
type Transformer struct {
	FFmpegPath     string
	TempDir        string
	ImageMaxSize   int  // longest side after re-encode; 0 disables resizing
	TranscodeVideo bool // transcode videos to baseline H.264 MP4
}

// Transform classifies the input by declared mime type and extension, first
// match wins: standard image, legacy image container, video, unsupported.
// it may write one new temp file and never deletes the input; temp-file
// cleanup is the caller's responsibility
func (t *Transformer) Transform(ctx context.Context, inputPath, declaredMime, declaredFilename string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(declaredFilename))
	mime := strings.ToLower(strings.TrimSpace(declaredMime))

	switch {
	case isStandardImage(mime, ext):
		return t.normalizeImage(inputPath, mime, ext)
	case isLegacyImage(mime, ext):
		return t.convertLegacyImage(ctx, inputPath)
	case isVideo(mime, ext):
		return t.normalizeVideo(ctx, inputPath, mime, ext)
	default:
		return Result{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedMediaType, declaredFilename, declaredMime)
	}
}

func isStandardImage(mime, ext string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return true
	}
	_, ok := standardImageExtensions[ext]
	return ok
}

func isLegacyImage(mime, ext string) bool {
	if mime == "image/heic" || mime == "image/heif" {
		return true
	}
	return legacyImageExtensions[ext]
}

func isVideo(mime, ext string) bool {
	if strings.HasPrefix(mime, "video/") {
		return true
	}
	_, ok := videoExtensions[ext]
	return ok
}

// normalizeImage re-encodes oversized rasters down to ImageMaxSize on the
// longest side. any decode or encode failure falls back to pass-through of
// the original; a wonky-but-decodable-by-browsers image beats a failed task
func (t *Transformer) normalizeImage(inputPath, mime, ext string) (Result, error) {
	passThrough := Result{
		OutputPath:  inputPath,
		Mime:        imageMimeFor(mime, ext),
		Ext:         ext,
		PassThrough: true,
	}

	// animated gifs lose frames under re-encode, leave them alone
	if t.ImageMaxSize <= 0 || ext == ".gif" || mime == "image/gif" {
		return passThrough, nil
	}

	img, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
	if err != nil {
		log.Printf("media: failed to decode %s, passing through: %v", inputPath, err)
		return passThrough, nil
	}

	bounds := img.Bounds()
	if bounds.Dx() <= t.ImageMaxSize && bounds.Dy() <= t.ImageMaxSize {
		return passThrough, nil
	}

	resized := imaging.Fit(img, t.ImageMaxSize, t.ImageMaxSize, imaging.Lanczos)

	outPath := t.tempFile(".jpg")
	if err := imaging.Save(resized, outPath, imaging.JPEGQuality(reencodeJpegQuality)); err != nil {
		log.Printf("media: failed to re-encode %s, passing through: %v", inputPath, err)
		os.Remove(outPath)
		return passThrough, nil
	}

	return Result{OutputPath: outPath, Mime: "image/jpeg", Ext: ".jpg"}, nil
}

// convertLegacyImage converts HEIC/HEIF containers to JPEG via ffmpeg. there
// is no universal fallback for these, so failure is fatal to the task
func (t *Transformer) convertLegacyImage(ctx context.Context, inputPath string) (Result, error) {
	outPath := t.tempFile(".jpg")

	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-y", "-i", inputPath,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(outPath)
		return Result{}, fmt.Errorf("heic conversion failed: %w (ffmpeg: %s)", err, tail(out))
	}

	return Result{OutputPath: outPath, Mime: "image/jpeg", Ext: ".jpg"}, nil
}

// normalizeVideo passes videos through unless transcoding is enabled, in
// which case they are re-encoded to a streaming-friendly H.264 MP4. a failed
// transcode is fatal to the task
func (t *Transformer) normalizeVideo(ctx context.Context, inputPath, mime, ext string) (Result, error) {
	if !t.TranscodeVideo {
		return Result{
			OutputPath:  inputPath,
			Mime:        videoMimeFor(mime, ext),
			Ext:         ext,
			PassThrough: true,
		}, nil
	}

	outPath := t.tempFile(".mp4")
	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-y", "-i", inputPath,
		"-c:v", "libx264", "-preset", "veryfast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(outPath)
		return Result{}, fmt.Errorf("video transcode failed: %w (ffmpeg: %s)", err, tail(out))
	}

	return Result{OutputPath: outPath, Mime: "video/mp4", Ext: ".mp4"}, nil
}

func (t *Transformer) tempFile(ext string) string {
	return filepath.Join(t.TempDir, uuid.NewString()+ext)
}

func imageMimeFor(mime, ext string) string {
	if strings.HasPrefix(mime, "image/") {
		return mime
	}
	if m, ok := standardImageExtensions[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

func videoMimeFor(mime, ext string) string {
	if strings.HasPrefix(mime, "video/") {
		return mime
	}
	if m, ok := videoExtensions[ext]; ok {
		return m
	}
	return "application/octet-stream"
}

// tail trims ffmpeg output down to the last line for error messages
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	if len(s) > 200 {
		s = s[len(s)-200:]
	}
	return s
}

package media

import (
	"image"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Metadata holds the EXIF and dimension information extracted from an
// ingested image. every field is optional
type Metadata struct {
	Width       *int    `json:"width,omitempty"`
	Height      *int    `json:"height,omitempty"`
	TakenAt     *int64  `json:"taken_at,omitempty"` // Unix timestamp
	CameraMake  *string `json:"camera_make,omitempty"`
	CameraModel *string `json:"camera_model,omitempty"`
}

// helper to safely get a string tag (like Make, Model)
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil {
		return nil
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	return &val
}

// ExtractMetadata reads dimensions and a subset of EXIF tags from an image
// file. extraction is best-effort: a file with no EXIF block still yields
// dimensions, and an undecodable file yields an empty Metadata rather than
// an error. ingestion must not fail over missing metadata
func ExtractMetadata(imagePath string) *Metadata {
	meta := &Metadata{}

	f, err := os.Open(imagePath)
	if err != nil {
		return meta
	}
	defer f.Close()

	if cfg, _, err := image.DecodeConfig(f); err == nil {
		w, h := cfg.Width, cfg.Height
		meta.Width = &w
		meta.Height = &h
	}

	if _, err := f.Seek(0, 0); err != nil {
		return meta
	}

	exifData, err := exif.Decode(f)
	if err != nil {
		return meta
	}

	meta.CameraMake = getString(exifData, exif.Make)
	meta.CameraModel = getString(exifData, exif.Model)

	if dt, err := exifData.DateTime(); err == nil {
		ts := dt.Unix()
		meta.TakenAt = &ts
	}

	return meta
}

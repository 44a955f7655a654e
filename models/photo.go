package models

// Photo represents a stored media item in the database using GORM.
// It corresponds to the 'photos' table.
type Photo struct {
	ID               uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	OriginalFileName string `gorm:"not null" json:"original_file_name"`

	// StorageFileName is the immutable key the blob lives under in object
	// storage; globally unique by construction (timestamp + random suffix).
	StorageFileName string `gorm:"not null;unique" json:"storage_file_name"`
	RemoteURL       string `gorm:"not null" json:"remote_url"`

	AlbumID    uint  `gorm:"not null;index" json:"album_id"`
	UploadedAt int64 `gorm:"not null" json:"uploaded_at"` // Unix timestamp

	// EXIF enrichment, populated best-effort during ingestion
	Width       *int    `gorm:"" json:"width,omitempty"`         // Nullable
	Height      *int    `gorm:"" json:"height,omitempty"`        // Nullable
	TakenAt     *int64  `gorm:"index" json:"taken_at,omitempty"` // Nullable, Unix timestamp
	CameraMake  *string `gorm:"" json:"camera_make,omitempty"`   // Nullable
	CameraModel *string `gorm:"" json:"camera_model,omitempty"`  // Nullable
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}

package models

// DefaultAlbumName is the reserved name of the system album that catches
// photos uploaded without an explicit target. It is created lazily, never
// deleted, and never renamed.
const DefaultAlbumName = "Unsorted"

// Album represents a photo album in the database using GORM.
// It corresponds to the 'albums' table.
type Album struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null;unique" json:"name"`
	CoverURL string `gorm:"not null;default:''" json:"cover_url"`

	// PhotoCount is a denormalized cache of member-photo count, maintained
	// via atomic increments on every mutation, never recomputed by counting.
	PhotoCount int64 `gorm:"not null;default:0" json:"photo_count"`

	CreatedAt int64 `gorm:"not null" json:"created_at"` // Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Album) TableName() string {
	return "albums"
}

// IsDefault reports whether this is the reserved system album.
func (a *Album) IsDefault() bool {
	return a.Name == DefaultAlbumName
}

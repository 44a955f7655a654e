package database

const (
	SortUploadedDesc = "uploaded_desc"
	SortUploadedAsc  = "uploaded_asc"
	SortFilenameAsc  = "filename_asc"
	SortFilenameNat  = "filename_nat"
)

const DefaultSortOrder = SortUploadedDesc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortUploadedDesc, SortUploadedAsc, SortFilenameAsc, SortFilenameNat:
		return true
	default:
		return false
	}
}

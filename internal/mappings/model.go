package mappings

import "time"

// Mapping ties a stored blob to the backend document ID it was registered
// under. Path follows the "{userId}/{fileName}" storage key convention.
type Mapping struct {
	ID        string
	UserID    string
	BackendID string
	Path      string
	FileName  string
	FileType  string
	SizeBytes int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

package session

import (
	"path/filepath"
	"strings"
	"time"
)

// Status is a document's lifecycle state.
type Status string

const (
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// FileType buckets documents for display.
type FileType string

const (
	TypeDocx  FileType = "docx"
	TypePDF   FileType = "pdf"
	TypeXlsx  FileType = "xlsx"
	TypeImage FileType = "image"
)

// Document is one entry in a user's session set. IDs are mapping IDs once the
// document is registered; uploads carry a temporary ID until the next listing
// replaces them.
type Document struct {
	ID         string
	Name       string
	Type       FileType
	Size       int64
	UploadedAt time.Time
	Status     Status
	Progress   int
	Path       string
	MimeType   string
	BackendID  string
	MappingID  string
	HasHistory bool
	LastChatAt *time.Time
}

// FileTypeFor buckets a file name by extension.
func FileTypeFor(name string) FileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".doc", ".docx":
		return TypeDocx
	case ".xls", ".xlsx", ".csv":
		return TypeXlsx
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".svg":
		return TypeImage
	default:
		return TypePDF
	}
}

// displayName strips the timestamp prefix stored names carry.
func displayName(stored string) string {
	if i := strings.Index(stored, "_"); i > 0 {
		if isDigits(stored[:i]) {
			return stored[i+1:]
		}
	}
	return stored
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

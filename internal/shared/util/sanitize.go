package util

import (
	"errors"
	"strings"
)

// SanitizeUserKey validates a user ID for use as a storage key segment.
func SanitizeUserKey(id string) (string, error) {
	s := strings.TrimSpace(id)
	if s == "" || strings.Contains(s, "..") || strings.ContainsAny(s, "/\\") {
		return "", errors.New("invalid user id")
	}
	return s, nil
}

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

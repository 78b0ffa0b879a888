package local

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docchat-backend/internal/shared/storage/object"
	"docchat-backend/internal/shared/util"
)

// Store implements ObjectStore on the local filesystem. Intended for dev and
// tests; it cannot mint signed URLs, so handlers fall back to streaming.
type Store struct {
	baseDir string
}

// New creates a local object store rooted at baseDir.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) Save(ctx context.Context, userId string, fileName string, r io.Reader) (string, int64, string, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, "", fmt.Errorf("sanitize file name: %w", err)
	}
	userKey, err := util.SanitizeUserKey(userId)
	if err != nil {
		return "", 0, "", fmt.Errorf("sanitize user id: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}

	userDir := filepath.Join(s.baseDir, userKey)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", 0, "", fmt.Errorf("create user dir: %w", err)
	}

	finalName := fmt.Sprintf("%d_%s", time.Now().UTC().UnixMilli(), sanitizedName)
	fullPath := filepath.Join(userDir, finalName)

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", 0, "", object.ErrObjectExists
		}
		return "", 0, "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		os.Remove(fullPath)
		return "", 0, "", fmt.Errorf("read sniff: %w", readErr)
	}
	mimeType := http.DetectContentType(sniff[:n])

	written, err := io.Copy(f, io.MultiReader(bytes.NewReader(sniff[:n]), r))
	if err != nil {
		os.Remove(fullPath)
		return "", 0, "", fmt.Errorf("write file: %w", err)
	}

	return path.Join(userKey, finalName), written, mimeType, nil
}

func (s *Store) List(ctx context.Context, userId string, opts object.ListOptions) ([]object.ObjectInfo, error) {
	userKey, err := util.SanitizeUserKey(userId)
	if err != nil {
		return nil, fmt.Errorf("sanitize user id: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.baseDir, userKey))
	if err != nil {
		if os.IsNotExist(err) {
			return []object.ObjectInfo{}, nil
		}
		return nil, fmt.Errorf("read user dir: %w", err)
	}

	var infos []object.ObjectInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, object.ObjectInfo{
			Key:       path.Join(userKey, e.Name()),
			Name:      e.Name(),
			SizeBytes: fi.Size(),
			MimeType:  mime.TypeByExtension(filepath.Ext(e.Name())),
			CreatedAt: fi.ModTime().UTC(),
		})
	}

	sortInfos(infos, opts.SortBy)
	return paginate(infos, opts.Limit, opts.Offset), nil
}

func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Store) Remove(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *Store) SignedURL(ctx context.Context, storageKey string, ttl time.Duration, downloadName string) (string, error) {
	return "", object.ErrSignedURLUnsupported
}

// resolve maps a storage key to an on-disk path, rejecting traversal.
func (s *Store) resolve(storageKey string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(storageKey))
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key")
	}
	return filepath.Join(s.baseDir, clean), nil
}

func sortInfos(infos []object.ObjectInfo, by object.SortBy) {
	switch by {
	case object.SortByName:
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	default:
		sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	}
}

func paginate(infos []object.ObjectInfo, limit, offset int) []object.ObjectInfo {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(infos) {
		return []object.ObjectInfo{}
	}
	end := len(infos)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return infos[offset:end]
}

var _ object.ObjectStore = (*Store)(nil)

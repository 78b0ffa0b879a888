package mappings

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const mappingColumns = `id, user_id, backend_id, path, file_name, file_type, size_bytes, created_at, updated_at`

// Create inserts a new mapping.
func (r *PGRepo) Create(ctx context.Context, m Mapping) error {
	const query = `
INSERT INTO document_mappings (
    id,
    user_id,
    backend_id,
    path,
    file_name,
    file_type,
    size_bytes,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var fileType sql.NullString
	if m.FileType != "" {
		fileType = sql.NullString{String: m.FileType, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		m.ID,
		m.UserID,
		m.BackendID,
		m.Path,
		m.FileName,
		fileType,
		m.SizeBytes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

// ListByUser lists mappings ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userId string) ([]Mapping, error) {
	const query = `
SELECT ` + mappingColumns + `
FROM document_mappings
WHERE user_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByBackendID fetches the mapping registered under a backend document ID.
func (r *PGRepo) GetByBackendID(ctx context.Context, userId, backendID string) (Mapping, error) {
	const query = `
SELECT ` + mappingColumns + `
FROM document_mappings
WHERE user_id = $1 AND backend_id = $2
LIMIT 1`
	return r.getOne(ctx, query, userId, backendID)
}

// GetByPath fetches the mapping for a storage path.
func (r *PGRepo) GetByPath(ctx context.Context, userId, path string) (Mapping, error) {
	const query = `
SELECT ` + mappingColumns + `
FROM document_mappings
WHERE user_id = $1 AND path = $2
LIMIT 1`
	return r.getOne(ctx, query, userId, path)
}

// DeleteByID removes a mapping by primary key.
func (r *PGRepo) DeleteByID(ctx context.Context, userId, id string) error {
	const query = `DELETE FROM document_mappings WHERE user_id = $1 AND id = $2`
	return r.deleteOne(ctx, query, userId, id)
}

// DeleteByBackendID removes the mapping registered under a backend document ID.
func (r *PGRepo) DeleteByBackendID(ctx context.Context, userId, backendID string) error {
	const query = `DELETE FROM document_mappings WHERE user_id = $1 AND backend_id = $2`
	return r.deleteOne(ctx, query, userId, backendID)
}

// DeleteByPath removes the mapping for a storage path.
func (r *PGRepo) DeleteByPath(ctx context.Context, userId, path string) error {
	const query = `DELETE FROM document_mappings WHERE user_id = $1 AND path = $2`
	return r.deleteOne(ctx, query, userId, path)
}

func (r *PGRepo) getOne(ctx context.Context, query string, args ...any) (Mapping, error) {
	m, err := scanMapping(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Mapping{}, ErrNotFound
		}
		return Mapping{}, err
	}
	return m, nil
}

func (r *PGRepo) deleteOne(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(row rowScanner) (Mapping, error) {
	var m Mapping
	var fileType sql.NullString
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.BackendID,
		&m.Path,
		&m.FileName,
		&fileType,
		&m.SizeBytes,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return Mapping{}, err
	}
	if fileType.Valid {
		m.FileType = fileType.String
	}
	return m, nil
}

var _ Repo = (*PGRepo)(nil)

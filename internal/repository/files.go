package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
)

const fileColumns = `f.id, f.request_id, f.uploaded_by, f.file_type, f.file_name, f.file_path, f.uploaded_date`

func scanFile(row pgx.Row) (model.FileUpload, error) {
	var file model.FileUpload
	err := row.Scan(
		&file.ID,
		&file.RequestID,
		&file.UploadedBy,
		&file.FileType,
		&file.FileName,
		&file.FilePath,
		&file.UploadedDate,
	)
	return file, err
}

func (s *Store) GetFile(ctx context.Context, fileID int64) (model.FileUpload, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+fileColumns+` FROM file_uploads f WHERE f.id = $1`, fileID)
	return scanFile(row)
}

// GetFileByRequestAndType returns the current file of a type for a
// request. At most one exists; uploads replace the previous one.
func (s *Store) GetFileByRequestAndType(ctx context.Context, requestID int64, fileType string) (model.FileUpload, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+fileColumns+` FROM file_uploads f
		WHERE f.request_id = $1 AND f.file_type = $2
		ORDER BY f.uploaded_date DESC
		LIMIT 1
	`, requestID, fileType)
	return scanFile(row)
}

func (s *Store) ListFiles(ctx context.Context) ([]model.FileUpload, error) {
	return s.queryFiles(ctx, `SELECT `+fileColumns+` FROM file_uploads f ORDER BY f.id`)
}

func (s *Store) ListFilesByRequest(ctx context.Context, requestID int64) ([]model.FileUpload, error) {
	return s.queryFiles(ctx, `
		SELECT `+fileColumns+` FROM file_uploads f
		WHERE f.request_id = $1
		ORDER BY f.uploaded_date DESC
	`, requestID)
}

func (s *Store) queryFiles(ctx context.Context, query string, args ...any) ([]model.FileUpload, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]model.FileUpload, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

func (s *Store) CreateFile(ctx context.Context, file *model.FileUpload) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO file_uploads (request_id, uploaded_by, file_type, file_name, file_path, uploaded_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, file.RequestID, file.UploadedBy, file.FileType, file.FileName, file.FilePath, file.UploadedDate)
	return row.Scan(&file.ID)
}

func (s *Store) DeleteFile(ctx context.Context, fileID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM file_uploads WHERE id = $1`, fileID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

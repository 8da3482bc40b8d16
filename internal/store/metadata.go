package store

import (
	"context"
	"database/sql"
	"errors"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ImportedFile records the content hash of an exam file that was imported.
type ImportedFile struct {
	Path   string
	SHA256 string
	ExamID int64
}

// GetImportedFile returns the import record for path, or nil if the file was
// never imported.
func (s *Store) GetImportedFile(ctx context.Context, path string) (*ImportedFile, error) {
	f := ImportedFile{Path: path}
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT sha256, exam_id FROM imported_files WHERE path = ?`), path,
	).Scan(&f.SHA256, &f.ExamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// SetImportedFile upserts the import record for a file.
func (s *Store) SetImportedFile(ctx context.Context, f ImportedFile) error {
	return s.setImportedFile(ctx, s.db, f)
}

func (s *Store) setImportedFile(ctx context.Context, ex execer, f ImportedFile) error {
	_, err := ex.ExecContext(ctx,
		s.q(`INSERT INTO imported_files (path, sha256, exam_id) VALUES (?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET sha256 = excluded.sha256, exam_id = excluded.exam_id`),
		f.Path, f.SHA256, f.ExamID,
	)
	return err
}

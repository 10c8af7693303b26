package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"deepchat/internal/models"
	"deepchat/internal/storage"
)

// SQL stores turns and files in relational tables. Rows are kept in insertion order by id.
type SQL struct {
	db *sql.DB
}

// NewSQL migrates the schema and empties it so that state starts empty.
func NewSQL(db *sql.DB, driver string) (*SQL, error) {
	if err := storage.Migrate(db, driver); err != nil {
		return nil, err
	}
	if err := storage.Truncate(db); err != nil {
		return nil, err
	}
	return &SQL{db: db}, nil
}

func (s *SQL) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM turns WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, errStore("load history", sessionID, err)
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, errStore("scan turn", sessionID, err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQL) AppendTurns(ctx context.Context, sessionID string, turns ...models.Turn) error {
	return s.inTx(ctx, "append turns", sessionID, func(tx *sql.Tx, now time.Time) error {
		for _, t := range turns {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO turns (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
				sessionID, t.Role, t.Content, now,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQL) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, sessionID); err != nil {
		return errStore("clear", sessionID, err)
	}
	return nil
}

func (s *SQL) Files(ctx context.Context, sessionID string) ([]models.UploadedFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, content, file_content FROM uploaded_files WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, errStore("load files", sessionID, err)
	}
	defer rows.Close()

	var files []models.UploadedFile
	for rows.Next() {
		var f models.UploadedFile
		if err := rows.Scan(&f.Filename, &f.Content, &f.FileContent); err != nil {
			return nil, errStore("scan file", sessionID, err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *SQL) AddFiles(ctx context.Context, sessionID string, files ...models.UploadedFile) error {
	return s.inTx(ctx, "add files", sessionID, func(tx *sql.Tx, now time.Time) error {
		for _, f := range files {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO uploaded_files (session_id, filename, content, file_content, created_at) VALUES (?, ?, ?, ?, ?)`,
				sessionID, f.Filename, f.Content, f.FileContent, now,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) inTx(ctx context.Context, op, sessionID string, fn func(*sql.Tx, time.Time) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errStore(op, sessionID, fmt.Errorf("begin tx: %w", err))
	}
	if err := fn(tx, time.Now().UTC()); err != nil {
		tx.Rollback()
		return errStore(op, sessionID, err)
	}
	if err := tx.Commit(); err != nil {
		return errStore(op, sessionID, fmt.Errorf("commit: %w", err))
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Picture is the metadata row of an uploaded picture.
type Picture struct {
	ID           int64
	Path         string
	Suffix       string
	UploadUserID int64
	UploadTime   int64 // unix milliseconds
	Size         int64
	Checksum     string
}

// PictureDao reads and writes picture rows.
type PictureDao struct {
	db *sql.DB
}

const pictureColumns = `id, path, suffix, upload_user_id, upload_time, size, checksum`

// Add inserts p and sets p.ID. Returns the number of rows inserted;
// a duplicate path is ignored and reports zero rows.
func (d *PictureDao) Add(ctx context.Context, p *Picture) (int64, error) {
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO pictures
		(path, suffix, upload_user_id, upload_time, size, checksum)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO NOTHING
	`,
		p.Path,
		p.Suffix,
		p.UploadUserID,
		p.UploadTime,
		p.Size,
		p.Checksum,
	)
	if err != nil {
		return 0, &Error{Op: "add picture", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, &Error{Op: "add picture: rows affected", Err: err}
	}
	if rowsAffected == 0 {
		return 0, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, &Error{Op: "add picture: last insert id", Err: err}
	}
	p.ID = id
	return rowsAffected, nil
}

// GetByID returns the picture with the given id.
// Returns ErrNotFound if no such row exists.
func (d *PictureDao) GetByID(ctx context.Context, id int64) (Picture, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+pictureColumns+`
		FROM pictures
		WHERE id = ?
	`, id)

	p, err := scanPicture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Picture{}, fmt.Errorf("get picture %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Picture{}, &Error{Op: "get picture", Err: err}
	}
	return p, nil
}

// Delete removes the row for p.ID and returns the number of rows removed.
func (d *PictureDao) Delete(ctx context.Context, p Picture) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM pictures WHERE id = ?`, p.ID)
	if err != nil {
		return 0, &Error{Op: "delete picture", Err: err}
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, &Error{Op: "delete picture: rows affected", Err: err}
	}
	return rowsAffected, nil
}

// ListByUser returns up to limit pictures uploaded by userID, newest first.
// Returns an empty slice (not nil) if the user has none.
func (d *PictureDao) ListByUser(ctx context.Context, userID int64, limit int) ([]Picture, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+pictureColumns+`
		FROM pictures
		WHERE upload_user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, &Error{Op: "list pictures", Err: err}
	}
	defer rows.Close()

	pictures := []Picture{}
	for rows.Next() {
		p, err := scanPicture(rows)
		if err != nil {
			return nil, &Error{Op: "scan picture", Err: err}
		}
		pictures = append(pictures, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Op: "iterate pictures", Err: err}
	}
	return pictures, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPicture(s scanner) (Picture, error) {
	var p Picture
	err := s.Scan(&p.ID, &p.Path, &p.Suffix, &p.UploadUserID, &p.UploadTime, &p.Size, &p.Checksum)
	return p, err
}

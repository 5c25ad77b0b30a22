package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chris/worklog/pkg/models"
)

const entryColumns = "id, content, date, week_of_year, iso_year, created_at"

// InsertEntry stores a new entry and returns its ID
func (db *DB) InsertEntry(ctx context.Context, e *models.Entry) (int64, error) {
	if strings.TrimSpace(e.Content) == "" {
		return 0, models.ErrEmptyContent
	}

	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO entries (content, date, week_of_year, iso_year, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.Content,
		e.Date,
		e.WeekOfYear,
		e.ISOYear,
		e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	e.ID = id

	return id, nil
}

// GetEntry returns one entry, or models.ErrNotFound
func (db *DB) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM entries WHERE id = ?", id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}
	return e, nil
}

// EntriesForWeek returns the entries of one ISO week, oldest first
func (db *DB) EntriesForWeek(ctx context.Context, isoYear, week int) ([]models.Entry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE iso_year = ? AND week_of_year = ?
		ORDER BY created_at ASC, id ASC`,
		isoYear, week,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

// UpdateEntry replaces the content of an entry. ID and creation time never change.
func (db *DB) UpdateEntry(ctx context.Context, id int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return models.ErrEmptyContent
	}

	result, err := db.conn.ExecContext(ctx, "UPDATE entries SET content = ? WHERE id = ?", content, id)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return expectOneRow(result, "entry", id)
}

// DeleteEntry removes an entry
func (db *DB) DeleteEntry(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return expectOneRow(result, "entry", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var e models.Entry
	var createdAt int64
	if err := s.Scan(&e.ID, &e.Content, &e.Date, &e.WeekOfYear, &e.ISOYear, &createdAt); err != nil {
		return nil, err
	}
	e.CreatedAt = time.Unix(0, createdAt)
	return &e, nil
}

func expectOneRow(result sql.Result, kind string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, models.ErrNotFound)
	}
	return nil
}

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

const summaryColumns = "id, content, start_date, end_date, week_of_year, iso_year, created_at"

// SummaryForWeek returns the summary of one ISO week, or nil if there is none
func (db *DB) SummaryForWeek(ctx context.Context, isoYear, week int) (*models.Summary, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+summaryColumns+" FROM summaries WHERE iso_year = ? AND week_of_year = ?",
		isoYear, week,
	)

	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	return s, nil
}

// SummaryExistsForWeek checks on the exact (iso_year, week) pair, so the
// answer is never models.ExistsWeekOnly
func (db *DB) SummaryExistsForWeek(ctx context.Context, isoYear, week int) (models.Existence, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM summaries WHERE iso_year = ? AND week_of_year = ?",
		isoYear, week,
	).Scan(&count)
	if err != nil {
		return models.Absent, fmt.Errorf("failed to check summary: %w", err)
	}
	if count > 0 {
		return models.Exists, nil
	}
	return models.Absent, nil
}

// CreateSummary stores the summary of a week. A second summary for the same
// week fails with models.ErrSummaryExists.
func (db *DB) CreateSummary(ctx context.Context, s models.Summary) (*models.Summary, error) {
	if strings.TrimSpace(s.Content) == "" {
		return nil, models.ErrEmptyContent
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO summaries (content, start_date, end_date, week_of_year, iso_year, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Content,
		s.StartDate,
		s.EndDate,
		s.WeekOfYear,
		s.ISOYear,
		s.CreatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%d-W%02d: %w", s.ISOYear, s.WeekOfYear, models.ErrSummaryExists)
		}
		return nil, fmt.Errorf("failed to insert summary: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	s.ID = id

	return &s, nil
}

// UpdateSummary replaces the content of a summary
func (db *DB) UpdateSummary(ctx context.Context, id int64, content string) error {
	if strings.TrimSpace(content) == "" {
		return models.ErrEmptyContent
	}

	result, err := db.conn.ExecContext(ctx, "UPDATE summaries SET content = ? WHERE id = ?", content, id)
	if err != nil {
		return fmt.Errorf("failed to update summary: %w", err)
	}
	return expectOneRow(result, "summary", id)
}

// DeleteSummary removes a summary so the week can be summarized again
func (db *DB) DeleteSummary(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM summaries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
	}
	return expectOneRow(result, "summary", id)
}

func scanSummary(s scanner) (*models.Summary, error) {
	var sum models.Summary
	var createdAt int64
	err := s.Scan(&sum.ID, &sum.Content, &sum.StartDate, &sum.EndDate, &sum.WeekOfYear, &sum.ISOYear, &createdAt)
	if err != nil {
		return nil, err
	}
	sum.CreatedAt = time.Unix(0, createdAt)
	return &sum, nil
}

package models

import "errors"

var (
	// ErrNotFound is returned when an entry or summary does not exist
	ErrNotFound = errors.New("not found")

	// ErrSummaryExists is returned when a second summary is created for a week
	ErrSummaryExists = errors.New("summary already exists for week")

	// ErrPastWeekUnsupported is returned by stores that can only create a
	// summary for the current week
	ErrPastWeekUnsupported = errors.New("summary for arbitrary past week unsupported")

	// ErrEmptyContent is returned when an entry or summary has no text
	ErrEmptyContent = errors.New("content cannot be empty")
)

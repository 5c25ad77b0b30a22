// Package summarize drives one week's AI summary from request to persisted
// result. Every exit path ends in a CardState; nothing is thrown past Generate.
package summarize

import (
	"context"

	"github.com/chris/worklog/pkg/models"
)

// CardState is the stage of a week's summary workflow
type CardState string

const (
	StatePending       CardState = "pending"
	StateGenerating    CardState = "generating"
	StateSuccess       CardState = "success"
	StateFailed        CardState = "failed"
	StateUnauthorized  CardState = "unauthorized"
	StateLimitReached  CardState = "limitReached"
	StateUnsupported   CardState = "unsupported"
	StateAlreadyExists CardState = "alreadyExists"
)

// States lists every CardState, in workflow order
var States = []CardState{
	StatePending,
	StateGenerating,
	StateSuccess,
	StateFailed,
	StateUnauthorized,
	StateLimitReached,
	StateUnsupported,
	StateAlreadyExists,
}

// Reason is the structured failure reason reported by the generation service
type Reason string

const (
	ReasonAuth       Reason = "auth_error"
	ReasonValidation Reason = "validation_error"
	ReasonQuota      Reason = "quota_exceeded"
	ReasonProvider   Reason = "provider_error"
	ReasonOther      Reason = "other_error"
)

// EntryLine is one journal entry as sent to the generation service
type EntryLine struct {
	Timestamp string `json:"timestamp"` // RFC 3339
	Text      string `json:"text"`
}

// Request is the generation service request body
type Request struct {
	WeekStart string      `json:"week_start"`
	WeekEnd   string      `json:"week_end"`
	Entries   []EntryLine `json:"entries"`
	Language  string      `json:"language"`
}

// Response is the generation service response body. When OK is false,
// Reason says why.
type Response struct {
	OK      bool   `json:"ok"`
	Summary string `json:"summary,omitempty"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// Result is the closed outcome of Machine.Generate
type Result struct {
	OK      bool
	State   CardState
	Summary *models.Summary // set when State is StateSuccess
	Message string
}

// Store is the slice of the journal store the machine needs
type Store interface {
	EntriesForWeek(ctx context.Context, isoYear, week int) ([]models.Entry, error)
	SummaryExistsForWeek(ctx context.Context, isoYear, week int) (models.Existence, error)
	CreateSummary(ctx context.Context, s models.Summary) (*models.Summary, error)
}

// TokenSource yields the access token for the generation service.
// An empty token means the user is not signed in.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Generator calls the generation service
type Generator interface {
	Generate(ctx context.Context, accessToken string, req Request) (Response, error)
}

// Recorder observes terminal states, e.g. for metrics
type Recorder interface {
	ObserveGeneration(state CardState)
}

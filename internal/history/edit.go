package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/chris/worklog/pkg/models"
)

// DeleteKind says what a delete prompt targets
type DeleteKind string

const (
	DeleteEntry   DeleteKind = "entry"
	DeleteSummary DeleteKind = "summary"
)

// DeleteTarget is the pending delete confirmation
type DeleteTarget struct {
	Kind    DeleteKind
	WeekKey string
	ID      int64
}

// BeginEdit puts one visible entry into edit mode with its content as draft
func (h *History) BeginEdit(weekKey string, entryID int64) bool {
	return h.editEntry(weekKey, entryID, func(e *EntryView) {
		draft := e.Content
		e.IsEditing = true
		e.DraftContent = &draft
	})
}

// SetDraft replaces the draft of an entry in edit mode
func (h *History) SetDraft(weekKey string, entryID int64, text string) bool {
	return h.editEntry(weekKey, entryID, func(e *EntryView) {
		if e.IsEditing {
			e.DraftContent = &text
		}
	})
}

// CancelEdit leaves edit mode and discards the draft
func (h *History) CancelEdit(weekKey string, entryID int64) bool {
	return h.editEntry(weekKey, entryID, func(e *EntryView) {
		e.IsEditing = false
		e.IsSaving = false
		e.DraftContent = nil
	})
}

func (h *History) editEntry(weekKey string, entryID int64, fn func(*EntryView)) bool {
	found := false
	h.UpdateWeek(weekKey, func(w *WeekGroup) {
		if e := w.FindEntry(entryID); e != nil {
			fn(e)
			found = true
		}
	})
	return found
}

// SaveEntry writes an entry's draft to the store and re-aggregates its week.
// On failure the entry stays in edit mode with its draft.
func (h *History) SaveEntry(ctx context.Context, weekKey string, entryID int64) error {
	var draft string
	var ok bool
	found := h.editEntry(weekKey, entryID, func(e *EntryView) {
		if e.IsEditing && e.DraftContent != nil && !e.IsSaving {
			draft = strings.TrimSpace(*e.DraftContent)
			ok = true
		}
	})
	if !found {
		return fmt.Errorf("save entry %d: %w", entryID, ErrEntryNotLoaded)
	}
	if !ok {
		return fmt.Errorf("save entry %d: %w", entryID, ErrNotEditing)
	}
	if draft == "" {
		return h.surface(fmt.Errorf("save entry %d: %w", entryID, models.ErrEmptyContent), "Entry cannot be empty")
	}

	h.editEntry(weekKey, entryID, func(e *EntryView) { e.IsSaving = true })

	if err := h.store.UpdateEntry(ctx, entryID, draft); err != nil {
		h.editEntry(weekKey, entryID, func(e *EntryView) { e.IsSaving = false })
		return h.surface(fmt.Errorf("save entry %d: %w", entryID, err), "Could not save entry")
	}
	if err := h.reloadWeek(ctx, weekKey); err != nil {
		return h.surface(err, "Could not reload week")
	}
	h.Notify(LevelSuccess, "Entry saved")
	return nil
}

// RequestDelete opens the delete confirmation for target, replacing any
// pending one
func (h *History) RequestDelete(target DeleteTarget) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompt = &target
}

// DeletePrompt returns the pending delete confirmation, if any
func (h *History) DeletePrompt() (DeleteTarget, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.prompt == nil {
		return DeleteTarget{}, false
	}
	return *h.prompt, true
}

// CancelDelete closes the delete confirmation
func (h *History) CancelDelete() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prompt = nil
}

// ConfirmDelete performs the pending delete and re-aggregates its week.
// The prompt is closed whatever the outcome.
func (h *History) ConfirmDelete(ctx context.Context) error {
	h.mu.Lock()
	target := h.prompt
	h.prompt = nil
	h.mu.Unlock()

	if target == nil {
		return ErrNoPrompt
	}

	var err error
	switch target.Kind {
	case DeleteEntry:
		err = h.store.DeleteEntry(ctx, target.ID)
	case DeleteSummary:
		err = h.store.DeleteSummary(ctx, target.ID)
	default:
		err = fmt.Errorf("unknown delete kind %q", target.Kind)
	}
	if err != nil {
		return h.surface(fmt.Errorf("delete %s %d: %w", target.Kind, target.ID, err), "Could not delete "+string(target.Kind))
	}

	if err := h.reloadWeek(ctx, target.WeekKey); err != nil {
		return h.surface(err, "Could not reload week")
	}
	h.Notify(LevelSuccess, strings.ToUpper(string(target.Kind[:1]))+string(target.Kind[1:])+" deleted")
	return nil
}

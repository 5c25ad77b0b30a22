package history

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Level is a notification's severity
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient message that expires on its own timer
type Notification struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Notify appends a notification and returns its ID
func (h *History) Notify(level Level, msg string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.notifyLocked(level, msg)
}

func (h *History) notifyLocked(level Level, msg string) string {
	id := uuid.NewString()
	h.notifications = append(h.notifications, Notification{
		ID:        id,
		Level:     level,
		Message:   msg,
		CreatedAt: h.now(),
	})
	h.timers[id] = time.AfterFunc(h.ttl, func() { h.DismissNotification(id) })
	return id
}

// Notifications returns the live notifications, oldest first
func (h *History) Notifications() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.notifications)
}

// DismissNotification removes one notification before it expires
func (h *History) DismissNotification(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.timers[id]; ok {
		t.Stop()
		delete(h.timers, id)
	}
	i := slices.IndexFunc(h.notifications, func(n Notification) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	h.notifications = slices.Delete(h.notifications, i, i+1)
	return true
}

package tui

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
)

// yankResultMsg is sent after a copy attempt completes.
type yankResultMsg struct {
	err error
}

// osc52Sequence builds the escape sequence that sets the system clipboard.
// Inside tmux the sequence is wrapped in a DCS passthrough with ESCs doubled.
func osc52Sequence(text string, tmux bool) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	if tmux {
		return fmt.Sprintf("\x1bPtmux;\x1b\x1b]52;c;%s\x07\x1b\\", encoded)
	}
	return fmt.Sprintf("\x1b]52;c;%s\x07", encoded)
}

// clipboardWriter implements tea.ExecCommand so the sequence reaches the
// terminal directly rather than through the renderer
type clipboardWriter struct {
	text   string
	stdout io.Writer
}

func (c *clipboardWriter) Run() error {
	_, err := io.WriteString(c.stdout, osc52Sequence(c.text, os.Getenv("TMUX") != ""))
	return err
}

func (c *clipboardWriter) SetStdin(_ io.Reader)  {}
func (c *clipboardWriter) SetStdout(w io.Writer) { c.stdout = w }
func (c *clipboardWriter) SetStderr(_ io.Writer) {}

// yankToClipboard returns a tea.Cmd that copies an entry or summary.
func yankToClipboard(text string) tea.Cmd {
	return tea.Exec(&clipboardWriter{text: text}, func(err error) tea.Msg {
		return yankResultMsg{err: err}
	})
}

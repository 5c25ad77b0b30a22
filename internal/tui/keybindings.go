package tui

// Mode is the input mode keys are interpreted in
type Mode int

const (
	BrowseMode Mode = iota
	EditMode
	PromptMode
)

func (m *Model) mode() Mode {
	if m.editing != nil {
		return EditMode
	}
	if _, ok := m.history.DeletePrompt(); ok {
		return PromptMode
	}
	return BrowseMode
}

// Mode returns the current input mode
func (m *Model) Mode() Mode {
	return m.mode()
}

// helpBinding represents a single keybinding entry for the help view.
type helpBinding struct {
	key  string
	desc string
}

// bindingsForMode returns the help bindings for the given mode.
func bindingsForMode(mode Mode) []helpBinding {
	switch mode {
	case EditMode:
		return editBindings()
	case PromptMode:
		return promptBindings()
	default:
		return browseBindings()
	}
}

func browseBindings() []helpBinding {
	return []helpBinding{
		{"j", "Navigate down"},
		{"k", "Navigate up"},
		{"enter", "Collapse week / expand duplicates"},
		{"g", "Generate week summary"},
		{"e", "Edit entry"},
		{"d", "Delete entry"},
		{"D", "Delete week summary"},
		{"y", "Yank text"},
		{"m", "Load older weeks"},
		{"r", "Refresh"},
		{"?", "Help"},
		{"q", "Quit"},
	}
}

func editBindings() []helpBinding {
	return []helpBinding{
		{"enter", "Save entry"},
		{"esc", "Cancel edit"},
		{"bksp", "Delete character"},
	}
}

func promptBindings() []helpBinding {
	return []helpBinding{
		{"y", "Confirm delete"},
		{"n", "Keep"},
	}
}

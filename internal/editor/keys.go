package editor

import "strings"

func (e *Editor) keyDown(ev Event) Change {
	if ev.command() {
		return e.commandKey(ev)
	}

	// Unmodified keys belong to the text entry surface while it is open.
	if e.text != nil {
		switch ev.Key {
		case "Enter":
			if ev.Shift {
				return 0
			}
			return e.finishText()
		case "Escape":
			return e.cancelText()
		case "Delete":
			if e.text.EditingID != 0 {
				return e.deleteText(e.text.EditingID)
			}
		}
		return 0
	}

	if ev.Alt {
		switch {
		case strings.EqualFold(ev.Key, "c"):
			e.state.ShowColorPicker = !e.state.ShowColorPicker
			return ChangeState
		case ev.Key == "Delete":
			return e.Clear()
		}
		return 0
	}

	switch ev.Key {
	case "Enter":
		return e.reopenText()
	case "Delete", "Backspace":
		return e.DeleteSelection()
	case "Escape":
		if e.selection.Kind != SelectNone {
			e.selection = Selection{}
			return ChangeSelection
		}
		return 0
	}
	if t, ok := toolShortcuts[strings.ToLower(ev.Key)]; ok {
		return e.SetTool(t)
	}
	return 0
}

// commandKey handles Ctrl/Cmd shortcuts.
func (e *Editor) commandKey(ev Event) Change {
	switch ev.Key {
	case "z", "Z":
		if ev.Shift {
			return e.Redo()
		}
		return e.Undo()
	case "+", "=":
		return e.ZoomIn()
	case "-":
		return e.ZoomOut()
	}
	return 0
}

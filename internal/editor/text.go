package editor

import (
	"strings"

	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
)

// openText opens an empty entry surface for a new text at pos.
func (e *Editor) openText(pos geom.Point) Change {
	e.text = &TextEdit{Position: pos}
	e.selection = Selection{}
	return ChangeText | ChangeSelection
}

// editText opens the entry surface on an existing text.
func (e *Editor) editText(t scene.TextObject) Change {
	e.selectText(t)
	e.text = &TextEdit{Position: t.Position, Buffer: t.Content, EditingID: t.ID}
	return ChangeText | ChangeSelection | ChangeState
}

// reopenText opens the entry surface on the loaded edit buffer.
func (e *Editor) reopenText() Change {
	b := e.EditBuffer()
	if b == nil {
		return 0
	}
	e.text = b
	return ChangeText
}

// finishText commits the entry surface. Blank input is discarded without
// touching the scene or history.
func (e *Editor) finishText() Change {
	t := e.text
	e.text = nil
	if t == nil {
		return 0
	}
	if strings.TrimSpace(t.Buffer) == "" {
		return ChangeText
	}

	id := t.EditingID
	if id == 0 {
		id = e.nextTextID()
	}
	obj := scene.TextObject{
		ID:         id,
		Position:   t.Position,
		Content:    t.Buffer,
		FontSize:   e.state.FontSize,
		FontFamily: e.state.FontFamily,
		Color:      e.state.Color,
		Alignment:  e.state.Alignment,
	}
	if old, ok := e.scene.Text(id); ok && old == obj {
		return ChangeText
	}
	e.scene.UpsertText(obj)
	e.commit()

	change := ChangeText | ChangeScene | ChangeHistory
	if t.EditingID == 0 {
		e.selection = Selection{}
		change |= ChangeSelection
	}
	return change
}

// cancelText closes the entry surface without changing the scene.
func (e *Editor) cancelText() Change {
	if e.text == nil {
		return 0
	}
	e.text = nil
	e.selection = Selection{}
	return ChangeText | ChangeSelection
}

// deleteText removes a text as one undoable edit and closes any entry surface.
func (e *Editor) deleteText(id int64) Change {
	if !e.scene.RemoveText(id) {
		return 0
	}
	e.text = nil
	e.selection = Selection{}
	e.commit()
	return ChangeScene | ChangeHistory | ChangeSelection | ChangeText
}

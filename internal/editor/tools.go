package editor

import (
	"github.com/sketchify/sketchify/backend-go/internal/geom"
	"github.com/sketchify/sketchify/backend-go/internal/scene"
	"github.com/sketchify/sketchify/backend-go/internal/stroke"
)

func (e *Editor) pointerDown(ev Event) Change {
	// A missed pointer-up must not leave a gesture half open.
	change := e.pointerUp()

	// Clicking away from an open text entry finishes it.
	if e.text != nil {
		return change | e.finishText()
	}

	pos := e.view.ToLogical(ev.Screen())
	scale := e.view.Scale

	if e.state.Tool != ToolSelect && e.selection.Kind != SelectNone {
		e.selection = Selection{}
		change |= ChangeSelection
	}

	switch tool := e.state.Tool; tool {
	case ToolSelect:
		return change | e.selectAt(ev.Screen(), pos)

	case ToolText:
		return change

	case ToolPen:
		e.scene.AppendStroke(scene.Stroke{
			Tool:        scene.ToolPen,
			Points:      []float64{pos.X, pos.Y},
			Color:       e.state.Color,
			StrokeWidth: e.state.BrushSize / scale,
		})
		e.speed.Begin(pos)
		e.gesture = gesture{kind: gestureStroke, start: pos}
		return change | ChangeScene

	case ToolEraser:
		// The eraser paints the canvas background colour over what is below.
		e.scene.AppendStroke(scene.Stroke{
			Tool:        scene.ToolEraser,
			Points:      []float64{pos.X, pos.Y},
			Color:       scene.White,
			StrokeWidth: e.state.EraserSize / scale,
		})
		e.gesture = gesture{kind: gestureStroke, start: pos}
		return change | ChangeScene

	default:
		typ, ok := tool.shapeType()
		if !ok {
			return change
		}
		e.scene.AppendShape(scene.Shape{
			Type:        typ,
			Origin:      pos,
			Color:       e.state.Color,
			StrokeWidth: e.state.BrushSize / scale,
			Filled:      e.state.FillShapes,
		})
		e.gesture = gesture{kind: gestureShape, start: pos}
		return change | ChangeScene
	}
}

// selectAt picks the topmost text, then the topmost shape, under the pointer.
// A hit starts a drag of that object; a miss clears the selection and pans.
func (e *Editor) selectAt(screen, pos geom.Point) Change {
	if t, ok := e.scene.TextAt(pos, e.measurer); ok {
		e.selectText(t)
		e.gesture = gesture{kind: gestureDragText, start: pos, from: t.Position}
		return ChangeSelection | ChangeState
	}
	if i := e.scene.ShapeAt(pos, hitSlop/e.view.Scale); i >= 0 {
		e.selection = Selection{Kind: SelectShape, ShapeIndex: i}
		e.gesture = gesture{kind: gestureDragShape, start: pos, from: e.scene.Shapes[i].Origin}
		return ChangeSelection
	}
	e.gesture = gesture{kind: gesturePan, lastScreen: screen}
	if e.selection.Kind == SelectNone {
		return 0
	}
	e.selection = Selection{}
	return ChangeSelection
}

// selectText marks t selected and loads it into the edit buffer, with its
// style in the editor state, so a following edit starts from it.
func (e *Editor) selectText(t scene.TextObject) {
	e.selection = Selection{Kind: SelectText, TextID: t.ID}
	e.buffer = &TextEdit{Position: t.Position, Buffer: t.Content, EditingID: t.ID}
	e.state.FontSize = t.FontSize
	e.state.FontFamily = t.FontFamily
	e.state.Alignment = t.Alignment
	e.state.Color = t.Color
}

func (e *Editor) pointerMove(ev Event) Change {
	g := &e.gesture
	if g.kind == gestureNone {
		return 0
	}
	pos := e.view.ToLogical(ev.Screen())

	switch g.kind {
	case gestureStroke:
		last := e.scene.LastStroke()
		points := append(last.Points, pos.X, pos.Y)
		width := last.StrokeWidth
		if last.Tool == scene.ToolPen {
			width = stroke.DynamicWidth(e.speed.Push(pos), e.state.BrushSize/e.view.Scale)
		}
		e.scene.UpdateLastStroke(points, width)
		return ChangeScene

	case gestureShape:
		e.scene.UpdateLastShape(pos.X-g.start.X, pos.Y-g.start.Y)
		return ChangeScene

	case gestureDragText:
		to := g.from.Add(pos.Sub(g.start))
		if e.scene.MoveText(e.selection.TextID, to) {
			if e.buffer != nil {
				e.buffer.Position = to
			}
			g.moved = true
			return ChangeScene
		}

	case gestureDragShape:
		if e.scene.MoveShape(e.selection.ShapeIndex, g.from.Add(pos.Sub(g.start))) {
			g.moved = true
			return ChangeScene
		}

	case gesturePan:
		screen := ev.Screen()
		e.view = e.view.Pan(screen.X-g.lastScreen.X, screen.Y-g.lastScreen.Y)
		g.lastScreen = screen
		return ChangeView
	}
	return 0
}

// pointerUp ends the active gesture, committing history for gestures that
// edited the scene.
func (e *Editor) pointerUp() Change {
	g := e.gesture
	e.gesture = gesture{}
	e.speed.Reset()

	switch g.kind {
	case gestureStroke, gestureShape:
		e.commit()
		return ChangeHistory
	case gestureDragText, gestureDragShape:
		if g.moved {
			e.commit()
			return ChangeHistory
		}
	}
	return 0
}

func (e *Editor) doubleClick(ev Event) Change {
	tool := e.state.Tool
	if tool != ToolText && tool != ToolSelect {
		return 0
	}
	change := e.pointerUp()
	pos := e.view.ToLogical(ev.Screen())

	if t, ok := e.scene.TextAt(pos, e.measurer); ok {
		return change | e.editText(t)
	}
	if tool == ToolText {
		return change | e.openText(pos)
	}
	return change
}

package geom

const (
	// ZoomStep is the factor applied by one zoom-in step; zoom-out uses 1/ZoomStep.
	ZoomStep = 1.1

	MinScale = 0.01
	MaxScale = 100.0
)

// ViewTransform maps logical space to screen space as
// screen = logical*Scale + Offset.
type ViewTransform struct {
	Scale  float64 `json:"scale"`
	Offset Point   `json:"offset"`
}

// DefaultView returns the unscaled, unpanned view.
func DefaultView() ViewTransform {
	return ViewTransform{Scale: 1}
}

// ClampScale limits s to [MinScale, MaxScale].
func ClampScale(s float64) float64 {
	return max(MinScale, min(MaxScale, s))
}

// ToLogical converts a screen point into logical space.
func (v ViewTransform) ToLogical(screen Point) Point {
	return v.Matrix().Invert().Apply(screen)
}

// ToScreen converts a logical point into screen space.
func (v ViewTransform) ToScreen(logical Point) Point {
	return Point{
		X: logical.X*v.Scale + v.Offset.X,
		Y: logical.Y*v.Scale + v.Offset.Y,
	}
}

// Matrix returns the logical→screen transform as an affine matrix.
func (v ViewTransform) Matrix() Matrix2D {
	return Translate(v.Offset.X, v.Offset.Y).Multiply(Scale(v.Scale, v.Scale))
}

// ZoomAt rescales the view by factor around a screen-space pivot: the logical
// point under pivot before the call is under pivot afterwards. The resulting
// scale is clamped; factor must be positive.
func (v ViewTransform) ZoomAt(pivot Point, factor float64) ViewTransform {
	anchor := v.ToLogical(pivot)
	scale := ClampScale(v.Scale * factor)
	return ViewTransform{
		Scale: scale,
		Offset: Point{
			X: pivot.X - anchor.X*scale,
			Y: pivot.Y - anchor.Y*scale,
		},
	}
}

// ZoomIn zooms one step in around pivot.
func (v ViewTransform) ZoomIn(pivot Point) ViewTransform {
	return v.ZoomAt(pivot, ZoomStep)
}

// ZoomOut zooms one step out around pivot.
func (v ViewTransform) ZoomOut(pivot Point) ViewTransform {
	return v.ZoomAt(pivot, 1/ZoomStep)
}

// Pan moves the view by a screen-space delta.
func (v ViewTransform) Pan(dx, dy float64) ViewTransform {
	v.Offset.X += dx
	v.Offset.Y += dy
	return v
}

// Wheel interprets a wheel event. With zoomModifier held the view zooms around
// pivot (scrolling up zooms in); without it the wheel pans by the delta.
func (v ViewTransform) Wheel(pivot Point, deltaX, deltaY float64, zoomModifier bool) ViewTransform {
	if !zoomModifier {
		return v.Pan(-deltaX, -deltaY)
	}
	switch {
	case deltaY < 0:
		return v.ZoomIn(pivot)
	case deltaY > 0:
		return v.ZoomOut(pivot)
	}
	return v
}

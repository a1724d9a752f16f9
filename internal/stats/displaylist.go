package stats

import "image/color"

// OpKind names a drawing operation.
type OpKind string

const (
	OpLine       OpKind = "line"
	OpFillRect   OpKind = "fill"
	OpStrokeRect OpKind = "stroke"
)

// Op is one recorded drawing operation. For lines X,Y is the start and
// X2,Y2 the end; for rectangles X,Y is the top left corner and W,H the size.
type Op struct {
	Kind      OpKind
	X, Y      float64
	X2, Y2    float64
	W, H      float64
	Color     string
	LineWidth float64
}

// DisplayList is a Canvas that records operations instead of rasterizing them.
type DisplayList struct {
	width, height float64
	ops           []Op
	clears        int
}

// NewDisplayList creates an empty display list of the given size.
func NewDisplayList(width, height float64) *DisplayList {
	return &DisplayList{width: width, height: height} //nolint:exhaustruct // empty
}

func (d *DisplayList) Size() (float64, float64) {
	return d.width, d.height
}

func (d *DisplayList) Clear() {
	d.ops = nil
	d.clears++
}

func (d *DisplayList) Line(x0, y0, x1, y1 float64, stroke color.Color, lineWidth float64) {
	d.ops = append(d.ops, Op{ //nolint:exhaustruct // lines have no size
		Kind: OpLine, X: x0, Y: y0, X2: x1, Y2: y1, Color: Hex(stroke), LineWidth: lineWidth,
	})
}

func (d *DisplayList) FillRect(x, y, w, h float64, fill color.Color) {
	d.ops = append(d.ops, Op{ //nolint:exhaustruct // fills have no end point
		Kind: OpFillRect, X: x, Y: y, W: w, H: h, Color: Hex(fill),
	})
}

func (d *DisplayList) StrokeRect(x, y, w, h float64, stroke color.Color, lineWidth float64) {
	d.ops = append(d.ops, Op{ //nolint:exhaustruct // rects have no end point
		Kind: OpStrokeRect, X: x, Y: y, W: w, H: h, Color: Hex(stroke), LineWidth: lineWidth,
	})
}

// Ops returns the operations recorded since the last Clear.
func (d *DisplayList) Ops() []Op {
	return append([]Op(nil), d.ops...)
}

// Clears returns how many times the surface was cleared.
func (d *DisplayList) Clears() int {
	return d.clears
}

// Filter returns recorded operations of one kind.
func (d *DisplayList) Filter(kind OpKind) []Op {
	var out []Op
	for _, op := range d.ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}

	return out
}

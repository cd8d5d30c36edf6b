package light

// Kind is the geometric outline of a fixture or shape.
type Kind string

const Rectangle Kind = "rectangle"

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Overlaps reports whether two rectangles share interior area.
// Touching edges do not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Fixture is one addressable light.
type Fixture struct {
	ID                  int         `json:"id"`
	X                   float64     `json:"posX"`
	Y                   float64     `json:"posY"`
	Kind                Kind        `json:"shape"`
	Type                string      `json:"type"`
	Width               float64     `json:"width"`
	Height              float64     `json:"height"`
	Color               Color       `json:"color"`
	OnClick             ClickAction `json:"onClick"`
	Group               string      `json:"group"`
	AffectedByAnimation bool        `json:"affectedByAnimation"`

	hardwareSig string
	monitorSig  string
}

func (f *Fixture) Bounds() Rect {
	return Rect{X: f.X, Y: f.Y, W: f.Width, H: f.Height}
}

// Signature is the canonical form of what a fixture currently displays.
func (f *Fixture) Signature() string {
	return f.Color.String() + "|" + string(f.OnClick)
}

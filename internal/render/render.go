// Package render turns computed geometry (layout.Layout plus
// router.Result per connection) and a Theme into a Document: a flat,
// ordered list of vector draw primitives. It does not know how to
// serialize to any concrete output format — internal/svgwriter and
// internal/pdfwriter do that from a Document.
//
// Per-kind color lookups and the arrowhead-by-trigonometry construction
// are grounded on dshills-dungo/pkg/export/svg.go's getNodeColor /
// getEdgeStyle and its Atan2-based arrow tip/left/right point math.
package render

import (
	"math"

	"github.com/eventmodeler/eventmodeler/internal/instantiate"
	"github.com/eventmodeler/eventmodeler/internal/layout"
	"github.com/eventmodeler/eventmodeler/internal/model"
	"github.com/eventmodeler/eventmodeler/internal/router"
)

// Color is an RGB hex-style color, e.g. "#1f6feb".
type Color string

// KindStyle is the fill/stroke/text color triple for one entity kind.
type KindStyle struct {
	Fill   Color
	Stroke Color
	Text   Color
}

// Theme is a closed, flat record of every color this renderer needs — no
// inheritance or cascading, per the "themes as flat records" design note.
type Theme struct {
	Name string

	Background     Color
	SwimlaneBorder Color
	SwimlaneLabel  Color
	SliceHeader    Color
	SliceDivider   Color
	ArrowStroke    Color
	ArrowHead      Color

	Event      KindStyle
	Command    KindStyle
	View       KindStyle
	Projection KindStyle
	Query      KindStyle
	Automation KindStyle
}

// LightTheme is the default light color scheme.
func LightTheme() Theme {
	return Theme{
		Name:           "light",
		Background:     "#ffffff",
		SwimlaneBorder: "#d0d7de",
		SwimlaneLabel:  "#24292f",
		SliceHeader:    "#57606a",
		SliceDivider:   "#eaeef2",
		ArrowStroke:    "#57606a",
		ArrowHead:      "#57606a",
		Event:          KindStyle{Fill: "#fff3bf", Stroke: "#e6a700", Text: "#4d3800"},
		Command:        KindStyle{Fill: "#d0ebff", Stroke: "#1c7ed6", Text: "#0b3d66"},
		View:           KindStyle{Fill: "#e9ecef", Stroke: "#495057", Text: "#212529"},
		Projection:     KindStyle{Fill: "#d3f9d8", Stroke: "#2f9e44", Text: "#0b3d0b"},
		Query:          KindStyle{Fill: "#e5dbff", Stroke: "#7048e8", Text: "#2b1a63"},
		Automation:     KindStyle{Fill: "#ffe3e3", Stroke: "#e03131", Text: "#5c0a0a"},
	}
}

// DarkTheme is the default dark color scheme, structurally identical to
// LightTheme with different colors.
func DarkTheme() Theme {
	return Theme{
		Name:           "dark",
		Background:     "#0d1117",
		SwimlaneBorder: "#30363d",
		SwimlaneLabel:  "#c9d1d9",
		SliceHeader:    "#8b949e",
		SliceDivider:   "#21262d",
		ArrowStroke:    "#8b949e",
		ArrowHead:      "#8b949e",
		Event:          KindStyle{Fill: "#3b2f00", Stroke: "#e3b341", Text: "#f2dd8f"},
		Command:        KindStyle{Fill: "#0c2d48", Stroke: "#58a6ff", Text: "#a5d6ff"},
		View:           KindStyle{Fill: "#21262d", Stroke: "#8b949e", Text: "#c9d1d9"},
		Projection:     KindStyle{Fill: "#0f2e17", Stroke: "#3fb950", Text: "#aff5b4"},
		Query:          KindStyle{Fill: "#2d2150", Stroke: "#a371f7", Text: "#d2a8ff"},
		Automation:     KindStyle{Fill: "#3c1414", Stroke: "#f85149", Text: "#ffc1bc"},
	}
}

func kindStyle(theme Theme, kind model.Kind) KindStyle {
	switch kind {
	case model.KindEvent:
		return theme.Event
	case model.KindCommand:
		return theme.Command
	case model.KindView:
		return theme.View
	case model.KindProjection:
		return theme.Projection
	case model.KindQuery:
		return theme.Query
	case model.KindAutomation:
		return theme.Automation
	default:
		return theme.View
	}
}

// Box is a drawn entity rectangle with its wrapped label lines.
type Box struct {
	Key   instantiate.Key
	Rect  layout.Rect
	Lines []string
	Style KindStyle
}

// Lane is a drawn swimlane band.
type Lane struct {
	Label string
	Y     int
	Height int
}

// SliceHeaderBox is a drawn slice-name header.
type SliceHeaderBox struct {
	Label string
	X     int
	Width int
}

// Arrowhead is a filled triangle at a path's terminal point.
type Arrowhead struct {
	Tip, Left, Right Point
}

// Point is a float output coordinate; the renderer converts from
// router.Point's ints once, at the drawing boundary, since SVG/PDF
// writers may want fractional arrowhead geometry.
type Point struct {
	X, Y float64
}

// Path is a drawn orthogonal connector.
type Path struct {
	Points []Point
	Head   *Arrowhead // nil when no route was found
}

// Document is the renderer's complete output: every primitive needed to
// draw one diagram, in back-to-front order.
type Document struct {
	Width, Height int
	Background    Color

	Lanes   []Lane
	Headers []SliceHeaderBox
	Boxes   []Box
	Paths   []Path
}

const arrowLength = 10.0
const arrowSpread = 0.5 // radians off the path direction

func buildArrowhead(from, to Point) *Arrowhead {
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx == 0 && dy == 0 {
		return nil
	}
	angle := math.Atan2(dy, dx)
	tip := to
	left := Point{
		X: to.X - arrowLength*math.Cos(angle-arrowSpread),
		Y: to.Y - arrowLength*math.Sin(angle-arrowSpread),
	}
	right := Point{
		X: to.X - arrowLength*math.Cos(angle+arrowSpread),
		Y: to.Y - arrowLength*math.Sin(angle+arrowSpread),
	}
	return &Arrowhead{Tip: tip, Left: left, Right: right}
}

func toPoints(path []router.Point) []Point {
	out := make([]Point, len(path))
	for i, p := range path {
		out[i] = Point{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}

// Render builds a Document from l, the per-connection routing results
// (aligned with conns by index), and theme, styling each box by the kind
// in its node key via kindStyle.
func Render(l *layout.Layout, conns []instantiate.Connection, routes []router.Result, theme Theme) *Document {
	doc := &Document{Width: l.Canvas.Width, Height: l.Canvas.Height, Background: theme.Background}

	for _, sw := range l.Swimlanes {
		doc.Lanes = append(doc.Lanes, Lane{Label: sw.ID, Y: sw.Y, Height: sw.Height})
	}
	for _, s := range l.Slices {
		doc.Headers = append(doc.Headers, SliceHeaderBox{Label: s.Name, X: s.X, Width: s.Width})
	}
	for _, n := range l.Nodes {
		doc.Boxes = append(doc.Boxes, Box{
			Key: n.Key, Rect: n.Rect, Lines: n.Lines, Style: kindStyle(theme, n.Key.Kind),
		})
	}

	for i := range conns {
		if i >= len(routes) {
			continue
		}
		res := routes[i]
		if res.Phase != router.PhaseDone || len(res.Path) == 0 {
			continue
		}
		pts := toPoints(res.Path)
		var head *Arrowhead
		if len(pts) >= 2 {
			head = buildArrowhead(pts[len(pts)-2], pts[len(pts)-1])
		}
		doc.Paths = append(doc.Paths, Path{Points: pts, Head: head})
	}

	return doc
}

// Package layout computes deterministic, integer geometry for a flat
// instantiate.Graph: swimlane heights, slice widths, canvas size, and a
// positioned rectangle for every node. All arithmetic stays in int so
// the router downstream never touches a float, per the module's
// integer-geometry requirement.
//
// Defaults are grounded on original_source/src/diagram/node_layout.rs's
// test fixture (entity_spacing=20, swimlane_height=100, entity_width=160,
// entity_height=80, slice_gutter=10), translated from that file's floats
// to int pixels.
package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eventmodeler/eventmodeler/internal/instantiate"
	"github.com/eventmodeler/eventmodeler/internal/registry"
)

// Config holds the tunable constants driving layout computation.
type Config struct {
	EntitySpacing     int // margin between entities and around a cell
	SwimlaneHeight    int // minimum height of a swimlane row
	EntityWidth       int // preferred/minimum entity box width
	EntityHeight      int // minimum entity box height
	SliceGutter       int // gap between adjacent slice columns
	LabelColumnWidth  int // left column reserved for swimlane labels
	HeaderHeight      int // top margin above the first slice header
	SliceHeaderHeight int // height reserved for slice name headers
	BottomPadding     int
	CharWidth         int // approximate glyph advance width, for wrapping
	LineHeight        int
}

// DefaultConfig returns the constants this module ships with.
func DefaultConfig() Config {
	return Config{
		EntitySpacing:     20,
		SwimlaneHeight:    100,
		EntityWidth:       160,
		EntityHeight:      80,
		SliceGutter:       10,
		LabelColumnWidth:  140,
		HeaderHeight:      40,
		SliceHeaderHeight: 30,
		BottomPadding:     20,
		CharWidth:         8,
		LineHeight:        16,
	}
}

// Rect is an axis-aligned integer rectangle.
type Rect struct {
	X, Y, Width, Height int
}

// Node is a positioned physical node ready for routing and rendering.
type Node struct {
	Key       instantiate.Key
	Swimlane  string
	SliceName string
	Rect      Rect
	Lines     []string
}

// SwimlaneLayout is the vertical band occupied by one swimlane.
type SwimlaneLayout struct {
	ID     string
	Y      int
	Height int
}

// SliceLayout is the horizontal band occupied by one slice.
type SliceLayout struct {
	Name  string
	X     int
	Width int
}

// Canvas is the overall drawing surface size.
type Canvas struct {
	Width, Height int
}

// Layout is the full computed geometry for one diagram.
type Layout struct {
	Canvas    Canvas
	Swimlanes []SwimlaneLayout
	Slices    []SliceLayout
	Nodes     []Node
}

// Error reports a layout computation failure.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// wrapText greedily packs words onto lines no wider than preferredChars,
// growing only when a single word exceeds that width on its own.
func wrapText(name string, preferredChars int) (lines []string, widestChars int) {
	words := strings.Fields(name)
	if len(words) == 0 {
		return []string{""}, 0
	}
	var cur string
	flush := func() {
		if cur != "" {
			lines = append(lines, cur)
			if len(cur) > widestChars {
				widestChars = len(cur)
			}
			cur = ""
		}
	}
	for _, w := range words {
		if len(w) > widestChars {
			widestChars = len(w)
		}
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if len(candidate) <= preferredChars || cur == "" {
			cur = candidate
		} else {
			flush()
			cur = w
		}
	}
	flush()
	return lines, widestChars
}

func entityDimensions(cfg Config, name string) (width, height int, lines []string) {
	preferredChars := cfg.EntityWidth / cfg.CharWidth
	if preferredChars < 1 {
		preferredChars = 1
	}
	wrapped, widestChars := wrapText(name, preferredChars)
	width = cfg.EntityWidth
	if widestChars > preferredChars {
		width = widestChars * cfg.CharWidth
	}
	height = cfg.EntityHeight
	needed := len(wrapped)*cfg.LineHeight + 2*cfg.EntitySpacing/2
	if needed > height {
		height = needed
	}
	return width, height, wrapped
}

// Compute lays out g's nodes using reg's swimlane ordering, each node's
// label text resolved via displayName.
func Compute(g *instantiate.Graph, reg *registry.Registry, cfg Config) (*Layout, error) {
	var swimlanes []registryLane
	for _, sw := range reg.Doc.Swimlanes {
		swimlanes = append(swimlanes, registryLane{id: sw.ID, pos: sw.Position})
	}
	sort.Slice(swimlanes, func(i, j int) bool { return swimlanes[i].pos < swimlanes[j].pos })
	if len(swimlanes) == 0 {
		return nil, &Error{"layout: document declares no swimlanes"}
	}

	laneIndex := make(map[string]int, len(swimlanes))
	for i, l := range swimlanes {
		laneIndex[l.id] = i
	}

	sliceOrder := reg.Doc.SliceOrder

	type cellNode struct {
		node   instantiate.Node
		width  int
		height int
		lines  []string
	}
	// cells[sliceIdx][laneIdx] -> ordered nodes
	cells := make([][][]cellNode, len(sliceOrder))
	for i := range cells {
		cells[i] = make([][]cellNode, len(swimlanes))
	}
	sliceIndex := make(map[string]int, len(sliceOrder))
	for i, s := range sliceOrder {
		sliceIndex[s] = i
	}

	for _, n := range g.Nodes {
		si, ok := sliceIndex[n.Key.SliceName]
		if !ok {
			return nil, &Error{fmt.Sprintf("layout: node references unknown slice %q", n.Key.SliceName)}
		}
		li, ok := laneIndex[n.Swimlane]
		if !ok {
			return nil, &Error{fmt.Sprintf("layout: node %s references unknown swimlane %q", n.Key, n.Swimlane)}
		}
		label := displayName(n)
		w, h, lines := entityDimensions(cfg, label)
		cells[si][li] = append(cells[si][li], cellNode{node: n, width: w, height: h, lines: lines})
	}

	// Per-slice width.
	sliceWidths := make([]int, len(sliceOrder))
	minSliceWidth := cfg.EntityWidth + 2*cfg.EntitySpacing
	for si := range sliceOrder {
		width := minSliceWidth
		for li := range swimlanes {
			cellNodes := cells[si][li]
			if len(cellNodes) == 0 {
				continue
			}
			sum := 0
			for _, cn := range cellNodes {
				sum += cn.width
			}
			w := sum + (len(cellNodes)+1)*cfg.EntitySpacing
			if w > width {
				width = w
			}
		}
		sliceWidths[si] = width
	}

	// Per-swimlane height.
	laneHeights := make([]int, len(swimlanes))
	for li := range swimlanes {
		height := cfg.SwimlaneHeight
		for si := range sliceOrder {
			for _, cn := range cells[si][li] {
				h := cn.height + 2*cfg.EntitySpacing
				if h > height {
					height = h
				}
			}
		}
		laneHeights[li] = height
	}

	// Positions.
	layout := &Layout{}
	x := cfg.LabelColumnWidth
	for si, name := range sliceOrder {
		layout.Slices = append(layout.Slices, SliceLayout{Name: name, X: x, Width: sliceWidths[si]})
		x += sliceWidths[si]
		if si != len(sliceOrder)-1 {
			x += cfg.SliceGutter
		}
	}
	canvasWidth := x

	y := cfg.HeaderHeight + cfg.SliceHeaderHeight
	for li, lane := range swimlanes {
		layout.Swimlanes = append(layout.Swimlanes, SwimlaneLayout{ID: lane.id, Y: y, Height: laneHeights[li]})
		y += laneHeights[li]
	}
	canvasHeight := y + cfg.BottomPadding

	for si := range sliceOrder {
		sliceX := layout.Slices[si].X
		sliceWidth := layout.Slices[si].Width
		for li := range swimlanes {
			laneY := layout.Swimlanes[li].Y
			laneHeight := layout.Swimlanes[li].Height
			cellNodes := cells[si][li]
			n := len(cellNodes)
			if n == 0 {
				continue
			}
			if n == 1 {
				cn := cellNodes[0]
				nx := sliceX + (sliceWidth-cn.width)/2
				ny := laneY + (laneHeight-cn.height)/2
				layout.Nodes = append(layout.Nodes, Node{
					Key: cn.node.Key, Swimlane: cn.node.Swimlane, SliceName: sliceOrder[si],
					Rect: Rect{nx, ny, cn.width, cn.height}, Lines: cn.lines,
				})
				continue
			}
			sum := 0
			for _, cn := range cellNodes {
				sum += cn.width
			}
			margin := (sliceWidth - sum) / (n + 1)
			if margin < 0 {
				margin = 0
			}
			cx := sliceX + margin
			for _, cn := range cellNodes {
				ny := laneY + (laneHeight-cn.height)/2
				layout.Nodes = append(layout.Nodes, Node{
					Key: cn.node.Key, Swimlane: cn.node.Swimlane, SliceName: sliceOrder[si],
					Rect: Rect{cx, ny, cn.width, cn.height}, Lines: cn.lines,
				})
				cx += cn.width + margin
			}
		}
	}

	layout.Canvas = Canvas{Width: canvasWidth, Height: canvasHeight}
	return layout, nil
}

type registryLane struct {
	id  string
	pos int
}

// displayName is the text wrapText wraps inside the node box: the dotted
// component path when present, else the bare entity name.
func displayName(n instantiate.Node) string {
	if n.ComponentPath != "" {
		return n.Key.EntityName + "." + n.ComponentPath
	}
	return n.Key.EntityName
}

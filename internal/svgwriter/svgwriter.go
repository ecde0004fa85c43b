// Package svgwriter serializes a render.Document to SVG using
// github.com/ajstarks/svgo, the way
// dshills-dungo/pkg/export/svg.go does: deterministic output (entities
// and connectors are drawn in the Document's own stable order, never a
// map iteration order), one svg.SVG per call, styles built as inline CSS
// strings rather than named classes.
package svgwriter

import (
	"fmt"
	"io"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/eventmodeler/eventmodeler/internal/render"
)

// Write serializes doc as an SVG document to w.
func Write(w io.Writer, doc *render.Document) error {
	canvas := svg.New(w)
	canvas.Start(doc.Width, doc.Height)
	canvas.Rect(0, 0, doc.Width, doc.Height, fmt.Sprintf("fill:%s", doc.Background))

	for _, lane := range doc.Lanes {
		canvas.Line(0, lane.Y, doc.Width, lane.Y, "stroke:#d0d7de;stroke-width:1")
		canvas.Text(8, lane.Y+16, lane.Label, "font-size:12px;font-family:sans-serif")
	}

	for _, h := range doc.Headers {
		canvas.Text(h.X+h.Width/2, 20, h.Label, "font-size:13px;font-family:sans-serif;text-anchor:middle")
	}

	for _, box := range doc.Boxes {
		style := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", box.Style.Fill, box.Style.Stroke)
		canvas.Rect(box.Rect.X, box.Rect.Y, box.Rect.Width, box.Rect.Height, style)
		textStyle := fmt.Sprintf("fill:%s;font-size:12px;font-family:sans-serif;text-anchor:middle", box.Style.Text)
		lineHeight := 16
		startY := box.Rect.Y + box.Rect.Height/2 - (len(box.Lines)-1)*lineHeight/2 + 4
		for i, line := range box.Lines {
			canvas.Text(box.Rect.X+box.Rect.Width/2, startY+i*lineHeight, line, textStyle)
		}
	}

	for _, p := range doc.Paths {
		if len(p.Points) < 2 {
			continue
		}
		xs := make([]int, len(p.Points))
		ys := make([]int, len(p.Points))
		for i, pt := range p.Points {
			xs[i] = int(pt.X)
			ys[i] = int(pt.Y)
		}
		canvas.Polyline(xs, ys, "fill:none;stroke:#57606a;stroke-width:1.5")

		if p.Head != nil {
			hx := []int{int(p.Head.Tip.X), int(p.Head.Left.X), int(p.Head.Right.X)}
			hy := []int{int(p.Head.Tip.Y), int(p.Head.Left.Y), int(p.Head.Right.Y)}
			canvas.Polygon(hx, hy, "fill:#57606a")
		}
	}

	canvas.End()
	return nil
}

// WriteString is a convenience wrapper returning the SVG document text.
func WriteString(doc *render.Document) (string, error) {
	var b strings.Builder
	if err := Write(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

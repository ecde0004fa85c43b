// Package pdfwriter serializes a render.Document to PDF using
// github.com/go-pdf/fpdf. Coordinates are device pixels in the
// Document; fpdf wants millimeters, so every coordinate is scaled by a
// fixed px-to-mm factor before drawing.
package pdfwriter

import (
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/eventmodeler/eventmodeler/internal/render"
)

// pxToMM approximates a 96dpi pixel in millimeters.
const pxToMM = 25.4 / 96.0

func mm(px int) float64 { return float64(px) * pxToMM }

func mmf(px float64) float64 { return px * pxToMM }

func hexToRGB(c render.Color) (int, int, int) {
	s := string(c)
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0
	}
	var r, g, b int
	parseByte := func(s string) int {
		v := 0
		for _, c := range s {
			v *= 16
			switch {
			case c >= '0' && c <= '9':
				v += int(c - '0')
			case c >= 'a' && c <= 'f':
				v += int(c-'a') + 10
			case c >= 'A' && c <= 'F':
				v += int(c-'A') + 10
			}
		}
		return v
	}
	r = parseByte(s[1:3])
	g = parseByte(s[3:5])
	b = parseByte(s[5:7])
	return r, g, b
}

// Write serializes doc as a single-page PDF to w.
func Write(w io.Writer, doc *render.Document) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		SizeStr:        "",
		Size:           fpdf.SizeType{Wd: mm(doc.Width), Ht: mm(doc.Height)},
	})
	pdf.AddPage()

	br, bg, bb := hexToRGB(doc.Background)
	pdf.SetFillColor(br, bg, bb)
	pdf.Rect(0, 0, mm(doc.Width), mm(doc.Height), "F")

	pdf.SetFont("Helvetica", "", 8)
	for _, lane := range doc.Lanes {
		pdf.SetDrawColor(208, 215, 222)
		pdf.Line(0, mm(lane.Y), mm(doc.Width), mm(lane.Y))
		pdf.SetXY(2, mm(lane.Y)+1)
		pdf.SetTextColor(36, 41, 47)
		pdf.CellFormat(40, 4, lane.Label, "", 0, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 9)
	for _, h := range doc.Headers {
		pdf.SetXY(mm(h.X), 2)
		pdf.SetTextColor(87, 96, 106)
		pdf.CellFormat(mm(h.Width), 5, h.Label, "", 0, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	for _, box := range doc.Boxes {
		fr, fg, fb := hexToRGB(box.Style.Fill)
		sr, sg, sb := hexToRGB(box.Style.Stroke)
		pdf.SetFillColor(fr, fg, fb)
		pdf.SetDrawColor(sr, sg, sb)
		pdf.Rect(mm(box.Rect.X), mm(box.Rect.Y), mm(box.Rect.Width), mm(box.Rect.Height), "FD")

		tr, tg, tb := hexToRGB(box.Style.Text)
		pdf.SetTextColor(tr, tg, tb)
		lineHeight := 4.2
		startY := mm(box.Rect.Y) + mm(box.Rect.Height)/2 - float64(len(box.Lines)-1)*lineHeight/2
		for i, line := range box.Lines {
			pdf.SetXY(mm(box.Rect.X), startY+float64(i)*lineHeight)
			pdf.CellFormat(mm(box.Rect.Width), lineHeight, line, "", 0, "C", false, 0, "")
		}
	}

	pdf.SetDrawColor(87, 96, 106)
	for _, p := range doc.Paths {
		for i := 0; i+1 < len(p.Points); i++ {
			pdf.Line(mmf(p.Points[i].X), mmf(p.Points[i].Y), mmf(p.Points[i+1].X), mmf(p.Points[i+1].Y))
		}
		if p.Head != nil {
			pdf.SetFillColor(87, 96, 106)
			pdf.Polygon([]fpdf.PointType{
				{X: mmf(p.Head.Tip.X), Y: mmf(p.Head.Tip.Y)},
				{X: mmf(p.Head.Left.X), Y: mmf(p.Head.Left.Y)},
				{X: mmf(p.Head.Right.X), Y: mmf(p.Head.Right.Y)},
			}, "F")
		}
	}

	return pdf.Output(w)
}

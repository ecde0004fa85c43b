package pdfwriter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/eventmodeler/eventmodeler/internal/instantiate"
	"github.com/eventmodeler/eventmodeler/internal/layout"
	"github.com/eventmodeler/eventmodeler/internal/parser"
	"github.com/eventmodeler/eventmodeler/internal/registry"
	"github.com/eventmodeler/eventmodeler/internal/render"
	"github.com/eventmodeler/eventmodeler/internal/router"
)

func buildDoc(t *testing.T) *render.Document {
	t.Helper()
	src := `
workflow: Checkout
swimlanes: [Customer, System]
commands:
  PlaceOrder:
    swimlane: Customer
events:
  OrderPlaced:
    swimlane: System
slices:
  Place Order:
    - "PlaceOrder -> OrderPlaced"
`
	doc, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reg, err := registry.Build(doc)
	if err != nil {
		t.Fatalf("registry.Build: %v", err)
	}
	ig, err := instantiate.Build(reg)
	if err != nil {
		t.Fatalf("instantiate.Build: %v", err)
	}
	l, err := layout.Compute(ig, reg, layout.DefaultConfig())
	if err != nil {
		t.Fatalf("layout.Compute: %v", err)
	}
	routes := router.RouteAll(l, ig.Connections, router.DefaultConfig())
	return render.Render(l, ig.Connections, routes, render.LightTheme())
}

func TestWriteProducesPDFHeader(t *testing.T) {
	doc := buildDoc(t)
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected output to start with %%PDF header, got: %q", buf.Bytes()[:minInt(20, buf.Len())])
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

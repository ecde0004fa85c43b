package svgwriter

import (
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

func TestWriteStringProducesValidSVGWrapper(t *testing.T) {
	doc := buildDoc(t)
	out, err := WriteString(doc)
	if err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatalf("expected an <svg>...</svg> document, got: %s", out)
	}
	if !strings.Contains(out, "PlaceOrder") {
		t.Fatalf("expected entity label in output, got: %s", out)
	}
}

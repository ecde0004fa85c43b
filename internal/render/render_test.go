package render

import (
	"strings"
	"testing"

	"github.com/eventmodeler/eventmodeler/internal/instantiate"
	"github.com/eventmodeler/eventmodeler/internal/layout"
	"github.com/eventmodeler/eventmodeler/internal/parser"
	"github.com/eventmodeler/eventmodeler/internal/registry"
	"github.com/eventmodeler/eventmodeler/internal/router"
)

const src = `
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

func pipeline(t *testing.T) (*layout.Layout, *instantiate.Graph, []router.Result) {
	t.Helper()
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
	return l, ig, routes
}

func TestRenderProducesBoxesAndPaths(t *testing.T) {
	l, ig, routes := pipeline(t)
	doc := Render(l, ig.Connections, routes, LightTheme())
	if len(doc.Boxes) != 2 {
		t.Fatalf("expected 2 boxes, got %d", len(doc.Boxes))
	}
	if len(doc.Paths) != 1 {
		t.Fatalf("expected 1 path, got %d", len(doc.Paths))
	}
	if doc.Paths[0].Head == nil {
		t.Fatal("expected an arrowhead on the routed path")
	}
}

func TestLightAndDarkThemesShareStructure(t *testing.T) {
	light := LightTheme()
	dark := DarkTheme()
	if light.Background == dark.Background {
		t.Fatal("expected light and dark themes to differ")
	}
	if light.Name == dark.Name {
		t.Fatal("expected distinct theme names")
	}
}

func TestRenderAssignsKindStyles(t *testing.T) {
	l, ig, routes := pipeline(t)
	doc := Render(l, ig.Connections, routes, LightTheme())
	theme := LightTheme()
	for _, b := range doc.Boxes {
		switch b.Key.EntityName {
		case "PlaceOrder":
			if b.Style != theme.Command {
				t.Fatalf("expected command style for PlaceOrder, got %+v", b.Style)
			}
		case "OrderPlaced":
			if b.Style != theme.Event {
				t.Fatalf("expected event style for OrderPlaced, got %+v", b.Style)
			}
		}
	}
}

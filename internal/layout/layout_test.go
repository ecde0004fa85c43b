package layout

import (
	"strings"
	"testing"

	"github.com/eventmodeler/eventmodeler/internal/instantiate"
	"github.com/eventmodeler/eventmodeler/internal/parser"
	"github.com/eventmodeler/eventmodeler/internal/registry"
)

func buildGraph(t *testing.T, src string) (*instantiate.Graph, *registry.Registry) {
	t.Helper()
	doc, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reg, err := registry.Build(doc)
	if err != nil {
		t.Fatalf("registry.Build: %v", err)
	}
	g, err := instantiate.Build(reg)
	if err != nil {
		t.Fatalf("instantiate.Build: %v", err)
	}
	return g, reg
}

const twoSliceSrc = `
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

func TestComputeIsDeterministic(t *testing.T) {
	g, reg := buildGraph(t, twoSliceSrc)
	cfg := DefaultConfig()

	l1, err := Compute(g, reg, cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	l2, err := Compute(g, reg, cfg)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if l1.Canvas != l2.Canvas {
		t.Fatalf("canvas differs across runs: %+v vs %+v", l1.Canvas, l2.Canvas)
	}
	for i := range l1.Nodes {
		if l1.Nodes[i].Rect != l2.Nodes[i].Rect {
			t.Fatalf("node %d rect differs across runs", i)
		}
	}
}

func TestComputeProducesTwoSwimlanesAndPositiveCanvas(t *testing.T) {
	g, reg := buildGraph(t, twoSliceSrc)
	l, err := Compute(g, reg, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(l.Swimlanes) != 2 {
		t.Fatalf("expected 2 swimlanes, got %d", len(l.Swimlanes))
	}
	if l.Canvas.Width <= 0 || l.Canvas.Height <= 0 {
		t.Fatalf("expected positive canvas, got %+v", l.Canvas)
	}
	if len(l.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(l.Nodes))
	}
}

func TestSingleEntityInCellIsHorizontallyCentered(t *testing.T) {
	g, reg := buildGraph(t, twoSliceSrc)
	l, err := Compute(g, reg, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	slice := l.Slices[0]
	for _, n := range l.Nodes {
		center := n.Rect.X + n.Rect.Width/2
		sliceCenter := slice.X + slice.Width/2
		// allow 1px rounding slack from integer division
		diff := center - sliceCenter
		if diff < -1 || diff > 1 {
			t.Fatalf("expected node centered in slice, node center %d slice center %d", center, sliceCenter)
		}
	}
}

func TestLongEntityNameWrapsInsteadOfGrowingWidth(t *testing.T) {
	src := `
workflow: Wrap
swimlanes: [A, B]
commands:
  ACommandWithAVeryLongDescriptiveNameIndeed:
    swimlane: A
events:
  E:
    swimlane: B
slices:
  S:
    - "ACommandWithAVeryLongDescriptiveNameIndeed -> E"
`
	g, reg := buildGraph(t, src)
	l, err := Compute(g, reg, DefaultConfig())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	var found bool
	for _, n := range l.Nodes {
		if n.Key.EntityName == "ACommandWithAVeryLongDescriptiveNameIndeed" {
			found = true
			if len(n.Lines) < 2 {
				t.Fatalf("expected name to wrap onto multiple lines, got %v", n.Lines)
			}
			if n.Rect.Width > DefaultConfig().EntityWidth*2 {
				t.Fatalf("expected wrapped box to stay near preferred width, got %d", n.Rect.Width)
			}
		}
	}
	if !found {
		t.Fatal("expected to find the long-named command node")
	}
}

func TestNoSwimlanesIsAnError(t *testing.T) {
	src := `
workflow: Empty
`
	g, reg := buildGraph(t, src)
	if _, err := Compute(g, reg, DefaultConfig()); err == nil {
		t.Fatal("expected error for document with no swimlanes")
	}
}

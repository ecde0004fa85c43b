package router

import (
	"strings"
	"testing"

	"github.com/eventmodeler/eventmodeler/internal/instantiate"
	"github.com/eventmodeler/eventmodeler/internal/layout"
	"github.com/eventmodeler/eventmodeler/internal/parser"
	"github.com/eventmodeler/eventmodeler/internal/registry"
)

func buildLayout(t *testing.T, src string) (*layout.Layout, *instantiate.Graph) {
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
	return l, ig
}

const simpleFlowSrc = `
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

func TestRouteFindsAPathBetweenTwoEntities(t *testing.T) {
	l, ig := buildLayout(t, simpleFlowSrc)
	g := Build(l, DefaultConfig())
	res := g.Route(ig.Connections[0].From, ig.Connections[0].To)
	if res.Phase != PhaseDone {
		t.Fatalf("expected PhaseDone, got %v", res.Phase)
	}
	if len(res.Path) < 2 {
		t.Fatalf("expected a multi-point path, got %v", res.Path)
	}
}

func TestRouteIsDeterministicAcrossRuns(t *testing.T) {
	l, ig := buildLayout(t, simpleFlowSrc)
	g1 := Build(l, DefaultConfig())
	g2 := Build(l, DefaultConfig())
	r1 := g1.Route(ig.Connections[0].From, ig.Connections[0].To)
	r2 := g2.Route(ig.Connections[0].From, ig.Connections[0].To)
	if r1.Cost != r2.Cost {
		t.Fatalf("cost differs across runs: %d vs %d", r1.Cost, r2.Cost)
	}
	if len(r1.Path) != len(r2.Path) {
		t.Fatalf("path length differs across runs: %d vs %d", len(r1.Path), len(r2.Path))
	}
	for i := range r1.Path {
		if r1.Path[i] != r2.Path[i] {
			t.Fatalf("path point %d differs across runs: %v vs %v", i, r1.Path[i], r2.Path[i])
		}
	}
}

func TestRouteSourceEqualsTargetIsDegenerate(t *testing.T) {
	l, ig := buildLayout(t, simpleFlowSrc)
	g := Build(l, DefaultConfig())
	k := ig.Connections[0].From
	res := g.Route(k, k)
	if res.Phase != PhaseDone {
		t.Fatalf("expected PhaseDone for degenerate route, got %v", res.Phase)
	}
	if len(res.Path) != 1 || res.Cost != 0 {
		t.Fatalf("expected single-point zero-cost path, got %+v", res)
	}
}

func TestRouteUnknownKeyIsUnreachable(t *testing.T) {
	l, _ := buildLayout(t, simpleFlowSrc)
	g := Build(l, DefaultConfig())
	bogus := instantiate.Key{EntityName: "DoesNotExist"}
	res := g.Route(bogus, bogus)
	if res.Phase != PhaseUnreachable {
		t.Fatalf("expected PhaseUnreachable for unknown key, got %v", res.Phase)
	}
}

func TestRouteAllProducesOneResultPerConnection(t *testing.T) {
	l, ig := buildLayout(t, simpleFlowSrc)
	results := RouteAll(l, ig.Connections, DefaultConfig())
	if len(results) != len(ig.Connections) {
		t.Fatalf("expected %d results, got %d", len(ig.Connections), len(results))
	}
}

// TestRouteObstacleDetour exercises spec.md's §8 "Obstacle detour"
// concrete scenario directly: a source and target rectangle separated by
// a single obstacle blocking the direct horizontal corridor between them.
// The route must detour around the obstacle rather than come back
// Unreachable, and must not enter it.
func TestRouteObstacleDetour(t *testing.T) {
	sourceKey := instantiate.Key{EntityName: "Source"}
	targetKey := instantiate.Key{EntityName: "Target"}
	obstacleRect := layout.Rect{X: 40, Y: 15, Width: 20, Height: 25}

	l := &layout.Layout{
		Canvas: layout.Canvas{Width: 120, Height: 80},
		Nodes: []layout.Node{
			{Key: sourceKey, Rect: layout.Rect{X: 10, Y: 20, Width: 20, Height: 15}},
			{Key: targetKey, Rect: layout.Rect{X: 70, Y: 20, Width: 20, Height: 15}},
			{Key: instantiate.Key{EntityName: "Obstacle"}, Rect: obstacleRect},
		},
	}

	g := Build(l, DefaultConfig())
	res := g.Route(sourceKey, targetKey)
	if res.Phase != PhaseDone {
		t.Fatalf("expected PhaseDone (a route around the obstacle), got %v", res.Phase)
	}
	if len(res.Path) < 3 {
		t.Fatalf("expected at least 3 vertices for a detour, got %v", res.Path)
	}

	margin := DefaultConfig().Margin
	expanded := layout.Rect{
		X: obstacleRect.X - margin, Y: obstacleRect.Y - margin,
		Width: obstacleRect.Width + 2*margin, Height: obstacleRect.Height + 2*margin,
	}
	for i := 0; i+1 < len(res.Path); i++ {
		p, q := res.Path[i], res.Path[i+1]
		if p.X != q.X && p.Y != q.Y {
			t.Fatalf("segment %d->%d is not axis-aligned: %v -> %v", i, i+1, p, q)
		}
		if segmentCrossesRect(p, q, expanded) {
			t.Fatalf("segment %v -> %v crosses the expanded obstacle %+v", p, q, expanded)
		}
	}
}

// segmentCrossesRect reports whether the axis-aligned segment p->q passes
// through the interior of rect (touching the boundary is not a crossing).
func segmentCrossesRect(p, q Point, rect layout.Rect) bool {
	minX, maxX := p.X, q.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := p.Y, q.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	interiorX := minX < rect.X+rect.Width && maxX > rect.X
	interiorY := minY < rect.Y+rect.Height && maxY > rect.Y
	if p.X == q.X {
		return p.X > rect.X && p.X < rect.X+rect.Width && interiorY
	}
	return p.Y > rect.Y && p.Y < rect.Y+rect.Height && interiorX
}

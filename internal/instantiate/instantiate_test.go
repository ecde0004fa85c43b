package instantiate

import (
	"strings"
	"testing"

	"github.com/eventmodeler/eventmodeler/internal/parser"
	"github.com/eventmodeler/eventmodeler/internal/registry"
)

func build(t *testing.T, src string) *Graph {
	t.Helper()
	doc, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reg, err := registry.Build(doc)
	if err != nil {
		t.Fatalf("registry.Build: %v", err)
	}
	g, err := Build(reg)
	if err != nil {
		t.Fatalf("instantiate.Build: %v", err)
	}
	return g
}

func TestBuildProducesOneNodePairPerConnection(t *testing.T) {
	g := build(t, `
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
`)
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(g.Connections))
	}
}

func TestSameEntityInTwoConnectionsProducesDistinctNodes(t *testing.T) {
	g := build(t, `
workflow: Reuse
swimlanes: [A, B]
commands:
  DoThing:
    swimlane: A
events:
  ThingDone:
    swimlane: B
  ThingDoneAgain:
    swimlane: B
slices:
  First:
    - "DoThing -> ThingDone"
  Second:
    - "DoThing -> ThingDoneAgain"
`)
	var doThingKeys []Key
	for _, n := range g.Nodes {
		if n.Key.EntityName == "DoThing" {
			doThingKeys = append(doThingKeys, n.Key)
		}
	}
	if len(doThingKeys) != 2 {
		t.Fatalf("expected 2 physical nodes for DoThing, got %d", len(doThingKeys))
	}
	if doThingKeys[0] == doThingKeys[1] {
		t.Fatal("expected distinct keys for DoThing across slices")
	}
}

func TestNodeKeysAreUniquePerConnectionIndex(t *testing.T) {
	g := build(t, `
workflow: Multi
swimlanes: [A, B]
commands:
  Cmd:
    swimlane: A
events:
  Ev1:
    swimlane: B
  Ev2:
    swimlane: B
slices:
  S:
    - "Cmd -> Ev1"
    - "Cmd -> Ev2"
`)
	seen := map[Key]bool{}
	for _, n := range g.Nodes {
		if seen[n.Key] {
			t.Fatalf("duplicate node key: %v", n.Key)
		}
		seen[n.Key] = true
	}
}

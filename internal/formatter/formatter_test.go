package formatter

import (
	"strings"
	"testing"

	"github.com/eventmodeler/eventmodeler/internal/parser"
)

const src = `
workflow: Checkout
swimlanes: [Customer, System]
commands:
  PlaceOrder:
    swimlane: Customer
    data:
      orderId:
        type: string
        stream-id: true
events:
  OrderPlaced:
    swimlane: System
slices:
  Place Order:
    - "PlaceOrder -> OrderPlaced"
`

func TestFormatRoundTripsThroughParser(t *testing.T) {
	doc, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := Format(doc, Options{})

	doc2, err := parser.Parse(strings.NewReader(string(out)))
	if err != nil {
		t.Fatalf("re-parse formatted output: %v\n%s", err, out)
	}
	if doc2.Workflow != doc.Workflow {
		t.Fatalf("workflow mismatch after round trip: %q vs %q", doc2.Workflow, doc.Workflow)
	}
	if _, ok := doc2.Commands["PlaceOrder"]; !ok {
		t.Fatal("expected PlaceOrder command to survive round trip")
	}
	if !doc2.Commands["PlaceOrder"].Schema.Fields["orderId"].StreamID {
		t.Fatal("expected stream-id flag to survive round trip")
	}
}

func TestFormatLongStyleAlwaysUsesMapForm(t *testing.T) {
	doc, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := string(Format(doc, Options{KeyStyle: "long"}))
	if !strings.Contains(out, "type: string") {
		t.Fatalf("expected long style to emit explicit type: keys, got:\n%s", out)
	}
}

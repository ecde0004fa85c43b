package parser

import (
	"strings"
	"testing"

	"github.com/eventmodeler/eventmodeler/internal/model"
)

func TestParseMinimalWorkflow(t *testing.T) {
	src := `
workflow: Checkout
swimlanes: [Customer, System]
events:
  OrderPlaced:
    swimlane: System
    data:
      orderId:
        type: string
        stream-id: true
commands:
  PlaceOrder:
    swimlane: Customer
    data:
      orderId: string
slices:
  Place Order:
    - "PlaceOrder -> OrderPlaced"
`
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Workflow != "Checkout" {
		t.Fatalf("workflow = %q", doc.Workflow)
	}
	if len(doc.Swimlanes) != 2 {
		t.Fatalf("expected 2 swimlanes, got %d", len(doc.Swimlanes))
	}
	ev, ok := doc.Events["OrderPlaced"]
	if !ok {
		t.Fatal("missing event OrderPlaced")
	}
	if !ev.Schema.Fields["orderId"].StreamID {
		t.Fatal("expected orderId to be marked stream-id")
	}
	slice, ok := doc.Slices["Place Order"]
	if !ok || len(slice.Connections) != 1 {
		t.Fatalf("expected one connection in slice, got %+v", slice)
	}
	conn := slice.Connections[0]
	if conn.From.Name != "PlaceOrder" || conn.To.Name != "OrderPlaced" {
		t.Fatalf("unexpected connection: %+v", conn)
	}
}

func TestParseTwoSliceLinearFlow(t *testing.T) {
	src := `
workflow: Signup
swimlanes: [User, Backend]
commands:
  Register:
    swimlane: User
  SendWelcome:
    swimlane: Backend
events:
  Registered:
    swimlane: Backend
  WelcomeSent:
    swimlane: Backend
slices:
  Register User:
    - "Register -> Registered"
  Send Welcome:
    - "Registered -> SendWelcome"
    - "SendWelcome -> WelcomeSent"
`
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(doc.Slices))
	}
	secondSlice := doc.Slices["Send Welcome"]
	if len(secondSlice.Connections) != 2 {
		t.Fatalf("expected 2 connections in second slice, got %d", len(secondSlice.Connections))
	}
}

func TestParseDottedReferenceIsAlwaysView(t *testing.T) {
	src := `
workflow: Form
swimlanes: [User]
views:
  LoginScreen:
    swimlane: User
    components:
      Submit:
        type: Form
        fields:
          username: string
        actions: [login]
commands:
  Login:
    swimlane: User
slices:
  Submit Login:
    - "LoginScreen.Submit -> Login"
`
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	conn := doc.Slices["Submit Login"].Connections[0]
	if conn.From.Kind != model.KindView || !conn.From.Dotted {
		t.Fatalf("expected dotted view reference, got %+v", conn.From)
	}
	if conn.From.ComponentPath != "Submit" {
		t.Fatalf("expected component path Submit, got %q", conn.From.ComponentPath)
	}
}

func TestParseDuplicateEntityName(t *testing.T) {
	src := `
workflow: Dup
swimlanes: [A]
events:
  DuplicateName:
    swimlane: A
commands:
  DuplicateName:
    swimlane: A
`
	_, err := Parse(strings.NewReader(src))
	// Different kinds sharing a name across maps are not a collision;
	// collision detection is per-map. This exercises the per-kind path.
	if err != nil {
		t.Fatalf("did not expect error for same name across different kinds: %v", err)
	}

	src2 := `
workflow: Dup
swimlanes: [A]
events:
  DuplicateName:
    swimlane: A
  DuplicateName:
    swimlane: A
`
	_, err2 := Parse(strings.NewReader(src2))
	if err2 == nil {
		t.Fatal("expected duplicate entity error")
	}
}

func TestParseEventNameMustStartUppercase(t *testing.T) {
	src := `
workflow: Bad
swimlanes: [A]
events:
  started:
    swimlane: A
`
	_, err := Parse(strings.NewReader(src))
	if err == nil {
		t.Fatal("expected error for lowercase event name")
	}
	var perr *Error
	if !asError(err, &perr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
}

func TestParseCommandNameMustStartUppercase(t *testing.T) {
	src := `
workflow: Bad
swimlanes: [A]
commands:
  createAccount:
    swimlane: A
`
	_, err := Parse(strings.NewReader(src))
	if err == nil {
		t.Fatal("expected error for lowercase command name")
	}
	var perr *Error
	if !asError(err, &perr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
}

func TestParseMalformedConnectionString(t *testing.T) {
	src := `
workflow: Bad
swimlanes: [A]
slices:
  Broken:
    - "JustOneSide"
`
	_, err := Parse(strings.NewReader(src))
	if err == nil {
		t.Fatal("expected error for connection missing ->")
	}
	var perr *Error
	if !asError(err, &perr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if perr.Line == 0 {
		t.Fatal("expected non-zero line in parse error")
	}
}

func TestParseLegacyFormat(t *testing.T) {
	src := `
entities:
  Customer:
    - command: PlaceOrder
  System:
    - event: OrderPlaced
slices:
  Place Order:
    - "PlaceOrder -> OrderPlaced"
`
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := doc.Commands["PlaceOrder"]; !ok {
		t.Fatal("expected legacy command PlaceOrder")
	}
	if _, ok := doc.Events["OrderPlaced"]; !ok {
		t.Fatal("expected legacy event OrderPlaced")
	}
	if len(doc.Swimlanes) != 2 {
		t.Fatalf("expected 2 swimlanes, got %d", len(doc.Swimlanes))
	}
}

func TestParseEmptyDocument(t *testing.T) {
	doc, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse empty: %v", err)
	}
	if len(doc.AllEntityNames()) != 0 {
		t.Fatal("expected no entities in empty document")
	}
}

func TestParseQueryOneOfOutputs(t *testing.T) {
	src := `
workflow: Lookup
swimlanes: [System]
queries:
  FindOrder:
    swimlane: System
    inputs:
      orderId: string
    outputs:
      one-of:
        found:
          orderId: string
        not-found: NotFoundError
`
	doc, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	q := doc.Queries["FindOrder"]
	if q.Outputs.Kind != model.OutputOneOf {
		t.Fatalf("expected one-of output kind")
	}
	if len(q.Outputs.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(q.Outputs.Alternatives))
	}
}

func asError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}

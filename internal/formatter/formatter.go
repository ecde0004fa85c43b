// Package formatter renders a model.SourceDocument back to canonical
// rich-format YAML text, the way the teacher's formatter pretty-prints
// its AST: a small writer with indent/line helpers, not a generic YAML
// marshaler, so output order always matches declaration order rather
// than map iteration order.
package formatter

import (
	"bytes"
	"fmt"

	"github.com/eventmodeler/eventmodeler/internal/model"
)

// Options controls formatting behaviour.
type Options struct {
	// KeyStyle is "short" (bare `field: Type` whenever stream-id and
	// generated are both unset, the common case) or "long" (always the
	// explicit `field: {type: Type}` map form). Default is "short".
	KeyStyle string
}

// Format renders doc as canonical rich-format YAML.
func Format(doc *model.SourceDocument, opts Options) []byte {
	if opts.KeyStyle == "" {
		opts.KeyStyle = "short"
	}
	var buf bytes.Buffer
	w := &writer{buf: &buf, style: opts.KeyStyle}
	w.writeDocument(doc)
	return buf.Bytes()
}

type writer struct {
	buf   *bytes.Buffer
	style string
}

func (w *writer) raw(s string) { w.buf.WriteString(s) }

func (w *writer) indent(level int) {
	for i := 0; i < level*2; i++ {
		w.buf.WriteByte(' ')
	}
}

func (w *writer) line(level int, s string) {
	w.indent(level)
	w.buf.WriteString(s)
	w.buf.WriteByte('\n')
}

func (w *writer) writeDocument(doc *model.SourceDocument) {
	if doc.Workflow != "" {
		w.line(0, fmt.Sprintf("workflow: %s", doc.Workflow))
	}
	if len(doc.Swimlanes) > 0 {
		w.line(0, "swimlanes:")
		for _, sw := range doc.Swimlanes {
			if sw.ID == sw.Display {
				w.line(1, fmt.Sprintf("- %s", sw.ID))
			} else {
				w.line(1, fmt.Sprintf("- %s: %s", sw.ID, sw.Display))
			}
		}
	}
	if len(doc.EventOrder) > 0 {
		w.line(0, "events:")
		for _, name := range doc.EventOrder {
			w.writeEvent(name, doc.Events[name])
		}
	}
	if len(doc.CommandOrder) > 0 {
		w.line(0, "commands:")
		for _, name := range doc.CommandOrder {
			w.writeCommand(name, doc.Commands[name])
		}
	}
	if len(doc.ViewOrder) > 0 {
		w.line(0, "views:")
		for _, name := range doc.ViewOrder {
			w.writeView(name, doc.Views[name])
		}
	}
	if len(doc.ProjectionOrder) > 0 {
		w.line(0, "projections:")
		for _, name := range doc.ProjectionOrder {
			w.writeProjection(name, doc.Projections[name])
		}
	}
	if len(doc.QueryOrder) > 0 {
		w.line(0, "queries:")
		for _, name := range doc.QueryOrder {
			w.writeQuery(name, doc.Queries[name])
		}
	}
	if len(doc.AutomationOrder) > 0 {
		w.line(0, "automations:")
		for _, name := range doc.AutomationOrder {
			a := doc.Automations[name]
			w.line(1, fmt.Sprintf("%s:", name))
			w.line(2, fmt.Sprintf("swimlane: %s", a.Swimlane))
		}
	}
	if len(doc.SliceOrder) > 0 {
		w.line(0, "slices:")
		for _, name := range doc.SliceOrder {
			w.writeSlice(name, doc.Slices[name])
		}
	}
}

func (w *writer) writeFieldMap(level int, fm *model.FieldMap) {
	if fm == nil || fm.Len() == 0 {
		return
	}
	for _, name := range fm.Order {
		def := fm.Fields[name]
		if w.style == "short" && !def.StreamID && !def.Generated {
			w.line(level, fmt.Sprintf("%s: %s", name, def.Type))
			continue
		}
		w.line(level, fmt.Sprintf("%s:", name))
		w.line(level+1, fmt.Sprintf("type: %s", def.Type))
		if def.StreamID {
			w.line(level+1, "stream-id: true")
		}
		if def.Generated {
			w.line(level+1, "generated: true")
		}
	}
}

func (w *writer) writeEvent(name string, e *model.Event) {
	w.line(1, fmt.Sprintf("%s:", name))
	if e.Description != "" {
		w.line(2, fmt.Sprintf("description: %s", e.Description))
	}
	w.line(2, fmt.Sprintf("swimlane: %s", e.Swimlane))
	if e.Schema != nil && e.Schema.Len() > 0 {
		w.line(2, "data:")
		w.writeFieldMap(3, e.Schema)
	}
}

func (w *writer) writeCommand(name string, c *model.Command) {
	w.line(1, fmt.Sprintf("%s:", name))
	if c.Description != "" {
		w.line(2, fmt.Sprintf("description: %s", c.Description))
	}
	w.line(2, fmt.Sprintf("swimlane: %s", c.Swimlane))
	if c.Schema != nil && c.Schema.Len() > 0 {
		w.line(2, "data:")
		w.writeFieldMap(3, c.Schema)
	}
	if len(c.Tests) > 0 {
		w.line(2, "tests:")
		for _, scenario := range c.Tests {
			w.writeScenario(3, scenario)
		}
	}
}

func (w *writer) writeScenario(level int, s model.TestScenario) {
	w.line(level, fmt.Sprintf("%s:", s.Name))
	if len(s.Given) > 0 {
		w.line(level+1, "given:")
		w.writeSteps(level+2, s.Given)
	}
	w.line(level+1, "when:")
	w.writeSteps(level+2, s.When)
	w.line(level+1, "then:")
	w.writeSteps(level+2, s.Then)
}

func (w *writer) writeSteps(level int, steps []model.TestStep) {
	for _, step := range steps {
		w.line(level, fmt.Sprintf("- %s:", step.Entity.Value))
		for _, fname := range step.Order {
			w.line(level+1, fmt.Sprintf("%s: %s", fname, step.Fields[fname].Token))
		}
	}
}

func (w *writer) writeView(name string, v *model.View) {
	w.line(1, fmt.Sprintf("%s:", name))
	if v.Description != "" {
		w.line(2, fmt.Sprintf("description: %s", v.Description))
	}
	w.line(2, fmt.Sprintf("swimlane: %s", v.Swimlane))
	if len(v.Components) > 0 {
		w.line(2, "components:")
		for _, c := range v.Components {
			if c.Kind == model.ComponentSimple {
				w.line(3, fmt.Sprintf("%s: %s", c.Name, c.Type))
				continue
			}
			w.line(3, fmt.Sprintf("%s:", c.Name))
			w.line(4, "type: Form")
			if len(c.FieldOrd) > 0 {
				w.line(4, "fields:")
				for _, fname := range c.FieldOrd {
					w.line(5, fmt.Sprintf("%s: %s", fname, c.Fields[fname]))
				}
			}
			w.indent(4)
			w.raw("actions: [")
			for i, a := range c.Actions {
				if i > 0 {
					w.raw(", ")
				}
				w.raw(a)
			}
			w.raw("]\n")
		}
	}
}

func (w *writer) writeProjection(name string, p *model.Projection) {
	w.line(1, fmt.Sprintf("%s:", name))
	if p.Description != "" {
		w.line(2, fmt.Sprintf("description: %s", p.Description))
	}
	w.line(2, fmt.Sprintf("swimlane: %s", p.Swimlane))
	w.line(2, "fields:")
	w.writeFieldMap(3, p.Fields)
}

func (w *writer) writeQuery(name string, q *model.Query) {
	w.line(1, fmt.Sprintf("%s:", name))
	w.line(2, fmt.Sprintf("swimlane: %s", q.Swimlane))
	if q.Inputs != nil && q.Inputs.Len() > 0 {
		w.line(2, "inputs:")
		w.writeFieldMap(3, q.Inputs)
	}
	w.line(2, "outputs:")
	if q.Outputs.Kind == model.OutputSingle {
		w.writeFieldMap(3, q.Outputs.Fields)
		return
	}
	w.line(3, "one-of:")
	for _, alt := range q.Outputs.Alternatives {
		if alt.IsError {
			w.line(4, fmt.Sprintf("%s: %s", alt.Tag, alt.ErrorType))
			continue
		}
		w.line(4, fmt.Sprintf("%s:", alt.Tag))
		w.writeFieldMap(5, alt.Fields)
	}
}

func (w *writer) writeSlice(name string, s *model.Slice) {
	w.line(1, fmt.Sprintf("%s:", name))
	for _, conn := range s.Connections {
		w.line(2, fmt.Sprintf("- \"%s -> %s\"", conn.From.Raw, conn.To.Raw))
	}
}

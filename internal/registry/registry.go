// Package registry builds the cross-referenced model out of a parsed
// model.SourceDocument: it resolves every swimlane reference, resolves
// bare connection endpoints to a concrete entity kind, and validates that
// every reference in the document actually points at something declared.
//
// This plays the role the source implementation split across a
// phantom-typed registry builder per entity kind; one map-per-kind
// registry with explicit existence checks replaces that type machinery,
// per the simplification the format's own design notes call for.
package registry

import (
	"fmt"

	"github.com/eventmodeler/eventmodeler/internal/model"
)

// ReferenceError reports an unresolved or ambiguous cross-reference.
type ReferenceError struct {
	Line, Column int
	Msg          string
}

func (e *ReferenceError) Error() string {
	if e.Line == 0 && e.Column == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// Registry is the resolved, cross-referenced view of a SourceDocument.
type Registry struct {
	Doc *model.SourceDocument

	// SwimlaneIndex maps a declared swimlane ID to its position.
	SwimlaneIndex map[string]model.Swimlane

	// Kinds maps every declared bare entity name to its kind. A name
	// unique across all six maps resolves unambiguously; the registry
	// never allows the same bare name to be declared under two kinds
	// because the per-kind duplicate checks in the parser only catch
	// collisions within one kind's own map.
	Kinds map[string]model.Kind
}

// Build resolves doc into a Registry, or returns the first ReferenceError
// encountered.
func Build(doc *model.SourceDocument) (*Registry, error) {
	reg := &Registry{
		Doc:           doc,
		SwimlaneIndex: make(map[string]model.Swimlane),
		Kinds:         make(map[string]model.Kind),
	}

	for _, sw := range doc.Swimlanes {
		reg.SwimlaneIndex[sw.ID] = sw
	}

	if err := reg.indexKind(doc.EventOrder, model.KindEvent); err != nil {
		return nil, err
	}
	if err := reg.indexKind(doc.CommandOrder, model.KindCommand); err != nil {
		return nil, err
	}
	if err := reg.indexKind(doc.ViewOrder, model.KindView); err != nil {
		return nil, err
	}
	if err := reg.indexKind(doc.ProjectionOrder, model.KindProjection); err != nil {
		return nil, err
	}
	if err := reg.indexKind(doc.QueryOrder, model.KindQuery); err != nil {
		return nil, err
	}
	if err := reg.indexKind(doc.AutomationOrder, model.KindAutomation); err != nil {
		return nil, err
	}

	if err := reg.validateSwimlaneRefs(); err != nil {
		return nil, err
	}
	if err := reg.validateConnections(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) indexKind(names []string, kind model.Kind) error {
	for _, name := range names {
		if existing, ok := r.Kinds[name]; ok && existing != kind {
			return &ReferenceError{Msg: fmt.Sprintf("entity %q is declared as both %s and %s", name, existing, kind)}
		}
		r.Kinds[name] = kind
	}
	return nil
}

func (r *Registry) validateSwimlaneRefs() error {
	for _, name := range r.Doc.AllEntityNames() {
		sw, err := r.Doc.SwimlaneOf(name.Kind, name.Value)
		if err != nil {
			return &ReferenceError{Msg: err.Error()}
		}
		if _, ok := r.SwimlaneIndex[sw]; !ok {
			return &ReferenceError{Msg: fmt.Sprintf("%s %q references unknown swimlane %q", name.Kind, name.Value, sw)}
		}
	}
	return nil
}

// ResolveRef fills in the Kind of a bare (non-dotted) EntityRef by looking
// it up across all six entity maps. A dotted reference is already tagged
// KindView by the parser; per spec.md §3.4 only the top-level view name
// must resolve — the dotted suffix (e.g. "Form.Submit") is kept on the
// ref unverified, since it may name a nested component path the schema
// doesn't otherwise enumerate (ground truth:
// yaml_to_diagram_converter.rs takes only the first dot-separated
// segment and never validates the remainder).
func (r *Registry) ResolveRef(ref model.EntityRef) (model.EntityRef, error) {
	if ref.Dotted {
		if _, ok := r.Doc.Views[ref.Name]; !ok {
			return ref, &ReferenceError{ref.Line, ref.Column, fmt.Sprintf("unknown view %q", ref.Name)}
		}
		return ref, nil
	}

	kind, ok := r.Kinds[ref.Name]
	if !ok {
		return ref, &ReferenceError{ref.Line, ref.Column, fmt.Sprintf("unknown entity %q", ref.Name)}
	}
	ref.Kind = kind
	return ref, nil
}

func (r *Registry) validateConnections() error {
	for _, sliceName := range r.Doc.SliceOrder {
		slice := r.Doc.Slices[sliceName]
		for i, conn := range slice.Connections {
			from, err := r.ResolveRef(conn.From)
			if err != nil {
				return err
			}
			to, err := r.ResolveRef(conn.To)
			if err != nil {
				return err
			}
			conn.From, conn.To = from, to
			slice.Connections[i] = conn
		}
	}
	return nil
}

// EntityKind reports the kind of a declared bare entity name.
func (r *Registry) EntityKind(name string) (model.Kind, bool) {
	k, ok := r.Kinds[name]
	return k, ok
}

// SwimlanePosition reports the declared vertical ordering position of a
// swimlane ID.
func (r *Registry) SwimlanePosition(id string) (int, bool) {
	sw, ok := r.SwimlaneIndex[id]
	if !ok {
		return 0, false
	}
	return sw.Position, true
}

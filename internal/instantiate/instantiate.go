// Package instantiate expands a resolved registry.Registry into the flat
// physical node and connection graph that the layout engine and router
// consume. Every connection endpoint becomes its own Node: the same
// logical entity referenced from two connections yields two physical
// nodes that share no state, per the "visual-node duplication" design
// note — this keeps the router's input a plain set of rectangles with no
// shared-node aliasing to reason about.
package instantiate

import (
	"fmt"

	"github.com/eventmodeler/eventmodeler/internal/model"
	"github.com/eventmodeler/eventmodeler/internal/registry"
)

// Role identifies which end of a connection a Node occupies.
type Role int

const (
	RoleSource Role = iota
	RoleTarget
)

func (r Role) String() string {
	if r == RoleSource {
		return "source"
	}
	return "target"
}

// Key uniquely identifies a physical node. Build never emits two nodes
// with the same Key, and nodes with different keys are independent values
// that share no state, even when they describe the same logical entity.
type Key struct {
	Kind            model.Kind
	EntityName      string
	SliceName       string
	Role            Role
	ConnectionIndex int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d", k.Kind, k.EntityName, k.SliceName, k.Role, k.ConnectionIndex)
}

// Node is one physical occurrence of an entity within a slice.
type Node struct {
	Key           Key
	Swimlane      string
	ComponentPath string // non-empty when this node is a dotted view-component reference
}

// Connection is a directed edge between two physical nodes, attributed to
// the slice and position it was declared at.
type Connection struct {
	From, To   Key
	SliceName  string
	Index      int
	Line       int
	Column     int
}

// Graph is the flat output of instantiation: ordered nodes and
// connections, ready for the layout engine.
type Graph struct {
	Nodes       []Node
	Connections []Connection
}

// Build walks reg's slices in declared order and materializes one source
// and one target node per connection.
func Build(reg *registry.Registry) (*Graph, error) {
	g := &Graph{}
	doc := reg.Doc

	for _, sliceName := range doc.SliceOrder {
		slice := doc.Slices[sliceName]
		for idx, conn := range slice.Connections {
			fromSw, err := swimlaneFor(reg, conn.From)
			if err != nil {
				return nil, err
			}
			toSw, err := swimlaneFor(reg, conn.To)
			if err != nil {
				return nil, err
			}

			fromKey := Key{Kind: conn.From.Kind, EntityName: conn.From.Name, SliceName: sliceName, Role: RoleSource, ConnectionIndex: idx}
			toKey := Key{Kind: conn.To.Kind, EntityName: conn.To.Name, SliceName: sliceName, Role: RoleTarget, ConnectionIndex: idx}

			g.Nodes = append(g.Nodes, Node{Key: fromKey, Swimlane: fromSw, ComponentPath: conn.From.ComponentPath})
			g.Nodes = append(g.Nodes, Node{Key: toKey, Swimlane: toSw, ComponentPath: conn.To.ComponentPath})
			g.Connections = append(g.Connections, Connection{
				From: fromKey, To: toKey, SliceName: sliceName, Index: idx,
				Line: conn.Line, Column: conn.Column,
			})
		}
	}
	return g, nil
}

func swimlaneFor(reg *registry.Registry, ref model.EntityRef) (string, error) {
	sw, err := reg.Doc.SwimlaneOf(ref.Kind, ref.Name)
	if err != nil {
		return "", fmt.Errorf("instantiating %s %q: %w", ref.Kind, ref.Name, err)
	}
	return sw, nil
}

// Package parser turns the declarative Event Model YAML document into a
// validated model.SourceDocument. It walks the document with the
// gopkg.in/yaml.v3 Node API, the way the teacher's emlang parser does, so
// every error found while walking the document is an *Error with a
// precise (line, column). A YAML syntax error is returned as the decoder
// reports it, wrapped with fmt.Errorf: its text names the line, and it is
// not an *Error and carries no column.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/eventmodeler/eventmodeler/internal/model"
	"gopkg.in/yaml.v3"
)

// Error is a parse error bearing the source location of the defect.
type Error struct {
	Line, Column int
	Msg          string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

func errAt(node *yaml.Node, format string, args ...interface{}) *Error {
	line, col := 0, 0
	if node != nil {
		line, col = node.Line, node.Column
	}
	return &Error{Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

// startsUpper reports whether name begins with an uppercase letter, per
// spec.md §3.1's event-name rule (ground-truth: original_source's
// EventName::parse rejects any other first character).
func startsUpper(name string) bool {
	r := []rune(name)
	return len(r) > 0 && unicode.IsUpper(r[0])
}

// legacyPrefixes maps the simple legacy format's tagged-entity keys to
// kinds. Trimmed from the teacher's elementPrefixes table to the six
// entity kinds this domain actually has (no trigger, no exception).
var legacyPrefixes = map[string]model.Kind{
	"e":          model.KindEvent,
	"evt":        model.KindEvent,
	"event":      model.KindEvent,
	"c":          model.KindCommand,
	"cmd":        model.KindCommand,
	"command":    model.KindCommand,
	"v":          model.KindView,
	"view":       model.KindView,
	"p":          model.KindProjection,
	"proj":       model.KindProjection,
	"projection": model.KindProjection,
	"q":          model.KindQuery,
	"query":      model.KindQuery,
	"a":          model.KindAutomation,
	"auto":       model.KindAutomation,
	"automation": model.KindAutomation,
}

func isNullNode(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.Tag == "!!null")
}

// Parse parses an Event Model YAML document from r.
func Parse(r io.Reader) (*model.SourceDocument, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return model.NewSourceDocument(), nil
		}
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return model.NewSourceDocument(), nil
	}

	docNode := root.Content[0]
	if isNullNode(docNode) {
		return model.NewSourceDocument(), nil
	}
	if docNode.Kind != yaml.MappingNode {
		return nil, errAt(docNode, "expected a mapping at the document root")
	}

	hasWorkflow := false
	hasEntities := false
	for i := 0; i < len(docNode.Content); i += 2 {
		switch docNode.Content[i].Value {
		case "workflow":
			hasWorkflow = true
		case "entities":
			hasEntities = true
		}
	}

	doc := model.NewSourceDocument()
	if hasWorkflow || !hasEntities {
		if err := parseRich(docNode, doc); err != nil {
			return nil, err
		}
	} else {
		if err := parseLegacy(docNode, doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// --- Rich format ---

func parseRich(docNode *yaml.Node, doc *model.SourceDocument) error {
	for i := 0; i < len(docNode.Content); i += 2 {
		key := docNode.Content[i]
		val := docNode.Content[i+1]

		switch key.Value {
		case "version":
			doc.Version = val.Value
		case "workflow":
			if strings.TrimSpace(val.Value) == "" {
				return errAt(val, "workflow must be a non-empty string")
			}
			doc.Workflow = val.Value
		case "swimlanes":
			lanes, err := parseSwimlanes(val)
			if err != nil {
				return err
			}
			doc.Swimlanes = lanes
		case "events":
			if err := parseEvents(val, doc); err != nil {
				return err
			}
		case "commands":
			if err := parseCommands(val, doc); err != nil {
				return err
			}
		case "views":
			if err := parseViews(val, doc); err != nil {
				return err
			}
		case "projections":
			if err := parseProjections(val, doc); err != nil {
				return err
			}
		case "queries":
			if err := parseQueries(val, doc); err != nil {
				return err
			}
		case "automations":
			if err := parseAutomations(val, doc); err != nil {
				return err
			}
		case "slices":
			if err := parseSlices(val, doc); err != nil {
				return err
			}
		default:
			return errAt(key, "unknown top-level key %q", key.Value)
		}
	}
	return nil
}

func parseSwimlanes(node *yaml.Node) ([]model.Swimlane, error) {
	if isNullNode(node) || node.Kind != yaml.SequenceNode || len(node.Content) == 0 {
		return nil, errAt(node, "swimlanes must be a non-empty list")
	}
	var lanes []model.Swimlane
	for i, item := range node.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			name := strings.TrimSpace(item.Value)
			if name == "" {
				return nil, errAt(item, "swimlane name must not be empty")
			}
			lanes = append(lanes, model.Swimlane{ID: name, Display: name, Position: i})
		case yaml.MappingNode:
			if len(item.Content) != 2 {
				return nil, errAt(item, "swimlane map form must have exactly one id: display entry")
			}
			id := strings.TrimSpace(item.Content[0].Value)
			display := strings.TrimSpace(item.Content[1].Value)
			if id == "" || display == "" {
				return nil, errAt(item, "swimlane id and display name must not be empty")
			}
			lanes = append(lanes, model.Swimlane{ID: id, Display: display, Position: i})
		default:
			return nil, errAt(item, "swimlane entry must be a name or an {id: display} map")
		}
	}
	return lanes, nil
}

func requireString(node *yaml.Node, field string) (string, error) {
	if isNullNode(node) || node.Kind != yaml.ScalarNode {
		return "", errAt(node, "%s must be a string", field)
	}
	s := strings.TrimSpace(node.Value)
	if s == "" {
		return "", errAt(node, "%s must not be empty", field)
	}
	return s, nil
}

func parseFieldDef(node *yaml.Node) (model.FieldDef, error) {
	if node.Kind == yaml.ScalarNode {
		return model.FieldDef{Type: node.Value}, nil
	}
	if node.Kind != yaml.MappingNode {
		return model.FieldDef{}, errAt(node, "field definition must be a type name or a map")
	}
	var def model.FieldDef
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		switch key.Value {
		case "type":
			def.Type = val.Value
		case "stream-id":
			def.StreamID = val.Value == "true"
		case "generated":
			def.Generated = val.Value == "true"
		default:
			return model.FieldDef{}, errAt(key, "unknown field key %q", key.Value)
		}
	}
	if def.Type == "" {
		return model.FieldDef{}, errAt(node, "field definition missing type")
	}
	return def, nil
}

func parseFieldMap(node *yaml.Node) (*model.FieldMap, error) {
	fm := model.NewFieldMap()
	if isNullNode(node) {
		return fm, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errAt(node, "expected a field map")
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		name := strings.TrimSpace(key.Value)
		if name == "" {
			return nil, errAt(key, "field name must not be empty")
		}
		def, err := parseFieldDef(val)
		if err != nil {
			return nil, err
		}
		fm.Add(name, def)
	}
	return fm, nil
}

func parseEvents(node *yaml.Node, doc *model.SourceDocument) error {
	if isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errAt(node, "events must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		name := strings.TrimSpace(nameNode.Value)
		if name == "" {
			return errAt(nameNode, "event name must not be empty")
		}
		if _, exists := doc.Events[name]; exists {
			return errAt(nameNode, "duplicate entity: %s", name)
		}
		if !startsUpper(name) {
			return errAt(nameNode, "event name %q must begin with an uppercase letter", name)
		}
		ev := &model.Event{Name: name}
		valNode := node.Content[i+1]
		if valNode.Kind != yaml.MappingNode {
			return errAt(valNode, "event %q must be a map", name)
		}
		for j := 0; j < len(valNode.Content); j += 2 {
			key := valNode.Content[j]
			val := valNode.Content[j+1]
			switch key.Value {
			case "description":
				ev.Description = val.Value
			case "swimlane":
				sw, err := requireString(val, "swimlane")
				if err != nil {
					return err
				}
				ev.Swimlane = sw
			case "data":
				fm, err := parseFieldMap(val)
				if err != nil {
					return err
				}
				ev.Schema = fm
			default:
				return errAt(key, "unknown event key %q", key.Value)
			}
		}
		if ev.Swimlane == "" {
			return errAt(valNode, "event %q missing swimlane", name)
		}
		if ev.Schema == nil {
			ev.Schema = model.NewFieldMap()
		}
		doc.Events[name] = ev
		doc.EventOrder = append(doc.EventOrder, name)
	}
	return nil
}

func parseTestStep(node *yaml.Node) (model.TestStep, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return model.TestStep{}, errAt(node, "test step must be a single entity-name: field-map entry")
	}
	entityName := strings.TrimSpace(node.Content[0].Value)
	if entityName == "" {
		return model.TestStep{}, errAt(node.Content[0], "test step entity name must not be empty")
	}
	step := model.TestStep{Entity: model.Name{Value: entityName}, Fields: map[string]model.Placeholder{}}
	fieldsNode := node.Content[1]
	if !isNullNode(fieldsNode) {
		if fieldsNode.Kind != yaml.MappingNode {
			return model.TestStep{}, errAt(fieldsNode, "test step fields must be a map")
		}
		for i := 0; i < len(fieldsNode.Content); i += 2 {
			fname := fieldsNode.Content[i].Value
			fval := fieldsNode.Content[i+1].Value
			step.Fields[fname] = model.Placeholder{Token: fval}
			step.Order = append(step.Order, fname)
		}
	}
	return step, nil
}

func parseTestStepList(node *yaml.Node) ([]model.TestStep, error) {
	if isNullNode(node) {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, errAt(node, "expected a list of steps")
	}
	var steps []model.TestStep
	for _, item := range node.Content {
		step, err := parseTestStep(item)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseTestScenarios(node *yaml.Node) ([]model.TestScenario, error) {
	if isNullNode(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errAt(node, "tests must be a map of scenario name to given/when/then")
	}
	var scenarios []model.TestScenario
	for i := 0; i < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		name := strings.TrimSpace(nameNode.Value)
		if name == "" {
			return nil, errAt(nameNode, "test scenario name must not be empty")
		}
		scenario := model.TestScenario{Name: name}
		bodyNode := node.Content[i+1]
		if bodyNode.Kind != yaml.MappingNode {
			return nil, errAt(bodyNode, "test scenario %q must be a map", name)
		}
		var sawWhen, sawThen bool
		for j := 0; j < len(bodyNode.Content); j += 2 {
			key := bodyNode.Content[j]
			val := bodyNode.Content[j+1]
			switch key.Value {
			case "given":
				steps, err := parseTestStepList(val)
				if err != nil {
					return nil, err
				}
				scenario.Given = steps
			case "when":
				steps, err := parseTestStepList(val)
				if err != nil {
					return nil, err
				}
				if len(steps) == 0 {
					return nil, errAt(val, "test scenario %q: when must be non-empty", name)
				}
				scenario.When = steps
				sawWhen = true
			case "then":
				steps, err := parseTestStepList(val)
				if err != nil {
					return nil, err
				}
				if len(steps) == 0 {
					return nil, errAt(val, "test scenario %q: then must be non-empty", name)
				}
				scenario.Then = steps
				sawThen = true
			default:
				return nil, errAt(key, "unknown test scenario key %q", key.Value)
			}
		}
		if !sawWhen || !sawThen {
			return nil, errAt(bodyNode, "test scenario %q must declare both when and then", name)
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

func parseCommands(node *yaml.Node, doc *model.SourceDocument) error {
	if isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errAt(node, "commands must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		name := strings.TrimSpace(nameNode.Value)
		if name == "" {
			return errAt(nameNode, "command name must not be empty")
		}
		if _, exists := doc.Commands[name]; exists {
			return errAt(nameNode, "duplicate entity: %s", name)
		}
		if !startsUpper(name) {
			return errAt(nameNode, "command name %q must begin with an uppercase letter", name)
		}
		cmd := &model.Command{Name: name}
		valNode := node.Content[i+1]
		if valNode.Kind != yaml.MappingNode {
			return errAt(valNode, "command %q must be a map", name)
		}
		for j := 0; j < len(valNode.Content); j += 2 {
			key := valNode.Content[j]
			val := valNode.Content[j+1]
			switch key.Value {
			case "description":
				cmd.Description = val.Value
			case "swimlane":
				sw, err := requireString(val, "swimlane")
				if err != nil {
					return err
				}
				cmd.Swimlane = sw
			case "data":
				fm, err := parseFieldMap(val)
				if err != nil {
					return err
				}
				cmd.Schema = fm
			case "tests":
				scenarios, err := parseTestScenarios(val)
				if err != nil {
					return err
				}
				cmd.Tests = scenarios
			default:
				return errAt(key, "unknown command key %q", key.Value)
			}
		}
		if cmd.Swimlane == "" {
			return errAt(valNode, "command %q missing swimlane", name)
		}
		if cmd.Schema == nil {
			cmd.Schema = model.NewFieldMap()
		}
		doc.Commands[name] = cmd
		doc.CommandOrder = append(doc.CommandOrder, name)
	}
	return nil
}

func parseComponent(name string, node *yaml.Node) (model.Component, error) {
	if node.Kind == yaml.ScalarNode {
		t := strings.TrimSpace(node.Value)
		if t == "" {
			return model.Component{}, errAt(node, "component %q type must not be empty", name)
		}
		return model.Component{Name: name, Kind: model.ComponentSimple, Type: t}, nil
	}
	if node.Kind != yaml.MappingNode {
		return model.Component{}, errAt(node, "component %q must be a type name or a form map", name)
	}
	// Determine if this is a Form by presence of an explicit type: "Form".
	isForm := false
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == "type" && node.Content[i+1].Value == "Form" {
			isForm = true
		}
	}
	if !isForm {
		return model.Component{}, errAt(node, "component %q: only Form is a supported mapping component type", name)
	}
	comp := model.Component{Name: name, Kind: model.ComponentForm, Fields: map[string]string{}}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		val := node.Content[i+1]
		switch key.Value {
		case "type":
			// already handled
		case "fields":
			if val.Kind != yaml.MappingNode {
				return model.Component{}, errAt(val, "component %q fields must be a map", name)
			}
			for j := 0; j < len(val.Content); j += 2 {
				fname := strings.TrimSpace(val.Content[j].Value)
				ftype := strings.TrimSpace(val.Content[j+1].Value)
				if fname == "" {
					return model.Component{}, errAt(val.Content[j], "form field name must not be empty")
				}
				comp.Fields[fname] = ftype
				comp.FieldOrd = append(comp.FieldOrd, fname)
			}
		case "actions":
			if val.Kind != yaml.SequenceNode || len(val.Content) == 0 {
				return model.Component{}, errAt(val, "component %q actions must be a non-empty list", name)
			}
			for _, a := range val.Content {
				comp.Actions = append(comp.Actions, a.Value)
			}
		default:
			return model.Component{}, errAt(key, "unknown form key %q", key.Value)
		}
	}
	if len(comp.Actions) == 0 {
		return model.Component{}, errAt(node, "form %q must declare at least one action", name)
	}
	return comp, nil
}

func parseComponents(node *yaml.Node) ([]model.Component, error) {
	if isNullNode(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errAt(node, "components must be a mapping")
	}
	var comps []model.Component
	for i := 0; i < len(node.Content); i += 2 {
		name := strings.TrimSpace(node.Content[i].Value)
		if name == "" {
			return nil, errAt(node.Content[i], "component name must not be empty")
		}
		comp, err := parseComponent(name, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		comps = append(comps, comp)
	}
	return comps, nil
}

func parseViews(node *yaml.Node, doc *model.SourceDocument) error {
	if isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errAt(node, "views must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		name := strings.TrimSpace(nameNode.Value)
		if name == "" {
			return errAt(nameNode, "view name must not be empty")
		}
		if _, exists := doc.Views[name]; exists {
			return errAt(nameNode, "duplicate entity: %s", name)
		}
		view := &model.View{Name: name}
		valNode := node.Content[i+1]
		if valNode.Kind != yaml.MappingNode {
			return errAt(valNode, "view %q must be a map", name)
		}
		for j := 0; j < len(valNode.Content); j += 2 {
			key := valNode.Content[j]
			val := valNode.Content[j+1]
			switch key.Value {
			case "description":
				view.Description = val.Value
			case "swimlane":
				sw, err := requireString(val, "swimlane")
				if err != nil {
					return err
				}
				view.Swimlane = sw
			case "components":
				comps, err := parseComponents(val)
				if err != nil {
					return err
				}
				view.Components = comps
			default:
				return errAt(key, "unknown view key %q", key.Value)
			}
		}
		if view.Swimlane == "" {
			return errAt(valNode, "view %q missing swimlane", name)
		}
		doc.Views[name] = view
		doc.ViewOrder = append(doc.ViewOrder, name)
	}
	return nil
}

func parseProjections(node *yaml.Node, doc *model.SourceDocument) error {
	if isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errAt(node, "projections must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		name := strings.TrimSpace(nameNode.Value)
		if name == "" {
			return errAt(nameNode, "projection name must not be empty")
		}
		if _, exists := doc.Projections[name]; exists {
			return errAt(nameNode, "duplicate entity: %s", name)
		}
		proj := &model.Projection{Name: name}
		valNode := node.Content[i+1]
		if valNode.Kind != yaml.MappingNode {
			return errAt(valNode, "projection %q must be a map", name)
		}
		for j := 0; j < len(valNode.Content); j += 2 {
			key := valNode.Content[j]
			val := valNode.Content[j+1]
			switch key.Value {
			case "description":
				proj.Description = val.Value
			case "swimlane":
				sw, err := requireString(val, "swimlane")
				if err != nil {
					return err
				}
				proj.Swimlane = sw
			case "fields":
				fm, err := parseFieldMap(val)
				if err != nil {
					return err
				}
				if fm.Len() == 0 {
					return errAt(val, "projection %q fields must be non-empty", name)
				}
				proj.Fields = fm
			default:
				return errAt(key, "unknown projection key %q", key.Value)
			}
		}
		if proj.Swimlane == "" {
			return errAt(valNode, "projection %q missing swimlane", name)
		}
		if proj.Fields == nil {
			return errAt(valNode, "projection %q missing fields", name)
		}
		doc.Projections[name] = proj
		doc.ProjectionOrder = append(doc.ProjectionOrder, name)
	}
	return nil
}

func parseQueryOutput(node *yaml.Node) (model.QueryOutput, error) {
	if node.Kind != yaml.MappingNode {
		return model.QueryOutput{}, errAt(node, "query outputs must be a map")
	}
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == "one-of" {
			altsNode := node.Content[i+1]
			if altsNode.Kind != yaml.MappingNode || len(altsNode.Content) == 0 {
				return model.QueryOutput{}, errAt(altsNode, "one-of must be a non-empty map of tag to alternative")
			}
			out := model.QueryOutput{Kind: model.OutputOneOf}
			for j := 0; j < len(altsNode.Content); j += 2 {
				tag := strings.TrimSpace(altsNode.Content[j].Value)
				if tag == "" {
					return model.QueryOutput{}, errAt(altsNode.Content[j], "one-of tag must not be empty")
				}
				altNode := altsNode.Content[j+1]
				alt := model.OutputAlternative{Tag: tag}
				if altNode.Kind == yaml.ScalarNode {
					alt.IsError = true
					alt.ErrorType = altNode.Value
				} else {
					fm, err := parseFieldMap(altNode)
					if err != nil {
						return model.QueryOutput{}, err
					}
					alt.Fields = fm
				}
				out.Alternatives = append(out.Alternatives, alt)
			}
			return out, nil
		}
	}
	fm, err := parseFieldMap(node)
	if err != nil {
		return model.QueryOutput{}, err
	}
	return model.QueryOutput{Kind: model.OutputSingle, Fields: fm}, nil
}

func parseQueries(node *yaml.Node, doc *model.SourceDocument) error {
	if isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errAt(node, "queries must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		name := strings.TrimSpace(nameNode.Value)
		if name == "" {
			return errAt(nameNode, "query name must not be empty")
		}
		if _, exists := doc.Queries[name]; exists {
			return errAt(nameNode, "duplicate entity: %s", name)
		}
		q := &model.Query{Name: name}
		valNode := node.Content[i+1]
		if valNode.Kind != yaml.MappingNode {
			return errAt(valNode, "query %q must be a map", name)
		}
		var sawOutputs bool
		for j := 0; j < len(valNode.Content); j += 2 {
			key := valNode.Content[j]
			val := valNode.Content[j+1]
			switch key.Value {
			case "swimlane":
				sw, err := requireString(val, "swimlane")
				if err != nil {
					return err
				}
				q.Swimlane = sw
			case "inputs":
				fm, err := parseFieldMap(val)
				if err != nil {
					return err
				}
				q.Inputs = fm
			case "outputs":
				out, err := parseQueryOutput(val)
				if err != nil {
					return err
				}
				q.Outputs = out
				sawOutputs = true
			default:
				return errAt(key, "unknown query key %q", key.Value)
			}
		}
		if q.Swimlane == "" {
			return errAt(valNode, "query %q missing swimlane", name)
		}
		if q.Inputs == nil {
			q.Inputs = model.NewFieldMap()
		}
		if !sawOutputs {
			return errAt(valNode, "query %q missing outputs", name)
		}
		doc.Queries[name] = q
		doc.QueryOrder = append(doc.QueryOrder, name)
	}
	return nil
}

func parseAutomations(node *yaml.Node, doc *model.SourceDocument) error {
	if isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errAt(node, "automations must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		name := strings.TrimSpace(nameNode.Value)
		if name == "" {
			return errAt(nameNode, "automation name must not be empty")
		}
		if _, exists := doc.Automations[name]; exists {
			return errAt(nameNode, "duplicate entity: %s", name)
		}
		auto := &model.Automation{Name: name}
		valNode := node.Content[i+1]
		if valNode.Kind != yaml.MappingNode {
			return errAt(valNode, "automation %q must be a map", name)
		}
		for j := 0; j < len(valNode.Content); j += 2 {
			key := valNode.Content[j]
			val := valNode.Content[j+1]
			switch key.Value {
			case "swimlane":
				sw, err := requireString(val, "swimlane")
				if err != nil {
					return err
				}
				auto.Swimlane = sw
			default:
				return errAt(key, "unknown automation key %q", key.Value)
			}
		}
		if auto.Swimlane == "" {
			return errAt(valNode, "automation %q missing swimlane", name)
		}
		doc.Automations[name] = auto
		doc.AutomationOrder = append(doc.AutomationOrder, name)
	}
	return nil
}

// parseEntityRef parses one side of a connection string, e.g.
// "LoginScreen.Submit" or "CreateAccount". A dotted name is always a View
// reference per spec.md 4.1; a bare name's Kind is resolved later by the
// registry.
func parseEntityRef(raw string, line, col int) (model.EntityRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.EntityRef{}, &Error{line, col, "connection endpoint must not be empty"}
	}
	if dot := strings.IndexByte(raw, '.'); dot >= 0 {
		name := raw[:dot]
		path := raw[dot+1:]
		if name == "" || path == "" {
			return model.EntityRef{}, &Error{line, col, fmt.Sprintf("malformed dotted reference %q", raw)}
		}
		return model.EntityRef{
			Raw: raw, Kind: model.KindView, Name: name, ComponentPath: path,
			Dotted: true, Line: line, Column: col,
		}, nil
	}
	return model.EntityRef{Raw: raw, Name: raw, Line: line, Column: col}, nil
}

func parseConnectionString(node *yaml.Node) (model.Connection, error) {
	text := node.Value
	parts := strings.SplitN(text, "->", 2)
	if len(parts) != 2 {
		return model.Connection{}, errAt(node, "connection %q must have the form \"from -> to\"", text)
	}
	from, err := parseEntityRef(parts[0], node.Line, node.Column)
	if err != nil {
		return model.Connection{}, err
	}
	to, err := parseEntityRef(parts[1], node.Line, node.Column)
	if err != nil {
		return model.Connection{}, err
	}
	return model.Connection{From: from, To: to, Line: node.Line, Column: node.Column}, nil
}

func parseSlices(node *yaml.Node, doc *model.SourceDocument) error {
	if isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errAt(node, "slices must be a mapping")
	}
	for i := 0; i < len(node.Content); i += 2 {
		nameNode := node.Content[i]
		name := strings.TrimSpace(nameNode.Value)
		if name == "" {
			return errAt(nameNode, "slice name must not be empty")
		}
		listNode := node.Content[i+1]
		if listNode.Kind != yaml.SequenceNode || len(listNode.Content) == 0 {
			return errAt(listNode, "slice %q must be a non-empty list of connections", name)
		}
		slice := &model.Slice{Name: name}
		for _, item := range listNode.Content {
			if item.Kind != yaml.ScalarNode {
				return errAt(item, "slice %q: connection must be a string", name)
			}
			conn, err := parseConnectionString(item)
			if err != nil {
				return err
			}
			slice.Connections = append(slice.Connections, conn)
		}
		doc.Slices[name] = slice
		doc.SliceOrder = append(doc.SliceOrder, name)
	}
	return nil
}

// --- Simple legacy format ---
//
// entities:
//   SwimlaneName:
//     - { event: Name }
//     - { command: Name }
// slices: ... (same grammar as the rich format)

func parseLegacy(docNode *yaml.Node, doc *model.SourceDocument) error {
	doc.Workflow = "Untitled"
	for i := 0; i < len(docNode.Content); i += 2 {
		key := docNode.Content[i]
		val := docNode.Content[i+1]
		switch key.Value {
		case "workflow":
			doc.Workflow = val.Value
		case "entities":
			lanes, err := parseLegacyEntities(val, doc)
			if err != nil {
				return err
			}
			doc.Swimlanes = lanes
		case "slices":
			if err := parseSlices(val, doc); err != nil {
				return err
			}
		default:
			return errAt(key, "unknown top-level key %q", key.Value)
		}
	}
	return nil
}

func parseLegacyEntities(node *yaml.Node, doc *model.SourceDocument) ([]model.Swimlane, error) {
	if isNullNode(node) || node.Kind != yaml.MappingNode {
		return nil, errAt(node, "entities must be a mapping of swimlane name to entity list")
	}
	var lanes []model.Swimlane
	pos := 0
	for i := 0; i < len(node.Content); i += 2 {
		laneNode := node.Content[i]
		laneName := strings.TrimSpace(laneNode.Value)
		if laneName == "" {
			return nil, errAt(laneNode, "swimlane name must not be empty")
		}
		lanes = append(lanes, model.Swimlane{ID: laneName, Display: laneName, Position: pos})
		pos++

		listNode := node.Content[i+1]
		if isNullNode(listNode) {
			continue
		}
		if listNode.Kind != yaml.SequenceNode {
			return nil, errAt(listNode, "swimlane %q entities must be a list", laneName)
		}
		for _, item := range listNode.Content {
			if err := parseLegacyEntity(item, laneName, doc); err != nil {
				return nil, err
			}
		}
	}
	return lanes, nil
}

func parseLegacyEntity(node *yaml.Node, lane string, doc *model.SourceDocument) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return errAt(node, "entity must be a single kind: name entry")
	}
	keyNode := node.Content[0]
	valNode := node.Content[1]
	kind, ok := legacyPrefixes[keyNode.Value]
	if !ok {
		return errAt(keyNode, "unknown entity kind %q", keyNode.Value)
	}
	name := strings.TrimSpace(valNode.Value)
	if name == "" {
		return errAt(valNode, "entity name must not be empty")
	}

	switch kind {
	case model.KindEvent:
		if _, exists := doc.Events[name]; exists {
			return errAt(valNode, "duplicate entity: %s", name)
		}
		doc.Events[name] = &model.Event{Name: name, Swimlane: lane, Schema: model.NewFieldMap()}
		doc.EventOrder = append(doc.EventOrder, name)
	case model.KindCommand:
		if _, exists := doc.Commands[name]; exists {
			return errAt(valNode, "duplicate entity: %s", name)
		}
		doc.Commands[name] = &model.Command{Name: name, Swimlane: lane, Schema: model.NewFieldMap()}
		doc.CommandOrder = append(doc.CommandOrder, name)
	case model.KindView:
		if _, exists := doc.Views[name]; exists {
			return errAt(valNode, "duplicate entity: %s", name)
		}
		doc.Views[name] = &model.View{Name: name, Swimlane: lane}
		doc.ViewOrder = append(doc.ViewOrder, name)
	case model.KindProjection:
		if _, exists := doc.Projections[name]; exists {
			return errAt(valNode, "duplicate entity: %s", name)
		}
		doc.Projections[name] = &model.Projection{Name: name, Swimlane: lane, Fields: model.NewFieldMap()}
		doc.ProjectionOrder = append(doc.ProjectionOrder, name)
	case model.KindQuery:
		if _, exists := doc.Queries[name]; exists {
			return errAt(valNode, "duplicate entity: %s", name)
		}
		doc.Queries[name] = &model.Query{Name: name, Swimlane: lane, Inputs: model.NewFieldMap(), Outputs: model.QueryOutput{Kind: model.OutputSingle, Fields: model.NewFieldMap()}}
		doc.QueryOrder = append(doc.QueryOrder, name)
	case model.KindAutomation:
		if _, exists := doc.Automations[name]; exists {
			return errAt(valNode, "duplicate entity: %s", name)
		}
		doc.Automations[name] = &model.Automation{Name: name, Swimlane: lane}
		doc.AutomationOrder = append(doc.AutomationOrder, name)
	}
	return nil
}

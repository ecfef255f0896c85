// Package payload builds the JSON bodies sent to the review platform. Configurable
// fields are either constant or computed from build properties when the payload
// is built, so values known only near the end of a build can be reported.
package payload

import (
	"bytes"
	"fmt"
	"text/template"
	"text/template/parse"

	"github.com/Knetic/govaluate"

	"github.com/sevigo/build-herald/internal/core"
)

type fieldKind int

const (
	unset fieldKind = iota
	constant
	computed
)

// Field is a payload value that is either a constant or computed from the
// build properties at build time. The zero Field is unset.
type Field struct {
	kind  fieldKind
	value any
	fn    func(core.Properties) (any, error)
}

// Constant returns a field that always resolves to v.
func Constant(v any) Field {
	return Field{kind: constant, value: v}
}

// Computed returns a field evaluated against the build properties. fn must not
// have side effects; it may be called once per delivery.
func Computed(fn func(core.Properties) (any, error)) Field {
	return Field{kind: computed, fn: fn}
}

// IsSet reports whether the field was configured.
func (f Field) IsSet() bool {
	return f.kind != unset
}

// Resolve evaluates the field against props.
func (f Field) Resolve(props core.Properties) (any, error) {
	switch f.kind {
	case constant:
		return f.value, nil
	case computed:
		return f.fn(props)
	default:
		return nil, nil
	}
}

// ResolveString evaluates the field and renders it as a string. Unset fields
// and nil values yield def.
func (f Field) ResolveString(props core.Properties, def string) (string, error) {
	v, err := f.Resolve(props)
	if err != nil {
		return "", err
	}
	if !f.IsSet() || v == nil {
		return def, nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

// Template returns a computed field rendering a text/template against the
// properties. Templates may use {{ prop "name" }}, {{ prop "name" "default" }}
// or {{ .name }}. Unset properties render as an empty string.
func Template(text string) (Field, error) {
	tmpl, err := template.New("field").Funcs(template.FuncMap{
		"prop": func(string, ...any) any { return nil },
	}).Parse(text)
	if err != nil {
		return Field{}, fmt.Errorf("invalid field template %q: %w", text, err)
	}
	referenced := make(map[string]struct{})
	for _, t := range tmpl.Templates() {
		if t.Tree != nil {
			collectFields(t.Tree.Root, referenced)
		}
	}

	return Computed(func(props core.Properties) (any, error) {
		t, err := tmpl.Clone()
		if err != nil {
			return nil, err
		}
		t.Funcs(template.FuncMap{"prop": propFunc(props)})

		data := make(map[string]any, len(props)+len(referenced))
		for name := range referenced {
			data[name] = ""
		}
		for k, v := range props {
			if v != nil {
				data[k] = v
			}
		}

		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render field template: %w", err)
		}
		return buf.String(), nil
	}), nil
}

// collectFields records the top-level names of every .name reference in node.
func collectFields(node parse.Node, names map[string]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, c := range n.Nodes {
			collectFields(c, names)
		}
	case *parse.ActionNode:
		collectFields(n.Pipe, names)
	case *parse.PipeNode:
		if n == nil {
			return
		}
		for _, c := range n.Cmds {
			collectFields(c, names)
		}
	case *parse.CommandNode:
		for _, a := range n.Args {
			collectFields(a, names)
		}
	case *parse.ChainNode:
		collectFields(n.Node, names)
	case *parse.FieldNode:
		if len(n.Ident) > 0 {
			names[n.Ident[0]] = struct{}{}
		}
	case *parse.IfNode:
		collectBranch(&n.BranchNode, names)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, names)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, names)
	case *parse.TemplateNode:
		collectFields(n.Pipe, names)
	}
}

func collectBranch(n *parse.BranchNode, names map[string]struct{}) {
	collectFields(n.Pipe, names)
	collectFields(n.List, names)
	collectFields(n.ElseList, names)
}

func propFunc(props core.Properties) func(string, ...any) any {
	return func(name string, def ...any) any {
		if v, ok := props.Get(name); ok && v != nil {
			return v
		}
		if len(def) > 0 {
			return def[0]
		}
		return ""
	}
}

// Expression returns a computed field evaluating a govaluate expression with the
// properties as parameters. prop(name, default) reads properties that may be unset.
func Expression(expr string) (Field, error) {
	if _, err := govaluate.NewEvaluableExpressionWithFunctions(expr, expressionFunctions(nil)); err != nil {
		return Field{}, fmt.Errorf("invalid field expression %q: %w", expr, err)
	}
	return Computed(func(props core.Properties) (any, error) {
		// functions are bound at parse time, so each evaluation parses its own copy
		expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, expressionFunctions(props))
		if err != nil {
			return nil, err
		}
		v, err := expression.Evaluate(map[string]any(props))
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %q: %w", expr, err)
		}
		return v, nil
	}), nil
}

func expressionFunctions(props core.Properties) map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"prop": func(args ...any) (any, error) {
			if len(args) == 0 || len(args) > 2 {
				return nil, fmt.Errorf("prop expects a name and an optional default")
			}
			name, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("prop name must be a string")
			}
			if v, ok := props.Get(name); ok {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, nil
		},
	}
}

// Object returns a computed field resolving every member field into a map.
// Unset members are skipped.
func Object(fields map[string]Field) Field {
	return Computed(func(props core.Properties) (any, error) {
		out := make(map[string]any, len(fields))
		for name, f := range fields {
			if !f.IsSet() {
				continue
			}
			v, err := f.Resolve(props)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", name, err)
			}
			out[name] = v
		}
		return out, nil
	})
}

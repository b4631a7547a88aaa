// SPDX-License-Identifier: MPL-2.0

package sam

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FunctionType is the resource type of a serverless function.
	FunctionType = "AWS::Serverless::Function"
	// PythonRuntimePrefix prefixes every Python Lambda runtime identifier.
	PythonRuntimePrefix = "python"

	propHandler     = "Handler"
	propCodeURI     = "CodeUri"
	propRuntime     = "Runtime"
	propPackageType = "PackageType"

	packageTypeImage = "Image"
	yamlStrTag       = "!!str"
)

// ErrTemplateNotFound is returned when the template file does not exist.
var ErrTemplateNotFound = errors.New("SAM template not found")

type (
	// Template is a parsed SAM template.
	Template struct {
		// Path is the template file the functions were read from.
		Path string
		// Functions lists every serverless function in declaration order.
		Functions []Function
	}

	// Function is one AWS::Serverless::Function with Globals.Function applied.
	Function struct {
		// Name is the logical resource id; sam build uses it as the output directory name.
		Name    string
		Runtime string
		Handler string
		CodeURI string
		// Image is true for container-image functions, which have no handler to package.
		Image bool
	}

	// TemplateShapeError reports a Handler or CodeUri value that is not a plain string.
	TemplateShapeError struct {
		Function string
		Property string
		// Form describes what was found instead, e.g. "!Sub tag" or "mapping".
		Form string
	}
)

// Error implements the error interface.
func (e *TemplateShapeError) Error() string {
	return fmt.Sprintf(
		"function %s: unsupported %s (%s): only string values are supported, functions such as !Sub, !Ref and others are not supported yet",
		e.Function, e.Property, e.Form,
	)
}

// IsPython reports whether the function runs on a Python runtime.
func (f Function) IsPython() bool {
	return strings.HasPrefix(strings.ToLower(f.Runtime), PythonRuntimePrefix)
}

// SourcePath derives the function's package directory, relative to its build
// output directory, from the dotted handler reference: dots become path
// separators and the parent of the parent directory is taken. Since every dot
// is replaced, the result never contains a ".." element.
//
//	app.lambda_handler          -> .
//	src/app.lambda_handler      -> src
//	orders.api.app.handler      -> orders/api
func (f Function) SourcePath() string {
	p := strings.ReplaceAll(f.Handler, ".", "/")
	return filepath.FromSlash(path.Dir(path.Dir(p)))
}

// PythonFunctions returns the functions that run on a Python runtime and are
// packaged as zip archives, in declaration order.
func (t *Template) PythonFunctions() []Function {
	var out []Function
	for _, fn := range t.Functions {
		if fn.IsPython() && !fn.Image {
			out = append(out, fn)
		}
	}
	return out
}

// ParseTemplateFile reads and parses the SAM template at path.
func ParseTemplateFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("read template: %w", err)
	}
	tmpl, err := ParseTemplate(data)
	if err != nil {
		return nil, err
	}
	tmpl.Path = path
	return tmpl, nil
}

// ParseTemplate parses SAM template content. A template without a Resources
// section yields no functions.
func ParseTemplate(data []byte) (*Template, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	tmpl := &Template{}
	if len(doc.Content) == 0 {
		return tmpl, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse template: top level must be a mapping, got %s", describe(root))
	}

	globals := lookup(lookup(root, "Globals"), "Function")
	resources := lookup(root, "Resources")
	if resources == nil || resources.Kind != yaml.MappingNode {
		return tmpl, nil
	}

	for i := 0; i+1 < len(resources.Content); i += 2 {
		name := resources.Content[i].Value
		resource := resources.Content[i+1]
		if scalar(lookup(resource, "Type")) != FunctionType {
			continue
		}
		fn, err := parseFunction(name, lookup(resource, "Properties"), globals)
		if err != nil {
			return nil, err
		}
		tmpl.Functions = append(tmpl.Functions, fn)
	}

	return tmpl, nil
}

func parseFunction(name string, props, globals *yaml.Node) (Function, error) {
	property := func(key string) *yaml.Node {
		if n := lookup(props, key); n != nil {
			return n
		}
		return lookup(globals, key)
	}

	fn := Function{
		Name:    name,
		Runtime: scalar(property(propRuntime)),
		Image:   scalar(property(propPackageType)) == packageTypeImage,
	}
	if !fn.IsPython() || fn.Image {
		return fn, nil
	}

	handler := property(propHandler)
	if handler == nil {
		return Function{}, &TemplateShapeError{Function: name, Property: propHandler, Form: "missing"}
	}
	if !isPlainString(handler) {
		return Function{}, &TemplateShapeError{Function: name, Property: propHandler, Form: describe(handler)}
	}
	fn.Handler = handler.Value

	if codeURI := property(propCodeURI); codeURI != nil {
		if !isPlainString(codeURI) {
			return Function{}, &TemplateShapeError{Function: name, Property: propCodeURI, Form: describe(codeURI)}
		}
		fn.CodeURI = codeURI.Value
	}

	return fn, nil
}

// lookup returns the value node for key in a mapping node, or nil.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil {
		return nil
	}
	if m.Kind == yaml.AliasNode {
		m = m.Alias
	}
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			v := m.Content[i+1]
			if v.Kind == yaml.AliasNode {
				return v.Alias
			}
			return v
		}
	}
	return nil
}

// scalar returns the value of a plain string scalar, or "" for anything else.
func scalar(n *yaml.Node) string {
	if !isPlainString(n) {
		return ""
	}
	return n.Value
}

func isPlainString(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.Tag == yamlStrTag
}

// describe names the YAML shape of n for error messages.
func describe(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		if len(n.Content) > 0 && strings.HasPrefix(n.Content[0].Value, "Fn::") {
			return n.Content[0].Value + " function"
		}
		if len(n.Content) > 0 && n.Content[0].Value == "Ref" {
			return "Ref function"
		}
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		if !strings.HasPrefix(n.Tag, "!!") {
			return n.Tag + " tag"
		}
		return strings.TrimPrefix(n.Tag, "!!") + " scalar"
	default:
		return "unsupported node"
	}
}

package catalog

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/amatiych/llm-work/pkg/report"
)

// Definition is the provider-neutral form of a tool sent to the model.
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Catalog holds the fixed tool set and compiled argument schemas. It is
// immutable after New and safe for concurrent readers.
type Catalog struct {
	tools      []Tool
	byName     map[Name]int
	schemas    map[Name]*gojsonschema.Schema
	schemaDocs map[Name]map[string]interface{}
}

// New builds the catalog and compiles every tool schema.
func New() (*Catalog, error) {
	tools := builtinTools()
	c := &Catalog{
		tools:      tools,
		byName:     make(map[Name]int, len(tools)),
		schemas:    make(map[Name]*gojsonschema.Schema, len(tools)),
		schemaDocs: make(map[Name]map[string]interface{}, len(tools)),
	}

	for i, tool := range tools {
		if _, dup := c.byName[tool.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", tool.Name)
		}
		doc := generateJSONSchema(tool)
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", tool.Name, err)
		}
		c.byName[tool.Name] = i
		c.schemas[tool.Name] = schema
		c.schemaDocs[tool.Name] = doc
	}

	return c, nil
}

// MustNew is New for package-level initialisation.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// generateJSONSchema builds an object schema with typed, required properties
// and no additional properties.
func generateJSONSchema(tool Tool) map[string]interface{} {
	properties := make(map[string]interface{}, len(tool.Parameters))
	required := []string{}

	for _, param := range tool.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.MinLength > 0 {
			paramSchema["minLength"] = param.MinLength
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// Lookup returns the tool for name or an unknown_tool error.
func (c *Catalog) Lookup(name string) (Tool, error) {
	idx, ok := c.byName[Name(name)]
	if !ok {
		return Tool{}, report.NewToolError(report.CodeUnknownTool, name, "",
			"unknown tool %q; available tools: %s", name, strings.Join(c.Names(), ", "))
	}
	return c.tools[idx], nil
}

// Tools returns the catalog entries in declaration order.
func (c *Catalog) Tools() []Tool {
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Names returns the tool names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = string(t.Name)
	}
	return names
}

// ValidateArguments checks args against the tool's schema.
func (c *Catalog) ValidateArguments(name string, args map[string]interface{}) error {
	schema, ok := c.schemas[Name(name)]
	if !ok {
		return report.NewToolError(report.CodeUnknownTool, name, "", "unknown tool %q", name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &report.ToolError{
			Code:    report.CodeInvalidArguments,
			Tool:    name,
			Message: fmt.Sprintf("arguments could not be validated: %v", err),
			Err:     err,
		}
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return report.NewToolError(report.CodeInvalidArguments, name, "",
			"validation errors: %s", strings.Join(problems, "; "))
	}

	return nil
}

// Definitions returns every tool in the form the model transport expects.
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, len(c.tools))
	for i, t := range c.tools {
		defs[i] = Definition{
			Name:        string(t.Name),
			Description: t.Description,
			InputSchema: cloneSchema(c.schemaDocs[t.Name]),
		}
	}
	return defs
}

func cloneSchema(doc map[string]interface{}) map[string]interface{} {
	return report.CloneArguments(doc)
}

// Package schema loads and resolves the vault's inheritable type schema.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/magpie-md/magpie/internal/frontmatter"
)

// ReservedRoot is the reserved root type name. It may declare shared fields
// for other types to extend but never appears in resolved type listings.
const ReservedRoot = "meta"

// CurrentVersion is the latest schema format version.
const CurrentVersion = 1

// File is the complete schema definition loaded from schema.yaml.
type File struct {
	Version        int                       `yaml:"version"`
	Enums          map[string][]string       `yaml:"enums"`
	Types          map[string]*TypeDef       `yaml:"types"`
	DynamicSources map[string]*DynamicSource `yaml:"dynamic_sources"`
	Config         map[string]string         `yaml:"config"`
}

// DirMode controls how a type's instances are laid out on disk.
type DirMode string

const (
	// DirModePooled puts every instance of the type in one shared folder.
	DirModePooled DirMode = "pooled"
	// DirModeInstanceGrouped gives each instance its own subfolder holding
	// an index document plus child documents.
	DirModeInstanceGrouped DirMode = "instance-grouped"
)

// TypeDef defines a document type. Subtypes nest further definitions whose
// fields layer on top of the parent's.
type TypeDef struct {
	Extends     string              `yaml:"extends"`
	OutputDir   string              `yaml:"output_dir"`
	DirMode     DirMode             `yaml:"dir_mode"`
	FilePattern string              `yaml:"file_pattern"`
	Fields      FieldList           `yaml:"fields"`
	Subtypes    map[string]*TypeDef `yaml:"subtypes"`
}

// Shape is the declared shape of a field's value.
type Shape string

const (
	ShapeText     Shape = "text"
	ShapeSelect   Shape = "select"
	ShapeDate     Shape = "date"
	ShapeList     Shape = "list"
	ShapeRelation Shape = "relation"
	ShapeBoolean  Shape = "boolean"
	ShapeNumber   Shape = "number"
	ShapeFixed    Shape = "fixed-value"
)

// Shapes lists every valid field shape.
var Shapes = []Shape{
	ShapeText, ShapeSelect, ShapeDate, ShapeList,
	ShapeRelation, ShapeBoolean, ShapeNumber, ShapeFixed,
}

// FieldDef defines one field of a type.
type FieldDef struct {
	Name     string      `yaml:"-"`
	Shape    Shape       `yaml:"type"`
	Required bool        `yaml:"required"`
	Default  interface{} `yaml:"default"`
	// Enum names a declared enum backing a select field; Options declares
	// the option set inline. One of the two, not both.
	Enum    string   `yaml:"enum"`
	Options []string `yaml:"options"`
	// Source names a dynamic source backing a relation field.
	Source string `yaml:"source"`
	// Owner marks a relation field as expressing a parent/child hierarchy;
	// the audit engine walks owner relations for cycle detection.
	Owner bool `yaml:"owner"`
	// Value is the pinned value of a fixed-value field.
	Value interface{} `yaml:"value"`
}

// Compatible reports whether a frontmatter value can inhabit this field's
// shape. Empty values are compatible with every shape.
func (f *FieldDef) Compatible(v frontmatter.Value) bool {
	if v.IsEmpty() {
		return true
	}
	switch f.Shape {
	case ShapeList:
		return v.Kind() == frontmatter.KindList
	case ShapeBoolean:
		return v.Kind() == frontmatter.KindBool
	case ShapeNumber:
		return v.Kind() == frontmatter.KindNumber
	default:
		// text, select, relation, date, fixed-value hold strings
		return v.Kind() == frontmatter.KindString
	}
}

// FieldList is an ordered list of field definitions. Order matters: missing
// keys are inserted into documents in schema-declared order.
type FieldList []*FieldDef

// UnmarshalYAML decodes the mapping form while preserving declaration order.
func (fl *FieldList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("fields must be a mapping, got %s at line %d", nodeKind(node), node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var def FieldDef
		if err := node.Content[i+1].Decode(&def); err != nil {
			return fmt.Errorf("field %q: %w", node.Content[i].Value, err)
		}
		def.Name = node.Content[i].Value
		*fl = append(*fl, &def)
	}
	return nil
}

// Get returns the field with the given name.
func (fl FieldList) Get(name string) (*FieldDef, bool) {
	for _, def := range fl {
		if def.Name == name {
			return def, true
		}
	}
	return nil, false
}

// Names returns the field names in declaration order.
func (fl FieldList) Names() []string {
	out := make([]string, len(fl))
	for i, def := range fl {
		out[i] = def.Name
	}
	return out
}

// DynamicSource declares a directory-plus-filters source that resolves to a
// live list of note names, used as the value set of relation fields.
type DynamicSource struct {
	Directory string   `yaml:"directory"`
	Filters   []string `yaml:"filters"` // expression strings, implicit AND
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	default:
		return "node"
	}
}

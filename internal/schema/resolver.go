package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownType is returned when a type path has no schema definition.
var ErrUnknownType = errors.New("unknown type")

// ErrUnknownEnum is returned when a field references an undeclared enum.
var ErrUnknownEnum = errors.New("unknown enum")

// Resolved is the effective definition for a type path: the merged field
// set and the layout settings accumulated along the path.
type Resolved struct {
	Path        string
	Fields      FieldList // ancestors first, descendants override in place
	OutputDir   string
	DirMode     DirMode
	FilePattern string
}

// Field returns the effective field with the given name.
func (r *Resolved) Field(name string) (*FieldDef, bool) {
	return r.Fields.Get(name)
}

// Resolve walks typePath ("a/b/c") through the root type map and successive
// subtype maps, merging fields (ancestor first, descendant overrides by
// name) and accumulating output_dir overrides (last one wins). A missing
// segment is an error, never a silent nil.
func (f *File) Resolve(typePath string) (*Resolved, error) {
	typePath = strings.Trim(strings.TrimSpace(typePath), "/")
	if typePath == "" {
		return nil, fmt.Errorf("%w: empty type path", ErrUnknownType)
	}

	segments := strings.Split(typePath, "/")
	root, ok := f.Types[segments[0]]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, segments[0])
	}

	res := &Resolved{Path: typePath}

	// The extends chain contributes fields from the most distant ancestor
	// down, so nearer definitions override by name.
	chain, err := f.extendsChain(segments[0], root)
	if err != nil {
		return nil, err
	}
	for _, def := range chain {
		res.apply(def)
	}

	cur := root
	walked := segments[0]
	for _, segment := range segments[1:] {
		sub, ok := cur.Subtypes[segment]
		if !ok {
			return nil, fmt.Errorf("%w: %q has no subtype %q", ErrUnknownType, walked, segment)
		}
		res.apply(sub)
		cur = sub
		walked += "/" + segment
	}

	return res, nil
}

// extendsChain returns the definitions from the most distant ancestor to the
// type itself.
func (f *File) extendsChain(name string, def *TypeDef) ([]*TypeDef, error) {
	var chain []*TypeDef
	seen := map[string]bool{name: true}
	cur := def
	for {
		chain = append([]*TypeDef{cur}, chain...)
		if cur.Extends == "" {
			return chain, nil
		}
		if seen[cur.Extends] {
			return nil, fmt.Errorf("type %q: extends cycle", name)
		}
		seen[cur.Extends] = true
		parent, ok := f.Types[cur.Extends]
		if !ok {
			return nil, fmt.Errorf("%w: %q (extended by %q)", ErrUnknownType, cur.Extends, name)
		}
		cur = parent
	}
}

func (r *Resolved) apply(def *TypeDef) {
	for _, field := range def.Fields {
		replaced := false
		for i, existing := range r.Fields {
			if existing.Name == field.Name {
				r.Fields[i] = field
				replaced = true
				break
			}
		}
		if !replaced {
			r.Fields = append(r.Fields, field)
		}
	}
	if def.OutputDir != "" {
		r.OutputDir = def.OutputDir
	}
	if def.DirMode != "" {
		r.DirMode = def.DirMode
	}
	if def.FilePattern != "" {
		r.FilePattern = def.FilePattern
	}
}

// TypeNames returns all root type family names, sorted, excluding the
// reserved "meta" root.
func (f *File) TypeNames() []string {
	names := make([]string, 0, len(f.Types))
	for name := range f.Types {
		if name == ReservedRoot {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllFieldNames returns every own (non-inherited) field name declared
// anywhere in the schema, deduplicated and sorted. Used for typo suggestions
// and for collision checks between type names and field names.
func (f *File) AllFieldNames() []string {
	seen := make(map[string]bool)
	var walk func(def *TypeDef)
	walk = func(def *TypeDef) {
		for _, field := range def.Fields {
			seen[field.Name] = true
		}
		for _, sub := range def.Subtypes {
			walk(sub)
		}
	}
	for _, def := range f.Types {
		walk(def)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnumFor reports which declared enum, if any, backs the named field on the
// given type path, along with the effective value set. Inline options yield
// an empty enum name. A field with neither yields (empty, nil, nil).
func (f *File) EnumFor(typePath, fieldName string) (string, []string, error) {
	res, err := f.Resolve(typePath)
	if err != nil {
		return "", nil, err
	}
	field, ok := res.Field(fieldName)
	if !ok {
		return "", nil, fmt.Errorf("type %q has no field %q", typePath, fieldName)
	}
	if field.Enum != "" {
		values, ok := f.Enums[field.Enum]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownEnum, field.Enum)
		}
		return field.Enum, values, nil
	}
	if len(field.Options) > 0 {
		return "", field.Options, nil
	}
	return "", nil, nil
}

// SelectValues returns the union of declared option sets for the named field
// across every type that declares it, and whether every declaration is a
// select. Only when allSelect is true can a value outside the union be called
// impossible; a field that is text somewhere can hold anything there.
func (f *File) SelectValues(fieldName string) (values []string, allSelect bool) {
	seen := make(map[string]bool)
	declared := 0
	allSelect = true

	var walk func(def *TypeDef)
	walk = func(def *TypeDef) {
		if field, ok := def.Fields.Get(fieldName); ok {
			declared++
			if field.Shape != ShapeSelect {
				allSelect = false
			} else {
				opts := field.Options
				if field.Enum != "" {
					opts = f.Enums[field.Enum]
				}
				for _, v := range opts {
					if !seen[v] {
						seen[v] = true
						values = append(values, v)
					}
				}
			}
		}
		for _, sub := range def.Subtypes {
			walk(sub)
		}
	}
	for _, def := range f.Types {
		walk(def)
	}

	if declared == 0 {
		return nil, false
	}
	sort.Strings(values)
	return values, allSelect
}

// IsInstanceGrouped reports whether typePath denotes a subtype of an
// instance-grouped type: the parent path's dir_mode is instance-grouped and
// the path has more than one segment. Instances of such subtypes live inside
// a parent instance's folder rather than the type's pooled directory.
func (f *File) IsInstanceGrouped(typePath string) bool {
	segments := strings.Split(strings.Trim(typePath, "/"), "/")
	if len(segments) < 2 {
		return false
	}
	parent, err := f.Resolve(strings.Join(segments[:len(segments)-1], "/"))
	if err != nil {
		return false
	}
	return parent.DirMode == DirModeInstanceGrouped
}

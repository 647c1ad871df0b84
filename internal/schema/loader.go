package schema

import (
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// FileName is the schema definition file at the vault root.
const FileName = "schema.yaml"

// Load reads and validates the vault's schema definition. A missing file
// yields an empty schema; an unparsable or invalid one is a configuration
// error that aborts the run.
func Load(vaultPath string) (*File, error) {
	path := filepath.Join(vaultPath, FileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return f, nil
}

// New returns an empty schema.
func New() *File {
	return &File{
		Version: CurrentVersion,
		Enums:   make(map[string][]string),
		Types:   make(map[string]*TypeDef),
	}
}

// Parse decodes and validates a schema definition.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if f.Enums == nil {
		f.Enums = make(map[string][]string)
	}
	if f.Types == nil {
		f.Types = make(map[string]*TypeDef)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the definition for internal consistency: version range,
// dangling extends/enum/source references, shape constraints.
func (f *File) Validate() error {
	if err := validation.ValidateStruct(f,
		validation.Field(&f.Version, validation.Required, validation.Min(1), validation.Max(CurrentVersion)),
		validation.Field(&f.Types, validation.Required),
	); err != nil {
		return err
	}

	for name, values := range f.Enums {
		if len(values) == 0 {
			return fmt.Errorf("enum %q: empty value set", name)
		}
	}

	for name, def := range f.Types {
		if def == nil {
			return fmt.Errorf("type %q: empty definition", name)
		}
		if def.Extends != "" {
			if _, ok := f.Types[def.Extends]; !ok {
				return fmt.Errorf("type %q: extends unknown type %q", name, def.Extends)
			}
		}
		if err := f.validateTypeDef(name, def); err != nil {
			return err
		}
	}

	if err := f.checkExtendsCycles(); err != nil {
		return err
	}

	for name, src := range f.DynamicSources {
		if src == nil || src.Directory == "" {
			return fmt.Errorf("dynamic source %q: directory is required", name)
		}
	}

	return nil
}

func (f *File) validateTypeDef(path string, def *TypeDef) error {
	switch def.DirMode {
	case "", DirModePooled, DirModeInstanceGrouped:
	default:
		return fmt.Errorf("type %q: unknown dir_mode %q", path, def.DirMode)
	}

	for _, field := range def.Fields {
		if err := f.validateFieldDef(path, field); err != nil {
			return err
		}
	}

	for sub, subDef := range def.Subtypes {
		if subDef == nil {
			return fmt.Errorf("type %q: subtype %q has an empty definition", path, sub)
		}
		if subDef.Extends != "" {
			return fmt.Errorf("type %q: subtype %q may not use extends", path, sub)
		}
		if err := f.validateTypeDef(path+"/"+sub, subDef); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) validateFieldDef(typePath string, field *FieldDef) error {
	where := fmt.Sprintf("type %q field %q", typePath, field.Name)

	valid := false
	for _, s := range Shapes {
		if field.Shape == s {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%s: unknown shape %q", where, field.Shape)
	}

	if field.Enum != "" {
		if _, ok := f.Enums[field.Enum]; !ok {
			return fmt.Errorf("%s: references unknown enum %q", where, field.Enum)
		}
		if len(field.Options) > 0 {
			return fmt.Errorf("%s: enum and options are mutually exclusive", where)
		}
	}
	if field.Shape == ShapeSelect && field.Enum == "" && len(field.Options) == 0 {
		return fmt.Errorf("%s: select field needs options or an enum", where)
	}
	if field.Source != "" {
		if field.Shape != ShapeRelation {
			return fmt.Errorf("%s: source only applies to relation fields", where)
		}
		if _, ok := f.DynamicSources[field.Source]; !ok {
			return fmt.Errorf("%s: references unknown dynamic source %q", where, field.Source)
		}
	}
	if field.Owner && field.Shape != ShapeRelation {
		return fmt.Errorf("%s: owner only applies to relation fields", where)
	}
	if field.Shape == ShapeFixed && field.Value == nil {
		return fmt.Errorf("%s: fixed-value field needs a value", where)
	}
	return nil
}

func (f *File) checkExtendsCycles() error {
	for name := range f.Types {
		seen := map[string]bool{name: true}
		cur := f.Types[name]
		for cur != nil && cur.Extends != "" {
			if seen[cur.Extends] {
				return fmt.Errorf("type %q: extends cycle through %q", name, cur.Extends)
			}
			seen[cur.Extends] = true
			cur = f.Types[cur.Extends]
		}
	}
	return nil
}

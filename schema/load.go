package schema

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// ErrInvalidColumn is returned when a schema column cannot be used by the
// loader.
var ErrInvalidColumn = errors.New("invalid column")

// LoadFile reads a JSON schema file and merges it over DefaultSet.
// Columns are matched by field: an override replaces the default column,
// unknown fields are appended.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// Parse decodes JSON schema bytes and merges them over DefaultSet.
func Parse(data []byte) (Set, error) {
	var override Set
	if err := json.Unmarshal(data, &override); err != nil {
		return Set{}, fmt.Errorf("parse schema: %w", err)
	}

	set := DefaultSet()
	set.Accidents = merge(set.Accidents, override.Accidents)
	set.Licenses = merge(set.Licenses, override.Licenses)
	if err := set.Accidents.Validate(); err != nil {
		return Set{}, err
	}
	if err := set.Licenses.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

// Validate checks that every column names a field, a header and a type the
// loader knows how to coerce.
func (c Config) Validate() error {
	for _, col := range c.Columns {
		switch {
		case col.Field == "":
			return fmt.Errorf("%s: %w: empty field", c.Name, ErrInvalidColumn)
		case col.Header == "":
			return fmt.Errorf("%s: %w: %s has no header", c.Name, ErrInvalidColumn, col.Field)
		}
		switch col.Type {
		case TypeString, TypeInt, TypeDate:
		default:
			return fmt.Errorf("%s: %w: %s has type %q", c.Name, ErrInvalidColumn, col.Field, col.Type)
		}
	}
	return nil
}

// Marshal encodes a schema set as indented JSON.
func Marshal(set Set) ([]byte, error) {
	return json.MarshalIndent(set, "", "  ")
}

func merge(base, override Config) Config {
	if override.Description != "" {
		base.Description = override.Description
	}
	if len(override.DateLayouts) > 0 {
		base.DateLayouts = override.DateLayouts
	}

	cols := make([]ColumnMeta, len(base.Columns))
	copy(cols, base.Columns)
	for _, oc := range override.Columns {
		replaced := false
		for i := range cols {
			if cols[i].Field == oc.Field {
				if oc.Type == "" {
					oc.Type = cols[i].Type
				}
				cols[i] = oc
				replaced = true
				break
			}
		}
		if !replaced {
			if oc.Type == "" {
				oc.Type = TypeString
			}
			cols = append(cols, oc)
		}
	}
	base.Columns = cols
	return base
}

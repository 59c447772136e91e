package typeinfo

import (
	"reflect"
	"sort"
)

// Field represents a single tagged field of a struct describing a table.
type Field struct {
	Type reflect.Type

	// Name is the name of the struct field.
	Name string

	// Index of this field in the structure.
	Index int

	// OmitEmpty is true when "omitempty" is
	// a property of the field's "db" tag.
	OmitEmpty bool
}

// SemanticType returns the semantic type of the field.
func (f Field) SemanticType() Type {
	return TypeOf(f.Type)
}

// Info represents reflected information about a struct type.
type Info struct {
	Type reflect.Type

	// Relate tag names to fields.
	TagToField map[string]Field

	// Relate field names to tags.
	FieldToTag map[string]string
}

// Tags returns the column names found in the struct tags in field order.
func (info *Info) Tags() []string {
	tags := make([]string, 0, len(info.TagToField))
	for tag := range info.TagToField {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		return info.TagToField[tags[i]].Index < info.TagToField[tags[j]].Index
	})
	return tags
}

// Package registry holds the static catalog of content models: the named
// schemas (ordered typed fields plus validation rules) that the admin
// dashboard edits instances of. The catalog is built once at process start
// and never mutated; components receive it by injection.
package registry

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FieldType enumerates the value kinds a content field can hold.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldBoolean  FieldType = "boolean"
	FieldEmail    FieldType = "email"
	FieldURL      FieldType = "url"
	FieldImage    FieldType = "image"
	FieldFile     FieldType = "file"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldRichText FieldType = "richtext"
)

// IsUpload reports whether values of this type reference a stored binary
// asset rather than an inline value.
func (t FieldType) IsUpload() bool {
	return t == FieldImage || t == FieldFile
}

// Rules carries the optional per-field validation constraints.
type Rules struct {
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
}

// FieldDefinition describes one field of a content model.
type FieldDefinition struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required"`
	Validation Rules     `json:"validation"`
	Options    []string  `json:"options,omitempty"` // for select fields
	HelpText   string    `json:"helpText,omitempty"`
}

// ContentModel is a named schema: an ordered list of fields plus the field
// ids the admin list search runs over.
type ContentModel struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Fields       []FieldDefinition `json:"fields"`
	SearchFields []string          `json:"searchFields,omitempty"`
}

// Field returns the definition for the given field id.
func (m *ContentModel) Field(id string) (FieldDefinition, bool) {
	for _, f := range m.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// UploadFields returns the model's image/file typed fields in order.
func (m *ContentModel) UploadFields() []FieldDefinition {
	var out []FieldDefinition
	for _, f := range m.Fields {
		if f.Type.IsUpload() {
			out = append(out, f)
		}
	}
	return out
}

// Registry is the immutable model catalog.
type Registry struct {
	models map[string]*ContentModel
}

// Parse builds a Registry from a JSON document of the form
// {"models": [ ... ]}. Duplicate model ids or duplicate field ids within a
// model are configuration errors and fail the load.
func Parse(raw []byte) (*Registry, error) {
	var doc struct {
		Models []*ContentModel `json:"models"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("registry: parse models: %w", err)
	}
	if len(doc.Models) == 0 {
		return nil, fmt.Errorf("registry: no models defined")
	}

	models := make(map[string]*ContentModel, len(doc.Models))
	for _, m := range doc.Models {
		if m.ID == "" {
			return nil, fmt.Errorf("registry: model with empty id")
		}
		if _, dup := models[m.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate model id %q", m.ID)
		}
		seen := make(map[string]struct{}, len(m.Fields))
		for _, f := range m.Fields {
			if f.ID == "" {
				return nil, fmt.Errorf("registry: model %q has a field with empty id", m.ID)
			}
			if _, dup := seen[f.ID]; dup {
				return nil, fmt.Errorf("registry: model %q has duplicate field id %q", m.ID, f.ID)
			}
			seen[f.ID] = struct{}{}
		}
		for _, sf := range m.SearchFields {
			if _, ok := m.Field(sf); !ok {
				return nil, fmt.Errorf("registry: model %q search field %q is not defined", m.ID, sf)
			}
		}
		models[m.ID] = m
	}

	return &Registry{models: models}, nil
}

// Get returns the model for the given id.
func (r *Registry) Get(modelID string) (*ContentModel, bool) {
	m, ok := r.models[modelID]
	return m, ok
}

// All returns every model sorted by id.
func (r *Registry) All() []*ContentModel {
	out := make([]*ContentModel, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

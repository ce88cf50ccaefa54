package models

import (
	"sort"
	"time"
)

// JSONValue is a generic type to represent any JSON value.
// This can be a string, json.Number, boolean, nil, object, or array.
type JSONValue = any

// JSONObject represents a JSON object, which is a map of strings to JSONValues.
type JSONObject = map[string]any

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray = []any

// Document is one loaded sample. An invalid document carries the parse error
// and contributes nothing to merging or value lookup.
type Document struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Content  JSONValue `json:"content"`
	Valid    bool      `json:"valid"`
	Error    string    `json:"error,omitempty"`
	Size     int64     `json:"size"`
	LoadedAt time.Time `json:"loadedAt"`
}

// ValidDocuments returns the documents that can take part in a merge, in load order.
func ValidDocuments(docs []Document) []Document {
	valid := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if doc.Valid && doc.Content != nil {
			valid = append(valid, doc)
		}
	}
	return valid
}

// PropertyType is the detected type of a property.
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeInteger PropertyType = "integer"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
	TypeObject  PropertyType = "object"
	TypeArray   PropertyType = "array"
	TypeNull    PropertyType = "null"
	TypeDate    PropertyType = "date"
	TypeEmail   PropertyType = "email"
	TypeURL     PropertyType = "url"
	TypeMixed   PropertyType = "mixed"
)

// Status buckets a property by how often it appears.
type Status string

const (
	StatusRequired   Status = "required"
	StatusCommon     Status = "common"
	StatusOccasional Status = "occasional"
	StatusRare       Status = "rare"
)

// Example is a captured sample value.
type Example struct {
	Source string       `json:"source"`
	Value  JSONValue    `json:"value"`
	Type   PropertyType `json:"type"`
}

// Conflict records an observation whose type disagreed with the property type.
type Conflict struct {
	Source       string       `json:"source"`
	ExpectedType PropertyType `json:"expectedType"`
	ActualType   PropertyType `json:"actualType"`
	Value        JSONValue    `json:"value"`
}

// Property aggregates one structural position across all documents.
type Property struct {
	Path             string       `json:"path"`
	Key              string       `json:"key"`
	Level            int          `json:"level"`
	Type             PropertyType `json:"type"`
	Frequency        int          `json:"frequency"`
	Values           []JSONValue  `json:"-"`
	Sources          []string     `json:"sources"`
	Missing          []string     `json:"missing"`
	Examples         []Example    `json:"examples"`
	Conflicts        []Conflict   `json:"conflicts"`
	IsRequired       bool         `json:"isRequired"`
	FrequencyText    string       `json:"frequencyText"`
	FrequencyPercent int          `json:"frequencyPercent"`
	Status           Status       `json:"status"`

	// Hierarchy decoration; UI state layered on top of the structural record.
	HasChildren bool `json:"hasChildren"`
	IsExpanded  bool `json:"isExpanded"`
	ViewLevel   int  `json:"viewLevel"`
}

// PropertyMap is keyed by the string form of a property path.
type PropertyMap map[string]*Property

// ArrayOptions configures how many elements an array in the template gets.
type ArrayOptions struct {
	Count      int      `json:"count"`
	Properties []string `json:"properties,omitempty"`
}

// ArrayConfig is keyed by array-root path.
type ArrayConfig map[string]ArrayOptions

// PathSet is a set of property paths, used for selections and expansion state.
type PathSet map[string]struct{}

// NewPathSet creates a set holding paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether p is in the set. A nil set is empty.
func (s PathSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// Add inserts p.
func (s PathSet) Add(p string) { s[p] = struct{}{} }

// Remove deletes p.
func (s PathSet) Remove(p string) { delete(s, p) }

// Clone returns an independent copy; cloning nil yields an empty set.
func (s PathSet) Clone() PathSet {
	out := make(PathSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexicographic order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

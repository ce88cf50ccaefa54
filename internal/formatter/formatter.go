package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/mcncl/jsonsampler/internal/analyzer"
	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/path"
)

// Formatter renders templates as JSON text
type Formatter struct {
	indent int
}

// NewFormatter creates a new Formatter instance with two-space indentation
func NewFormatter() *Formatter {
	return NewFormatterWithIndent(2)
}

// NewFormatterWithIndent creates a Formatter; an indent of 0 produces compact output
func NewFormatterWithIndent(indent int) *Formatter {
	if indent < 0 {
		indent = 0
	}
	return &Formatter{indent: indent}
}

// Format renders a template as JSON with sorted keys and a trailing newline.
// HTML characters are left unescaped so sample URLs stay readable.
func (f *Formatter) Format(template models.JSONValue) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if f.indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", f.indent))
	}
	if err := enc.Encode(template); err != nil {
		return "", fmt.Errorf("failed to encode template: %w", err)
	}
	return buf.String(), nil
}

// TemplateStats describes the shape of a generated template
type TemplateStats struct {
	TotalProperties     int            `json:"totalProperties"`
	ArrayProperties     int            `json:"arrayProperties"`
	ObjectProperties    int            `json:"objectProperties"`
	PrimitiveProperties int            `json:"primitiveProperties"`
	ArrayItemsCount     map[string]int `json:"arrayItemsCount"`
	Depth               int            `json:"depth"`
	EstimatedSize       int            `json:"estimatedSize"`
}

// Stats counts the properties of a template. Arrays are described through
// their first element, like everywhere else.
func Stats(template models.JSONValue) TemplateStats {
	stats := TemplateStats{ArrayItemsCount: make(map[string]int)}
	switch template.(type) {
	case map[string]any, []any:
	default:
		return stats
	}

	var count func(value models.JSONValue, p path.Path, depth int)
	count = func(value models.JSONValue, p path.Path, depth int) {
		if depth > stats.Depth {
			stats.Depth = depth
		}
		switch t := value.(type) {
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				child := p.Child(k)
				stats.TotalProperties++
				switch v := t[k].(type) {
				case []any:
					stats.ArrayProperties++
					stats.ArrayItemsCount[child.String()] = len(v)
					if len(v) > 0 {
						if _, ok := v[0].(map[string]any); ok {
							count(v[0], child.Element(), depth+1)
						}
					}
				case map[string]any:
					stats.ObjectProperties++
					count(v, child, depth+1)
				default:
					stats.PrimitiveProperties++
				}
			}
		case []any:
			if len(t) > 0 {
				count(t[0], p.Element(), depth)
			}
		}
	}
	count(template, nil, 0)

	if data, err := json.Marshal(template); err == nil {
		stats.EstimatedSize = len(data)
	}
	return stats
}

// Validation is the outcome of ValidateTemplate
type Validation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Size     int      `json:"size,omitempty"`
}

// ValidateTemplate checks that a template is an object or array that
// survives a JSON round trip unchanged.
func ValidateTemplate(template models.JSONValue) Validation {
	switch template.(type) {
	case map[string]any, []any:
	default:
		return Validation{Errors: []string{"template must be a JSON object or array"}}
	}

	data, err := json.Marshal(template)
	if err != nil {
		return Validation{Errors: []string{err.Error()}}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var back any
	if err := dec.Decode(&back); err != nil {
		return Validation{Errors: []string{err.Error()}}
	}
	again, err := json.Marshal(back)
	if err != nil {
		return Validation{Errors: []string{err.Error()}}
	}
	if !bytes.Equal(data, again) {
		return Validation{Errors: []string{"template changes when serialized and parsed again"}}
	}

	result := Validation{IsValid: true, Errors: []string{}, Warnings: []string{}, Size: len(data)}
	if isEmpty(template) {
		result.Warnings = append(result.Warnings, "template is empty")
	}
	return result
}

func isEmpty(template models.JSONValue) bool {
	switch t := template.(type) {
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// ExtractPaths flattens a template back into property paths, sorted.
func ExtractPaths(template models.JSONValue) []string {
	var paths []string
	analyzer.Traverse(template, nil, func(p path.Path, _ models.JSONValue, _ string, _ int) {
		paths = append(paths, p.String())
	})
	sort.Strings(paths)
	return paths
}

// HasPath reports whether the template holds a non-null value at p.
func HasPath(template models.JSONValue, p string) bool {
	parsed := path.Parse(p)
	if len(parsed) == 0 {
		return false
	}
	return parsed.Expr().First(template) != nil
}

// AccuracyReport compares a selection with the template built from it
type AccuracyReport struct {
	SelectedCount int      `json:"selectedCount"`
	TemplateCount int      `json:"templateCount"`
	Missing       []string `json:"missing"`
	Extra         []string `json:"extra"`
	IsExact       bool     `json:"isExact"`
	Accuracy      float64  `json:"accuracy"`
}

// Accuracy reports which selected paths the template lacks and which
// template paths were never selected. Accuracy is the percentage of selected
// paths present, to one decimal.
func Accuracy(sel models.PathSet, template models.JSONValue) AccuracyReport {
	templatePaths := ExtractPaths(template)
	present := models.NewPathSet(templatePaths...)

	report := AccuracyReport{
		SelectedCount: len(sel),
		TemplateCount: len(templatePaths),
		Missing:       []string{},
		Extra:         []string{},
	}
	for _, p := range sel.Sorted() {
		if !present.Has(p) {
			report.Missing = append(report.Missing, p)
		}
	}
	for _, p := range templatePaths {
		if !sel.Has(p) {
			report.Extra = append(report.Extra, p)
		}
	}
	report.IsExact = len(report.Missing) == 0 && len(report.Extra) == 0
	if len(sel) > 0 {
		pct := float64(len(sel)-len(report.Missing)) / float64(len(sel)) * 100
		report.Accuracy = math.Round(pct*10) / 10
	}
	return report
}

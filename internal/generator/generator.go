// Package generator synthesizes JSON templates from a selection of property
// paths, resolving every value from the loaded documents.
//
// A template contains exactly the selected paths: containers are created
// empty as they are needed and never copied wholesale from a document, so an
// unselected sibling can never leak into the output.
package generator

import (
	"log/slog"
	"sort"

	"github.com/mcncl/jsonsampler/internal/config"
	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/path"
)

// Generator builds templates. The zero value is not usable; use NewGenerator.
type Generator struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewGenerator creates a Generator with the default configuration.
func NewGenerator() *Generator {
	return NewGeneratorWithConfig(config.NewConfig(), nil)
}

// NewGeneratorWithConfig creates a Generator that consults cfg for
// placeholder rules and array counts. A nil logger uses slog.Default().
func NewGeneratorWithConfig(cfg *config.Config, logger *slog.Logger) *Generator {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Synthesize builds a template holding exactly the selected paths using the
// default generator.
func Synthesize(sel models.PathSet, docs []models.Document) models.JSONValue {
	return NewGenerator().Synthesize(sel, docs)
}

// Synthesize builds a template holding exactly the selected paths. The
// result is {} when nothing is selected or no document is valid. The root is
// an array only when every selected path lives under a root array; otherwise
// paths under a root array are skipped.
func (g *Generator) Synthesize(sel models.PathSet, docs []models.Document) models.JSONValue {
	valid := models.ValidDocuments(docs)
	if len(sel) == 0 || len(valid) == 0 {
		return models.JSONObject{}
	}

	var paths []path.Path
	rootArray := true
	for _, s := range sel.Sorted() {
		p := path.Parse(s)
		if len(p) == 0 {
			continue
		}
		if p[0].Kind != path.Element {
			rootArray = false
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		return models.JSONObject{}
	}

	var template models.JSONValue = models.JSONObject{}
	if rootArray {
		template = models.JSONArray{}
	}
	for _, p := range paths {
		if !rootArray && p[0].Kind == path.Element {
			g.logger.Debug("skipping root array path in object template", "path", p.String())
			continue
		}
		template = insert(template, p, g.resolve(p, valid))
	}
	return template
}

// Resolve returns the first non-null value at p across the valid documents
// in load order, or a placeholder when no document has one. Containers come
// back as their skeleton.
func (g *Generator) Resolve(p string, docs []models.Document) models.JSONValue {
	return g.resolve(path.Parse(p), models.ValidDocuments(docs))
}

func (g *Generator) resolve(p path.Path, valid []models.Document) models.JSONValue {
	if value, ok := Lookup(p, valid); ok {
		return skeleton(value)
	}
	g.logger.Debug("no value found, using placeholder", "path", p.String())
	return g.Placeholder(p.String())
}

// Lookup performs the cascade read: the first document in order holding a
// non-null value at p wins. Arrays are read through their first element, so
// a missing or empty array is simply "not found".
func Lookup(p path.Path, docs []models.Document) (models.JSONValue, bool) {
	if len(p) == 0 {
		return nil, false
	}
	x := p.Expr()
	for _, doc := range docs {
		if !doc.Valid || doc.Content == nil {
			continue
		}
		if value := x.First(doc.Content); value != nil {
			return value, true
		}
	}
	return nil, false
}

// skeleton reduces a container to the shape needed to hold selected
// descendants: objects become empty, arrays of containers keep one skeleton
// element. Scalar arrays are copied whole.
func skeleton(v models.JSONValue) models.JSONValue {
	switch t := v.(type) {
	case map[string]any:
		return models.JSONObject{}
	case []any:
		if len(t) > 0 {
			switch t[0].(type) {
			case map[string]any, []any:
				return models.JSONArray{skeleton(t[0])}
			}
		}
		return deepCopy(t)
	default:
		return v
	}
}

func deepCopy(v models.JSONValue) models.JSONValue {
	switch t := v.(type) {
	case map[string]any:
		out := make(models.JSONObject, len(t))
		for k, child := range t {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make(models.JSONArray, len(t))
		for i, child := range t {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}

// insert places value at p inside container, creating the minimal chain of
// containers on the way. A non-container in the way is replaced; an empty
// array gains a first element.
func insert(container models.JSONValue, p path.Path, value models.JSONValue) models.JSONValue {
	if len(p) == 0 {
		return place(container, value)
	}

	if p[0].Kind == path.Element {
		arr, ok := container.([]any)
		if !ok {
			arr = models.JSONArray{}
		}
		if len(arr) == 0 {
			arr = append(arr, nil)
		}
		arr[0] = insert(arr[0], p[1:], value)
		return arr
	}

	obj, ok := container.(map[string]any)
	if !ok {
		obj = models.JSONObject{}
	}
	obj[p[0].Name] = insert(obj[p[0].Name], p[1:], value)
	return obj
}

// place stores value where existing was. Structure built by earlier
// insertions survives: a skeleton never wipes out populated containers.
func place(existing, value models.JSONValue) models.JSONValue {
	switch cur := existing.(type) {
	case map[string]any:
		if incoming, ok := value.(map[string]any); ok {
			for k, v := range incoming {
				if _, taken := cur[k]; !taken {
					cur[k] = v
				}
			}
			return cur
		}
	case []any:
		if _, ok := value.([]any); ok && len(cur) > 0 {
			return cur
		}
	}
	return value
}

// DeriveArrayConfig builds the array configuration for a selection: one
// entry per array root of every selected path, listing the selected paths
// inside that array's element. counts overrides the default per path; every
// count is clamped to the configured bounds.
func (g *Generator) DeriveArrayConfig(sel models.PathSet, counts map[string]int) models.ArrayConfig {
	cfg := make(models.ArrayConfig)
	selected := sel.Sorted()
	for _, s := range selected {
		for _, root := range path.Parse(s).ArrayRoots() {
			key := root.String()
			if _, seen := cfg[key]; seen {
				continue
			}
			count := g.cfg.ArrayCount(key)
			if n, ok := counts[key]; ok {
				count = g.cfg.ClampCount(n)
			}
			cfg[key] = models.ArrayOptions{
				Count:      count,
				Properties: propertiesUnder(root, selected),
			}
		}
	}
	return cfg
}

func propertiesUnder(root path.Path, selected []string) []string {
	element := root.Element()
	var props []string
	for _, s := range selected {
		p := path.Parse(s)
		if len(p) > len(element) && p.HasPrefix(element) {
			props = append(props, s)
		}
	}
	return props
}

// Expand replaces every configured array in template with Count freshly
// resolved elements. Shallow arrays are expanded first so nested arrays are
// expanded inside every element of their enclosing array. Entries with a
// count below one or no properties are left alone.
func (g *Generator) Expand(template models.JSONValue, arrays models.ArrayConfig, docs []models.Document) models.JSONValue {
	valid := models.ValidDocuments(docs)
	if len(valid) == 0 {
		return template
	}

	roots := make([]path.Path, 0, len(arrays))
	for key := range arrays {
		roots = append(roots, path.Parse(key))
	}
	sort.Slice(roots, func(i, j int) bool {
		if len(roots[i]) != len(roots[j]) {
			return len(roots[i]) < len(roots[j])
		}
		return roots[i].String() < roots[j].String()
	})

	for _, root := range roots {
		opts := arrays[root.String()]
		if opts.Count < 1 || len(opts.Properties) == 0 {
			continue
		}
		props := make([]path.Path, 0, len(opts.Properties))
		for _, s := range opts.Properties {
			props = append(props, path.Parse(s))
		}
		sort.Slice(props, func(i, j int) bool { return props[i].String() < props[j].String() })

		g.logger.Debug("expanding array", "path", root.String(), "count", opts.Count, "properties", len(props))
		template = replaceAt(template, root, func() models.JSONValue {
			return g.elements(root, props, opts.Count, valid)
		})
	}
	return template
}

// elements builds count independent array elements from the selected
// properties below root.
func (g *Generator) elements(root path.Path, props []path.Path, count int, valid []models.Document) models.JSONArray {
	out := make(models.JSONArray, 0, count)
	for i := 0; i < count; i++ {
		var element models.JSONValue
		for _, p := range props {
			element = insert(element, p.Relative(root), g.resolve(p, valid))
		}
		out = append(out, element)
	}
	return out
}

// replaceAt swaps the array found at p for build(), fanning out over every
// element of any enclosing array. Locations that do not hold an array are
// left untouched.
func replaceAt(node models.JSONValue, p path.Path, build func() models.JSONValue) models.JSONValue {
	if len(p) == 0 {
		if _, ok := node.([]any); ok {
			return build()
		}
		return node
	}

	if p[0].Kind == path.Element {
		if arr, ok := node.([]any); ok {
			for i := range arr {
				arr[i] = replaceAt(arr[i], p[1:], build)
			}
		}
		return node
	}

	if obj, ok := node.(map[string]any); ok {
		if child, exists := obj[p[0].Name]; exists {
			obj[p[0].Name] = replaceAt(child, p[1:], build)
		}
	}
	return node
}

// SynthesizeWithArrays synthesizes a template and expands its arrays. A nil
// configuration is derived from the selection.
func (g *Generator) SynthesizeWithArrays(sel models.PathSet, docs []models.Document, arrays models.ArrayConfig) models.JSONValue {
	if arrays == nil {
		arrays = g.DeriveArrayConfig(sel, nil)
	}
	return g.Expand(g.Synthesize(sel, docs), arrays, docs)
}

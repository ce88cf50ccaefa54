// Package hierarchy layers tree information and expansion state over a flat
// property map. Expansion is UI state: it decides which properties are
// rendered, never which exist.
package hierarchy

import (
	"sort"

	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/path"
)

// Collapsed is the initial level that leaves everything below the root hidden.
const Collapsed = -1

// Decorate sets HasChildren, IsExpanded and ViewLevel on every property of
// pm. Properties at or above initialLevel start expanded; Collapsed keeps
// only the root level visible. Keys are never changed.
func Decorate(pm models.PropertyMap, initialLevel int) models.PropertyMap {
	withChildren := parentsOf(pm)
	for p, prop := range pm {
		prop.HasChildren = withChildren.Has(p)
		prop.IsExpanded = initialLevel >= 0 && prop.Level <= initialLevel && prop.HasChildren
		prop.ViewLevel = path.Parse(p).Level()
	}
	return pm
}

// InitialExpanded returns the expanded set matching Decorate's policy.
func InitialExpanded(pm models.PropertyMap, initialLevel int) models.PathSet {
	if initialLevel < 0 {
		return models.NewPathSet()
	}
	return ExpandToLevel(pm, initialLevel)
}

// parentsOf collects every key of pm that has at least one descendant key.
func parentsOf(pm models.PropertyMap) models.PathSet {
	parents := models.NewPathSet()
	for p := range pm {
		for _, ancestor := range prefixes(path.Parse(p)) {
			if key := ancestor.String(); pm[key] != nil {
				parents.Add(key)
			}
		}
	}
	return parents
}

// prefixes returns the strict prefixes of p that end in a field.
func prefixes(p path.Path) []path.Path {
	var out []path.Path
	for i := 1; i < len(p); i++ {
		if p[i-1].Kind == path.Field {
			out = append(out, p[:i:i])
		}
	}
	return out
}

// HasChildren reports whether any other key of pm lives below p.
func HasChildren(p string, pm models.PropertyMap) bool {
	target := path.Parse(p)
	if len(target) == 0 {
		return false
	}
	for key := range pm {
		if path.Parse(key).IsDescendantOf(target) {
			return true
		}
	}
	return false
}

// IsArrayParent reports whether p is an array whose elements have properties.
func IsArrayParent(p string, pm models.PropertyMap) bool {
	prop := pm[p]
	return prop != nil && prop.Type == models.TypeArray && HasChildren(p, pm)
}

// DirectChildren returns the keys whose parent is p, sorted.
func DirectChildren(p string, pm models.PropertyMap) []string {
	target := path.Parse(p)
	var children []string
	for key := range pm {
		if parent, ok := path.Parse(key).Parent(); ok && parent.Equal(target) {
			children = append(children, key)
		}
	}
	sort.Strings(children)
	return children
}

// Descendants returns every key below p, sorted.
func Descendants(p string, pm models.PropertyMap) []string {
	target := path.Parse(p)
	var out []string
	for key := range pm {
		if path.Parse(key).IsDescendantOf(target) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// Visible reports whether p should be rendered: every strict ancestor must
// be expanded. Object and array nesting follow the same rule.
func Visible(p string, expanded models.PathSet) bool {
	for _, ancestor := range path.Parse(p).Ancestors() {
		if !expanded.Has(ancestor.String()) {
			return false
		}
	}
	return true
}

// Node is a property as the tree renderer sees it.
type Node struct {
	*models.Property
	HasChildren   bool `json:"hasChildren"`
	IsExpanded    bool `json:"isExpanded"`
	IsArrayParent bool `json:"isArrayParent"`
	ViewLevel     int  `json:"viewLevel"`
}

// Tree returns the visible nodes in path order.
func Tree(pm models.PropertyMap, expanded models.PathSet) []Node {
	if pm == nil {
		return nil
	}
	withChildren := parentsOf(pm)

	keys := make([]string, 0, len(pm))
	for p := range pm {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	var nodes []Node
	for _, p := range keys {
		if !Visible(p, expanded) {
			continue
		}
		prop := pm[p]
		hasChildren := withChildren.Has(p)
		nodes = append(nodes, Node{
			Property:      prop,
			HasChildren:   hasChildren,
			IsExpanded:    expanded.Has(p),
			IsArrayParent: hasChildren && prop.Type == models.TypeArray,
			ViewLevel:     path.Parse(p).Level(),
		})
	}
	return nodes
}

// ToggleExpansion expands p, or collapses it together with every expanded
// descendant. The input set is not modified.
func ToggleExpansion(p string, expanded models.PathSet) models.PathSet {
	next := expanded.Clone()
	if !expanded.Has(p) {
		next.Add(p)
		return next
	}

	next.Remove(p)
	target := path.Parse(p)
	for key := range expanded {
		if path.Parse(key).IsDescendantOf(target) {
			next.Remove(key)
		}
	}
	return next
}

// ExpandAll expands every property that has children.
func ExpandAll(pm models.PropertyMap) models.PathSet {
	return parentsOf(pm)
}

// CollapseAll returns the clean state where only the root level shows.
func CollapseAll() models.PathSet {
	return models.NewPathSet()
}

// ExpandToLevel expands every property with children at or above level.
func ExpandToLevel(pm models.PropertyMap, level int) models.PathSet {
	parents := parentsOf(pm)
	out := models.NewPathSet()
	for p := range parents {
		if pm[p].Level <= level {
			out.Add(p)
		}
	}
	return out
}

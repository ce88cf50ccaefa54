// Package selection maintains the set of properties chosen for a template.
//
// Every operation is a pure function of its inputs: the current set is never
// modified, a new one is returned. Selecting a path also selects its ancestor
// chain; deselecting a path also deselects everything below it. Siblings,
// children and other array elements are never selected implicitly.
package selection

import (
	"sort"

	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/path"
)

// Set is a selection of property paths.
type Set = models.PathSet

// Mode is the direction of a batch change.
type Mode int

const (
	ModeSelect Mode = iota
	ModeDeselect
)

func (m Mode) String() string {
	if m == ModeDeselect {
		return "deselect"
	}
	return "select"
}

// Toggle flips p in current.
func Toggle(p string, current Set, pm models.PropertyMap) Set {
	if current.Has(p) {
		return ApplyDelta([]string{p}, ModeDeselect, current, pm)
	}
	return ApplyDelta([]string{p}, ModeSelect, current, pm)
}

// ApplyDelta selects or deselects every path in paths as one change.
// Selecting an already selected path, or deselecting an unselected one,
// leaves it alone, so the result does not depend on the order of paths.
func ApplyDelta(paths []string, mode Mode, current Set, pm models.PropertyMap) Set {
	next := current.Clone()
	for _, p := range paths {
		if mode == ModeDeselect {
			deselect(next, p)
		} else {
			selectWithAncestors(next, p, pm)
		}
	}
	return next
}

func selectWithAncestors(s Set, p string, pm models.PropertyMap) {
	s.Add(p)
	for _, ancestor := range path.Parse(p).Ancestors() {
		if key := ancestor.String(); pm[key] != nil {
			s.Add(key)
		}
	}
}

func deselect(s Set, p string) {
	s.Remove(p)
	target := path.Parse(p)
	for key := range s {
		if path.Parse(key).IsDescendantOf(target) {
			s.Remove(key)
		}
	}
}

// Closure returns sel plus every ancestor of its members that exists in pm.
func Closure(sel Set, pm models.PropertyMap) Set {
	return ApplyDelta(sel.Sorted(), ModeSelect, models.NewPathSet(), pm)
}

// SelectAll selects every property in pm.
func SelectAll(pm models.PropertyMap) Set {
	s := make(Set, len(pm))
	for p := range pm {
		s.Add(p)
	}
	return s
}

// IsIndeterminate reports whether some, but not all, properties below p are
// selected.
func IsIndeterminate(p string, sel Set, pm models.PropertyMap) bool {
	target := path.Parse(p)
	total, selected := 0, 0
	for key := range pm {
		if !path.Parse(key).IsDescendantOf(target) {
			continue
		}
		total++
		if sel.Has(key) {
			selected++
		}
	}
	return selected > 0 && selected < total
}

// IsValid reports whether every known ancestor of p is selected.
func IsValid(p string, sel Set, pm models.PropertyMap) bool {
	for _, ancestor := range path.Parse(p).Ancestors() {
		key := ancestor.String()
		if pm[key] != nil && !sel.Has(key) {
			return false
		}
	}
	return true
}

// Unknown returns the selected paths that pm does not contain, sorted.
func Unknown(sel Set, pm models.PropertyMap) []string {
	var out []string
	for p := range sel {
		if pm[p] == nil {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Prune drops selected paths that pm no longer contains.
func Prune(sel Set, pm models.PropertyMap) Set {
	out := make(Set, len(sel))
	for p := range sel {
		if pm[p] != nil {
			out.Add(p)
		}
	}
	return out
}

// Info summarizes a selection.
type Info struct {
	Total        int                         `json:"total"`
	ByType       map[models.PropertyType]int `json:"byType"`
	ByLevel      map[int]int                 `json:"byLevel"`
	Required     int                         `json:"required"`
	Optional     int                         `json:"optional"`
	ArrayRelated int                         `json:"arrayRelated"`
	Unknown      []string                    `json:"unknown,omitempty"`
}

// Describe computes Info for sel against pm.
func Describe(sel Set, pm models.PropertyMap) Info {
	info := Info{
		ByType:  make(map[models.PropertyType]int),
		ByLevel: make(map[int]int),
		Unknown: Unknown(sel, pm),
	}
	for p := range sel {
		prop := pm[p]
		if prop == nil {
			continue
		}
		info.Total++
		info.ByType[prop.Type]++
		info.ByLevel[prop.Level]++
		if prop.IsRequired {
			info.Required++
		} else {
			info.Optional++
		}
		if prop.Type == models.TypeArray || path.Parse(p).HasElements() {
			info.ArrayRelated++
		}
	}
	return info
}
